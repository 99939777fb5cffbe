package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/push"
)

// subscribePayload mirrors the browser PushSubscription JSON shape.
type subscribePayload struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// handleSubscribe stores a browser push subscription. Registering the same
// endpoint twice is an already-subscribed success, not an error, because
// service workers re-post their subscription on every page load.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var payload subscribePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Abonnement push invalide"), http.StatusBadRequest)
		return
	}

	var created bool
	err := s.db.Write(func(tx *sql.Tx) error {
		var subErr error
		created, subErr = s.db.CreatePushSubscription(tx, &database.PushSubscription{
			Endpoint: payload.Endpoint,
			P256dh:   payload.Keys.P256dh,
			Auth:     payload.Keys.Auth,
		})
		return subErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	s.writeJSON(w, status, envelope{"success": true, "created": created})
}

// pushSendPayload is the admin broadcast body.
type pushSendPayload struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
	URL   string `json:"url"`
}

// handlePushSend fans a notification out to every stored subscription and
// waits for all sends before answering. sentCount is the number of
// subscriptions dispatched to, not a delivery receipt; endpoints the push
// provider reports gone are pruned along the way.
func (s *Server) handlePushSend(w http.ResponseWriter, r *http.Request) {
	if !s.config.PushEnabled() {
		s.errorJSON(w, errors.New("Notifications push non configurées"), http.StatusServiceUnavailable)
		return
	}

	var payload pushSendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Titre et message requis"), http.StatusBadRequest)
		return
	}

	sentCount, err := s.push.Broadcast(push.Notification{
		Title: payload.Title,
		Body:  payload.Body,
		URL:   payload.URL,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "sentCount": sentCount})
}

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tlehoux/promofunnel/internal/database"
)

// broadcastPayload is the admin banner-broadcast body.
type broadcastPayload struct {
	Message string `json:"message" validate:"required"`
	Level   string `json:"level" validate:"omitempty,oneof=info success warning error"`
}

// handleBroadcast records a site-wide banner as a broadcast event. The public
// endpoint serves it for 24 hours; connected pages learn about it immediately
// through the live stream.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var payload broadcastPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Message requis"), http.StatusBadRequest)
		return
	}
	if payload.Level == "" {
		payload.Level = "info"
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"message": payload.Message,
		"level":   payload.Level,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	var created *database.Event
	err = s.db.Write(func(tx *sql.Tx) error {
		var insertErr error
		created, insertErr = s.db.InsertEvent(tx, &database.Event{
			Type:     database.EventBroadcast,
			Metadata: string(metadata),
		})
		return insertErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.broker.Publish(topicBroadcast)
	s.writeJSON(w, http.StatusCreated, envelope{"notification": toBroadcastResponse(created)})
}

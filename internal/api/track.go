package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/useragent"
)

// trackEventPayload is the body of the public tracking endpoint. Everything
// except the type is optional; device and browser are never trusted from the
// client and always derived from the User-Agent header.
type trackEventPayload struct {
	Type      string                 `json:"type" validate:"required"`
	SessionID string                 `json:"sessionId"`
	Source    string                 `json:"source"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// handleTrackEvent records one funnel event. The endpoint is deliberately
// tolerant: duplicate calls from retrying clients are stored as-is, with no
// server-side dedup.
func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var payload trackEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Le champ type est requis"), http.StatusBadRequest)
		return
	}

	ua := r.Header.Get("User-Agent")

	// The Referer header wins over whatever the client claims as source.
	source := r.Header.Get("Referer")
	if source == "" {
		source = payload.Source
	}

	metadata := "{}"
	if len(payload.Metadata) > 0 {
		if raw, err := json.Marshal(payload.Metadata); err == nil {
			metadata = string(raw)
		}
	}

	event := &database.Event{
		Type:      payload.Type,
		Source:    toNullString(source),
		Device:    useragent.Device(ua),
		Browser:   useragent.Browser(ua),
		SessionID: toNullString(payload.SessionID),
		Metadata:  metadata,
	}

	var created *database.Event
	err := s.db.Write(func(tx *sql.Tx) error {
		var insertErr error
		created, insertErr = s.db.InsertEvent(tx, event)
		return insertErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true, "eventId": created.ID})
}

// toNullString maps "" to a NULL column value.
func toNullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

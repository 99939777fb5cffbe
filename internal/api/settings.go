package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tlehoux/promofunnel/internal/database"
)

// handleGetPromoCode returns the single active promo code, or an empty code
// when none has been configured yet.
func (s *Server) handleGetPromoCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.db.GetActivePromoCode(s.db.DB())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSON(w, http.StatusOK, envelope{"promoCode": nil})
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"promoCode": code})
}

// handleSetPromoCode swaps the active promo code in one transaction, so the
// single-active invariant enforced by the partial unique index holds at every
// point in time.
func (s *Server) handleSetPromoCode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}

	payload.Code = strings.TrimSpace(payload.Code)
	if payload.Code == "" {
		s.errorJSON(w, errors.New("Code promo requis"), http.StatusBadRequest)
		return
	}

	var updated *database.PromoCode
	err := s.db.Write(func(tx *sql.Tx) error {
		var setErr error
		updated, setErr = s.db.SetActivePromoCode(tx, payload.Code)
		return setErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicPromo)
	s.writeJSON(w, http.StatusOK, envelope{"promoCode": updated})
}

// handleGetSettings returns every settings row as a flat key/value object.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.GetAllSettings(s.db.DB())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	kv := make(map[string]string, len(settings))
	for _, setting := range settings {
		kv[setting.Key] = setting.Value
	}
	s.writeJSON(w, http.StatusOK, envelope{"settings": kv})
}

// handleSetSettings upserts the posted key/value pairs in one transaction.
// Keys not present in the body are left untouched.
func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if len(payload) == 0 {
		s.errorJSON(w, errors.New("Aucun paramètre fourni"), http.StatusBadRequest)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		for key, value := range payload {
			if err := s.db.SetSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicSettings)
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

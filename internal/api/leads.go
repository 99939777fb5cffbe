package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/useragent"
)

// signupPayload is the public signup body.
type signupPayload struct {
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

// handleSignup captures a lead from the public funnel. The lead is enriched
// the same way tracked events are, stamped with the promo code active at the
// moment of signup, and a signup_click event is recorded in the same
// transaction so the funnel numbers stay consistent with the lead list.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Adresse email valide requise"), http.StatusBadRequest)
		return
	}

	ua := r.Header.Get("User-Agent")
	source := r.Header.Get("Referer")
	if source == "" {
		source = payload.Source
	}

	promoCode := ""
	if code, err := s.db.GetActivePromoCode(s.db.DB()); err == nil {
		promoCode = code.Code
	}

	lead := &database.Lead{
		Email:     payload.Email,
		Phone:     toNullString(payload.Phone),
		PromoCode: toNullString(promoCode),
		Source:    toNullString(source),
		Device:    toNullString(useragent.Device(ua)),
		Browser:   toNullString(useragent.Browser(ua)),
	}

	var created *database.Lead
	err := s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateLead(tx, lead)
		if createErr != nil {
			return createErr
		}
		_, createErr = s.db.InsertEvent(tx, &database.Event{
			Type:    database.EventSignupClick,
			Source:  toNullString(source),
			Device:  useragent.Device(ua),
			Browser: useragent.Browser(ua),
		})
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if s.email.Enabled() {
		go func(email, phone, code string) {
			if err := s.email.NotifyNewLead(email, phone, code); err != nil {
				s.log.Warn("lead notification email failed", zap.Error(err))
			}
		}(created.Email, payload.Phone, promoCode)
	}

	s.broker.Publish(topicLeads)
	s.writeJSON(w, http.StatusCreated, envelope{"success": true, "lead": toLeadResponse(created)})
}

// --- Admin lead management ---

type leadPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	PromoCode string `json:"promoCode"`
	Source    string `json:"source"`
	Status    string `json:"status"`
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.db.GetLeads(s.db.DB())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"users": toLeadResponseList(leads)})
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var payload leadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Adresse email valide requise"), http.StatusBadRequest)
		return
	}

	lead := &database.Lead{
		Email:     payload.Email,
		Phone:     toNullString(payload.Phone),
		PromoCode: toNullString(payload.PromoCode),
		Source:    toNullString(payload.Source),
		Status:    payload.Status,
	}

	var created *database.Lead
	err := s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateLead(tx, lead)
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.broker.Publish(topicLeads)
	s.writeJSON(w, http.StatusCreated, envelope{"user": toLeadResponse(created)})
}

// handleUpdateLead rewrites a lead's admin-editable fields, chiefly its
// follow-up status. An omitted status keeps the current one.
func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	var payload leadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Adresse email valide requise"), http.StatusBadRequest)
		return
	}

	existing, err := s.db.GetLeadByID(s.db.DB(), id)
	if err != nil {
		s.errorJSON(w, errors.New("Utilisateur introuvable"), http.StatusNotFound)
		return
	}
	if payload.Status == "" {
		payload.Status = existing.Status
	}

	lead := &database.Lead{
		ID:        id,
		Email:     payload.Email,
		Phone:     toNullString(payload.Phone),
		PromoCode: toNullString(payload.PromoCode),
		Source:    toNullString(payload.Source),
		Status:    payload.Status,
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateLead(tx, lead)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Utilisateur introuvable")
		return
	}

	updated, err := s.db.GetLeadByID(s.db.DB(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.broker.Publish(topicLeads)
	s.writeJSON(w, http.StatusOK, envelope{"user": toLeadResponse(updated)})
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteLead(tx, id)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Utilisateur introuvable")
		return
	}

	s.broker.Publish(topicLeads)
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tlehoux/promofunnel/internal/database"
)

// testimonialPayload is the JSON/form body for creating or updating a
// testimonial.
type testimonialPayload struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	Date     string `json:"date"`
	Source   string `json:"source"`
	ImageURL string `json:"imageUrl"`
	Rating   int    `json:"rating"`
	IsActive bool   `json:"isActive"`
	Order    int    `json:"order"`
}

// decodeTestimonialPayload reads the payload from either a JSON body or a
// multipart form (used when an image file rides along). With multipart, a
// successfully stored upload overrides any imageUrl field; a failed upload is
// logged and the testimonial is saved without an image.
func (s *Server) decodeTestimonialPayload(r *http.Request) (*testimonialPayload, error) {
	payload := &testimonialPayload{Rating: 5}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, err
		}
		payload.Name = r.FormValue("name")
		payload.Text = r.FormValue("text")
		payload.Date = r.FormValue("date")
		payload.Source = r.FormValue("source")
		payload.ImageURL = r.FormValue("imageUrl")
		if rating, err := strconv.Atoi(r.FormValue("rating")); err == nil {
			payload.Rating = rating
		}
		payload.IsActive = r.FormValue("isActive") == "true"
		payload.Order, _ = strconv.Atoi(r.FormValue("order"))

		if url := s.uploadOrLog(r, "image"); url != "" {
			payload.ImageURL = url
		}
		return payload, nil
	}

	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *testimonialPayload) toModel() *database.Testimonial {
	return &database.Testimonial{
		Name:      p.Name,
		Text:      p.Text,
		Date:      toNullString(p.Date),
		Source:    toNullString(p.Source),
		ImageURL:  toNullString(p.ImageURL),
		Rating:    p.Rating,
		IsActive:  p.IsActive,
		SortOrder: p.Order,
	}
}

// handleSubmitTestimonial is the public submission endpoint. New entries
// always start inactive and only reach the landing page after an admin
// approves them, so no cache invalidation happens here.
func (s *Server) handleSubmitTestimonial(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeTestimonialPayload(r)
	if err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if payload.Name == "" || payload.Text == "" {
		s.errorJSON(w, errors.New("Nom et témoignage requis"), http.StatusBadRequest)
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		s.errorJSON(w, errors.New("Note invalide (1 à 5)"), http.StatusBadRequest)
		return
	}

	testimonial := payload.toModel()
	testimonial.IsActive = false // pending moderation, whatever the client sent

	var created *database.Testimonial
	err = s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateTestimonial(tx, testimonial)
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if s.email.Enabled() {
		go func(name, text string) {
			if err := s.email.NotifyNewTestimonial(name, text); err != nil {
				s.log.Warn("testimonial notification email failed", zap.Error(err))
			}
		}(created.Name, created.Text)
	}

	s.writeJSON(w, http.StatusCreated, envelope{
		"success":     true,
		"testimonial": toTestimonialResponse(created),
	})
}

// handleListTestimonials returns every testimonial, pending ones included,
// for the moderation view.
func (s *Server) handleListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := s.db.GetTestimonials(s.db.DB(), false)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"testimonials": toTestimonialResponseList(testimonials)})
}

func (s *Server) handleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeTestimonialPayload(r)
	if err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if payload.Name == "" || payload.Text == "" {
		s.errorJSON(w, errors.New("Nom et témoignage requis"), http.StatusBadRequest)
		return
	}

	var created *database.Testimonial
	err = s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateTestimonial(tx, payload.toModel())
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicTestimonials)
	s.writeJSON(w, http.StatusCreated, envelope{"testimonial": toTestimonialResponse(created)})
}

func (s *Server) handleUpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	payload, err := s.decodeTestimonialPayload(r)
	if err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}

	testimonial := payload.toModel()
	testimonial.ID = id

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateTestimonial(tx, testimonial)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Témoignage introuvable")
		return
	}

	updated, err := s.db.GetTestimonialByID(s.db.DB(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicTestimonials)
	s.writeJSON(w, http.StatusOK, envelope{"testimonial": toTestimonialResponse(updated)})
}

func (s *Server) handleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteTestimonial(tx, id)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Témoignage introuvable")
		return
	}

	s.contentChanged(topicTestimonials)
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

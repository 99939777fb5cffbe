package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tlehoux/promofunnel/internal/database"
)

type videoPayload struct {
	Title        string `json:"title"`
	URL          string `json:"url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	IsActive     bool   `json:"isActive"`
	IsTutorial   bool   `json:"isTutorial"`
	Order        int    `json:"order"`
}

func (p *videoPayload) toModel() *database.Video {
	return &database.Video{
		Title:        p.Title,
		URL:          p.URL,
		ThumbnailURL: toNullString(p.ThumbnailURL),
		IsActive:     p.IsActive,
		IsTutorial:   p.IsTutorial,
		SortOrder:    p.Order,
	}
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.db.GetVideos(s.db.DB(), false)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"videos": toVideoResponseList(videos)})
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var payload videoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("URL de vidéo requise"), http.StatusBadRequest)
		return
	}

	var created *database.Video
	err := s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateVideo(tx, payload.toModel())
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicVideos)
	s.writeJSON(w, http.StatusCreated, envelope{"video": toVideoResponse(created)})
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	var payload videoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("URL de vidéo requise"), http.StatusBadRequest)
		return
	}

	video := payload.toModel()
	video.ID = id

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateVideo(tx, video)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Vidéo introuvable")
		return
	}

	updated, err := s.db.GetVideoByID(s.db.DB(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicVideos)
	s.writeJSON(w, http.StatusOK, envelope{"video": toVideoResponse(updated)})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteVideo(tx, id)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Vidéo introuvable")
		return
	}

	s.contentChanged(topicVideos)
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

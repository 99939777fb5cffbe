package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tlehoux/promofunnel/internal/database"
)

// screenshotPayload is the JSON/form body for a winning screenshot. The
// visibility flags are pointers so an omitted flag keeps its default (true)
// instead of silently collapsing to false.
type screenshotPayload struct {
	Name        string `json:"name"`
	Message     string `json:"message"`
	Amount      string `json:"amount"`
	Time        string `json:"time"`
	ImageURL    string `json:"imageUrl"`
	Type        string `json:"type"`
	IsActive    bool   `json:"isActive"`
	Order       int    `json:"order"`
	ShowName    *bool  `json:"showName"`
	ShowMessage *bool  `json:"showMessage"`
	ShowAmount  *bool  `json:"showAmount"`
	ShowTime    *bool  `json:"showTime"`
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (s *Server) decodeScreenshotPayload(r *http.Request) (*screenshotPayload, error) {
	payload := &screenshotPayload{Type: "whatsapp", IsActive: true}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, err
		}
		payload.Name = r.FormValue("name")
		payload.Message = r.FormValue("message")
		payload.Amount = r.FormValue("amount")
		payload.Time = r.FormValue("time")
		payload.ImageURL = r.FormValue("imageUrl")
		if t := r.FormValue("type"); t != "" {
			payload.Type = t
		}
		payload.IsActive = r.FormValue("isActive") != "false"
		payload.Order, _ = strconv.Atoi(r.FormValue("order"))
		for field, dst := range map[string]**bool{
			"showName":    &payload.ShowName,
			"showMessage": &payload.ShowMessage,
			"showAmount":  &payload.ShowAmount,
			"showTime":    &payload.ShowTime,
		} {
			if v := r.FormValue(field); v != "" {
				b := v == "true"
				*dst = &b
			}
		}

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

func (p *screenshotPayload) toModel() *database.Screenshot {
	return &database.Screenshot{
		Name:        p.Name,
		Message:     p.Message,
		Amount:      p.Amount,
		Time:        p.Time,
		ImageURL:    toNullString(p.ImageURL),
		Type:        p.Type,
		IsActive:    p.IsActive,
		SortOrder:   p.Order,
		ShowName:    boolOr(p.ShowName, true),
		ShowMessage: boolOr(p.ShowMessage, true),
		ShowAmount:  boolOr(p.ShowAmount, true),
		ShowTime:    boolOr(p.ShowTime, true),
	}
}

func (s *Server) handleListScreenshots(w http.ResponseWriter, r *http.Request) {
	screenshots, err := s.db.GetScreenshots(s.db.DB(), false)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"screenshots": toAdminScreenshotResponseList(screenshots)})
}

func (s *Server) handleCreateScreenshot(w http.ResponseWriter, r *http.Request) {
	payload, err := s.decodeScreenshotPayload(r)
	if err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}

	var created *database.Screenshot
	err = s.db.Write(func(tx *sql.Tx) error {
		var createErr error
		created, createErr = s.db.CreateScreenshot(tx, payload.toModel())
		return createErr
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicScreenshots)
	s.writeJSON(w, http.StatusCreated, envelope{"screenshot": toAdminScreenshotResponse(created)})
}

func (s *Server) handleUpdateScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	payload, err := s.decodeScreenshotPayload(r)
	if err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}

	screenshot := payload.toModel()
	screenshot.ID = id

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateScreenshot(tx, screenshot)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Capture introuvable")
		return
	}

	updated, err := s.db.GetScreenshotByID(s.db.DB(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.contentChanged(topicScreenshots)
	s.writeJSON(w, http.StatusOK, envelope{"screenshot": toAdminScreenshotResponse(updated)})
}

func (s *Server) handleDeleteScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteScreenshot(tx, id)
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Capture introuvable")
		return
	}

	s.contentChanged(topicScreenshots)
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

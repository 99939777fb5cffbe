package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Cache tags double as live-sync topics: an admin mutation invalidates the
// cached public payload under the tag and publishes the same string to the
// SSE broker so open pages refetch.
const (
	topicTestimonials = "content:testimonials"
	topicScreenshots  = "content:screenshots"
	topicVideos       = "content:videos"
	topicPromo        = "settings:promo"
	topicSettings     = "settings:general"
	topicLeads        = "leads"
	topicBroadcast    = "notifications"
)

// publicHomePath is the cache key for the aggregated landing-page payload.
const publicHomePath = "/api/public/home"

// Setting keys used by the landing page.
const (
	settingTutorialVideoID = "tutorial_video_id"
	settingMemberAvatars   = "member_avatars"
)

// handlePublicHome serves the whole landing-page payload in one response:
// active testimonials, screenshots and videos, the active promo code and the
// page-level settings. The marshaled body is cached under every content tag,
// so any admin mutation drops it and the next request rebuilds it.
func (s *Server) handlePublicHome(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.revalidator.Store().Get(publicHomePath); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	db := s.db.DB()

	testimonials, err := s.db.GetTestimonials(db, true)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	screenshots, err := s.db.GetScreenshots(db, true)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	videos, err := s.db.GetVideos(db, true)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	promoCode := ""
	if code, err := s.db.GetActivePromoCode(db); err == nil {
		promoCode = code.Code
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.serverError(w, r, err)
		return
	}

	tutorialVideoID, err := s.db.GetSetting(db, settingTutorialVideoID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.serverError(w, r, err)
		return
	}

	// Member avatars are stored as a JSON array of URLs.
	memberAvatars := []string{}
	if raw, err := s.db.GetSetting(db, settingMemberAvatars); err == nil {
		json.Unmarshal([]byte(raw), &memberAvatars)
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.serverError(w, r, err)
		return
	}

	payload := envelope{
		"testimonials":    toTestimonialResponseList(testimonials),
		"screenshots":     toScreenshotResponseList(screenshots),
		"videos":          toVideoResponseList(videos),
		"promoCode":       promoCode,
		"tutorialVideoId": tutorialVideoID,
		"memberAvatars":   memberAvatars,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.revalidator.Store().Set(publicHomePath, body,
		topicTestimonials, topicScreenshots, topicVideos, topicPromo, topicSettings)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleActiveNotifications returns the broadcast banners created in the
// last 24 hours, newest first. The read flag is per-record metadata; filtering
// on it is the client's concern.
func (s *Server) handleActiveNotifications(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-24 * time.Hour)
	broadcasts, err := s.db.GetBroadcastsSince(s.db.DB(), cutoff)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"notifications": toBroadcastResponseList(broadcasts)})
}

// handleMarkNotificationRead merges {"read": true} into a broadcast event's
// metadata.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errorJSON(w, errors.New("Identifiant invalide"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.PatchEventMetadata(tx, id, map[string]interface{}{"read": true})
	})
	if err != nil {
		s.notFoundOr(w, r, err, "Notification introuvable")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

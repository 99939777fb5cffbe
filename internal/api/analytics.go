package api

import (
	"net/http"
	"time"
)

// handleStats serves the headline dashboard numbers: today vs yesterday,
// conversion rates and day-over-day growth.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.Stats(time.Now())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"stats": stats})
}

// handleAnalytics serves the detailed view: 7-day and 24-hour series plus
// device and browser breakdowns.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	overview, err := s.analytics.Overview(time.Now())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"analytics": overview})
}

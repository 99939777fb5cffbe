package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tlehoux/promofunnel/internal/cache"
)

// handleRevalidate is the inbound half of the revalidation bridge: a peer
// deployment posts the tags and paths it just invalidated and we drop the
// matching local cache entries. The shared secret is compared in constant
// time, and nothing is invalidated until it matches.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if s.config.RevalidateSecret == "" {
		s.errorJSON(w, errors.New("Revalidation non configurée"), http.StatusServiceUnavailable)
		return
	}

	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.RevalidateSecret)) != 1 {
		s.errorJSON(w, errors.New("Authentification requise"), http.StatusUnauthorized)
		return
	}

	var req cache.RevalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}

	removed := s.revalidator.Apply(req)
	s.writeJSON(w, http.StatusOK, envelope{"success": true, "invalidated": removed})
}

package api

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	googleOauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/tlehoux/promofunnel/internal/auth"
)

// loginPayload is the JSON body of the password login endpoint.
type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// setSessionCookie writes the HTTP-only session cookie the middleware reads.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(auth.SessionDuration),
		HttpOnly: true,
		Secure:   s.config.ParsedFrontendURL.Scheme == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// handleAdminLogin authenticates an admin by email and password and starts a
// cookie session. Wrong email and wrong password answer identically so the
// endpoint does not reveal which admin accounts exist.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("Corps de requête invalide"), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		s.errorJSON(w, errors.New("Email et mot de passe requis"), http.StatusBadRequest)
		return
	}

	invalidCredentials := errors.New("Email ou mot de passe incorrect")

	admin, err := s.db.GetAdminByEmail(s.db.DB(), payload.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.errorJSON(w, invalidCredentials, http.StatusUnauthorized)
			return
		}
		s.serverError(w, r, err)
		return
	}

	if !admin.PasswordHash.Valid || !auth.CheckPasswordHash(payload.Password, admin.PasswordHash.String) {
		s.errorJSON(w, invalidCredentials, http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateSessionToken(admin.ID, admin.Email, admin.Name, admin.Role, s.config.JwtSecret)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	s.writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"admin":   admin,
		"token":   token,
	})
}

// handleAdminLogout clears the session cookie. The JWT itself stays valid
// until expiry; sessions are stateless.
func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.writeJSON(w, http.StatusOK, envelope{"success": true})
}

// handleAdminMe returns the authenticated admin's profile.
func (s *Server) handleAdminMe(w http.ResponseWriter, r *http.Request) {
	claims, err := s.adminFromContext(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	admin, err := s.db.GetAdminByID(s.db.DB(), claims.AdminID)
	if err != nil {
		s.errorJSON(w, errors.New("Session invalide ou expirée"), http.StatusUnauthorized)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"admin": admin})
}

// --- Optional Google sign-in ---

// generateStateOauthCookie sets a random state cookie to tie the callback to
// this browser, preventing CSRF during the OAuth round trip.
func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := hex.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return state
}

// handleGoogleLogin redirects the admin to Google's consent page.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		s.errorJSON(w, errors.New("Connexion Google non configurée"), http.StatusServiceUnavailable)
		return
	}
	state := generateStateOauthCookie(w)
	url := s.oauth.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleGoogleCallback finishes the OAuth flow. Unlike a public sign-up flow
// there is no upsert here: a Google identity is accepted only when its email
// already belongs to an admin, so OAuth cannot mint new accounts.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	// The config check comes first: the state cookie is client-controlled,
	// so nothing derived from the request may be trusted before it.
	if s.oauth == nil {
		s.errorJSON(w, errors.New("Connexion Google non configurée"), http.StatusServiceUnavailable)
		return
	}

	oauthState, err := r.Cookie("oauthstate")
	if err != nil || r.FormValue("state") != oauthState.Value {
		s.errorJSON(w, errors.New("invalid oauth state"), http.StatusUnauthorized)
		return
	}

	code := r.FormValue("code")
	token, err := s.oauth.Exchange(context.Background(), code)
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to exchange code for token: %w", err), http.StatusInternalServerError)
		return
	}

	oauth2Service, err := googleOauth2.NewService(context.Background(), option.WithTokenSource(s.oauth.TokenSource(context.Background(), token)))
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to create oauth service: %w", err), http.StatusInternalServerError)
		return
	}
	userInfo, err := oauth2Service.Userinfo.Get().Do()
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to get user info: %w", err), http.StatusInternalServerError)
		return
	}

	admin, err := s.db.GetAdminByEmail(s.db.DB(), userInfo.Email)
	if err != nil {
		// Unknown email: bounce back to the login page, no account creation.
		http.Redirect(w, r, s.config.FrontendURL+"/admin/login?error=unauthorized", http.StatusTemporaryRedirect)
		return
	}

	appToken, err := auth.GenerateSessionToken(admin.ID, admin.Email, admin.Name, admin.Role, s.config.JwtSecret)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionCookie(w, appToken)
	http.Redirect(w, r, s.config.FrontendURL+"/admin", http.StatusTemporaryRedirect)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tlehoux/promofunnel/internal/auth"
)

// sessionCookieName is the HTTP-only cookie carrying the admin session token.
const sessionCookieName = "pf_session"

// contextKey is a custom type used for keys in context.Context. Using a
// custom type prevents collisions between context keys defined in different
// packages.
type contextKey string

// adminContextKey stores the authenticated admin's session claims in the
// request context after successful authentication.
const adminContextKey = contextKey("admin")

// requestLogger logs every request through zap, replacing chi's stdlib
// middleware.Logger.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// adminOnly protects the admin routes. The session token is expected in the
// HTTP-only cookie set at login; the Authorization header and the `token`
// query parameter are fallbacks for API clients and for the SSE stream, where
// custom headers are not available.
// No token or an invalid one terminates the request with a 401.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			tokenString = cookie.Value
		}

		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) == 2 && strings.EqualFold(headerParts[0], "bearer") {
				tokenString = headerParts[1]
			}
		}

		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			s.errorJSON(w, errors.New("Authentification requise"), http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateSessionToken(tokenString, s.config.JwtSecret)
		if err != nil {
			s.errorJSON(w, errors.New("Session invalide ou expirée"), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminFromContext retrieves the authenticated admin's claims. Only valid in
// handlers behind adminOnly.
func (s *Server) adminFromContext(r *http.Request) (*auth.SessionClaims, error) {
	claims, ok := r.Context().Value(adminContextKey).(*auth.SessionClaims)
	if !ok {
		// Indicates a server-side wiring error, not a client mistake.
		return nil, errors.New("could not retrieve admin session from context")
	}
	return claims, nil
}

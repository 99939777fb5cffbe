package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tlehoux/promofunnel/internal/analytics"
	"github.com/tlehoux/promofunnel/internal/cache"
	"github.com/tlehoux/promofunnel/internal/config"
	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/email"
	"github.com/tlehoux/promofunnel/internal/push"
	"github.com/tlehoux/promofunnel/internal/realtime"
)

// Server is the main struct for the API. It holds all dependencies required
// by the HTTP handlers, wired in at startup; this keeps the handlers modular
// and easy to test against fakes.
type Server struct {
	config      *config.Config
	db          *database.Service
	analytics   *analytics.Service
	revalidator *cache.Revalidator
	broker      *realtime.Broker
	push        *push.Broadcaster
	email       *email.Service
	log         *zap.Logger
	validate    *validator.Validate

	// oauth is built once at construction when Google sign-in is configured,
	// and stays nil otherwise. Handlers must not initialize it lazily: the
	// callback is reachable by anyone, and a shared lazy init would race.
	oauth *oauth2.Config
}

// NewServer wires the application's services into a new API server.
func NewServer(
	cfg *config.Config,
	db *database.Service,
	revalidator *cache.Revalidator,
	broker *realtime.Broker,
	broadcaster *push.Broadcaster,
	emailService *email.Service,
	log *zap.Logger,
) *Server {
	server := &Server{
		config:      cfg,
		db:          db,
		analytics:   analytics.New(db),
		revalidator: revalidator,
		broker:      broker,
		push:        broadcaster,
		email:       emailService,
		log:         log,
		validate:    validator.New(),
	}

	if cfg.GoogleOauthEnabled() {
		server.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleOauthClientID,
			ClientSecret: cfg.GoogleOauthClientSecret,
			RedirectURL:  cfg.GoogleOauthRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		}
	}

	return server
}

// envelope is a custom map type used for creating structured JSON responses,
// e.g. `envelope{"success": true, "eventId": id}`.
type envelope map[string]interface{}

// writeJSON is a helper method for sending JSON responses. It centralizes
// response logic so all JSON responses are consistent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}, headers ...http.Header) {
	js, err := json.Marshal(data)
	if err != nil {
		// If marshaling fails we can't trust our own JSON error format either.
		http.Error(w, "Internal Server Error: Failed to marshal JSON", http.StatusInternalServerError)
		return
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

// errorJSON sends a standardized `{"error": "message"}` response. Defaults to
// 500 when no status is given.
func (s *Server) errorJSON(w http.ResponseWriter, err error, status ...int) {
	statusCode := http.StatusInternalServerError
	if len(status) > 0 {
		statusCode = status[0]
	}
	s.writeJSON(w, statusCode, envelope{"error": err.Error()})
}

// serverError logs the real cause and answers with a generic French message,
// never leaking internals to the client.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.errorJSON(w, errors.New("Erreur serveur"), http.StatusInternalServerError)
}

// notFoundOr answers an id-addressed mutation error: a missing row becomes a
// 404 with the given French message, anything else is a genuine server
// failure and must not masquerade as not-found.
func (s *Server) notFoundOr(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		s.errorJSON(w, errors.New(message), http.StatusNotFound)
		return
	}
	s.serverError(w, r, err)
}

// contentChanged runs the fan-out every admin mutation owes: drop the cached
// public payloads depending on the topics, notify the peer deployment, and
// signal connected pages to refetch.
func (s *Server) contentChanged(topics ...string) {
	s.revalidator.ContentChanged(topics...)
	for _, topic := range topics {
		s.broker.Publish(topic)
	}
}

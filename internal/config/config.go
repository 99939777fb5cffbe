package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration for the application. By centralizing these
// settings, we make the application easier to manage and deploy.
type Config struct {
	// --- Server & Paths ---
	ServerAddr  string
	DataPath    string
	DbPath      string
	UploadPath  string
	FrontendURL string

	// --- Logging ---
	LogLevel string
	AppEnv   string // "production" switches the logger to JSON output

	// --- Security ---
	JwtSecret string

	// --- Default admin account (seeded when the admins table is empty) ---
	AdminEmail    string
	AdminPassword string
	AdminName     string

	// --- Web Push (VAPID) ---
	VapidPublicKey  string
	VapidPrivateKey string
	VapidSubject    string

	// --- Cache revalidation bridge ---
	RevalidateSecret string
	RevalidateURL    string

	// --- Email (SMTP, optional) ---
	SmtpHost   string
	SmtpPort   int
	SmtpUser   string
	SmtpPass   string
	SmtpSender string

	// --- Google OAuth 2.0 (optional admin sign-in) ---
	GoogleOauthClientID     string
	GoogleOauthClientSecret string
	GoogleOauthRedirectURL  string

	// Parsed version of FrontendURL for easy access to its components.
	// Used for CORS and for building redirect URLs after OAuth.
	ParsedFrontendURL *url.URL
}

// New creates a new Config instance by loading values from environment variables.
// It validates that critical variables are present and will return an error if
// the configuration is invalid, preventing the server from starting.
func New() (*Config, error) {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	cfg := &Config{
		ServerAddr:              os.Getenv("SERVER_ADDR"),
		DataPath:                os.Getenv("DATA_PATH"),
		FrontendURL:             os.Getenv("FRONTEND_URL"),
		LogLevel:                os.Getenv("LOG_LEVEL"),
		AppEnv:                  os.Getenv("APP_ENV"),
		JwtSecret:               os.Getenv("JWT_SECRET"),
		AdminEmail:              os.Getenv("ADMIN_EMAIL"),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		AdminName:               os.Getenv("ADMIN_NAME"),
		VapidPublicKey:          os.Getenv("VAPID_PUBLIC_KEY"),
		VapidPrivateKey:         os.Getenv("VAPID_PRIVATE_KEY"),
		VapidSubject:            os.Getenv("VAPID_SUBJECT"),
		RevalidateSecret:        os.Getenv("REVALIDATE_SECRET"),
		RevalidateURL:           os.Getenv("REVALIDATE_URL"),
		SmtpHost:                os.Getenv("SMTP_HOST"),
		SmtpPort:                port,
		SmtpUser:                os.Getenv("SMTP_USER"),
		SmtpPass:                os.Getenv("SMTP_PASS"),
		SmtpSender:              os.Getenv("SMTP_SENDER"),
		GoogleOauthClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		GoogleOauthClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		GoogleOauthRedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),
	}

	// --- Provide sensible defaults for non-critical values ---
	if cfg.DataPath == "" {
		cfg.DataPath = "./data"
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":8080"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AdminName == "" {
		cfg.AdminName = "Admin"
	}
	if cfg.VapidSubject == "" {
		cfg.VapidSubject = "mailto:admin@localhost"
	}

	// --- Validate critical required values ---
	// The application will "fail fast" if these are not set.
	if cfg.JwtSecret == "" {
		return nil, errors.New("FATAL: JWT_SECRET environment variable is not set")
	}

	parsedURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return nil, errors.New("FATAL: Invalid FRONTEND_URL format")
	}
	cfg.ParsedFrontendURL = parsedURL

	cfg.DbPath = filepath.Join(cfg.DataPath, "databases")
	cfg.UploadPath = filepath.Join(cfg.DataPath, "uploads")

	return cfg, nil
}

// GoogleOauthEnabled reports whether the optional Google sign-in flow is
// fully configured.
func (c *Config) GoogleOauthEnabled() bool {
	return c.GoogleOauthClientID != "" && c.GoogleOauthClientSecret != "" && c.GoogleOauthRedirectURL != ""
}

// PushEnabled reports whether Web Push broadcasts can be sent.
func (c *Config) PushEnabled() bool {
	return c.VapidPublicKey != "" && c.VapidPrivateKey != ""
}

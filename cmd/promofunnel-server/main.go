package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tlehoux/promofunnel/internal/api"
	"github.com/tlehoux/promofunnel/internal/auth"
	"github.com/tlehoux/promofunnel/internal/cache"
	"github.com/tlehoux/promofunnel/internal/config"
	"github.com/tlehoux/promofunnel/internal/database"
	"github.com/tlehoux/promofunnel/internal/email"
	"github.com/tlehoux/promofunnel/internal/push"
	"github.com/tlehoux/promofunnel/internal/realtime"
	"github.com/tlehoux/promofunnel/pkg/logger"
)

// main is the entry point for the promofunnel backend server.
func main() {
	// A .env file is a development convenience; production deployments set
	// real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, using environment variables from the system.")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("FATAL: Failed to load application configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// The database and uploads directories must exist before anything opens
	// files inside them.
	if err := os.MkdirAll(cfg.DbPath, 0755); err != nil {
		zlog.Fatal("failed to create database directory", zap.String("path", cfg.DbPath), zap.Error(err))
	}
	if err := os.MkdirAll(cfg.UploadPath, 0755); err != nil {
		zlog.Fatal("failed to create uploads directory", zap.String("path", cfg.UploadPath), zap.Error(err))
	}

	dbService, err := database.NewService(filepath.Join(cfg.DbPath, "main.db"), logger.WithComponent(zlog, "database"))
	if err != nil {
		zlog.Fatal("failed to initialize database service", zap.Error(err))
	}
	defer dbService.Close()

	// Schema migrations run once per process, before any request is served.
	if err := dbService.Migrate(); err != nil {
		zlog.Fatal("failed to run database migrations", zap.Error(err))
	}

	// Seed the first admin account so a fresh deployment is reachable.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		passwordHash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			zlog.Fatal("failed to hash default admin password", zap.Error(err))
		}
		if err := dbService.SeedDefaultAdmin(cfg.AdminEmail, passwordHash, cfg.AdminName); err != nil {
			zlog.Fatal("failed to seed default admin", zap.Error(err))
		}
	}

	broker := realtime.NewBroker(logger.WithComponent(zlog, "realtime"))

	revalidator := cache.NewRevalidator(
		cache.NewStore(),
		cfg.RevalidateURL,
		cfg.RevalidateSecret,
		logger.WithComponent(zlog, "cache"),
	)

	broadcaster := push.NewBroadcaster(
		dbService,
		cfg.VapidSubject,
		cfg.VapidPublicKey,
		cfg.VapidPrivateKey,
		logger.WithComponent(zlog, "push"),
	)

	emailService := email.NewService(email.SMTPServerConfig{
		Host:     cfg.SmtpHost,
		Port:     cfg.SmtpPort,
		Username: cfg.SmtpUser,
		Password: cfg.SmtpPass,
		Sender:   cfg.SmtpSender,
	})

	serverAPI := api.NewServer(cfg, dbService, revalidator, broker, broadcaster, emailService, logger.WithComponent(zlog, "api"))

	router := chi.NewRouter()
	serverAPI.RegisterRoutes(router)

	zlog.Info("promofunnel server starting",
		zap.String("addr", cfg.ServerAddr),
		zap.Bool("push", cfg.PushEnabled()),
		zap.Bool("googleOauth", cfg.GoogleOauthEnabled()),
		zap.Bool("email", emailService.Enabled()),
	)

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

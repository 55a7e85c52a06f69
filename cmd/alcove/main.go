package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwhitby/alcove/internal/chat"
	"github.com/mwhitby/alcove/internal/checkout"
	"github.com/mwhitby/alcove/internal/database"
	"github.com/mwhitby/alcove/internal/email"
	"github.com/mwhitby/alcove/internal/imagestore"
	"github.com/mwhitby/alcove/internal/logging"
	"github.com/mwhitby/alcove/internal/server"
)

const tokenPurgeGrace = 24 * time.Hour

func main() {
	logger := logging.Setup(os.Getenv("ALCOVE_LOG_LEVEL"))

	port := os.Getenv("ALCOVE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("ALCOVE_DB_PATH")
	if dbPath == "" {
		dbPath = "alcove.db"
	}

	baseURL := os.Getenv("ALCOVE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	mailer := email.NewClient(os.Getenv("ALCOVE_POSTMARK_TOKEN"), os.Getenv("ALCOVE_FROM_EMAIL"))

	cfg := server.Config{
		BaseURL: baseURL,
		Mailer:  mailer,
		Images: imagestore.Config{
			Endpoint:  os.Getenv("ALCOVE_S3_ENDPOINT"),
			Bucket:    os.Getenv("ALCOVE_S3_BUCKET"),
			Region:    os.Getenv("ALCOVE_S3_REGION"),
			AccessKey: os.Getenv("ALCOVE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("ALCOVE_S3_SECRET_KEY"),
			PublicURL: os.Getenv("ALCOVE_S3_PUBLIC_URL"),
		},
		Checkout: checkout.Config{
			SecretKey:     os.Getenv("ALCOVE_STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("ALCOVE_STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    baseURL + "/?checkout=success",
			CancelURL:     baseURL + "/?checkout=cancelled",
		},
		Chat: chat.Config{
			Mode:    os.Getenv("ALCOVE_CHAT_MODE"),
			APIKey:  os.Getenv("ALCOVE_CHAT_API_KEY"),
			APIURL:  os.Getenv("ALCOVE_CHAT_API_URL"),
			Model:   os.Getenv("ALCOVE_CHAT_MODEL"),
			Persona: os.Getenv("ALCOVE_CHAT_PERSONA"),
		},
	}

	srv := server.New(db, cfg, logger)

	// Hourly cleanup of expired tokens, sessions, and limiter buckets
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				if n, err := srv.LoginTokenStore().DeleteExpired(now, tokenPurgeGrace); err != nil {
					logger.Error("purge login tokens", "error", err)
				} else if n > 0 {
					logger.Info("purged login tokens", "count", n)
				}
				if n, err := srv.SessionStore().DeleteExpired(now); err != nil {
					logger.Error("purge sessions", "error", err)
				} else if n > 0 {
					logger.Info("purged sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("alcove listening", "addr", httpServer.Addr, "base_url", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

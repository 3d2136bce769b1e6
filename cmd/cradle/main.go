package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cradlehealth/cradle/internal/database"
	"github.com/cradlehealth/cradle/internal/email"
	"github.com/cradlehealth/cradle/internal/logging"
	"github.com/cradlehealth/cradle/internal/push"
	"github.com/cradlehealth/cradle/internal/registration"
	"github.com/cradlehealth/cradle/internal/server"
	"github.com/cradlehealth/cradle/internal/token"
)

func main() {
	logger := logging.Setup(os.Getenv("CRADLE_LOG_LEVEL"))

	port := os.Getenv("CRADLE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CRADLE_DB_PATH")
	if dbPath == "" {
		dbPath = "cradle.db"
	}

	jwtSecret := os.Getenv("CRADLE_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("CRADLE_JWT_SECRET is required")
	}

	policy, err := registration.ParsePolicy(os.Getenv("CRADLE_DUPLICATE_CHILD_POLICY"))
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	leadDays := 3
	if v := os.Getenv("CRADLE_REMINDER_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Fatalf("invalid CRADLE_REMINDER_DAYS: %q", v)
		}
		leadDays = n
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	tokens := token.NewService(jwtSecret, "cradle", 24*time.Hour)
	fromEmail := os.Getenv("CRADLE_FROM_EMAIL")
	emailClient := email.NewClient(os.Getenv("CRADLE_POSTMARK_TOKEN"), fromEmail)

	subscriber := os.Getenv("CRADLE_PUSH_CONTACT")
	if subscriber == "" && fromEmail != "" {
		subscriber = "mailto:" + fromEmail
	}

	cfg := server.Config{
		DuplicateChildPolicy: policy,
		ReminderLeadDays:     leadDays,
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("CRADLE_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("CRADLE_VAPID_PRIVATE_KEY"),
			Subscriber:      subscriber,
		},
	}

	srv := server.New(db, tokens, emailClient, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		logger.Info("push reminders disabled: VAPID keys not configured")
	}

	// Expire stale rate-limit buckets hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
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
		fmt.Printf("Cradle API running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

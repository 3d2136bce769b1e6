package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cradlehealth/cradle/internal/email"
	"github.com/cradlehealth/cradle/internal/handler"
	"github.com/cradlehealth/cradle/internal/middleware"
	"github.com/cradlehealth/cradle/internal/push"
	"github.com/cradlehealth/cradle/internal/registration"
	"github.com/cradlehealth/cradle/internal/store"
	"github.com/cradlehealth/cradle/internal/token"
)

type Server struct {
	db            *sql.DB
	authH         *handler.AuthHandler
	childH        *handler.ChildHandler
	profileH      *handler.ProfileHandler
	vaccineAdminH *handler.VaccineAdminHandler
	pushH         *handler.PushHandler
	userStore     *store.UserStore
	tokens        *token.Service
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

// Config carries the wiring knobs main reads from the environment.
type Config struct {
	DuplicateChildPolicy registration.DuplicatePolicy
	ReminderLeadDays     int
	Push                 push.Config
}

func New(db *sql.DB, tokens *token.Service, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	vaccineStore := store.NewVaccineStore(db)
	recordStore := store.NewChildVaccineStore(db)
	pushStore := store.NewPushStore(db)

	registrations := registration.NewService(vaccineStore, recordStore, cfg.DuplicateChildPolicy)

	var pushSched *push.Scheduler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
		pushSched = push.NewScheduler(pushSvc, pushStore, recordStore, cfg.ReminderLeadDays, logger.With("component", "push"))
	}

	return &Server{
		db:            db,
		authH:         handler.NewAuthHandler(userStore, tokens, emailClient, logger.With("component", "auth")),
		childH:        handler.NewChildHandler(registrations, recordStore, logger.With("component", "child")),
		profileH:      handler.NewProfileHandler(userStore, logger.With("component", "profile")),
		vaccineAdminH: handler.NewVaccineAdminHandler(vaccineStore, logger.With("component", "vaccine_admin")),
		pushH:         handler.NewPushHandler(pushStore, cfg.Push.VAPIDPublicKey, logger.With("component", "push_handler")),
		userStore:     userStore,
		tokens:        tokens,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler, or nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))

	// Authenticated user routes
	userMux := http.NewServeMux()
	userMux.HandleFunc("POST /api/user/register-child", s.childH.Register)
	userMux.HandleFunc("GET /api/user/children", s.childH.ListChildren)
	userMux.HandleFunc("GET /api/user/vaccines", s.childH.ListVaccines)
	userMux.HandleFunc("POST /api/user/vaccines/{id}/done", s.childH.MarkDone)
	userMux.HandleFunc("GET /api/user/profile", s.profileH.Get)
	userMux.HandleFunc("PUT /api/user/profile", s.profileH.Update)
	userMux.HandleFunc("GET /api/user/push/vapid-key", s.pushH.VAPIDKey)
	userMux.HandleFunc("POST /api/user/push/subscribe", s.pushH.Subscribe)
	userMux.HandleFunc("DELETE /api/user/push/subscriptions/{id}", s.pushH.Unsubscribe)

	// Admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/vaccines", s.vaccineAdminH.List)
	adminMux.HandleFunc("POST /api/admin/vaccines", s.vaccineAdminH.Create)
	adminMux.HandleFunc("PUT /api/admin/vaccines/{id}", s.vaccineAdminH.Update)
	adminMux.HandleFunc("DELETE /api/admin/vaccines/{id}", s.vaccineAdminH.Delete)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore)
	outerMux.Handle("/api/user/", authMiddleware(userMux))
	outerMux.Handle("/api/admin/", authMiddleware(middleware.RequireAdmin(adminMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Adithya-srikar/Medical-chatbot/internal/http/handlers"
	httpmiddleware "github.com/Adithya-srikar/Medical-chatbot/internal/http/middleware"
	"github.com/Adithya-srikar/Medical-chatbot/internal/webchat"
	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	ChatHandler   *webchat.Handler
	AdminSessions *handlers.AdminSessionsHandler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	AdminJWTSecret     string

	// Requests per second and burst allowance for the public chat routes.
	// Zero rate disables limiting.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Chat endpoints
	r.Route("/chat", func(chat chi.Router) {
		if cfg.RateLimitPerSec > 0 {
			chat.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		chat.Get("/session", cfg.ChatHandler.HandleNewSession)
		chat.Post("/message", cfg.ChatHandler.HandleMessage)
		chat.Post("/option", cfg.ChatHandler.HandleOption)
		chat.Post("/reason", cfg.ChatHandler.HandleReason)
		chat.Post("/reset", cfg.ChatHandler.HandleReset)
		chat.Get("/history", cfg.ChatHandler.HandleHistory)
		chat.Get("/ws", cfg.ChatHandler.HandleWebSocket)
	})

	// Admin routes (protected by JWT)
	if cfg.AdminJWTSecret != "" && cfg.AdminSessions != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/sessions", cfg.AdminSessions.ListSessions)
			admin.Get("/sessions/{sessionID}", cfg.AdminSessions.GetSession)
			admin.Delete("/sessions/{sessionID}", cfg.AdminSessions.DeleteSession)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/renovation-leads/internal/http/middleware"
	"github.com/wolfman30/renovation-leads/internal/leads"
	"github.com/wolfman30/renovation-leads/internal/submission"
	"github.com/wolfman30/renovation-leads/internal/wizard"
	"github.com/wolfman30/renovation-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	SubmitHandler *submission.Handler
	DraftHandler  *wizard.DraftHandler
	LeadsHandler  *leads.Handler

	// SubmitLimiter throttles the public submit endpoints per client IP.
	SubmitLimiter *httpmiddleware.RateLimiter
	CORS          *httpmiddleware.OriginPolicy

	AdminAuthSecret string
	MetricsHandler  http.Handler

	// HealthCheck reports dependency health; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.CORS != nil {
		r.Use(httpmiddleware.CORS(cfg.CORS))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.SubmitHandler != nil {
		r.Group(func(submit chi.Router) {
			if cfg.SubmitLimiter != nil {
				submit.Use(httpmiddleware.RateLimit(cfg.SubmitLimiter))
			}
			submit.HandleFunc("/api/submit-lead", cfg.SubmitHandler.SubmitLead)
			// Path used by the static site before the API moved off Netlify.
			submit.HandleFunc("/.netlify/functions/submit-lead", cfg.SubmitHandler.SubmitLead)
		})
	}

	if cfg.DraftHandler != nil {
		r.Route("/api/drafts/{variant}", func(drafts chi.Router) {
			drafts.Get("/", cfg.DraftHandler.GetDraft)
			drafts.Put("/", cfg.DraftHandler.PutDraft)
			drafts.Delete("/", cfg.DraftHandler.DeleteDraft)
		})
	}

	if cfg.LeadsHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

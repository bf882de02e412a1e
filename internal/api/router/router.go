// Package router wires the public intake endpoint and the authenticated
// admin API onto a chi router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cgvrzon/arynstal/internal/http/handlers"
	httpmiddleware "github.com/cgvrzon/arynstal/internal/http/middleware"
	"github.com/cgvrzon/arynstal/internal/intake"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	IntakeHandler *intake.Handler

	AdminLeads     *handlers.AdminLeadsHandler
	AdminBudgets   *handlers.AdminBudgetsHandler
	AdminDashboard *handlers.AdminDashboardHandler
	AdminCatalog   *handlers.AdminCatalogHandler

	AdminAuthSecret string
	StaffDirectory  httpmiddleware.StaffDirectory

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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
		public.Get("/health", healthCheck)
		if cfg.IntakeHandler != nil {
			public.Post("/contact", cfg.IntakeHandler.SubmitContactForm)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes behind the staff JWT gate
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, cfg.StaffDirectory))

		if cfg.AdminDashboard != nil {
			admin.Get("/dashboard", cfg.AdminDashboard.GetOverview)
		}
		if cfg.AdminCatalog != nil {
			admin.Get("/services", cfg.AdminCatalog.ListServices)
			admin.Get("/staff", cfg.AdminCatalog.ListStaff)
		}
		if cfg.AdminLeads != nil {
			admin.Get("/leads", cfg.AdminLeads.ListLeads)
			admin.Route("/leads/{leadID}", func(lead chi.Router) {
				lead.Get("/", cfg.AdminLeads.GetLead)
				lead.Patch("/", cfg.AdminLeads.UpdateLead)
				lead.Post("/images", cfg.AdminLeads.AddImage)
				lead.Get("/logs", cfg.AdminLeads.ListLogs)
				if cfg.AdminBudgets != nil {
					lead.Get("/budgets", cfg.AdminBudgets.ListBudgets)
					lead.Post("/budgets", cfg.AdminBudgets.CreateBudget)
				}
			})
		}
		if cfg.AdminBudgets != nil {
			admin.Route("/budgets/{budgetID}", func(budget chi.Router) {
				budget.Get("/", cfg.AdminBudgets.GetBudget)
				budget.Patch("/status", cfg.AdminBudgets.UpdateBudgetStatus)
				budget.Post("/document", cfg.AdminBudgets.AttachDocument)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

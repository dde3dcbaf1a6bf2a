package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/config"
	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/obs"
	"github.com/gestaozabele/painelpregao/internal/reset"
)

type Handler struct {
	workspaces    httpmiddleware.Workspaces
	flows         *reset.Registry
	tokens        *auth.JWTManager
	revoked       auth.Revocations
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado. Sem revoked, logouts ficam só na memória do processo.
func NewRouter(cfg *config.Config, workspaces httpmiddleware.Workspaces, flows *reset.Registry, revoked auth.Revocations) http.Handler {
	if revoked == nil {
		revoked = auth.NewMemoryRevocations()
	}
	h := &Handler{
		workspaces:    workspaces,
		flows:         flows,
		tokens:        auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTTL),
		revoked:       revoked,
		publicLimiter: httpmiddleware.NewRateLimiter("public", cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter("profile", cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(obs.Instrument)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", obs.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		api.Use(httpmiddleware.Profile(h.workspaces))
		api.Use(httpmiddleware.ProfileRateLimit(h.authLimiter))

		api.Post("/auth/register", h.RegisterCompany)
		api.Post("/auth/login", h.Login)
		api.Post("/auth/logout", h.Logout)

		api.Route("/password-reset", func(pr chi.Router) {
			pr.Post("/", h.OpenPasswordReset)
			pr.Get("/{flowID}", h.GetPasswordReset)
			pr.Post("/{flowID}/email", h.SubmitResetEmail)
			pr.Post("/{flowID}/code", h.SubmitResetCode)
			pr.Post("/{flowID}/password", h.SubmitResetPassword)
			pr.Delete("/{flowID}", h.ClosePasswordReset)
		})

		api.Group(func(private chi.Router) {
			private.Use(httpmiddleware.RequireSession(h.tokens, h.revoked))

			private.Get("/me", h.Me)
			private.Post("/me/password", h.ChangePassword)

			private.Group(func(app chi.Router) {
				app.Use(httpmiddleware.RequirePasswordChanged)

				app.Get("/companies/by-cnpj/{cnpj}", h.GetCompanyByCNPJ)

				app.Route("/employees", func(emp chi.Router) {
					emp.Use(httpmiddleware.RequireAdmin)
					emp.Get("/", h.ListEmployees)
					emp.Post("/", h.CreateEmployee)
					emp.Patch("/{userID}", h.UpdateEmployee)
					emp.Delete("/{userID}", h.DeleteEmployee)
				})

				app.Route("/monitor", func(mon chi.Router) {
					mon.Get("/items", h.ListItems)
					mon.Post("/items", h.CreateItem)
					mon.Get("/items/{itemID}", h.GetItem)
					mon.Patch("/items/{itemID}", h.UpdateItem)
					mon.Delete("/items/{itemID}", h.DeleteItem)
					mon.Get("/alerts", h.ListAlerts)
					mon.Post("/alerts", h.CreateAlert)
				})

				app.Route("/support/tickets", func(sup chi.Router) {
					sup.Get("/", h.ListSupportTickets)
					sup.Post("/", h.CreateSupportTicket)
					sup.Get("/{ticketID}", h.GetSupportTicket)
					sup.With(httpmiddleware.RequireAdmin).Patch("/{ticketID}", h.UpdateSupportTicket)
				})

				app.Get("/reports/summary", h.ReportSummary)
			})
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

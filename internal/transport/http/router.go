package http

import (
	"context"
	"net/http"

	"github.com/go-api-ledger/internal/config"
	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/transport/http/handler"
	appmiddleware "github.com/go-api-ledger/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background sweepers.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, on the credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies...)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.UserService, deps.SessionService)
	accountH := handler.NewAccountHandler(deps.AccountService)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/refresh", authH.Refresh)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)

			r.Route("/accounts", func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleCustomer))

				r.Post("/", accountH.Create)
				r.Get("/", accountH.List)
				r.Get("/{accountId}", accountH.Get)
				r.Get("/{accountId}/balance", accountH.Balance)
				r.Get("/{accountId}/transactions", accountH.Transactions)
				r.Post("/{accountId}/deposit", accountH.Deposit)
				r.Post("/{accountId}/withdraw", accountH.Withdraw)
				r.Post("/{accountId}/transfer", accountH.Transfer)
			})
		})
	})

	return r
}

package main

import (
	"net/http"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/config"
	"github.com/diewo77/bookbuddy/internal/handlers"
	"github.com/diewo77/bookbuddy/internal/loans"
	"github.com/diewo77/bookbuddy/internal/metrics"
	"github.com/diewo77/bookbuddy/internal/middleware"
	"github.com/diewo77/bookbuddy/internal/policy"
	"github.com/diewo77/bookbuddy/internal/report"
	"github.com/diewo77/bookbuddy/internal/services"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	authn   *auth.Authenticator
	gate    *policy.AuthGate
	limiter *middleware.RateLimiter

	auth          *handlers.AuthHandler
	books         *handlers.BookHandler
	loans         *handlers.LoanHandler
	users         *handlers.UserHandler
	notifications *handlers.NotificationHandler
	health        *handlers.HealthHandler
}

// NewApp wires stores, services and handlers over db. Extra engine options
// (a fixed clock in tests) are passed through to the loan engine.
func NewApp(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger, engineOpts ...loans.Option) (*App, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	reports, err := report.FromGorm(db)
	if err != nil {
		return nil, err
	}

	st := store.New(db)
	ag := policy.NewAuthGate(policy.NewDBRoleResolver(st.Users()), cfg.Auth.RoleCacheTTL)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	opts := append([]loans.Option{
		loans.WithLogger(log),
		loans.WithHoldDays(cfg.Library.ReservationHoldDays),
	}, engineOpts...)
	engine := loans.NewService(st, loans.FinePolicy{PerDay: cfg.Library.FinePerDay}, opts...)

	accounts := services.NewAccountService(st, tokens, engine, reports, ag, cfg.Library.DefaultBorrowingLimit)

	app := &App{
		mux:           http.NewServeMux(),
		authn:         auth.NewAuthenticator(tokens, nil),
		gate:          ag,
		limiter:       middleware.NewRateLimiter(cfg.Auth.LoginPerMinute),
		auth:          handlers.NewAuthHandler(accounts),
		books:         handlers.NewBookHandler(services.NewCatalogService(st)),
		loans:         handlers.NewLoanHandler(engine, reports, ag),
		users:         handlers.NewUserHandler(accounts),
		notifications: handlers.NewNotificationHandler(services.NewNotificationService(st), ag),
		health:        handlers.NewHealthHandler(sqlDB),
	}
	app.setupRoutes()

	app.handler = middleware.Chain(app.mux,
		middleware.Recover,
		middleware.RequestLogger(log),
		middleware.CORS(cfg.Server.AllowedOrigins),
		app.authn.Middleware,
		middleware.Metrics,
	)
	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Probes and metrics
	a.mux.HandleFunc("GET /health", a.health.Live)
	a.mux.HandleFunc("GET /healthz", a.health.Ready)
	a.mux.Handle("GET /metrics", metrics.Handler())

	// Auth
	a.mux.Handle("POST /api/auth/register", a.limiter.Handler(http.HandlerFunc(a.auth.Register)))
	a.mux.Handle("POST /api/auth/login", a.limiter.Handler(http.HandlerFunc(a.auth.Login)))
	a.handle("GET /api/auth/me", gate.Authenticated, a.auth.Me)

	// Catalog
	a.mux.HandleFunc("GET /api/books", a.books.List)
	a.mux.HandleFunc("GET /api/books/{id}", a.books.Get)
	a.handle("POST /api/books", gate.Admin, a.books.Create)
	a.handle("PUT /api/books/{id}", gate.Admin, a.books.Update)
	a.handle("DELETE /api/books/{id}", gate.Admin, a.books.Delete)

	// Loans
	a.handle("POST /api/loans/borrow", gate.Authenticated, a.loans.Borrow)
	a.handle("POST /api/loans/reserve", gate.Authenticated, a.loans.Reserve)
	a.handle("POST /api/loans/return", gate.Authenticated, a.loans.Return)
	a.handle("GET /api/loans/my", gate.Authenticated, a.loans.Mine)
	a.handle("GET /api/loans", gate.Manager, a.loans.List)

	// Accounts
	a.handle("GET /api/users/profile", gate.Authenticated, a.users.Profile)
	a.handle("PUT /api/users/profile", gate.Authenticated, a.users.UpdateProfile)
	a.handle("POST /api/users/pay-fine", gate.Authenticated, a.users.PayFine)
	a.handle("GET /api/users", gate.Manager, a.users.List)
	a.handle("PUT /api/users/{id}/role", gate.Admin, a.users.UpdateRole)
	a.handle("POST /api/users/{id}/clear-fine", gate.Admin, a.users.ClearFine)

	// Notifications
	a.handle("GET /api/notifications", gate.Authenticated, a.notifications.List)
	a.handle("PUT /api/notifications/{id}/read", gate.Authenticated, a.notifications.MarkRead)
	a.handle("POST /api/notifications/mark-all-read", gate.Authenticated, a.notifications.MarkAllRead)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "Route not found", nil)
	})
}

// handle registers h behind a valid token and the capability check.
func (a *App) handle(pattern string, c gate.Capability, h http.HandlerFunc) {
	a.mux.Handle(pattern, a.authn.RequireAuth(a.gate.RequireCapability(c)(h)))
}

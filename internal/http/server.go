// Package http serves the JSON API: auth, chat and the dashboard endpoints
// over the ledger.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/assistant"
	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/services"
	"fintrack/internal/session"
)

// ChatService is the assistant surface. *assistant.Assistant satisfies it.
type ChatService interface {
	HandleQuery(ctx context.Context, userID int64, text string) assistant.Response
	ChatHistory(userID int64) []session.Entry
	ResetSession(userID int64)
}

// RecordService commits and deletes records. *services.RecordService
// satisfies it.
type RecordService interface {
	CreateExpense(ctx context.Context, e core.Expense) (services.Receipt, error)
	CreateIncome(ctx context.Context, in core.Income) (services.Receipt, error)
	DeleteExpense(ctx context.Context, userID, id int64) (string, error)
	DeleteIncome(ctx context.Context, userID, id int64) (string, error)
}

// Ledger is the read side used by the dashboard.
type Ledger interface {
	ledger.Reader
	ledger.Lister
}

// Pinger reports backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Chat    ChatService
	Auth    *auth.Service
	Records RecordService
	Ledger  Ledger
	// Ready is optional; without it /readyz only checks wiring.
	Ready     Pinger
	RateLimit int
	Now       func() time.Time
	Logger    *log.Logger
}

type Server struct {
	http.Server
	deps     Deps
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		deps:     deps,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimit}),
		detector: security.NewDetector(),
		logger:   deps.Logger.WithComponent(log.ComponentHTTP),
		started:  deps.Now(),
	}
	s.limiter.Start()

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ClientIP, s.onRateLimit))
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Use(s.limiter.Middleware(userKey, s.onRateLimit))

			r.Post("/logout", s.handleLogout)

			r.Post("/chat", s.handleChat)
			r.Get("/chat/history", s.handleChatHistory)
			r.Post("/chat/reset", s.handleChatReset)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Get("/incomes", s.handleListIncomes)
			r.Post("/incomes", s.handleCreateIncome)
			r.Delete("/incomes/{id}", s.handleDeleteIncome)

			r.Get("/transactions", s.handleTransactions)
			r.Get("/transactions/daily", s.handleDailyTransactions)
			r.Get("/summary", s.handleSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops the rate limiter sweeper and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/identity"
	"budgetbook/internal/log"
	"budgetbook/internal/middleware/ratelimit"
	"budgetbook/internal/middleware/security"
	"budgetbook/internal/middleware/trace"
	"budgetbook/internal/users"
)

// Ledger is the command surface the API exposes.
type Ledger interface {
	SubmitBudget(ctx context.Context, userID string, year int, months core.MonthlyAmounts) (int, error)
	Budget(ctx context.Context, userID string, year int) (core.MonthlyAmounts, error)
	SubmitExpense(ctx context.Context, userID string, day core.Day, amount *decimal.Decimal) (decimal.Decimal, error)
	MonthExpenses(ctx context.Context, userID string, year, month int) (map[int]decimal.Decimal, error)
	ResetScope(ctx context.Context, userID string, year, month int) error
	ResetAll(ctx context.Context, userID string) error
	MonthSummary(ctx context.Context, userID string, year, month int) (core.MonthSummary, error)
	YearSummary(ctx context.Context, userID string, year int) ([]core.MonthSummary, error)
}

// Accounts registers users and logs them in.
type Accounts interface {
	Register(ctx context.Context, r users.Registration) error
	Login(ctx context.Context, id, password string) (users.Session, error)
}

type Options struct {
	RateLimitPerMinute int
	CORSOrigins        []string
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	engine   *gin.Engine
	ledger   Ledger
	accounts Accounts
	codec    identity.Codec
	ready    func(ctx context.Context) error
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, accounts Accounts, codec identity.Codec, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	cors := security.DefaultCORSConfig()
	if len(opts.CORSOrigins) > 0 {
		cors.AllowedOrigins = opts.CORSOrigins
	}

	s := &Server{
		engine:   gin.New(),
		ledger:   ledger,
		accounts: accounts,
		codec:    codec,
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(logger),
		logger:   logger.WithComponent(log.ComponentHTTP),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	r := s.engine
	r.Use(gin.Recovery())
	r.Use(s.tracer.Handler())
	r.Use(log.Middleware(s.logger, trace.FromGin))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(security.CORS(cors))

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	limited := r.Group("/", s.limiter.Handler(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded. Please try again later."})
	}))
	limited.POST("/register", s.handleRegister)
	limited.POST("/login", s.handleLogin)

	api := limited.Group("/api", s.requireUser)
	api.POST("/budgets", s.handleSubmitBudget)
	api.GET("/budgets/:year", s.handleGetBudget)
	api.DELETE("/budgets/:year", s.handleResetYear)
	api.DELETE("/budgets/:year/:month", s.handleResetMonth)
	api.POST("/expenses", s.handleSubmitExpense)
	api.GET("/expenses/:year/:month", s.handleMonthExpenses)
	api.GET("/summary/:year", s.handleYearSummary)
	api.GET("/summary/:year/:month", s.handleMonthSummary)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "The requested resource was not found."})
	})
	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

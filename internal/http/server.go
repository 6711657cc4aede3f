// Package http exposes the finance cache to a UI process as a local JSON
// API: intents go in as requests, snapshots and derived views come out.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/finance"
	"fintrack/internal/log"
)

const (
	defaultAnalyticsTTL = 5 * time.Minute
	analyticsCacheSize  = 64
	cleanupInterval     = 5 * time.Minute
)

// Options configures the server
type Options struct {
	Logger            *log.Logger
	AnalyticsTTL      time.Duration
	Locale            analytics.Locale
	RequestsPerMinute int
	// Ready reports whether the process can serve requests; nil means
	// always ready.
	Ready func() bool
}

type Server struct {
	http.Server

	fc          *finance.FinanceCache
	logger      *log.Logger
	access      *log.StructuredLogger
	locale      analytics.Locale
	ready       func() bool
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	now            func() time.Time
	analyticsCache *cache.LRUCache[any]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer registers every route and starts the background sweeps.
func NewServer(addr string, fc *finance.FinanceCache, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewSilent()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	ttl := opts.AnalyticsTTL
	if ttl <= 0 {
		ttl = defaultAnalyticsTTL
	}
	locale := opts.Locale
	if locale.Months[0] == "" {
		locale = analytics.PortugueseBR
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		fc:             fc,
		logger:         logger,
		access:         log.NewStructuredLogger(logger),
		locale:         locale,
		ready:          opts.Ready,
		now:            time.Now,
		rateLimiter:    newRateLimiter(opts.RequestsPerMinute),
		metrics:        &securityMetrics{},
		analyticsCache: cache.NewLRUCache[any](analyticsCacheSize, ttl),
		cacheManager:   cache.NewManager(logger),
	}
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.Start(context.Background(), cleanupInterval)
	go s.rateLimiter.startCleanup(cleanupInterval)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/transactions/more", s.handleLoadMore)
	mux.HandleFunc("POST /api/transactions/reload", s.handleReload)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("PUT /api/filters", s.handleUpdateFilters)
	mux.HandleFunc("DELETE /api/filters", s.handleClearFilters)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/tags", s.handleListTags)
	mux.HandleFunc("POST /api/tags", s.handleEnsureTag)
	mux.HandleFunc("GET /api/tags/{id}/transactions", s.handleTransactionsByTag)

	mux.HandleFunc("GET /api/analytics/top-categories", s.handleTopCategories)
	mux.HandleFunc("GET /api/analytics/top-accounts", s.handleTopAccounts)
	mux.HandleFunc("GET /api/analytics/monthly", s.handleMonthly)
	mux.HandleFunc("GET /api/analytics/summary", s.handleSummary)
	mux.HandleFunc("GET /api/analytics/recurring-due", s.handleRecurringDue)

	s.Handler = s.middleware(mux)
	return s
}

// Shutdown stops the sweeps and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// middleware traces, rate-limits mutations, sets security headers and logs
// each request once it completes.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = log.WithContext(ctx, s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w.Header())

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			NewJSONResponse().
				Status(http.StatusTooManyRequests).
				Header("Retry-After", "60").
				Body(errorBody{Error: "Too many requests, please try again later", RequestID: requestID}).
				Write(w)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.fc.Snapshot()).Write(w)
}

type statsBody struct {
	Security  SecurityStats `json:"security"`
	Analytics cache.Stats   `json:"analyticsCache"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(statsBody{
		Security:  s.metrics.snapshot(),
		Analytics: s.analyticsCache.Stats(),
	}).Write(w)
}

// fail logs server-side failures and renders the error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status := statusFor(err); status >= 500 {
		s.access.LogError(r.Context(), "Request failed", err, op, log.NewFields().WithRequestID(requestIDFrom(r.Context())))
	}
	ErrorResponse(r, err).Write(w)
}

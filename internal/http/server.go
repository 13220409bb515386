// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"rodger/internal/core"
	"rodger/internal/log"
	"rodger/internal/services"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// LedgerService is what the handlers need from the application layer.
type LedgerService interface {
	Record(ctx context.Context, text string) (services.Outcome, error)
	Preview(text string) core.Intent
	Today() string
	Partition(key string) []core.Transaction
	Range(from, to, customer string) (services.RangeResult, error)
	UpdateTransaction(ctx context.Context, key string, position int, patch core.TransactionPatch) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, key string, position int) error
	AddItem(ctx context.Context, name string) (bool, error)
	SearchItems(query string) []core.Item
	Items() []core.Item
	PopulateItems(ctx context.Context) (int, error)
	DeleteItem(ctx context.Context, name string) (bool, error)
}

type Server struct {
	http.Server
	svc          LedgerService
	logger       *log.Logger
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// Options tune the server. Zero values pick defaults.
type Options struct {
	// WriteLimit is the number of mutating requests a client may issue per
	// minute.
	WriteLimit int
	Logger     *log.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc LedgerService, opts Options) *Server {
	if opts.WriteLimit <= 0 {
		opts.WriteLimit = 60
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	s := &Server{
		svc:         svc,
		logger:      opts.Logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(opts.WriteLimit),
		metrics:     &securityMetrics{},
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(log.Middleware(s.logger, func(r *http.Request) string { return r.Header.Get(RequestIDHeader) }))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.securityMiddleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/commands", s.handleRecord)
		r.Post("/parse", s.handleParse)

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", s.handleRange)
			r.Get("/{date}", s.handlePartition)
			r.Patch("/{date}/{position}", s.handleUpdate)
			r.Delete("/{date}/{position}", s.handleDelete)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Post("/", s.handleAddItem)
			r.Post("/populate", s.handlePopulateItems)
			r.Delete("/{name}", s.handleDeleteItem)
		})
	})
	return r
}

// requestID keeps a well-formed incoming X-Request-ID or assigns a fresh
// UUID, and echoes it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds())
	})
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

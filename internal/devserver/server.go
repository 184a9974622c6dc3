package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"golang.org/x/time/rate"
)

const (
	// DefaultAddr matches the local backend port used by the mobile app.
	DefaultAddr     = ":3002"
	shutdownTimeout = 5 * time.Second
)

// Options configures the router.
type Options struct {
	Store *Store
	// WriteLimiter guards the write endpoints. nil uses 5 req/s, burst 10.
	WriteLimiter   *WriteLimiter
	AllowedOrigins []string
}

// NewRouter builds the backend routes.
func NewRouter(opts Options) http.Handler {
	if opts.Store == nil {
		opts.Store = NewStore(nil)
	}
	if opts.WriteLimiter == nil {
		opts.WriteLimiter = NewWriteLimiter(rate.Limit(5), 10)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := NewNotificationHandler(opts.Store)
	limit := opts.WriteLimiter.Limit

	r.Get("/healthz", Health)
	r.Get("/notifications", h.List)
	r.With(limit).Post("/notifications", h.Create)
	r.Route("/api/notificacoes", func(r chi.Router) {
		r.Get("/", h.ListEnveloped)
		r.With(limit).Post("/", h.Create)
		r.With(limit).Patch("/{id}/lida", h.MarkRead)
	})
	return r
}

// Serve runs the backend on addr until ctx is done.
func Serve(ctx context.Context, addr string, opts Options) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("development backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

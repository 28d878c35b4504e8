// Package server wires the dashboard's HTTP surface together.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/five82/cueweb/internal/api"
	"github.com/five82/cueweb/internal/config"
	"github.com/five82/cueweb/internal/gateway"
	"github.com/five82/cueweb/internal/logs"
	"github.com/five82/cueweb/internal/metrics"
	"github.com/five82/cueweb/internal/notify"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server owns the process-lifetime collaborators behind the routes.
type Server struct {
	cfg      config.Config
	notifier *notify.Notifier
	sentry   *notify.SentryReporter
	metrics  *metrics.PromRegistry
	handler  http.Handler
}

// New builds a Server from cfg.
func New(cfg config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	var reporter notify.Reporter = notify.LogReporter{}
	if cfg.SentryEnabled {
		sentry, err := notify.NewSentryReporter(cfg.SentryDSN, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		s.sentry = sentry
		reporter = sentry
	}
	s.notifier = notify.NewServer(reporter)

	gw, err := gateway.NewClient(gateway.Options{
		BaseURL:  cfg.GatewayURL,
		Secret:   []byte(cfg.JWTSecret),
		Subject:  cfg.Token.Subject,
		Role:     cfg.Token.Role,
		TTL:      cfg.Token.TTL(),
		Notifier: s.notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("init gateway client: %w", err)
	}

	s.metrics, err = metrics.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	mux := http.NewServeMux()
	api.Handlers{
		Gateway: gw,
		Logs:    logs.Reader{Root: cfg.LogRoot},
		Metrics: s.metrics,
	}.Register(mux)
	s.handler = logRequests(mux)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on cfg.Listen until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("cueweb listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if s.sentry != nil {
		s.sentry.Flush()
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Truncate(time.Millisecond))
	})
}

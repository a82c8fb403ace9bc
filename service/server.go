package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// httpServer is one named listener. After shutdown, start returns without listening.
type httpServer struct {
	name    string
	handler http.Handler
	log     log.Logger

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func (s *httpServer) start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{Addr: addr, Handler: s.handler}
	srv := s.server
	s.mu.Unlock()

	s.log.Info("Starting server", "server", s.name, "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *httpServer) shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// HealthzHandler serves /healthz with permissive CORS. It answers 503 once ready reports false.
func HealthzHandler(ready func() bool, logger log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.Trace("Health check", "remote", r.RemoteAddr)
		if ready != nil && !ready() {
			http.Error(w, "stopped", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK"))
	})
	return cors.New(cors.Options{AllowedOrigins: []string{"*"}}).Handler(mux)
}

// MetricsHandler exposes the default prometheus registry on /metrics.
func MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
	))
	return mux
}

// Package service runs the healthz and metrics listeners next to a long-running harness.
package service

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-browsertest/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"
)

// Config selects the listeners. The metrics server only runs when MetricsEnabled is set.
type Config struct {
	HealthzAddr    string
	MetricsEnabled bool
	MetricsAddr    string
	MetricsPort    int
	// Ready backs /healthz. A nil Ready always reports healthy.
	Ready func() bool
}

func DefaultConfig() Config {
	return Config{HealthzAddr: net.JoinHostPort(HealthzHost, HealthzPort)}
}

type listener struct {
	addr string
	srv  *httpServer
}

type Service struct {
	log       log.Logger
	listeners []listener
	wg        sync.WaitGroup
}

func New(cfg Config, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Root()
	}
	s := &Service{log: logger}
	if cfg.HealthzAddr != "" {
		s.add("healthz", cfg.HealthzAddr, HealthzHandler(cfg.Ready, logger))
	}
	if cfg.MetricsEnabled {
		s.add("metrics", net.JoinHostPort(cfg.MetricsAddr, strconv.Itoa(cfg.MetricsPort)), MetricsHandler())
	}
	return s
}

func (s *Service) add(name, addr string, h http.Handler) {
	s.listeners = append(s.listeners, listener{
		addr: addr,
		srv:  &httpServer{name: name, handler: h, log: s.log},
	})
}

// Start launches every configured listener in the background. Listen errors are logged and counted.
func (s *Service) Start() {
	for _, l := range s.listeners {
		s.wg.Add(1)
		go func(l listener) {
			defer s.wg.Done()
			if err := l.srv.start(l.addr); err != nil {
				s.log.Error("Server failed", "server", l.srv.name, "addr", l.addr, "err", err)
				metrics.RecordErrorDetails(l.srv.name+" server", err)
			}
		}(l)
	}
}

// Shutdown gracefully stops every listener and waits for them to return.
func (s *Service) Shutdown(ctx context.Context) {
	for _, l := range s.listeners {
		if err := l.srv.shutdown(ctx); err != nil {
			s.log.Warn("Server shutdown failed", "server", l.srv.name, "err", err)
		}
	}
	s.wg.Wait()
	s.log.Info("Service stopped")
}

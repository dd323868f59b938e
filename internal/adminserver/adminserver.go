// Package adminserver exposes /metrics and /healthz on a side HTTP
// listener, independent of the raw-socket proxy protocol — an ambient
// observability concern, modeled on the donor repository's
// server.newServeMux /metrics + /healthz/* routes.
package adminserver

import (
	"context"
	"encoding/json"
	"net/http"

	goccyjson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mason-ferrell/uproxy/internal/log"
)

// Server is the admin HTTP listener. It is started only when an admin
// address is configured (§1a); the proxy itself never requires it.
type Server struct {
	httpServer *http.Server
}

// New builds an admin server bound to addr. ready is polled by /healthz.
func New(addr string, ready func() bool) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		payload, err := goccyjson.Marshal(map[string]string{"status": "ok"})
		if err != nil {
			// goccy/go-json mirrors encoding/json's interface; fall back to
			// it defensively rather than writing a half-formed body.
			payload, _ = json.Marshal(map[string]string{"status": "ok"})
		}
		_, _ = w.Write(payload)
	})

	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start runs the admin server until Stop is called. ErrServerClosed is
// swallowed, matching the donor's server.Start.
func (s *Server) Start() error {
	log.Infof("admin server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the admin server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

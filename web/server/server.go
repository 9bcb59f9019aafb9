// Package server serves a read-only view of a running simulation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"goji.io"
	"goji.io/pat"

	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/robot/sim"
	"github.com/decbot-sim/fieldsim/telemetry"
	"github.com/decbot-sim/fieldsim/utils"
)

// Source is what the server observes. *sim.Runner satisfies it.
type Source interface {
	Snapshot() sim.Snapshot
	Scene() field.Scene
}

const index = `<!DOCTYPE html>
<html><head><title>fieldsim</title></head>
<body>
<img id="field" src="/field.png" width="576" height="576">
<pre id="telemetry"></pre>
<script>
setInterval(function () {
  document.getElementById("field").src = "/field.png?t=" + Date.now();
  fetch("/api/telemetry").then(r => r.json()).then(lines => {
    document.getElementById("telemetry").textContent =
      lines.map(l => l.label.padEnd(25) + ": " + l.value).join("\n");
  });
}, 250);
</script>
</body></html>
`

// Server is the observer HTTP server. No route mutates the simulation.
type Server struct {
	source     Source
	logger     logging.Logger
	mux        *goji.Mux
	httpServer *http.Server
	listener   net.Listener
	workers    *utils.Workers
}

// New returns a server for source. Call Start to listen, or use Handler directly.
func New(source Source, logger logging.Logger) *Server {
	s := &Server{source: source, logger: logger}
	s.mux = goji.NewMux()
	s.mux.HandleFunc(pat.Get("/"), s.handleIndex)
	s.mux.HandleFunc(pat.Get("/api/state"), s.handleState)
	s.mux.HandleFunc(pat.Get("/api/telemetry"), s.handleTelemetry)
	s.mux.HandleFunc(pat.Get("/field.png"), s.handleField)
	return s
}

// Handler returns the routes wrapped for cross-origin reads.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}).Handler(s.mux)
}

// Start listens on address and serves until Close is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context, address string) error {
	if s.httpServer != nil {
		return errors.New("server already started")
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "cannot listen on %q", address)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.workers = utils.GoWorkers(ctx, func(ctx context.Context) {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("observer server stopped", "error", err)
		}
	}, func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("observer server shutdown", "error", err)
		}
	})
	s.logger.Infow("observer server listening", "address", listener.Addr().String())
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the server down and waits for it to exit.
func (s *Server) Close() {
	if s.workers != nil {
		s.workers.Stop()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(index)); err != nil {
		s.logger.Debugw("cannot write index", "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.source.Snapshot())
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	lines := s.source.Snapshot().Telemetry
	if lines == nil {
		lines = []telemetry.Line{}
	}
	s.writeJSON(w, lines)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := field.WritePNG(w, s.source.Scene()); err != nil {
		s.logger.Debugw("cannot write field image", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debugw("cannot write response", "error", err)
	}
}

// Package metrics provides a simple Prometheus-compatible metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime metrics for the bridge
type Metrics struct {
	// Provider subprocesses
	Spawns      atomic.Int64
	SpawnErrors atomic.Int64

	// Conversation requests
	Asks              atomic.Int64
	AskFailures       atomic.Int64
	LastAskDurationMs atomic.Int64

	// Chat message edits issued by the coalescer
	Publishes     atomic.Int64
	PublishErrors atomic.Int64

	// Session store persistence
	StoreWrites      atomic.Int64
	StoreWriteErrors atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the global metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates an isolated metrics instance.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordSpawn records a provider subprocess start attempt
func (m *Metrics) RecordSpawn(success bool) {
	m.Spawns.Add(1)
	if !success {
		m.SpawnErrors.Add(1)
	}
}

// RecordAsk records a finished conversation request
func (m *Metrics) RecordAsk(success bool, duration time.Duration) {
	m.Asks.Add(1)
	if !success {
		m.AskFailures.Add(1)
	}
	m.LastAskDurationMs.Store(duration.Milliseconds())
}

// RecordPublish records a coalesced publish
func (m *Metrics) RecordPublish(success bool) {
	m.Publishes.Add(1)
	if !success {
		m.PublishErrors.Add(1)
	}
}

// RecordStoreWrite records a session store snapshot write
func (m *Metrics) RecordStoreWrite(success bool) {
	m.StoreWrites.Add(1)
	if !success {
		m.StoreWriteErrors.Add(1)
	}
}

func writeMetric(w io.Writer, name, kind, help string, value any) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	switch v := value.(type) {
	case float64:
		fmt.Fprintf(w, "%s %.2f\n\n", name, v)
	default:
		fmt.Fprintf(w, "%s %v\n\n", name, v)
	}
}

// Handler returns an HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		writeMetric(w, "clibridge_uptime_seconds", "gauge", "Time since the bridge started", time.Since(m.startTime).Seconds())
		writeMetric(w, "clibridge_spawns_total", "counter", "Total provider subprocess start attempts", m.Spawns.Load())
		writeMetric(w, "clibridge_spawn_errors_total", "counter", "Total provider subprocesses that failed to start", m.SpawnErrors.Load())
		writeMetric(w, "clibridge_asks_total", "counter", "Total conversation requests", m.Asks.Load())
		writeMetric(w, "clibridge_ask_failures_total", "counter", "Total failed conversation requests", m.AskFailures.Load())
		writeMetric(w, "clibridge_last_ask_duration_ms", "gauge", "Duration of the last conversation request", m.LastAskDurationMs.Load())
		writeMetric(w, "clibridge_publishes_total", "counter", "Total coalesced message publishes", m.Publishes.Load())
		writeMetric(w, "clibridge_publish_errors_total", "counter", "Total failed message publishes", m.PublishErrors.Load())
		writeMetric(w, "clibridge_store_writes_total", "counter", "Total session store snapshot writes", m.StoreWrites.Load())
		writeMetric(w, "clibridge_store_write_errors_total", "counter", "Total failed session store writes", m.StoreWriteErrors.Load())
	}
}

// Server wraps the metrics HTTP server
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on addr (e.g. ":9090").
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Serve runs the server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

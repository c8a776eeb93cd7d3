package runtime

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drblury/flowscope/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/flowscope/internal/runtime/logging"
)

type httpMux struct {
	mux    *http.ServeMux
	server *http.Server
}

// RegisterHTTPHandler mounts handler on the scope's HTTP server for the given
// port, creating the server lazily. Servers start on Serve.
func (sc *Scope) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	sc.httpServersMu.Lock()
	defer sc.httpServersMu.Unlock()

	if sc.httpServers == nil {
		sc.httpServers = make(map[int]*httpMux)
	}
	entry, ok := sc.httpServers[port]
	if !ok {
		mux := http.NewServeMux()
		entry = &httpMux{
			mux: mux,
			server: &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			},
		}
		sc.httpServers[port] = entry
	}
	entry.mux.Handle(pattern, handler)
}

// Serve starts every registered HTTP server in its own goroutine. Servers run
// until Close.
func (sc *Scope) Serve() {
	sc.httpServersMu.Lock()
	defer sc.httpServersMu.Unlock()

	for port, entry := range sc.httpServers {
		entry := entry
		sc.logger.Info("starting debug http server", loggingpkg.LogFields{"port": port})
		go func() {
			if err := entry.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sc.logger.Error("debug http server failed", err, nil)
			}
		}()
	}
}

// Close shuts down every registered HTTP server.
func (sc *Scope) Close() error {
	sc.httpServersMu.Lock()
	defer sc.httpServersMu.Unlock()

	var firstErr error
	for _, entry := range sc.httpServers {
		if err := entry.server.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (sc *Scope) registerMetricsHandler() {
	if sc.conf.MetricsPort <= 0 {
		return
	}
	sc.RegisterHTTPHandler(sc.conf.MetricsPort, "/metrics", promhttp.Handler())
}

func (sc *Scope) registerDebugHandler() {
	sc.RegisterHTTPHandler(sc.conf.DebugServerPort, "/debug/pipeline", http.HandlerFunc(sc.handlePipelineSnapshot))
}

func (sc *Scope) handlePipelineSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := jsoncodec.Encode(w, sc.Snapshot()); err != nil {
		sc.logger.Error("failed to encode pipeline snapshot", err, nil)
	}
}

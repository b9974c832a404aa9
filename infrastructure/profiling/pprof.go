// Package profiling serves pprof endpoints on a local-only port.
package profiling

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 6060

const readHeaderTimeout = 5 * time.Second

// Config enables the pprof server.
type Config struct {
	Enabled bool `env:"ENABLE_PROFILING" yaml:"enabled"`
	Port    int  `env:"PPROF_PORT"       yaml:"port"`
}

// Handler returns a mux with the standard pprof endpoints under /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// Start serves pprof on localhost until ctx is done. It does nothing when
// profiling is disabled.
func Start(ctx context.Context, cfg Config, log logger.Logger) {
	if !cfg.Enabled {
		return
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	// Localhost only: profiles expose internals.
	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		log.Info("Starting pprof server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}

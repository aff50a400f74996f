package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"rcos/taskos/metrics"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	opts := &kernelOptions{}
	var addr string
	cmd := &cobra.Command{
		Aliases: []string{"s"},
		Use:     "serve [programs...]",
		Short:   "Run programs and expose accounting as Prometheus metrics",
		Long: `Run the named programs while serving their accounting over HTTP.
The server keeps running after the programs exit until interrupted.

Endpoints:
  /          Status page with links
  /metrics   Prometheus metrics

Example:
  rcos serve --addr :9464
  rcos serve power_3 power_5 --addr 127.0.0.1:9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(args)
			if err != nil {
				return err
			}

			reg := prom.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			exp, err := metrics.NewExporter("rcos", reg, cfg.BootID.String())
			if err != nil {
				return fmt.Errorf("failed to create exporter: %w", err)
			}
			cfg.Observer = exp

			s, err := boot(cmd, cfg)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			return serve(cmd.Context(), s, ln, reg)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":9464", "Listen address")
	return cmd
}

func newMux(reg *prom.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>rcos</title></head>
<body>
<h1>rcos</h1>
<ul>
<li><a href="/metrics">Metrics</a> - Per-task syscall accounting</li>
</ul>
</body>
</html>`)
	})
	return mux
}

// serve runs the workload and the HTTP server until ctx is done. A workload
// failure is logged but does not stop the server.
func serve(ctx context.Context, s *session, ln net.Listener, reg *prom.Registry) error {
	srv := &http.Server{
		Handler:           newMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Infof("serving metrics on http://%s/metrics", ln.Addr())

	go func() {
		if err := s.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("workload: %v", err)
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

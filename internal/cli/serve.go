package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowform/internal/server"
	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/observability/metrics"
)

// defaultShutdownTimeout applies when the config sets none.
const defaultShutdownTimeout = 5 * time.Second

type serveOpts struct {
	addr      string
	noCache   bool
	noMetrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the compiler and the visibility engine over HTTP:

  POST /compile      diagram text → form spec
  POST /render       diagram text → rendered graph (?format=svg)
  POST /visibility   form and answers → visible questions and summary
  GET  /healthz      liveness probe
  GET  /version      build information
  GET  /metrics      Prometheus metrics (unless --no-metrics)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)
	cfg := c.Config

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	if rc, ok := runner.Cache.(*cache.RedisCache); ok {
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, requests will not be cached", "addr", cfg.Cache.RedisAddr, "error", err)
		}
	}

	sopts := server.Options{
		Placeholder:   cfg.Compiler.Placeholder,
		MaxChainDepth: cfg.Compiler.MaxChainDepth,
		MaxIterations: cfg.Visibility.MaxIterations,
	}
	if !opts.noMetrics {
		m := metrics.New()
		m.Install()
		sopts.Metrics = m.Handler()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(runner, sopts, logger),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	printSuccess("Listening on %s", StyleHighlight.Render(ln.Addr().String()))
	printKeyValue("Cache", cfg.Cache.Backend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Serve returns ErrServerClosed after Shutdown.
		if err := srv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		logger.Info("Shutting down", "timeout", timeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

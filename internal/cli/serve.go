package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	pos "github.com/jas0n325/captone-ui-sub006"
	httpAdapter "github.com/jas0n325/captone-ui-sub006/pkg/adapters/http"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/memory"
	"github.com/jas0n325/captone-ui-sub006/pkg/runner"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the serve command.
type ServeOptions struct {
	Addr string
	Out  io.Writer
}

// Serve exposes the engine over HTTP and consumes pushed inputs until a signal arrives.
func Serve(stack *Stack, opts ServeOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()
	return serve(sigCtx, stack, opts, nil)
}

// serve runs until ctx is cancelled. ready, when set, receives the bound address.
func serve(ctx context.Context, stack *Stack, opts ServeOptions, ready chan<- string) error {
	logger := stack.Logger
	if err := stack.Start(ctx); err != nil {
		// The server keeps running so /healthz can report the fatal state.
		logger.Warn("serving a terminal in fatal error mode")
	}

	bridge := runner.NewBridge(logger)
	r := runner.New(stack.Engine, runner.WithBridge(bridge), runner.WithLogger(logger))

	handler := httpAdapter.NewHandler(stack.Engine,
		httpAdapter.WithStreams(stack.Streams),
		httpAdapter.WithMetrics(stack.Metrics.Handler()),
		httpAdapter.WithDevices(func() any { return stack.Devices.Snapshot() }),
		httpAdapter.WithBridge(bridge),
		httpAdapter.WithVersion(pos.Version),
		httpAdapter.WithLogger(logger),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(gctx)
	})
	g.Go(func() error {
		defer bridge.Close()
		return listenAndServe(gctx, logger, opts, handler, ready)
	})
	return g.Wait()
}

// ServeEngine exposes the scripted domain engine so terminals can reach it with domain.url.
func ServeEngine(script memory.Script, logger *slog.Logger, opts ServeOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()
	handler := httpAdapter.NewEngineHandler(memory.NewDomainEngine(script), logger)
	return listenAndServe(sigCtx, logger, opts, handler, nil)
}

func listenAndServe(ctx context.Context, logger *slog.Logger, opts ServeOptions, handler http.Handler, ready chan<- string) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	if opts.Out != nil {
		printSystemMessage(opts.Out, "Listening on %s", ln.Addr())
	}
	logger.Info("http server listening", "addr", ln.Addr().String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
		_ = srv.Close()
	}
	logger.Info("http server stopped")
	return nil
}

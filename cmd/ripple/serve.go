package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-ui/ripple/pkg/el"
	"github.com/ripple-ui/ripple/pkg/live"
	"github.com/ripple-ui/ripple/pkg/metrics"
	"github.com/ripple-ui/ripple/pkg/reactive"
	"github.com/ripple-ui/ripple/pkg/runtime"
	"github.com/ripple-ui/ripple/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a live component server",
		Long: `Start a session server hosting the built-in demo programs.

Endpoints:
  /live/{name}   WebSocket session endpoint
  /metrics       Prometheus scrape endpoint
  /healthz       Health probe

Examples:
  ripple serve
  ripple serve --addr=:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, verbose)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8090", "Address to listen on")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runServe(addr string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	m := metrics.New()
	server := live.NewServer(
		live.WithLogger(log),
		live.WithMetrics(m),
	)
	server.Register("counter", counterProgram())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// counterProgram is the demo program served out of the box. Click
// handlers carry the event name the client should send back over the
// session socket.
func counterProgram() *live.Program {
	render := func(state any) *vdom.VNode {
		s := state.(*reactive.Object)
		return el.Div(el.ID("counter"),
			el.H1("Counter"),
			el.P(fmt.Sprintf("count: %d", s.Get("count").(int))),
			el.Div(el.Class("controls"),
				el.Button(el.OnClick("decrement"), "-"),
				el.Button(el.OnClick("reset"), "reset"),
				el.Button(el.OnClick("increment"), "+"),
			),
		)
	}

	return &live.Program{
		State:  func() any { return map[string]any{"count": 0} },
		Render: runtime.RenderFunc(render),
		Events: map[string]func(state any, payload string){
			"increment": func(state any, _ string) {
				s := state.(*reactive.Object)
				s.Set("count", s.Get("count").(int)+1)
			},
			"decrement": func(state any, _ string) {
				s := state.(*reactive.Object)
				s.Set("count", s.Get("count").(int)-1)
			},
			"reset": func(state any, _ string) {
				s := state.(*reactive.Object)
				s.Set("count", 0)
			},
		},
	}
}

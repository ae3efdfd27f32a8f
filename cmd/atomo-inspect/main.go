// Command atomo-inspect hosts the development inspector against a
// self-mutating demo store, for exercising the snapshot API, WebSocket
// stream, and metrics endpoint without embedding the inspector in an
// application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomo-dev/atomo/internal/devsrv"
	"github.com/atomo-dev/atomo/pkg/atom"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "atomo-inspect",
		Short:         "Dependency-graph inspector for atomo stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspector over a demo store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := demoStore(ctx)
			srv := devsrv.New(store, devsrv.WithInterval(interval))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8377", "listen address")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "snapshot sampling interval")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("atomo-inspect %s (%s)\n", version, commit)
		},
	}
}

// demoStore builds a small graph that mutates once a second so the stream
// has something to show: a counter, two derived views, and an async atom
// that re-resolves when the counter changes.
func demoStore(ctx context.Context) *atom.Store {
	store := atom.NewStore(atom.WithMetrics())

	count := atom.New(0, atom.WithLabel("count"))
	double := atom.Derived(func(g atom.Getter) (int, error) {
		n, err := atom.Read(g, count)
		return n * 2, err
	}, atom.WithLabel("double"))
	parity := atom.Derived(func(g atom.Getter) (string, error) {
		n, err := atom.Read(g, count)
		if err != nil {
			return "", err
		}
		if n%2 == 0 {
			return "even", nil
		}
		return "odd", nil
	}, atom.WithLabel("parity"))
	slow := atom.Async(func(ctx context.Context, g atom.Getter) (int, error) {
		n, err := atom.Read(g, count)
		if err != nil {
			return 0, err
		}
		select {
		case <-time.After(300 * time.Millisecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		return n * n, nil
	}, atom.WithLabel("slow-square"))

	// Keep the derived atoms mounted so writes propagate eagerly.
	store.Subscribe(double, func() {})
	store.Subscribe(parity, func() {})
	store.Subscribe(slow, func() {})

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = atom.Update(store, count, func(n int) int { return n + 1 })
			}
		}
	}()

	return store
}

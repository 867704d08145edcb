package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openseat/openseat/internal/bridge"
	"github.com/openseat/openseat/internal/locale"
	"github.com/openseat/openseat/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the GUI command bridge on stdin/stdout",
	Long: `Serve the GUI command bridge on stdin/stdout.

The GUI host spawns this process and invokes get_config, save_config and
get_default_locale as tool calls. With --plan, seat plan tools are
available for that file as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		planPath, _ := cmd.Flags().GetString("plan")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, planPath, os.Stdin, os.Stdout)
	},
}

func init() {
	serveCmd.Flags().String("plan", "", "seat plan file to expose to the GUI")
}

func runServe(ctx context.Context, planPath string, in io.Reader, out io.Writer) error {
	_, store, err := loadSettings()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	deps := bridge.Deps{
		Settings: store,
		Locale:   locale.Default,
		Logger:   slog.Default(),
	}

	if planPath != "" {
		plan, err := storage.Open(planPath)
		if err != nil {
			return fmt.Errorf("opening plan: %w", err)
		}
		defer func() {
			if err := plan.Close(); err != nil {
				slog.Warn("closing plan", "error", err)
			}
		}()
		deps.Plan = plan
	}

	// A fatal settings failure during save stops the bridge.
	fatal := make(chan error, 1)
	deps.OnFatal = func(err error) {
		select {
		case fatal <- err:
		default:
		}
	}

	stdio := server.NewStdioServer(bridge.NewServer(deps, version))
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		slog.Info("bridge listening on stdio", "settings", store.Path(), "plan", planPath)
		err := stdio.Listen(gctx, in, out)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("bridge: %w", err)
	})
	g.Go(func() error {
		select {
		case err := <-fatal:
			return fmt.Errorf("settings store failed: %w", err)
		case <-gctx.Done():
			slog.Info("bridge stopped")
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	select {
	case err := <-fatal:
		return fmt.Errorf("settings store failed: %w", err)
	default:
		return nil
	}
}

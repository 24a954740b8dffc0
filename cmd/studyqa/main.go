package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studyqa",
		Short:         "Index chapter PDFs and answer study questions from them",
		SilenceUsage:  true,
	}

	root.AddCommand(ingestCmd())
	root.AddCommand(askCmd())
	root.AddCommand(teachCmd())
	root.AddCommand(calibrateCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(cacheCmd())
	return root
}

// withApp loads configuration, builds the application and runs fn with it.
// Logs go to stderr so command output on stdout stays machine readable.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(app.NewLogger(cfg, cmd.ErrOrStderr()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

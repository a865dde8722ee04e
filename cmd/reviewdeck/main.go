package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/reviewdeck/internal/app"
	"github.com/five82/reviewdeck/internal/config"
	"github.com/five82/reviewdeck/internal/prefs"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "reviewdeck: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:           "reviewdeck",
		Short:         "Terminal viewer for collected product reviews",
		Long:          "reviewdeck polls the review service and shows the newest product reviews, refreshing automatically.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Flags = cmd.Flags()
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file path (default "+prefs.DefaultPath()+")")
	config.RegisterFlags(flags)
	return cmd
}

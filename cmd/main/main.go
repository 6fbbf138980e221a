package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"order-server/src/config"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "order-server",
		Short:        "Signed order server driven by a fleet of simulated clients",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "config/default.yaml", "path to config file")

	root.AddCommand(newInitConfigCommand())
	return root
}

// -----------------------------------------------------------------------------

func newInitConfigCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "config/default.yaml", "destination file")
	return cmd
}

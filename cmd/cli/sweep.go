package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/mod-warden/internal/wire"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Runs one timeout sweep pass outside the cron schedule",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		result, err := app.Sweeper.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("timeout sweep failed: %w", err)
		}

		fmt.Printf("sweep complete: processed=%d reassigned=%d expired=%d\n",
			result.Processed, result.Reassigned, result.Expired)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(sweepCmd)
}

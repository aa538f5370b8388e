package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/mod-warden/internal/wire"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

var verifyCmd = &cobra.Command{
	Use:   "verify [subject-id]",
	Short: "Replays a subject's audit chain and reports its integrity",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		verdict, err := app.Ledger.VerifyChain(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to verify audit chain: %w", err)
		}

		dimColor.Printf("subject: %s, records: %d\n", args[0], verdict.TotalRecords)
		if verdict.Valid {
			successColor.Println("chain VALID")
			return nil
		}

		errorColor.Printf("chain BROKEN at record %s\n", verdict.BrokenAt)
		return fmt.Errorf("audit chain for subject %s failed verification", args[0])
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(verifyCmd)
}

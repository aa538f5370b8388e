package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/mod-warden/internal/wire"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [review-id]",
	Short: "Shows the current status and audit history of a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		result, err := app.Engine.GetReviewStatus(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to retrieve review status: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}

		fmt.Printf("Review %s: %s\n\n", args[0], result.Status)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SEQ\tEVENT\tSOURCE\tTIMESTAMP")
		for i, rec := range result.History {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				i+1,
				rec.EventType,
				rec.EventSource,
				rec.Timestamp.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

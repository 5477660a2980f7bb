package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress and health",
	Long: `Prints the staging watermark, the sync worker's cursor, change log
counts by status and the shape of the vector index. Entries that
exhausted their retries are flagged for 'skusync reset'.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if statusReporter == nil {
		return errors.New("status service not configured")
	}

	status, err := statusReporter.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading pipeline status: %w", err)
	}

	cmd.Printf("Canonical products: %d\n", status.Products)
	cmd.Println()

	if status.Watermark.IsZero() {
		cmd.Println("ETL watermark:      (none - staging not yet read)")
	} else {
		cmd.Printf("ETL watermark:      %s after %q\n",
			status.Watermark.LastSeenAt.Format(time.RFC3339), status.Watermark.LastSeenKey)
	}
	cmd.Printf("Sync cursor:        entry %d\n", status.Cursor.LastID)
	cmd.Println()

	cmd.Printf("Change log:         %d pending, %d processed, %d failed\n",
		status.Pending, status.Processed, status.Failed)
	if status.DeadLettered > 0 {
		cmd.Printf("                    %d entries exhausted their retries - requeue with 'skusync reset'\n",
			status.DeadLettered)
	}
	cmd.Println()

	cmd.Printf("Vector index:       %d base + %d delta documents (delta ratio %.1f%%)\n",
		status.IndexBaseLive, status.IndexDelta, status.IndexDeltaRatio*100)
	return nil
}

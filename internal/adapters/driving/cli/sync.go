package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
)

var (
	syncLimit     int
	syncBatchSize int
	syncNoResume  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending change log entries into the vector index",
	Long: `Consumes PENDING change log entries from the stored cursor, embeds the
product text and upserts the vectors into the incremental index.

Failures are contained per entry: a record that cannot be embedded is
marked FAILED and the run continues. Entries that exhaust their retries
stay FAILED until reset with 'skusync reset'; the command exits non-zero
when any such entries remain.`,
	RunE: runSyncCmd,
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "maximum entries to consume (0 = unlimited)")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "entries per page (0 = configured default)")
	syncCmd.Flags().BoolVar(&syncNoResume, "no-resume", false, "re-scan the change log from the beginning")
	rootCmd.AddCommand(syncCmd)
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if syncRunner == nil {
		return errors.New("sync service not configured")
	}

	ctx := cmd.Context()
	stats, err := syncRunner.Run(ctx, driving.SyncOptions{
		Resume:     !syncNoResume,
		TotalLimit: syncLimit,
		BatchSize:  syncBatchSize,
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Processed %d entries in %d batches: %d succeeded, %d failed, %d deleted.\n",
		stats.Processed, stats.Batches, stats.Succeeded, stats.Failed, stats.Deleted)

	if statusReporter != nil {
		status, err := statusReporter.Status(ctx)
		if err != nil {
			return fmt.Errorf("reading pipeline status: %w", err)
		}
		if status.DeadLettered > 0 {
			return fmt.Errorf("%d entries exhausted their retries; inspect with 'skusync status' and requeue with 'skusync reset'",
				status.DeadLettered)
		}
	}
	return nil
}

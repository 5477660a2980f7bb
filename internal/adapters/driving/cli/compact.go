package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Fold the index delta segment into the base",
	Long: `Merges the delta segment into a fresh base segment, dropping
superseded entries and tombstones. Compaction normally runs
automatically when the delta grows past the configured threshold; this
command forces it immediately.`,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(compactCmd)
}

func runCompact(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if vectorIndex == nil {
		return errors.New("vector index not configured")
	}

	ctx := cmd.Context()
	if err := vectorIndex.Compact(ctx); err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	stats, err := vectorIndex.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}
	cmd.Printf("Compacted. Index now holds %d documents in the base segment.\n", stats.BaseLive)
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

var resetCmd = &cobra.Command{
	Use:   "reset [namespace#localId]",
	Short: "Requeue failed change log entries",
	Long: `Returns FAILED change log entries to PENDING with a fresh retry
budget, so the next sync run picks them up again.

With no argument all failed entries are reset. Pass a product key such
as 'acme#sku-123' to reset only that product's entries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if adminService == nil {
		return errors.New("admin service not configured")
	}

	var key *domain.BusinessKey
	if len(args) > 0 {
		parsed, err := domain.ParseBusinessKey(args[0])
		if err != nil {
			return fmt.Errorf("invalid product key %q: %w", args[0], err)
		}
		key = &parsed
	}

	n, err := adminService.ResetFailed(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	if n == 0 {
		cmd.Println("No failed entries to reset.")
	} else {
		cmd.Printf("Reset %d entries to pending. Run 'skusync sync' to retry them.\n", n)
	}
	return nil
}

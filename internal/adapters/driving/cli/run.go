package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowmart-labs/skusync/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline on a schedule",
	Long: `Starts a foreground loop that runs the staging ETL and the vector
sync on their configured intervals. Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down scheduler")
		if err := scheduler.Stop(); err != nil {
			return fmt.Errorf("stopping scheduler: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("scheduler failed: %w", err)
		}
		return nil
	}
}

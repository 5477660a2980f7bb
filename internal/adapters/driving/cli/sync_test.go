package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
)

// mockSyncRunner implements driving.SyncRunner for testing.
type mockSyncRunner struct {
	stats    driving.SyncStats
	err      error
	lastOpts driving.SyncOptions
}

func (m *mockSyncRunner) Run(_ context.Context, opts driving.SyncOptions) (driving.SyncStats, error) {
	m.lastOpts = opts
	return m.stats, m.err
}

// mockStatusReporter implements driving.StatusReporter for testing.
type mockStatusReporter struct {
	status driving.PipelineStatus
	err    error
}

func (m *mockStatusReporter) Status(_ context.Context) (*driving.PipelineStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.status
	s.GeneratedAt = time.Now()
	return &s, nil
}

func setupSyncTest(runner driving.SyncRunner, reporter driving.StatusReporter) func() {
	oldSync, oldStatus := syncRunner, statusReporter
	syncRunner = runner
	statusReporter = reporter
	return func() {
		syncRunner = oldSync
		statusReporter = oldStatus
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
}

func TestSyncCmd_Executes(t *testing.T) {
	mock := &mockSyncRunner{stats: driving.SyncStats{
		Processed: 5, Succeeded: 3, Failed: 1, Deleted: 1, Batches: 1,
	}}
	cleanup := setupSyncTest(mock, &mockStatusReporter{})
	defer cleanup()

	out, err := execute("sync", "--limit", "100")

	assert.NoError(t, err)
	assert.Contains(t, out, "Processed 5 entries in 1 batches")
	assert.Contains(t, out, "3 succeeded, 1 failed, 1 deleted")
	assert.Equal(t, 100, mock.lastOpts.TotalLimit)
	assert.True(t, mock.lastOpts.Resume, "sync continues from the cursor by default")

	syncLimit = 0
}

func TestSyncCmd_NoResumeFlag(t *testing.T) {
	mock := &mockSyncRunner{}
	cleanup := setupSyncTest(mock, &mockStatusReporter{})
	defer cleanup()

	_, err := execute("sync", "--no-resume")

	assert.NoError(t, err)
	assert.False(t, mock.lastOpts.Resume)

	syncNoResume = false
}

func TestSyncCmd_DeadLetteredEntriesFailTheRun(t *testing.T) {
	cleanup := setupSyncTest(
		&mockSyncRunner{stats: driving.SyncStats{Processed: 2, Failed: 2}},
		&mockStatusReporter{status: driving.PipelineStatus{DeadLettered: 2}},
	)
	defer cleanup()

	out, err := execute("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2 entries exhausted their retries")
	assert.Contains(t, out, "Processed 2 entries", "stats are printed before the failure")
}

func TestSyncCmd_RunnerError(t *testing.T) {
	cleanup := setupSyncTest(&mockSyncRunner{err: errors.New("index unavailable")}, &mockStatusReporter{})
	defer cleanup()

	_, err := execute("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	// A configured reporter keeps the lazy wiring from kicking in while
	// the sync runner itself stays nil.
	cleanup := setupSyncTest(nil, &mockStatusReporter{})
	defer cleanup()

	_, err := execute("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

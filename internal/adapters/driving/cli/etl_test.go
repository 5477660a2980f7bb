package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowmart-labs/skusync/internal/core/ports/driving"
)

// mockETLRunner implements driving.ETLRunner for testing.
type mockETLRunner struct {
	stats    driving.ETLStats
	err      error
	lastOpts driving.ETLOptions
}

func (m *mockETLRunner) Run(_ context.Context, opts driving.ETLOptions) (driving.ETLStats, error) {
	m.lastOpts = opts
	return m.stats, m.err
}

func setupETLTest(runner driving.ETLRunner) func() {
	oldETL := etlRunner
	etlRunner = runner
	return func() {
		etlRunner = oldETL
	}
}

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestETLCmd_Use(t *testing.T) {
	assert.Equal(t, "etl", etlCmd.Use)
}

func TestETLCmd_Executes(t *testing.T) {
	mock := &mockETLRunner{stats: driving.ETLStats{
		Processed: 10, Created: 4, Updated: 3, Unchanged: 2, Skipped: 1, Batches: 1,
	}}
	cleanup := setupETLTest(mock)
	defer cleanup()

	out, err := execute("etl")

	assert.NoError(t, err)
	assert.Contains(t, out, "Processed 10 rows in 1 batches")
	assert.Contains(t, out, "4 created, 3 updated, 2 unchanged, 1 skipped")
	assert.True(t, mock.lastOpts.Resume, "etl resumes from the watermark by default")
}

func TestETLCmd_NoResumeFlag(t *testing.T) {
	mock := &mockETLRunner{}
	cleanup := setupETLTest(mock)
	defer cleanup()

	_, err := execute("etl", "--no-resume", "--limit", "50")

	assert.NoError(t, err)
	assert.False(t, mock.lastOpts.Resume)
	assert.Equal(t, 50, mock.lastOpts.TotalLimit)

	etlNoResume = false
	etlLimit = 0
}

func TestETLCmd_RunnerError(t *testing.T) {
	cleanup := setupETLTest(&mockETLRunner{err: errors.New("staging unreachable")})
	defer cleanup()

	_, err := execute("etl")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "etl failed")
}

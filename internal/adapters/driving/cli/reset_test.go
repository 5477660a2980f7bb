package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmart-labs/skusync/internal/core/domain"
)

// mockAdmin implements driving.Admin for testing.
type mockAdmin struct {
	reset   int
	err     error
	lastKey *domain.BusinessKey
}

func (m *mockAdmin) ResetFailed(_ context.Context, key *domain.BusinessKey) (int, error) {
	m.lastKey = key
	return m.reset, m.err
}

func setupResetTest(admin *mockAdmin) func() {
	oldAdmin := adminService
	adminService = admin
	return func() {
		adminService = oldAdmin
	}
}

func TestResetCmd_ResetsAll(t *testing.T) {
	mock := &mockAdmin{reset: 3}
	cleanup := setupResetTest(mock)
	defer cleanup()

	out, err := execute("reset")

	assert.NoError(t, err)
	assert.Contains(t, out, "Reset 3 entries to pending")
	assert.Nil(t, mock.lastKey, "no argument means all failed entries")
}

func TestResetCmd_ResetsSingleProduct(t *testing.T) {
	mock := &mockAdmin{reset: 1}
	cleanup := setupResetTest(mock)
	defer cleanup()

	out, err := execute("reset", "acme#sku-123")

	assert.NoError(t, err)
	assert.Contains(t, out, "Reset 1 entries to pending")
	require.NotNil(t, mock.lastKey)
	assert.Equal(t, "acme", mock.lastKey.Namespace)
	assert.Equal(t, "sku-123", mock.lastKey.LocalID)
}

func TestResetCmd_NothingToReset(t *testing.T) {
	cleanup := setupResetTest(&mockAdmin{reset: 0})
	defer cleanup()

	out, err := execute("reset")

	assert.NoError(t, err)
	assert.Contains(t, out, "No failed entries to reset")
}

func TestResetCmd_RejectsMalformedKey(t *testing.T) {
	mock := &mockAdmin{}
	cleanup := setupResetTest(mock)
	defer cleanup()

	_, err := execute("reset", "not-a-key")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid product key")
	assert.Nil(t, mock.lastKey)
}

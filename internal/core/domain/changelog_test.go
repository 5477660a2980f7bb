package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeType_IsValid(t *testing.T) {
	assert.True(t, ChangeCreate.IsValid())
	assert.True(t, ChangeUpdate.IsValid())
	assert.True(t, ChangeDelete.IsValid())
	assert.False(t, ChangeType("TRUNCATE").IsValid())
}

func TestChangeStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusProcessed.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestTruncateError(t *testing.T) {
	short := "embedding timeout"
	assert.Equal(t, short, TruncateError(short))

	long := strings.Repeat("x", MaxLastErrorLen+50)
	assert.Len(t, TruncateError(long), MaxLastErrorLen)
}

func TestUpsertOutcome_String(t *testing.T) {
	assert.Equal(t, "unchanged", UpsertUnchanged.String())
	assert.Equal(t, "created", UpsertCreated.String())
	assert.Equal(t, "updated", UpsertUpdated.String())
}

package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "effects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndListFailed(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("u1", "Rookie Pilot", EffectRoleGrant, false, "role not found"))
	require.NoError(t, l.Record("u1", "Rookie Pilot", EffectAnnounce, true, ""))
	require.NoError(t, l.Record("u2", "Wingman", EffectRoleGrant, true, ""))

	failed, err := l.ListFailed(EffectRoleGrant, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	e := failed[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "Rookie Pilot", e.Role)
	assert.Equal(t, EffectRoleGrant, e.Effect)
	assert.False(t, e.OK)
	assert.Equal(t, "role not found", e.Detail)
	assert.Zero(t, e.Retries)
	assert.NotZero(t, e.CreatedAt)
}

func TestMarkRetriedClearsFailure(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("u1", "Rookie Pilot", EffectRoleGrant, false, "api error"))

	failed, err := l.ListFailed(EffectRoleGrant, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	require.NoError(t, l.MarkRetried(failed[0].ID, true))

	failed, err = l.ListFailed(EffectRoleGrant, 10)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestMarkRetriedKeepsFailureOnAnotherMiss(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Record("u1", "Wingman", EffectRoleGrant, false, "api error"))

	failed, err := l.ListFailed(EffectRoleGrant, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	require.NoError(t, l.MarkRetried(failed[0].ID, false))

	failed, err = l.ListFailed(EffectRoleGrant, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, int64(1), failed[0].Retries)
}

package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupTarget(t *testing.T) {
	// Multi-guild mode keeps global commands alone.
	r, err := NewRunner("token", "", zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.cleanupTarget(r.Session))

	// Single-guild mode, but no application ID before Ready populates it.
	r, err = NewRunner("token", "guild1", zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Empty(t, r.cleanupTarget(r.Session))
	assert.Empty(t, r.cleanupTarget(nil))

	// With the application ID known, cleanup addresses it.
	r.Session.State.User = &discordgo.User{ID: "app1"}
	assert.Equal(t, "app1", r.cleanupTarget(r.Session))
}

func TestCommandCleanupSkipsWithoutGuild(t *testing.T) {
	r, err := NewRunner("token", "", zap.NewNop(), nil)
	require.NoError(t, err)

	// Nothing to wipe and no application ID available; the handler must
	// bail out without touching the API, on the first and any later call.
	r.onReadyCommandCleanup(r.Session, &discordgo.Ready{})
	r.onReadyCommandCleanup(r.Session, &discordgo.Ready{})
}

package engagement

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsPrivileged(t *testing.T) {
	tests := []struct {
		name  string
		perms int64
		want  bool
	}{
		{"no permissions", 0, false},
		{"unrelated permissions", discordgo.PermissionSendMessages | discordgo.PermissionKickMembers, false},
		{"manage guild", discordgo.PermissionManageGuild, true},
		{"administrator", discordgo.PermissionAdministrator, true},
		{"admin among others", discordgo.PermissionAdministrator | discordgo.PermissionSendMessages, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrivileged(tt.perms))
		})
	}
}

func TestMemberPrivileged(t *testing.T) {
	assert.False(t, memberPrivileged(nil))
	assert.False(t, memberPrivileged(&discordgo.InteractionCreate{}))

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Permissions: discordgo.PermissionManageGuild},
	}}
	assert.True(t, memberPrivileged(i))
}

func TestInteractionUserFallsBackToDMUser(t *testing.T) {
	u := &discordgo.User{ID: "u1"}

	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: u},
	}}
	assert.Equal(t, u, interactionUser(guild))

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: u}}
	assert.Equal(t, u, interactionUser(dm))
}

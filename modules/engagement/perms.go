package engagement

import "github.com/bwmarrin/discordgo"

// IsPrivileged reports whether a permission bit mask carries Manage Server or
// Administrator. Policy lives on the permission bits, never on role names.
func IsPrivileged(perms int64) bool {
	return perms&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0
}

func memberPrivileged(i *discordgo.InteractionCreate) bool {
	if i == nil || i.Interaction == nil || i.Member == nil {
		return false
	}
	return IsPrivileged(i.Member.Permissions)
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i == nil || i.Interaction == nil {
		return nil
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: msg},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

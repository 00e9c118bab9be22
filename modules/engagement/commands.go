package engagement

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/tracker"
)

const topPageSize = 5

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	appID := ""
	if s.State != nil && s.State.User != nil {
		appID = s.State.User.ID
	}
	if appID == "" {
		m.log.Warn("cannot register commands: missing application ID")
		return
	}

	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        "mystats",
			Description: "Show your message count and voice-chat time",
		},
		{
			Name:        "topchatters",
			Description: "Show the top 5 users by messages sent",
		},
		{
			Name:        "topvoice",
			Description: "Show the top 5 users by voice-chat time",
		},
		{
			Name:        "reset",
			Description: "Admin: reset a user's message and voice counters",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to reset",
					Required:    true,
				},
			},
		},
		{
			Name:        "lock",
			Description: "Admin: toggle the lock on member commands",
		},
	}

	for _, c := range cmds {
		if _, err := s.ApplicationCommandCreate(appID, m.guildID, c); err != nil {
			m.log.Error("command create failed", zap.String("command", c.Name), zap.Error(err))
		}
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "mystats":
		if !m.allow(s, i, false) {
			return
		}
		m.handleMyStats(s, i)

	case "topchatters":
		if !m.allow(s, i, false) {
			return
		}
		m.handleTop(s, i, "messages")

	case "topvoice":
		if !m.allow(s, i, false) {
			return
		}
		m.handleTop(s, i, "voice")

	case "reset":
		if !m.allow(s, i, true) {
			return
		}
		m.handleReset(s, i)

	case "lock":
		if !m.allow(s, i, true) {
			return
		}
		m.handleLock(s, i)
	}
}

// allow enforces the permission policy before any state is touched: admin
// commands need Manage Server or Administrator, member commands are rejected
// while the lock is on (admins bypass the lock).
func (m *Module) allow(s *discordgo.Session, i *discordgo.InteractionCreate, admin bool) bool {
	priv := memberPrivileged(i)
	if admin && !priv {
		respondEphemeral(s, i, "You need **Manage Server** (or Administrator) to use this.")
		return false
	}
	if !admin && !priv && m.tracker.Locked() {
		respondEphemeral(s, i, "Commands are currently locked. 🔒")
		return false
	}
	return true
}

func (m *Module) handleMyStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if user == nil {
		respondEphemeral(s, i, "Could not determine user.")
		return
	}

	count, voice := m.tracker.MyStats(user.ID)
	respond(s, i, fmt.Sprintf(
		"%s, you have sent %d messages and spent %s in voice chat.",
		user.Username, count, voice,
	))
}

func (m *Module) handleTop(s *discordgo.Session, i *discordgo.InteractionCreate, kind string) {
	var (
		title string
		lines []string
	)

	switch kind {
	case "messages":
		title = "🏆 Top Chatters"
		for n, e := range m.tracker.TopMessages(topPageSize) {
			lines = append(lines, fmt.Sprintf("**%d.** <@%s> — %d messages", n+1, e.UserID, int64(e.Value)))
		}
	case "voice":
		title = "🎙️ Top Voice"
		for n, e := range m.tracker.TopVoice(topPageSize) {
			lines = append(lines, fmt.Sprintf("**%d.** <@%s> — %s", n+1, e.UserID, tracker.FormatVoiceDuration(e.Value)))
		}
	}

	if len(lines) == 0 {
		respondEphemeral(s, i, "No activity recorded yet.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func (m *Module) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var target *discordgo.User
	for _, opt := range i.ApplicationCommandData().Options {
		if opt != nil && opt.Name == "user" {
			target = opt.UserValue(s)
		}
	}
	if target == nil {
		respondEphemeral(s, i, "Usage: `/reset user:@someone`")
		return
	}

	m.tracker.ResetUser(target.ID)
	m.log.Info("reset user counters", zap.String("user", target.ID))
	respondEphemeral(s, i, fmt.Sprintf("Reset message and voice counters for **%s**.", target.Username))
}

func (m *Module) handleLock(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if m.tracker.ToggleLock() {
		respond(s, i, "Member commands are now locked. 🔒")
	} else {
		respond(s, i, "Member commands are now unlocked. 🔓")
	}
}

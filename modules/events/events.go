// Package events keeps an append-only log of community event announcements
// and the /event commands around it.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/tracker"
)

// Listing shows at most this many of the newest events.
const listPageSize = 10

type Module struct {
	tracker *tracker.Tracker
	log     *zap.Logger

	guildID           string
	announceChannelID string
}

func New(t *tracker.Tracker, guildID, announceChannelID string, log *zap.Logger) *Module {
	return &Module{
		tracker:           t,
		log:               log,
		guildID:           strings.TrimSpace(guildID),
		announceChannelID: strings.TrimSpace(announceChannelID),
	}
}

func (m *Module) Name() string { return "events" }

func (m *Module) Register(s *discordgo.Session) error {
	s.AddHandler(m.onReady)
	s.AddHandler(m.onInteractionCreate)
	return nil
}

func (m *Module) Start(ctx context.Context, s *discordgo.Session) error { return nil }

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	appID := ""
	if s.State != nil && s.State.User != nil {
		appID = s.State.User.ID
	}
	if appID == "" {
		m.log.Warn("cannot register commands: missing application ID")
		return
	}

	cmd := &discordgo.ApplicationCommand{
		Name:        "event",
		Description: "Community events",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Admin: announce a new community event",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "title",
						Description: "Event title",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "date",
						Description: "When it happens (free text, e.g. \"Friday 20:00 UTC\")",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "description",
						Description: "What it is about",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List announced community events",
			},
		},
	}

	if _, err := s.ApplicationCommandCreate(appID, m.guildID, cmd); err != nil {
		m.log.Error("command create failed", zap.String("command", cmd.Name), zap.Error(err))
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if data.Name != "event" || len(data.Options) == 0 || data.Options[0] == nil {
		return
	}

	switch sub := data.Options[0]; sub.Name {
	case "add":
		if !memberPrivileged(i) {
			respondEphemeral(s, i, "You need **Manage Server** (or Administrator) to use this.")
			return
		}
		m.handleAdd(s, i, sub)

	case "list":
		if m.tracker.Locked() && !memberPrivileged(i) {
			respondEphemeral(s, i, "Commands are currently locked. 🔒")
			return
		}
		m.handleList(s, i)
	}
}

func (m *Module) handleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	var title, date, description string
	for _, opt := range sub.Options {
		if opt == nil {
			continue
		}
		switch opt.Name {
		case "title":
			title = strings.TrimSpace(opt.StringValue())
		case "date":
			date = strings.TrimSpace(opt.StringValue())
		case "description":
			description = strings.TrimSpace(opt.StringValue())
		}
	}
	if title == "" || date == "" {
		respondEphemeral(s, i, "Usage: `/event add title:... date:... [description:...]`")
		return
	}

	creatorID := ""
	if i.Member != nil && i.Member.User != nil {
		creatorID = i.Member.User.ID
	}

	ev := m.tracker.AddEvent(title, description, date, creatorID, time.Now())

	channelID := m.announceChannelID
	if channelID == "" {
		channelID = i.ChannelID
	}
	embed := &discordgo.MessageEmbed{
		Title:       "📅 " + ev.Title,
		Description: ev.Description,
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "When", Value: ev.Date, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "New community event"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		m.log.Warn("event announcement failed", zap.String("title", ev.Title), zap.Error(err))
	}

	respondEphemeral(s, i, fmt.Sprintf("Event **%s** announced.", ev.Title))
}

func (m *Module) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	all := m.tracker.Events()
	if len(all) == 0 {
		respondEphemeral(s, i, "No events announced yet.")
		return
	}

	// newest first
	if len(all) > listPageSize {
		all = all[len(all)-listPageSize:]
	}

	var fields []*discordgo.MessageEmbedField
	for n := len(all) - 1; n >= 0; n-- {
		ev := all[n]
		value := ev.Date
		if ev.Description != "" {
			value += " — " + ev.Description
		}
		if ev.CreatorID != "" {
			value += fmt.Sprintf(" (by <@%s>)", ev.CreatorID)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  ev.Title,
			Value: value,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:     "📅 Community Events",
		Color:     0x5865F2,
		Fields:    fields,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func memberPrivileged(i *discordgo.InteractionCreate) bool {
	if i == nil || i.Interaction == nil || i.Member == nil {
		return false
	}
	return i.Member.Permissions&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0
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

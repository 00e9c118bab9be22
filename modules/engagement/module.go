// Package engagement wires the engagement tracker to the gateway: it counts
// guild messages, tracks voice sessions, applies milestone side effects and
// serves the stats commands.
package engagement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/ledger"
	"github.com/hangar18/squadbot/internal/tracker"
)

type Module struct {
	tracker *tracker.Tracker
	ledger  *ledger.Ledger
	log     *zap.Logger

	guildID           string
	announceChannelID string
}

func New(t *tracker.Tracker, l *ledger.Ledger, guildID, announceChannelID string, log *zap.Logger) *Module {
	return &Module{
		tracker:           t,
		ledger:            l,
		log:               log,
		guildID:           strings.TrimSpace(guildID),
		announceChannelID: strings.TrimSpace(announceChannelID),
	}
}

func (m *Module) Name() string { return "engagement" }

func (m *Module) Register(s *discordgo.Session) error {
	s.AddHandler(m.onReady)
	s.AddHandler(m.onMessageCreate)
	s.AddHandler(m.onVoiceStateUpdate)
	s.AddHandler(m.onInteractionCreate)
	return nil
}

// Start replays role grants that failed on a previous run. Best-effort: the
// counter is already durable, this only closes the gap between it and the
// member's roles.
func (m *Module) Start(ctx context.Context, s *discordgo.Session) error {
	if m.guildID == "" {
		return nil
	}

	failed, err := m.ledger.ListFailed(ledger.EffectRoleGrant, 50)
	if err != nil {
		m.log.Error("ledger read failed", zap.Error(err))
		return nil
	}

	for _, e := range failed {
		err := m.grantRoleByName(s, m.guildID, e.UserID, e.Role)
		if err != nil {
			m.log.Warn("role grant retry failed",
				zap.Int64("id", e.ID), zap.String("user", e.UserID),
				zap.String("role", e.Role), zap.Error(err))
		} else {
			m.log.Info("replayed missed role grant",
				zap.String("user", e.UserID), zap.String("role", e.Role))
		}
		if lerr := m.ledger.MarkRetried(e.ID, err == nil); lerr != nil {
			m.log.Error("ledger update failed", zap.Error(lerr))
		}
	}
	return nil
}

func (m *Module) onMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e == nil || e.Message == nil || e.Author == nil || e.Author.Bot {
		return
	}

	// No counting in DMs
	if strings.TrimSpace(e.GuildID) == "" {
		return
	}

	m.tracker.RecordMessage(e.Author.ID, func(ms tracker.Milestone) {
		m.applyMilestone(s, e, ms)
	})
}

// applyMilestone performs the two independent side effects of a threshold
// crossing. Each attempt lands in the ledger; a failure of one never blocks
// the other.
func (m *Module) applyMilestone(s *discordgo.Session, e *discordgo.MessageCreate, ms tracker.Milestone) {
	grantErr := m.grantRoleByName(s, e.GuildID, e.Author.ID, ms.Role)
	if grantErr != nil {
		m.log.Warn("milestone role grant failed",
			zap.String("user", e.Author.ID), zap.String("role", ms.Role), zap.Error(grantErr))
	}
	m.recordEffect(e.Author.ID, ms.Role, ledger.EffectRoleGrant, grantErr)

	channelID := m.announceChannelID
	if channelID == "" {
		channelID = e.ChannelID
	}
	_, annErr := s.ChannelMessageSend(channelID, ms.Announcement(e.Author.Username))
	if annErr != nil {
		m.log.Warn("milestone announcement failed",
			zap.String("user", e.Author.ID), zap.String("role", ms.Role), zap.Error(annErr))
	}
	m.recordEffect(e.Author.ID, ms.Role, ledger.EffectAnnounce, annErr)
}

func (m *Module) recordEffect(userID, role, effect string, cause error) {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	if err := m.ledger.Record(userID, role, effect, cause == nil, detail); err != nil {
		m.log.Error("ledger write failed", zap.String("effect", effect), zap.Error(err))
	}
}

// grantRoleByName resolves a role by its display name and adds it to the
// member. Adding a role the member already has is a no-op on Discord's side.
func (m *Module) grantRoleByName(s *discordgo.Session, guildID, userID, roleName string) error {
	roleID, err := m.findRoleID(s, guildID, roleName)
	if err != nil {
		return err
	}
	return s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (m *Module) findRoleID(s *discordgo.Session, guildID, roleName string) (string, error) {
	var roles []*discordgo.Role
	if s.State != nil {
		if g, err := s.State.Guild(guildID); err == nil && g != nil {
			roles = g.Roles
		}
	}
	if len(roles) == 0 {
		rs, err := s.GuildRoles(guildID)
		if err != nil {
			return "", fmt.Errorf("fetch roles: %w", err)
		}
		roles = rs
	}

	for _, r := range roles {
		if r != nil && r.Name == roleName {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("role %q not found", roleName)
}

func (m *Module) onVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e == nil || e.VoiceState == nil {
		return
	}

	before := ""
	if e.BeforeUpdate != nil {
		before = e.BeforeUpdate.ChannelID
	}

	now := time.Now()
	switch {
	case before == "" && e.ChannelID != "":
		m.tracker.RecordVoiceJoin(e.UserID, now)
	case before != "" && e.ChannelID == "":
		m.tracker.RecordVoiceLeave(e.UserID, now)
	}
	// A move between channels keeps the session open.
}

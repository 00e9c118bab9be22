// Package greeting welcomes a member the first time they post in the
// introductions channel. The greeted flag is global per user, so nobody is
// welcomed twice.
package greeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/tracker"
)

type Module struct {
	tracker   *tracker.Tracker
	channelID string
	log       *zap.Logger
}

func New(t *tracker.Tracker, introductionsChannelID string, log *zap.Logger) *Module {
	return &Module{
		tracker:   t,
		channelID: strings.TrimSpace(introductionsChannelID),
		log:       log,
	}
}

func (m *Module) Name() string { return "greeting" }

func (m *Module) Register(s *discordgo.Session) error {
	s.AddHandler(m.onMessageCreate)
	return nil
}

func (m *Module) Start(ctx context.Context, s *discordgo.Session) error { return nil }

func (m *Module) onMessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e == nil || e.Author == nil || e.Author.Bot || m.channelID == "" {
		return
	}

	m.tracker.GreetOnce(e.Author.ID, e.ChannelID == m.channelID, func() {
		text := fmt.Sprintf("Welcome to the server, %s! 🎉", e.Author.Username)
		if _, err := s.ChannelMessageSend(e.ChannelID, text); err != nil {
			m.log.Warn("welcome message failed", zap.String("user", e.Author.ID), zap.Error(err))
		}
	})
}

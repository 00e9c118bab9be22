package bot

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Module interface {
	Name() string
	Register(s *discordgo.Session) error
	Start(ctx context.Context, s *discordgo.Session) error
}

type Runner struct {
	Session *discordgo.Session
	Modules []Module

	guildID string
	log     *zap.Logger

	cleanupOnce sync.Once
}

func NewRunner(token, guildID string, log *zap.Logger, modules []Module) (*Runner, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// Voice states drive the session tracking, message content the counters
	// and the greeting.
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	return &Runner{Session: s, Modules: modules, guildID: guildID, log: log}, nil
}

func (r *Runner) Run() error {
	// In single-guild mode the modules register GUILD commands; old GLOBAL
	// registrations (from renames, removals, earlier deployments) would show
	// up as duplicates next to them. Wipe the globals once on Ready.
	r.Session.AddHandler(r.onReadyCommandCleanup)

	for _, m := range r.Modules {
		if err := m.Register(r.Session); err != nil {
			return err
		}
		r.log.Info("registered module", zap.String("module", m.Name()))
	}

	if err := r.Session.Open(); err != nil {
		return err
	}
	defer r.Session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, m := range r.Modules {
		if err := m.Start(ctx, r.Session); err != nil {
			return err
		}
		r.log.Info("started module", zap.String("module", m.Name()))
	}

	r.log.Info("squadbot is running, press ctrl+c to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	time.Sleep(300 * time.Millisecond)
	return nil
}

func (r *Runner) onReadyCommandCleanup(s *discordgo.Session, _ *discordgo.Ready) {
	r.cleanupOnce.Do(func() {
		appID := r.cleanupTarget(s)
		if appID == "" {
			return
		}

		// Bulk overwrite with an empty list deletes all global commands.
		if _, err := s.ApplicationCommandBulkOverwrite(appID, "", []*discordgo.ApplicationCommand{}); err != nil {
			r.log.Warn("stale global command cleanup failed", zap.Error(err))
			return
		}
		r.log.Info("cleared stale global commands", zap.String("guild", r.guildID))
	})
}

// cleanupTarget returns the application ID whose global commands should be
// wiped, or "" when cleanup does not apply: multi-guild mode keeps globals,
// and without an application ID there is nothing to address.
func (r *Runner) cleanupTarget(s *discordgo.Session) string {
	if r.guildID == "" {
		return ""
	}
	if s == nil || s.State == nil || s.State.User == nil {
		r.log.Warn("stale global command cleanup skipped: missing application ID")
		return ""
	}
	return s.State.User.ID
}

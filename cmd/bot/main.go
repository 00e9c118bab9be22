package main

import (
	"log"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hangar18/squadbot/internal/bot"
	"github.com/hangar18/squadbot/internal/ledger"
	"github.com/hangar18/squadbot/internal/store"
	"github.com/hangar18/squadbot/internal/tracker"
	"github.com/hangar18/squadbot/modules/engagement"
	"github.com/hangar18/squadbot/modules/events"
	"github.com/hangar18/squadbot/modules/greeting"
)

func main() {
	cfg, err := bot.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	st := store.New(filepath.Join(cfg.DataDir, "data.json"), logger.Named("store"))
	state, err := st.Load()
	if err != nil {
		logger.Fatal("load state", zap.Error(err))
	}

	led, err := ledger.Open(filepath.Join(cfg.DataDir, "effects.db"))
	if err != nil {
		logger.Fatal("open effect ledger", zap.Error(err))
	}
	defer led.Close()

	trk := tracker.New(state, st, logger.Named("tracker"))

	r, err := bot.NewRunner(cfg.Token, cfg.GuildID, logger.Named("bot"), []bot.Module{
		engagement.New(trk, led, cfg.GuildID, cfg.AnnounceChannelID, logger.Named("engagement")),
		greeting.New(trk, cfg.IntroductionsChannelID, logger.Named("greeting")),
		events.New(trk, cfg.GuildID, cfg.AnnounceChannelID, logger.Named("events")),
	})
	if err != nil {
		logger.Fatal("create runner", zap.Error(err))
	}

	if err := r.Run(); err != nil {
		logger.Fatal("run", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

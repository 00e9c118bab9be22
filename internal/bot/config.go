package bot

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Token string

	// Single-guild deployment. When set, slash commands are registered
	// guild-scoped so they show up instantly.
	GuildID string

	// Channel the one-time welcome listens on. Empty disables greeting.
	IntroductionsChannelID string

	// Channel milestone and event announcements go to. Empty means the
	// announcement is posted where the triggering message landed.
	AnnounceChannelID string

	DataDir string
	Debug   bool
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}

	dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dataDir == "" {
		dataDir = "data"
	}

	return Config{
		Token:                  token,
		GuildID:                strings.TrimSpace(os.Getenv("GUILD_ID")),
		IntroductionsChannelID: strings.TrimSpace(os.Getenv("INTRODUCTIONS_CHANNEL_ID")),
		AnnounceChannelID:      strings.TrimSpace(os.Getenv("ANNOUNCE_CHANNEL_ID")),
		DataDir:                dataDir,
		Debug:                  os.Getenv("DEBUG") != "",
	}, nil
}

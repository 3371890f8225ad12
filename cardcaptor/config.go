package cardcaptor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	ArtStorageDisk   = "disk"
	ArtStorageSpaces = "spaces"
)

// LoadConfig reads .env (if present), then the TOML file at path, then
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	return ParseConfig(file)
}

func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig         `toml:"log" envPrefix:"CARDCAPTOR_LOG_"`
	Bot    BotConfig         `toml:"bot"`
	DB     database.DBConfig `toml:"db" envPrefix:"CARDCAPTOR_DB_"`
	Spaces SpacesConfig      `toml:"spaces" envPrefix:"CARDCAPTOR_SPACES_"`
	Art    ArtConfig         `toml:"art" envPrefix:"CARDCAPTOR_ART_"`
	Spawn  SpawnConfig       `toml:"spawn" envPrefix:"CARDCAPTOR_SPAWN_"`
	Rarity RarityConfig      `toml:"rarity"`
	Render RenderConfig      `toml:"render" envPrefix:"CARDCAPTOR_RENDER_"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token" env:"DISCORD_BOT_TOKEN"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level" env:"LEVEL"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
	NoColor   bool       `toml:"no_color" env:"NO_COLOR"`
}

type SpacesConfig struct {
	Key      string `toml:"key" env:"KEY"`
	Secret   string `toml:"secret" env:"SECRET"`
	Region   string `toml:"region" env:"REGION"`
	Bucket   string `toml:"bucket" env:"BUCKET"`
	CardRoot string `toml:"cardroot" env:"CARDROOT"`
}

type ArtConfig struct {
	// Storage is "disk" or "spaces".
	Storage string `toml:"storage" env:"STORAGE"`
	Dir     string `toml:"dir" env:"DIR"`
}

type SpawnConfig struct {
	Count int    `toml:"count" env:"COUNT"`
	Mode  string `toml:"mode" env:"MODE"`
	// Interval enables scheduled spawns into ChannelID, e.g. "30m".
	Interval  string       `toml:"interval" env:"INTERVAL"`
	ChannelID snowflake.ID `toml:"channel_id"`
}

func (c SpawnConfig) ParsedMode() spawn.Mode {
	m, _ := spawn.ParseMode(c.Mode)
	return m
}

// ScheduleInterval is zero when scheduled spawns are off.
func (c SpawnConfig) ScheduleInterval() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// RarityConfig overrides the default weights; unset tiers keep their default.
type RarityConfig struct {
	Common    *float64 `toml:"common"`
	Uncommon  *float64 `toml:"uncommon"`
	Rare      *float64 `toml:"rare"`
	Epic      *float64 `toml:"epic"`
	Legendary *float64 `toml:"legendary"`
}

func (c RarityConfig) Weights() map[rarity.Tier]float64 {
	weights := make(map[rarity.Tier]float64, len(rarity.DefaultWeights))
	for t, w := range rarity.DefaultWeights {
		weights[t] = w
	}
	overrides := map[rarity.Tier]*float64{
		rarity.Common:    c.Common,
		rarity.Uncommon:  c.Uncommon,
		rarity.Rare:      c.Rare,
		rarity.Epic:      c.Epic,
		rarity.Legendary: c.Legendary,
	}
	for t, w := range overrides {
		if w != nil {
			weights[t] = *w
		}
	}
	return weights
}

type RenderConfig struct {
	ChromePath  string `toml:"chrome_path" env:"CHROME_PATH"`
	Concurrency int    `toml:"concurrency"`
	CacheSize   int    `toml:"cache_size"`
}

// Validate fills defaults and rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return errors.New("bot token is required (bot.token or DISCORD_BOT_TOKEN)")
	}

	switch strings.ToLower(c.DB.Driver) {
	case "":
		c.DB.Driver = database.DriverPostgres
	case database.DriverPostgres, database.DriverSQLite:
		c.DB.Driver = strings.ToLower(c.DB.Driver)
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}

	switch strings.ToLower(c.Art.Storage) {
	case "":
		c.Art.Storage = ArtStorageDisk
	case ArtStorageDisk, ArtStorageSpaces:
		c.Art.Storage = strings.ToLower(c.Art.Storage)
	default:
		return fmt.Errorf("unsupported art.storage %q", c.Art.Storage)
	}
	if c.Art.Dir == "" {
		c.Art.Dir = "art"
	}
	if c.Art.Storage == ArtStorageSpaces && (c.Spaces.Bucket == "" || c.Spaces.Region == "") {
		return errors.New("spaces.bucket and spaces.region are required when art.storage = \"spaces\"")
	}

	if c.Spawn.Count == 0 {
		c.Spawn.Count = config.DefaultSpawnCount
	}
	c.Spawn.Count = min(max(c.Spawn.Count, config.MinSpawnCount), config.MaxSpawnCount)

	mode, err := spawn.ParseMode(c.Spawn.Mode)
	if err != nil {
		return err
	}
	c.Spawn.Mode = string(mode)

	if c.Spawn.Interval != "" {
		d, err := time.ParseDuration(c.Spawn.Interval)
		if err != nil {
			return fmt.Errorf("invalid spawn.interval: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("spawn.interval must be at least 1m, got %s", d)
		}
		if c.Spawn.ChannelID == 0 {
			return errors.New("spawn.channel_id is required when spawn.interval is set")
		}
	}

	if _, err := rarity.NewPolicy(c.Rarity.Weights(), nil); err != nil {
		return fmt.Errorf("invalid rarity weights: %w", err)
	}

	if c.Render.Concurrency <= 0 {
		c.Render.Concurrency = config.MaxRenders
	}
	if c.Render.CacheSize <= 0 {
		c.Render.CacheSize = config.ArtCacheSize
	}
	return nil
}

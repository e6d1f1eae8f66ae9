package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/tidwall/jsonc"
)

var (
	ErrMissingToken    = errors.New("missing DISCORD_TOKEN")
	ErrInvalidTeamSize = errors.New("TEAM_SIZE must be a positive integer")
)

type Config struct {
	DiscordToken string `envconfig:"DISCORD_TOKEN"`
	GuildID      string `envconfig:"GUILD_ID"` // vacío = todos los guilds donde esté el bot
	TeamSize     int    `envconfig:"TEAM_SIZE" default:"25"`
	SnapshotPath string `envconfig:"SNAPSHOT_PATH" default:"teams.json"`
	CategoryName string `envconfig:"CATEGORY_NAME" default:"Teams"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`

	// limiter de clicks compartido (opcional)
	RedisAddr     string `envconfig:"RATE_LIMIT_REDIS_ADDR"`
	RedisPassword string `envconfig:"RATE_LIMIT_REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"RATE_LIMIT_REDIS_DB" default:"0"`
	ClickWindowMS int    `envconfig:"CLICK_WINDOW_MS" default:"1000"`
}

// fileConfig es el config.json heredado: sólo se usa para lo que falte en el entorno.
type fileConfig struct {
	Token    string      `json:"TOKEN"`
	GuildID  json.Number `json:"GUILD_ID"`
	TeamSize *int        `json:"TEAM_SIZE"`
}

// Load lee el entorno y completa con fallbackPath (JSON con comentarios) si existe.
func Load(fallbackPath string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.DiscordToken == "" || cfg.GuildID == "" {
		if err := cfg.applyFile(fallbackPath); err != nil {
			return nil, err
		}
	}

	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)
	if cfg.DiscordToken == "" {
		return nil, ErrMissingToken
	}
	if cfg.TeamSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTeamSize, cfg.TeamSize)
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(jsonc.ToJSON(raw), &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if c.DiscordToken == "" {
		c.DiscordToken = fc.Token
	}
	if c.GuildID == "" {
		c.GuildID = fc.GuildID.String()
	}
	if _, set := os.LookupEnv("TEAM_SIZE"); !set && fc.TeamSize != nil {
		c.TeamSize = *fc.TeamSize
	}
	return nil
}

// BotAuth agrega el prefijo "Bot " que pide discordgo si no vino en el token.
func (c *Config) BotAuth() string {
	if strings.HasPrefix(strings.ToLower(c.DiscordToken), "bot ") {
		return c.DiscordToken
	}
	return "Bot " + c.DiscordToken
}

// SnapshotPathFor: con GUILD_ID fijo se usa SNAPSHOT_PATH tal cual;
// sin él, cada guild tiene su propio archivo (teams-<guild>.json).
func (c *Config) SnapshotPathFor(guildID string) string {
	if c.GuildID != "" || guildID == "" {
		return c.SnapshotPath
	}
	ext := filepath.Ext(c.SnapshotPath)
	base := strings.TrimSuffix(c.SnapshotPath, ext)
	return base + "-" + guildID + ext
}

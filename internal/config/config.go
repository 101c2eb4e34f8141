package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

func (p OAuthProvider) Enabled() bool {
	return p.Key != "" && p.Secret != ""
}

type Config struct {
	Addr            string
	DatabasePath    string
	BaseSlug        string
	SiteName        string
	Categories      []string
	AdminEmails     []string
	Location        *time.Location
	SessionLifetime time.Duration
	SessionSecret   string
	CORSOrigins     []string
	LogLevel        slog.Level
	StandingsPolicy string

	Google  OAuthProvider
	Discord OAuthProvider
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function, filling defaults for
// unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Addr:            get("ADDR", ":8080"),
		DatabasePath:    get("DATABASE_PATH", "suntennis.db"),
		BaseSlug:        get("BASE_SLUG", "suntennis-2025"),
		SiteName:        get("SITE_NAME", "SunTennis Open 2025"),
		Categories:      splitList(get("CATEGORIES", "1,2")),
		AdminEmails:     splitList(getenv("ADMIN_EMAILS")),
		SessionSecret:   getenv("SESSION_SECRET"),
		CORSOrigins:     splitList(get("CORS_ORIGINS", "*")),
		StandingsPolicy: get("STANDINGS_POLICY", "wins"),
		Google: OAuthProvider{
			Key:         getenv("GOOGLE_KEY"),
			Secret:      getenv("GOOGLE_SECRET"),
			CallbackURL: getenv("GOOGLE_CALLBACK_URL"),
		},
		Discord: OAuthProvider{
			Key:         getenv("DISCORD_KEY"),
			Secret:      getenv("DISCORD_SECRET"),
			CallbackURL: getenv("DISCORD_CALLBACK_URL"),
		},
	}

	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("CATEGORIES must list at least one category")
	}

	location, err := time.LoadLocation(get("TIMEZONE", "Europe/Bucharest"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = location

	lifetime, err := time.ParseDuration(get("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

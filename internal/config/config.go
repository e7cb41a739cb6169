package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
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

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != "" && c.PublicBaseURL != ""
}

type Config struct {
	DatabasePath    string
	MigrationsURL   string
	ServerPort      int
	SessionLifetime time.Duration

	DefaultTatamiCount   int
	FightDefaultDuration time.Duration
	FightRestPeriod      time.Duration
	BronzeMatch          bool

	CORSAllowedOrigins []string
	// WriteRateLimit is requests per second per client on routes that change state
	WriteRateLimit float64

	Discord OAuthProvider
	Google  OAuthProvider
	R2      R2Config
}

// Load reads the configuration from the environment. A .env file is picked up when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from any lookup function, os.Getenv in production.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		DatabasePath:  get("DATABASE_PATH", "tatami.db"),
		MigrationsURL: get("MIGRATIONS_URL", "file://migrations"),
		Discord: OAuthProvider{
			Key:         getenv("DISCORD_KEY"),
			Secret:      getenv("DISCORD_SECRET"),
			CallbackURL: getenv("DISCORD_CALLBACK_URL"),
		},
		Google: OAuthProvider{
			Key:         getenv("GOOGLE_KEY"),
			Secret:      getenv("GOOGLE_SECRET"),
			CallbackURL: getenv("GOOGLE_CALLBACK_URL"),
		},
		R2: R2Config{
			AccountID:       getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	var err error
	if cfg.ServerPort, err = strconv.Atoi(get("SERVER_PORT", "8080")); err != nil {
		return nil, fmt.Errorf("%w: invalid SERVER_PORT: %v", bracket.ErrValidation, err)
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("%w: SERVER_PORT must be between 1 and 65535, got %d", bracket.ErrValidation, cfg.ServerPort)
	}

	if cfg.SessionLifetime, err = positiveDuration("SESSION_LIFETIME", get("SESSION_LIFETIME", "24h")); err != nil {
		return nil, err
	}
	if cfg.FightDefaultDuration, err = positiveDuration("FIGHT_DEFAULT_DURATION", get("FIGHT_DEFAULT_DURATION", "3m")); err != nil {
		return nil, err
	}
	if cfg.FightRestPeriod, err = time.ParseDuration(get("FIGHT_REST_PERIOD", "1m")); err != nil || cfg.FightRestPeriod < 0 {
		return nil, fmt.Errorf("%w: invalid FIGHT_REST_PERIOD %q", bracket.ErrValidation, getenv("FIGHT_REST_PERIOD"))
	}

	if cfg.DefaultTatamiCount, err = strconv.Atoi(get("DEFAULT_TATAMI_COUNT", "1")); err != nil || cfg.DefaultTatamiCount < 1 {
		return nil, fmt.Errorf("%w: DEFAULT_TATAMI_COUNT must be a positive number, got %q", bracket.ErrValidation, getenv("DEFAULT_TATAMI_COUNT"))
	}

	if cfg.BronzeMatch, err = strconv.ParseBool(get("BRONZE_MATCH", "false")); err != nil {
		return nil, fmt.Errorf("%w: invalid BRONZE_MATCH: %v", bracket.ErrValidation, err)
	}

	if cfg.WriteRateLimit, err = strconv.ParseFloat(get("WRITE_RATE_LIMIT", "5"), 64); err != nil || cfg.WriteRateLimit <= 0 {
		return nil, fmt.Errorf("%w: WRITE_RATE_LIMIT must be a positive number, got %q", bracket.ErrValidation, getenv("WRITE_RATE_LIMIT"))
	}

	for _, origin := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func positiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %v", bracket.ErrValidation, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", bracket.ErrValidation, key, d)
	}
	return d, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

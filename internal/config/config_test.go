package config

import (
	"testing"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "tatami.db", cfg.DatabasePath)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, 1, cfg.DefaultTatamiCount)
	assert.Equal(t, 3*time.Minute, cfg.FightDefaultDuration)
	assert.Equal(t, time.Minute, cfg.FightRestPeriod)
	assert.False(t, cfg.BronzeMatch)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5.0, cfg.WriteRateLimit)
	assert.False(t, cfg.R2.Enabled())
	assert.False(t, cfg.Discord.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_PATH":          "/var/lib/tatami/data.db",
		"SERVER_PORT":            "9000",
		"DEFAULT_TATAMI_COUNT":   "4",
		"FIGHT_DEFAULT_DURATION": "2m30s",
		"FIGHT_REST_PERIOD":      "0s",
		"BRONZE_MATCH":           "true",
		"CORS_ALLOWED_ORIGINS":   "https://a.example.com, https://b.example.com,",
		"WRITE_RATE_LIMIT":       "0.5",
		"R2_ACCOUNT_ID":          "acc",
		"R2_ACCESS_KEY_ID":       "key",
		"R2_SECRET_ACCESS_KEY":   "secret",
		"R2_BUCKET_NAME":         "logos",
		"R2_PUBLIC_BASE_URL":     "https://logos.example.com",
		"GOOGLE_KEY":             "g",
		"GOOGLE_SECRET":          "s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tatami/data.db", cfg.DatabasePath)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 4, cfg.DefaultTatamiCount)
	assert.Equal(t, 150*time.Second, cfg.FightDefaultDuration)
	assert.Zero(t, cfg.FightRestPeriod)
	assert.True(t, cfg.BronzeMatch)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0.5, cfg.WriteRateLimit)
	assert.True(t, cfg.R2.Enabled())
	assert.True(t, cfg.Google.Enabled())
}

func TestFromEnvInvalid(t *testing.T) {
	testCases := map[string]string{
		"SERVER_PORT":            "eighty",
		"SESSION_LIFETIME":       "-1h",
		"DEFAULT_TATAMI_COUNT":   "0",
		"FIGHT_DEFAULT_DURATION": "soon",
		"FIGHT_REST_PERIOD":      "-30s",
		"BRONZE_MATCH":           "maybe",
		"WRITE_RATE_LIMIT":       "-2",
	}

	for key, value := range testCases {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(env(map[string]string{key: value}))
			assert.ErrorIs(t, err, bracket.ErrValidation)
		})
	}

	_, err := FromEnv(env(map[string]string{"SERVER_PORT": "70000"}))
	assert.ErrorIs(t, err, bracket.ErrValidation)
}

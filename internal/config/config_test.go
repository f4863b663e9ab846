package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"JWT_SECRET":   "s3cret",
		"PG_USER":      "meet",
		"PG_DB":        "meetings",
		"SMS_ENDPOINT": "http://sms.local/send",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "direct", cfg.NotifyMode)
	assert.Equal(t, "TZ", cfg.PhoneRegion)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "postgres://meet:@localhost:5432/meetings?sslmode=disable", cfg.PostgresDSN())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestFromLookup_ReportsEveryProblem(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"HTTP_PORT":   "eighty",
		"NOTIFY_MODE": "carrier-pigeon",
		"JWT_TTL":     "-1h",
	}))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ElementsMatch(t, []string{"JWT_SECRET", "PG_USER", "PG_DB", "SMS_ENDPOINT"}, loadErr.Missing)
	assert.Contains(t, loadErr.Invalid, "HTTP_PORT")
	assert.Contains(t, loadErr.Invalid, "NOTIFY_MODE")
	assert.Contains(t, loadErr.Invalid, "JWT_TTL")
}

func TestFromLookup_SQLiteNeedsNoPostgres(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"JWT_SECRET":  "s3cret",
		"DB_DRIVER":   "sqlite",
		"NOTIFY_MODE": "off",
	}))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "boardroom.db", cfg.SQLitePath)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	AppEnv   string
	HTTPPort int

	DBDriver   string // postgres | sqlite
	PGHost     string
	PGPort     string
	PGUser     string
	PGDB       string
	PGPassword string
	SQLitePath string

	JWTSecret string
	JWTTTL    time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	NotifyMode    string // direct | queue | off
	SMSEndpoint   string
	SMSModule     string
	PhoneRegion   string
	PrincipalTTL  time.Duration
	UploadRoot    string
	DirectoryFile string

	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadError lists every missing or malformed key found by Load.
type LoadError struct {
	Missing []string
	Invalid map[string]string
}

func (e *LoadError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	for key, reason := range e.Invalid {
		parts = append(parts, fmt.Sprintf("invalid %s: %s", key, reason))
	}
	return "config: " + strings.Join(parts, "; ")
}

func (e *LoadError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup, errs: &LoadError{Invalid: map[string]string{}}}

	cfg := &Config{
		AppEnv:   r.str("APP_ENV", "development"),
		HTTPPort: r.integer("HTTP_PORT", 8080),

		DBDriver:   r.str("DB_DRIVER", "postgres"),
		PGHost:     r.str("PG_HOST", "localhost"),
		PGPort:     r.str("PG_PORT", "5432"),
		PGUser:     r.str("PG_USER", ""),
		PGDB:       r.str("PG_DB", ""),
		PGPassword: r.str("PG_PASSWORD", ""),
		SQLitePath: r.str("SQLITE_PATH", "boardroom.db"),

		JWTSecret: r.required("JWT_SECRET"),
		JWTTTL:    r.duration("JWT_TTL", 24*time.Hour),

		RedisHost:     r.str("REDIS_HOST", "localhost"),
		RedisPort:     r.str("REDIS_PORT", "6379"),
		RedisPassword: r.str("REDIS_PASSWORD", ""),

		NotifyMode:    r.oneOf("NOTIFY_MODE", "direct", "direct", "queue", "off"),
		SMSEndpoint:   r.str("SMS_ENDPOINT", ""),
		SMSModule:     r.str("SMS_MODULE", "Meeting App"),
		PhoneRegion:   r.str("PHONE_REGION", "TZ"),
		PrincipalTTL:  r.duration("PRINCIPAL_CACHE_TTL", 15*time.Second),
		UploadRoot:    r.str("UPLOAD_ROOT", "static/uploads"),
		DirectoryFile: r.str("DIRECTORY_FILE", ""),

		RateLimitRPS:   r.float("RATE_LIMIT_RPS", 1),
		RateLimitBurst: r.integer("RATE_LIMIT_BURST", 5),
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		r.errs.Invalid["DB_DRIVER"] = "must be postgres or sqlite"
	}
	if cfg.DBDriver == "postgres" {
		if cfg.PGUser == "" {
			r.errs.Missing = append(r.errs.Missing, "PG_USER")
		}
		if cfg.PGDB == "" {
			r.errs.Missing = append(r.errs.Missing, "PG_DB")
		}
	}
	if cfg.NotifyMode != "off" && cfg.SMSEndpoint == "" {
		r.errs.Missing = append(r.errs.Missing, "SMS_ENDPOINT")
	}

	if !r.errs.empty() {
		return nil, r.errs
	}
	return cfg, nil
}

// PostgresDSN renders the connection string shared by gorm and sqlx.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

type reader struct {
	lookup func(string) (string, bool)
	errs   *LoadError
}

func (r reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r reader) required(key string) string {
	v := r.str(key, "")
	if v == "" {
		r.errs.Missing = append(r.errs.Missing, key)
	}
	return v
}

func (r reader) integer(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs.Invalid[key] = "not an integer"
		return def
	}
	return n
}

func (r reader) float(key string, def float64) float64 {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.errs.Invalid[key] = "not a number"
		return def
	}
	return f
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		r.errs.Invalid[key] = "not a positive duration"
		return def
	}
	return d
}

func (r reader) oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(r.str(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	r.errs.Invalid[key] = "must be one of " + strings.Join(allowed, ", ")
	return def
}

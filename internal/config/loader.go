package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	Retention  time.Duration
	Timezone   *time.Location
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and reporting localized error messages for bad entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:roomreserve.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
		Retention:  31 * 24 * time.Hour,
		Timezone:   time.FixedZone("JST", 9*60*60),
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if retentionValue := strings.TrimSpace(os.Getenv("RESERVE_RETENTION")); retentionValue != "" {
		retention, err := time.ParseDuration(retentionValue)
		if err != nil || retention <= 0 {
			invalid = append(invalid, "RESERVE_RETENTION")
		} else {
			cfg.Retention = retention
		}
	}

	if tzValue := strings.TrimSpace(os.Getenv("RESERVE_TIMEZONE")); tzValue != "" {
		location, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "RESERVE_TIMEZONE")
		} else {
			cfg.Timezone = location
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

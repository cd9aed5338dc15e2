package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the
// reservation service.
type Config struct {
	HTTPPort    int
	SQLiteDSN   string
	SessionTTL  time.Duration
	HorizonDays int
	AMQPURL     string
	EventQueue  string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to sensible defaults; invalid values are
// collected and reported together with localized error messages.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:reservations.db?_foreign_keys=on",
		SessionTTL: 24 * time.Hour,
		EventQueue: "reservation.events",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("RESERVATION_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "RESERVATION_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("RESERVATION_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("RESERVATION_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVATION_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("RESERVATION_HORIZON_DAYS")); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon <= 0 {
			invalid = append(invalid, "RESERVATION_HORIZON_DAYS")
		} else {
			cfg.HorizonDays = horizon
		}
	}

	// The broker is optional; without it lifecycle events are only kept in
	// the in-process event log.
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("RESERVATION_AMQP_URL"))

	if queue := strings.TrimSpace(os.Getenv("RESERVATION_EVENT_QUEUE")); queue != "" {
		cfg.EventQueue = queue
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	MaxRetries int
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SnapshotTTL time.Duration
}

// Enabled reports whether the availability cache should be wired at all.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type KafkaConfig struct {
	Brokers []string
}

// Enabled reports whether the notification publisher should be wired.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type SecurityConfig struct {
	JWTSecret string
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

// EngineConfig carries the engine's policy constants and the background task
// cadence.
type EngineConfig struct {
	SlotGranularity     time.Duration
	ReservationDuration time.Duration
	HorizonDays         int
	CheckInEarly        time.Duration
	CheckInGrace        time.Duration
	OfferWindow         time.Duration
	MaxWait             time.Duration
	SweepInterval       time.Duration
	WatchdogInterval    time.Duration
	IdleThreshold       time.Duration
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Engine   EngineConfig
}

// Load reads configuration from environment variables. Database credentials
// and the JWT secret are required; everything else has defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: envOr("PORT", "8080")},
		Database: DatabaseConfig{
			Host:       envOr("DB_HOST", "localhost"),
			Port:       envOr("DB_PORT", "3306"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASS"),
			Name:       os.Getenv("DB_NAME"),
			MaxRetries: envInt("DB_MAX_RETRIES", 10),
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			Password:    os.Getenv("REDIS_PASSWORD"),
			DB:          envInt("REDIS_DB", 0),
			SnapshotTTL: envDuration("REDIS_SNAPSHOT_TTL_SEC", time.Second, 60),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(envOr("KAFKA_BROKERS", os.Getenv("KAFKA_BROKER"))),
		},
		Security: SecurityConfig{JWTSecret: os.Getenv("JWT_SECRET")},
		Logging: LoggingConfig{
			Directory: envOr("LOG_DIR", "./logs"),
			Level:     envOr("LOG_LEVEL", "info"),
			Format:    envOr("LOG_FORMAT", "text"),
		},
		Engine: EngineConfig{
			SlotGranularity:     envDuration("ENGINE_SLOT_GRANULARITY_MIN", time.Minute, 30),
			ReservationDuration: envDuration("ENGINE_RESERVATION_DURATION_MIN", time.Minute, 120),
			HorizonDays:         envInt("ENGINE_HORIZON_DAYS", 30),
			CheckInEarly:        envDuration("ENGINE_CHECKIN_EARLY_MIN", time.Minute, 30),
			CheckInGrace:        envDuration("ENGINE_CHECKIN_GRACE_MIN", time.Minute, 15),
			OfferWindow:         envDuration("ENGINE_OFFER_WINDOW_MIN", time.Minute, 10),
			MaxWait:             envDuration("ENGINE_MAX_WAIT_MIN", time.Minute, 90),
			SweepInterval:       envDuration("ENGINE_SWEEP_INTERVAL_SEC", time.Second, 10),
			WatchdogInterval:    envDuration("ENGINE_WATCHDOG_INTERVAL_SEC", time.Second, 60),
			IdleThreshold:       envDuration("ENGINE_IDLE_THRESHOLD_MIN", time.Minute, 30),
		},
	}

	var missing []string
	if cfg.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if cfg.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if cfg.Security.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, unit time.Duration, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * unit
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

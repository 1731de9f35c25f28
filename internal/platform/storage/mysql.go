package storage

import (
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Config carries the MySQL connection parameters.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN renders the go-sql-driver connection string with time.Time scanning on.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4", c.User, c.Password, c.Host, c.Port, c.Name)
}

// Connect opens a MySQL pool and pings it, retrying while the database comes
// up. Startup blocks here on purpose: the engine cannot load state without it.
func Connect(cfg Config, maxRetries int, logger *slog.Logger) (*sqlx.DB, error) {
	if maxRetries <= 0 {
		maxRetries = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	var db *sqlx.DB
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sqlx.Connect("mysql", cfg.DSN())
		if err == nil {
			db.SetMaxOpenConns(20)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(30 * time.Minute)
			logger.Info("database connected", slog.String("host", cfg.Host), slog.String("name", cfg.Name))
			return db, nil
		}
		logger.Warn("database not ready", slog.Int("attempt", attempt), slog.Int("maxRetries", maxRetries), slog.Any("error", err))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("mysql connect after %d attempts: %w", maxRetries, err)
}

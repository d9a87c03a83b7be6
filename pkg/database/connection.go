package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/Abubaker23alluhaibi/new-backend/pkg/config"
	"github.com/Abubaker23alluhaibi/new-backend/pkg/logger"
)

const (
	pingRetries   = 3
	pingBackoff   = 2 * time.Second
	healthTimeout = 5 * time.Second
)

// DB wraps the PostgreSQL connection pool used by the scheduling store.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// NewConnection opens the appointment database and verifies it is reachable.
// The ping is retried a few times so the service survives a database that is
// still starting up next to it.
func NewConnection(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := pingWithRetry(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database unreachable at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	log.WithFields(map[string]interface{}{
		"host":     cfg.Host,
		"database": cfg.Name,
	}).Info("Connected to appointment database")

	return &DB{DB: sqlDB, logger: log}, nil
}

// dsn builds the lib/pq key=value connection string.
func dsn(cfg *config.DatabaseConfig) string {
	parts := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", cfg.User),
		fmt.Sprintf("password=%s", cfg.Password),
		fmt.Sprintf("dbname=%s", cfg.Name),
		fmt.Sprintf("sslmode=%s", cfg.SSLMode),
	}
	return strings.Join(parts, " ")
}

func pingWithRetry(sqlDB *sql.DB) error {
	var err error
	for attempt := 0; attempt < pingRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(pingBackoff)
		}
		if err = sqlDB.Ping(); err == nil {
			return nil
		}
	}
	return err
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Health reports whether the database answers within the health timeout. The
// health endpoint calls this on every check.
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

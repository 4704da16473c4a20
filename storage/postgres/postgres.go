// Package postgres is the Postgres storage backend. Every write is a
// predicate-qualified UPDATE ... RETURNING so a lost race against a
// concurrent writer surfaces as not found instead of corrupting state.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Config holds the connection settings.
type Config struct {
	URL             string
	PingTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("database URL is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("ping timeout must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("max open conns must be >= 1")
	}
	if c.MaxIdleConns < 0 {
		return errors.New("max idle conns must be >= 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max idle conns must be <= max open conns")
	}
	return nil
}

// DefaultConfig returns sane pool defaults for the given URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		PingTimeout:     2 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Open connects and verifies the connection.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}

// Store implements the storage contracts on top of *sql.DB.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// setClause builds a deterministic SET clause from an update's column map,
// appending modified_at. Placeholders start at $1; predicate args follow.
func setClause(columns map[string]any) (string, []any) {
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, columns[k])
	}
	parts = append(parts, "modified_at = now()")
	return strings.Join(parts, ", "), args
}

// placeholders renders $n..$m for IN lists.
func placeholders(start, count int) string {
	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		parts = append(parts, fmt.Sprintf("$%d", start+i))
	}
	return strings.Join(parts, ", ")
}

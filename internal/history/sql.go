package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 5
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 2
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations
	DefaultPingTimeout = 5 * time.Second
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS delivered_articles (
		url          TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		topic        TEXT NOT NULL,
		run_id       TEXT NOT NULL,
		delivered_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_delivered_articles_delivered_at ON delivered_articles (delivered_at)`,
}

// Connect opens and pings the history database.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", pingErr)
	}

	return db, nil
}

// SQLStore keeps history in the delivered_articles table.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore creates a store over an open database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// EnsureSchema creates the history table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// RecentTitles implements Store.
func (s *SQLStore) RecentTitles(ctx context.Context, since time.Time) ([]string, error) {
	query := s.db.Rebind(`
		SELECT title FROM delivered_articles
		WHERE delivered_at >= ?
		ORDER BY delivered_at DESC
	`)

	var titles []string
	if err := s.db.SelectContext(ctx, &titles, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("select recent titles: %w", err)
	}

	return titles, nil
}

// Record implements Store.
func (s *SQLStore) Record(ctx context.Context, runID string, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	query := s.db.Rebind(`
		INSERT INTO delivered_articles (url, title, topic, run_id, delivered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
	`)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}

	deliveredAt := s.now().UTC()
	for _, a := range articles {
		if _, err = tx.ExecContext(ctx, query, a.URL, a.Title, a.Topic, runID, deliveredAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record delivered article: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

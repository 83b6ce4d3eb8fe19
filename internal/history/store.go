// Package history remembers which articles were delivered so that later runs
// can skip stories that were already sent.
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

//go:generate mockgen -destination=../../testutils/mocks/history/store.go -package=history . Store

// Store records delivered articles.
type Store interface {
	// RecentTitles returns titles delivered at or after since, newest first.
	RecentTitles(ctx context.Context, since time.Time) ([]string, error)
	// Record stores the articles of a run. Already known URLs are ignored.
	Record(ctx context.Context, runID string, articles []domain.Article) error
	Close() error
}

// Open returns the store selected by cfg.Driver. SQL stores have their
// schema created.
func Open(ctx context.Context, cfg Config) (Store, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Driver {
	case DriverNone:
		return NewMemoryStore(), nil
	case DriverPostgres, DriverSQLite:
		db, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(db)
		if err = store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

type entry struct {
	title       string
	deliveredAt time.Time
}

// MemoryStore keeps history for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

// RecentTitles implements Store.
func (s *MemoryStore) RecentTitles(_ context.Context, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.deliveredAt.Before(since) {
			recent = append(recent, e)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].deliveredAt.After(recent[j].deliveredAt)
	})

	titles := make([]string, len(recent))
	for i, e := range recent {
		titles[i] = e.title
	}
	return titles, nil
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, _ string, articles []domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, a := range articles {
		if _, ok := s.entries[a.URL]; ok {
			continue
		}
		s.entries[a.URL] = entry{title: a.Title, deliveredAt: now}
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

package collection

import (
	"context"
	"database/sql"
	"sync"
)

// OpenFunc opens the tracker that belongs to owner.
type OpenFunc func(ctx context.Context, owner string) (*Tracker, error)

// Registry lazily opens and caches one tracker per owner.
type Registry struct {
	mu       sync.Mutex
	open     OpenFunc
	trackers map[string]*Tracker
}

func NewRegistry(open OpenFunc) *Registry {
	return &Registry{open: open, trackers: make(map[string]*Tracker)}
}

// SQLiteOpener opens trackers backed by the snapshots table.
func SQLiteOpener(db *sql.DB, cfg Config, opts ...Option) OpenFunc {
	return func(ctx context.Context, owner string) (*Tracker, error) {
		return Open(ctx, NewSQLiteStore(db, owner), cfg, opts...)
	}
}

func (r *Registry) Get(ctx context.Context, owner string) (*Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[owner]; ok {
		return t, nil
	}
	t, err := r.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	r.trackers[owner] = t
	return t, nil
}

// Forget drops the cached tracker; the next Get reloads from the store.
func (r *Registry) Forget(owner string) {
	r.mu.Lock()
	delete(r.trackers, owner)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

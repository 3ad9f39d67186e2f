package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for tests and the dev
// fallback when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Stored
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Stored)}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.data[userID]
	if !ok {
		return Stored{}, ErrNotFound
	}
	return stored, nil
}

func (r *MemoryRepo) Save(ctx context.Context, userID string, doc Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userID] = Stored{UserID: userID, Document: doc, UpdatedAt: time.Now().UTC()}
	return nil
}

func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, userID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

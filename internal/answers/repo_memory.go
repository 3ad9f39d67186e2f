package answers

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]CustomAnswer // userID -> answers
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]CustomAnswer)}
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]CustomAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CustomAnswer, len(r.data[userID]))
	copy(out, r.data[userID])
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, answer CustomAnswer) (CustomAnswer, error) {
	if err := ctx.Err(); err != nil {
		return CustomAnswer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.data[answer.UserID]
	for i := range list {
		if list[i].QuestionNorm == answer.QuestionNorm {
			answer.ID = list[i].ID
			answer.CreatedAt = list[i].CreatedAt
			list[i] = answer
			return answer, nil
		}
	}
	answer.CreatedAt = answer.UpdatedAt
	r.data[answer.UserID] = append(list, answer)
	return answer, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.data[userID]
	for i := range list {
		if list[i].ID == id {
			r.data[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.data[userID]))
	delete(r.data, userID)
	return n, nil
}

var _ Repo = (*MemoryRepo)(nil)

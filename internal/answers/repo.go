package answers

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("custom answer not found")

// Repo defines persistence for custom answers.
type Repo interface {
	ListByUser(ctx context.Context, userID string) ([]CustomAnswer, error)
	Upsert(ctx context.Context, answer CustomAnswer) (CustomAnswer, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

package profile

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

// Repo defines persistence for profile documents.
type Repo interface {
	Get(ctx context.Context, userID string) (Stored, error)
	Save(ctx context.Context, userID string, doc Profile) error
	DeleteByUser(ctx context.Context, userID string) error
}

package fieldmap

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("fieldmap: not found")

// AnswerRepo stores per-user learned answers, one row per (user, fingerprint).
type AnswerRepo interface {
	// ListByFingerprints returns the user's answers for the given
	// fingerprints. Missing fingerprints are simply absent from the result.
	ListByFingerprints(ctx context.Context, userID string, fps []string) ([]UserFieldAnswer, error)
	// Upsert writes an answer unconditionally. Used for user-confirmed data.
	Upsert(ctx context.Context, a UserFieldAnswer) error
	// UpsertModelGuess writes a model-produced answer but never downgrades a
	// user-confirmed row to a lower-confidence guess.
	UpsertModelGuess(ctx context.Context, a UserFieldAnswer) error
	// TouchUsage bumps used_count and last_used for answers served from the
	// learned layer.
	TouchUsage(ctx context.Context, userID string, fps []string) error
	// DeleteStale removes answers used exactly once and untouched since the
	// cutoff. Returns the number of rows removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// SharedRepo stores the crowd-sourced knowledge: fingerprint to profile-key
// votes, selector performance, and per-domain form structures. Rows are only
// ever strengthened, never weakened, by the write methods.
type SharedRepo interface {
	ProfileKeysByFingerprints(ctx context.Context, fps []string) ([]SharedFieldProfileKey, error)
	// VoteProfileKey inserts a first vote or increments the vote count,
	// keeping the higher of the stored and offered confidence.
	VoteProfileKey(ctx context.Context, key SharedFieldProfileKey) error
	// BestSelectors returns selector rows for the fingerprints on a platform
	// with at least minSuccess successes, ordered by success count descending.
	BestSelectors(ctx context.Context, fps []string, platform string, minSuccess int) ([]SharedSelectorPerformance, error)
	// RecordSelectorSuccess increments the success count for a selector,
	// inserting the row on first sight.
	RecordSelectorSuccess(ctx context.Context, perf SharedSelectorPerformance) error
	// GetFormStructure returns the structure row for a domain, or ErrNotFound.
	GetFormStructure(ctx context.Context, domain string) (SharedFormStructure, error)
	// SaveFormStructure upserts a structure row keyed by domain.
	SaveFormStructure(ctx context.Context, s SharedFormStructure) error
}

// HistoryRepo is the append-only submission log.
type HistoryRepo interface {
	Append(ctx context.Context, rec SubmissionRecord) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

package fieldmap

import (
	"context"
	"time"

	"autofill-backend/internal/shared/metrics"
	"autofill-backend/internal/shared/telemetry"
)

// Answers used exactly once and untouched for this long were one-off form
// fields that will not recur.
const staleAnswerAge = 90 * 24 * time.Hour

// SweepStaleAnswers deletes single-use answers past the retention window and
// reports how many went.
func SweepStaleAnswers(ctx context.Context, repo AnswerRepo) (int64, error) {
	cutoff := time.Now().UTC().Add(-staleAnswerAge)
	deleted, err := repo.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		metrics.AddAnswersSwept(uint64(deleted))
	}
	telemetry.Info("fieldmap.sweep", map[string]any{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	return deleted, nil
}

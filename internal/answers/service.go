package answers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"autofill-backend/internal/fingerprint"
)

var ErrInvalidInput = errors.New("question and answer are required")

// Service contains business logic for custom answers.
type Service struct {
	Repo Repo

	// OnChange runs after a successful write so callers can drop cached
	// per-user autofill context. Optional.
	OnChange func(ctx context.Context, userID string)
}

func (s *Service) List(ctx context.Context, userID string) ([]CustomAnswer, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// AsMap returns question->answer for the cascade's custom-answer layer.
func (s *Service) AsMap(ctx context.Context, userID string) (map[string]string, error) {
	list, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(list))
	for _, a := range list {
		out[a.Question] = a.Answer
	}
	return out, nil
}

// Save upserts by the normalized question so re-saving a reworded question
// replaces the old answer instead of accumulating near-duplicates.
func (s *Service) Save(ctx context.Context, userID, question, answer string) (CustomAnswer, error) {
	norm := fingerprint.NormalizeLabel(question)
	if norm == "" || answer == "" {
		return CustomAnswer{}, ErrInvalidInput
	}
	saved, err := s.Repo.Upsert(ctx, CustomAnswer{
		ID:           uuid.NewString(),
		UserID:       userID,
		Question:     question,
		QuestionNorm: norm,
		Answer:       answer,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return CustomAnswer{}, err
	}
	if s.OnChange != nil {
		s.OnChange(ctx, userID)
	}
	return saved, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if s.OnChange != nil {
		s.OnChange(ctx, userID)
	}
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.OnChange != nil {
		s.OnChange(ctx, userID)
	}
	return n, nil
}

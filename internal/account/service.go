package account

import (
	"context"
	"errors"
	"strings"

	"autofill-backend/internal/answers"
	"autofill-backend/internal/fieldmap"
	"autofill-backend/internal/shared/telemetry"
)

// Service deletes everything the engine has learned about one user. Shared
// anonymous aggregates (profile-key votes, selector stats, form structures)
// carry no user id and stay.
type Service struct {
	Answers fieldmap.AnswerRepo
	History fieldmap.HistoryRepo
	Custom  *answers.Service
}

// PurgeResult reports how many rows each store dropped.
type PurgeResult struct {
	LearnedAnswers    int64 `json:"learned_answers"`
	CustomAnswers     int64 `json:"custom_answers"`
	SubmissionHistory int64 `json:"submission_history"`
}

func NewService(answerRepo fieldmap.AnswerRepo, historyRepo fieldmap.HistoryRepo, custom *answers.Service) *Service {
	return &Service{Answers: answerRepo, History: historyRepo, Custom: custom}
}

// PurgeLearnedData removes the user's learned answers, custom answers and
// submission history. Deletes run store by store and stop on the first
// failure; re-running the purge removes whatever remains.
func (s *Service) PurgeLearnedData(ctx context.Context, userID string) (PurgeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return PurgeResult{}, errors.New("userID is required")
	}

	var out PurgeResult
	if s.Answers != nil {
		n, err := s.Answers.DeleteByUser(ctx, userID)
		if err != nil {
			return PurgeResult{}, err
		}
		out.LearnedAnswers = n
	}
	if s.Custom != nil {
		// Through the service so the autofill-context cache drops too.
		n, err := s.Custom.DeleteAll(ctx, userID)
		if err != nil {
			return PurgeResult{}, err
		}
		out.CustomAnswers = n
	}
	if s.History != nil {
		n, err := s.History.DeleteByUser(ctx, userID)
		if err != nil {
			return PurgeResult{}, err
		}
		out.SubmissionHistory = n
	}

	telemetry.Info("account.learned_data_purged", map[string]any{
		"user_id":            userID,
		"learned_answers":    out.LearnedAnswers,
		"custom_answers":     out.CustomAnswers,
		"submission_history": out.SubmissionHistory,
	})
	return out, nil
}

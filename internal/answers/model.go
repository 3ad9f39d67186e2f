package answers

import "time"

// CustomAnswer is a user-saved question/answer pair. The cascade consults
// these before any store or generative lookup, so screener questions the
// user has answered once ("Are you authorized to work?") fill instantly.
type CustomAnswer struct {
	ID           string
	UserID       string
	Question     string
	QuestionNorm string
	Answer       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

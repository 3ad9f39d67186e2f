package answers

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]CustomAnswer, error) {
	const query = `
SELECT id, user_id, question, question_norm, answer, created_at, updated_at
FROM custom_answers
WHERE user_id = $1
ORDER BY updated_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomAnswer
	for rows.Next() {
		var a CustomAnswer
		if err := rows.Scan(&a.ID, &a.UserID, &a.Question, &a.QuestionNorm, &a.Answer, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces the answer for (user, normalized question).
func (r *PGRepo) Upsert(ctx context.Context, answer CustomAnswer) (CustomAnswer, error) {
	const query = `
INSERT INTO custom_answers (id, user_id, question, question_norm, answer, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id, question_norm)
DO UPDATE SET question = EXCLUDED.question, answer = EXCLUDED.answer, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

	err := r.DB.QueryRowContext(ctx, query,
		answer.ID,
		answer.UserID,
		answer.Question,
		answer.QuestionNorm,
		answer.Answer,
		answer.UpdatedAt,
	).Scan(&answer.ID, &answer.CreatedAt)
	if err != nil {
		return CustomAnswer{}, err
	}
	return answer, nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM custom_answers WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM custom_answers WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

var _ Repo = (*PGRepo)(nil)

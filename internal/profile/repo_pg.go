package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. The document is stored as a single
// JSONB column keyed by user.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Stored, error) {
	const query = `
SELECT data, updated_at
FROM profiles
WHERE user_id = $1`

	var raw []byte
	var updatedAt time.Time
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&raw, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stored{}, ErrNotFound
		}
		return Stored{}, err
	}

	var doc Profile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Stored{}, fmt.Errorf("decode profile document: %w", err)
	}
	return Stored{UserID: userID, Document: doc, UpdatedAt: updatedAt}, nil
}

func (r *PGRepo) Save(ctx context.Context, userID string, doc Profile) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode profile document: %w", err)
	}
	const query = `
INSERT INTO profiles (user_id, data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id)
DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(ctx, query, userID, raw, time.Now().UTC())
	return err
}

func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

var _ Repo = (*PGRepo)(nil)

package fieldmap

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGAnswerRepo implements AnswerRepo using Postgres.
type PGAnswerRepo struct {
	DB *sql.DB
}

func (r *PGAnswerRepo) ListByFingerprints(ctx context.Context, userID string, fps []string) ([]UserFieldAnswer, error) {
	if len(fps) == 0 {
		return nil, nil
	}
	query := `
SELECT id, user_id, field_fp, label_norm, value, source, confidence, used_count, last_used, created_at
FROM user_field_answers
WHERE user_id = $1 AND field_fp IN ` + placeholders(2, len(fps))
	args := append([]any{userID}, toAnyList(fps)...)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserFieldAnswer
	for rows.Next() {
		var a UserFieldAnswer
		var labelNorm sql.NullString
		var value sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.FieldFP, &labelNorm, &value, &a.Source, &a.Confidence, &a.UsedCount, &a.LastUsed, &a.CreatedAt); err != nil {
			return nil, err
		}
		if labelNorm.Valid {
			a.LabelNorm = labelNorm.String
		}
		if value.Valid {
			a.Value = value.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGAnswerRepo) Upsert(ctx context.Context, a UserFieldAnswer) error {
	const query = `
INSERT INTO user_field_answers (id, user_id, field_fp, label_norm, value, source, confidence, used_count, last_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 1, now(), now())
ON CONFLICT (user_id, field_fp) DO UPDATE SET
    value = EXCLUDED.value,
    source = EXCLUDED.source,
    confidence = EXCLUDED.confidence,
    label_norm = EXCLUDED.label_norm,
    used_count = user_field_answers.used_count + 1,
    last_used = now()`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.UserID, a.FieldFP, a.LabelNorm, a.Value, a.Source, a.Confidence)
	return err
}

func (r *PGAnswerRepo) UpsertModelGuess(ctx context.Context, a UserFieldAnswer) error {
	const query = `
INSERT INTO user_field_answers (id, user_id, field_fp, label_norm, value, source, confidence, used_count, last_used, created_at)
VALUES ($1, $2, $3, $4, $5, 'llm', $6, 1, now(), now())
ON CONFLICT (user_id, field_fp) DO UPDATE SET
    value = EXCLUDED.value,
    source = 'llm',
    confidence = EXCLUDED.confidence,
    label_norm = EXCLUDED.label_norm,
    used_count = user_field_answers.used_count + 1,
    last_used = now()
WHERE user_field_answers.source = 'llm' OR EXCLUDED.confidence > user_field_answers.confidence`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.UserID, a.FieldFP, a.LabelNorm, a.Value, a.Confidence)
	return err
}

func (r *PGAnswerRepo) TouchUsage(ctx context.Context, userID string, fps []string) error {
	if len(fps) == 0 {
		return nil
	}
	query := `
UPDATE user_field_answers
SET used_count = used_count + 1, last_used = now()
WHERE user_id = $1 AND field_fp IN ` + placeholders(2, len(fps))
	args := append([]any{userID}, toAnyList(fps)...)
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *PGAnswerRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
DELETE FROM user_field_answers
WHERE used_count = 1 AND last_used < $1`
	res, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGAnswerRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_field_answers WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ AnswerRepo = (*PGAnswerRepo)(nil)

// PGSharedRepo implements SharedRepo using Postgres.
type PGSharedRepo struct {
	DB *sql.DB
}

func (r *PGSharedRepo) ProfileKeysByFingerprints(ctx context.Context, fps []string) ([]SharedFieldProfileKey, error) {
	if len(fps) == 0 {
		return nil, nil
	}
	query := `
SELECT field_fp, ats_platform, label_norm, profile_key, confidence, vote_count, created_at
FROM shared_field_profile_keys
WHERE field_fp IN ` + placeholders(1, len(fps))

	rows, err := r.DB.QueryContext(ctx, query, toAnyList(fps)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SharedFieldProfileKey
	for rows.Next() {
		var k SharedFieldProfileKey
		var platform sql.NullString
		var labelNorm sql.NullString
		if err := rows.Scan(&k.FieldFP, &platform, &labelNorm, &k.ProfileKey, &k.Confidence, &k.VoteCount, &k.CreatedAt); err != nil {
			return nil, err
		}
		if platform.Valid {
			k.ATSPlatform = platform.String
		}
		if labelNorm.Valid {
			k.LabelNorm = labelNorm.String
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *PGSharedRepo) VoteProfileKey(ctx context.Context, key SharedFieldProfileKey) error {
	const query = `
INSERT INTO shared_field_profile_keys (field_fp, ats_platform, label_norm, profile_key, confidence, vote_count, created_at)
VALUES ($1, $2, $3, $4, $5, 1, now())
ON CONFLICT (field_fp) DO UPDATE SET
    vote_count = shared_field_profile_keys.vote_count + 1,
    confidence = GREATEST(shared_field_profile_keys.confidence, EXCLUDED.confidence)`
	_, err := r.DB.ExecContext(ctx, query, key.FieldFP, key.ATSPlatform, key.LabelNorm, key.ProfileKey, key.Confidence)
	return err
}

func (r *PGSharedRepo) BestSelectors(ctx context.Context, fps []string, platform string, minSuccess int) ([]SharedSelectorPerformance, error) {
	if len(fps) == 0 {
		return nil, nil
	}
	query := `
SELECT id, field_fp, ats_platform, selector_type, selector, success_count, fail_count, last_success, last_seen
FROM shared_selector_performance
WHERE ats_platform = $1 AND success_count >= $2 AND field_fp IN ` + placeholders(3, len(fps)) + `
ORDER BY success_count DESC`
	args := append([]any{platform, minSuccess}, toAnyList(fps)...)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SharedSelectorPerformance
	for rows.Next() {
		var p SharedSelectorPerformance
		var lastSuccess sql.NullTime
		if err := rows.Scan(&p.ID, &p.FieldFP, &p.ATSPlatform, &p.SelectorType, &p.Selector, &p.SuccessCount, &p.FailCount, &lastSuccess, &p.LastSeen); err != nil {
			return nil, err
		}
		if lastSuccess.Valid {
			p.LastSuccess = &lastSuccess.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGSharedRepo) RecordSelectorSuccess(ctx context.Context, perf SharedSelectorPerformance) error {
	const query = `
INSERT INTO shared_selector_performance (id, field_fp, ats_platform, selector_type, selector, success_count, fail_count, last_success, last_seen)
VALUES ($1, $2, $3, $4, $5, 1, 0, now(), now())
ON CONFLICT (field_fp, ats_platform, selector_type, selector) DO UPDATE SET
    success_count = shared_selector_performance.success_count + 1,
    last_success = now(),
    last_seen = now()`
	_, err := r.DB.ExecContext(ctx, query, perf.ID, perf.FieldFP, perf.ATSPlatform, perf.SelectorType, perf.Selector)
	return err
}

func (r *PGSharedRepo) GetFormStructure(ctx context.Context, domain string) (SharedFormStructure, error) {
	const query = `
SELECT id, domain, url_pattern, ats_platform, field_count, field_fps, has_resume_upload, has_cover_letter,
       is_multi_step, step_count, confidence, sample_count, last_seen, created_at
FROM shared_form_structures
WHERE domain = $1
LIMIT 1`
	var s SharedFormStructure
	var urlPattern sql.NullString
	var platform sql.NullString
	var fps sql.NullString
	err := r.DB.QueryRowContext(ctx, query, domain).Scan(
		&s.ID,
		&s.Domain,
		&urlPattern,
		&platform,
		&s.FieldCount,
		&fps,
		&s.HasResumeUpload,
		&s.HasCoverLetter,
		&s.IsMultiStep,
		&s.StepCount,
		&s.Confidence,
		&s.SampleCount,
		&s.LastSeen,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SharedFormStructure{}, ErrNotFound
		}
		return SharedFormStructure{}, err
	}
	if urlPattern.Valid {
		s.URLPattern = urlPattern.String
	}
	if platform.Valid {
		s.ATSPlatform = platform.String
	}
	if fps.Valid {
		if err := json.Unmarshal([]byte(fps.String), &s.FieldFPs); err != nil {
			s.FieldFPs = nil
		}
	}
	return s, nil
}

func (r *PGSharedRepo) SaveFormStructure(ctx context.Context, s SharedFormStructure) error {
	const query = `
INSERT INTO shared_form_structures (id, domain, url_pattern, ats_platform, field_count, field_fps, has_resume_upload,
    has_cover_letter, is_multi_step, step_count, confidence, sample_count, last_seen, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (domain) DO UPDATE SET
    url_pattern = EXCLUDED.url_pattern,
    ats_platform = EXCLUDED.ats_platform,
    field_count = EXCLUDED.field_count,
    field_fps = EXCLUDED.field_fps,
    has_resume_upload = EXCLUDED.has_resume_upload,
    has_cover_letter = EXCLUDED.has_cover_letter,
    is_multi_step = EXCLUDED.is_multi_step,
    step_count = EXCLUDED.step_count,
    confidence = EXCLUDED.confidence,
    sample_count = EXCLUDED.sample_count,
    last_seen = now()`
	fps, err := json.Marshal(s.FieldFPs)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		s.ID,
		s.Domain,
		s.URLPattern,
		s.ATSPlatform,
		s.FieldCount,
		fps,
		s.HasResumeUpload,
		s.HasCoverLetter,
		s.IsMultiStep,
		s.StepCount,
		s.Confidence,
		s.SampleCount,
	)
	return err
}

var _ SharedRepo = (*PGSharedRepo)(nil)

// PGHistoryRepo implements HistoryRepo using Postgres.
type PGHistoryRepo struct {
	DB *sql.DB
}

func (r *PGHistoryRepo) Append(ctx context.Context, rec SubmissionRecord) error {
	const query = `
INSERT INTO user_submission_history (id, user_id, domain, url, ats_platform, submitted_at, field_count, filled_count,
    unfilled_profile_keys, submitted_fields)
VALUES ($1, $2, $3, $4, $5, now(), $6, $7, $8, $9)`
	unfilled, err := json.Marshal(rec.UnfilledProfileKeys)
	if err != nil {
		return err
	}
	fields, err := json.Marshal(rec.SubmittedFields)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Domain,
		rec.URL,
		rec.ATSPlatform,
		rec.FieldCount,
		rec.FilledCount,
		unfilled,
		fields,
	)
	return err
}

func (r *PGHistoryRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_submission_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ HistoryRepo = (*PGHistoryRepo)(nil)

// placeholders renders "($n, $n+1, ...)" for an IN clause starting at n.
func placeholders(start, count int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	b.WriteByte(')')
	return b.String()
}

func toAnyList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package fieldmap

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"autofill-backend/internal/fingerprint"
	"autofill-backend/internal/shared/metrics"
	"autofill-backend/internal/shared/telemetry"
)

// FieldFeedback is one field of a submitted application form as the
// extension reports it back.
type FieldFeedback struct {
	Fingerprint    string   `json:"fingerprint"`
	Label          string   `json:"label,omitempty"`
	Type           string   `json:"type,omitempty"`
	Options        []string `json:"options,omitempty"`
	ATSPlatform    string   `json:"ats_platform,omitempty"`
	SelectorUsed   string   `json:"selector_used,omitempty"`
	SelectorType   string   `json:"selector_type,omitempty"`
	AutofillValue  *string  `json:"autofill_value,omitempty"`
	SubmittedValue *string  `json:"submitted_value,omitempty"`
	WasEdited      bool     `json:"was_edited,omitempty"`
}

// RecordInput is one completed submission.
type RecordInput struct {
	UserID              string
	Domain              string
	URL                 string
	ATSPlatform         string
	IsMultiStep         bool
	StepCount           int
	UnfilledProfileKeys []string
	Fields              []FieldFeedback
}

// Recorder turns submission feedback into learned state: per-user answers,
// selector performance, form structure and the submission log. Each write is
// independently best-effort; one failing store never blocks the others.
type Recorder struct {
	Answers AnswerRepo
	Shared  SharedRepo
	History HistoryRepo
}

// Record persists everything learnable from one submission and returns how
// many per-user answers were learned.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (int, error) {
	if in.UserID == "" {
		return 0, errors.New("userID is required")
	}
	metrics.IncFeedbackSubmission()

	platform := strings.TrimSpace(in.ATSPlatform)
	if platform == "" {
		platform = "unknown"
	}

	learned := 0
	filled := 0
	submitted := make([]SubmittedField, 0, len(in.Fields))
	for _, f := range in.Fields {
		if f.SubmittedValue != nil && strings.TrimSpace(*f.SubmittedValue) != "" {
			filled++
		}
		fp := strings.TrimSpace(f.Fingerprint)
		if fp == "" {
			continue
		}
		value := f.SubmittedValue
		if value == nil {
			value = f.AutofillValue
		}
		if value == nil {
			continue
		}

		source := SourceFormSubmit
		confidence := 1.0
		if f.WasEdited {
			source = SourceUserEdit
			confidence = 0.95
		}

		if r.Answers != nil {
			answer := UserFieldAnswer{
				ID:         uuid.NewString(),
				UserID:     in.UserID,
				FieldFP:    fp,
				LabelNorm:  clampLabel(fingerprint.NormalizeLabel(f.Label)),
				Value:      *value,
				Source:     source,
				Confidence: confidence,
			}
			if err := r.Answers.Upsert(ctx, answer); err != nil {
				telemetry.Error("fieldmap.feedback_answer_failed", map[string]any{
					"user_id":  in.UserID,
					"field_fp": fp,
					"error":    sanitizeError(err),
				})
			} else {
				learned++
			}
		}

		r.recordSelector(ctx, in, f, fp)

		submitted = append(submitted, SubmittedField{
			FieldFP:   fp,
			Label:     f.Label,
			Value:     value,
			Source:    source,
			WasEdited: f.WasEdited,
		})
	}

	if r.History != nil {
		rec := SubmissionRecord{
			ID:                  uuid.NewString(),
			UserID:              in.UserID,
			Domain:              in.Domain,
			URL:                 in.URL,
			ATSPlatform:         platform,
			FieldCount:          len(in.Fields),
			FilledCount:         filled,
			UnfilledProfileKeys: in.UnfilledProfileKeys,
			SubmittedFields:     submitted,
		}
		if err := r.History.Append(ctx, rec); err != nil {
			telemetry.Error("fieldmap.history_append_failed", map[string]any{
				"user_id": in.UserID,
				"domain":  in.Domain,
				"error":   sanitizeError(err),
			})
		}
	}

	r.updateFormStructure(ctx, in, platform)

	telemetry.Info("fieldmap.feedback", map[string]any{
		"user_id": in.UserID,
		"domain":  in.Domain,
		"fields":  len(in.Fields),
		"learned": learned,
	})
	return learned, nil
}

// recordSelector strengthens the crowd selector stats when the extension
// reports which selector located the field. Platform must be known from the
// field or the submission for the row to be meaningful.
func (r *Recorder) recordSelector(ctx context.Context, in RecordInput, f FieldFeedback, fp string) {
	if r.Shared == nil || strings.TrimSpace(f.SelectorUsed) == "" {
		return
	}
	platform := strings.TrimSpace(f.ATSPlatform)
	if platform == "" {
		platform = strings.TrimSpace(in.ATSPlatform)
	}
	if platform == "" {
		return
	}
	selectorType := f.SelectorType
	if selectorType == "" {
		selectorType = "id"
	}
	perf := SharedSelectorPerformance{
		ID:           uuid.NewString(),
		FieldFP:      fp,
		ATSPlatform:  platform,
		SelectorType: selectorType,
		Selector:     f.SelectorUsed,
		SuccessCount: 1,
	}
	if err := r.Shared.RecordSelectorSuccess(ctx, perf); err != nil {
		telemetry.Error("fieldmap.selector_record_failed", map[string]any{
			"field_fp": fp,
			"error":    sanitizeError(err),
		})
	}
}

// updateFormStructure upserts the per-domain structure row: union of
// fingerprints, bumped sample count, confidence derived from samples. Flags
// only ever strengthen.
func (r *Recorder) updateFormStructure(ctx context.Context, in RecordInput, platform string) {
	if r.Shared == nil || strings.TrimSpace(in.Domain) == "" {
		return
	}
	seen := make(map[string]bool, len(in.Fields))
	fps := make([]string, 0, len(in.Fields))
	hasResume := false
	hasCover := false
	for _, f := range in.Fields {
		fp := strings.TrimSpace(f.Fingerprint)
		if fp == "" {
			continue
		}
		kind := Classify(f.Label, "", "")
		if kind == "resume" || strings.EqualFold(f.Type, "file") {
			hasResume = true
		}
		if kind == "cover_letter" {
			hasCover = true
		}
		if seen[fp] {
			continue
		}
		seen[fp] = true
		fps = append(fps, fp)
	}
	if len(fps) == 0 {
		return
	}

	existing, err := r.Shared.GetFormStructure(ctx, in.Domain)
	switch {
	case err == nil:
		have := make(map[string]bool, len(existing.FieldFPs))
		for _, fp := range existing.FieldFPs {
			have[fp] = true
		}
		for _, fp := range fps {
			if !have[fp] {
				have[fp] = true
				existing.FieldFPs = append(existing.FieldFPs, fp)
			}
		}
		existing.FieldCount = len(existing.FieldFPs)
		existing.SampleCount++
		existing.Confidence = structureConfidence(existing.SampleCount)
		existing.ATSPlatform = platform
		existing.HasResumeUpload = existing.HasResumeUpload || hasResume
		existing.HasCoverLetter = existing.HasCoverLetter || hasCover
		existing.IsMultiStep = existing.IsMultiStep || in.IsMultiStep
		if in.StepCount > existing.StepCount {
			existing.StepCount = in.StepCount
		}
		if err := r.Shared.SaveFormStructure(ctx, existing); err != nil {
			telemetry.Error("fieldmap.structure_save_failed", map[string]any{
				"domain": in.Domain,
				"error":  sanitizeError(err),
			})
		}
	case errors.Is(err, ErrNotFound):
		stepCount := in.StepCount
		if stepCount < 1 {
			stepCount = 1
		}
		s := SharedFormStructure{
			ID:              uuid.NewString(),
			Domain:          in.Domain,
			URLPattern:      clampURLPattern(in.URL),
			ATSPlatform:     platform,
			FieldCount:      len(fps),
			FieldFPs:        fps,
			HasResumeUpload: hasResume,
			HasCoverLetter:  hasCover,
			IsMultiStep:     in.IsMultiStep,
			StepCount:       stepCount,
			Confidence:      structureConfidence(1),
			SampleCount:     1,
		}
		if err := r.Shared.SaveFormStructure(ctx, s); err != nil {
			telemetry.Error("fieldmap.structure_save_failed", map[string]any{
				"domain": in.Domain,
				"error":  sanitizeError(err),
			})
		}
	default:
		telemetry.Error("fieldmap.structure_lookup_failed", map[string]any{
			"domain": in.Domain,
			"error":  sanitizeError(err),
		})
	}
}

func structureConfidence(samples int) float64 {
	c := float64(samples) / 10.0
	if c > 1 {
		return 1
	}
	return c
}

func clampURLPattern(url string) string {
	const maxLen = 200
	if len(url) > maxLen {
		return url[:maxLen]
	}
	return url
}

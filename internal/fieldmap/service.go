package fieldmap

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"autofill-backend/internal/fingerprint"
	"autofill-backend/internal/llm"
	"autofill-backend/internal/shared/metrics"
	"autofill-backend/internal/shared/telemetry"
	"autofill-backend/internal/usage"
)

// ErrNoFields rejects structurally empty mapping requests. Everything below
// the request level degrades per field instead of failing the batch.
var ErrNoFields = errors.New("at least one field is required")

const maxResumeExcerpt = 8000

// Service resolves form fields through the layered cascade: saved custom
// answers, the user's learned answers, crowd-sourced profile keys, local
// profile aliases, then one batched generative call for whatever is left.
type Service struct {
	Answers       AnswerRepo
	Shared        SharedRepo
	LLM           llm.Client
	Usage         *usage.Service
	Cache         *ResultCache
	PromptVersion string
}

// ResolveInput is one mapping request. Profile is the flat key-to-value view
// of the user's profile; CustomAnswers maps saved questions to answers.
type ResolveInput struct {
	UserID        string
	Fields        []Field
	Profile       map[string]string
	CustomAnswers map[string]string
	ResumeExcerpt string
	Platform      string
}

// Resolve maps every input field to its best value. Individual fields never
// fail the request: a field nothing can answer comes back with a nil value
// and a low confidence.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (ResolveOutput, error) {
	if in.UserID == "" {
		return ResolveOutput{}, errors.New("userID is required")
	}
	if len(in.Fields) == 0 {
		return ResolveOutput{}, ErrNoFields
	}
	metrics.IncMappingRequest()
	startedAt := time.Now().UTC()

	fields := normalizeIndexes(in.Fields)
	fps := make([]string, len(fields))
	for i, f := range fields {
		fps[i] = f.Fingerprint()
	}
	platform := strings.TrimSpace(in.Platform)
	if platform == "" {
		platform = "unknown"
	}
	resumeExcerpt := clampResumeExcerpt(in.ResumeExcerpt)

	cacheKey := CacheKey(fields, in.Profile, in.CustomAnswers, resumeExcerpt)
	if out, ok := s.Cache.Get(ctx, cacheKey); ok {
		metrics.IncMappingCacheHit()
		out.Source = "cache"
		telemetry.Info("fieldmap.resolve", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    in.UserID,
			"fields":     len(fields),
			"source":     "cache",
		})
		return out, nil
	}

	resolutions := make([]resolution, len(fields))
	resolved := make([]bool, len(fields))

	for i, f := range fields {
		if r, ok := resumeUploadResolution(f); ok {
			resolutions[i], resolved[i] = r, true
		}
	}

	for i, f := range fields {
		if resolved[i] {
			continue
		}
		if value, question, ok := matchCustomAnswer(f.searchText(), in.CustomAnswers); ok {
			resolutions[i] = resolution{
				value:      strPtr(value),
				confidence: 0.95,
				reason:     "matched saved custom answer: " + question,
				source:     "custom_answer",
			}
			resolved[i] = true
		}
	}

	s.applyLearnedAnswers(ctx, in.UserID, fps, resolutions, resolved)
	s.applySharedKeys(ctx, fps, in.Profile, resolutions, resolved)

	var pending []int
	for i, f := range fields {
		if resolved[i] {
			continue
		}
		fb := localFallback(f, in.Profile, in.CustomAnswers)
		resolutions[i] = fb
		if requiresGenerative(f, fb) {
			pending = append(pending, i)
		} else {
			resolved[i] = true
		}
	}

	if len(pending) > 0 {
		s.resolveGenerative(ctx, in, fields, fps, platform, resumeExcerpt, pending, resolutions)
	}

	out := buildOutput(fields, fps, resolutions)
	out.Source = "cascade"
	s.Cache.Put(ctx, cacheKey, out)

	elapsed := durationMs(startedAt)
	metrics.ObserveMappingDurationMs(elapsed)
	telemetry.Info("fieldmap.resolve", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"user_id":     in.UserID,
		"fields":      len(fields),
		"generative":  len(pending),
		"duration_ms": elapsed,
		"source":      "cascade",
	})
	return out, nil
}

// applyLearnedAnswers fills still-open fields from the user's answer store in
// one batched lookup. Store errors are layer misses, not request failures.
func (s *Service) applyLearnedAnswers(ctx context.Context, userID string, fps []string, resolutions []resolution, resolved []bool) {
	if s.Answers == nil {
		return
	}
	want := pendingFingerprints(fps, resolved)
	if len(want) == 0 {
		return
	}
	rows, err := s.Answers.ListByFingerprints(ctx, userID, want)
	if err != nil {
		telemetry.Error("fieldmap.learned_lookup_failed", map[string]any{
			"user_id": userID,
			"error":   sanitizeError(err),
		})
		return
	}
	byFP := make(map[string]UserFieldAnswer, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Value) == "" {
			continue
		}
		byFP[row.FieldFP] = row
	}
	used := make(map[string]bool, len(byFP))
	for i := range fps {
		if resolved[i] {
			continue
		}
		row, ok := byFP[fps[i]]
		if !ok {
			continue
		}
		resolutions[i] = resolution{
			value:      strPtr(row.Value),
			confidence: row.Confidence,
			reason:     "using your saved answer",
			source:     "learned",
		}
		resolved[i] = true
		used[fps[i]] = true
	}
	if len(used) == 0 {
		return
	}
	hit := make([]string, 0, len(used))
	for _, fp := range want {
		if used[fp] {
			hit = append(hit, fp)
		}
	}
	if err := s.Answers.TouchUsage(ctx, userID, hit); err != nil {
		telemetry.Error("fieldmap.touch_usage_failed", map[string]any{
			"user_id": userID,
			"error":   sanitizeError(err),
		})
	}
}

// applySharedKeys resolves still-open fields through the crowd store. The
// store holds profile KEYS, never values: a hit only counts when the current
// user's profile has a value for that key, and its confidence is capped below
// the user-confirmed sources.
func (s *Service) applySharedKeys(ctx context.Context, fps []string, flat map[string]string, resolutions []resolution, resolved []bool) {
	if s.Shared == nil {
		return
	}
	want := pendingFingerprints(fps, resolved)
	if len(want) == 0 {
		return
	}
	rows, err := s.Shared.ProfileKeysByFingerprints(ctx, want)
	if err != nil {
		telemetry.Error("fieldmap.shared_lookup_failed", map[string]any{
			"error": sanitizeError(err),
		})
		return
	}
	byFP := make(map[string]SharedFieldProfileKey, len(rows))
	for _, row := range rows {
		byFP[row.FieldFP] = row
	}
	for i := range fps {
		if resolved[i] {
			continue
		}
		row, ok := byFP[fps[i]]
		if !ok {
			continue
		}
		val := profileValue(flat, row.ProfileKey)
		if val == "" {
			continue
		}
		conf := row.Confidence
		if conf > 0.9 {
			conf = 0.9
		}
		resolutions[i] = resolution{
			value:      strPtr(val),
			confidence: conf,
			reason:     "matched shared mapping to profile." + row.ProfileKey,
			source:     "crowd",
			profileKey: row.ProfileKey,
		}
		resolved[i] = true
	}
}

// resolveGenerative sends the pending fields to the model in one batch and
// merges the answers over the local fallbacks. Quota exhaustion, a missing
// client and call failures all degrade the affected fields, never the batch.
func (s *Service) resolveGenerative(ctx context.Context, in ResolveInput, fields []Field, fps []string, platform, resumeExcerpt string, pending []int, resolutions []resolution) {
	degrade := func() {
		for _, i := range pending {
			if resolutions[i].hasValue() {
				continue
			}
			resolutions[i] = resolution{reason: "unavailable", source: "unavailable"}
		}
	}

	if s.LLM == nil {
		degrade()
		return
	}
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, in.UserID, 1); err != nil {
			if !errors.Is(err, usage.ErrLimitReached) {
				telemetry.Error("fieldmap.quota_consume_failed", map[string]any{
					"user_id": in.UserID,
					"error":   sanitizeError(err),
				})
			}
			degrade()
			return
		}
	}

	descriptors := make([]llm.FieldDescriptor, 0, len(pending))
	for _, i := range pending {
		f := fields[i]
		descriptors = append(descriptors, llm.FieldDescriptor{
			Index:    f.Index,
			Label:    f.Label,
			Type:     f.Type,
			Options:  f.Options,
			Required: f.Required,
		})
	}
	input := llm.MapInput{
		Fields:            descriptors,
		ProfileJSON:       marshalJSONObject(in.Profile),
		CustomAnswersJSON: marshalJSONObject(in.CustomAnswers),
		ResumeExcerpt:     resumeExcerpt,
		PromptVersion:     s.promptVersion(),
	}

	client := newRetryingLLM(s.LLM, in.UserID, requestIDFromContext(ctx))
	metrics.IncLLMCall()
	raw, err := client.MapFields(ctx, input)
	if err != nil {
		metrics.IncLLMFailure()
		telemetry.Error("fieldmap.llm_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"user_id":    in.UserID,
			"fields":     len(pending),
			"error":      sanitizeError(err),
		})
		degrade()
		return
	}

	envelope := gjson.GetBytes(raw, "mappings")
	if !envelope.IsObject() {
		raw, err = client.MapFields(llm.WithFixJSON(ctx, string(raw)), input)
		if err != nil {
			metrics.IncLLMFailure()
			telemetry.Error("fieldmap.llm_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"user_id":    in.UserID,
				"fields":     len(pending),
				"error":      sanitizeError(err),
			})
			degrade()
			return
		}
		envelope = gjson.GetBytes(raw, "mappings")
		if !envelope.IsObject() {
			metrics.IncLLMFailure()
			telemetry.Error("fieldmap.llm_invalid_envelope", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"user_id":    in.UserID,
				"fields":     len(pending),
			})
			degrade()
			return
		}
	}

	for _, i := range pending {
		f := fields[i]
		entry := envelope.Get(strconv.Itoa(f.Index))
		if !entry.IsObject() {
			continue
		}
		gen := parseGenerated(entry)
		chosen := chooseResult(resolutions[i], gen)
		if chosen.source == SourceLLM {
			cleaned, rejection := cleanResult(f, chosen)
			if rejection != "" {
				metrics.IncValidationRejection()
				telemetry.Info("fieldmap.validation_rejected", map[string]any{
					"user_id":  in.UserID,
					"field_fp": fps[i],
					"reason":   rejection,
				})
			}
			chosen = cleaned
		}
		resolutions[i] = chosen
	}

	s.persistGenerated(ctx, in.UserID, platform, in.Profile, fields, fps, pending, resolutions)
}

// parseGenerated reads one model mapping entry. gjson tolerates the shape
// drift models produce: missing keys, numeric strings, literal "null".
func parseGenerated(entry gjson.Result) resolution {
	gen := resolution{
		confidence: entry.Get("confidence").Float(),
		reason:     entry.Get("reason").String(),
		source:     SourceLLM,
	}
	if v := entry.Get("value"); v.Exists() && v.Type != gjson.Null {
		if s := v.String(); strings.TrimSpace(s) != "" {
			gen.value = strPtr(s)
		}
	}
	if pk := entry.Get("profile_key"); pk.Type == gjson.String {
		if key := strings.TrimSpace(pk.String()); key != "" && key != "null" {
			gen.profileKey = key
		}
	}
	return gen
}

// chooseResult arbitrates between the local fallback and the model's answer
// for one field. Higher confidence wins, ties keep the local value, and a
// local value always beats a null model answer.
func chooseResult(local, gen resolution) resolution {
	if !gen.hasValue() {
		if local.hasValue() {
			return local
		}
		return gen
	}
	if local.hasValue() && local.confidence >= gen.confidence {
		return local
	}
	return gen
}

// persistGenerated writes accepted model answers back as learned rows and
// profile-key votes. Best-effort: failures log and move on, the response is
// already built from memory.
func (s *Service) persistGenerated(ctx context.Context, userID, platform string, flat map[string]string, fields []Field, fps []string, pending []int, resolutions []resolution) {
	if s.Answers == nil {
		return
	}
	seen := make(map[string]bool, len(pending))
	for _, i := range pending {
		res := resolutions[i]
		if res.source != SourceLLM || !res.hasValue() {
			continue
		}
		fp := fps[i]
		if seen[fp] {
			continue
		}
		seen[fp] = true
		labelNorm := clampLabel(fingerprint.NormalizeLabel(fields[i].Label))

		answer := UserFieldAnswer{
			ID:         uuid.NewString(),
			UserID:     userID,
			FieldFP:    fp,
			LabelNorm:  labelNorm,
			Value:      *res.value,
			Source:     SourceLLM,
			Confidence: res.confidence,
		}
		if err := s.Answers.UpsertModelGuess(ctx, answer); err != nil {
			telemetry.Error("fieldmap.answer_persist_failed", map[string]any{
				"user_id":  userID,
				"field_fp": fp,
				"error":    sanitizeError(err),
			})
		}

		if res.profileKey == "" || s.Shared == nil {
			continue
		}
		if profileValue(flat, res.profileKey) == "" {
			continue
		}
		vote := SharedFieldProfileKey{
			FieldFP:     fp,
			ATSPlatform: platform,
			LabelNorm:   labelNorm,
			ProfileKey:  res.profileKey,
			Confidence:  res.confidence,
			VoteCount:   1,
		}
		if err := s.Shared.VoteProfileKey(ctx, vote); err != nil {
			telemetry.Error("fieldmap.vote_persist_failed", map[string]any{
				"field_fp": fp,
				"error":    sanitizeError(err),
			})
		}
	}
}

func buildOutput(fields []Field, fps []string, resolutions []resolution) ResolveOutput {
	mappings := make(map[string]MappingResult, len(fields)*2)
	var unfilled []string
	for i, f := range fields {
		m := resolutions[i].toMapping()
		mappings[fps[i]] = m
		mappings[strconv.Itoa(f.Index)] = m
		if resolutions[i].value == nil {
			unfilled = append(unfilled, fingerprint.NormalizeLabel(f.Label))
		}
	}
	return ResolveOutput{Mappings: mappings, UnfilledKeys: unfilled}
}

// normalizeIndexes assigns positional indexes when the client sent none.
// The index addresses fields in the generative response, so it must vary
// per field.
func normalizeIndexes(fields []Field) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	if len(out) < 2 {
		return out
	}
	for _, f := range out {
		if f.Index != 0 {
			return out
		}
	}
	for i := range out {
		out[i].Index = i
	}
	return out
}

func pendingFingerprints(fps []string, resolved []bool) []string {
	seen := make(map[string]bool, len(fps))
	out := make([]string, 0, len(fps))
	for i, fp := range fps {
		if resolved[i] || seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, fp)
	}
	return out
}

func marshalJSONObject(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func clampResumeExcerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxResumeExcerpt {
		return s[:maxResumeExcerpt]
	}
	return s
}

func clampLabel(s string) string {
	const maxLen = 255
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}

func (s *Service) promptVersion() string {
	if strings.TrimSpace(s.PromptVersion) == "" {
		return "map_v1"
	}
	return s.PromptVersion
}

func durationMs(startedAt time.Time) float64 {
	return float64(time.Since(startedAt).Microseconds()) / 1000.0
}

package fieldmap

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryAnswerRepo is an in-memory AnswerRepo for tests and local runs.
type MemoryAnswerRepo struct {
	mu      sync.RWMutex
	answers map[string]map[string]UserFieldAnswer
	now     func() time.Time
}

func NewMemoryAnswerRepo() *MemoryAnswerRepo {
	return &MemoryAnswerRepo{
		answers: make(map[string]map[string]UserFieldAnswer),
		now:     time.Now,
	}
}

func (r *MemoryAnswerRepo) ListByFingerprints(ctx context.Context, userID string, fps []string) ([]UserFieldAnswer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	byFP := r.answers[userID]
	var out []UserFieldAnswer
	for _, fp := range fps {
		if a, ok := byFP[fp]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryAnswerRepo) Upsert(ctx context.Context, a UserFieldAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(a, false)
	return nil
}

func (r *MemoryAnswerRepo) UpsertModelGuess(ctx context.Context, a UserFieldAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a.Source = SourceLLM
	r.store(a, true)
	return nil
}

// store implements the upsert. Guarded writes never downgrade a
// user-confirmed answer to a lower-confidence model guess.
func (r *MemoryAnswerRepo) store(a UserFieldAnswer, guarded bool) {
	byFP := r.answers[a.UserID]
	if byFP == nil {
		byFP = make(map[string]UserFieldAnswer)
		r.answers[a.UserID] = byFP
	}
	existing, ok := byFP[a.FieldFP]
	if !ok {
		a.UsedCount = 1
		a.LastUsed = r.now()
		a.CreatedAt = r.now()
		byFP[a.FieldFP] = a
		return
	}
	if guarded && existing.Source != SourceLLM && a.Confidence <= existing.Confidence {
		return
	}
	existing.Value = a.Value
	existing.Source = a.Source
	existing.Confidence = a.Confidence
	existing.LabelNorm = a.LabelNorm
	existing.UsedCount++
	existing.LastUsed = r.now()
	byFP[a.FieldFP] = existing
}

func (r *MemoryAnswerRepo) TouchUsage(ctx context.Context, userID string, fps []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byFP := r.answers[userID]
	for _, fp := range fps {
		if a, ok := byFP[fp]; ok {
			a.UsedCount++
			a.LastUsed = r.now()
			byFP[fp] = a
		}
	}
	return nil
}

func (r *MemoryAnswerRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for _, byFP := range r.answers {
		for fp, a := range byFP {
			if a.UsedCount == 1 && a.LastUsed.Before(cutoff) {
				delete(byFP, fp)
				removed++
			}
		}
	}
	return removed, nil
}

func (r *MemoryAnswerRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.answers[userID]))
	delete(r.answers, userID)
	return n, nil
}

var _ AnswerRepo = (*MemoryAnswerRepo)(nil)

// MemorySharedRepo is an in-memory SharedRepo for tests and local runs.
type MemorySharedRepo struct {
	mu         sync.RWMutex
	keys       map[string]SharedFieldProfileKey
	selectors  map[string]SharedSelectorPerformance
	structures map[string]SharedFormStructure
	now        func() time.Time
}

func NewMemorySharedRepo() *MemorySharedRepo {
	return &MemorySharedRepo{
		keys:       make(map[string]SharedFieldProfileKey),
		selectors:  make(map[string]SharedSelectorPerformance),
		structures: make(map[string]SharedFormStructure),
		now:        time.Now,
	}
}

func (r *MemorySharedRepo) ProfileKeysByFingerprints(ctx context.Context, fps []string) ([]SharedFieldProfileKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SharedFieldProfileKey
	for _, fp := range fps {
		if k, ok := r.keys[fp]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *MemorySharedRepo) VoteProfileKey(ctx context.Context, key SharedFieldProfileKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.keys[key.FieldFP]
	if !ok {
		key.VoteCount = 1
		key.CreatedAt = r.now()
		r.keys[key.FieldFP] = key
		return nil
	}
	existing.VoteCount++
	if key.Confidence > existing.Confidence {
		existing.Confidence = key.Confidence
	}
	r.keys[key.FieldFP] = existing
	return nil
}

func selectorKey(p SharedSelectorPerformance) string {
	return strings.Join([]string{p.FieldFP, p.ATSPlatform, p.SelectorType, p.Selector}, "|")
}

func (r *MemorySharedRepo) BestSelectors(ctx context.Context, fps []string, platform string, minSuccess int) ([]SharedSelectorPerformance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(fps))
	for _, fp := range fps {
		wanted[fp] = true
	}
	var out []SharedSelectorPerformance
	for _, p := range r.selectors {
		if !wanted[p.FieldFP] || p.ATSPlatform != platform || p.SuccessCount < minSuccess {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessCount != out[j].SuccessCount {
			return out[i].SuccessCount > out[j].SuccessCount
		}
		return selectorKey(out[i]) < selectorKey(out[j])
	})
	return out, nil
}

func (r *MemorySharedRepo) RecordSelectorSuccess(ctx context.Context, perf SharedSelectorPerformance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := selectorKey(perf)
	now := r.now()
	existing, ok := r.selectors[k]
	if !ok {
		perf.SuccessCount = 1
		perf.FailCount = 0
		perf.LastSuccess = &now
		perf.LastSeen = now
		r.selectors[k] = perf
		return nil
	}
	existing.SuccessCount++
	existing.LastSuccess = &now
	existing.LastSeen = now
	r.selectors[k] = existing
	return nil
}

func (r *MemorySharedRepo) GetFormStructure(ctx context.Context, domain string) (SharedFormStructure, error) {
	if err := ctx.Err(); err != nil {
		return SharedFormStructure{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structures[domain]
	if !ok {
		return SharedFormStructure{}, ErrNotFound
	}
	return s, nil
}

func (r *MemorySharedRepo) SaveFormStructure(ctx context.Context, s SharedFormStructure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.LastSeen = r.now()
	if existing, ok := r.structures[s.Domain]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = r.now()
	}
	r.structures[s.Domain] = s
	return nil
}

var _ SharedRepo = (*MemorySharedRepo)(nil)

// MemoryHistoryRepo is an in-memory HistoryRepo for tests and local runs.
type MemoryHistoryRepo struct {
	mu      sync.RWMutex
	records []SubmissionRecord
}

func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{}
}

func (r *MemoryHistoryRepo) Append(ctx context.Context, rec SubmissionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryHistoryRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []SubmissionRecord
	var removed int64
	for _, rec := range r.records {
		if rec.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}

// ListByUser returns the user's records oldest-first. Test helper.
func (r *MemoryHistoryRepo) ListByUser(userID string) []SubmissionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SubmissionRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

var _ HistoryRepo = (*MemoryHistoryRepo)(nil)

package fieldmap

import (
	"context"
	"errors"
	"strings"

	"autofill-backend/internal/shared/telemetry"
)

// Selector rows below this many successes are noise, not knowledge.
const minSelectorSuccesses = 3

// StructureCheck is the fast-path answer for a known domain. Found false
// means the extension scrapes from scratch.
type StructureCheck struct {
	Found         bool
	FieldFPs      []string
	ATSPlatform   string
	Confidence    float64
	BestSelectors map[string]SelectorChoice
	IsMultiStep   bool
	StepCount     int
}

// SelectorChoice is the strongest known selector for one fingerprint.
type SelectorChoice struct {
	Selector     string
	Type         string
	SuccessCount int
}

// RankedSelector is one proven selector with its historical success rate.
type RankedSelector struct {
	Selector string  `json:"selector"`
	Type     string  `json:"type"`
	Rate     float64 `json:"rate"`
}

// CheckFormStructure looks up the crowd's knowledge of a domain's form. A
// selector-store failure degrades to a structure-only answer.
func (s *Service) CheckFormStructure(ctx context.Context, domain string) (StructureCheck, error) {
	if strings.TrimSpace(domain) == "" || s.Shared == nil {
		return StructureCheck{}, nil
	}
	row, err := s.Shared.GetFormStructure(ctx, domain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StructureCheck{}, nil
		}
		return StructureCheck{}, err
	}

	platform := row.ATSPlatform
	if platform == "" {
		platform = "unknown"
	}
	best := make(map[string]SelectorChoice)
	if len(row.FieldFPs) > 0 {
		selectors, err := s.Shared.BestSelectors(ctx, row.FieldFPs, platform, minSelectorSuccesses)
		if err != nil {
			telemetry.Error("fieldmap.selector_lookup_failed", map[string]any{
				"domain": domain,
				"error":  sanitizeError(err),
			})
		}
		for _, sel := range selectors {
			cur, ok := best[sel.FieldFP]
			if !ok || sel.SuccessCount > cur.SuccessCount {
				best[sel.FieldFP] = SelectorChoice{
					Selector:     sel.Selector,
					Type:         sel.SelectorType,
					SuccessCount: sel.SuccessCount,
				}
			}
		}
	}

	samples := row.SampleCount
	if samples < 1 {
		samples = 1
	}
	stepCount := row.StepCount
	if stepCount < 1 {
		stepCount = 1
	}
	return StructureCheck{
		Found:         true,
		FieldFPs:      row.FieldFPs,
		ATSPlatform:   row.ATSPlatform,
		Confidence:    structureConfidence(samples),
		BestSelectors: best,
		IsMultiStep:   row.IsMultiStep,
		StepCount:     stepCount,
	}, nil
}

// BestSelectorsBatch returns every proven selector per fingerprint on a
// platform, strongest first.
func (s *Service) BestSelectorsBatch(ctx context.Context, fps []string, platform string) (map[string][]RankedSelector, error) {
	out := make(map[string][]RankedSelector)
	if len(fps) == 0 || s.Shared == nil {
		return out, nil
	}
	if strings.TrimSpace(platform) == "" {
		platform = "unknown"
	}
	rows, err := s.Shared.BestSelectors(ctx, fps, platform, minSelectorSuccesses)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FieldFP] = append(out[row.FieldFP], RankedSelector{
			Selector: row.Selector,
			Type:     row.SelectorType,
			Rate:     row.SuccessRate(),
		})
	}
	return out, nil
}

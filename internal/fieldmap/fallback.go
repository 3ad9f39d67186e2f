package fieldmap

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"autofill-backend/internal/fingerprint"
)

// resolution is one field's outcome while the cascade runs. A nil value with
// a low confidence means "nothing local matched"; later layers may still fill
// it in.
type resolution struct {
	value      *string
	confidence float64
	reason     string
	source     string
	profileKey string
}

func (r resolution) hasValue() bool {
	return r.value != nil && strings.TrimSpace(*r.value) != ""
}

func (r resolution) toMapping() MappingResult {
	return MappingResult{Value: r.value, Confidence: r.confidence, Reason: r.reason}
}

func strPtr(s string) *string { return &s }

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
var slashDateRe = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{4}$`)

// resumeUploadResolution maps file inputs and resume fields to the sentinel
// the extension replaces with the actual attachment. No stored or generated
// text can fill a file input, so this outranks every other layer.
func resumeUploadResolution(f Field) (resolution, bool) {
	text := f.searchText()
	if !strings.EqualFold(f.Type, "file") && !strings.Contains(text, "resume") && !hasWord(text, "cv") {
		return resolution{}, false
	}
	return resolution{
		value:      strPtr(ResumeFileSentinel),
		confidence: 0.99,
		reason:     "resume file field mapped to auto upload token",
		source:     "local",
	}, true
}

// localFallback resolves a field from saved custom answers and profile
// aliases, without touching any store or the generative capability.
func localFallback(f Field, flat map[string]string, custom map[string]string) resolution {
	text := f.searchText()

	if r, ok := resumeUploadResolution(f); ok {
		return r
	}

	if value, question, ok := matchCustomAnswer(text, custom); ok {
		return resolution{
			value:      strPtr(value),
			confidence: 0.95,
			reason:     "matched saved custom answer: " + question,
			source:     "custom_answer",
		}
	}

	for _, entry := range aliasTable {
		val := profileValue(flat, entry.key)
		if val == "" {
			continue
		}
		if !anyAliasIn(text, entry.aliases) {
			continue
		}
		if isDateKey(entry.key) || strings.Contains(text, "dob") || strings.Contains(text, "birth") {
			if formatted := formatDateValue(val, f.Type); formatted != "" {
				return resolution{
					value:      strPtr(formatted),
					confidence: 0.92,
					reason:     "matched and formatted profile." + entry.key,
					source:     "local",
					profileKey: entry.key,
				}
			}
		}
		return resolution{
			value:      strPtr(val),
			confidence: 0.9,
			reason:     "matched profile." + entry.key,
			source:     "local",
			profileKey: entry.key,
		}
	}

	return resolution{confidence: 0.35, reason: "no reliable local match", source: "local"}
}

// matchCustomAnswer looks for a saved Q&A whose normalized question overlaps
// the field text in either direction. Questions are tried in sorted order so
// the match is deterministic.
func matchCustomAnswer(text string, custom map[string]string) (value, question string, ok bool) {
	if text == "" || len(custom) == 0 {
		return "", "", false
	}
	questions := make([]string, 0, len(custom))
	normalized := make(map[string]string, len(custom))
	for q, a := range custom {
		if strings.TrimSpace(a) == "" {
			continue
		}
		qn := fingerprint.NormalizeLabel(q)
		if qn == "" {
			continue
		}
		if _, seen := normalized[qn]; !seen {
			questions = append(questions, qn)
		}
		normalized[qn] = a
	}
	sort.Strings(questions)
	for _, qn := range questions {
		if strings.Contains(text, qn) || strings.Contains(qn, text) {
			return normalized[qn], qn, true
		}
	}
	return "", "", false
}

func anyAliasIn(text string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.Contains(text, alias) {
			return true
		}
	}
	return false
}

func hasWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if w == word {
			return true
		}
	}
	return false
}

func isDateKey(key string) bool {
	return key == "dateOfBirth" || key == "startDate"
}

// formatDateValue reformats a stored date for the target field type. ISO
// input stays ISO unless the field asks for a mm/dd shape; day-first input
// keeps its shape unless the field is a native date input. Unparseable input
// passes through unchanged.
func formatDateValue(raw, fieldType string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lowType := strings.ToLower(fieldType)
	if isoDateRe.MatchString(raw) {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return raw
		}
		if lowType != "date" && (strings.Contains(lowType, "mm") || strings.Contains(lowType, "dd")) {
			return t.Format("01/02/2006")
		}
		return t.Format("2006-01-02")
	}
	if slashDateRe.MatchString(raw) {
		t, err := time.Parse("2/1/2006", strings.ReplaceAll(raw, "-", "/"))
		if err != nil {
			return raw
		}
		if lowType == "date" {
			return t.Format("2006-01-02")
		}
		return t.Format("02/01/2006")
	}
	return raw
}

// requiresGenerative reports whether a field should still go to the model
// despite the local fallback. Long-form prose fields always do; confident
// local matches never do.
func requiresGenerative(f Field, fb resolution) bool {
	if strings.EqualFold(f.Type, "textarea") {
		return true
	}
	text := f.searchText()
	for _, kw := range []string{"cover letter", "why ", "describe", "summary", "explain"} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	if fb.hasValue() && fb.confidence >= 0.9 {
		return false
	}
	if f.Required && fb.confidence < 0.85 {
		return true
	}
	return fb.confidence < 0.75
}

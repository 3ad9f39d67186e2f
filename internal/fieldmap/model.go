package fieldmap

import (
	"strings"
	"time"

	"autofill-backend/internal/fingerprint"
)

// Field is one scraped form field as the extension sees it. Fields carry no
// identity beyond their content: two fields with the same label, type and
// options are the same field wherever they appear.
type Field struct {
	Label        string   `json:"label"`
	Name         string   `json:"name,omitempty"`
	ID           string   `json:"id,omitempty"`
	Type         string   `json:"type"`
	Placeholder  string   `json:"placeholder,omitempty"`
	Options      []string `json:"options,omitempty"`
	Required     bool     `json:"required,omitempty"`
	Index        int      `json:"index"`
	Selector     string   `json:"selector,omitempty"`
	SelectorType string   `json:"selector_type,omitempty"`
}

// Fingerprint hashes the field identity. The label falls back to the
// placeholder and then the element name, matching the extension side.
func (f Field) Fingerprint() string {
	label := f.Label
	if label == "" {
		label = f.Placeholder
	}
	if label == "" {
		label = f.Name
	}
	return fingerprint.Compute(label, f.Type, f.Options)
}

// searchText is the normalized haystack used for alias and custom-answer
// matching: label, name, id, placeholder, type and the classified kind folded
// into one lowercase string.
func (f Field) searchText() string {
	parts := []string{f.Label, f.Name, f.ID, f.Placeholder, f.Type}
	if key := classifyField(f); key != "" {
		parts = append(parts, strings.ReplaceAll(key, "_", " "))
	}
	return fingerprint.NormalizeLabel(strings.Join(parts, " "))
}

// MappingResult is the per-field outcome returned to the extension. A nil
// value means "leave the field unfilled".
type MappingResult struct {
	Value      *string `json:"value"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Answer sources, ordered by trust. User-confirmed sources are authoritative
// over generative ones and are never silently overwritten by a
// lower-confidence guess.
const (
	SourceLLM        = "llm"
	SourceUserEdit   = "user_edit"
	SourceFormSubmit = "form_submit"
)

// ResumeFileSentinel is the placeholder value the extension swaps for the
// actual resume attachment on file-upload fields.
const ResumeFileSentinel = "RESUME_FILE"

// UserFieldAnswer is one user's learned value for a field fingerprint.
type UserFieldAnswer struct {
	ID         string
	UserID     string
	FieldFP    string
	LabelNorm  string
	Value      string
	Source     string
	Confidence float64
	UsedCount  int
	LastUsed   time.Time
	CreatedAt  time.Time
}

// SharedFieldProfileKey maps a fingerprint to the profile attribute that
// answers it. It never stores a literal value; the cascade resolves the key
// against the requesting user's current profile.
type SharedFieldProfileKey struct {
	FieldFP     string
	ATSPlatform string
	LabelNorm   string
	ProfileKey  string
	Confidence  float64
	VoteCount   int
	CreatedAt   time.Time
}

// SharedSelectorPerformance tracks how often a DOM selector located a field
// kind on a platform.
type SharedSelectorPerformance struct {
	ID           string
	FieldFP      string
	ATSPlatform  string
	SelectorType string
	Selector     string
	SuccessCount int
	FailCount    int
	LastSuccess  *time.Time
	LastSeen     time.Time
}

// SuccessRate is successes over total attempts, rounded to three decimals.
func (s SharedSelectorPerformance) SuccessRate() float64 {
	total := s.SuccessCount + s.FailCount
	if total < 1 {
		total = 1
	}
	rate := float64(s.SuccessCount) / float64(total)
	return float64(int(rate*1000+0.5)) / 1000
}

// SharedFormStructure aggregates the fingerprints seen on a domain so known
// forms can be fast-pathed without re-scraping.
type SharedFormStructure struct {
	ID              string
	Domain          string
	URLPattern      string
	ATSPlatform     string
	FieldCount      int
	FieldFPs        []string
	HasResumeUpload bool
	HasCoverLetter  bool
	IsMultiStep     bool
	StepCount       int
	Confidence      float64
	SampleCount     int
	LastSeen        time.Time
	CreatedAt       time.Time
}

// SubmissionRecord is one append-only row per completed form submission.
type SubmissionRecord struct {
	ID                  string
	UserID              string
	Domain              string
	URL                 string
	ATSPlatform         string
	SubmittedAt         time.Time
	FieldCount          int
	FilledCount         int
	UnfilledProfileKeys []string
	SubmittedFields     []SubmittedField
}

// SubmittedField is the per-field fact kept in submission history.
type SubmittedField struct {
	FieldFP   string  `json:"field_fp"`
	Label     string  `json:"label,omitempty"`
	Value     *string `json:"value"`
	Source    string  `json:"source"`
	WasEdited bool    `json:"was_edited"`
}

package fieldmap

import "testing"

func llmResolution(value string, confidence float64) resolution {
	return resolution{value: strPtr(value), confidence: confidence, source: SourceLLM}
}

func TestCleanResultRejectsPhoneInNameField(t *testing.T) {
	f := Field{Label: "First Name", Type: "text"}

	got, rejection := cleanResult(f, llmResolution("+1 (555) 123-4567", 0.8))
	if got.value != nil {
		t.Fatalf("value = %q, want nil", *got.value)
	}
	if got.confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.confidence)
	}
	if rejection == "" {
		t.Fatalf("expected a rejection reason")
	}
}

func TestCleanResultPhoneAllowedInPhoneField(t *testing.T) {
	f := Field{Label: "Phone", Type: "tel"}

	got, rejection := cleanResult(f, llmResolution("+1 (555) 123-4567", 0.8))
	if got.value == nil || *got.value != "+1 (555) 123-4567" {
		t.Fatalf("value = %v, want the phone number kept", got.value)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}
}

func TestCleanResultExtractsNumberFromProse(t *testing.T) {
	f := Field{Label: "Years of experience", Type: "number"}

	got, rejection := cleanResult(f, llmResolution("I have 5 years of experience", 0.7))
	if got.value == nil || *got.value != "5" {
		t.Fatalf("value = %v, want 5", got.value)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}
}

func TestCleanResultNullsNonNumeric(t *testing.T) {
	f := Field{Label: "Desired salary", Type: "number"}

	got, rejection := cleanResult(f, llmResolution("competitive", 0.7))
	if got.value != nil {
		t.Fatalf("value = %q, want nil", *got.value)
	}
	if rejection == "" {
		t.Fatalf("expected a rejection reason")
	}
}

func TestCleanResultSalvagesYear(t *testing.T) {
	f := Field{Label: "Graduation year", Type: "text"}

	got, rejection := cleanResult(f, llmResolution("I graduated in 2019 from MIT", 0.95))
	if got.value == nil || *got.value != "2019" {
		t.Fatalf("value = %v, want 2019", got.value)
	}
	if got.confidence != 0.9 {
		t.Fatalf("confidence = %v, want capped at 0.9", got.confidence)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}

	got, rejection = cleanResult(f, llmResolution("Recently", 0.95))
	if got.value != nil {
		t.Fatalf("value = %q, want nil when no year present", *got.value)
	}
	if rejection == "" {
		t.Fatalf("expected a rejection reason")
	}

	got, _ = cleanResult(f, llmResolution("2019", 0.95))
	if got.value == nil || *got.value != "2019" {
		t.Fatalf("a bare year passes through, got %v", got.value)
	}
	if got.confidence != 0.95 {
		t.Fatalf("confidence = %v, want untouched", got.confidence)
	}
}

func TestCleanResultDropdownExactAndFolded(t *testing.T) {
	f := Field{Label: "Work mode", Type: "select", Options: []string{"Remote", "Hybrid", "On-site"}}

	got, _ := cleanResult(f, llmResolution("Remote", 0.99))
	if got.value == nil || *got.value != "Remote" {
		t.Fatalf("exact option altered: %v", got.value)
	}
	if got.confidence != 0.99 {
		t.Fatalf("exact match must not touch confidence, got %v", got.confidence)
	}

	got, _ = cleanResult(f, llmResolution("remote", 0.99))
	if got.value == nil || *got.value != "Remote" {
		t.Fatalf("case-folded match = %v, want Remote", got.value)
	}
	if got.confidence != 0.95 {
		t.Fatalf("confidence = %v, want capped at 0.95", got.confidence)
	}
}

func TestCleanResultDropdownPartialMatch(t *testing.T) {
	f := Field{Label: "Country", Type: "select", Options: []string{"United States", "United States Minor Outlying Islands", "Canada"}}

	got, rejection := cleanResult(f, llmResolution("United States of America", 0.95))
	if got.value == nil || *got.value != "United States" {
		t.Fatalf("value = %v, want United States", got.value)
	}
	if got.confidence != 0.85 {
		t.Fatalf("confidence = %v, want capped at 0.85", got.confidence)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}
}

func TestCleanResultCountryDropdownSkipsIslandTraps(t *testing.T) {
	f := Field{Label: "Country", Type: "select", Options: []string{"United States Minor Outlying Islands", "Canada"}}

	got, rejection := cleanResult(f, llmResolution("Outlying Islands", 0.9))
	if got.value != nil {
		t.Fatalf("value = %q, want nil", *got.value)
	}
	if rejection == "" {
		t.Fatalf("expected a rejection reason")
	}
}

func TestCleanResultDropdownRejectsInventedOption(t *testing.T) {
	f := Field{Label: "Country", Type: "select", Options: []string{"United States", "Canada"}}

	got, rejection := cleanResult(f, llmResolution("United Kingdom", 0.9))
	if got.value != nil {
		t.Fatalf("value = %q, want nil", *got.value)
	}
	if got.reason != "no matching option" {
		t.Fatalf("reason = %q", got.reason)
	}
	if rejection == "" {
		t.Fatalf("expected a rejection reason")
	}
}

func TestCleanResultRadioYesNo(t *testing.T) {
	f := Field{Label: "Are you authorized to work?", Type: "radio", Options: []string{"Yes", "No"}}

	got, _ := cleanResult(f, llmResolution("yes", 0.9))
	if got.value == nil || *got.value != "Yes" {
		t.Fatalf("value = %v, want Yes", got.value)
	}
}

func TestCleanResultFreeTextPassesThrough(t *testing.T) {
	f := Field{Label: "LinkedIn profile", Type: "text"}

	got, rejection := cleanResult(f, llmResolution("https://linkedin.com/in/ada", 0.88))
	if got.value == nil || *got.value != "https://linkedin.com/in/ada" {
		t.Fatalf("value = %v, want untouched", got.value)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}
}

func TestCleanResultNilValueUntouched(t *testing.T) {
	f := Field{Label: "First Name", Type: "text"}

	got, rejection := cleanResult(f, resolution{source: SourceLLM, confidence: 0.5, reason: "unsure"})
	if got.value != nil || got.reason != "unsure" {
		t.Fatalf("nil values must pass through untouched, got %+v", got)
	}
	if rejection != "" {
		t.Fatalf("unexpected rejection %q", rejection)
	}
}

package fieldmap

import (
	"testing"
)

func TestLocalFallbackResumeSentinel(t *testing.T) {
	cases := []Field{
		{Label: "Resume/CV", Type: "file"},
		{Label: "Upload your CV", Type: "text"},
		{Label: "Attach resume", Type: "button"},
	}
	for _, f := range cases {
		got := localFallback(f, nil, nil)
		if got.value == nil || *got.value != ResumeFileSentinel {
			t.Fatalf("field %q: value = %v, want %q", f.Label, got.value, ResumeFileSentinel)
		}
		if got.confidence != 0.99 {
			t.Fatalf("field %q: confidence = %v, want 0.99", f.Label, got.confidence)
		}
	}
}

func TestLocalFallbackAnyFileInputGetsSentinel(t *testing.T) {
	got := localFallback(Field{Label: "Cover letter", Type: "file"}, nil, nil)
	if got.value == nil || *got.value != ResumeFileSentinel {
		t.Fatalf("file input value = %v, want sentinel", got.value)
	}
}

func TestLocalFallbackCustomAnswerBeatsAlias(t *testing.T) {
	f := Field{Label: "Notice period", Type: "text"}
	flat := map[string]string{"startDate": "2025-01-15"}
	custom := map[string]string{"Notice period": "30 days"}

	got := localFallback(f, flat, custom)
	if got.value == nil || *got.value != "30 days" {
		t.Fatalf("value = %v, want saved custom answer", got.value)
	}
	if got.confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", got.confidence)
	}
	if got.source != "custom_answer" {
		t.Fatalf("source = %q, want custom_answer", got.source)
	}
}

func TestLocalFallbackAliasOrder(t *testing.T) {
	flat := map[string]string{"firstName": "Ada", "name": "Ada Lovelace"}

	got := localFallback(Field{Label: "First Name", Type: "text"}, flat, nil)
	if got.value == nil || *got.value != "Ada" {
		t.Fatalf("value = %v, want the specific firstName over the bare name", got.value)
	}
	if got.profileKey != "firstName" {
		t.Fatalf("profileKey = %q, want firstName", got.profileKey)
	}

	got = localFallback(Field{Label: "Full name", Type: "text"}, flat, nil)
	if got.value == nil || *got.value != "Ada Lovelace" {
		t.Fatalf("value = %v, want the full name", got.value)
	}
}

func TestLocalFallbackFormatsDates(t *testing.T) {
	flat := map[string]string{"dateOfBirth": "1990-04-23"}

	got := localFallback(Field{Label: "Date of birth", Type: "text"}, flat, nil)
	if got.value == nil || *got.value != "1990-04-23" {
		t.Fatalf("value = %v, want ISO date preserved", got.value)
	}
	if got.confidence != 0.92 {
		t.Fatalf("confidence = %v, want 0.92", got.confidence)
	}

	got = localFallback(Field{Label: "Date of birth", Type: "mm/dd/yyyy"}, flat, nil)
	if got.value == nil || *got.value != "04/23/1990" {
		t.Fatalf("value = %v, want reformatted for mm/dd field", got.value)
	}
}

func TestLocalFallbackNoMatch(t *testing.T) {
	got := localFallback(Field{Label: "Security clearance level", Type: "text"}, map[string]string{"email": "ada@example.com"}, nil)
	if got.value != nil {
		t.Fatalf("value = %v, want nil", got.value)
	}
	if got.confidence != 0.35 {
		t.Fatalf("confidence = %v, want 0.35", got.confidence)
	}
	if got.reason != "no reliable local match" {
		t.Fatalf("reason = %q", got.reason)
	}
}

func TestMatchCustomAnswer(t *testing.T) {
	custom := map[string]string{
		"Willing to relocate": "Yes",
		"Notice period":       "30 days",
		"Blank answer":        "   ",
	}

	v, q, ok := matchCustomAnswer("are you willing to relocate for this role", custom)
	if !ok || v != "Yes" {
		t.Fatalf("expected question-in-text match, got %q ok=%v", v, ok)
	}
	if q != "willing to relocate" {
		t.Fatalf("question = %q, want normalized form", q)
	}

	v, _, ok = matchCustomAnswer("notice", custom)
	if !ok || v != "30 days" {
		t.Fatalf("expected text-in-question match, got %q ok=%v", v, ok)
	}

	if _, _, ok = matchCustomAnswer("blank answer", custom); ok {
		t.Fatalf("blank answers must never match")
	}

	if _, _, ok = matchCustomAnswer("", custom); ok {
		t.Fatalf("empty field text must never match")
	}
}

func TestMatchCustomAnswerDeterministicOrder(t *testing.T) {
	custom := map[string]string{
		"b period": "B",
		"a period": "A",
	}
	for i := 0; i < 10; i++ {
		v, _, ok := matchCustomAnswer("period", custom)
		if !ok || v != "A" {
			t.Fatalf("iteration %d: got %q ok=%v, want the lexicographically first question", i, v, ok)
		}
	}
}

func TestFormatDateValue(t *testing.T) {
	cases := []struct {
		raw       string
		fieldType string
		want      string
	}{
		{"1990-04-23", "text", "1990-04-23"},
		{"1990-04-23", "date", "1990-04-23"},
		{"1990-04-23", "mm/dd/yyyy", "04/23/1990"},
		{"23/04/1990", "date", "1990-04-23"},
		{"23/04/1990", "text", "23/04/1990"},
		{"5-6-1990", "date", "1990-06-05"},
		{"April 1990", "date", "April 1990"},
		{"", "date", ""},
	}
	for _, tc := range cases {
		if got := formatDateValue(tc.raw, tc.fieldType); got != tc.want {
			t.Fatalf("formatDateValue(%q, %q) = %q, want %q", tc.raw, tc.fieldType, got, tc.want)
		}
	}
}

func TestRequiresGenerative(t *testing.T) {
	confident := resolution{value: strPtr("x"), confidence: 0.9}

	if !requiresGenerative(Field{Label: "Anything else?", Type: "textarea"}, confident) {
		t.Fatalf("textarea fields always go generative")
	}
	if !requiresGenerative(Field{Label: "Why Acme?", Type: "text"}, confident) {
		t.Fatalf("why-style prompts always go generative")
	}
	if requiresGenerative(Field{Label: "Email", Type: "email"}, confident) {
		t.Fatalf("a confident local value needs no model")
	}
	if !requiresGenerative(Field{Label: "Favorite color", Type: "text", Required: true}, resolution{confidence: 0.35}) {
		t.Fatalf("required fields with weak fallbacks go generative")
	}
	if requiresGenerative(Field{Label: "Middle name", Type: "text"}, resolution{value: strPtr("J"), confidence: 0.8}) {
		t.Fatalf("an optional field at 0.8 stays local")
	}
	if !requiresGenerative(Field{Label: "Custom question", Type: "text"}, resolution{confidence: 0.35}) {
		t.Fatalf("unanswered fields go generative")
	}
}

package fieldmap

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestRecorder() (*Recorder, *MemoryAnswerRepo, *MemorySharedRepo, *MemoryHistoryRepo) {
	answers := NewMemoryAnswerRepo()
	shared := NewMemorySharedRepo()
	history := NewMemoryHistoryRepo()
	rec := &Recorder{Answers: answers, Shared: shared, History: history}
	return rec, answers, shared, history
}

func TestRecordLearnsAndLogs(t *testing.T) {
	rec, answers, shared, history := newTestRecorder()
	ctx := context.Background()

	in := RecordInput{
		UserID:              "u1",
		Domain:              "jobs.acme.com",
		URL:                 "https://jobs.acme.com/apply/123",
		ATSPlatform:         "greenhouse",
		UnfilledProfileKeys: []string{"cover letter"},
		Fields: []FieldFeedback{
			{
				Fingerprint:    "fp-email",
				Label:          "Email",
				SelectorUsed:   "#email",
				SelectorType:   "css",
				SubmittedValue: strPtr("ada@example.com"),
			},
			{
				Fingerprint:    "fp-name",
				Label:          "Name",
				SubmittedValue: strPtr("Ada L"),
				WasEdited:      true,
			},
			{
				Label:          "Notes",
				SubmittedValue: strPtr("hello"),
			},
			{
				Fingerprint: "fp-none",
				Label:       "Cover letter",
			},
		},
	}
	learned, err := rec.Record(ctx, in)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if learned != 2 {
		t.Fatalf("learned = %d, want 2", learned)
	}

	rows, err := answers.ListByFingerprints(ctx, "u1", []string{"fp-email", "fp-name", "fp-none"})
	if err != nil || len(rows) != 2 {
		t.Fatalf("answers = %d (%v), want 2", len(rows), err)
	}
	byFP := map[string]UserFieldAnswer{}
	for _, r := range rows {
		byFP[r.FieldFP] = r
	}
	if a := byFP["fp-email"]; a.Value != "ada@example.com" || a.Source != SourceFormSubmit || a.Confidence != 1.0 {
		t.Fatalf("fp-email answer = %+v", a)
	}
	if a := byFP["fp-name"]; a.Value != "Ada L" || a.Source != SourceUserEdit || a.Confidence != 0.95 {
		t.Fatalf("fp-name answer = %+v", a)
	}

	sels, err := shared.BestSelectors(ctx, []string{"fp-email"}, "greenhouse", 1)
	if err != nil || len(sels) != 1 {
		t.Fatalf("selectors = %d (%v), want 1", len(sels), err)
	}
	if sels[0].Selector != "#email" || sels[0].SelectorType != "css" || sels[0].SuccessCount != 1 {
		t.Fatalf("selector row = %+v", sels[0])
	}

	recs := history.ListByUser("u1")
	if len(recs) != 1 {
		t.Fatalf("history = %d records, want 1", len(recs))
	}
	h := recs[0]
	if h.FieldCount != 4 || h.FilledCount != 3 {
		t.Fatalf("history counts = %d/%d, want 4/3", h.FieldCount, h.FilledCount)
	}
	if len(h.SubmittedFields) != 2 {
		t.Fatalf("submitted fields = %d, want 2", len(h.SubmittedFields))
	}
	if h.ATSPlatform != "greenhouse" {
		t.Fatalf("platform = %q", h.ATSPlatform)
	}
	if !reflect.DeepEqual(h.UnfilledProfileKeys, []string{"cover letter"}) {
		t.Fatalf("unfilled keys = %v", h.UnfilledProfileKeys)
	}

	s, err := shared.GetFormStructure(ctx, "jobs.acme.com")
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if !reflect.DeepEqual(s.FieldFPs, []string{"fp-email", "fp-name", "fp-none"}) {
		t.Fatalf("structure fps = %v", s.FieldFPs)
	}
	if s.FieldCount != 3 || s.SampleCount != 1 || s.Confidence != 0.1 {
		t.Fatalf("structure stats = %+v", s)
	}
	if !s.HasCoverLetter || s.HasResumeUpload {
		t.Fatalf("structure flags = cover %v resume %v", s.HasCoverLetter, s.HasResumeUpload)
	}
	if s.IsMultiStep || s.StepCount != 1 {
		t.Fatalf("structure steps = %v/%d", s.IsMultiStep, s.StepCount)
	}
	if s.URLPattern != in.URL || s.ATSPlatform != "greenhouse" {
		t.Fatalf("structure meta = %q %q", s.URLPattern, s.ATSPlatform)
	}
}

func TestRecordUnionsStructureOnRepeat(t *testing.T) {
	rec, _, shared, _ := newTestRecorder()
	ctx := context.Background()

	first := RecordInput{
		UserID:      "u1",
		Domain:      "jobs.acme.com",
		ATSPlatform: "lever",
		Fields: []FieldFeedback{
			{Fingerprint: "fp-a", SubmittedValue: strPtr("x")},
			{Fingerprint: "fp-b", SubmittedValue: strPtr("y")},
		},
	}
	if _, err := rec.Record(ctx, first); err != nil {
		t.Fatalf("first record: %v", err)
	}

	second := RecordInput{
		UserID:      "u2",
		Domain:      "jobs.acme.com",
		ATSPlatform: "lever",
		IsMultiStep: true,
		StepCount:   3,
		Fields: []FieldFeedback{
			{Fingerprint: "fp-b", SubmittedValue: strPtr("y")},
			{Fingerprint: "fp-c", SubmittedValue: strPtr("z")},
		},
	}
	if _, err := rec.Record(ctx, second); err != nil {
		t.Fatalf("second record: %v", err)
	}

	s, err := shared.GetFormStructure(ctx, "jobs.acme.com")
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if !reflect.DeepEqual(s.FieldFPs, []string{"fp-a", "fp-b", "fp-c"}) {
		t.Fatalf("fps = %v, want the union", s.FieldFPs)
	}
	if s.FieldCount != 3 || s.SampleCount != 2 || s.Confidence != 0.2 {
		t.Fatalf("stats = %+v", s)
	}
	if !s.IsMultiStep || s.StepCount != 3 {
		t.Fatalf("steps = %v/%d, flags only strengthen", s.IsMultiStep, s.StepCount)
	}
}

func TestRecordRequiresUser(t *testing.T) {
	rec, _, _, _ := newTestRecorder()
	if _, err := rec.Record(context.Background(), RecordInput{Domain: "x.com"}); err == nil {
		t.Fatalf("expected an error for a missing user")
	}
}

func TestRecordSelectorSkippedWithoutPlatform(t *testing.T) {
	rec, _, shared, _ := newTestRecorder()
	ctx := context.Background()

	in := RecordInput{
		UserID: "u1",
		Fields: []FieldFeedback{
			{Fingerprint: "fp-a", SelectorUsed: "#x", SubmittedValue: strPtr("v")},
		},
	}
	if _, err := rec.Record(ctx, in); err != nil {
		t.Fatalf("record: %v", err)
	}
	sels, err := shared.BestSelectors(ctx, []string{"fp-a"}, "unknown", 0)
	if err != nil {
		t.Fatalf("selectors: %v", err)
	}
	if len(sels) != 0 {
		t.Fatalf("selectors = %d, a row without a platform is meaningless", len(sels))
	}
	if _, err := shared.GetFormStructure(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("structure err = %v, want ErrNotFound for an empty domain", err)
	}
}

func TestRecordStoresBlankEditedValue(t *testing.T) {
	rec, answers, _, history := newTestRecorder()
	ctx := context.Background()

	in := RecordInput{
		UserID: "u1",
		Domain: "jobs.acme.com",
		Fields: []FieldFeedback{
			{Fingerprint: "fp-a", Label: "Middle name", SubmittedValue: strPtr(""), WasEdited: true},
		},
	}
	learned, err := rec.Record(ctx, in)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if learned != 1 {
		t.Fatalf("learned = %d, clearing a field is feedback too", learned)
	}

	rows, err := answers.ListByFingerprints(ctx, "u1", []string{"fp-a"})
	if err != nil || len(rows) != 1 {
		t.Fatalf("answers = %d (%v)", len(rows), err)
	}
	if rows[0].Value != "" || rows[0].Source != SourceUserEdit {
		t.Fatalf("answer = %+v", rows[0])
	}

	recs := history.ListByUser("u1")
	if len(recs) != 1 || recs[0].FilledCount != 0 {
		t.Fatalf("history = %+v, a blank value is not a filled field", recs)
	}
}

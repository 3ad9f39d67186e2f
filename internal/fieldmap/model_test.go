package fieldmap

import "testing"

func TestFieldFingerprintLabelFallback(t *testing.T) {
	want := Field{Label: "Email Address", Type: "email"}.Fingerprint()
	if want != "63f7d866455be7051296c8481faf4f52" {
		t.Fatalf("labeled fingerprint = %s", want)
	}

	fromPlaceholder := Field{Placeholder: "Email Address", Type: "email"}.Fingerprint()
	if fromPlaceholder != want {
		t.Fatalf("placeholder fallback = %s, want %s", fromPlaceholder, want)
	}

	fromName := Field{Name: "Email Address", Type: "email"}.Fingerprint()
	if fromName != want {
		t.Fatalf("name fallback = %s, want %s", fromName, want)
	}

	// Placeholder outranks name when both are present.
	mixed := Field{Placeholder: "Email Address", Name: "contact_email", Type: "email"}.Fingerprint()
	if mixed != want {
		t.Fatalf("mixed fallback = %s, want %s", mixed, want)
	}
}

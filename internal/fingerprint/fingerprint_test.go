package fingerprint

import "testing"

// Fixtures generated by the extension-side implementation. A mismatch here
// means the wire contract drifted, not that the expected values are wrong.
func TestComputeParity(t *testing.T) {
	cases := []struct {
		name    string
		label   string
		ftype   string
		options []string
		want    string
	}{
		{"email", "Email Address", "email", nil, "63f7d866455be7051296c8481faf4f52"},
		{"first name", "First Name", "text", nil, "45f4978ac1745bb1bce038713de057bc"},
		{"phone", "Phone Number", "tel", nil, "1145787cf3ecf62a67931f1decd07d5e"},
		{"select with options", "Current Location", "select", []string{"United States", "Canada", "United Kingdom"}, "daf5f70ca031659f3e64d79137d37d54"},
		{"empty label", "", "text", nil, "52b667b6a7a77b51c85dec1555777c81"},
		{"radio yes no", "Are you authorized to work?", "radio", []string{"Yes", "No"}, "4fa890e6879685bf12ac16f22e019fd0"},
	}
	for _, tc := range cases {
		got := Compute(tc.label, tc.ftype, tc.options)
		if got != tc.want {
			t.Fatalf("%s: fingerprint = %s, want %s", tc.name, got, tc.want)
		}
		if len(got) != Length {
			t.Fatalf("%s: fingerprint length = %d, want %d", tc.name, len(got), Length)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	a := Compute("Email Address", "email", nil)
	b := Compute("Email Address", "email", nil)
	if a != b {
		t.Fatalf("same input produced %s and %s", a, b)
	}
}

func TestComputeCaseAndPunctuationInsensitive(t *testing.T) {
	a := Compute("Email Address", "email", nil)
	b := Compute("  EMAIL ADDRESS:  ", "email", nil)
	if a != b {
		t.Fatalf("case/punctuation variants diverged: %s vs %s", a, b)
	}
	if a == Compute("Work Email", "email", nil) {
		t.Fatal("semantically different labels collided")
	}
}

func TestComputeOptionOrderInvariant(t *testing.T) {
	a := Compute("Country", "select", []string{"USA", "Canada"})
	b := Compute("Country", "select", []string{"Canada", "USA"})
	if a != b {
		t.Fatalf("option order changed the fingerprint: %s vs %s", a, b)
	}
	if a == Compute("Country", "select", []string{"USA"}) {
		t.Fatal("dropping an option did not change the fingerprint")
	}
}

func TestComputeTypeSensitive(t *testing.T) {
	if Compute("Location", "text", nil) == Compute("Location", "select", nil) {
		t.Fatal("type change did not change the fingerprint")
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"First Name":           "first name",
		"  Phone   (mobile)  ": "phone mobile",
		"E-mail*":              "e mail",
		"":                     "",
		"###":                  "",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

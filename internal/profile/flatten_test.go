package profile

import (
	"strings"
	"testing"
)

func fullProfile() Profile {
	return Profile{
		FirstName:            "Ada",
		LastName:             "Lovelace",
		Email:                "ada@x.com",
		Phone:                "+1 555 0100",
		City:                 "London",
		Country:              "United Kingdom",
		ProfessionalHeadline: "Software Engineer",
		ProfessionalSummary:  "Engineer with 3 years of backend experience.",
		Experiences: []Experience{
			{JobTitle: "Engineer", CompanyName: "Analytical Engines", StartDate: "2021-01", EndDate: "2024-01", Description: "Built compute pipelines."},
			{JobTitle: "Intern", CompanyName: "Babbage & Co", StartDate: "2020-06", EndDate: "2020-12"},
		},
		Educations: []Education{
			{Degree: "BSc", FieldOfStudy: "Mathematics", Institution: "University of London", StartYear: "2016", EndYear: "2020"},
		},
		TechSkills: []Skill{{Name: "Go"}, {Name: "SQL"}},
		SoftSkills: []Skill{{Name: "Communication"}},
		Preferences: &Preferences{
			OpenToRemote:        true,
			WillingToRelocate:   false,
			ExpectedSalaryRange: "90000-110000",
		},
		Links: &Links{
			LinkedInURL: "https://linkedin.com/in/ada",
			GithubURL:   "https://github.com/ada",
		},
	}
}

func TestFlattenFullProfile(t *testing.T) {
	flat := Flatten(fullProfile())

	want := map[string]string{
		"firstName":         "Ada",
		"lastName":          "Lovelace",
		"name":              "Ada Lovelace",
		"email":             "ada@x.com",
		"location":          "London, United Kingdom",
		"title":             "Software Engineer",
		"linkedin":          "https://linkedin.com/in/ada",
		"github":            "https://github.com/ada",
		"company":           "Analytical Engines",
		"expectedSalary":    "90000-110000",
		"openToRemote":      "Yes",
		"willingToRelocate": "No",
		"skills":            "Go, SQL, Communication",
	}
	for key, val := range want {
		if flat[key] != val {
			t.Fatalf("flat[%q] = %q, want %q", key, flat[key], val)
		}
	}
	if !strings.Contains(flat["experience"], "Engineer at Analytical Engines (2021-01-2024-01)") {
		t.Fatalf("experience missing first role: %q", flat["experience"])
	}
	if !strings.Contains(flat["education"], "BSc in Mathematics, University of London (2016-2020)") {
		t.Fatalf("education line wrong: %q", flat["education"])
	}
}

func TestFlattenOmitsEmptyKeys(t *testing.T) {
	flat := Flatten(Profile{FirstName: "Ada"})

	if flat["firstName"] != "Ada" || flat["name"] != "Ada" {
		t.Fatalf("name keys wrong: %v", flat)
	}
	for _, key := range []string{"email", "phone", "linkedin", "portfolio", "location", "education", "skills", "company"} {
		if _, ok := flat[key]; ok {
			t.Fatalf("expected %q to be omitted, got %q", key, flat[key])
		}
	}
}

func TestFlattenIsPure(t *testing.T) {
	p := fullProfile()
	a := Flatten(p)
	b := Flatten(p)
	if len(a) != len(b) {
		t.Fatalf("repeated flatten diverged: %d vs %d keys", len(a), len(b))
	}
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("repeated flatten diverged at %q: %q vs %q", k, v, b[k])
		}
	}
}

func TestFlattenExperienceFallsBackToSummary(t *testing.T) {
	flat := Flatten(Profile{ProfessionalSummary: "Backend engineer."})
	if flat["experience"] != "Backend engineer." {
		t.Fatalf("experience = %q, want summary fallback", flat["experience"])
	}
}

func TestResumeTextMentionsCoreFacts(t *testing.T) {
	text := ResumeText(fullProfile())
	for _, want := range []string{"Ada Lovelace", "ada@x.com", "Analytical Engines", "University of London", "Go"} {
		if !strings.Contains(text, want) {
			t.Fatalf("resume text missing %q:\n%s", want, text)
		}
	}
}

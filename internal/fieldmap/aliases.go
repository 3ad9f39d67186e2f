package fieldmap

import "strings"

// aliasTable maps profile attributes to the normalized label phrases that ask
// for them. Ordered: more specific attributes come before the greedy ones
// ("first name" must land before the bare "name" alias), so table order is
// part of the behavior.
var aliasTable = []struct {
	key     string
	aliases []string
}{
	{"firstName", []string{"first name", "given name", "fname"}},
	{"lastName", []string{"last name", "family name", "surname", "lname"}},
	{"name", []string{"full name", "candidate name", "your name", "name"}},
	{"email", []string{"email", "e mail"}},
	{"phone", []string{"phone", "mobile", "cell", "telephone", "contact number"}},
	{"linkedin", []string{"linkedin"}},
	{"github", []string{"github"}},
	{"portfolio", []string{"portfolio", "website", "personal site"}},
	{"location", []string{"current location", "location", "city"}},
	{"company", []string{"current company", "company"}},
	{"title", []string{"job title", "title", "position"}},
	{"skills", []string{"skills", "technical skills", "technologies"}},
	{"experience", []string{"experience", "work experience", "employment"}},
	{"education", []string{"education", "degree", "university", "college", "school"}},
	{"workAuthorization", []string{"authorized to work", "work authorization"}},
	{"requiresSponsorship", []string{"sponsorship", "visa"}},
	{"expectedSalary", []string{"salary expectation", "expected salary", "salary", "compensation"}},
	{"startDate", []string{"start date", "when can you start", "notice period"}},
	{"dateOfBirth", []string{"date of birth", "dob", "birth date", "birthday"}},
	{"gender", []string{"gender", "sex"}},
}

// Attribute names the crowd store or the model may report that differ from
// the flat profile key that actually holds the value.
var profileKeyToFlat = map[string]string{
	"salaryExpectation": "expectedSalary",
	"fullName":          "name",
	"currentCompany":    "company",
	"jobTitle":          "title",
	"linkedinUrl":       "linkedin",
	"githubUrl":         "github",
	"portfolioUrl":      "portfolio",
}

// flatProfileKey translates an attribute name into the key used by the flat
// profile view. Unknown names pass through unchanged.
func flatProfileKey(key string) string {
	if mapped, ok := profileKeyToFlat[key]; ok {
		return mapped
	}
	return key
}

// profileValue resolves an attribute name against the flat profile, applying
// the key translation. Returns "" when the attribute is absent or blank.
// Wire-supplied profiles are not trimmed upstream.
func profileValue(flat map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(flat[flatProfileKey(key)])
}

package profile

import (
	"fmt"
	"strings"
)

// Flatten converts the profile document into the flat key->value view the
// mapping cascade and the extension consume. Pure function of its input;
// keys with no data are omitted so callers can treat presence as "has a
// value". Booleans render as Yes/No to line up with yes/no form fields.
func Flatten(p Profile) map[string]string {
	flat := make(map[string]string, 24)
	put := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			flat[key] = v
		}
	}

	put("firstName", p.FirstName)
	put("lastName", p.LastName)
	put("name", strings.TrimSpace(p.FirstName+" "+p.LastName))
	put("email", p.Email)
	put("phone", p.Phone)
	put("city", p.City)
	put("country", p.Country)
	put("location", joinNonEmpty(", ", p.City, p.Country))
	put("title", p.ProfessionalHeadline)
	put("professionalHeadline", p.ProfessionalHeadline)
	put("professionalSummary", p.ProfessionalSummary)

	if p.Links != nil {
		put("linkedin", p.Links.LinkedInURL)
		put("github", p.Links.GithubURL)
		put("portfolio", p.Links.PortfolioURL)
	}
	if p.Preferences != nil {
		put("expectedSalary", p.Preferences.ExpectedSalaryRange)
		put("willingToRelocate", yesNo(p.Preferences.WillingToRelocate))
		put("openToRemote", yesNo(p.Preferences.OpenToRemote))
	}

	var expParts []string
	for _, e := range p.Experiences {
		expParts = append(expParts, fmt.Sprintf("%s at %s (%s-%s): %s",
			e.JobTitle, e.CompanyName, e.StartDate, e.EndDate, e.Description))
	}
	if len(expParts) > 0 {
		put("experience", strings.Join(expParts, "\n"))
		put("company", p.Experiences[0].CompanyName)
	} else {
		put("experience", p.ProfessionalSummary)
	}

	var eduParts []string
	for _, e := range p.Educations {
		eduParts = append(eduParts, fmt.Sprintf("%s in %s, %s (%s-%s)",
			e.Degree, e.FieldOfStudy, e.Institution, e.StartYear, e.EndYear))
	}
	put("education", strings.Join(eduParts, "\n"))

	var skills []string
	for _, s := range p.TechSkills {
		skills = append(skills, s.Name)
	}
	for _, s := range p.SoftSkills {
		skills = append(skills, s.Name)
	}
	put("skills", strings.Join(skills, ", "))

	return flat
}

// ResumeText renders a plain-text resume from the profile, used as the
// generative fallback's grounding excerpt when no uploaded resume text is
// available.
func ResumeText(p Profile) string {
	var parts []string
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		parts = append(parts, name)
	}
	if p.ProfessionalHeadline != "" {
		parts = append(parts, p.ProfessionalHeadline)
	}
	if p.ProfessionalSummary != "" {
		parts = append(parts, "Professional Summary: "+p.ProfessionalSummary)
	}
	if contact := joinNonEmpty(" | ", p.Email, p.Phone); contact != "" {
		parts = append(parts, contact)
	}
	flat := Flatten(p)
	if flat["skills"] != "" {
		parts = append(parts, "Skills: "+flat["skills"])
	}
	for _, e := range p.Experiences {
		parts = append(parts, fmt.Sprintf("\n%s | %s-%s", e.CompanyName, e.StartDate, e.EndDate), e.JobTitle)
		if e.Description != "" {
			parts = append(parts, e.Description)
		}
	}
	for _, e := range p.Educations {
		parts = append(parts, fmt.Sprintf("\n%s | %s", e.Institution, e.Degree), joinNonEmpty("-", e.StartYear, e.EndYear))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func joinNonEmpty(sep string, parts ...string) string {
	var keep []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, sep)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

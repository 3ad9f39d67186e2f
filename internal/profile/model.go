package profile

import "time"

// Profile is the canonical candidate profile document. Field names follow
// the extension wire format; the document is stored as one JSONB blob per
// user and flattened on read for the mapping cascade.
type Profile struct {
	ResumeURL            string       `json:"resumeUrl,omitempty"`
	FirstName            string       `json:"firstName,omitempty"`
	LastName             string       `json:"lastName,omitempty"`
	Email                string       `json:"email,omitempty"`
	Phone                string       `json:"phone,omitempty"`
	City                 string       `json:"city,omitempty"`
	Country              string       `json:"country,omitempty"`
	WillingToWorkIn      []string     `json:"willingToWorkIn,omitempty"`
	ProfessionalHeadline string       `json:"professionalHeadline,omitempty"`
	ProfessionalSummary  string       `json:"professionalSummary,omitempty"`
	Experiences          []Experience `json:"experiences,omitempty"`
	Educations           []Education  `json:"educations,omitempty"`
	TechSkills           []Skill      `json:"techSkills,omitempty"`
	SoftSkills           []Skill      `json:"softSkills,omitempty"`
	Projects             []Project    `json:"projects,omitempty"`
	Preferences          *Preferences `json:"preferences,omitempty"`
	Links                *Links       `json:"links,omitempty"`
}

type Experience struct {
	JobTitle       string   `json:"jobTitle,omitempty"`
	CompanyName    string   `json:"companyName,omitempty"`
	EmploymentType string   `json:"employmentType,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	Location       string   `json:"location,omitempty"`
	WorkMode       string   `json:"workMode,omitempty"`
	Description    string   `json:"description,omitempty"`
	TechStack      []string `json:"techStack,omitempty"`
}

type Education struct {
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	Institution  string `json:"institution,omitempty"`
	StartYear    string `json:"startYear,omitempty"`
	EndYear      string `json:"endYear,omitempty"`
	Grade        string `json:"grade,omitempty"`
	Location     string `json:"location,omitempty"`
}

type Skill struct {
	Name  string  `json:"name"`
	Level string  `json:"level,omitempty"`
	Years float64 `json:"years,omitempty"`
}

type Project struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"techStack,omitempty"`
	URL         string   `json:"url,omitempty"`
}

type Preferences struct {
	DesiredRoles        []string `json:"desiredRoles,omitempty"`
	EmploymentType      []string `json:"employmentType,omitempty"`
	ExperienceLevel     string   `json:"experienceLevel,omitempty"`
	OpenToRemote        bool     `json:"openToRemote,omitempty"`
	WillingToRelocate   bool     `json:"willingToRelocate,omitempty"`
	PreferredLocations  []string `json:"preferredLocations,omitempty"`
	ExpectedSalaryRange string   `json:"expectedSalaryRange,omitempty"`
}

type Links struct {
	LinkedInURL  string      `json:"linkedInUrl,omitempty"`
	GithubURL    string      `json:"githubUrl,omitempty"`
	PortfolioURL string      `json:"portfolioUrl,omitempty"`
	OtherLinks   []OtherLink `json:"otherLinks,omitempty"`
}

type OtherLink struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Stored pairs the document with its persistence metadata.
type Stored struct {
	UserID    string
	Document  Profile
	UpdatedAt time.Time
}

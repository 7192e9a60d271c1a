package model

import "time"

// Skill is a single technology with a self-assessed level from 0 to 100.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project is a portfolio entry. DemoURL and GitHubURL are optional and are
// stored as empty strings when absent.
type Project struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tags        StringList `json:"tags"`
	Image       string     `json:"image"`
	DemoURL     string     `json:"demoUrl,omitempty"`
	GitHubURL   string     `json:"githubUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Experience is a position held. A nil EndDate means the position is current.
// Dates are kept as the "YYYY-MM" or "YYYY-MM-DD" strings the admin entered.
type Experience struct {
	ID           string     `json:"id"`
	Company      string     `json:"company"`
	JobTitle     string     `json:"jobTitle"`
	Description  string     `json:"description"`
	StartDate    string     `json:"startDate"`
	EndDate      *string    `json:"endDate"`
	Technologies StringList `json:"technologies"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Current reports whether this is an ongoing position.
func (e *Experience) Current() bool {
	return e.EndDate == nil || *e.EndDate == ""
}

// Social is a link to an external profile. Icon holds raw SVG markup that
// the front end inlines.
type Social struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

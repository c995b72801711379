package model

import "time"

// Registration is one citizen's consent and contact submission.
type Registration struct {
	ID                   int64     `json:"id"`
	Consent              bool      `json:"consent"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	Email                string    `json:"email"`
	Telephone            string    `json:"telephone"`
	Cell                 string    `json:"cell"`
	CommunicationMethods []string  `json:"communication_methods"`
	InterviewMethods     []string  `json:"interview_methods"`
	Island               string    `json:"island"`
	Settlement           string    `json:"settlement"`
	StreetAddress        string    `json:"street_address"`
	AvailableDays        []string  `json:"available_days"`
	AvailableTimes       []string  `json:"available_times"`
	Latitude             *float64  `json:"latitude"`
	Longitude            *float64  `json:"longitude"`
	Confirmed            bool      `json:"confirmed"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (r Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}

// HasLocation reports whether both coordinates were saved.
func (r Registration) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// RegistrationInput carries the fields written by the registration step.
type RegistrationInput struct {
	FirstName            string
	LastName             string
	Email                string
	Telephone            string
	Cell                 string
	CommunicationMethods []string
	InterviewMethods     []string
	Island               string
	Settlement           string
	StreetAddress        string
}

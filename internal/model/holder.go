package model

import "time"

// Holder is an agricultural holding and the person who owns it.
type Holder struct {
	ID              int64     `json:"id"`
	OwnerID         int64     `json:"owner_id"`
	Name            string    `json:"name"`
	FarmID          string    `json:"farm_id"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	Status          string    `json:"status"`
	AssignedAgentID *int64    `json:"assigned_agent_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (h Holder) HasLocation() bool {
	return h.Latitude != nil && h.Longitude != nil
}

// HolderDetail describes one of up to three persons operating a holding.
type HolderDetail struct {
	ID                     int64     `json:"id"`
	HolderID               int64     `json:"holder_id"`
	HolderNumber           int       `json:"holder_number"`
	FullName               string    `json:"full_name"`
	Sex                    string    `json:"sex"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	Nationality            string    `json:"nationality"`
	NationalityOther       string    `json:"nationality_other"`
	MaritalStatus          string    `json:"marital_status"`
	HighestEducation       string    `json:"highest_education"`
	AgriTraining           string    `json:"agri_training"`
	PrimaryOccupation      string    `json:"primary_occupation"`
	PrimaryOccupationOther string    `json:"primary_occupation_other"`
	SecondaryOccupation    string    `json:"secondary_occupation"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Age returns the completed years between the date of birth and now.
func (d HolderDetail) Age(now time.Time) int {
	return AgeAt(d.DateOfBirth, now)
}

// AgeAt returns completed years from dob to now.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// SectionProgress is one row of holder_survey_progress.
type SectionProgress struct {
	HolderID  int64     `json:"holder_id"`
	SectionID int       `json:"section_id"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneralInformation is the holding profile collected before the survey sections.
type GeneralInformation struct {
	ID            int64     `json:"id"`
	HolderID      int64     `json:"holder_id"`
	HoldingID     string    `json:"holding_id"`
	InterviewDate time.Time `json:"interview_date"`
	Respondent    string    `json:"respondent"`
	Island        string    `json:"island"`
	Settlement    string    `json:"settlement"`
	StreetAddress string    `json:"street_address"`
	POBox         string    `json:"po_box"`
	LegalStatus   string    `json:"legal_status"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package model

import "time"

type HouseholdSummary struct {
	HolderID         int64     `json:"holder_id"`
	TotalPersons     int       `json:"total_persons"`
	Under14Male      int       `json:"under_14_male"`
	Under14Female    int       `json:"under_14_female"`
	Aged14OverMale   int       `json:"aged_14_over_male"`
	Aged14OverFemale int       `json:"aged_14_over_female"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AgeGroupTotal sums the four age/sex counts.
func (s HouseholdSummary) AgeGroupTotal() int {
	return s.Under14Male + s.Under14Female + s.Aged14OverMale + s.Aged14OverFemale
}

// HouseholdMember is one person living in the holder's household.
type HouseholdMember struct {
	ID                  int64     `json:"id"`
	HolderID            int64     `json:"holder_id"`
	Relationship        int       `json:"relationship"`
	Sex                 string    `json:"sex"`
	Age                 int       `json:"age"`
	Education           int       `json:"education"`
	PrimaryOccupation   int       `json:"primary_occupation"`
	SecondaryOccupation *int      `json:"secondary_occupation"`
	WorkingTime         string    `json:"working_time"`
	CreatedAt           time.Time `json:"created_at"`
}

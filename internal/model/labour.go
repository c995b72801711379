package model

import "time"

// LabourResponse answers one holding labour question. Count questions fill
// the male/female/total fields; option questions fill OptionResponse.
type LabourResponse struct {
	HolderID       int64     `json:"holder_id"`
	QuestionNo     int       `json:"question_no"`
	QuestionText   string    `json:"question_text"`
	Male           *int      `json:"male_count"`
	Female         *int      `json:"female_count"`
	Total          *int      `json:"total_count"`
	OptionResponse *string   `json:"option_response"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PermanentWorker is one coded permanent worker row.
type PermanentWorker struct {
	ID             int64  `json:"id"`
	HolderID       int64  `json:"holder_id"`
	PositionTitle  int    `json:"position_title"`
	Sex            string `json:"sex"`
	AgeGroup       int    `json:"age_group"`
	Nationality    string `json:"nationality"`
	EducationLevel int    `json:"education_level"`
	AgriTraining   string `json:"agri_training"`
	MainDuties     int    `json:"main_duties"`
	WorkingTime    string `json:"working_time"`
}

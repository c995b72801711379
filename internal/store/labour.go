package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/nacp/internal/model"
)

type LabourStore struct {
	db *sql.DB
}

func NewLabourStore(db *sql.DB) *LabourStore {
	return &LabourStore{db: db}
}

// SaveResponses upserts each answer on (holder_id, question_no).
func (s *LabourStore) SaveResponses(holderID int64, responses []model.LabourResponse) ([]model.LabourResponse, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range responses {
		_, err := tx.Exec(
			`INSERT INTO holding_labour (holder_id, question_no, question_text, male_count, female_count,
				total_count, option_response)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (holder_id, question_no) DO UPDATE SET
				question_text = excluded.question_text, male_count = excluded.male_count,
				female_count = excluded.female_count, total_count = excluded.total_count,
				option_response = excluded.option_response, updated_at = CURRENT_TIMESTAMP`,
			holderID, r.QuestionNo, r.QuestionText, nullInt(r.Male), nullInt(r.Female), nullInt(r.Total), nullString(r.OptionResponse),
		)
		if err != nil {
			return nil, fmt.Errorf("upsert labour question %d: %w", r.QuestionNo, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListResponses(holderID)
}

func (s *LabourStore) ListResponses(holderID int64) ([]model.LabourResponse, error) {
	rows, err := s.db.Query(
		`SELECT holder_id, question_no, question_text, male_count, female_count, total_count,
			option_response, updated_at
		 FROM holding_labour WHERE holder_id = ? ORDER BY question_no`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list labour responses: %w", err)
	}
	defer rows.Close()

	var out []model.LabourResponse
	for rows.Next() {
		var r model.LabourResponse
		var male, female, total sql.NullInt64
		var option sql.NullString
		if err := rows.Scan(&r.HolderID, &r.QuestionNo, &r.QuestionText, &male, &female, &total, &option, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan labour response: %w", err)
		}
		r.Male = intPtr(male)
		r.Female = intPtr(female)
		r.Total = intPtr(total)
		if option.Valid {
			r.OptionResponse = &option.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplacePermanentWorkers swaps the holder's permanent worker rows for workers.
func (s *LabourStore) ReplacePermanentWorkers(holderID int64, workers []model.PermanentWorker) ([]model.PermanentWorker, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM holding_labour_permanent WHERE holder_id = ?`, holderID); err != nil {
		return nil, fmt.Errorf("clear permanent workers: %w", err)
	}
	for _, w := range workers {
		_, err := tx.Exec(
			`INSERT INTO holding_labour_permanent (holder_id, position_title, sex, age_group, nationality,
				education_level, agri_training, main_duties, working_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			holderID, w.PositionTitle, w.Sex, w.AgeGroup, w.Nationality,
			w.EducationLevel, w.AgriTraining, w.MainDuties, w.WorkingTime,
		)
		if err != nil {
			return nil, fmt.Errorf("insert permanent worker: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListPermanentWorkers(holderID)
}

func (s *LabourStore) ListPermanentWorkers(holderID int64) ([]model.PermanentWorker, error) {
	rows, err := s.db.Query(
		`SELECT id, holder_id, position_title, sex, age_group, nationality, education_level,
			agri_training, main_duties, working_time
		 FROM holding_labour_permanent WHERE holder_id = ? ORDER BY id`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list permanent workers: %w", err)
	}
	defer rows.Close()

	var out []model.PermanentWorker
	for rows.Next() {
		var w model.PermanentWorker
		err := rows.Scan(&w.ID, &w.HolderID, &w.PositionTitle, &w.Sex, &w.AgeGroup, &w.Nationality,
			&w.EducationLevel, &w.AgriTraining, &w.MainDuties, &w.WorkingTime)
		if err != nil {
			return nil, fmt.Errorf("scan permanent worker: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

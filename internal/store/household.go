package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/nacp/internal/model"
)

// ErrHouseholdFull is returned when adding members would exceed the household total.
var ErrHouseholdFull = errors.New("household member limit reached")

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func (s *HouseholdStore) SaveSummary(sum model.HouseholdSummary) (*model.HouseholdSummary, error) {
	_, err := s.db.Exec(
		`INSERT INTO household_summary (holder_id, total_persons, under_14_male, under_14_female,
			aged_14_over_male, aged_14_over_female)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (holder_id) DO UPDATE SET
			total_persons = excluded.total_persons, under_14_male = excluded.under_14_male,
			under_14_female = excluded.under_14_female, aged_14_over_male = excluded.aged_14_over_male,
			aged_14_over_female = excluded.aged_14_over_female, updated_at = CURRENT_TIMESTAMP`,
		sum.HolderID, sum.TotalPersons, sum.Under14Male, sum.Under14Female, sum.Aged14OverMale, sum.Aged14OverFemale,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert household summary: %w", err)
	}
	return s.GetSummary(sum.HolderID)
}

func (s *HouseholdStore) GetSummary(holderID int64) (*model.HouseholdSummary, error) {
	var sum model.HouseholdSummary
	err := s.db.QueryRow(
		`SELECT holder_id, total_persons, under_14_male, under_14_female, aged_14_over_male,
			aged_14_over_female, updated_at
		 FROM household_summary WHERE holder_id = ?`,
		holderID,
	).Scan(&sum.HolderID, &sum.TotalPersons, &sum.Under14Male, &sum.Under14Female,
		&sum.Aged14OverMale, &sum.Aged14OverFemale, &sum.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household summary: %w", err)
	}
	return &sum, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	var secondary sql.NullInt64
	err := scanner.Scan(
		&m.ID, &m.HolderID, &m.Relationship, &m.Sex, &m.Age, &m.Education,
		&m.PrimaryOccupation, &secondary, &m.WorkingTime, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if secondary.Valid {
		v := int(secondary.Int64)
		m.SecondaryOccupation = &v
	}
	return &m, nil
}

const memberCols = `id, holder_id, relationship, sex, age, education, primary_occupation,
	secondary_occupation, working_time, created_at`

// AddMembers inserts members as long as the stored total is not exceeded.
// It returns ErrHouseholdFull when there is no summary or not enough room.
func (s *HouseholdStore) AddMembers(holderID int64, members []model.HouseholdMember) ([]model.HouseholdMember, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var total, existing int
	err = tx.QueryRow(`SELECT total_persons FROM household_summary WHERE holder_id = ?`, holderID).Scan(&total)
	if err == sql.ErrNoRows {
		return nil, ErrHouseholdFull
	}
	if err != nil {
		return nil, fmt.Errorf("get household total: %w", err)
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM household_members WHERE holder_id = ?`, holderID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("count household members: %w", err)
	}
	if existing+len(members) > total {
		return nil, ErrHouseholdFull
	}

	for _, m := range members {
		var secondary sql.NullInt64
		if m.SecondaryOccupation != nil {
			secondary = sql.NullInt64{Int64: int64(*m.SecondaryOccupation), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO household_members (holder_id, relationship, sex, age, education,
				primary_occupation, secondary_occupation, working_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			holderID, m.Relationship, m.Sex, m.Age, m.Education, m.PrimaryOccupation, secondary, m.WorkingTime,
		)
		if err != nil {
			return nil, fmt.Errorf("insert household member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListMembers(holderID)
}

func (s *HouseholdStore) ListMembers(holderID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(`SELECT `+memberCols+` FROM household_members WHERE holder_id = ? ORDER BY id`, holderID)
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) DeleteMember(holderID, id int64) error {
	_, err := s.db.Exec(`DELETE FROM household_members WHERE id = ? AND holder_id = ?`, id, holderID)
	if err != nil {
		return fmt.Errorf("delete household member: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/nacp/internal/model"
)

const dateLayout = "2006-01-02"

type HolderStore struct {
	db *sql.DB
}

func NewHolderStore(db *sql.DB) *HolderStore {
	return &HolderStore{db: db}
}

func scanHolder(scanner interface{ Scan(...any) error }) (*model.Holder, error) {
	var h model.Holder
	var lat, lon sql.NullFloat64
	var agentID sql.NullInt64

	err := scanner.Scan(
		&h.ID, &h.OwnerID, &h.Name, &h.FarmID, &lat, &lon,
		&h.Status, &agentID, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		h.Latitude = &lat.Float64
	}
	if lon.Valid {
		h.Longitude = &lon.Float64
	}
	if agentID.Valid {
		h.AssignedAgentID = &agentID.Int64
	}
	return &h, nil
}

const holderCols = `id, owner_id, name, farm_id, latitude, longitude, status, assigned_agent_id, created_at, updated_at`

// Create inserts a holder for ownerID, or returns the existing one.
func (s *HolderStore) Create(ownerID int64, name string) (*model.Holder, error) {
	_, err := s.db.Exec(
		`INSERT INTO holders (owner_id, name) VALUES (?, ?) ON CONFLICT (owner_id) DO NOTHING`,
		ownerID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert holder: %w", err)
	}
	return s.GetByOwner(ownerID)
}

func (s *HolderStore) GetByID(id int64) (*model.Holder, error) {
	row := s.db.QueryRow(`SELECT `+holderCols+` FROM holders WHERE id = ?`, id)
	h, err := scanHolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get holder: %w", err)
	}
	return h, nil
}

func (s *HolderStore) GetByOwner(ownerID int64) (*model.Holder, error) {
	row := s.db.QueryRow(`SELECT `+holderCols+` FROM holders WHERE owner_id = ?`, ownerID)
	h, err := scanHolder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get holder by owner: %w", err)
	}
	return h, nil
}

func (s *HolderStore) list(where string, args ...any) ([]model.Holder, error) {
	rows, err := s.db.Query(`SELECT `+holderCols+` FROM holders`+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list holders: %w", err)
	}
	defer rows.Close()

	var holders []model.Holder
	for rows.Next() {
		h, err := scanHolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		holders = append(holders, *h)
	}
	return holders, rows.Err()
}

func (s *HolderStore) List() ([]model.Holder, error) {
	return s.list("")
}

// ListByAgent returns the holders assigned to an agent.
func (s *HolderStore) ListByAgent(agentID int64) ([]model.Holder, error) {
	return s.list(` WHERE assigned_agent_id = ?`, agentID)
}

func (s *HolderStore) SetLocation(id int64, lat, lon float64) (*model.Holder, error) {
	_, err := s.db.Exec(
		`UPDATE holders SET latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		lat, lon, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update holder location: %w", err)
	}
	return s.GetByID(id)
}

// AssignAgent links a holder to an agent. A nil agentID clears the assignment.
func (s *HolderStore) AssignAgent(id int64, agentID *int64) (*model.Holder, error) {
	_, err := s.db.Exec(
		`UPDATE holders SET assigned_agent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullInt64(agentID), id,
	)
	if err != nil {
		return nil, fmt.Errorf("assign agent: %w", err)
	}
	return s.GetByID(id)
}

func scanHolderDetail(scanner interface{ Scan(...any) error }) (*model.HolderDetail, error) {
	var d model.HolderDetail
	var dob string
	err := scanner.Scan(
		&d.ID, &d.HolderID, &d.HolderNumber, &d.FullName, &d.Sex, &dob,
		&d.Nationality, &d.NationalityOther, &d.MaritalStatus, &d.HighestEducation,
		&d.AgriTraining, &d.PrimaryOccupation, &d.PrimaryOccupationOther, &d.SecondaryOccupation,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DateOfBirth, err = time.Parse(dateLayout, dob)
	if err != nil {
		return nil, fmt.Errorf("parse date of birth: %w", err)
	}
	return &d, nil
}

const holderDetailCols = `id, holder_id, holder_number, full_name, sex, date_of_birth,
	nationality, nationality_other, marital_status, highest_education,
	agri_training, primary_occupation, primary_occupation_other, secondary_occupation,
	created_at, updated_at`

// SaveDetails upserts the holder persons on (holder_id, holder_number) and
// removes numbers beyond the submitted count.
func (s *HolderStore) SaveDetails(holderID int64, details []model.HolderDetail) ([]model.HolderDetail, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, d := range details {
		_, err := tx.Exec(
			`INSERT INTO holder_details (holder_id, holder_number, full_name, sex, date_of_birth,
				nationality, nationality_other, marital_status, highest_education, agri_training,
				primary_occupation, primary_occupation_other, secondary_occupation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (holder_id, holder_number) DO UPDATE SET
				full_name = excluded.full_name, sex = excluded.sex, date_of_birth = excluded.date_of_birth,
				nationality = excluded.nationality, nationality_other = excluded.nationality_other,
				marital_status = excluded.marital_status, highest_education = excluded.highest_education,
				agri_training = excluded.agri_training, primary_occupation = excluded.primary_occupation,
				primary_occupation_other = excluded.primary_occupation_other,
				secondary_occupation = excluded.secondary_occupation, updated_at = CURRENT_TIMESTAMP`,
			holderID, d.HolderNumber, d.FullName, d.Sex, d.DateOfBirth.Format(dateLayout),
			d.Nationality, d.NationalityOther, d.MaritalStatus, d.HighestEducation, d.AgriTraining,
			d.PrimaryOccupation, d.PrimaryOccupationOther, d.SecondaryOccupation,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert holder detail %d: %w", d.HolderNumber, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM holder_details WHERE holder_id = ? AND holder_number > ?`, holderID, len(details)); err != nil {
		return nil, fmt.Errorf("trim holder details: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.ListDetails(holderID)
}

func (s *HolderStore) ListDetails(holderID int64) ([]model.HolderDetail, error) {
	rows, err := s.db.Query(
		`SELECT `+holderDetailCols+` FROM holder_details WHERE holder_id = ? ORDER BY holder_number`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list holder details: %w", err)
	}
	defer rows.Close()

	var details []model.HolderDetail
	for rows.Next() {
		d, err := scanHolderDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holder detail: %w", err)
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/nacp/internal/model"
)

type GeneralInfoStore struct {
	db *sql.DB
}

func NewGeneralInfoStore(db *sql.DB) *GeneralInfoStore {
	return &GeneralInfoStore{db: db}
}

const generalInfoCols = `id, holder_id, holding_id, interview_date, respondent, island, settlement,
	street_address, po_box, legal_status, latitude, longitude, created_at, updated_at`

func scanGeneralInfo(scanner interface{ Scan(...any) error }) (*model.GeneralInformation, error) {
	var g model.GeneralInformation
	var interviewDate string
	var lat, lon sql.NullFloat64
	err := scanner.Scan(
		&g.ID, &g.HolderID, &g.HoldingID, &interviewDate, &g.Respondent, &g.Island, &g.Settlement,
		&g.StreetAddress, &g.POBox, &g.LegalStatus, &lat, &lon, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.InterviewDate, err = time.Parse(dateLayout, interviewDate)
	if err != nil {
		return nil, fmt.Errorf("parse interview date: %w", err)
	}
	if lat.Valid {
		g.Latitude = &lat.Float64
	}
	if lon.Valid {
		g.Longitude = &lon.Float64
	}
	return &g, nil
}

// Upsert writes the holding profile for g.HolderID.
func (s *GeneralInfoStore) Upsert(g model.GeneralInformation) (*model.GeneralInformation, error) {
	_, err := s.db.Exec(
		`INSERT INTO general_information (holder_id, holding_id, interview_date, respondent, island,
			settlement, street_address, po_box, legal_status, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (holder_id) DO UPDATE SET
			holding_id = excluded.holding_id, interview_date = excluded.interview_date,
			respondent = excluded.respondent, island = excluded.island, settlement = excluded.settlement,
			street_address = excluded.street_address, po_box = excluded.po_box,
			legal_status = excluded.legal_status, latitude = excluded.latitude,
			longitude = excluded.longitude, updated_at = CURRENT_TIMESTAMP`,
		g.HolderID, g.HoldingID, g.InterviewDate.Format(dateLayout), g.Respondent, g.Island,
		g.Settlement, g.StreetAddress, g.POBox, g.LegalStatus, nullFloat(g.Latitude), nullFloat(g.Longitude),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert general information: %w", err)
	}
	return s.GetByHolder(g.HolderID)
}

func (s *GeneralInfoStore) GetByHolder(holderID int64) (*model.GeneralInformation, error) {
	row := s.db.QueryRow(`SELECT `+generalInfoCols+` FROM general_information WHERE holder_id = ?`, holderID)
	g, err := scanGeneralInfo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get general information: %w", err)
	}
	return g, nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/nacp/internal/model"
)

type LandUseStore struct {
	db *sql.DB
}

func NewLandUseStore(db *sql.DB) *LandUseStore {
	return &LandUseStore{db: db}
}

func scanLandUse(scanner interface{ Scan(...any) error }) (*model.LandUse, error) {
	var l model.LandUse
	var holderID sql.NullInt64
	var methods string
	err := scanner.Scan(
		&l.ID, &holderID, &l.TotalAreaAcres, &l.YearsAgriculture, &l.MainPurpose,
		&l.NumParcels, &l.Location, &methods, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if holderID.Valid {
		l.HolderID = &holderID.Int64
	}
	l.CropMethods = decodeList(methods)
	return &l, nil
}

const landUseCols = `id, holder_id, total_area_acres, years_agriculture, main_purpose,
	num_parcels, location, crop_methods, created_at, updated_at`

// Create inserts a land use record with its parcels.
func (s *LandUseStore) Create(l model.LandUse) (*model.LandUse, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO land_use (holder_id, total_area_acres, years_agriculture, main_purpose,
			num_parcels, location, crop_methods)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(l.HolderID), l.TotalAreaAcres, l.YearsAgriculture, l.MainPurpose,
		l.NumParcels, l.Location, encodeList(l.CropMethods),
	)
	if err != nil {
		return nil, fmt.Errorf("insert land use: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := insertParcels(tx, id, l.Parcels); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Update rewrites the main fields and replaces every parcel.
func (s *LandUseStore) Update(id int64, l model.LandUse) (*model.LandUse, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE land_use SET total_area_acres = ?, years_agriculture = ?, main_purpose = ?,
			num_parcels = ?, location = ?, crop_methods = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		l.TotalAreaAcres, l.YearsAgriculture, l.MainPurpose, l.NumParcels, l.Location, encodeList(l.CropMethods), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update land use: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM land_use_parcels WHERE land_use_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear parcels: %w", err)
	}
	if err := insertParcels(tx, id, l.Parcels); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func insertParcels(tx *sql.Tx, landUseID int64, parcels []model.Parcel) error {
	for _, p := range parcels {
		_, err := tx.Exec(
			`INSERT INTO land_use_parcels (land_use_id, parcel_no, total_acres, developed_acres,
				tenure, use_of_land, irrigated_area, land_clearing)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			landUseID, p.ParcelNo, p.TotalAcres, p.DevelopedAcres, p.Tenure, p.UseOfLand, p.IrrigatedArea, p.LandClearing,
		)
		if err != nil {
			return fmt.Errorf("insert parcel %d: %w", p.ParcelNo, err)
		}
	}
	return nil
}

// GetByID returns the record with its parcels ordered by parcel number.
func (s *LandUseStore) GetByID(id int64) (*model.LandUse, error) {
	row := s.db.QueryRow(`SELECT `+landUseCols+` FROM land_use WHERE id = ?`, id)
	l, err := scanLandUse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get land use: %w", err)
	}
	l.Parcels, err = s.parcels(id)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetByHolder returns the holder's most recent land use record.
func (s *LandUseStore) GetByHolder(holderID int64) (*model.LandUse, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM land_use WHERE holder_id = ? ORDER BY id DESC LIMIT 1`, holderID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get land use by holder: %w", err)
	}
	return s.GetByID(id)
}

func (s *LandUseStore) parcels(landUseID int64) ([]model.Parcel, error) {
	rows, err := s.db.Query(
		`SELECT id, land_use_id, parcel_no, total_acres, developed_acres, tenure, use_of_land,
			irrigated_area, land_clearing
		 FROM land_use_parcels WHERE land_use_id = ? ORDER BY parcel_no`,
		landUseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	parcels := []model.Parcel{}
	for rows.Next() {
		var p model.Parcel
		err := rows.Scan(&p.ID, &p.LandUseID, &p.ParcelNo, &p.TotalAcres, &p.DevelopedAcres,
			&p.Tenure, &p.UseOfLand, &p.IrrigatedArea, &p.LandClearing)
		if err != nil {
			return nil, fmt.Errorf("scan parcel: %w", err)
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

// LandUseFilter narrows List by id or by a partial location match.
type LandUseFilter struct {
	ID       int64
	Location string
}

// List returns matching records newest first, without parcels.
func (s *LandUseStore) List(f LandUseFilter) ([]model.LandUse, error) {
	query := `SELECT ` + landUseCols + ` FROM land_use`
	var args []any
	switch {
	case f.ID > 0:
		query += ` WHERE id = ?`
		args = append(args, f.ID)
	case f.Location != "":
		query += ` WHERE location LIKE ?`
		args = append(args, "%"+f.Location+"%")
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list land use: %w", err)
	}
	defer rows.Close()

	var out []model.LandUse
	for rows.Next() {
		l, err := scanLandUse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan land use: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// Stats aggregates every land use record.
func (s *LandUseStore) Stats() (model.LandUseStats, error) {
	var st model.LandUseStats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(total_area_acres), 0), COALESCE(AVG(num_parcels), 0),
			COALESCE(MAX(total_area_acres), 0), COALESCE(MIN(total_area_acres), 0)
		 FROM land_use`,
	).Scan(&st.Count, &st.TotalArea, &st.AverageParcels, &st.MaxArea, &st.MinArea)
	if err != nil {
		return st, fmt.Errorf("land use stats: %w", err)
	}
	return st, nil
}

func (s *LandUseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM land_use WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete land use: %w", err)
	}
	return nil
}

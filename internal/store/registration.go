package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/nacp/internal/model"
)

type RegistrationStore struct {
	db *sql.DB
}

func NewRegistrationStore(db *sql.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

func scanRegistration(scanner interface{ Scan(...any) error }) (*model.Registration, error) {
	var r model.Registration
	var consent, confirmed int
	var comm, interview, days, times string
	var lat, lon sql.NullFloat64

	err := scanner.Scan(
		&r.ID, &consent, &r.FirstName, &r.LastName, &r.Email, &r.Telephone, &r.Cell,
		&comm, &interview, &r.Island, &r.Settlement, &r.StreetAddress,
		&days, &times, &lat, &lon, &confirmed, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Consent = consent != 0
	r.Confirmed = confirmed != 0
	r.CommunicationMethods = decodeList(comm)
	r.InterviewMethods = decodeList(interview)
	r.AvailableDays = decodeList(days)
	r.AvailableTimes = decodeList(times)
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lon.Valid {
		r.Longitude = &lon.Float64
	}
	return &r, nil
}

const registrationCols = `id, consent, first_name, last_name, email, telephone, cell,
	communication_methods, interview_methods, island, settlement, street_address,
	available_days, available_times, latitude, longitude, confirmed, created_at, updated_at`

// encodeList stores a multi-select answer as a JSON array.
func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func decodeList(s string) []string {
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

// Create inserts a consented registration.
func (s *RegistrationStore) Create(in model.RegistrationInput) (*model.Registration, error) {
	result, err := s.db.Exec(
		`INSERT INTO registration_form (consent, first_name, last_name, email, telephone, cell,
			communication_methods, interview_methods, island, settlement, street_address)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.FirstName, in.LastName, in.Email, in.Telephone, in.Cell,
		encodeList(in.CommunicationMethods), encodeList(in.InterviewMethods),
		in.Island, in.Settlement, in.StreetAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RegistrationStore) GetByID(id int64) (*model.Registration, error) {
	row := s.db.QueryRow(`SELECT `+registrationCols+` FROM registration_form WHERE id = ?`, id)
	r, err := scanRegistration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return r, nil
}

// Update rewrites the contact and preference fields of a registration.
func (s *RegistrationStore) Update(id int64, in model.RegistrationInput) (*model.Registration, error) {
	_, err := s.db.Exec(
		`UPDATE registration_form SET first_name = ?, last_name = ?, email = ?, telephone = ?, cell = ?,
			communication_methods = ?, interview_methods = ?, island = ?, settlement = ?, street_address = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.FirstName, in.LastName, in.Email, in.Telephone, in.Cell,
		encodeList(in.CommunicationMethods), encodeList(in.InterviewMethods),
		in.Island, in.Settlement, in.StreetAddress, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return s.GetByID(id)
}

func (s *RegistrationStore) SetAvailability(id int64, days, times []string) (*model.Registration, error) {
	_, err := s.db.Exec(
		`UPDATE registration_form SET available_days = ?, available_times = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		encodeList(days), encodeList(times), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return s.GetByID(id)
}

// SetLocation stores coordinates. Nil clears them.
func (s *RegistrationStore) SetLocation(id int64, lat, lon *float64) (*model.Registration, error) {
	_, err := s.db.Exec(
		`UPDATE registration_form SET latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullFloat(lat), nullFloat(lon), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return s.GetByID(id)
}

func (s *RegistrationStore) Confirm(id int64) (*model.Registration, error) {
	_, err := s.db.Exec(`UPDATE registration_form SET confirmed = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("confirm registration: %w", err)
	}
	return s.GetByID(id)
}

// RegistrationFilter narrows List. Zero values match everything.
type RegistrationFilter struct {
	Island string
	Limit  int
	Offset int
}

// List returns registrations newest first along with the unpaged total.
func (s *RegistrationStore) List(f RegistrationFilter) ([]model.Registration, int, error) {
	where := ""
	var args []any
	if f.Island != "" {
		where = ` WHERE island = ?`
		args = append(args, f.Island)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM registration_form`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	query := `SELECT ` + registrationCols + ` FROM registration_form` + where + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *r)
	}
	return regs, total, rows.Err()
}

// DeleteMany removes the given registrations and returns the number deleted.
func (s *RegistrationStore) DeleteMany(ids []int64) (int64, error) {
	return deleteIDs(s.db, "registration_form", ids)
}

func deleteIDs(db *sql.DB, table string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	result, err := db.Exec(`DELETE FROM `+table+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

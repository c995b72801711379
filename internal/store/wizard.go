package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dukerupert/nacp/internal/model"
)

const wizardTTL = 24 * time.Hour

type WizardStore struct {
	db *sql.DB
}

func NewWizardStore(db *sql.DB) *WizardStore {
	return &WizardStore{db: db}
}

func scanWizard(scanner interface{ Scan(...any) error }) (*model.WizardSession, error) {
	var w model.WizardSession
	var regID sql.NullInt64
	var lat, lon sql.NullFloat64

	err := scanner.Scan(
		&w.ID, &w.Token, &w.Page, &regID, &lat, &lon,
		&w.DetectedIsland, &w.DetectedSettlement, &w.DetectedStreet,
		&w.ExpiresAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if regID.Valid {
		w.RegistrationID = &regID.Int64
	}
	if lat.Valid {
		w.DetectedLat = &lat.Float64
	}
	if lon.Valid {
		w.DetectedLon = &lon.Float64
	}
	return &w, nil
}

const wizardCols = `id, token, page, registration_id, detected_lat, detected_lon,
	detected_island, detected_settlement, detected_street, expires_at, created_at, updated_at`

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create starts a wizard session on the landing page.
func (s *WizardStore) Create() (*model.WizardSession, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	result, err := s.db.Exec(
		`INSERT INTO wizard_sessions (token, page, expires_at) VALUES (?, ?, ?)`,
		token, model.PageLanding, time.Now().UTC().Add(wizardTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert wizard session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+wizardCols+` FROM wizard_sessions WHERE id = ?`, id)
	return scanWizard(row)
}

// GetByToken returns the live session for token, or nil if expired or unknown.
func (s *WizardStore) GetByToken(token string) (*model.WizardSession, error) {
	row := s.db.QueryRow(
		`SELECT `+wizardCols+` FROM wizard_sessions WHERE token = ? AND expires_at > datetime('now')`,
		token,
	)
	w, err := scanWizard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wizard session: %w", err)
	}
	return w, nil
}

// Save persists the page, registration link and detected location, and
// slides the expiry forward.
func (s *WizardStore) Save(w *model.WizardSession) error {
	w.ExpiresAt = time.Now().UTC().Add(wizardTTL)
	_, err := s.db.Exec(
		`UPDATE wizard_sessions SET page = ?, registration_id = ?, detected_lat = ?, detected_lon = ?,
			detected_island = ?, detected_settlement = ?, detected_street = ?, expires_at = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		w.Page, nullInt64(w.RegistrationID), nullFloat(w.DetectedLat), nullFloat(w.DetectedLon),
		w.DetectedIsland, w.DetectedSettlement, w.DetectedStreet, w.ExpiresAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("save wizard session: %w", err)
	}
	return nil
}

func (s *WizardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM wizard_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wizard session: %w", err)
	}
	return nil
}

func (s *WizardStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM wizard_sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired wizard sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

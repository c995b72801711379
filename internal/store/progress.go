package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/nacp/internal/model"
)

// ProgressStore tracks which survey sections a holder has completed.
type ProgressStore struct {
	db *sql.DB
}

func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Init creates incomplete rows for sections 1..total that do not exist yet.
func (s *ProgressStore) Init(holderID int64, total int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for section := 1; section <= total; section++ {
		_, err := tx.Exec(
			`INSERT INTO holder_survey_progress (holder_id, section_id, completed) VALUES (?, ?, 0)
			 ON CONFLICT (holder_id, section_id) DO NOTHING`,
			holderID, section,
		)
		if err != nil {
			return fmt.Errorf("init progress section %d: %w", section, err)
		}
	}
	return tx.Commit()
}

func (s *ProgressStore) MarkComplete(holderID int64, sectionID int) error {
	_, err := s.db.Exec(
		`INSERT INTO holder_survey_progress (holder_id, section_id, completed) VALUES (?, ?, 1)
		 ON CONFLICT (holder_id, section_id) DO UPDATE SET completed = 1, updated_at = CURRENT_TIMESTAMP`,
		holderID, sectionID,
	)
	if err != nil {
		return fmt.Errorf("mark section complete: %w", err)
	}
	return nil
}

func (s *ProgressStore) List(holderID int64) ([]model.SectionProgress, error) {
	rows, err := s.db.Query(
		`SELECT holder_id, section_id, completed, updated_at FROM holder_survey_progress
		 WHERE holder_id = ? ORDER BY section_id`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []model.SectionProgress
	for rows.Next() {
		var p model.SectionProgress
		var completed int
		if err := rows.Scan(&p.HolderID, &p.SectionID, &completed, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		p.Completed = completed != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

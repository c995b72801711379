package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/nacp/internal/model"
)

type MachineryStore struct {
	db *sql.DB
}

func NewMachineryStore(db *sql.DB) *MachineryStore {
	return &MachineryStore{db: db}
}

// Replace swaps the holder's machinery rows for items.
func (s *MachineryStore) Replace(holderID int64, items []model.MachineryItem) ([]model.MachineryItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM agricultural_machinery WHERE holder_id = ?`, holderID); err != nil {
		return nil, fmt.Errorf("clear machinery: %w", err)
	}
	for _, it := range items {
		_, err := tx.Exec(
			`INSERT INTO agricultural_machinery (holder_id, equipment_name, has_item, quantity_new,
				quantity_used, quantity_out_of_service, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			holderID, it.EquipmentName, it.HasItem, it.QuantityNew, it.QuantityUsed, it.QuantityOutOfService, it.Source,
		)
		if err != nil {
			return nil, fmt.Errorf("insert machinery %q: %w", it.EquipmentName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.List(holderID)
}

func (s *MachineryStore) List(holderID int64) ([]model.MachineryItem, error) {
	rows, err := s.db.Query(
		`SELECT id, holder_id, equipment_name, has_item, quantity_new, quantity_used,
			quantity_out_of_service, source
		 FROM agricultural_machinery WHERE holder_id = ? ORDER BY id`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list machinery: %w", err)
	}
	defer rows.Close()

	var out []model.MachineryItem
	for rows.Next() {
		var it model.MachineryItem
		err := rows.Scan(&it.ID, &it.HolderID, &it.EquipmentName, &it.HasItem,
			&it.QuantityNew, &it.QuantityUsed, &it.QuantityOutOfService, &it.Source)
		if err != nil {
			return nil, fmt.Errorf("scan machinery: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

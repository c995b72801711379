package store

import (
	"database/sql"
	"fmt"
	"slices"
)

// AdminTables lists the tables the admin dashboard may view, export and
// bulk-delete from, in menu order.
var AdminTables = []string{
	"registration_form",
	"users",
	"holders",
	"holder_details",
	"general_information",
	"household_summary",
	"household_members",
	"holding_labour",
	"holding_labour_permanent",
	"land_use",
	"land_use_parcels",
	"agricultural_machinery",
}

// TableDump is the raw content of one table.
type TableDump struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// TableStore reads and deletes rows of any table in AdminTables.
type TableStore struct {
	db *sql.DB
}

func NewTableStore(db *sql.DB) *TableStore {
	return &TableStore{db: db}
}

// Known reports whether name is in AdminTables.
func (s *TableStore) Known(name string) bool {
	return slices.Contains(AdminTables, name)
}

// Dump returns every row of table ordered newest first. Sensitive columns are omitted.
func (s *TableStore) Dump(table string) (*TableDump, error) {
	if !s.Known(table) {
		return nil, fmt.Errorf("dump %s: unknown table", table)
	}
	query := `SELECT * FROM ` + table + ` ORDER BY id DESC`
	if table == "users" {
		query = `SELECT id, username, email, role, status, created_at, updated_at FROM users ORDER BY id DESC`
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dump %s columns: %w", table, err)
	}

	dump := &TableDump{Name: table, Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		dump.Rows = append(dump.Rows, values)
	}
	return dump, rows.Err()
}

// Count returns the number of rows in table.
func (s *TableStore) Count(table string) (int, error) {
	if !s.Known(table) {
		return 0, fmt.Errorf("count %s: unknown table", table)
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// DeleteIDs removes rows by primary key and returns the number deleted.
func (s *TableStore) DeleteIDs(table string, ids []int64) (int64, error) {
	if !s.Known(table) {
		return 0, fmt.Errorf("delete from %s: unknown table", table)
	}
	return deleteIDs(s.db, table, ids)
}

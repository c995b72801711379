// Package export writes admin table dumps as CSV or Excel with
// human-readable headers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/nacp/internal/store"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// SheetName is the worksheet holding exported rows.
const SheetName = "Data"

// ParseFormat accepts "csv", "xlsx" or "excel".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is "<table>.<ext>".
func (f Format) Filename(table string) string {
	return table + "." + string(f)
}

var acronyms = map[string]string{
	"id": "ID",
	"po": "PO",
	"ip": "IP",
}

// Header turns a column name such as "holder_id" into "Holder ID".
func Header(column string) string {
	words := strings.Split(column, "_")
	for i, w := range words {
		if a, ok := acronyms[w]; ok {
			words[i] = a
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Headers maps Header over columns.
func Headers(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = Header(c)
	}
	return out
}

// Value renders one cell. JSON string arrays, used for multi-select
// answers, become a comma-separated list.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return listOrString(x)
	case []byte:
		return listOrString(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}

// Cell renders v for a CSV or XLSX file. Text that a spreadsheet would read
// as a formula is prefixed with an apostrophe.
func Cell(v any) string {
	switch v.(type) {
	case string, []byte:
		return escapeFormula(Value(v))
	}
	return Value(v)
}

func escapeFormula(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func listOrString(s string) string {
	if !strings.HasPrefix(s, "[") {
		return s
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return s
	}
	return strings.Join(list, ", ")
}

// Write encodes dump in format f.
func Write(w io.Writer, f Format, dump *store.TableDump) error {
	switch f {
	case CSV:
		return WriteCSV(w, dump)
	case XLSX:
		return WriteXLSX(w, dump)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func WriteCSV(w io.Writer, dump *store.TableDump) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers(dump.Columns)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(dump.Columns))
	for _, row := range dump.Rows {
		for i, v := range row {
			record[i] = Cell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a single "Data" sheet: a bold, frozen
// header row followed by one row per record. Numbers stay numeric.
func WriteXLSX(w io.Writer, dump *store.TableDump) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headers := Headers(dump.Columns)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range dump.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			switch v.(type) {
			case int64, float64:
				cells[i] = v
			default:
				cells[i] = Cell(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

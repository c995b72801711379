package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/nacp/internal/store"
)

func sampleDump() *store.TableDump {
	return &store.TableDump{
		Name:    "registration_form",
		Columns: []string{"id", "first_name", "communication_methods", "latitude", "po_box", "created_at"},
		Rows: [][]any{
			{int64(2), "Ann", `["WhatsApp","Email"]`, 25.05, "N-59195", time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)},
			{int64(1), "Bo, Jr.", `[]`, nil, nil, time.Date(2025, 2, 28, 17, 0, 0, 0, time.UTC)},
		},
	}
}

func TestHeader(t *testing.T) {
	tests := map[string]string{
		"id":               "ID",
		"holder_id":        "Holder ID",
		"first_name":       "First Name",
		"under_14_male":    "Under 14 Male",
		"po_box":           "PO Box",
		"agri_training":    "Agri Training",
		"quantity_new":     "Quantity New",
		"interview_date":   "Interview Date",
		"question_text":    "Question Text",
		"total_area_acres": "Total Area Acres",
		"has_item":         "Has Item",
	}
	for in, want := range tests {
		assert.Equal(t, want, Header(in), in)
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "42", Value(int64(42)))
	assert.Equal(t, "25.0343", Value(25.0343))
	assert.Equal(t, "Yes", Value(true))
	assert.Equal(t, "Monday, Friday", Value(`["Monday","Friday"]`))
	assert.Equal(t, "[not json", Value("[not json"))
	assert.Equal(t, "2025-03-01 09:30:00", Value(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestCellEscapesFormulas(t *testing.T) {
	for _, in := range []string{`=HYPERLINK("http://x","y")`, "+1 242 555 0101", "-2+3", "@SUM(A1)", "\t=1"} {
		assert.Equal(t, "'"+in, Cell(in), in)
		assert.Equal(t, in, Value(in), "display value is unchanged")
	}
	assert.Equal(t, "N-59195", Cell("N-59195"))
	assert.Equal(t, "'=1, Email", Cell(`["=1","Email"]`))
	assert.Equal(t, "-77.35", Cell(-77.35))
}

func TestWriteCSVEscapesFormulas(t *testing.T) {
	dump := &store.TableDump{
		Columns: []string{"id", "first_name"},
		Rows:    [][]any{{int64(1), "=cmd|' /C calc'!A0"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dump))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `1,'=cmd|' /C calc'!A0`, lines[1])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	f, err = ParseFormat("excel")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	assert.Equal(t, "land_use.xlsx", f.Filename("land_use"))

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, sampleDump()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,First Name,Communication Methods,Latitude,PO Box,Created At", lines[0])
	assert.Equal(t, `2,Ann,"WhatsApp, Email",25.05,N-59195,2025-03-01 09:30:00`, lines[1])
	assert.Equal(t, `1,"Bo, Jr.",,,,2025-02-28 17:00:00`, lines[2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, sampleDump()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "First Name", "Communication Methods", "Latitude", "PO Box", "Created At"}, rows[0])
	assert.Equal(t, "Ann", rows[1][1])
	assert.Equal(t, "WhatsApp, Email", rows[1][2])
	assert.Equal(t, "25.05", rows[1][3])
	assert.Equal(t, "Bo, Jr.", rows[2][1])
}

func TestWriteXLSXEscapesFormulas(t *testing.T) {
	dump := &store.TableDump{
		Columns: []string{"id", "street_address", "longitude"},
		Rows:    [][]any{{int64(1), "@SUM(A1)", -77.35}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, dump))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, "'@SUM(A1)", rows[1][1])
	assert.Equal(t, "-77.35", rows[1][2])
}

func TestWriteEmptyTable(t *testing.T) {
	dump := &store.TableDump{Name: "land_use", Columns: []string{"id", "location"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dump))
	assert.Equal(t, "ID,Location\n", buf.String())
}

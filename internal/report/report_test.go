package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
)

func TestCount(t *testing.T) {
	list := catalog.List{{Code: "a", Label: "Alpha"}, {Code: "b", Label: "Beta"}, {Code: "c", Label: "Gamma"}}
	chart := Count("Letters", list, [][]string{
		{"a", "b"},
		{"a"},
		{"z"},
		{"a", "y", "y"},
	})

	assert.Equal(t, 4, chart.Respondents)
	require.Len(t, chart.Bars, 5)

	assert.Equal(t, "Alpha", chart.Bars[0].Label)
	assert.Equal(t, 3, chart.Bars[0].Count)
	assert.InDelta(t, 75.0, chart.Bars[0].Percent, 1e-9)
	assert.InDelta(t, 100.0, chart.Bars[0].Width, 1e-9)

	assert.Equal(t, 1, chart.Bars[1].Count)
	assert.Equal(t, 0, chart.Bars[2].Count, "catalog entries are kept at zero")

	assert.Equal(t, "y", chart.Bars[3].Label)
	assert.Equal(t, 2, chart.Bars[3].Count)
	assert.Equal(t, "z", chart.Bars[4].Label)
	assert.False(t, chart.Empty())
}

func TestCountEmpty(t *testing.T) {
	chart := Count("Nothing", catalog.List{{Code: "a", Label: "a"}}, nil)
	assert.True(t, chart.Empty())
	assert.Zero(t, chart.Bars[0].Percent)
	assert.Zero(t, chart.Bars[0].Width)
}

func TestBarLabels(t *testing.T) {
	b := Bar{Count: 12345, Percent: 33.3333}
	assert.Equal(t, "12,345", b.CountLabel())
	assert.Equal(t, "33.3%", b.PercentLabel())
}

func TestRegistrations(t *testing.T) {
	c := catalog.Default()
	lat, lon := 25.05, -77.35
	regs := []model.Registration{
		{Island: "Exuma", CommunicationMethods: []string{"Email", "WhatsApp"}, InterviewMethods: []string{"Phone Interview"},
			AvailableDays: []string{"Monday"}, AvailableTimes: []string{"Morning (7-10am)"}, Confirmed: true, Latitude: &lat, Longitude: &lon},
		{Island: "Exuma", CommunicationMethods: []string{"Email"}, InterviewMethods: []string{"Self Reporting"}},
		{Island: "Bimini"},
	}

	charts := Registrations(regs, c)
	require.Len(t, charts, 5)

	islands := charts[0]
	require.Len(t, islands.Bars, len(c.Islands))
	assert.Equal(t, "New Providence", islands.Bars[0].Label)
	exuma := islands.Bars[c.Islands.Index("Exuma")]
	assert.Equal(t, 2, exuma.Count)
	assert.InDelta(t, 66.67, exuma.Percent, 0.01)

	comm := charts[1]
	assert.Equal(t, 2, comm.Bars[c.CommunicationMethods.Index("Email")].Count)
	assert.Equal(t, 3, comm.Respondents)
}

func TestSummarize(t *testing.T) {
	lat, lon := 25.05, -77.35
	now := time.Now()
	s := Summarize([]model.Registration{
		{Confirmed: true, Latitude: &lat, Longitude: &lon, CreatedAt: now.Add(-2 * time.Hour)},
		{CreatedAt: now.Add(-48 * time.Hour)},
	})

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Confirmed)
	assert.Equal(t, 1, s.WithLocation)
	assert.Equal(t, "50.0%", s.ConfirmedPercent())
	assert.Equal(t, "2 hours ago", s.LatestLabel())
	assert.Equal(t, "never", Summary{}.LatestLabel())
}

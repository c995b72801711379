package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Len(t, c.Islands, 17)
	assert.Equal(t, "New Providence", c.Islands[0].Code)
	assert.Equal(t, "I do wish to participate", c.ConsentGiven())
	assert.Len(t, c.Equipment, 9)
	assert.Len(t, c.Sections, 5)
	assert.Equal(t, "Spouse/Partner", c.Relationships.Label("1"))
	assert.Equal(t, "Yes", c.YesNo[0].Label)
	assert.Equal(t, "15-24", c.AgeGroups.Label("1"))

	q, ok := c.Question(5)
	require.True(t, ok)
	assert.Equal(t, "option", q.Kind)
}

func TestListSort(t *testing.T) {
	days := Default().Days
	got := days.Sort([]string{"Sunday", "Friday", "Monday", "Someday"})
	assert.Equal(t, []string{"Monday", "Friday", "Sunday", "Someday"}, got)
}

func TestLoadRejectsIncompleteCatalog(t *testing.T) {
	_, err := Load([]byte("consent: [only one]\n"))
	assert.Error(t, err)
}

func TestLabelFallsBackToCode(t *testing.T) {
	assert.Equal(t, "ZZ", Default().Tenure.Label("ZZ"))
	assert.Equal(t, "Privately Owned", Default().Tenure.Label("privately_owned"))
}

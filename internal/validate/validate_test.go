package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/nacp/internal/catalog"
)

func TestCell(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"4564567", true},
		{"242-4564567", true},
		{"(242) 456-4567", true},
		{"+1 242 456 4567", false},
		{"242 456 4567", true},
		{"456456", false},
		{"45645678", false},
		{"24245645678", false},
		{"", false},
		{"456-456a", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cell(tt.in), "Cell(%q)", tt.in)
	}
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("jane.doe@example.bs"))
	assert.True(t, Email("a_b-c@mail.gov.bs"))
	assert.False(t, Email("jane@"))
	assert.False(t, Email("jane@example"))
	assert.False(t, Email("jane@example.museum"))
}

func TestTelephone(t *testing.T) {
	assert.True(t, Telephone("(242) 456-4567"))
	assert.False(t, Telephone("242-456-4567"))
	assert.False(t, Telephone("(242)456-4567"))
}

func TestCoordinates(t *testing.T) {
	assert.True(t, Latitude(25.03))
	assert.False(t, Latitude(90.5))
	assert.True(t, Longitude(-180))
	assert.False(t, Longitude(181))
}

func TestErrorsCollect(t *testing.T) {
	c := catalog.Default()
	var errs Errors
	errs.Required("First name", " ")
	errs.OneOf("Island", "Atlantis", c.Islands)
	errs.AtLeastOne("communication method", nil, c.CommunicationMethods)
	errs.IntRange("Age", 121, 0, 120)
	errs.MaxLen("Location", "abcdef", 5)

	err := errs.Err()
	assert.Error(t, err)
	msgs := Messages(err)
	assert.Len(t, msgs, 5)
	assert.Equal(t, "First name is required", msgs[0])
	assert.Equal(t, "Select at least one communication method", msgs[2])
}

func TestErrorsEmpty(t *testing.T) {
	var errs Errors
	errs.Check(true, "never")
	assert.NoError(t, errs.Err())
	assert.Nil(t, Messages(nil))
	assert.Equal(t, []string{"boom"}, Messages(errors.New("boom")))
}

func TestFloatMin(t *testing.T) {
	var errs Errors
	errs.FloatMin("Total area", 0, 0, true)
	errs.FloatMin("Years", -1, 0, false)
	errs.FloatMin("Developed", 0, 0, false)
	errs.FloatMin("Acres", 0.5, 0, true)

	msgs := Messages(errs.Err())
	assert.Equal(t, []string{"Total area must be greater than 0", "Years must be at least 0"}, msgs)
}

package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/validate"
)

func validInput() model.RegistrationInput {
	return model.RegistrationInput{
		FirstName:            " Jane ",
		LastName:             "Doe",
		Email:                "jane@example.com",
		Telephone:            "(242) 456-4567",
		CommunicationMethods: []string{"Email"},
		InterviewMethods:     []string{"Phone Interview"},
		Island:               "Andros",
		Settlement:           "Fresh Creek",
		StreetAddress:        "Queen's Highway",
	}
}

func TestValidateRegistration(t *testing.T) {
	c := catalog.Default()

	in := validInput()
	require.NoError(t, ValidateRegistration(c, &in))
	assert.Equal(t, "Jane", in.FirstName)

	in = validInput()
	in.Cell = "242 555 1234"
	assert.NoError(t, ValidateRegistration(c, &in))

	in = validInput()
	in.Cell = "12345"
	assert.Error(t, ValidateRegistration(c, &in))
}

func TestValidateRegistrationCollectsErrors(t *testing.T) {
	c := catalog.Default()
	in := model.RegistrationInput{Email: "nope", Telephone: "2424564567", Island: "Atlantis"}

	msgs := validate.Messages(ValidateRegistration(c, &in))
	assert.Contains(t, msgs, "First name is required")
	assert.Contains(t, msgs, "Enter a valid email address")
	assert.Contains(t, msgs, "Telephone must look like (242) 456-4567")
	assert.Contains(t, msgs, "Select at least one communication method")
	assert.Contains(t, msgs, "Select at least one interview method")
	assert.Len(t, msgs, 9)
}

func TestValidateAvailability(t *testing.T) {
	c := catalog.Default()

	days, times, err := ValidateAvailability(c,
		[]string{"Friday", "Monday"},
		[]string{"Evening (6-8pm)", "Morning (7-10am)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Friday"}, days)
	assert.Equal(t, []string{"Morning (7-10am)", "Evening (6-8pm)"}, times)

	_, _, err = ValidateAvailability(c, nil, []string{"Midday (11-1pm)"})
	assert.Error(t, err)

	_, _, err = ValidateAvailability(c, []string{"Funday"}, []string{"Midday (11-1pm)"})
	assert.Error(t, err)
}

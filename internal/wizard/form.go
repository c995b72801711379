package wizard

import (
	"strings"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/validate"
)

// ValidateRegistration checks the registration step and trims its text
// fields in place. The admin edit form uses the same rules.
func ValidateRegistration(c *catalog.Catalog, in *model.RegistrationInput) error {
	for _, f := range []*string{&in.FirstName, &in.LastName, &in.Email, &in.Telephone, &in.Cell, &in.Settlement, &in.StreetAddress} {
		*f = strings.TrimSpace(*f)
	}

	var errs validate.Errors
	errs.Required("First name", in.FirstName)
	errs.Required("Last name", in.LastName)
	if in.Email == "" {
		errs.Add("Email is required")
	} else {
		errs.Check(validate.Email(in.Email), "Enter a valid email address")
	}
	if in.Telephone == "" {
		errs.Add("Telephone is required")
	} else {
		errs.Check(validate.Telephone(in.Telephone), "Telephone must look like (242) 456-4567")
	}
	if in.Cell != "" {
		errs.Check(validate.Cell(in.Cell), "Cell number must have 7 or 10 digits")
	}
	errs.OneOf("Island", in.Island, c.Islands)
	errs.Required("Settlement", in.Settlement)
	errs.Required("Street address", in.StreetAddress)
	errs.AtLeastOne("communication method", in.CommunicationMethods, c.CommunicationMethods)
	errs.AtLeastOne("interview method", in.InterviewMethods, c.InterviewMethods)
	return errs.Err()
}

// ValidateAvailability checks the availability step and returns days and
// times in catalog order.
func ValidateAvailability(c *catalog.Catalog, days, times []string) ([]string, []string, error) {
	var errs validate.Errors
	errs.AtLeastOne("day", days, c.Days)
	errs.AtLeastOne("time slot", times, c.TimeSlots)
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return c.Days.Sort(days), c.TimeSlots.Sort(times), nil
}

// Package wizard defines the page flow of the public registration form.
//
// The flow is linear:
//
//	landing → registration → availability → location_confirmation → final_confirmation
//
// Visitors may step back from availability and location_confirmation, and
// may reset from anywhere. final_confirmation only leaves through Reset.
package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukerupert/nacp/internal/model"
)

var ErrInvalidTransition = errors.New("invalid wizard transition")

// Pages lists the wizard pages in flow order.
var Pages = []string{
	model.PageLanding,
	model.PageRegistration,
	model.PageAvailability,
	model.PageLocationConfirmation,
	model.PageFinalConfirmation,
}

var back = map[string]string{
	model.PageAvailability:         model.PageRegistration,
	model.PageLocationConfirmation: model.PageAvailability,
}

// Valid reports whether page is a wizard page.
func Valid(page string) bool {
	return slices.Contains(Pages, page)
}

// Step is the 1-based position of page, or 0 when unknown.
func Step(page string) int {
	return slices.Index(Pages, page) + 1
}

// Next returns the page after page.
func Next(page string) (string, error) {
	i := slices.Index(Pages, page)
	if i < 0 || i == len(Pages)-1 {
		return "", fmt.Errorf("%w: next from %q", ErrInvalidTransition, page)
	}
	return Pages[i+1], nil
}

// Back returns the page before page, where stepping back is allowed.
func Back(page string) (string, error) {
	prev, ok := back[page]
	if !ok {
		return "", fmt.Errorf("%w: back from %q", ErrInvalidTransition, page)
	}
	return prev, nil
}

// Advance moves s to the next page. It refuses to leave the registration
// page before a registration row is linked.
func Advance(s *model.WizardSession) error {
	if s.Page == model.PageRegistration && s.RegistrationID == nil {
		return fmt.Errorf("%w: registration not saved", ErrInvalidTransition)
	}
	next, err := Next(s.Page)
	if err != nil {
		return err
	}
	s.Page = next
	return nil
}

// Retreat moves s to the previous page.
func Retreat(s *model.WizardSession) error {
	prev, err := Back(s.Page)
	if err != nil {
		return err
	}
	s.Page = prev
	return nil
}

// Reset returns s to the landing page and forgets the linked registration
// and any detected location.
func Reset(s *model.WizardSession) {
	s.Page = model.PageLanding
	s.RegistrationID = nil
	s.DetectedLat = nil
	s.DetectedLon = nil
	s.DetectedIsland = ""
	s.DetectedSettlement = ""
	s.DetectedStreet = ""
}

// Current returns the page s should display. A session past the
// registration page whose registration row is gone (deleted by an admin)
// falls back to the registration page; an unknown page falls back to landing.
// It reports whether s was changed.
func Current(s *model.WizardSession) (string, bool) {
	if !Valid(s.Page) {
		s.Page = model.PageLanding
		return s.Page, true
	}
	if Step(s.Page) > Step(model.PageRegistration) && s.RegistrationID == nil {
		s.Page = model.PageRegistration
		return s.Page, true
	}
	return s.Page, false
}

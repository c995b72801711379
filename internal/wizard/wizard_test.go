package wizard

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNext(t *testing.T) {
	tests := []struct {
		from, to string
	}{
		{model.PageLanding, model.PageRegistration},
		{model.PageRegistration, model.PageAvailability},
		{model.PageAvailability, model.PageLocationConfirmation},
		{model.PageLocationConfirmation, model.PageFinalConfirmation},
	}
	for _, tt := range tests {
		got, err := Next(tt.from)
		require.NoError(t, err)
		assert.Equal(t, tt.to, got)
	}

	_, err := Next(model.PageFinalConfirmation)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Next("admin_dashboard")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBack(t *testing.T) {
	got, err := Back(model.PageAvailability)
	require.NoError(t, err)
	assert.Equal(t, model.PageRegistration, got)

	got, err = Back(model.PageLocationConfirmation)
	require.NoError(t, err)
	assert.Equal(t, model.PageAvailability, got)

	for _, page := range []string{model.PageLanding, model.PageRegistration, model.PageFinalConfirmation} {
		_, err := Back(page)
		assert.ErrorIs(t, err, ErrInvalidTransition, page)
	}
}

func TestAdvanceRequiresRegistration(t *testing.T) {
	s := &model.WizardSession{Page: model.PageRegistration}
	assert.ErrorIs(t, Advance(s), ErrInvalidTransition)
	assert.Equal(t, model.PageRegistration, s.Page)

	s.RegistrationID = ptr(int64(4))
	require.NoError(t, Advance(s))
	assert.Equal(t, model.PageAvailability, s.Page)

	require.NoError(t, Retreat(s))
	assert.Equal(t, model.PageRegistration, s.Page)
}

func TestReset(t *testing.T) {
	s := &model.WizardSession{
		Page:           model.PageFinalConfirmation,
		RegistrationID: ptr(int64(9)),
		DetectedLat:    ptr(25.06),
		DetectedLon:    ptr(-77.34),
		DetectedIsland: "New Providence",
		DetectedStreet: "Bay Street",
	}
	Reset(s)

	assert.Equal(t, model.PageLanding, s.Page)
	assert.Nil(t, s.RegistrationID)
	assert.Nil(t, s.DetectedLat)
	assert.Nil(t, s.DetectedLon)
	assert.Empty(t, s.DetectedIsland)
	assert.Empty(t, s.DetectedStreet)
}

func TestCurrent(t *testing.T) {
	s := &model.WizardSession{Page: model.PageAvailability}
	page, changed := Current(s)
	assert.Equal(t, model.PageRegistration, page)
	assert.True(t, changed)

	s = &model.WizardSession{Page: "bogus"}
	page, changed = Current(s)
	assert.Equal(t, model.PageLanding, page)
	assert.True(t, changed)

	s = &model.WizardSession{Page: model.PageLocationConfirmation, RegistrationID: ptr(int64(1))}
	page, changed = Current(s)
	assert.Equal(t, model.PageLocationConfirmation, page)
	assert.False(t, changed)
}

func TestStep(t *testing.T) {
	assert.Equal(t, 1, Step(model.PageLanding))
	assert.Equal(t, 5, Step(model.PageFinalConfirmation))
	assert.Equal(t, 0, Step("nope"))
}

package model

import "time"

// Wizard pages in flow order.
const (
	PageLanding              = "landing"
	PageRegistration         = "registration"
	PageAvailability         = "availability"
	PageLocationConfirmation = "location_confirmation"
	PageFinalConfirmation    = "final_confirmation"
)

// WizardSession is the server-side state of one visitor's registration flow.
type WizardSession struct {
	ID                 int64     `json:"id"`
	Token              string    `json:"-"`
	Page               string    `json:"page"`
	RegistrationID     *int64    `json:"registration_id"`
	DetectedLat        *float64  `json:"detected_lat"`
	DetectedLon        *float64  `json:"detected_lon"`
	DetectedIsland     string    `json:"detected_island"`
	DetectedSettlement string    `json:"detected_settlement"`
	DetectedStreet     string    `json:"detected_street"`
	ExpiresAt          time.Time `json:"expires_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

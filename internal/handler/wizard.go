package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/email"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/middleware"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dukerupert/nacp/internal/validate"
	ws "github.com/dukerupert/nacp/internal/websocket"
	"github.com/dukerupert/nacp/internal/wizard"
)

const wizardCookieName = "nacp_wizard"

var pageTemplates = map[string]string{
	model.PageLanding:              "landing.html",
	model.PageRegistration:         "registration.html",
	model.PageAvailability:         "availability.html",
	model.PageLocationConfirmation: "location.html",
	model.PageFinalConfirmation:    "confirmation.html",
}

// WizardHandler serves the public registration flow.
type WizardHandler struct {
	wizardStore *store.WizardStore
	regStore    *store.RegistrationStore
	geo         *geo.Client
	emailClient *email.Client
	hub         *ws.Hub
	catalog     *catalog.Catalog
	render      *Renderer
	logger      *slog.Logger
}

func NewWizardHandler(
	wizardStore *store.WizardStore,
	regStore *store.RegistrationStore,
	geoClient *geo.Client,
	emailClient *email.Client,
	hub *ws.Hub,
	c *catalog.Catalog,
	render *Renderer,
	logger *slog.Logger,
) *WizardHandler {
	return &WizardHandler{
		wizardStore: wizardStore,
		regStore:    regStore,
		geo:         geoClient,
		emailClient: emailClient,
		hub:         hub,
		catalog:     c,
		render:      render,
		logger:      logger,
	}
}

// session loads the visitor's wizard session, creating one when the cookie
// is missing or stale. The page is repaired when its registration row has
// been deleted in the meantime.
func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*model.WizardSession, *model.Registration, error) {
	var s *model.WizardSession
	if c, err := r.Cookie(wizardCookieName); err == nil && c.Value != "" {
		s, err = h.wizardStore.GetByToken(c.Value)
		if err != nil {
			return nil, nil, err
		}
	}
	if s == nil {
		var err error
		s, err = h.wizardStore.Create()
		if err != nil {
			return nil, nil, err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     wizardCookieName,
			Value:    s.Token,
			Path:     "/",
			Expires:  s.ExpiresAt,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	var reg *model.Registration
	stale := false
	if s.RegistrationID != nil {
		var err error
		reg, err = h.regStore.GetByID(*s.RegistrationID)
		if err != nil {
			return nil, nil, err
		}
		if reg == nil {
			s.RegistrationID = nil
			stale = true
		}
	}
	if _, changed := wizard.Current(s); changed || stale {
		if err := h.wizardStore.Save(s); err != nil {
			return nil, nil, err
		}
	}
	return s, reg, nil
}

// Show renders whichever page the visitor's session is on.
func (h *WizardHandler) Show(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s, reg, err := h.session(w, r)
	if err != nil {
		h.logger.Error("load wizard session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	h.show(w, r, http.StatusOK, s, reg, h.render.page(r, ""))
}

func (h *WizardHandler) show(w http.ResponseWriter, r *http.Request, status int, s *model.WizardSession, reg *model.Registration, data map[string]any) {
	switch s.Page {
	case model.PageRegistration:
		data["Title"] = "Your details"
		if _, ok := data["Form"]; !ok {
			data["Form"] = h.registrationForm(s, reg)
		}
		if _, ok := data["Consent"]; !ok {
			consent := ""
			if reg != nil {
				consent = h.catalog.ConsentGiven()
			}
			data["Consent"] = consent
		}

	case model.PageAvailability:
		data["Title"] = "Availability"
		if _, ok := data["Days"]; !ok {
			data["Days"] = reg.AvailableDays
			data["Times"] = reg.AvailableTimes
		}

	case model.PageLocationConfirmation:
		data["Title"] = "Location"
		data["Map"] = true
		lat, lon := geo.Nassau.Lat(), geo.Nassau.Lon()
		switch {
		case reg.HasLocation():
			lat, lon = *reg.Latitude, *reg.Longitude
		case s.DetectedLat != nil && s.DetectedLon != nil:
			lat, lon = *s.DetectedLat, *s.DetectedLon
			data["Detected"] = strings.Trim(strings.Join([]string{s.DetectedSettlement, s.DetectedIsland}, ", "), ", ")
		}
		data["Lat"], data["Lon"] = lat, lon

	case model.PageFinalConfirmation:
		data["Title"] = "Confirm"
		data["Registration"] = reg
		if reg.HasLocation() {
			data["Links"] = geo.MapLinks(*reg.Latitude, *reg.Longitude)
			if !reg.Confirmed {
				data["Warnings"] = geo.Warnings(*reg.Latitude, *reg.Longitude)
			}
		}

	default:
		data["Title"] = "Welcome"
	}
	h.render.Page(w, status, pageTemplates[s.Page], data)
}

// registrationForm prefills the registration page from the saved row, or
// from the auto-detected address on a first visit.
func (h *WizardHandler) registrationForm(s *model.WizardSession, reg *model.Registration) model.RegistrationInput {
	if reg != nil {
		return model.RegistrationInput{
			FirstName:            reg.FirstName,
			LastName:             reg.LastName,
			Email:                reg.Email,
			Telephone:            reg.Telephone,
			Cell:                 reg.Cell,
			CommunicationMethods: reg.CommunicationMethods,
			InterviewMethods:     reg.InterviewMethods,
			Island:               reg.Island,
			Settlement:           reg.Settlement,
			StreetAddress:        reg.StreetAddress,
		}
	}
	in := model.RegistrationInput{
		Settlement:    s.DetectedSettlement,
		StreetAddress: s.DetectedStreet,
	}
	if h.catalog.Islands.Contains(s.DetectedIsland) {
		in.Island = s.DetectedIsland
	}
	return in
}

// step loads the session and checks that the visitor is on page. Otherwise
// it redirects to the page they are actually on.
func (h *WizardHandler) step(w http.ResponseWriter, r *http.Request, page string) (*model.WizardSession, *model.Registration, bool) {
	s, reg, err := h.session(w, r)
	if err != nil {
		h.logger.Error("load wizard session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if s.Page != page {
		redirect(w, r, "/")
		return nil, nil, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return nil, nil, false
	}
	return s, reg, true
}

func (h *WizardHandler) advance(w http.ResponseWriter, r *http.Request, s *model.WizardSession) {
	if err := wizard.Advance(s); err != nil {
		h.logger.Warn("advance wizard", "page", s.Page, "error", err)
	} else if err := h.wizardStore.Save(s); err != nil {
		h.logger.Error("save wizard session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	redirect(w, r, "/")
}

// Start leaves the landing page, prefilling the address from the visitor's
// approximate location when it can be detected.
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.step(w, r, model.PageLanding)
	if !ok {
		return
	}

	d := h.geo.Detect(r.Context(), middleware.RealIP(r))
	if d.Detected {
		s.DetectedLat, s.DetectedLon = &d.Latitude, &d.Longitude
		addr := h.geo.Reverse(r.Context(), d.Latitude, d.Longitude)
		if addr.Found {
			s.DetectedIsland = addr.Island
			s.DetectedSettlement = addr.Settlement
			s.DetectedStreet = addr.Street
		}
	}
	h.advance(w, r, s)
}

func registrationInput(r *http.Request) model.RegistrationInput {
	return model.RegistrationInput{
		FirstName:            r.PostFormValue("first_name"),
		LastName:             r.PostFormValue("last_name"),
		Email:                r.PostFormValue("email"),
		Telephone:            r.PostFormValue("telephone"),
		Cell:                 r.PostFormValue("cell"),
		CommunicationMethods: r.PostForm["communication_methods"],
		InterviewMethods:     r.PostForm["interview_methods"],
		Island:               r.PostFormValue("island"),
		Settlement:           r.PostFormValue("settlement"),
		StreetAddress:        r.PostFormValue("street_address"),
	}
}

// Register saves the registration step. Declining consent ends the flow
// without writing anything.
func (h *WizardHandler) Register(w http.ResponseWriter, r *http.Request) {
	s, reg, ok := h.step(w, r, model.PageRegistration)
	if !ok {
		return
	}

	consent := r.PostFormValue("consent")
	in := registrationInput(r)
	data := h.render.page(r, "")
	data["Form"] = in
	data["Consent"] = consent

	switch {
	case consent == "":
		data["Errors"] = []string{"Choose whether you wish to participate"}
		h.show(w, r, http.StatusUnprocessableEntity, s, reg, data)
		return
	case consent != h.catalog.ConsentGiven():
		if !h.catalog.Consent.Contains(consent) {
			http.Error(w, "invalid consent", http.StatusBadRequest)
			return
		}
		h.render.Page(w, http.StatusOK, "declined.html", h.render.page(r, "Thank you"))
		return
	}

	if err := wizard.ValidateRegistration(h.catalog, &in); err != nil {
		data["Form"] = in
		data["Errors"] = validate.Messages(err)
		h.show(w, r, http.StatusUnprocessableEntity, s, reg, data)
		return
	}

	if reg != nil {
		reg, err := h.regStore.Update(reg.ID, in)
		if err != nil {
			h.logger.Error("update registration", "error", err)
			http.Error(w, "failed to save registration", http.StatusInternalServerError)
			return
		}
		h.hub.Broadcast(ws.RegistrationMessage(ws.ActionUpdated, reg.ID, reg.Island))
	} else {
		reg, err := h.regStore.Create(in)
		if err != nil {
			h.logger.Error("create registration", "error", err)
			http.Error(w, "failed to save registration", http.StatusInternalServerError)
			return
		}
		s.RegistrationID = &reg.ID
		h.hub.Broadcast(ws.RegistrationMessage(ws.ActionCreated, reg.ID, reg.Island))
	}
	h.advance(w, r, s)
}

func (h *WizardHandler) Availability(w http.ResponseWriter, r *http.Request) {
	s, reg, ok := h.step(w, r, model.PageAvailability)
	if !ok {
		return
	}

	days, times, err := wizard.ValidateAvailability(h.catalog, r.PostForm["days"], r.PostForm["times"])
	if err != nil {
		data := h.render.page(r, "")
		data["Days"] = r.PostForm["days"]
		data["Times"] = r.PostForm["times"]
		data["Errors"] = validate.Messages(err)
		h.show(w, r, http.StatusUnprocessableEntity, s, reg, data)
		return
	}

	if _, err := h.regStore.SetAvailability(reg.ID, days, times); err != nil {
		h.logger.Error("save availability", "error", err)
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}
	h.advance(w, r, s)
}

// parseCoordinates reads and normalizes a latitude/longitude pair.
func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, okLat := formFloat(latStr)
	lon, okLon := formFloat(lonStr)
	if !okLat || !okLon {
		return 0, 0, validate.Errors{"Enter a latitude and longitude, or skip this step"}
	}
	lon = geo.NormalizeLongitude(lon)

	var errs validate.Errors
	errs.Check(validate.Latitude(lat), "Latitude must be between -90 and 90")
	errs.Check(validate.Longitude(lon), "Longitude must be between -180 and 180")
	return lat, lon, errs.Err()
}

// Location saves or skips the holding coordinates.
func (h *WizardHandler) Location(w http.ResponseWriter, r *http.Request) {
	s, reg, ok := h.step(w, r, model.PageLocationConfirmation)
	if !ok {
		return
	}

	var latPtr, lonPtr *float64
	if r.PostFormValue("action") != "skip" {
		lat, lon, err := parseCoordinates(r.PostFormValue("latitude"), r.PostFormValue("longitude"))
		if err != nil {
			data := h.render.page(r, "")
			data["Errors"] = validate.Messages(err)
			h.show(w, r, http.StatusUnprocessableEntity, s, reg, data)
			return
		}
		latPtr, lonPtr = &lat, &lon
	}

	if _, err := h.regStore.SetLocation(reg.ID, latPtr, lonPtr); err != nil {
		h.logger.Error("save location", "error", err)
		http.Error(w, "failed to save location", http.StatusInternalServerError)
		return
	}
	h.advance(w, r, s)
}

// Confirm marks the registration final and sends the confirmation email.
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	_, reg, ok := h.step(w, r, model.PageFinalConfirmation)
	if !ok {
		return
	}
	if reg.Confirmed {
		redirect(w, r, "/")
		return
	}

	reg, err := h.regStore.Confirm(reg.ID)
	if err != nil {
		h.logger.Error("confirm registration", "error", err)
		http.Error(w, "failed to confirm registration", http.StatusInternalServerError)
		return
	}
	if reg == nil {
		redirect(w, r, "/")
		return
	}
	h.hub.Broadcast(ws.RegistrationMessage(ws.ActionConfirmed, reg.ID, reg.Island))

	if h.emailClient != nil && h.emailClient.Configured() {
		if err := h.emailClient.SendRegistrationConfirmation(r.Context(), *reg); err != nil {
			h.logger.Error("send confirmation email", "registration_id", reg.ID, "error", err)
		}
	}
	redirect(w, r, "/")
}

func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, _, err := h.session(w, r)
	if err != nil {
		h.logger.Error("load wizard session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if err := wizard.Retreat(s); err == nil {
		if err := h.wizardStore.Save(s); err != nil {
			h.logger.Error("save wizard session", "error", err)
		}
	}
	redirect(w, r, "/")
}

func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, _, err := h.session(w, r)
	if err != nil {
		h.logger.Error("load wizard session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	wizard.Reset(s)
	if err := h.wizardStore.Save(s); err != nil {
		h.logger.Error("save wizard session", "error", err)
	}
	redirect(w, r, "/")
}

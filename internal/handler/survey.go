package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dukerupert/nacp/internal/survey"
	"github.com/dukerupert/nacp/internal/validate"
)

// SurveyHandler serves the census survey to holders and their agents.
type SurveyHandler struct {
	holderStore    *store.HolderStore
	progressStore  *store.ProgressStore
	generalStore   *store.GeneralInfoStore
	householdStore *store.HouseholdStore
	labourStore    *store.LabourStore
	landUseStore   *store.LandUseStore
	machineryStore *store.MachineryStore
	catalog        *catalog.Catalog
	totalSections  int
	render         *Renderer
	logger         *slog.Logger
	now            func() time.Time
}

func NewSurveyHandler(
	holderStore *store.HolderStore,
	progressStore *store.ProgressStore,
	generalStore *store.GeneralInfoStore,
	householdStore *store.HouseholdStore,
	labourStore *store.LabourStore,
	landUseStore *store.LandUseStore,
	machineryStore *store.MachineryStore,
	c *catalog.Catalog,
	totalSections int,
	render *Renderer,
	logger *slog.Logger,
) *SurveyHandler {
	return &SurveyHandler{
		holderStore:    holderStore,
		progressStore:  progressStore,
		generalStore:   generalStore,
		householdStore: householdStore,
		labourStore:    labourStore,
		landUseStore:   landUseStore,
		machineryStore: machineryStore,
		catalog:        c,
		totalSections:  totalSections,
		render:         render,
		logger:         logger,
		now:            time.Now,
	}
}

func surveyURL(holderID int64, rest string) string {
	return "/survey/" + strconv.FormatInt(holderID, 10) + rest
}

// Start sends a holder to their own survey, creating the holding and its
// progress rows on the first visit.
func (h *SurveyHandler) Start(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	switch ac.Role {
	case model.RoleAgent:
		redirect(w, r, "/agent")
		return
	case model.RoleAdmin:
		redirect(w, r, "/admin/users")
		return
	}

	holder, err := h.holderStore.GetByOwner(ac.UserID)
	if err != nil {
		h.logger.Error("get holder", "user_id", ac.UserID, "error", err)
		http.Error(w, "failed to load holder", http.StatusInternalServerError)
		return
	}
	if holder == nil {
		holder, err = h.holderStore.Create(ac.UserID, ac.Username)
		if err != nil {
			h.logger.Error("create holder", "user_id", ac.UserID, "error", err)
			http.Error(w, "failed to create holder", http.StatusInternalServerError)
			return
		}
		h.logger.Info("holder created", "holder_id", holder.ID, "username", ac.Username)
	}
	if err := h.progressStore.Init(holder.ID, h.totalSections); err != nil {
		h.logger.Error("init progress", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to start survey", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, ""))
}

// holder loads the {holder} in the path and checks the caller may work on
// it: its owner, its assigned agent or an admin.
func (h *SurveyHandler) holder(w http.ResponseWriter, r *http.Request) (*model.Holder, bool) {
	id, err := strconv.ParseInt(r.PathValue("holder"), 10, 64)
	if err != nil {
		http.Error(w, "invalid holder id", http.StatusBadRequest)
		return nil, false
	}
	holder, err := h.holderStore.GetByID(id)
	if err != nil {
		h.logger.Error("get holder", "holder_id", id, "error", err)
		http.Error(w, "failed to load holder", http.StatusInternalServerError)
		return nil, false
	}
	if holder == nil {
		http.Error(w, "holder not found", http.StatusNotFound)
		return nil, false
	}

	ac, _ := auth.FromContext(r.Context())
	allowed := false
	switch ac.Role {
	case model.RoleAdmin:
		allowed = true
	case model.RoleHolder:
		allowed = holder.OwnerID == ac.UserID
	case model.RoleAgent:
		allowed = holder.AssignedAgentID != nil && *holder.AssignedAgentID == ac.UserID
	}
	if !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return holder, true
}

// section is holder plus the location gate: survey sections stay closed
// until the farm coordinates are set.
func (h *SurveyHandler) section(w http.ResponseWriter, r *http.Request) (*model.Holder, bool) {
	holder, ok := h.holder(w, r)
	if !ok {
		return nil, false
	}
	if !holder.HasLocation() {
		redirect(w, r, surveyURL(holder.ID, ""))
		return nil, false
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return nil, false
		}
	}
	return holder, true
}

func (h *SurveyHandler) progress(holderID int64) (survey.Progress, error) {
	rows, err := h.progressStore.List(holderID)
	if err != nil {
		return survey.Progress{}, err
	}
	return survey.Summarize(h.catalog, rows, h.totalSections), nil
}

func (h *SurveyHandler) complete(w http.ResponseWriter, r *http.Request, holderID int64, sectionID int) {
	if err := h.progressStore.MarkComplete(holderID, sectionID); err != nil {
		h.logger.Error("mark section complete", "holder_id", holderID, "section", sectionID, "error", err)
		http.Error(w, "failed to save progress", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holderID, "?saved="+strconv.Itoa(sectionID)))
}

// Dashboard shows section progress, or the location picker while the farm
// coordinates are missing.
func (h *SurveyHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.holder(w, r)
	if !ok {
		return
	}
	h.dashboard(w, r, http.StatusOK, holder, h.render.page(r, "Census survey"))
}

func (h *SurveyHandler) dashboard(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, data map[string]any) {
	p, err := h.progress(holder.ID)
	if err != nil {
		h.logger.Error("load progress", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load progress", http.StatusInternalServerError)
		return
	}
	general, err := h.generalStore.GetByHolder(holder.ID)
	if err != nil {
		h.logger.Error("load general information", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load holding profile", http.StatusInternalServerError)
		return
	}

	if id, err := strconv.Atoi(r.URL.Query().Get("saved")); err == nil {
		if s, ok := h.catalog.Section(id); ok {
			data["Flash"] = s.Name + " saved."
		}
	}
	data["Holder"] = holder
	data["Progress"] = p
	data["General"] = general
	if !holder.HasLocation() {
		data["Map"] = true
		if _, ok := data["Lat"]; !ok {
			data["Lat"], data["Lon"] = geo.Nassau.Lat(), geo.Nassau.Lon()
		}
	}
	h.render.Page(w, status, "survey_dashboard.html", data)
}

// SetLocation saves the farm coordinates. The default Nassau pin is not
// accepted here.
func (h *SurveyHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.holder(w, r)
	if !ok {
		return
	}

	lat, lon, err := parseCoordinates(r.FormValue("latitude"), r.FormValue("longitude"))
	if err == nil && geo.IsDefault(lat, lon) {
		err = validate.Errors{"Move the pin to your farm. The default Nassau location cannot be used."}
	}
	if err != nil {
		data := h.render.page(r, "Census survey")
		data["Errors"] = validate.Messages(err)
		if lat != 0 || lon != 0 {
			data["Lat"], data["Lon"] = lat, lon
		}
		h.dashboard(w, r, http.StatusUnprocessableEntity, holder, data)
		return
	}

	if _, err := h.holderStore.SetLocation(holder.ID, lat, lon); err != nil {
		h.logger.Error("set holder location", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save location", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, ""))
}

type agentHolder struct {
	Holder   model.Holder
	Progress survey.Progress
}

// Agent lists the holders assigned to the signed-in agent.
func (h *SurveyHandler) Agent(w http.ResponseWriter, r *http.Request) {
	holders, err := h.holderStore.ListByAgent(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list agent holders", "error", err)
		http.Error(w, "failed to load holders", http.StatusInternalServerError)
		return
	}

	rows := make([]agentHolder, 0, len(holders))
	for _, holder := range holders {
		p, err := h.progress(holder.ID)
		if err != nil {
			h.logger.Error("load progress", "holder_id", holder.ID, "error", err)
			http.Error(w, "failed to load progress", http.StatusInternalServerError)
			return
		}
		rows = append(rows, agentHolder{Holder: holder, Progress: p})
	}

	data := h.render.page(r, "My holders")
	data["Holders"] = rows
	h.render.Page(w, http.StatusOK, "survey_agent.html", data)
}

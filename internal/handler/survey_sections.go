package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	"github.com/dukerupert/nacp/internal/survey"
	"github.com/dukerupert/nacp/internal/validate"
)

const dateLayout = "2006-01-02"

// blankRow reports whether every listed repeated field of row i is empty.
func blankRow(form url.Values, i int, keys ...string) bool {
	for _, k := range keys {
		if strings.TrimSpace(at(form[k], i)) != "" {
			return false
		}
	}
	return true
}

// extraRows reads ?rows= as the number of blank rows to offer, default 1.
func extraRows(r *http.Request, limit int) int {
	n := formInt(r.URL.Query().Get("rows"), 1)
	return max(min(n, limit), 0)
}

func (h *SurveyHandler) sectionPage(r *http.Request, holder *model.Holder, sectionID int) map[string]any {
	s, _ := h.catalog.Section(sectionID)
	data := h.render.page(r, s.Name)
	data["Holder"] = holder
	data["Section"] = s
	return data
}

// Holder information

func (h *SurveyHandler) HolderForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	details, err := h.holderStore.ListDetails(holder.ID)
	if err != nil {
		h.logger.Error("list holder details", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load holder details", http.StatusInternalServerError)
		return
	}
	want := max(formInt(r.URL.Query().Get("count"), len(details)), 1)
	for len(details) < min(want, survey.MaxHolders) {
		details = append(details, model.HolderDetail{HolderNumber: len(details) + 1})
	}
	h.renderHolderForm(w, r, http.StatusOK, holder, details, nil)
}

func (h *SurveyHandler) renderHolderForm(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, details []model.HolderDetail, err error) {
	data := h.sectionPage(r, holder, survey.SectionHolder)
	data["Details"] = details
	data["Errors"] = validate.Messages(err)
	if len(details) < survey.MaxHolders {
		data["AddURL"] = surveyURL(holder.ID, "/holder?count="+strconv.Itoa(len(details)+1))
	}
	h.render.Page(w, status, "survey_holder.html", data)
}

func (h *SurveyHandler) SaveHolder(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	var details []model.HolderDetail
	for i := range f["full_name"] {
		dob, _ := time.Parse(dateLayout, strings.TrimSpace(at(f["date_of_birth"], i)))
		details = append(details, model.HolderDetail{
			HolderID:               holder.ID,
			HolderNumber:           i + 1,
			FullName:               strings.TrimSpace(at(f["full_name"], i)),
			Sex:                    at(f["sex"], i),
			DateOfBirth:            dob,
			Nationality:            at(f["nationality"], i),
			NationalityOther:       strings.TrimSpace(at(f["nationality_other"], i)),
			MaritalStatus:          at(f["marital_status"], i),
			HighestEducation:       at(f["highest_education"], i),
			AgriTraining:           at(f["agri_training"], i),
			PrimaryOccupation:      at(f["primary_occupation"], i),
			PrimaryOccupationOther: strings.TrimSpace(at(f["primary_occupation_other"], i)),
			SecondaryOccupation:    at(f["secondary_occupation"], i),
		})
	}

	if err := survey.ValidateHolders(h.catalog, details, h.now()); err != nil {
		h.renderHolderForm(w, r, http.StatusUnprocessableEntity, holder, details, err)
		return
	}
	if _, err := h.holderStore.SaveDetails(holder.ID, details); err != nil {
		h.logger.Error("save holder details", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save holder details", http.StatusInternalServerError)
		return
	}
	h.complete(w, r, holder.ID, survey.SectionHolder)
}

// Holding labour

type labourRow struct {
	Question catalog.Question
	Male     string
	Female   string
	Option   string
}

func (h *SurveyHandler) labourRows(responses []model.LabourResponse) []labourRow {
	byNo := make(map[int]model.LabourResponse, len(responses))
	for _, resp := range responses {
		byNo[resp.QuestionNo] = resp
	}
	rows := make([]labourRow, len(h.catalog.LabourQuestions))
	for i, q := range h.catalog.LabourQuestions {
		rows[i].Question = q
		resp, ok := byNo[q.No]
		if !ok {
			continue
		}
		if resp.Male != nil {
			rows[i].Male = strconv.Itoa(*resp.Male)
		}
		if resp.Female != nil {
			rows[i].Female = strconv.Itoa(*resp.Female)
		}
		if resp.OptionResponse != nil {
			rows[i].Option = *resp.OptionResponse
		}
	}
	return rows
}

func (h *SurveyHandler) LabourForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	responses, err := h.labourStore.ListResponses(holder.ID)
	if err != nil {
		h.logger.Error("list labour", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load labour answers", http.StatusInternalServerError)
		return
	}
	workers, err := h.labourStore.ListPermanentWorkers(holder.ID)
	if err != nil {
		h.logger.Error("list permanent workers", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load permanent workers", http.StatusInternalServerError)
		return
	}
	for range extraRows(r, 20) {
		workers = append(workers, model.PermanentWorker{})
	}
	h.renderLabourForm(w, r, http.StatusOK, holder, h.labourRows(responses), workers, nil)
}

func (h *SurveyHandler) renderLabourForm(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, rows []labourRow, workers []model.PermanentWorker, err error) {
	data := h.sectionPage(r, holder, survey.SectionLabour)
	data["Rows"] = rows
	data["Workers"] = workers
	data["Errors"] = validate.Messages(err)
	data["MoreURL"] = surveyURL(holder.ID, "/labour?rows="+strconv.Itoa(len(workers)+1))
	if r.URL.Query().Get("workers") == "saved" {
		data["Flash"] = "Permanent workers saved."
	}
	h.render.Page(w, status, "survey_labour.html", data)
}

func (h *SurveyHandler) SaveLabour(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	responses := make([]model.LabourResponse, len(h.catalog.LabourQuestions))
	rows := make([]labourRow, len(h.catalog.LabourQuestions))
	for i, q := range h.catalog.LabourQuestions {
		key := "q" + strconv.Itoa(q.No)
		rows[i] = labourRow{
			Question: q,
			Male:     f.Get(key + "_male"),
			Female:   f.Get(key + "_female"),
			Option:   f.Get(key + "_option"),
		}
		responses[i] = model.LabourResponse{HolderID: holder.ID, QuestionNo: q.No}
		if q.Kind == "count" {
			if strings.TrimSpace(rows[i].Male) != "" {
				m := formInt(rows[i].Male, -1)
				responses[i].Male = &m
			}
			if strings.TrimSpace(rows[i].Female) != "" {
				fm := formInt(rows[i].Female, -1)
				responses[i].Female = &fm
			}
		} else if rows[i].Option != "" {
			opt := rows[i].Option
			responses[i].OptionResponse = &opt
		}
	}

	if err := survey.PrepareLabour(h.catalog, responses); err != nil {
		workers, _ := h.labourStore.ListPermanentWorkers(holder.ID)
		h.renderLabourForm(w, r, http.StatusUnprocessableEntity, holder, rows, workers, err)
		return
	}
	if _, err := h.labourStore.SaveResponses(holder.ID, responses); err != nil {
		h.logger.Error("save labour", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save labour answers", http.StatusInternalServerError)
		return
	}
	h.complete(w, r, holder.ID, survey.SectionLabour)
}

var workerFields = []string{"position_title", "sex", "age_group", "nationality", "education_level", "agri_training", "main_duties", "working_time"}

// SaveWorkers replaces the permanent worker rows. Fully blank rows are ignored.
func (h *SurveyHandler) SaveWorkers(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	var workers []model.PermanentWorker
	for i := range f["position_title"] {
		if blankRow(f, i, workerFields...) {
			continue
		}
		workers = append(workers, model.PermanentWorker{
			HolderID:       holder.ID,
			PositionTitle:  formInt(at(f["position_title"], i), 0),
			Sex:            at(f["sex"], i),
			AgeGroup:       formInt(at(f["age_group"], i), 0),
			Nationality:    at(f["nationality"], i),
			EducationLevel: formInt(at(f["education_level"], i), 0),
			AgriTraining:   at(f["agri_training"], i),
			MainDuties:     formInt(at(f["main_duties"], i), 0),
			WorkingTime:    at(f["working_time"], i),
		})
	}

	if err := survey.ValidatePermanentWorkers(h.catalog, workers); err != nil {
		responses, _ := h.labourStore.ListResponses(holder.ID)
		h.renderLabourForm(w, r, http.StatusUnprocessableEntity, holder, h.labourRows(responses), workers, err)
		return
	}
	if _, err := h.labourStore.ReplacePermanentWorkers(holder.ID, workers); err != nil {
		h.logger.Error("save permanent workers", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save permanent workers", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, "/labour?workers=saved"))
}

// Household information

func (h *SurveyHandler) HouseholdForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	h.renderHouseholdForm(w, r, http.StatusOK, holder, nil, nil, nil)
}

// renderHouseholdForm shows the stored summary and members. summary and
// newMembers override the stored values when re-rendering a failed post.
func (h *SurveyHandler) renderHouseholdForm(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, summary *model.HouseholdSummary, newMembers []model.HouseholdMember, err error) {
	stored, loadErr := h.householdStore.GetSummary(holder.ID)
	if loadErr != nil {
		h.logger.Error("get household summary", "holder_id", holder.ID, "error", loadErr)
		http.Error(w, "failed to load household", http.StatusInternalServerError)
		return
	}
	members, loadErr := h.householdStore.ListMembers(holder.ID)
	if loadErr != nil {
		h.logger.Error("list household members", "holder_id", holder.ID, "error", loadErr)
		http.Error(w, "failed to load household", http.StatusInternalServerError)
		return
	}
	if summary == nil {
		summary = stored
	}
	if summary == nil {
		summary = &model.HouseholdSummary{HolderID: holder.ID}
	}

	remaining := 0
	if stored != nil {
		remaining = max(stored.TotalPersons-len(members), 0)
	}
	if newMembers == nil {
		for range min(extraRows(r, survey.MaxHouseholdPersons), remaining) {
			newMembers = append(newMembers, model.HouseholdMember{})
		}
	}

	data := h.sectionPage(r, holder, survey.SectionHousehold)
	data["Summary"] = summary
	data["HasSummary"] = stored != nil
	data["Members"] = members
	data["NewMembers"] = newMembers
	data["Remaining"] = remaining
	data["Errors"] = validate.Messages(err)
	if len(newMembers) < remaining {
		data["MoreURL"] = surveyURL(holder.ID, "/household?rows="+strconv.Itoa(len(newMembers)+1))
	}
	if r.URL.Query().Get("members") == "saved" {
		data["Flash"] = "Household members saved."
	}
	h.render.Page(w, status, "survey_household.html", data)
}

func (h *SurveyHandler) SaveHousehold(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	sum := model.HouseholdSummary{
		HolderID:         holder.ID,
		TotalPersons:     formInt(r.PostFormValue("total_persons"), -1),
		Under14Male:      formInt(r.PostFormValue("under_14_male"), -1),
		Under14Female:    formInt(r.PostFormValue("under_14_female"), -1),
		Aged14OverMale:   formInt(r.PostFormValue("aged_14_over_male"), -1),
		Aged14OverFemale: formInt(r.PostFormValue("aged_14_over_female"), -1),
	}
	err := survey.ValidateHouseholdSummary(sum)
	if err == nil {
		members, listErr := h.householdStore.ListMembers(holder.ID)
		if listErr != nil {
			h.logger.Error("list household members", "holder_id", holder.ID, "error", listErr)
			http.Error(w, "failed to load household", http.StatusInternalServerError)
			return
		}
		if sum.TotalPersons < len(members) {
			err = validate.Errors{"Total persons cannot be less than the " + strconv.Itoa(len(members)) + " members already listed"}
		}
	}
	if err != nil {
		h.renderHouseholdForm(w, r, http.StatusUnprocessableEntity, holder, &sum, []model.HouseholdMember{}, err)
		return
	}

	if _, err := h.householdStore.SaveSummary(sum); err != nil {
		h.logger.Error("save household summary", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save household", http.StatusInternalServerError)
		return
	}
	h.complete(w, r, holder.ID, survey.SectionHousehold)
}

var memberFields = []string{"relationship", "sex", "age", "education", "primary_occupation", "secondary_occupation", "working_time"}

// AddMembers appends household members up to the summary's total.
func (h *SurveyHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	members := []model.HouseholdMember{}
	for i := range f["relationship"] {
		if blankRow(f, i, memberFields...) {
			continue
		}
		m := model.HouseholdMember{
			HolderID:          holder.ID,
			Relationship:      formInt(at(f["relationship"], i), 0),
			Sex:               at(f["sex"], i),
			Age:               formInt(at(f["age"], i), -1),
			Education:         formInt(at(f["education"], i), 0),
			PrimaryOccupation: formInt(at(f["primary_occupation"], i), 0),
			WorkingTime:       at(f["working_time"], i),
		}
		if v := strings.TrimSpace(at(f["secondary_occupation"], i)); v != "" {
			n := formInt(v, 0)
			m.SecondaryOccupation = &n
		}
		members = append(members, m)
	}

	sum, err := h.householdStore.GetSummary(holder.ID)
	if err != nil {
		h.logger.Error("get household summary", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load household", http.StatusInternalServerError)
		return
	}
	existing, err := h.householdStore.ListMembers(holder.ID)
	if err != nil {
		h.logger.Error("list household members", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load household", http.StatusInternalServerError)
		return
	}
	remaining := 0
	if sum != nil {
		remaining = sum.TotalPersons - len(existing)
	}

	if err := survey.ValidateMembers(h.catalog, members, remaining); err != nil {
		h.renderHouseholdForm(w, r, http.StatusUnprocessableEntity, holder, nil, members, err)
		return
	}
	if _, err := h.householdStore.AddMembers(holder.ID, members); err != nil {
		if errors.Is(err, store.ErrHouseholdFull) {
			h.renderHouseholdForm(w, r, http.StatusUnprocessableEntity, holder, nil, members,
				validate.Errors{"The household already has as many members as its total persons"})
			return
		}
		h.logger.Error("add household members", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save household members", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, "/household?members=saved"))
}

func (h *SurveyHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.householdStore.DeleteMember(holder.ID, id); err != nil {
		h.logger.Error("delete household member", "holder_id", holder.ID, "id", id, "error", err)
		http.Error(w, "failed to delete member", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, "/household"))
}

// Land use

func (h *SurveyHandler) LandUseForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	l, err := h.landUseStore.GetByHolder(holder.ID)
	if err != nil {
		h.logger.Error("get land use", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load land use", http.StatusInternalServerError)
		return
	}
	if l == nil {
		l = &model.LandUse{HolderID: &holder.ID}
	}
	want := max(formInt(r.URL.Query().Get("parcels"), len(l.Parcels)), 1)
	for len(l.Parcels) < min(want, 50) {
		l.Parcels = append(l.Parcels, model.Parcel{ParcelNo: len(l.Parcels) + 1})
	}
	h.renderLandUseForm(w, r, http.StatusOK, holder, l, nil, nil)
}

func (h *SurveyHandler) renderLandUseForm(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, l *model.LandUse, warnings []string, err error) {
	data := h.sectionPage(r, holder, survey.SectionLandUse)
	data["LandUse"] = l
	data["Warnings"] = warnings
	data["Errors"] = validate.Messages(err)
	data["MoreURL"] = surveyURL(holder.ID, "/land-use?parcels="+strconv.Itoa(len(l.Parcels)+1))
	h.render.Page(w, status, "survey_land_use.html", data)
}

var parcelFields = []string{"parcel_total_acres", "parcel_developed_acres", "parcel_tenure", "parcel_use_of_land", "parcel_irrigated_area", "parcel_land_clearing"}

func (h *SurveyHandler) SaveLandUse(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	total, okTotal := formFloat(f.Get("total_area_acres"))
	if !okTotal {
		total = 0
	}
	l := model.LandUse{
		HolderID:         &holder.ID,
		TotalAreaAcres:   total,
		YearsAgriculture: formInt(f.Get("years_agriculture"), -1),
		MainPurpose:      f.Get("main_purpose"),
		Location:         strings.TrimSpace(f.Get("location")),
		CropMethods:      h.catalog.CropMethods.Sort(f["crop_methods"]),
	}
	for i := range f["parcel_total_acres"] {
		if blankRow(f, i, parcelFields...) {
			continue
		}
		p := model.Parcel{
			ParcelNo:     len(l.Parcels) + 1,
			Tenure:       at(f["parcel_tenure"], i),
			UseOfLand:    at(f["parcel_use_of_land"], i),
			LandClearing: at(f["parcel_land_clearing"], i),
		}
		p.TotalAcres = parseAcres(at(f["parcel_total_acres"], i))
		p.DevelopedAcres = parseAcres(at(f["parcel_developed_acres"], i))
		p.IrrigatedArea = parseAcres(at(f["parcel_irrigated_area"], i))
		l.Parcels = append(l.Parcels, p)
	}
	l.NumParcels = len(l.Parcels)

	warnings, err := survey.ValidateLandUse(h.catalog, l)
	if err != nil {
		if len(l.Parcels) == 0 {
			l.Parcels = []model.Parcel{{ParcelNo: 1}}
		}
		h.renderLandUseForm(w, r, http.StatusUnprocessableEntity, holder, &l, warnings, err)
		return
	}

	existing, err := h.landUseStore.GetByHolder(holder.ID)
	if err != nil {
		h.logger.Error("get land use", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load land use", http.StatusInternalServerError)
		return
	}
	var saved *model.LandUse
	if existing != nil {
		saved, err = h.landUseStore.Update(existing.ID, l)
	} else {
		saved, err = h.landUseStore.Create(l)
	}
	if err != nil {
		h.logger.Error("save land use", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save land use", http.StatusInternalServerError)
		return
	}
	if err := h.progressStore.MarkComplete(holder.ID, survey.SectionLandUse); err != nil {
		h.logger.Error("mark section complete", "holder_id", holder.ID, "section", survey.SectionLandUse, "error", err)
		http.Error(w, "failed to save progress", http.StatusInternalServerError)
		return
	}

	if len(warnings) > 0 {
		data := h.sectionPage(r, holder, survey.SectionLandUse)
		data["LandUse"] = saved
		data["Warnings"] = warnings
		data["Flash"] = "Land use saved. Please review the notes below."
		data["MoreURL"] = surveyURL(holder.ID, "/land-use?parcels="+strconv.Itoa(len(saved.Parcels)+1))
		h.render.Page(w, http.StatusOK, "survey_land_use.html", data)
		return
	}
	redirect(w, r, surveyURL(holder.ID, "?saved="+strconv.Itoa(survey.SectionLandUse)))
}

// parseAcres returns -1 for malformed input so the minimum checks reject it.
func parseAcres(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	v, ok := formFloat(s)
	if !ok {
		return -1
	}
	return v
}

// Agricultural machinery

type machineRow struct {
	Equipment catalog.Equipment
	Item      model.MachineryItem
}

func (h *SurveyHandler) machineRows(items []model.MachineryItem) []machineRow {
	rows := make([]machineRow, len(h.catalog.Equipment))
	for i, eq := range h.catalog.Equipment {
		rows[i].Equipment = eq
		if i < len(items) && len(items) == len(h.catalog.Equipment) {
			rows[i].Item = items[i]
		} else {
			rows[i].Item = model.MachineryItem{EquipmentName: eq.Name, HasItem: "N"}
		}
	}
	return rows
}

func (h *SurveyHandler) MachineryForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}
	items, err := h.machineryStore.List(holder.ID)
	if err != nil {
		h.logger.Error("list machinery", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load machinery", http.StatusInternalServerError)
		return
	}
	data := h.sectionPage(r, holder, survey.SectionMachinery)
	data["Rows"] = h.machineRows(items)
	h.render.Page(w, http.StatusOK, "survey_machinery.html", data)
}

func (h *SurveyHandler) SaveMachinery(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.section(w, r)
	if !ok {
		return
	}

	f := r.PostForm
	items := make([]model.MachineryItem, len(f["has_item"]))
	for i := range items {
		items[i] = model.MachineryItem{
			HolderID:             holder.ID,
			EquipmentName:        at(f["equipment_name"], i),
			HasItem:              at(f["has_item"], i),
			QuantityNew:          formInt(at(f["quantity_new"], i), 0),
			QuantityUsed:         formInt(at(f["quantity_used"], i), 0),
			QuantityOutOfService: formInt(at(f["quantity_out_of_service"], i), 0),
			Source:               at(f["source"], i),
		}
	}

	if err := survey.PrepareMachinery(h.catalog, items); err != nil {
		data := h.sectionPage(r, holder, survey.SectionMachinery)
		data["Rows"] = h.machineRows(items)
		data["Errors"] = validate.Messages(err)
		h.render.Page(w, http.StatusUnprocessableEntity, "survey_machinery.html", data)
		return
	}
	if _, err := h.machineryStore.Replace(holder.ID, items); err != nil {
		h.logger.Error("save machinery", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save machinery", http.StatusInternalServerError)
		return
	}
	h.complete(w, r, holder.ID, survey.SectionMachinery)
}

// General information

func (h *SurveyHandler) GeneralForm(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.holder(w, r)
	if !ok {
		return
	}
	g, err := h.generalStore.GetByHolder(holder.ID)
	if err != nil {
		h.logger.Error("get general information", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to load holding profile", http.StatusInternalServerError)
		return
	}
	if g == nil {
		g = &model.GeneralInformation{
			HolderID:      holder.ID,
			InterviewDate: h.now(),
			POBox:         survey.DefaultPOBox,
			Latitude:      holder.Latitude,
			Longitude:     holder.Longitude,
		}
	}
	h.renderGeneralForm(w, r, http.StatusOK, holder, g, nil)
}

func (h *SurveyHandler) renderGeneralForm(w http.ResponseWriter, r *http.Request, status int, holder *model.Holder, g *model.GeneralInformation, err error) {
	data := h.render.page(r, "General information")
	data["Holder"] = holder
	data["General"] = g
	data["Errors"] = validate.Messages(err)
	h.render.Page(w, status, "survey_general.html", data)
}

func (h *SurveyHandler) SaveGeneral(w http.ResponseWriter, r *http.Request) {
	holder, ok := h.holder(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	f := r.PostForm
	interview, _ := time.Parse(dateLayout, strings.TrimSpace(f.Get("interview_date")))
	g := model.GeneralInformation{
		HolderID:      holder.ID,
		HoldingID:     f.Get("holding_id"),
		InterviewDate: interview,
		Respondent:    strings.TrimSpace(f.Get("respondent")),
		Island:        f.Get("island"),
		Settlement:    strings.TrimSpace(f.Get("settlement")),
		StreetAddress: strings.TrimSpace(f.Get("street_address")),
		POBox:         strings.TrimSpace(f.Get("po_box")),
		LegalStatus:   f.Get("legal_status"),
	}
	var errs validate.Errors
	if v := strings.TrimSpace(f.Get("latitude")); v != "" {
		if lat, ok := formFloat(v); ok {
			g.Latitude = &lat
		} else {
			errs.Add("Latitude must be a number")
		}
	}
	if v := strings.TrimSpace(f.Get("longitude")); v != "" {
		if lon, ok := formFloat(v); ok {
			lon = geo.NormalizeLongitude(lon)
			g.Longitude = &lon
		} else {
			errs.Add("Longitude must be a number")
		}
	}

	if err := survey.ValidateGeneralInfo(h.catalog, &g); err != nil {
		errs = append(errs, validate.Messages(err)...)
	}
	if err := errs.Err(); err != nil {
		h.renderGeneralForm(w, r, http.StatusUnprocessableEntity, holder, &g, err)
		return
	}

	if _, err := h.generalStore.Upsert(g); err != nil {
		h.logger.Error("save general information", "holder_id", holder.ID, "error", err)
		http.Error(w, "failed to save holding profile", http.StatusInternalServerError)
		return
	}
	redirect(w, r, surveyURL(holder.ID, ""))
}

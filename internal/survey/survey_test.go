package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/validate"
)

var now = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func holder(dob time.Time) model.HolderDetail {
	return model.HolderDetail{
		FullName:          "John Smith",
		Sex:               "Male",
		DateOfBirth:       dob,
		Nationality:       "Bahamian",
		MaritalStatus:     "Married",
		HighestEducation:  "Primary",
		AgriTraining:      "Yes",
		PrimaryOccupation: "Agriculture",
	}
}

func TestValidateHolders(t *testing.T) {
	c := catalog.Default()
	adult := time.Date(1980, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateHolders(c, []model.HolderDetail{holder(adult)}, now))
	assert.Error(t, ValidateHolders(c, nil, now))
	assert.Error(t, ValidateHolders(c, make([]model.HolderDetail, 4), now))

	// Turns 15 the day after now.
	young := holder(time.Date(2010, 8, 16, 0, 0, 0, 0, time.UTC))
	msgs := validate.Messages(ValidateHolders(c, []model.HolderDetail{young}, now))
	assert.Equal(t, []string{"Holder 1 must be at least 15 years old"}, msgs)

	future := holder(now.AddDate(0, 0, 1))
	assert.Error(t, ValidateHolders(c, []model.HolderDetail{future}, now))

	other := holder(adult)
	other.Nationality = "Other"
	other.PrimaryOccupation = "Other"
	msgs = validate.Messages(ValidateHolders(c, []model.HolderDetail{holder(adult), other}, now))
	assert.Equal(t, []string{
		"Holder 2 nationality (other) is required",
		"Holder 2 primary occupation (other) is required",
	}, msgs)
}

func TestPrepareLabour(t *testing.T) {
	c := catalog.Default()
	responses := []model.LabourResponse{
		{QuestionNo: 2, Male: ptr(3), Female: ptr(4)},
		{QuestionNo: 5, OptionResponse: ptr("Not Applicable"), Male: ptr(1)},
	}
	require.NoError(t, PrepareLabour(c, responses))

	assert.Equal(t, 7, *responses[0].Total)
	assert.Contains(t, responses[0].QuestionText, "Permanent workers")
	assert.Nil(t, responses[0].OptionResponse)
	assert.Nil(t, responses[1].Male)
	assert.Equal(t, "Did any of your workers have work permits?", responses[1].QuestionText)
}

func TestPrepareLabourRejects(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		name string
		resp model.LabourResponse
	}{
		{"unknown question", model.LabourResponse{QuestionNo: 9}},
		{"missing counts", model.LabourResponse{QuestionNo: 3, Male: ptr(1)}},
		{"negative", model.LabourResponse{QuestionNo: 3, Male: ptr(-1), Female: ptr(0)}},
		{"total over limit", model.LabourResponse{QuestionNo: 4, Male: ptr(600), Female: ptr(600)}},
		{"missing option", model.LabourResponse{QuestionNo: 6}},
		{"bad option", model.LabourResponse{QuestionNo: 7, OptionResponse: ptr("Maybe")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, PrepareLabour(c, []model.LabourResponse{tt.resp}))
		})
	}
}

func TestValidatePermanentWorkers(t *testing.T) {
	c := catalog.Default()
	w := model.PermanentWorker{
		PositionTitle:  2,
		Sex:            "F",
		AgeGroup:       3,
		Nationality:    "NB",
		EducationLevel: 4,
		AgriTraining:   "N",
		MainDuties:     4,
		WorkingTime:    "P6",
	}
	assert.NoError(t, ValidatePermanentWorkers(c, []model.PermanentWorker{w}))
	assert.NoError(t, ValidatePermanentWorkers(c, nil))

	w.AgeGroup = 7
	assert.Error(t, ValidatePermanentWorkers(c, []model.PermanentWorker{w}))
}

func TestValidateHouseholdSummary(t *testing.T) {
	ok := model.HouseholdSummary{TotalPersons: 4, Under14Male: 1, Under14Female: 1, Aged14OverMale: 1, Aged14OverFemale: 1}
	assert.NoError(t, ValidateHouseholdSummary(ok))

	over := ok
	over.TotalPersons = 3
	msgs := validate.Messages(ValidateHouseholdSummary(over))
	assert.Equal(t, []string{"Age groups add up to 4, more than the 3 persons in the household"}, msgs)

	assert.Error(t, ValidateHouseholdSummary(model.HouseholdSummary{TotalPersons: 101}))
	assert.Error(t, ValidateHouseholdSummary(model.HouseholdSummary{TotalPersons: 2, Under14Male: -1}))
}

func TestValidateMembers(t *testing.T) {
	c := catalog.Default()
	m := model.HouseholdMember{
		Relationship:      1,
		Sex:               "F",
		Age:               40,
		Education:         4,
		PrimaryOccupation: 1,
		WorkingTime:       "F",
	}
	assert.NoError(t, ValidateMembers(c, []model.HouseholdMember{m}, 2))
	assert.Error(t, ValidateMembers(c, nil, 2))

	msgs := validate.Messages(ValidateMembers(c, []model.HouseholdMember{m, m}, 1))
	assert.Equal(t, []string{"Only 1 more household members can be added"}, msgs)

	m.SecondaryOccupation = ptr(10)
	m.Age = 121
	assert.Len(t, validate.Messages(ValidateMembers(c, []model.HouseholdMember{m}, 1)), 2)
}

func landUse() model.LandUse {
	return model.LandUse{
		TotalAreaAcres:   12.5,
		YearsAgriculture: 10,
		MainPurpose:      "For Sale Only/Commercial",
		NumParcels:       1,
		Location:         "North Andros",
		CropMethods:      []string{"Open Field", "Tunnel"},
		Parcels: []model.Parcel{{
			TotalAcres:     12.5,
			DevelopedAcres: 10,
			IrrigatedArea:  2,
			Tenure:         "privately_owned",
			UseOfLand:      "temporary_crops",
			LandClearing:   "hand_clearing",
		}},
	}
}

func TestValidateLandUse(t *testing.T) {
	c := catalog.Default()

	warnings, err := ValidateLandUse(c, landUse())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	l := landUse()
	l.Parcels[0].IrrigatedArea = 20
	warnings, err = ValidateLandUse(c, l)
	require.NoError(t, err)
	assert.Equal(t, []string{"Parcel 1 irrigated area is larger than its total acres"}, warnings)

	l = landUse()
	l.Parcels[0].DevelopedAcres = 13
	_, err = ValidateLandUse(c, l)
	assert.Error(t, err)

	l = landUse()
	l.TotalAreaAcres = 0
	l.CropMethods = nil
	msgs := validate.Messages(func() error { _, err := ValidateLandUse(c, l); return err }())
	assert.Equal(t, []string{
		"Total area (acres) must be greater than 0",
		"Select at least one crop method",
	}, msgs)

	for _, loc := range []string{"", "   "} {
		l = landUse()
		l.Location = loc
		_, err = ValidateLandUse(c, l)
		assert.Equal(t, []string{"Location cannot be empty"}, validate.Messages(err), "location %q", loc)
	}
}

func machinery(c *catalog.Catalog) []model.MachineryItem {
	items := make([]model.MachineryItem, len(c.Equipment))
	for i := range items {
		items[i] = model.MachineryItem{HasItem: "N"}
	}
	return items
}

func TestPrepareMachinery(t *testing.T) {
	c := catalog.Default()

	items := machinery(c)
	items[1] = model.MachineryItem{HasItem: "Y", QuantityNew: 1, QuantityUsed: 2, Source: "O"}
	items[6] = model.MachineryItem{HasItem: "Y", EquipmentName: " Backhoe ", QuantityUsed: 1, Source: "RL"}
	items[7] = model.MachineryItem{HasItem: "N", QuantityNew: 5, Source: "B"}
	require.NoError(t, PrepareMachinery(c, items))

	assert.Equal(t, "Tractors (below 100 horsepower)", items[1].EquipmentName)
	assert.Equal(t, "Backhoe", items[6].EquipmentName)
	assert.Equal(t, "Other (specify 2)", items[7].EquipmentName)
	assert.Zero(t, items[7].QuantityNew)
	assert.Empty(t, items[7].Source)
}

func TestPrepareMachineryRejects(t *testing.T) {
	c := catalog.Default()

	assert.Error(t, PrepareMachinery(c, machinery(c)[:8]))

	items := machinery(c)
	items[8] = model.MachineryItem{HasItem: "Y", QuantityNew: 1, Source: "O"}
	msgs := validate.Messages(PrepareMachinery(c, items))
	assert.Equal(t, []string{"Other (specify 3): enter the equipment name"}, msgs)

	items = machinery(c)
	items[0] = model.MachineryItem{HasItem: "Y", QuantityNew: 21, Source: "X"}
	assert.Len(t, validate.Messages(PrepareMachinery(c, items)), 2)

	items = machinery(c)
	items[0].HasItem = ""
	assert.Error(t, PrepareMachinery(c, items))
}

func TestValidateGeneralInfo(t *testing.T) {
	c := catalog.Default()
	g := &model.GeneralInformation{
		HoldingID:     "0123456789",
		InterviewDate: now,
		Respondent:    "John Smith",
		Island:        "Exuma",
		Settlement:    "George Town",
		StreetAddress: "Queen's Highway",
		LegalStatus:   "Cooperative",
		Latitude:      ptr(23.5),
		Longitude:     ptr(-75.8),
	}
	require.NoError(t, ValidateGeneralInfo(c, g))
	assert.Equal(t, DefaultPOBox, g.POBox)

	g.HoldingID = "12345"
	g.LegalStatus = "Pirate"
	g.Longitude = nil
	assert.Len(t, validate.Messages(ValidateGeneralInfo(c, g)), 3)

	g.HoldingID = "0123456789"
	g.LegalStatus = "Cooperative"
	g.Longitude = ptr(-75.8)
	g.StreetAddress = "  "
	assert.Equal(t, []string{"Street address is required"}, validate.Messages(ValidateGeneralInfo(c, g)))
}

func TestSummarize(t *testing.T) {
	c := catalog.Default()
	rows := []model.SectionProgress{
		{SectionID: 1, Completed: true},
		{SectionID: 2, Completed: false},
		{SectionID: 3, Completed: true},
	}

	p := Summarize(c, rows, 5)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 40, p.Percent())
	require.NotNil(t, p.Next)
	assert.Equal(t, "labour", p.Next.Slug)
	assert.False(t, p.Done())
	assert.Len(t, p.Sections, 5)

	for i := range 5 {
		rows = append(rows, model.SectionProgress{SectionID: i + 1, Completed: true})
	}
	p = Summarize(c, rows, 5)
	assert.True(t, p.Done())
	assert.Nil(t, p.Next)
}

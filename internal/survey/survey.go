// Package survey holds the validation rules and progress bookkeeping of the
// census survey sections.
package survey

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/validate"
)

// Section ids, in the order the survey presents them.
const (
	SectionHolder    = 1
	SectionLabour    = 2
	SectionHousehold = 3
	SectionLandUse   = 4
	SectionMachinery = 5
)

const (
	MaxHolders          = 3
	MinHolderAge        = 15
	MaxLabourCount      = 1000
	MaxHouseholdPersons = 100
	MaxMemberAge        = 120
	MaxLocationLen      = 200
	MaxMachineQuantity  = 20
	MaxEquipmentNameLen = 100
	DefaultPOBox        = "N-59195"
)

var holdingIDPattern = regexp.MustCompile(`^\d{10}$`)

// ValidateHolders checks one to three holder persons as of now.
func ValidateHolders(c *catalog.Catalog, details []model.HolderDetail, now time.Time) error {
	var errs validate.Errors
	if len(details) == 0 || len(details) > MaxHolders {
		errs.Add("Enter between 1 and %d holders", MaxHolders)
		return errs.Err()
	}
	for i, d := range details {
		label := "Holder " + strconv.Itoa(i+1)
		errs.Required(label+" name", d.FullName)
		errs.OneOf(label+" sex", d.Sex, c.Sex)
		switch {
		case d.DateOfBirth.IsZero():
			errs.Add("%s date of birth is required", label)
		case d.DateOfBirth.After(now):
			errs.Add("%s date of birth cannot be in the future", label)
		case d.Age(now) < MinHolderAge:
			errs.Add("%s must be at least %d years old", label, MinHolderAge)
		}
		errs.OneOf(label+" nationality", d.Nationality, c.Nationality)
		if d.Nationality == "Other" {
			errs.Required(label+" nationality (other)", d.NationalityOther)
		}
		errs.OneOf(label+" marital status", d.MaritalStatus, c.MaritalStatus)
		errs.OneOf(label+" highest education", d.HighestEducation, c.Education)
		errs.OneOf(label+" agricultural training", d.AgriTraining, c.YesNo)
		errs.OneOf(label+" primary occupation", d.PrimaryOccupation, c.Occupations)
		if d.PrimaryOccupation == "Other" {
			errs.Required(label+" primary occupation (other)", d.PrimaryOccupationOther)
		}
		if d.SecondaryOccupation != "" {
			errs.OneOf(label+" secondary occupation", d.SecondaryOccupation, c.Occupations)
		}
	}
	return errs.Err()
}

// PrepareLabour validates the labour answers and fills each question's text
// and, for count questions, the total.
func PrepareLabour(c *catalog.Catalog, responses []model.LabourResponse) error {
	var errs validate.Errors
	for i := range responses {
		r := &responses[i]
		q, ok := c.Question(r.QuestionNo)
		if !ok {
			errs.Add("Unknown labour question %d", r.QuestionNo)
			continue
		}
		r.QuestionText = q.Text
		label := "Question " + strconv.Itoa(q.No)

		if q.Kind == "count" {
			if r.Male == nil || r.Female == nil {
				errs.Add("%s needs male and female counts", label)
				continue
			}
			errs.IntRange(label+" male", *r.Male, 0, MaxLabourCount)
			errs.IntRange(label+" female", *r.Female, 0, MaxLabourCount)
			total := *r.Male + *r.Female
			errs.Check(total <= MaxLabourCount, label+" total must be at most 1000")
			r.Total = &total
			r.OptionResponse = nil
			continue
		}

		if r.OptionResponse == nil {
			errs.Add("%s needs an answer", label)
			continue
		}
		errs.OneOf(label, *r.OptionResponse, c.LabourOptions)
		r.Male, r.Female, r.Total = nil, nil, nil
	}
	return errs.Err()
}

// ValidatePermanentWorkers checks coded permanent worker rows.
func ValidatePermanentWorkers(c *catalog.Catalog, workers []model.PermanentWorker) error {
	var errs validate.Errors
	for i, w := range workers {
		label := "Worker " + strconv.Itoa(i+1)
		errs.OneOf(label+" position", strconv.Itoa(w.PositionTitle), c.Positions)
		errs.OneOf(label+" sex", w.Sex, c.MemberSex)
		errs.OneOf(label+" age group", strconv.Itoa(w.AgeGroup), c.AgeGroups)
		errs.OneOf(label+" nationality", w.Nationality, c.WorkerNationality)
		errs.OneOf(label+" education", strconv.Itoa(w.EducationLevel), c.EducationCodes)
		errs.OneOf(label+" agricultural training", w.AgriTraining, c.Training)
		errs.OneOf(label+" main duties", strconv.Itoa(w.MainDuties), c.Duties)
		errs.OneOf(label+" working time", w.WorkingTime, c.WorkingTime)
	}
	return errs.Err()
}

// ValidateHouseholdSummary rejects totals out of range and age groups that
// add up to more people than the household has.
func ValidateHouseholdSummary(s model.HouseholdSummary) error {
	var errs validate.Errors
	errs.IntRange("Total persons", s.TotalPersons, 0, MaxHouseholdPersons)
	for _, n := range []int{s.Under14Male, s.Under14Female, s.Aged14OverMale, s.Aged14OverFemale} {
		if n < 0 {
			errs.Add("Age group counts cannot be negative")
			break
		}
	}
	if s.AgeGroupTotal() > s.TotalPersons {
		errs.Add("Age groups add up to %d, more than the %d persons in the household", s.AgeGroupTotal(), s.TotalPersons)
	}
	return errs.Err()
}

// ValidateMembers checks new household members. remaining is how many more
// members the household summary allows.
func ValidateMembers(c *catalog.Catalog, members []model.HouseholdMember, remaining int) error {
	var errs validate.Errors
	if len(members) == 0 {
		errs.Add("Add at least one household member")
		return errs.Err()
	}
	if len(members) > remaining {
		errs.Add("Only %d more household members can be added", max(remaining, 0))
	}
	for i, m := range members {
		label := "Member " + strconv.Itoa(i+1)
		errs.OneOf(label+" relationship", strconv.Itoa(m.Relationship), c.Relationships)
		errs.OneOf(label+" sex", m.Sex, c.MemberSex)
		errs.IntRange(label+" age", m.Age, 0, MaxMemberAge)
		errs.OneOf(label+" education", strconv.Itoa(m.Education), c.EducationCodes)
		errs.OneOf(label+" primary occupation", strconv.Itoa(m.PrimaryOccupation), c.OccupationCodes)
		if m.SecondaryOccupation != nil {
			errs.OneOf(label+" secondary occupation", strconv.Itoa(*m.SecondaryOccupation), c.OccupationCodes)
		}
		errs.OneOf(label+" working time", m.WorkingTime, c.WorkingTime)
	}
	return errs.Err()
}

// ValidateLandUse returns blocking errors and non-blocking warnings.
func ValidateLandUse(c *catalog.Catalog, l model.LandUse) (warnings []string, err error) {
	var errs validate.Errors
	errs.FloatMin("Total area (acres)", l.TotalAreaAcres, 0, true)
	errs.Check(l.YearsAgriculture >= 0, "Years in agriculture cannot be negative")
	errs.OneOf("Main purpose", l.MainPurpose, c.MainPurposes)
	errs.Check(l.NumParcels >= 1, "Number of parcels must be at least 1")
	errs.Check(strings.TrimSpace(l.Location) != "", "Location cannot be empty")
	errs.MaxLen("Location", l.Location, MaxLocationLen)
	errs.AtLeastOne("crop method", l.CropMethods, c.CropMethods)

	for i, p := range l.Parcels {
		label := "Parcel " + strconv.Itoa(i+1)
		errs.FloatMin(label+" total acres", p.TotalAcres, 0, false)
		errs.FloatMin(label+" developed acres", p.DevelopedAcres, 0, false)
		errs.FloatMin(label+" irrigated area", p.IrrigatedArea, 0, false)
		if p.DevelopedAcres > p.TotalAcres {
			errs.Add("%s developed acres cannot exceed total acres", label)
		}
		if p.IrrigatedArea > p.TotalAcres {
			warnings = append(warnings, label+" irrigated area is larger than its total acres")
		}
		errs.OneOf(label+" tenure", p.Tenure, c.Tenure)
		errs.OneOf(label+" use of land", p.UseOfLand, c.LandUse)
		errs.OneOf(label+" land clearing", p.LandClearing, c.LandClearing)
	}
	return warnings, errs.Err()
}

// PrepareMachinery validates one row per catalog equipment entry. Fixed rows
// take the catalog name; rows a holder does not have are zeroed.
func PrepareMachinery(c *catalog.Catalog, items []model.MachineryItem) error {
	var errs validate.Errors
	if len(items) != len(c.Equipment) {
		errs.Add("Expected %d machinery rows, got %d", len(c.Equipment), len(items))
		return errs.Err()
	}
	for i := range items {
		it := &items[i]
		eq := c.Equipment[i]
		if !eq.Custom {
			it.EquipmentName = eq.Name
		}
		it.EquipmentName = strings.TrimSpace(it.EquipmentName)
		label := eq.Name

		if it.HasItem != "Y" && it.HasItem != "N" {
			errs.Add("%s: answer Yes or No", label)
			continue
		}
		if it.HasItem == "N" {
			if eq.Custom && it.EquipmentName == "" {
				it.EquipmentName = eq.Name
			}
			it.QuantityNew, it.QuantityUsed, it.QuantityOutOfService = 0, 0, 0
			it.Source = ""
			continue
		}

		if eq.Custom {
			if it.EquipmentName == "" || it.EquipmentName == eq.Name {
				errs.Add("%s: enter the equipment name", label)
			}
			errs.MaxLen(label+" name", it.EquipmentName, MaxEquipmentNameLen)
		}
		errs.IntRange(label+" new", it.QuantityNew, 0, MaxMachineQuantity)
		errs.IntRange(label+" used", it.QuantityUsed, 0, MaxMachineQuantity)
		errs.IntRange(label+" out of service", it.QuantityOutOfService, 0, MaxMachineQuantity)
		errs.OneOf(label+" source", it.Source, c.MachinerySources)
	}
	return errs.Err()
}

// ValidateGeneralInfo checks the holding profile.
func ValidateGeneralInfo(c *catalog.Catalog, g *model.GeneralInformation) error {
	var errs validate.Errors
	g.HoldingID = strings.TrimSpace(g.HoldingID)
	errs.Check(holdingIDPattern.MatchString(g.HoldingID), "Holding ID must be exactly 10 digits")
	errs.Check(!g.InterviewDate.IsZero(), "Interview date is required")
	errs.Required("Respondent", g.Respondent)
	errs.OneOf("Island", g.Island, c.Islands)
	errs.Required("Settlement/area", g.Settlement)
	errs.Required("Street address", g.StreetAddress)
	if strings.TrimSpace(g.POBox) == "" {
		g.POBox = DefaultPOBox
	}
	errs.Check(c.LegalStatus.Contains(g.LegalStatus), "Choose a legal status")
	if (g.Latitude == nil) != (g.Longitude == nil) {
		errs.Add("Enter both latitude and longitude, or neither")
	}
	if g.Latitude != nil && g.Longitude != nil {
		errs.Check(validate.Latitude(*g.Latitude), "Latitude must be between -90 and 90")
		errs.Check(validate.Longitude(*g.Longitude), "Longitude must be between -180 and 180")
	}
	return errs.Err()
}

// Progress summarizes a holder's section completion.
type Progress struct {
	Completed int
	Total     int
	Sections  []SectionState
	Next      *catalog.Section
}

// SectionState pairs a catalog section with its completion flag.
type SectionState struct {
	catalog.Section
	Completed bool
}

// Done reports whether every section is complete.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Completed >= p.Total
}

// Percent is the completed share as a whole number.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// Summarize folds stored progress rows into the catalog's section order.
// Sections beyond total are ignored; Next is the first incomplete one.
func Summarize(c *catalog.Catalog, rows []model.SectionProgress, total int) Progress {
	done := make(map[int]bool, len(rows))
	for _, r := range rows {
		done[r.SectionID] = r.Completed
	}

	p := Progress{Total: min(total, len(c.Sections))}
	for _, s := range c.Sections[:p.Total] {
		st := SectionState{Section: s, Completed: done[s.ID]}
		p.Sections = append(p.Sections, st)
		if st.Completed {
			p.Completed++
		} else if p.Next == nil {
			next := s
			p.Next = &next
		}
	}
	return p
}

// Package catalog holds the option lists offered by the registration and
// census forms. The lists live in an embedded YAML file so form options,
// validation and exports share one source.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Option is a stored code with its display label.
type Option struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// UnmarshalYAML accepts either a plain scalar (code and label are the same)
// or a {code, label} mapping.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Code = node.Value
		o.Label = node.Value
		return nil
	}
	type plain Option
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = p.Code
	}
	*o = Option(p)
	return nil
}

// List is an ordered set of options.
type List []Option

// Contains reports whether code is one of the list's codes.
func (l List) Contains(code string) bool {
	for _, o := range l {
		if o.Code == code {
			return true
		}
	}
	return false
}

// Label returns the display label for code, or code itself when unknown.
func (l List) Label(code string) string {
	for _, o := range l {
		if o.Code == code {
			return o.Label
		}
	}
	return code
}

// Codes returns the codes in list order.
func (l List) Codes() []string {
	codes := make([]string, len(l))
	for i, o := range l {
		codes[i] = o.Code
	}
	return codes
}

// Index returns the position of code, or -1.
func (l List) Index(code string) int {
	for i, o := range l {
		if o.Code == code {
			return i
		}
	}
	return -1
}

// Sort orders values by their position in the list. Unknown values sort last
// in their original relative order.
func (l List) Sort(values []string) []string {
	out := slices.Clone(values)
	slices.SortStableFunc(out, func(a, b string) int {
		ia, ib := l.Index(a), l.Index(b)
		if ia < 0 {
			ia = len(l)
		}
		if ib < 0 {
			ib = len(l)
		}
		return ia - ib
	})
	return out
}

type Question struct {
	No   int    `yaml:"no"`
	Kind string `yaml:"kind"` // "count" or "option"
	Text string `yaml:"text"`
}

type Equipment struct {
	Name   string `yaml:"name"`
	Custom bool   `yaml:"custom"`
}

type Section struct {
	ID   int    `yaml:"id"`
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type LegalStatus struct {
	Household    List `yaml:"household"`
	NonHousehold List `yaml:"non_household"`
}

// Contains reports whether s is a household or non-household legal status.
func (ls LegalStatus) Contains(s string) bool {
	return ls.Household.Contains(s) || ls.NonHousehold.Contains(s)
}

// Catalog is the full set of form options.
type Catalog struct {
	Consent              List `yaml:"consent"`
	Islands              List `yaml:"islands"`
	CommunicationMethods List `yaml:"communication_methods"`
	InterviewMethods     List `yaml:"interview_methods"`
	Days                 List `yaml:"days"`
	TimeSlots            List `yaml:"time_slots"`

	Sex           List `yaml:"sex"`
	YesNo         List `yaml:"yes_no"`
	Nationality   List `yaml:"nationality"`
	MaritalStatus List `yaml:"marital_status"`
	Education     List `yaml:"education"`
	Occupations   List `yaml:"occupations"`

	Relationships   List `yaml:"relationships"`
	MemberSex       List `yaml:"member_sex"`
	EducationCodes  List `yaml:"education_codes"`
	OccupationCodes List `yaml:"occupation_codes"`
	WorkingTime     List `yaml:"working_time"`

	LabourQuestions   []Question `yaml:"labour_questions"`
	LabourOptions     List       `yaml:"labour_options"`
	Positions         List       `yaml:"positions"`
	AgeGroups         List       `yaml:"age_groups"`
	WorkerNationality List       `yaml:"worker_nationality"`
	Training          List       `yaml:"training"`
	Duties            List       `yaml:"duties"`

	MainPurposes List `yaml:"main_purposes"`
	CropMethods  List `yaml:"crop_methods"`
	Tenure       List `yaml:"tenure"`
	LandUse      List `yaml:"land_use"`
	LandClearing List `yaml:"land_clearing"`

	Equipment        []Equipment `yaml:"equipment"`
	MachinerySources List        `yaml:"machinery_sources"`

	LegalStatus LegalStatus `yaml:"legal_status"`
	Sections    []Section   `yaml:"sections"`
}

// ConsentGiven is the consent answer that lets a registration continue.
func (c *Catalog) ConsentGiven() string {
	return c.Consent[len(c.Consent)-1].Code
}

// Question returns the labour question with the given number.
func (c *Catalog) Question(no int) (Question, bool) {
	for _, q := range c.LabourQuestions {
		if q.No == no {
			return q, true
		}
	}
	return Question{}, false
}

// Section returns the survey section with the given id.
func (c *Catalog) Section(id int) (Section, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Consent) < 2 {
		return nil, fmt.Errorf("parse catalog: consent needs a decline and an accept option")
	}
	if len(c.Islands) == 0 || len(c.Sections) == 0 {
		return nil, fmt.Errorf("parse catalog: islands and sections are required")
	}
	return &c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(defaultYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog()
}

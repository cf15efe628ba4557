// Package models defines the core domain of the ROI modeling service:
// the reference records returned by lookup collaborators, the value
// entities that make up one scenario, the RoiModel scenario entity and
// the RoiAggregate that owns a user's full set of scenarios.
package models

import "maps"

// EducationLevel represents a completed or targeted level of education.
type EducationLevel string

const (
	EducationLevelUnknown EducationLevel = ""
	LessThanHighSchool    EducationLevel = "LESS_THAN_HIGH_SCHOOL"
	HighSchool            EducationLevel = "HIGH_SCHOOL"
	SomeCollege           EducationLevel = "SOME_COLLEGE"
	Associates            EducationLevel = "ASSOCIATES"
	Bachelors             EducationLevel = "BACHELORS"
	Masters               EducationLevel = "MASTERS"
	Doctorate             EducationLevel = "DOCTORATE"
	Professional          EducationLevel = "PROFESSIONAL"
)

// IsGraduate reports whether the level is a graduate or professional degree.
func (l EducationLevel) IsGraduate() bool {
	switch l {
	case Masters, Doctorate, Professional:
		return true
	default:
		return false
	}
}

// IncomeRange is the household income bracket used for net price lookups.
type IncomeRange string

const (
	IncomeRangeUnknown   IncomeRange = ""
	Income0To30000       IncomeRange = "INCOME_0_30000"
	Income30001To48000   IncomeRange = "INCOME_30001_48000"
	Income48001To75000   IncomeRange = "INCOME_48001_75000"
	Income75001To110000  IncomeRange = "INCOME_75001_110000"
	Income110001AndAbove IncomeRange = "INCOME_110001_PLUS"
)

// CareerGoalPath records how the user approached the career goal form.
type CareerGoalPath string

const (
	CareerGoalPathUnknown CareerGoalPath = ""
	KnowCareer            CareerGoalPath = "KNOW_CAREER"
	KnowDegree            CareerGoalPath = "KNOW_DEGREE"
	KnowSchool            CareerGoalPath = "KNOW_SCHOOL"
	Explore               CareerGoalPath = "EXPLORE"
)

var (
	educationLevels = []interface{}{
		LessThanHighSchool, HighSchool, SomeCollege, Associates,
		Bachelors, Masters, Doctorate, Professional,
	}
	incomeRanges = []interface{}{
		Income0To30000, Income30001To48000, Income48001To75000,
		Income75001To110000, Income110001AndAbove,
	}
	careerGoalPaths = []interface{}{KnowCareer, KnowDegree, KnowSchool, Explore}
)

// Location is a resolved geographic reference.
type Location struct {
	ZipCode           string  `json:"zipCode"`
	CityName          string  `json:"cityName"`
	StateAbbreviation string  `json:"stateAbbreviation"`
	StateName         string  `json:"stateName,omitempty"`
	Latitude          float64 `json:"latitude,omitempty"`
	Longitude         float64 `json:"longitude,omitempty"`
}

// Occupation is a resolved O*NET occupation.
type Occupation struct {
	OnetCode           string  `json:"onetCode"`
	Title              string  `json:"title"`
	MedianAnnualSalary float64 `json:"medianAnnualSalary,omitempty"`
}

// InstructionalProgram is a resolved CIP program.
type InstructionalProgram struct {
	CipCode  string `json:"cipCode"`
	CipTitle string `json:"cipTitle"`
}

// CostOfAttendanceInfo holds the published annual expense figures of an institution.
type CostOfAttendanceInfo struct {
	TuitionAndFeesInState    float64 `json:"tuitionAndFeesInState"`
	TuitionAndFeesOutOfState float64 `json:"tuitionAndFeesOutOfState"`
	BooksAndSupplies         float64 `json:"booksAndSupplies"`
	RoomAndBoard             float64 `json:"roomAndBoard"`
	OtherExpenses            float64 `json:"otherExpenses"`
}

// Institution is a resolved post-secondary institution.
type Institution struct {
	UnitID           string                  `json:"unitId"`
	Name             string                  `json:"name"`
	City             string                  `json:"city,omitempty"`
	StateAbbr        string                  `json:"stateAbbr,omitempty"`
	ZipCode          string                  `json:"zipCode,omitempty"`
	URL              string                  `json:"url,omitempty"`
	LevelTypeName    string                  `json:"levelTypeName,omitempty"`
	StudentCount     int                     `json:"studentCount,omitempty"`
	AdmissionRate    *float64                `json:"admissionRate,omitempty"`
	GR100            *float64                `json:"gr100,omitempty"`
	GR150            *float64                `json:"gr150,omitempty"`
	GR200            *float64                `json:"gr200,omitempty"`
	CostOfAttendance CostOfAttendanceInfo    `json:"costOfAttendance"`
	AverageNetPrice  float64                 `json:"averageNetPrice,omitempty"`
	NetPriceByIncome map[IncomeRange]float64 `json:"netPriceByIncome,omitempty"`
	TestScores       []TestScores            `json:"testScoresList,omitempty"`
}

// TestScores is the 25th to 75th percentile band of admitted students for one
// test section.
type TestScores struct {
	Type              string   `json:"type"`
	Section           string   `json:"section"`
	PercentileScore25 *float64 `json:"percentileScore25,omitempty"`
	PercentileScore75 *float64 `json:"percentileScore75,omitempty"`
}

// Test types and sections as published by the reference data service.
const (
	TestTypeSAT = "SAT"
	TestTypeACT = "ACT"

	SectionMath           = "Math"
	SectionEnglish        = "English"
	SectionReadingWriting = "Evidence-Based Reading and Writing"
)

// Scores returns the band for the given test and section, or nil.
func (i *Institution) Scores(testType, section string) *TestScores {
	if i == nil {
		return nil
	}
	for k := range i.TestScores {
		if i.TestScores[k].Type == testType && i.TestScores[k].Section == section {
			return &i.TestScores[k]
		}
	}
	return nil
}

// Clone returns a copy of l; nil stays nil.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// Clone returns a copy of o; nil stays nil.
func (o *Occupation) Clone() *Occupation {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

// Clone returns a copy of p; nil stays nil.
func (p *InstructionalProgram) Clone() *InstructionalProgram {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Clone returns a deep copy of i; nil stays nil.
func (i *Institution) Clone() *Institution {
	if i == nil {
		return nil
	}
	c := *i
	c.AdmissionRate = cloneFloat(i.AdmissionRate)
	c.GR100 = cloneFloat(i.GR100)
	c.GR150 = cloneFloat(i.GR150)
	c.GR200 = cloneFloat(i.GR200)
	c.NetPriceByIncome = maps.Clone(i.NetPriceByIncome)
	if i.TestScores != nil {
		c.TestScores = make([]TestScores, len(i.TestScores))
		for k, ts := range i.TestScores {
			ts.PercentileScore25 = cloneFloat(ts.PercentileScore25)
			ts.PercentileScore75 = cloneFloat(ts.PercentileScore75)
			c.TestScores[k] = ts
		}
	}
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Package compare builds side-by-side comparison rows for the scenarios of an aggregate.
package compare

import (
	"fmt"
	"strings"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// Row is one scenario's column in the comparison table. Nil pointers render as
// "not available".
type Row struct {
	RoiModelID   string `json:"roiModelId"`
	RoiModelName string `json:"roiModelName"`
	IsReady      bool   `json:"isReady"`

	GoalCareerName            *string `json:"goalCareerName"`
	GoalLocationCity          *string `json:"goalLocationCity"`
	GoalLocationState         *string `json:"goalLocationState"`
	GoalRetirementAge         int     `json:"goalRetirementAge"`
	GoalBeginningAcademicYear int     `json:"goalBeginningAcademicYear"`
	GoalDegreeName            *string `json:"goalDegreeName"`

	InstitutionName           *string  `json:"institutionName"`
	InstitutionAddress        *string  `json:"institutionAddress"`
	InstitutionWebsite        *string  `json:"institutionWebsite"`
	InstitutionType           *string  `json:"institutionType"`
	InstitutionGraduationRate *float64 `json:"institutionGraduationRate"`
	InstitutionStudentCount   *int     `json:"institutionStudentCount"`
	AcceptanceRate            *float64 `json:"acceptanceRate"`

	ScoresSATReadingMinimum *float64 `json:"scoresSATReadingMinimum"`
	ScoresSATReadingMaximum *float64 `json:"scoresSATReadingMaximum"`
	ScoresSATMathMinimum    *float64 `json:"scoresSATMathMinimum"`
	ScoresSATMathMaximum    *float64 `json:"scoresSATMathMaximum"`
	ScoresACTReadingMinimum *float64 `json:"scoresACTReadingMinimum"`
	ScoresACTReadingMaximum *float64 `json:"scoresACTReadingMaximum"`
	ScoresACTMathMinimum    *float64 `json:"scoresACTMathMinimum"`
	ScoresACTMathMaximum    *float64 `json:"scoresACTMathMaximum"`

	EducationNetPrice          *float64 `json:"educationNetPrice"`
	EducationFederalLoanAmount float64  `json:"educationFederalLoanAmount"`
	EducationPrivateLoanAmount float64  `json:"educationPrivateLoanAmount"`
	EducationOutOfPocketCost   float64  `json:"educationOutOfPocketCost"`

	EarningsMedianSalary     *float64 `json:"earningsMedianSalary"`
	EarningsYearsToBreakEven *float64 `json:"earningsYearsToBreakEven"`
	TotalReturn              *float64 `json:"totalReturn"`
}

// Rows builds one row per scenario in insertion order.
func Rows(a *models.RoiAggregate) []Row {
	ci := a.CurrentInformation()
	rows := make([]Row, 0, a.Len())
	for _, m := range a.RoiModelList() {
		rows = append(rows, NewRow(ci, m))
	}
	return rows
}

// NewRow builds the comparison row of m under the given current information.
func NewRow(ci models.CurrentInformation, m *models.RoiModel) Row {
	goal := m.CareerGoal()
	cost := m.EducationCost()
	financing := m.EducationFinancing()
	inst := cost.Institution

	row := Row{
		RoiModelID:                 m.ID().String(),
		RoiModelName:               m.Name(),
		IsReady:                    m.IsReadyForCompare(),
		GoalRetirementAge:          goal.RetirementAge,
		GoalBeginningAcademicYear:  cost.StartYear,
		InstitutionGraduationRate:  GraduationRate(inst, cost.YearsToComplete),
		EducationFederalLoanAmount: financing.TotalFederalLoanAmount(),
		EducationPrivateLoanAmount: financing.TotalPrivateLoanAmount(),
		EducationOutOfPocketCost:   financing.TotalOutOfPocketExpenses(),
	}

	if goal.Occupation != nil {
		row.GoalCareerName = nonEmpty(goal.Occupation.Title)
		if goal.Occupation.MedianAnnualSalary > 0 {
			row.EarningsMedianSalary = ptr(goal.Occupation.MedianAnnualSalary)
		}
	}
	if goal.Location != nil {
		row.GoalLocationCity = nonEmpty(goal.Location.CityName)
		row.GoalLocationState = nonEmpty(goal.Location.StateAbbreviation)
	}
	if goal.DegreeProgram != nil {
		row.GoalDegreeName = nonEmpty(goal.DegreeProgram.CipTitle)
	}

	if inst != nil {
		row.InstitutionName = nonEmpty(inst.Name)
		row.InstitutionAddress = nonEmpty(address(inst))
		row.InstitutionWebsite = nonEmpty(inst.URL)
		row.InstitutionType = nonEmpty(inst.LevelTypeName)
		if inst.AdmissionRate != nil {
			row.AcceptanceRate = ptr(*inst.AdmissionRate)
		}
		if inst.StudentCount > 0 {
			row.InstitutionStudentCount = ptr(inst.StudentCount)
		}
		row.ScoresSATReadingMinimum, row.ScoresSATReadingMaximum = ScoreRange(inst, models.TestTypeSAT, models.SectionReadingWriting)
		row.ScoresSATMathMinimum, row.ScoresSATMathMaximum = ScoreRange(inst, models.TestTypeSAT, models.SectionMath)
		row.ScoresACTReadingMinimum, row.ScoresACTReadingMaximum = ScoreRange(inst, models.TestTypeACT, models.SectionEnglish)
		row.ScoresACTMathMinimum, row.ScoresACTMathMaximum = ScoreRange(inst, models.TestTypeACT, models.SectionMath)
	}
	if netPrice := m.NetPriceByYear(ci); len(netPrice) > 0 {
		row.EducationNetPrice = ptr(netPrice[0])
	}

	if out := m.RoiCalculatorOutput(); out != nil {
		row.EarningsYearsToBreakEven = ptr(out.YearsToBreakEven)
		row.TotalReturn = ptr(out.TotalReturn)
	}
	return row
}

// GraduationRate picks the completion rate matching the planned program length:
// 1 to 4 years uses the normal-time rate, 5 and 6 the 150% rate, 7 and 8 the
// 200% rate. Anything else falls back to the 150% rate.
func GraduationRate(inst *models.Institution, yearsToComplete int) *float64 {
	if inst == nil {
		return nil
	}
	rate := inst.GR150
	switch {
	case yearsToComplete >= 1 && yearsToComplete <= 4:
		rate = inst.GR100
	case yearsToComplete >= 7 && yearsToComplete <= 8:
		rate = inst.GR200
	}
	if rate == nil {
		return nil
	}
	return ptr(*rate)
}

// ScoreRange returns the 25th and 75th percentile scores the institution
// reports for one test section. Either end is nil when not reported.
func ScoreRange(inst *models.Institution, testType, section string) (low, high *float64) {
	scores := inst.Scores(testType, section)
	if scores == nil {
		return nil, nil
	}
	if scores.PercentileScore25 != nil {
		low = ptr(*scores.PercentileScore25)
	}
	if scores.PercentileScore75 != nil {
		high = ptr(*scores.PercentileScore75)
	}
	return low, high
}

func address(inst *models.Institution) string {
	var parts []string
	if inst.City != "" {
		parts = append(parts, inst.City)
	}
	if inst.StateAbbr != "" {
		parts = append(parts, inst.StateAbbr)
	}
	addr := strings.Join(parts, ", ")
	if inst.ZipCode != "" {
		addr = strings.TrimSpace(fmt.Sprintf("%s %s", addr, inst.ZipCode))
	}
	return addr
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return ptr(s)
}

func ptr[T any](v T) *T {
	return &v
}

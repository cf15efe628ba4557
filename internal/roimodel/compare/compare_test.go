package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

func rate(v float64) *float64 { return &v }

func TestGraduationRate(t *testing.T) {
	inst := &models.Institution{GR100: rate(0.4), GR150: rate(0.6), GR200: rate(0.7)}

	tests := []struct {
		name     string
		inst     *models.Institution
		years    int
		expected *float64
	}{
		{name: "no institution", inst: nil, years: 4, expected: nil},
		{name: "unset years", inst: inst, years: 0, expected: rate(0.6)},
		{name: "normal time", inst: inst, years: 4, expected: rate(0.4)},
		{name: "150 percent", inst: inst, years: 6, expected: rate(0.6)},
		{name: "200 percent", inst: inst, years: 8, expected: rate(0.7)},
		{name: "missing rate", inst: &models.Institution{}, years: 2, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GraduationRate(tt.inst, tt.years))
		})
	}
}

func TestScoreRange(t *testing.T) {
	inst := &models.Institution{TestScores: []models.TestScores{
		{Type: models.TestTypeSAT, Section: models.SectionReadingWriting, PercentileScore25: rate(620), PercentileScore75: rate(720)},
		{Type: models.TestTypeSAT, Section: models.SectionMath, PercentileScore25: rate(610)},
		{Type: models.TestTypeACT, Section: models.SectionEnglish, PercentileScore25: rate(26), PercentileScore75: rate(34)},
	}}

	tests := []struct {
		name         string
		inst         *models.Institution
		testType     string
		section      string
		expectedLow  *float64
		expectedHigh *float64
	}{
		{name: "no institution", inst: nil, testType: models.TestTypeSAT, section: models.SectionMath},
		{name: "sat reading", inst: inst, testType: models.TestTypeSAT, section: models.SectionReadingWriting, expectedLow: rate(620), expectedHigh: rate(720)},
		{name: "partial band", inst: inst, testType: models.TestTypeSAT, section: models.SectionMath, expectedLow: rate(610)},
		{name: "act english", inst: inst, testType: models.TestTypeACT, section: models.SectionEnglish, expectedLow: rate(26), expectedHigh: rate(34)},
		{name: "section not reported", inst: inst, testType: models.TestTypeACT, section: models.SectionMath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := ScoreRange(tt.inst, tt.testType, tt.section)
			assert.Equal(t, tt.expectedLow, low)
			assert.Equal(t, tt.expectedHigh, high)
		})
	}
}

func TestRows(t *testing.T) {
	a, err := models.NewDefaultRoiAggregate()
	require.NoError(t, err)
	require.NoError(t, a.UpdateCareerGoal(models.CareerGoal{
		Location:      &models.Location{CityName: "Austin", StateAbbreviation: "TX"},
		Occupation:    &models.Occupation{OnetCode: "15-1252.00", Title: "Software Developers", MedianAnnualSalary: 130000},
		DegreeLevel:   models.Bachelors,
		DegreeProgram: &models.InstructionalProgram{CipCode: "11.0701", CipTitle: "Computer Science"},
		RetirementAge: 65,
	}))
	require.NoError(t, a.UpdateEducationCost(models.EducationCost{
		Institution: &models.Institution{
			UnitID:          "228778",
			Name:            "The University of Texas at Austin",
			City:            "Austin",
			StateAbbr:       "TX",
			ZipCode:         "78712",
			GR100:           rate(0.7),
			AverageNetPrice: 17000,
			TestScores: []models.TestScores{
				{Type: models.TestTypeSAT, Section: models.SectionReadingWriting, PercentileScore25: rate(620), PercentileScore75: rate(720)},
				{Type: models.TestTypeSAT, Section: models.SectionMath, PercentileScore25: rate(640), PercentileScore75: rate(780)},
				{Type: models.TestTypeACT, Section: models.SectionEnglish, PercentileScore25: rate(26), PercentileScore75: rate(35)},
				{Type: models.TestTypeACT, Section: models.SectionMath, PercentileScore25: rate(27), PercentileScore75: rate(34)},
			},
			CostOfAttendance: models.CostOfAttendanceInfo{
				TuitionAndFeesInState: 11000,
				RoomAndBoard:          12000,
			},
		},
		StartYear:       2027,
		IsFullTime:      true,
		YearsToComplete: 4,
	}))
	require.NoError(t, a.UpdateEducationFinancing(models.EducationFinancing{
		FederalSubsidizedLoanAmountByYear:   []float64{3500, 4500},
		FederalUnsubsidizedLoanAmountByYear: []float64{2000, 2000},
		PrivateLoanAmountByYear:             []float64{5000},
		OutOfPocketExpensesByYear:           []float64{1000, 1000, 1000, 1000},
	}))
	require.NoError(t, a.UpdateRoiCalculatorOutput(&models.CalculatorOutput{YearsToBreakEven: 6.5, TotalReturn: 900000}))
	_, err = a.CreateEmptyRoiModel("")
	require.NoError(t, err)

	rows := Rows(a)
	require.Len(t, rows, 2)

	ready := rows[0]
	assert.True(t, ready.IsReady)
	assert.Equal(t, "Software Developers", *ready.GoalCareerName)
	assert.Equal(t, "Austin", *ready.GoalLocationCity)
	assert.Equal(t, "Computer Science", *ready.GoalDegreeName)
	assert.Equal(t, "Austin, TX 78712", *ready.InstitutionAddress)
	assert.Equal(t, 0.7, *ready.InstitutionGraduationRate)
	assert.Equal(t, 17000.0, *ready.EducationNetPrice)
	assert.Equal(t, 12000.0, ready.EducationFederalLoanAmount)
	assert.Equal(t, 5000.0, ready.EducationPrivateLoanAmount)
	assert.Equal(t, 4000.0, ready.EducationOutOfPocketCost)
	assert.Equal(t, 130000.0, *ready.EarningsMedianSalary)
	assert.Equal(t, 6.5, *ready.EarningsYearsToBreakEven)
	assert.Nil(t, ready.InstitutionWebsite)
	assert.Equal(t, rate(620), ready.ScoresSATReadingMinimum)
	assert.Equal(t, rate(720), ready.ScoresSATReadingMaximum)
	assert.Equal(t, rate(640), ready.ScoresSATMathMinimum)
	assert.Equal(t, rate(780), ready.ScoresSATMathMaximum)
	assert.Equal(t, rate(26), ready.ScoresACTReadingMinimum)
	assert.Equal(t, rate(35), ready.ScoresACTReadingMaximum)
	assert.Equal(t, rate(27), ready.ScoresACTMathMinimum)
	assert.Equal(t, rate(34), ready.ScoresACTMathMaximum)

	empty := rows[1]
	assert.False(t, empty.IsReady)
	assert.Equal(t, "Model 2", empty.RoiModelName)
	assert.Nil(t, empty.InstitutionName)
	assert.Nil(t, empty.EducationNetPrice)
	assert.Nil(t, empty.TotalReturn)
	assert.Nil(t, empty.ScoresSATMathMinimum)
	assert.Zero(t, empty.EducationFederalLoanAmount)
}

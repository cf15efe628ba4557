package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

const (
	// DefaultModelName prefixes every generated scenario name ("Model 1", "Model 2", ...).
	DefaultModelName     = "Model"
	DefaultRadiusInMiles = 50

	costGrowthRate        = 0.03
	partTimeTuitionFactor = 0.5
)

var now = time.Now

// RoiModelProps is the full property set of a scenario.
type RoiModelProps struct {
	Name                   string
	CareerGoal             CareerGoal
	EducationCost          EducationCost
	EducationFinancing     EducationFinancing
	RoiCalculatorInput     *CalculatorInput
	RoiCalculatorInputHash string
	RoiCalculatorOutput    *CalculatorOutput
	RadiusInMiles          int
	DateCreated            time.Time
	LastUpdated            time.Time
}

// DefaultRoiModelProps returns the property set of an empty scenario.
func DefaultRoiModelProps() RoiModelProps {
	return RoiModelProps{
		Name:               DefaultModelName,
		CareerGoal:         DefaultCareerGoal(),
		EducationCost:      DefaultEducationCost(),
		EducationFinancing: DefaultEducationFinancing(),
		RadiusInMiles:      DefaultRadiusInMiles,
	}
}

// RoiModel is one named scenario: a career goal, an education plan and its financing.
// Its identity never changes once assigned.
type RoiModel struct {
	id    uuid.UUID
	props RoiModelProps
}

// NewRoiModel validates props and builds a scenario. A nil id gets a fresh one.
func NewRoiModel(props RoiModelProps, id uuid.UUID) (*RoiModel, error) {
	props.Name = strings.TrimSpace(props.Name)
	props = props.clone()

	err := validation.ValidateStruct(&props,
		validation.Field(&props.Name, validation.Required),
		validation.Field(&props.RadiusInMiles, validation.Min(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: roi model: %v", e.ErrInvalidInput, err)
	}
	if err := props.CareerGoal.Validate(); err != nil {
		return nil, err
	}
	if err := props.EducationCost.Validate(); err != nil {
		return nil, err
	}
	if err := props.EducationFinancing.Validate(); err != nil {
		return nil, err
	}

	if id == uuid.Nil {
		id = uuid.New()
	}
	if props.DateCreated.IsZero() {
		props.DateCreated = now().UTC()
	}
	if props.LastUpdated.IsZero() {
		props.LastUpdated = props.DateCreated
	}
	return &RoiModel{id: id, props: props}, nil
}

func (m *RoiModel) ID() uuid.UUID                          { return m.id }
func (m *RoiModel) Name() string                           { return m.props.Name }
func (m *RoiModel) CareerGoal() CareerGoal                 { return m.props.CareerGoal.Clone() }
func (m *RoiModel) EducationCost() EducationCost           { return m.props.EducationCost.Clone() }
func (m *RoiModel) EducationFinancing() EducationFinancing { return m.props.EducationFinancing.Clone() }
func (m *RoiModel) RadiusInMiles() int                     { return m.props.RadiusInMiles }
func (m *RoiModel) DateCreated() time.Time                 { return m.props.DateCreated }
func (m *RoiModel) LastUpdated() time.Time                 { return m.props.LastUpdated }
func (m *RoiModel) Hash() string                           { return m.props.RoiCalculatorInputHash }
func (m *RoiModel) RoiCalculatorInput() *CalculatorInput   { return m.props.RoiCalculatorInput.Clone() }
func (m *RoiModel) RoiCalculatorOutput() *CalculatorOutput { return m.props.RoiCalculatorOutput.Clone() }

// Props returns a deep copy of the full property set.
func (m *RoiModel) Props() RoiModelProps {
	return m.props.clone()
}

func (p RoiModelProps) clone() RoiModelProps {
	p.CareerGoal = p.CareerGoal.Clone()
	p.EducationCost = p.EducationCost.Clone()
	p.EducationFinancing = p.EducationFinancing.Clone()
	p.RoiCalculatorInput = p.RoiCalculatorInput.Clone()
	p.RoiCalculatorOutput = p.RoiCalculatorOutput.Clone()
	return p
}

func (m *RoiModel) touch() {
	m.props.LastUpdated = now().UTC()
}

// UpdateRoiModelName renames the scenario.
func (m *RoiModel) UpdateRoiModelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: roi model name is required", e.ErrInvalidInput)
	}
	m.props.Name = name
	m.touch()
	return nil
}

// UpdateCareerGoal replaces the career goal wholesale.
func (m *RoiModel) UpdateCareerGoal(g CareerGoal) error {
	g, err := NewCareerGoal(g)
	if err != nil {
		return err
	}
	m.props.CareerGoal = g
	m.touch()
	return nil
}

// UpdateEducationCost replaces the education cost wholesale.
func (m *RoiModel) UpdateEducationCost(c EducationCost) error {
	c, err := NewEducationCost(c)
	if err != nil {
		return err
	}
	m.props.EducationCost = c
	m.touch()
	return nil
}

// UpdateEducationFinancing replaces the financing wholesale.
func (m *RoiModel) UpdateEducationFinancing(f EducationFinancing) error {
	f, err := NewEducationFinancing(f)
	if err != nil {
		return err
	}
	m.props.EducationFinancing = f
	m.touch()
	return nil
}

// UpdateRoiCalculatorOutput stores the calculator projection.
func (m *RoiModel) UpdateRoiCalculatorOutput(out *CalculatorOutput) {
	m.props.RoiCalculatorOutput = out.Clone()
}

func (m *RoiModel) ClearCareerGoalLocation()           { m.props.CareerGoal.Location = nil }
func (m *RoiModel) ClearCareerGoalOccupation()         { m.props.CareerGoal.Occupation = nil }
func (m *RoiModel) ClearCareerGoalDegreeLevel()        { m.props.CareerGoal.DegreeLevel = EducationLevelUnknown }
func (m *RoiModel) ClearCareerGoalDegreeProgram()      { m.props.CareerGoal.DegreeProgram = nil }
func (m *RoiModel) ClearCareerGoalRetirementAge()      { m.props.CareerGoal.RetirementAge = 0 }
func (m *RoiModel) ClearEducationCostInstitution()     { m.props.EducationCost.Institution = nil }
func (m *RoiModel) ClearEducationCostStartYear()       { m.props.EducationCost.StartYear = 0 }
func (m *RoiModel) ClearEducationCostYearsToComplete() { m.props.EducationCost.YearsToComplete = 0 }

// ClearEducationCostPartTimeFullTime restores the default enrollment intensity.
func (m *RoiModel) ClearEducationCostPartTimeFullTime() {
	m.props.EducationCost.IsFullTime = DefaultEducationCost().IsFullTime
}

// IsDefault reports whether every sub-entity still equals its default values.
func (m *RoiModel) IsDefault() bool {
	return m.props.CareerGoal.IsDefault() &&
		m.props.EducationCost.IsDefault() &&
		m.props.EducationFinancing.IsDefault()
}

// IsReadyForCompare reports whether the scenario has enough data to be compared.
func (m *RoiModel) IsReadyForCompare() bool {
	g := m.props.CareerGoal
	return g.Occupation != nil &&
		g.DegreeLevel != EducationLevelUnknown &&
		g.DegreeProgram != nil &&
		m.props.EducationCost.Institution != nil
}

// yearsInProgram is the length of the derived per-year sequences.
func (m *RoiModel) yearsInProgram() int {
	if m.props.EducationCost.Institution == nil {
		return 0
	}
	return max(m.props.EducationCost.YearsToComplete, 0)
}

func (m *RoiModel) annualCostOfAttendance(ci CurrentInformation) float64 {
	cost := m.props.EducationCost
	coa := cost.Institution.CostOfAttendance

	tuition := coa.TuitionAndFeesOutOfState
	if tuition == 0 || isInState(ci, cost.Institution) {
		tuition = coa.TuitionAndFeesInState
	}
	if !cost.IsFullTime {
		tuition *= partTimeTuitionFactor
	}
	return tuition + coa.BooksAndSupplies + coa.RoomAndBoard + coa.OtherExpenses
}

func (m *RoiModel) annualNetPrice(ci CurrentInformation) float64 {
	cost := m.props.EducationCost
	inst := cost.Institution

	price, ok := inst.NetPriceByIncome[cost.IncomeRange]
	if !ok || price <= 0 {
		price = inst.AverageNetPrice
	}
	if price <= 0 {
		return m.annualCostOfAttendance(ci)
	}
	if !cost.IsFullTime {
		price *= partTimeTuitionFactor
	}
	return price
}

// CostOfAttendanceByYear derives the yearly cost of attendance over the program.
func (m *RoiModel) CostOfAttendanceByYear(ci CurrentInformation) []float64 {
	out := make([]float64, m.yearsInProgram())
	if len(out) == 0 {
		return out
	}
	annual := m.annualCostOfAttendance(ci)
	for i := range out {
		out[i] = roundCents(annual * growth(i))
	}
	return out
}

// NetPriceByYear derives the yearly net price, capped at the cost of attendance.
func (m *RoiModel) NetPriceByYear(ci CurrentInformation) []float64 {
	coa := m.CostOfAttendanceByYear(ci)
	out := make([]float64, len(coa))
	if len(out) == 0 {
		return out
	}
	annual := m.annualNetPrice(ci)
	for i := range out {
		out[i] = min(roundCents(annual*growth(i)), coa[i])
	}
	return out
}

// OutOfPocketExpensesByYear derives what remains of the net price after loans and Pell grants.
func (m *RoiModel) OutOfPocketExpensesByYear(ci CurrentInformation) []float64 {
	net := m.NetPriceByYear(ci)
	f := m.props.EducationFinancing
	out := make([]float64, len(net))
	for i := range out {
		covered := amountAt(f.FederalSubsidizedLoanAmountByYear, i) +
			amountAt(f.FederalUnsubsidizedLoanAmountByYear, i) +
			amountAt(f.PrivateLoanAmountByYear, i) +
			amountAt(f.PellGrantAidByYear, i)
		out[i] = max(roundCents(net[i]-covered), 0)
	}
	return out
}

// GrantOrScholarshipAidExcludingPellGrant is the institutional aid over the
// program: the gap between cost of attendance and net price, summed by year.
func (m *RoiModel) GrantOrScholarshipAidExcludingPellGrant(ci CurrentInformation) float64 {
	coa := m.CostOfAttendanceByYear(ci)
	net := m.NetPriceByYear(ci)
	var total float64
	for i := range coa {
		total += max(coa[i]-net[i], 0)
	}
	return roundCents(total)
}

// Efc is the expected family contribution over the program: the net price
// left once Pell grants are applied, summed by year.
func (m *RoiModel) Efc(ci CurrentInformation) float64 {
	net := m.NetPriceByYear(ci)
	pell := m.props.EducationFinancing.PellGrantAidByYear
	var total float64
	for i := range net {
		total += max(net[i]-amountAt(pell, i), 0)
	}
	return roundCents(total)
}

// LoanLimits derives the federal loan limits for the program.
func (m *RoiModel) LoanLimits() LoanLimits {
	return FederalLoanLimits(
		m.props.CareerGoal.DegreeLevel,
		m.props.EducationFinancing.IsTaxDependent,
		m.yearsInProgram(),
	)
}

// BuildRoiCalculatorInput assembles the calculator input from the scenario and ci.
func (m *RoiModel) BuildRoiCalculatorInput(ci CurrentInformation) *CalculatorInput {
	g := m.props.CareerGoal
	c := m.props.EducationCost
	f := m.props.EducationFinancing

	in := &CalculatorInput{
		CurrentAge:                          ci.Age,
		CurrentEducationLevel:               ci.EducationLevel,
		GoalDegreeLevel:                     g.DegreeLevel,
		RetirementAge:                       g.RetirementAge,
		RadiusInMiles:                       m.props.RadiusInMiles,
		StartYear:                           c.StartYear,
		IsFullTime:                          c.IsFullTime,
		YearsToComplete:                     c.YearsToComplete,
		CostOfAttendanceByYear:              m.CostOfAttendanceByYear(ci),
		NetPriceByYear:                      m.NetPriceByYear(ci),
		OutOfPocketExpensesByYear:           m.OutOfPocketExpensesByYear(ci),
		FederalSubsidizedLoanAmountByYear:   cloneAmounts(f.FederalSubsidizedLoanAmountByYear),
		FederalUnsubsidizedLoanAmountByYear: cloneAmounts(f.FederalUnsubsidizedLoanAmountByYear),
		PrivateLoanAmountByYear:             cloneAmounts(f.PrivateLoanAmountByYear),
		PellGrantAidByYear:                  cloneAmounts(f.PellGrantAidByYear),
		IsTaxDependent:                      f.IsTaxDependent,
		PrefersIncomeBasedRepayment:         f.PrefersIncomeBasedRepayment,
		YearsToPayOffFederalLoan:            f.YearsToPayOffFederalLoan,
		YearsToPayOffPrivateLoan:            f.YearsToPayOffPrivateLoan,
	}
	if ci.Occupation != nil {
		in.CurrentOnetCode = ci.Occupation.OnetCode
	}
	if ci.Location != nil {
		in.CurrentZipCode = ci.Location.ZipCode
	}
	if g.Occupation != nil {
		in.GoalOnetCode = g.Occupation.OnetCode
	}
	if g.Location != nil {
		in.GoalZipCode = g.Location.ZipCode
	}
	if g.DegreeProgram != nil {
		in.GoalCipCode = g.DegreeProgram.CipCode
	}
	if c.Institution != nil {
		in.InstitutionUnitID = c.Institution.UnitID
	}
	return in
}

// CalculateRoiCalculatorInput rebuilds the calculator input and its hash and
// reports whether the calculator needs to run: always on first computation,
// afterwards only when the hash changed.
func (m *RoiModel) CalculateRoiCalculatorInput(ci CurrentInformation) (bool, error) {
	in := m.BuildRoiCalculatorInput(ci)
	hash, err := in.Hash()
	if err != nil {
		return false, err
	}

	shouldRun := m.props.RoiCalculatorInputHash == "" || m.props.RoiCalculatorInputHash != hash
	m.props.RoiCalculatorInput = in
	m.props.RoiCalculatorInputHash = hash
	return shouldRun, nil
}

type roiModelJSON struct {
	ID                  uuid.UUID          `json:"id"`
	Name                string             `json:"name"`
	CareerGoal          CareerGoal         `json:"careerGoal"`
	EducationCost       EducationCost      `json:"educationCost"`
	EducationFinancing  EducationFinancing `json:"educationFinancing"`
	RadiusInMiles       int                `json:"radiusInMiles"`
	RoiCalculatorHash   string             `json:"roiCalculatorInputHash,omitempty"`
	RoiCalculatorInput  *CalculatorInput   `json:"roiCalculatorInput,omitempty"`
	RoiCalculatorOutput *CalculatorOutput  `json:"roiCalculatorOutput,omitempty"`
	DateCreated         time.Time          `json:"dateCreated"`
	LastUpdated         time.Time          `json:"lastUpdated"`
}

// MarshalJSON renders the scenario for aggregate summaries.
func (m *RoiModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(roiModelJSON{
		ID:                  m.id,
		Name:                m.props.Name,
		CareerGoal:          m.props.CareerGoal,
		EducationCost:       m.props.EducationCost,
		EducationFinancing:  m.props.EducationFinancing,
		RadiusInMiles:       m.props.RadiusInMiles,
		RoiCalculatorHash:   m.props.RoiCalculatorInputHash,
		RoiCalculatorInput:  m.props.RoiCalculatorInput,
		RoiCalculatorOutput: m.props.RoiCalculatorOutput,
		DateCreated:         m.props.DateCreated,
		LastUpdated:         m.props.LastUpdated,
	})
}

func isInState(ci CurrentInformation, inst *Institution) bool {
	return ci.Location != nil && inst.StateAbbr != "" &&
		strings.EqualFold(ci.Location.StateAbbreviation, inst.StateAbbr)
}

func growth(year int) float64 {
	return math.Pow(1+costGrowthRate, float64(year))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

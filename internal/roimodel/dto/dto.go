// Package dto holds the transfer objects exchanged with API clients,
// persistence and the calculator.
package dto

import (
	"slices"
	"time"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

type CurrentInformationDto struct {
	CurrentAge     int                   `json:"currentAge"`
	Occupation     *models.Occupation    `json:"occupation,omitempty"`
	Location       *models.Location      `json:"location,omitempty"`
	EducationLevel models.EducationLevel `json:"educationLevel"`
}

type CareerGoalDto struct {
	Location           *models.Location             `json:"location,omitempty"`
	Occupation         *models.Occupation           `json:"occupation,omitempty"`
	DegreeLevel        models.EducationLevel        `json:"degreeLevel"`
	DegreeProgram      *models.InstructionalProgram `json:"degreeProgram,omitempty"`
	RetirementAge      int                          `json:"retirementAge"`
	CareerGoalPathType models.CareerGoalPath        `json:"careerGoalPathType"`
}

type EducationCostDto struct {
	Institution           *models.Institution `json:"institution,omitempty"`
	StartYear             int                 `json:"startYear"`
	IncomeRange           models.IncomeRange  `json:"incomeRange"`
	IsFulltime            bool                `json:"isFulltime"`
	YearsToCompleteDegree int                 `json:"yearsToCompleteDegree"`
}

// EducationFinancingDto mirrors EducationFinancing. FederalLoanAmountByYear is
// derived on output and ignored on input.
type EducationFinancingDto struct {
	IsTaxDependent                      bool      `json:"isTaxDependent"`
	PrefersIncomeBasedRepayment         bool      `json:"prefersIncomeBasedRepayment"`
	OutOfPocketExpensesByYear           []float64 `json:"outOfPocketExpensesByYear"`
	FederalSubsidizedLoanAmountByYear   []float64 `json:"federalSubsidizedLoanAmountByYear"`
	FederalUnsubsidizedLoanAmountByYear []float64 `json:"federalUnsubsidizedLoanAmountByYear"`
	FederalLoanAmountByYear             []float64 `json:"federalLoanAmountByYear"`
	PrivateLoanAmountByYear             []float64 `json:"privateLoanAmountByYear"`
	PellGrantAidByYear                  []float64 `json:"pellGrantAidByYear"`
	YearsToPayOffFederalLoan            int       `json:"yearsToPayOffFederalLoan"`
	YearsToPayOffPrivateLoan            int       `json:"yearsToPayOffPrivateLoan"`
}

// RoiModelDto is the flattened view of one scenario together with the shared
// current information and every derived sequence.
type RoiModelDto struct {
	ID                 string                 `json:"id,omitempty"`
	Name               string                 `json:"name"`
	CurrentInformation *CurrentInformationDto `json:"currentInformation,omitempty"`

	CareerGoal             *CareerGoalDto           `json:"careerGoal,omitempty"`
	EducationCost          *EducationCostDto        `json:"educationCost,omitempty"`
	EducationFinancing     *EducationFinancingDto   `json:"educationFinancing,omitempty"`
	RoiCalculatorInput     *models.CalculatorInput  `json:"roiCalculatorInput,omitempty"`
	RoiCalculatorInputHash string                   `json:"roiCalculatorInputHash,omitempty"`
	RoiCalculatorOutput    *models.CalculatorOutput `json:"roiCalculatorOutput,omitempty"`
	RadiusInMiles          int                      `json:"radiusInMiles"`
	DateCreated            time.Time                `json:"dateCreated"`
	LastUpdated            time.Time                `json:"lastUpdated"`

	CostOfAttendanceByYear             []float64 `json:"costOfAttendanceByYear"`
	NetPriceByYear                     []float64 `json:"netPriceByYear"`
	FederalSubsidizedLoanLimitByYear   []float64 `json:"federalSubsidizedLoanLimitByYear"`
	FederalUnsubsidizedLoanLimitByYear []float64 `json:"federalUnsubsidizedLoanLimitByYear"`
	OutOfPocketExpensesByYear          []float64 `json:"outOfPocketExpensesByYear"`

	GrantOrScholarshipAidExcludingPellGrant float64 `json:"grantOrScholarshipAidExcludingPellGrant"`
	Efc                                     float64 `json:"efc"`

	IsDefaultModel    bool `json:"isDefaultModel"`
	IsReadyForCompare bool `json:"isReadyForCompare"`
}

// DialogDataToKeepModel carries the name and retain flags of a duplication.
type DialogDataToKeepModel struct {
	ModelName                            string `json:"modelName"`
	IsGoalLocationSaved                  bool   `json:"isGoalLocationSaved"`
	IsGoalOccupationSaved                bool   `json:"isGoalOccupationSaved"`
	IsGoalDegreeLevelSaved               bool   `json:"isGoalDegreeLevelSaved"`
	IsGoalDegreeProgramSaved             bool   `json:"isGoalDegreeProgramSaved"`
	IsGoalRetirementAgeSaved             bool   `json:"isGoalRetirementAgeSaved"`
	IsEducationCostInstitutionSaved      bool   `json:"isEducationCostInstitutionSaved"`
	IsEducationCostStartSchoolSaved      bool   `json:"isEducationCostStartSchoolSaved"`
	IsEducationCostPartTimeFullTimeSaved bool   `json:"isEducationCostPartTimeFullTimeSaved"`
	IsEducationCostYearsToCompleteSaved  bool   `json:"isEducationCostYearsToCompleteSaved"`
}

// AggregateDto is the complete export of an aggregate, every scenario included.
type AggregateDto struct {
	ID                 string                 `json:"id"`
	ActiveRoiModelID   string                 `json:"activeRoiModelId"`
	CurrentInformation *CurrentInformationDto `json:"currentInformation,omitempty"`
	RoiModels          []RoiModelDto          `json:"roiModels"`
}

// SavedAggregateSummary lists one saved aggregate without its scenarios.
type SavedAggregateSummary struct {
	ID               string    `json:"id"`
	ActiveRoiModelID string    `json:"activeRoiModelId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of d; nil stays nil.
func (d *RoiModelDto) Clone() *RoiModelDto {
	if d == nil {
		return nil
	}
	c := *d
	c.CurrentInformation = d.CurrentInformation.Clone()
	c.CareerGoal = d.CareerGoal.Clone()
	c.EducationCost = d.EducationCost.Clone()
	c.EducationFinancing = d.EducationFinancing.Clone()
	c.RoiCalculatorInput = d.RoiCalculatorInput.Clone()
	c.RoiCalculatorOutput = d.RoiCalculatorOutput.Clone()
	c.CostOfAttendanceByYear = slices.Clone(d.CostOfAttendanceByYear)
	c.NetPriceByYear = slices.Clone(d.NetPriceByYear)
	c.FederalSubsidizedLoanLimitByYear = slices.Clone(d.FederalSubsidizedLoanLimitByYear)
	c.FederalUnsubsidizedLoanLimitByYear = slices.Clone(d.FederalUnsubsidizedLoanLimitByYear)
	c.OutOfPocketExpensesByYear = slices.Clone(d.OutOfPocketExpensesByYear)
	return &c
}

func (d *CurrentInformationDto) Clone() *CurrentInformationDto {
	if d == nil {
		return nil
	}
	c := *d
	c.Occupation = d.Occupation.Clone()
	c.Location = d.Location.Clone()
	return &c
}

func (d *CareerGoalDto) Clone() *CareerGoalDto {
	if d == nil {
		return nil
	}
	c := *d
	c.Location = d.Location.Clone()
	c.Occupation = d.Occupation.Clone()
	c.DegreeProgram = d.DegreeProgram.Clone()
	return &c
}

func (d *EducationCostDto) Clone() *EducationCostDto {
	if d == nil {
		return nil
	}
	c := *d
	c.Institution = d.Institution.Clone()
	return &c
}

func (d *EducationFinancingDto) Clone() *EducationFinancingDto {
	if d == nil {
		return nil
	}
	c := *d
	c.OutOfPocketExpensesByYear = slices.Clone(d.OutOfPocketExpensesByYear)
	c.FederalSubsidizedLoanAmountByYear = slices.Clone(d.FederalSubsidizedLoanAmountByYear)
	c.FederalUnsubsidizedLoanAmountByYear = slices.Clone(d.FederalUnsubsidizedLoanAmountByYear)
	c.FederalLoanAmountByYear = slices.Clone(d.FederalLoanAmountByYear)
	c.PrivateLoanAmountByYear = slices.Clone(d.PrivateLoanAmountByYear)
	c.PellGrantAidByYear = slices.Clone(d.PellGrantAidByYear)
	return &c
}

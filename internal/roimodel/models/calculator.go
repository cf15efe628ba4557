package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
)

// CalculatorInput is everything the lifetime-earnings calculator consumes.
// Its hash is the change-detection fingerprint of a scenario.
type CalculatorInput struct {
	CurrentAge            int            `json:"currentAge"`
	CurrentEducationLevel EducationLevel `json:"currentEducationLevel"`
	CurrentOnetCode       string         `json:"currentOnetCode,omitempty"`
	CurrentZipCode        string         `json:"currentZipCode,omitempty"`

	GoalOnetCode      string         `json:"goalOnetCode,omitempty"`
	GoalZipCode       string         `json:"goalZipCode,omitempty"`
	GoalDegreeLevel   EducationLevel `json:"goalDegreeLevel"`
	GoalCipCode       string         `json:"goalCipCode,omitempty"`
	RetirementAge     int            `json:"retirementAge"`
	RadiusInMiles     int            `json:"radiusInMiles"`
	InstitutionUnitID string         `json:"institutionUnitId,omitempty"`
	StartYear         int            `json:"startYear"`
	IsFullTime        bool           `json:"isFullTime"`
	YearsToComplete   int            `json:"yearsToComplete"`

	CostOfAttendanceByYear              []float64 `json:"costOfAttendanceByYear"`
	NetPriceByYear                      []float64 `json:"netPriceByYear"`
	OutOfPocketExpensesByYear           []float64 `json:"outOfPocketExpensesByYear"`
	FederalSubsidizedLoanAmountByYear   []float64 `json:"federalSubsidizedLoanAmountByYear"`
	FederalUnsubsidizedLoanAmountByYear []float64 `json:"federalUnsubsidizedLoanAmountByYear"`
	PrivateLoanAmountByYear             []float64 `json:"privateLoanAmountByYear"`
	PellGrantAidByYear                  []float64 `json:"pellGrantAidByYear"`
	IsTaxDependent                      bool      `json:"isTaxDependent"`
	PrefersIncomeBasedRepayment         bool      `json:"prefersIncomeBasedRepayment"`
	YearsToPayOffFederalLoan            int       `json:"yearsToPayOffFederalLoan"`
	YearsToPayOffPrivateLoan            int       `json:"yearsToPayOffPrivateLoan"`
}

// Hash returns the hex SHA-256 of the JSON encoding of the input.
func (in *CalculatorInput) Hash() (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("hash calculator input: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Clone returns a deep copy of in; nil stays nil.
func (in *CalculatorInput) Clone() *CalculatorInput {
	if in == nil {
		return nil
	}
	c := *in
	c.CostOfAttendanceByYear = slices.Clone(in.CostOfAttendanceByYear)
	c.NetPriceByYear = slices.Clone(in.NetPriceByYear)
	c.OutOfPocketExpensesByYear = slices.Clone(in.OutOfPocketExpensesByYear)
	c.FederalSubsidizedLoanAmountByYear = slices.Clone(in.FederalSubsidizedLoanAmountByYear)
	c.FederalUnsubsidizedLoanAmountByYear = slices.Clone(in.FederalUnsubsidizedLoanAmountByYear)
	c.PrivateLoanAmountByYear = slices.Clone(in.PrivateLoanAmountByYear)
	c.PellGrantAidByYear = slices.Clone(in.PellGrantAidByYear)
	return &c
}

// EarningsPoint is one age on the projected earnings curves.
type EarningsPoint struct {
	Age     int     `json:"age"`
	Current float64 `json:"current"`
	Goal    float64 `json:"goal"`
}

// CalculatorOutput is the projection returned by the lifetime-earnings calculator.
type CalculatorOutput struct {
	LifetimeEarningsCurrent float64         `json:"lifetimeEarningsCurrent"`
	LifetimeEarningsGoal    float64         `json:"lifetimeEarningsGoal"`
	NetEarnings             float64         `json:"netEarnings"`
	TotalReturn             float64         `json:"totalReturn"`
	YearsToBreakEven        float64         `json:"yearsToBreakEven"`
	EarningsByYear          []EarningsPoint `json:"earningsByYear,omitempty"`
}

// Clone returns a deep copy of out; nil stays nil.
func (out *CalculatorOutput) Clone() *CalculatorOutput {
	if out == nil {
		return nil
	}
	c := *out
	c.EarningsByYear = slices.Clone(out.EarningsByYear)
	return &c
}

package models

import (
	"fmt"
	"reflect"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

const (
	DefaultYearsToPayOffLoan = 10
	MaxYearsToPayOffLoan     = 30
)

// EducationFinancing holds how the education is paid for, year by year.
type EducationFinancing struct {
	IsTaxDependent                      bool      `json:"isTaxDependent"`
	PrefersIncomeBasedRepayment         bool      `json:"prefersIncomeBasedRepayment"`
	OutOfPocketExpensesByYear           []float64 `json:"outOfPocketExpensesByYear"`
	FederalSubsidizedLoanAmountByYear   []float64 `json:"federalSubsidizedLoanAmountByYear"`
	FederalUnsubsidizedLoanAmountByYear []float64 `json:"federalUnsubsidizedLoanAmountByYear"`
	PrivateLoanAmountByYear             []float64 `json:"privateLoanAmountByYear"`
	PellGrantAidByYear                  []float64 `json:"pellGrantAidByYear"`
	YearsToPayOffFederalLoan            int       `json:"yearsToPayOffFederalLoan"`
	YearsToPayOffPrivateLoan            int       `json:"yearsToPayOffPrivateLoan"`
}

// DefaultEducationFinancing returns the financing of a fresh scenario.
func DefaultEducationFinancing() EducationFinancing {
	return EducationFinancing{
		IsTaxDependent:           true,
		YearsToPayOffFederalLoan: DefaultYearsToPayOffLoan,
		YearsToPayOffPrivateLoan: DefaultYearsToPayOffLoan,
	}
}

// NewEducationFinancing normalizes and validates f and returns it.
func NewEducationFinancing(f EducationFinancing) (EducationFinancing, error) {
	f = f.Clone()
	if err := f.Validate(); err != nil {
		return EducationFinancing{}, err
	}
	return f, nil
}

// Validate runs the guard checks on the financing fields.
func (f EducationFinancing) Validate() error {
	nonNegative := validation.Each(validation.Min(0.0))
	err := validation.ValidateStruct(&f,
		validation.Field(&f.OutOfPocketExpensesByYear, nonNegative),
		validation.Field(&f.FederalSubsidizedLoanAmountByYear, nonNegative),
		validation.Field(&f.FederalUnsubsidizedLoanAmountByYear, nonNegative),
		validation.Field(&f.PrivateLoanAmountByYear, nonNegative),
		validation.Field(&f.PellGrantAidByYear, nonNegative),
		validation.Field(&f.YearsToPayOffFederalLoan, validation.Min(0), validation.Max(MaxYearsToPayOffLoan)),
		validation.Field(&f.YearsToPayOffPrivateLoan, validation.Min(0), validation.Max(MaxYearsToPayOffLoan)),
	)
	if err != nil {
		return fmt.Errorf("%w: education financing: %v", e.ErrInvalidInput, err)
	}
	return nil
}

// Clone returns a deep copy; empty sequences are normalized to nil.
func (f EducationFinancing) Clone() EducationFinancing {
	f.OutOfPocketExpensesByYear = cloneAmounts(f.OutOfPocketExpensesByYear)
	f.FederalSubsidizedLoanAmountByYear = cloneAmounts(f.FederalSubsidizedLoanAmountByYear)
	f.FederalUnsubsidizedLoanAmountByYear = cloneAmounts(f.FederalUnsubsidizedLoanAmountByYear)
	f.PrivateLoanAmountByYear = cloneAmounts(f.PrivateLoanAmountByYear)
	f.PellGrantAidByYear = cloneAmounts(f.PellGrantAidByYear)
	return f
}

// FederalLoanAmountByYear sums subsidized and unsubsidized amounts per year.
func (f EducationFinancing) FederalLoanAmountByYear() []float64 {
	n := max(len(f.FederalSubsidizedLoanAmountByYear), len(f.FederalUnsubsidizedLoanAmountByYear))
	out := make([]float64, n)
	for i := range out {
		out[i] = amountAt(f.FederalSubsidizedLoanAmountByYear, i) + amountAt(f.FederalUnsubsidizedLoanAmountByYear, i)
	}
	return out
}

// TotalFederalLoanAmount sums every federal loan amount across all years.
func (f EducationFinancing) TotalFederalLoanAmount() float64 {
	return sum(f.FederalSubsidizedLoanAmountByYear) + sum(f.FederalUnsubsidizedLoanAmountByYear)
}

func (f EducationFinancing) TotalPrivateLoanAmount() float64 {
	return sum(f.PrivateLoanAmountByYear)
}

func (f EducationFinancing) TotalOutOfPocketExpenses() float64 {
	return sum(f.OutOfPocketExpensesByYear)
}

// IsDefault reports whether the financing still equals its default values.
func (f EducationFinancing) IsDefault() bool {
	return reflect.DeepEqual(f.Clone(), DefaultEducationFinancing())
}

func cloneAmounts(s []float64) []float64 {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

func amountAt(s []float64, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func sum(s []float64) float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

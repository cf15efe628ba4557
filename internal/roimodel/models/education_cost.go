package models

import (
	"fmt"
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

// MaxYearsToComplete bounds the span of an education plan.
const MaxYearsToComplete = 8

// EducationCost describes where and how the user will study.
// Zero StartYear or YearsToComplete means the field is unset.
type EducationCost struct {
	Institution     *Institution `json:"institution,omitempty"`
	StartYear       int          `json:"startYear"`
	IncomeRange     IncomeRange  `json:"incomeRange"`
	IsFullTime      bool         `json:"isFullTime"`
	YearsToComplete int          `json:"yearsToComplete"`
}

// DefaultEducationCost returns the education cost of a fresh scenario.
func DefaultEducationCost() EducationCost {
	return EducationCost{IsFullTime: true}
}

// NewEducationCost validates c and returns a copy of it.
func NewEducationCost(c EducationCost) (EducationCost, error) {
	if err := c.Validate(); err != nil {
		return EducationCost{}, err
	}
	return c.Clone(), nil
}

// Validate runs the guard checks on the education cost fields.
func (c EducationCost) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.StartYear, validation.Min(1900), validation.Max(2200)),
		validation.Field(&c.IncomeRange, validation.In(incomeRanges...)),
		validation.Field(&c.YearsToComplete, validation.Min(0), validation.Max(MaxYearsToComplete)),
	)
	if err != nil {
		return fmt.Errorf("%w: education cost: %v", e.ErrInvalidInput, err)
	}
	return nil
}

// IsDefault reports whether the cost still equals its default values.
func (c EducationCost) IsDefault() bool {
	return reflect.DeepEqual(c, DefaultEducationCost())
}

// Clone returns a copy of c that shares no pointers with it.
func (c EducationCost) Clone() EducationCost {
	c.Institution = c.Institution.Clone()
	return c
}

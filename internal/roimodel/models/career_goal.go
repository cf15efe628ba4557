package models

import (
	"fmt"
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

// DefaultRetirementAge is the retirement age of a fresh career goal.
const DefaultRetirementAge = 67

// CareerGoal describes where the user wants to work and what degree gets them there.
// A zero RetirementAge means the field has been cleared.
type CareerGoal struct {
	Location      *Location             `json:"location,omitempty"`
	Occupation    *Occupation           `json:"occupation,omitempty"`
	DegreeLevel   EducationLevel        `json:"degreeLevel"`
	DegreeProgram *InstructionalProgram `json:"degreeProgram,omitempty"`
	RetirementAge int                   `json:"retirementAge"`
	PathType      CareerGoalPath        `json:"pathType"`
}

// DefaultCareerGoal returns the career goal of a fresh scenario.
func DefaultCareerGoal() CareerGoal {
	return CareerGoal{RetirementAge: DefaultRetirementAge}
}

// NewCareerGoal validates g and returns a copy of it.
func NewCareerGoal(g CareerGoal) (CareerGoal, error) {
	if err := g.Validate(); err != nil {
		return CareerGoal{}, err
	}
	return g.Clone(), nil
}

// Validate runs the guard checks on the career goal fields.
func (g CareerGoal) Validate() error {
	err := validation.ValidateStruct(&g,
		validation.Field(&g.DegreeLevel, validation.In(educationLevels...)),
		validation.Field(&g.RetirementAge, validation.Min(0), validation.Max(MaxAge)),
		validation.Field(&g.PathType, validation.In(careerGoalPaths...)),
	)
	if err != nil {
		return fmt.Errorf("%w: career goal: %v", e.ErrInvalidInput, err)
	}
	return nil
}

// IsDefault reports whether the goal still equals its default values.
func (g CareerGoal) IsDefault() bool {
	return reflect.DeepEqual(g, DefaultCareerGoal())
}

// Clone returns a copy of g that shares no pointers with it.
func (g CareerGoal) Clone() CareerGoal {
	g.Location = g.Location.Clone()
	g.Occupation = g.Occupation.Clone()
	g.DegreeProgram = g.DegreeProgram.Clone()
	return g
}

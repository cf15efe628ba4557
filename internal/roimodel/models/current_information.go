package models

import (
	"fmt"
	"reflect"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

// MaxAge bounds every age field of the domain.
const MaxAge = 120

// CurrentInformation is the user's present-day profile, shared by every
// scenario of an aggregate. It is replaced wholesale, never patched.
type CurrentInformation struct {
	Age            int            `json:"age"`
	Occupation     *Occupation    `json:"occupation,omitempty"`
	Location       *Location      `json:"location,omitempty"`
	EducationLevel EducationLevel `json:"educationLevel"`
}

// DefaultCurrentInformation returns the untouched profile.
func DefaultCurrentInformation() CurrentInformation {
	return CurrentInformation{}
}

// NewCurrentInformation validates ci and returns a copy of it.
func NewCurrentInformation(ci CurrentInformation) (CurrentInformation, error) {
	if err := ci.Validate(); err != nil {
		return CurrentInformation{}, err
	}
	return ci.Clone(), nil
}

// Validate runs the guard checks on the profile fields.
func (ci CurrentInformation) Validate() error {
	err := validation.ValidateStruct(&ci,
		validation.Field(&ci.Age, validation.Min(0), validation.Max(MaxAge)),
		validation.Field(&ci.EducationLevel, validation.In(educationLevels...)),
	)
	if err != nil {
		return fmt.Errorf("%w: current information: %v", e.ErrInvalidInput, err)
	}
	return nil
}

// IsValid reports whether the profile is complete enough to feed the calculator.
func (ci CurrentInformation) IsValid() bool {
	return ci.Age > 0 &&
		ci.Location != nil &&
		ci.EducationLevel != EducationLevelUnknown
}

// IsDefault reports whether the profile still equals its default values.
func (ci CurrentInformation) IsDefault() bool {
	return reflect.DeepEqual(ci, DefaultCurrentInformation())
}

// Clone returns a copy of ci that shares no pointers with it.
func (ci CurrentInformation) Clone() CurrentInformation {
	ci.Occupation = ci.Occupation.Clone()
	ci.Location = ci.Location.Clone()
	return ci
}

package dto

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// AutoCompleteModel is a selection made in an auto-complete field. ID is the
// lookup key: zip code, O*NET code, CIP code or institution unit id.
type AutoCompleteModel struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (a AutoCompleteModel) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required),
	)
}

type CurrentInformationForm struct {
	CurrentAge     int                   `json:"currentAge"`
	Occupation     *AutoCompleteModel    `json:"occupation,omitempty"`
	Location       *AutoCompleteModel    `json:"location,omitempty"`
	EducationLevel models.EducationLevel `json:"educationLevel"`
}

func (f CurrentInformationForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.CurrentAge, validation.Min(0), validation.Max(models.MaxAge)),
		validation.Field(&f.Occupation),
		validation.Field(&f.Location),
	)
}

type CareerGoalForm struct {
	Location           *AutoCompleteModel    `json:"location,omitempty"`
	Occupation         *AutoCompleteModel    `json:"occupation,omitempty"`
	DegreeLevel        models.EducationLevel `json:"degreeLevel"`
	DegreeProgram      *AutoCompleteModel    `json:"degreeProgram,omitempty"`
	RetirementAge      int                   `json:"retirementAge"`
	CareerGoalPathType models.CareerGoalPath `json:"careerGoalPathType"`
}

func (f CareerGoalForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Location),
		validation.Field(&f.Occupation),
		validation.Field(&f.DegreeProgram),
		validation.Field(&f.RetirementAge, validation.Min(0), validation.Max(models.MaxAge)),
	)
}

type EducationCostForm struct {
	Institution           *AutoCompleteModel `json:"institution,omitempty"`
	StartYear             int                `json:"startYear"`
	IncomeRange           models.IncomeRange `json:"incomeRange"`
	IsFulltime            bool               `json:"isFulltime"`
	YearsToCompleteDegree int                `json:"yearsToCompleteDegree"`
}

func (f EducationCostForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Institution),
		validation.Field(&f.YearsToCompleteDegree, validation.Min(0), validation.Max(models.MaxYearsToComplete)),
	)
}

package mapper

import (
	"fmt"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// CurrentInformationToDomain converts d; a nil d yields the default profile.
func CurrentInformationToDomain(d *dto.CurrentInformationDto) (models.CurrentInformation, error) {
	if d == nil {
		return models.DefaultCurrentInformation(), nil
	}
	ci, err := models.NewCurrentInformation(models.CurrentInformation{
		Age:            d.CurrentAge,
		Occupation:     d.Occupation,
		Location:       d.Location,
		EducationLevel: d.EducationLevel,
	})
	if err != nil {
		return models.CurrentInformation{}, fmt.Errorf("%w: %w", e.ErrConversion, err)
	}
	return ci, nil
}

// CurrentInformationToDTO converts ci; the result shares no pointers with it.
func CurrentInformationToDTO(ci models.CurrentInformation) *dto.CurrentInformationDto {
	ci = ci.Clone()
	return &dto.CurrentInformationDto{
		CurrentAge:     ci.Age,
		Occupation:     ci.Occupation,
		Location:       ci.Location,
		EducationLevel: ci.EducationLevel,
	}
}

// CareerGoalToDomain converts d; a nil d yields the default career goal.
func CareerGoalToDomain(d *dto.CareerGoalDto) (models.CareerGoal, error) {
	if d == nil {
		return models.DefaultCareerGoal(), nil
	}
	g, err := models.NewCareerGoal(models.CareerGoal{
		Location:      d.Location,
		Occupation:    d.Occupation,
		DegreeLevel:   d.DegreeLevel,
		DegreeProgram: d.DegreeProgram,
		RetirementAge: d.RetirementAge,
		PathType:      d.CareerGoalPathType,
	})
	if err != nil {
		return models.CareerGoal{}, fmt.Errorf("%w: %w", e.ErrConversion, err)
	}
	return g, nil
}

func CareerGoalToDTO(g models.CareerGoal) *dto.CareerGoalDto {
	g = g.Clone()
	return &dto.CareerGoalDto{
		Location:           g.Location,
		Occupation:         g.Occupation,
		DegreeLevel:        g.DegreeLevel,
		DegreeProgram:      g.DegreeProgram,
		RetirementAge:      g.RetirementAge,
		CareerGoalPathType: g.PathType,
	}
}

// EducationCostToDomain converts d; a nil d yields the default education cost.
func EducationCostToDomain(d *dto.EducationCostDto) (models.EducationCost, error) {
	if d == nil {
		return models.DefaultEducationCost(), nil
	}
	c, err := models.NewEducationCost(models.EducationCost{
		Institution:     d.Institution,
		StartYear:       d.StartYear,
		IncomeRange:     d.IncomeRange,
		IsFullTime:      d.IsFulltime,
		YearsToComplete: d.YearsToCompleteDegree,
	})
	if err != nil {
		return models.EducationCost{}, fmt.Errorf("%w: %w", e.ErrConversion, err)
	}
	return c, nil
}

func EducationCostToDTO(c models.EducationCost) *dto.EducationCostDto {
	c = c.Clone()
	return &dto.EducationCostDto{
		Institution:           c.Institution,
		StartYear:             c.StartYear,
		IncomeRange:           c.IncomeRange,
		IsFulltime:            c.IsFullTime,
		YearsToCompleteDegree: c.YearsToComplete,
	}
}

// EducationFinancingToDomain converts d; a nil d yields the default financing.
func EducationFinancingToDomain(d *dto.EducationFinancingDto) (models.EducationFinancing, error) {
	if d == nil {
		return models.DefaultEducationFinancing(), nil
	}
	f, err := models.NewEducationFinancing(models.EducationFinancing{
		IsTaxDependent:                      d.IsTaxDependent,
		PrefersIncomeBasedRepayment:         d.PrefersIncomeBasedRepayment,
		OutOfPocketExpensesByYear:           d.OutOfPocketExpensesByYear,
		FederalSubsidizedLoanAmountByYear:   d.FederalSubsidizedLoanAmountByYear,
		FederalUnsubsidizedLoanAmountByYear: d.FederalUnsubsidizedLoanAmountByYear,
		PrivateLoanAmountByYear:             d.PrivateLoanAmountByYear,
		PellGrantAidByYear:                  d.PellGrantAidByYear,
		YearsToPayOffFederalLoan:            d.YearsToPayOffFederalLoan,
		YearsToPayOffPrivateLoan:            d.YearsToPayOffPrivateLoan,
	})
	if err != nil {
		return models.EducationFinancing{}, fmt.Errorf("%w: %w", e.ErrConversion, err)
	}
	return f, nil
}

func EducationFinancingToDTO(f models.EducationFinancing) *dto.EducationFinancingDto {
	f = f.Clone()
	return &dto.EducationFinancingDto{
		IsTaxDependent:                      f.IsTaxDependent,
		PrefersIncomeBasedRepayment:         f.PrefersIncomeBasedRepayment,
		OutOfPocketExpensesByYear:           f.OutOfPocketExpensesByYear,
		FederalSubsidizedLoanAmountByYear:   f.FederalSubsidizedLoanAmountByYear,
		FederalUnsubsidizedLoanAmountByYear: f.FederalUnsubsidizedLoanAmountByYear,
		FederalLoanAmountByYear:             f.FederalLoanAmountByYear(),
		PrivateLoanAmountByYear:             f.PrivateLoanAmountByYear,
		PellGrantAidByYear:                  f.PellGrantAidByYear,
		YearsToPayOffFederalLoan:            f.YearsToPayOffFederalLoan,
		YearsToPayOffPrivateLoan:            f.YearsToPayOffPrivateLoan,
	}
}

// DataToKeepToDomain converts the duplication dialog payload.
func DataToKeepToDomain(d dto.DialogDataToKeepModel) models.DataToKeep {
	return models.DataToKeep{
		ModelName:                            d.ModelName,
		IsGoalLocationSaved:                  d.IsGoalLocationSaved,
		IsGoalOccupationSaved:                d.IsGoalOccupationSaved,
		IsGoalDegreeLevelSaved:               d.IsGoalDegreeLevelSaved,
		IsGoalDegreeProgramSaved:             d.IsGoalDegreeProgramSaved,
		IsGoalRetirementAgeSaved:             d.IsGoalRetirementAgeSaved,
		IsEducationCostInstitutionSaved:      d.IsEducationCostInstitutionSaved,
		IsEducationCostStartSchoolSaved:      d.IsEducationCostStartSchoolSaved,
		IsEducationCostPartTimeFullTimeSaved: d.IsEducationCostPartTimeFullTimeSaved,
		IsEducationCostYearsToCompleteSaved:  d.IsEducationCostYearsToCompleteSaved,
	}
}

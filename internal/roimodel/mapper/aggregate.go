// Package mapper translates between the domain aggregate and its transfer objects.
package mapper

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// RoiModelAggregateMapper converts aggregates to and from RoiModelDto and AggregateDto.
type RoiModelAggregateMapper struct{}

func NewRoiModelAggregateMapper() *RoiModelAggregateMapper {
	return &RoiModelAggregateMapper{}
}

// ToDTO renders the active scenario.
func (m *RoiModelAggregateMapper) ToDTO(a *models.RoiAggregate) (*dto.RoiModelDto, error) {
	active, err := a.ActiveRoiModel()
	if err != nil {
		return nil, err
	}
	d := m.toRoiModelDto(a.CurrentInformation(), active)
	return &d, nil
}

// ToDTOList renders every scenario in insertion order; the current information
// is shared across all of them.
func (m *RoiModelAggregateMapper) ToDTOList(a *models.RoiAggregate) []dto.RoiModelDto {
	ci := a.CurrentInformation()
	list := make([]dto.RoiModelDto, 0, a.Len())
	for _, rm := range a.RoiModelList() {
		list = append(list, m.toRoiModelDto(ci, rm))
	}
	return list
}

// ToDomain rebuilds a single-scenario aggregate from d. Any conversion failure
// is returned as is; no partial aggregate is produced.
func (m *RoiModelAggregateMapper) ToDomain(d dto.RoiModelDto) (*models.RoiAggregate, error) {
	ci, err := CurrentInformationToDomain(d.CurrentInformation)
	if err != nil {
		return nil, err
	}
	rm, err := m.roiModelToDomain(d)
	if err != nil {
		return nil, err
	}
	return models.NewRoiAggregate(models.AggregateProps{
		CurrentInformation: ci,
		RoiModel:           rm,
	}, uuid.Nil)
}

// ToAggregateDTO exports the whole aggregate.
func (m *RoiModelAggregateMapper) ToAggregateDTO(a *models.RoiAggregate) dto.AggregateDto {
	return dto.AggregateDto{
		ID:                 a.ID().String(),
		ActiveRoiModelID:   a.ActiveRoiModelID().String(),
		CurrentInformation: CurrentInformationToDTO(a.CurrentInformation()),
		RoiModels:          m.ToDTOList(a),
	}
}

// FromAggregateDTO imports a full export, restoring identities, order and the
// active scenario.
func (m *RoiModelAggregateMapper) FromAggregateDTO(d dto.AggregateDto) (*models.RoiAggregate, error) {
	if len(d.RoiModels) == 0 {
		return nil, fmt.Errorf("%w: aggregate has no roi models", e.ErrConversion)
	}
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	ci, err := CurrentInformationToDomain(d.CurrentInformation)
	if err != nil {
		return nil, err
	}

	first, err := m.roiModelToDomain(d.RoiModels[0])
	if err != nil {
		return nil, err
	}
	a, err := models.NewRoiAggregate(models.AggregateProps{
		CurrentInformation: ci,
		RoiModel:           first,
	}, id)
	if err != nil {
		return nil, err
	}

	for _, rd := range d.RoiModels[1:] {
		rm, err := m.roiModelToDomain(rd)
		if err != nil {
			return nil, err
		}
		if err := a.AddRoiModel(rm); err != nil {
			return nil, fmt.Errorf("%w: %w", e.ErrConversion, err)
		}
	}

	activeID := first.ID()
	if d.ActiveRoiModelID != "" {
		if activeID, err = parseID(d.ActiveRoiModelID); err != nil {
			return nil, err
		}
	}
	if err := a.MakeActive(activeID); err != nil {
		return nil, err
	}
	return a, nil
}

// roiModelToDomain drops the stored input and hash so that the calculator
// input is rebuilt against the importing aggregate; the last output is kept.
func (m *RoiModelAggregateMapper) roiModelToDomain(d dto.RoiModelDto) (*models.RoiModel, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	goal, err := CareerGoalToDomain(d.CareerGoal)
	if err != nil {
		return nil, err
	}
	cost, err := EducationCostToDomain(d.EducationCost)
	if err != nil {
		return nil, err
	}
	financing, err := EducationFinancingToDomain(d.EducationFinancing)
	if err != nil {
		return nil, err
	}

	rm, err := models.NewRoiModel(models.RoiModelProps{
		Name:                d.Name,
		CareerGoal:          goal,
		EducationCost:       cost,
		EducationFinancing:  financing,
		RoiCalculatorOutput: d.RoiCalculatorOutput,
		RadiusInMiles:       d.RadiusInMiles,
		DateCreated:         d.DateCreated,
		LastUpdated:         d.LastUpdated,
	}, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrConversion, err)
	}
	return rm, nil
}

func (m *RoiModelAggregateMapper) toRoiModelDto(ci models.CurrentInformation, rm *models.RoiModel) dto.RoiModelDto {
	limits := rm.LoanLimits()

	return dto.RoiModelDto{
		ID:                 rm.ID().String(),
		Name:               rm.Name(),
		CurrentInformation: CurrentInformationToDTO(ci),

		CareerGoal:             CareerGoalToDTO(rm.CareerGoal()),
		EducationCost:          EducationCostToDTO(rm.EducationCost()),
		EducationFinancing:     EducationFinancingToDTO(rm.EducationFinancing()),
		RoiCalculatorInput:     rm.RoiCalculatorInput(),
		RoiCalculatorInputHash: rm.Hash(),
		RoiCalculatorOutput:    rm.RoiCalculatorOutput(),
		RadiusInMiles:          rm.RadiusInMiles(),
		DateCreated:            rm.DateCreated(),
		LastUpdated:            rm.LastUpdated(),

		CostOfAttendanceByYear:             rm.CostOfAttendanceByYear(ci),
		NetPriceByYear:                     rm.NetPriceByYear(ci),
		FederalSubsidizedLoanLimitByYear:   limits.FederalSubsidizedLoanByYear,
		FederalUnsubsidizedLoanLimitByYear: limits.FederalUnsubsidizedLoanByYear,
		OutOfPocketExpensesByYear:          rm.OutOfPocketExpensesByYear(ci),

		GrantOrScholarshipAidExcludingPellGrant: rm.GrantOrScholarshipAidExcludingPellGrant(ci),
		Efc:                                     rm.Efc(ci),

		IsDefaultModel:    ci.IsDefault() && rm.IsDefault(),
		IsReadyForCompare: rm.IsReadyForCompare(),
	}
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q: %w", e.ErrConversion, s, err)
	}
	return id, nil
}

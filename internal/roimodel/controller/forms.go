package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/lookup"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// FormProcessor turns submitted forms into service mutations. Auto-complete
// selections are resolved through the lookup service concurrently; a
// selection equal to the record already held by the scenario is reused
// without a lookup.
type FormProcessor struct {
	svc    *RoiModelService
	lookup lookup.Service
	logger *zap.Logger
}

func NewFormProcessor(svc *RoiModelService, lk lookup.Service, logger *zap.Logger) *FormProcessor {
	return &FormProcessor{
		svc:    svc,
		lookup: lk,
		logger: logger.Named("form_processor").With(zap.String("session_id", svc.SessionID())),
	}
}

func (p *FormProcessor) ProcessCurrentInformation(ctx context.Context, form dto.CurrentInformationForm) (*dto.RoiModelDto, error) {
	const op = OpUpdateCurrentInformation
	if err := form.Validate(); err != nil {
		return nil, p.svc.fail(op, fmt.Errorf("%w: %v", e.ErrInvalidInput, err), "")
	}
	ci, _, _, err := p.svc.activeInputs()
	if err != nil {
		return nil, p.svc.fail(op, err, "")
	}

	var (
		location   *models.Location
		occupation *models.Occupation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		location, err = resolve(gctx, "location", form.Location, ci.Location, locationKey, p.lookup.Location)
		return err
	})
	g.Go(func() error {
		var err error
		occupation, err = resolve(gctx, "occupation", form.Occupation, ci.Occupation, occupationKey, p.lookup.Occupation)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, p.lookupFailed(op, err)
	}
	if err := p.checkAlive(op); err != nil {
		return nil, err
	}

	return p.svc.UpdateCurrentInformation(dto.CurrentInformationDto{
		CurrentAge:     form.CurrentAge,
		Occupation:     occupation,
		Location:       location,
		EducationLevel: form.EducationLevel,
	})
}

func (p *FormProcessor) ProcessCareerGoal(ctx context.Context, form dto.CareerGoalForm) (*dto.RoiModelDto, error) {
	const op = OpUpdateCareerGoal
	if err := form.Validate(); err != nil {
		return nil, p.svc.fail(op, fmt.Errorf("%w: %v", e.ErrInvalidInput, err), "")
	}
	_, goal, _, err := p.svc.activeInputs()
	if err != nil {
		return nil, p.svc.fail(op, err, "")
	}

	var (
		location   *models.Location
		occupation *models.Occupation
		program    *models.InstructionalProgram
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		location, err = resolve(gctx, "location", form.Location, goal.Location, locationKey, p.lookup.Location)
		return err
	})
	g.Go(func() error {
		var err error
		occupation, err = resolve(gctx, "occupation", form.Occupation, goal.Occupation, occupationKey, p.lookup.Occupation)
		return err
	})
	g.Go(func() error {
		var err error
		program, err = resolve(gctx, "degree program", form.DegreeProgram, goal.DegreeProgram, programKey, p.lookup.InstructionalProgram)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, p.lookupFailed(op, err)
	}
	if err := p.checkAlive(op); err != nil {
		return nil, err
	}

	return p.svc.UpdateCareerGoal(dto.CareerGoalDto{
		Location:           location,
		Occupation:         occupation,
		DegreeLevel:        form.DegreeLevel,
		DegreeProgram:      program,
		RetirementAge:      form.RetirementAge,
		CareerGoalPathType: form.CareerGoalPathType,
	})
}

func (p *FormProcessor) ProcessEducationCost(ctx context.Context, form dto.EducationCostForm) (*dto.RoiModelDto, error) {
	const op = OpUpdateEducationCost
	if err := form.Validate(); err != nil {
		return nil, p.svc.fail(op, fmt.Errorf("%w: %v", e.ErrInvalidInput, err), "")
	}
	_, _, cost, err := p.svc.activeInputs()
	if err != nil {
		return nil, p.svc.fail(op, err, "")
	}

	institution, err := resolve(ctx, "institution", form.Institution, cost.Institution, institutionKey, p.lookup.Institution)
	if err != nil {
		return nil, p.lookupFailed(op, err)
	}
	if err := p.checkAlive(op); err != nil {
		return nil, err
	}

	return p.svc.UpdateEducationCost(dto.EducationCostDto{
		Institution:           institution,
		StartYear:             form.StartYear,
		IncomeRange:           form.IncomeRange,
		IsFulltime:            form.IsFulltime,
		YearsToCompleteDegree: form.YearsToCompleteDegree,
	})
}

func (p *FormProcessor) lookupFailed(op string, err error) error {
	if !p.svc.IsClosed() {
		return p.svc.fail(op, err, "")
	}
	return e.NewOperationError(op, e.ErrSessionClosed, "")
}

// checkAlive drops results that arrive after the session was closed.
func (p *FormProcessor) checkAlive(op string) error {
	if p.svc.IsClosed() {
		p.logger.Debug("Dropping form result for closed session", zap.String("operation", op))
		return e.NewOperationError(op, e.ErrSessionClosed, "")
	}
	return nil
}

// resolve returns nil for an empty selection, current when the selection
// names it, and the looked-up record otherwise. A selection the lookup does
// not know is invalid input.
func resolve[T any](
	ctx context.Context,
	kind string,
	selection *dto.AutoCompleteModel,
	current *T,
	key func(*T) string,
	fetch func(context.Context, string) (*T, error),
) (*T, error) {
	if selection == nil {
		return nil, nil
	}
	if current != nil && key(current) == selection.ID {
		return current, nil
	}

	record, err := fetch(ctx, selection.ID)
	if err != nil {
		return nil, fmt.Errorf("%s lookup: %w", kind, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: unknown %s %q", e.ErrInvalidInput, kind, selection.ID)
	}
	return record, nil
}

func locationKey(l *models.Location) string            { return l.ZipCode }
func occupationKey(o *models.Occupation) string        { return o.OnetCode }
func programKey(p *models.InstructionalProgram) string { return p.CipCode }
func institutionKey(i *models.Institution) string      { return i.UnitID }

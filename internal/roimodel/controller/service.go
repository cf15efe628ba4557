// Package controller implements the service layer of the ROI modeling tool:
// one live scenario aggregate per session, the calculator round trip, snapshot
// and error publication, and persistence of saved scenario sets.
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/compare"
	dbmodels "github.com/gartstein/roimodeling/internal/roimodel/db/models"
	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/events"
	"github.com/gartstein/roimodeling/internal/roimodel/mapper"
	"github.com/gartstein/roimodeling/internal/roimodel/metrics"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// Operation labels carried by OperationError and the operations metric.
const (
	OpCreateAggregate          = "CREATE AGGREGATE"
	OpCreate                   = "CREATE"
	OpUpdateCurrentInformation = "UPDATE CURRENT INFORMATION"
	OpUpdateCareerGoal         = "UPDATE CAREER GOAL"
	OpUpdateEducationCost      = "UPDATE EDUCATION COST"
	OpUpdateEducationFinancing = "UPDATE EDUCATION FINANCING"
	OpUpdateName               = "UPDATE NAME"
	OpMakeActive               = "MAKE ACTIVE"
	OpDuplicate                = "DUPLICATE"
	OpDelete                   = "DELETE"
	OpClear                    = "CLEAR"
	OpList                     = "LIST"
	OpSummary                  = "SUMMARY"
	OpCompare                  = "COMPARE"
	OpExport                   = "EXPORT"
	OpSave                     = "SAVE"
	OpLoad                     = "LOAD"
	OpListSaved                = "LIST SAVED"
	OpDeleteSaved              = "DELETE SAVED"
	OpCalculator               = "CALCULATOR"
)

type EventProducer interface {
	Produce(ev events.Event)
}

// Calculator runs the external lifetime-earnings projection.
type Calculator interface {
	Calculate(ctx context.Context, in *models.CalculatorInput) (*models.CalculatorOutput, error)
}

// Repository defines the storage interface for saved aggregates.
type Repository interface {
	SaveAggregate(ctx context.Context, agg *dbmodels.SavedAggregate) error
	GetAggregate(ctx context.Context, id uuid.UUID) (*dbmodels.SavedAggregate, error)
	ListAggregates(ctx context.Context, owner string) ([]dbmodels.SavedAggregate, error)
	DeleteAggregate(ctx context.Context, id uuid.UUID) error
}

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Calculator Calculator
	Producer   EventProducer
	Repository Repository
	Logger     *zap.Logger
}

// RoiModelService owns one live aggregate. Every mutation applies the change,
// rebuilds the calculator input, publishes a snapshot and returns; the
// calculator call runs in the background and publishes a second snapshot when
// it lands. Failures are returned to the caller and published as well.
type RoiModelService struct {
	sessionID  string
	owner      string
	mapper     *mapper.RoiModelAggregateMapper
	calculator Calculator
	producer   EventProducer
	repo       Repository
	logger     *zap.Logger

	mu        sync.Mutex
	aggregate *models.RoiAggregate
	snapshot  *dto.RoiModelDto
	lastErr   *e.OperationError
	closed    bool

	calculations sync.WaitGroup
}

// NewRoiModelService starts a session for owner with a default aggregate.
func NewRoiModelService(owner string, deps Dependencies) (*RoiModelService, error) {
	sessionID := uuid.NewString()
	s := &RoiModelService{
		sessionID:  sessionID,
		owner:      owner,
		mapper:     mapper.NewRoiModelAggregateMapper(),
		calculator: deps.Calculator,
		producer:   deps.Producer,
		repo:       deps.Repository,
		logger:     deps.Logger.Named("roi_model_service").With(zap.String("session_id", sessionID)),
	}

	agg, err := models.NewDefaultRoiAggregate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregate = agg
	if _, err := s.processLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RoiModelService) SessionID() string { return s.sessionID }
func (s *RoiModelService) Owner() string     { return s.owner }

// Snapshot returns the last published view of the active scenario.
func (s *RoiModelService) Snapshot() *dto.RoiModelDto {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// LastError returns the last published failure, nil after Clear.
func (s *RoiModelService) LastError() *e.OperationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// CreateEmptyRoiAggregate replaces the aggregate. A nil d starts from the
// default aggregate, otherwise the aggregate is rebuilt from d.
func (s *RoiModelService) CreateEmptyRoiAggregate(d *dto.RoiModelDto) (*dto.RoiModelDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.failLocked(OpCreateAggregate, e.ErrSessionClosed, "")
	}

	var (
		agg *models.RoiAggregate
		err error
	)
	if d == nil {
		agg, err = models.NewDefaultRoiAggregate()
	} else {
		agg, err = s.mapper.ToDomain(*d)
	}
	if err != nil {
		return nil, s.failLocked(OpCreateAggregate, err, "")
	}

	s.aggregate = agg
	return s.succeedLocked(OpCreateAggregate)
}

// CreateEmptyRoiModel adds a default scenario and activates it. An empty name
// yields the next default name.
func (s *RoiModelService) CreateEmptyRoiModel(name string) (*dto.RoiModelDto, error) {
	return s.mutate(OpCreate, func(a *models.RoiAggregate) error {
		_, err := a.CreateEmptyRoiModel(name)
		return err
	})
}

func (s *RoiModelService) UpdateCurrentInformation(d dto.CurrentInformationDto) (*dto.RoiModelDto, error) {
	return s.mutate(OpUpdateCurrentInformation, func(a *models.RoiAggregate) error {
		ci, err := mapper.CurrentInformationToDomain(&d)
		if err != nil {
			return err
		}
		return a.UpdateCurrentInformation(ci)
	})
}

func (s *RoiModelService) UpdateCareerGoal(d dto.CareerGoalDto) (*dto.RoiModelDto, error) {
	return s.mutate(OpUpdateCareerGoal, func(a *models.RoiAggregate) error {
		g, err := mapper.CareerGoalToDomain(&d)
		if err != nil {
			return err
		}
		return a.UpdateCareerGoal(g)
	})
}

func (s *RoiModelService) UpdateEducationCost(d dto.EducationCostDto) (*dto.RoiModelDto, error) {
	return s.mutate(OpUpdateEducationCost, func(a *models.RoiAggregate) error {
		c, err := mapper.EducationCostToDomain(&d)
		if err != nil {
			return err
		}
		return a.UpdateEducationCost(c)
	})
}

func (s *RoiModelService) UpdateEducationFinancing(d dto.EducationFinancingDto) (*dto.RoiModelDto, error) {
	return s.mutate(OpUpdateEducationFinancing, func(a *models.RoiAggregate) error {
		f, err := mapper.EducationFinancingToDomain(&d)
		if err != nil {
			return err
		}
		return a.UpdateEducationFinancing(f)
	})
}

// UpdateRoiModelName renames the active scenario.
func (s *RoiModelService) UpdateRoiModelName(name string) (*dto.RoiModelDto, error) {
	return s.mutate(OpUpdateName, func(a *models.RoiAggregate) error {
		return a.UpdateRoiModelName(name)
	})
}

func (s *RoiModelService) MakeActive(roiModelID string) (*dto.RoiModelDto, error) {
	return s.mutate(OpMakeActive, func(a *models.RoiAggregate) error {
		id, err := parseRoiModelID(roiModelID)
		if err != nil {
			return err
		}
		return a.MakeActive(id)
	})
}

// DuplicateRoiModel clones the active scenario, keeping the flagged fields.
func (s *RoiModelService) DuplicateRoiModel(d dto.DialogDataToKeepModel) (*dto.RoiModelDto, error) {
	return s.mutate(OpDuplicate, func(a *models.RoiAggregate) error {
		_, err := a.Duplicate(mapper.DataToKeepToDomain(d))
		return err
	})
}

// DeleteRoiModel removes a scenario. Unknown ids are a no-op.
func (s *RoiModelService) DeleteRoiModel(roiModelID string) (*dto.RoiModelDto, error) {
	return s.mutate(OpDelete, func(a *models.RoiAggregate) error {
		id, err := parseRoiModelID(roiModelID)
		if err != nil {
			return err
		}
		return a.DeleteRoiModel(id)
	})
}

// Clear drops the last error and starts over from a default aggregate.
// Calculations still in flight for the old aggregate are discarded.
func (s *RoiModelService) Clear() (*dto.RoiModelDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.failLocked(OpClear, e.ErrSessionClosed, "")
	}
	s.aggregate = nil
	s.snapshot = nil
	s.lastErr = nil

	agg, err := models.NewDefaultRoiAggregate()
	if err != nil {
		return nil, s.failLocked(OpClear, err, "")
	}
	s.aggregate = agg
	return s.succeedLocked(OpClear)
}

// GetRoiList returns every scenario in creation order.
func (s *RoiModelService) GetRoiList() ([]dto.RoiModelDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return nil, s.failLocked(OpList, err, "")
	}
	return s.mapper.ToDTOList(s.aggregate), nil
}

// Summary renders the whole aggregate as a JSON document.
func (s *RoiModelService) Summary() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return "", s.failLocked(OpSummary, err, "")
	}
	data, err := json.Marshal(s.aggregate)
	if err != nil {
		return "", s.failLocked(OpSummary, err, "")
	}
	return string(data), nil
}

// Export returns the full transfer form of the aggregate.
func (s *RoiModelService) Export() (dto.AggregateDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return dto.AggregateDto{}, s.failLocked(OpExport, err, "")
	}
	return s.mapper.ToAggregateDTO(s.aggregate), nil
}

// Compare returns one comparison row per scenario.
func (s *RoiModelService) Compare() ([]compare.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return nil, s.failLocked(OpCompare, err, "")
	}
	return compare.Rows(s.aggregate), nil
}

// Save persists the aggregate under the session owner and returns its id.
// Saving again overwrites the previous copy.
func (s *RoiModelService) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	var export dto.AggregateDto
	err := s.checkLocked()
	if err == nil {
		export = s.mapper.ToAggregateDTO(s.aggregate)
	}
	s.mu.Unlock()
	if err != nil {
		return "", s.fail(OpSave, err, "")
	}

	saved, err := dbmodels.NewSavedAggregate(s.owner, export)
	if err != nil {
		return "", s.fail(OpSave, fmt.Errorf("%w: %w", e.ErrConversion, err), "")
	}
	if err := s.repo.SaveAggregate(ctx, saved); err != nil {
		return "", s.fail(OpSave, err, "")
	}

	s.producer.Produce(events.Event{
		Type:        events.AggregateSaved,
		SessionID:   s.sessionID,
		AggregateID: export.ID,
	})
	metrics.ObserveOperation(OpSave, nil)
	s.logger.Info("Aggregate saved", zap.String("aggregate_id", export.ID))
	return export.ID, nil
}

// Load replaces the live aggregate with a saved one owned by the session owner.
func (s *RoiModelService) Load(ctx context.Context, aggregateID string) (*dto.RoiModelDto, error) {
	saved, err := s.ownedAggregate(ctx, aggregateID)
	if err != nil {
		return nil, s.fail(OpLoad, err, aggregateID)
	}
	export, err := saved.ToAggregateDTO()
	if err != nil {
		return nil, s.fail(OpLoad, fmt.Errorf("%w: %w", e.ErrConversion, err), aggregateID)
	}
	agg, err := s.mapper.FromAggregateDTO(export)
	if err != nil {
		return nil, s.fail(OpLoad, err, aggregateID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, s.failLocked(OpLoad, e.ErrSessionClosed, aggregateID)
	}
	s.aggregate = agg
	return s.succeedLocked(OpLoad)
}

// ListSaved lists the owner's saved aggregates, most recent first.
func (s *RoiModelService) ListSaved(ctx context.Context) ([]dto.SavedAggregateSummary, error) {
	list, err := s.repo.ListAggregates(ctx, s.owner)
	if err != nil {
		return nil, s.fail(OpListSaved, err, "")
	}
	out := make([]dto.SavedAggregateSummary, 0, len(list))
	for _, agg := range list {
		out = append(out, dto.SavedAggregateSummary{
			ID:               agg.ID.String(),
			ActiveRoiModelID: agg.ActiveRoiModelID.String(),
			CreatedAt:        agg.CreatedAt,
			UpdatedAt:        agg.UpdatedAt,
		})
	}
	return out, nil
}

// DeleteSaved removes a saved aggregate owned by the session owner.
func (s *RoiModelService) DeleteSaved(ctx context.Context, aggregateID string) error {
	saved, err := s.ownedAggregate(ctx, aggregateID)
	if err != nil {
		return s.fail(OpDeleteSaved, err, aggregateID)
	}
	if err := s.repo.DeleteAggregate(ctx, saved.ID); err != nil {
		return s.fail(OpDeleteSaved, err, aggregateID)
	}
	metrics.ObserveOperation(OpDeleteSaved, nil)
	return nil
}

// WaitForCalculations blocks until every calculator call started so far has
// been applied or dropped.
func (s *RoiModelService) WaitForCalculations() {
	s.calculations.Wait()
}

// Close ends the session. Results of calculations still in flight are dropped.
func (s *RoiModelService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.aggregate = nil
	s.logger.Info("Session closed")
}

// IsClosed reports whether Close has been called.
func (s *RoiModelService) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// activeInputs returns the current information together with the active
// scenario's career goal and education cost.
func (s *RoiModelService) activeInputs() (models.CurrentInformation, models.CareerGoal, models.EducationCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return models.CurrentInformation{}, models.CareerGoal{}, models.EducationCost{}, err
	}
	m, err := s.aggregate.ActiveRoiModel()
	if err != nil {
		return models.CurrentInformation{}, models.CareerGoal{}, models.EducationCost{}, err
	}
	return s.aggregate.CurrentInformation(), m.CareerGoal(), m.EducationCost(), nil
}

func (s *RoiModelService) ownedAggregate(ctx context.Context, aggregateID string) (*dbmodels.SavedAggregate, error) {
	id, err := uuid.Parse(aggregateID)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate id %q", e.ErrInvalidInput, aggregateID)
	}
	saved, err := s.repo.GetAggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	if saved.Owner != s.owner {
		return nil, e.ErrNotFound
	}
	return saved, nil
}

func (s *RoiModelService) mutate(op string, fn func(a *models.RoiAggregate) error) (*dto.RoiModelDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return nil, s.failLocked(op, err, "")
	}
	if err := fn(s.aggregate); err != nil {
		return nil, s.failLocked(op, err, "")
	}
	return s.succeedLocked(op)
}

func (s *RoiModelService) checkLocked() error {
	if s.closed {
		return e.ErrSessionClosed
	}
	if s.aggregate == nil {
		return fmt.Errorf("%w: roi aggregate does not exist", e.ErrRoiModelMissing)
	}
	return nil
}

func (s *RoiModelService) succeedLocked(op string) (*dto.RoiModelDto, error) {
	snap, err := s.processLocked()
	if err != nil {
		return nil, s.failLocked(op, err, "")
	}
	metrics.ObserveOperation(op, nil)
	return snap, nil
}

// processLocked rebuilds the calculator input, publishes the snapshot and
// starts the calculator when the input changed. A failure to build the input
// is reported under the calculator label and does not fail the mutation.
func (s *RoiModelService) processLocked() (*dto.RoiModelDto, error) {
	shouldRun, err := s.aggregate.CalculateRoiCalculatorInput()
	if err != nil {
		s.failLocked(OpCalculator, err, s.inputDetailsLocked())
		shouldRun = false
	}

	snap, err := s.mapper.ToDTO(s.aggregate)
	if err != nil {
		return nil, err
	}
	s.publishLocked(events.SnapshotPublished, snap)

	if shouldRun && s.calculator != nil {
		s.startCalculationLocked()
	}
	return snap.Clone(), nil
}

func (s *RoiModelService) startCalculationLocked() {
	agg := s.aggregate
	m, err := agg.ActiveRoiModel()
	if err != nil {
		return
	}
	modelID, hash, input := m.ID(), m.Hash(), m.RoiCalculatorInput()

	s.calculations.Add(1)
	go func() {
		defer s.calculations.Done()

		timer := metrics.NewTimer()
		out, err := s.calculator.Calculate(context.Background(), input)
		result := "ok"
		if err != nil {
			result = "error"
		}
		timer.ObserveDuration(metrics.CalculatorDuration.WithLabelValues(result))

		s.applyCalculation(agg, modelID, hash, input, out, err)
	}()
}

// applyCalculation stores a calculator result on the scenario it was computed
// for. The result is dropped when the session closed, the aggregate was
// replaced, the scenario was deleted or its input changed meanwhile.
func (s *RoiModelService) applyCalculation(
	agg *models.RoiAggregate,
	modelID uuid.UUID,
	hash string,
	input *models.CalculatorInput,
	out *models.CalculatorOutput,
	calcErr error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := agg.RoiModel(modelID)
	if s.closed || s.aggregate != agg || !ok || m.Hash() != hash {
		metrics.CalculatorResultsDropped.Inc()
		s.logger.Debug("Dropping stale calculator result", zap.String("roi_model_id", modelID.String()))
		return
	}

	if calcErr != nil {
		details, _ := json.Marshal(input)
		s.failLocked(OpCalculator, calcErr, string(details))
		return
	}

	m.UpdateRoiCalculatorOutput(out)
	metrics.ObserveOperation(OpCalculator, nil)

	snap, err := s.mapper.ToDTO(agg)
	if err != nil {
		s.failLocked(OpCalculator, err, "")
		return
	}
	s.snapshot = snap
	s.produce(events.Event{Type: events.CalculatorCompleted, Snapshot: snap})
}

func (s *RoiModelService) publishLocked(eventType events.EventType, snap *dto.RoiModelDto) {
	s.snapshot = snap
	s.produce(events.Event{Type: eventType, Snapshot: snap})
}

func (s *RoiModelService) inputDetailsLocked() string {
	in, err := s.aggregate.RoiCalculatorInput()
	if err != nil || in == nil {
		return ""
	}
	details, _ := json.Marshal(in)
	return string(details)
}

func (s *RoiModelService) fail(op string, err error, details string) *e.OperationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failLocked(op, err, details)
}

// failLocked labels err with op, records it as the last error and publishes it.
func (s *RoiModelService) failLocked(op string, err error, details string) *e.OperationError {
	var opErr *e.OperationError
	if !errors.As(err, &opErr) {
		opErr = e.NewOperationError(op, err, details)
	}

	s.lastErr = opErr
	metrics.ObserveOperation(op, err)
	s.logger.Warn("Operation failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	s.produce(events.Event{Type: events.OperationFailed, Error: opErr})
	return opErr
}

func (s *RoiModelService) produce(ev events.Event) {
	ev.SessionID = s.sessionID
	if s.aggregate != nil {
		ev.AggregateID = s.aggregate.ID().String()
	}
	s.producer.Produce(ev)
}

func parseRoiModelID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: roi model id %q", e.ErrInvalidInput, raw)
	}
	return id, nil
}

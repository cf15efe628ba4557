package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

// AggregateProps seeds a new aggregate.
type AggregateProps struct {
	CurrentInformation CurrentInformation
	RoiModel           *RoiModel
}

// DefaultAggregateProps returns a default profile and one empty scenario.
func DefaultAggregateProps() (AggregateProps, error) {
	props := DefaultRoiModelProps()
	props.Name = fmt.Sprintf("%s %d", DefaultModelName, 1)

	m, err := NewRoiModel(props, uuid.Nil)
	if err != nil {
		return AggregateProps{}, err
	}
	return AggregateProps{
		CurrentInformation: DefaultCurrentInformation(),
		RoiModel:           m,
	}, nil
}

// DataToKeep selects which fields survive a duplication. A false flag clears
// the matching field on the clone.
type DataToKeep struct {
	ModelName                            string
	IsGoalLocationSaved                  bool
	IsGoalOccupationSaved                bool
	IsGoalDegreeLevelSaved               bool
	IsGoalDegreeProgramSaved             bool
	IsGoalRetirementAgeSaved             bool
	IsEducationCostInstitutionSaved      bool
	IsEducationCostStartSchoolSaved      bool
	IsEducationCostPartTimeFullTimeSaved bool
	IsEducationCostYearsToCompleteSaved  bool
}

// KeepEverything retains every field under the given name.
func KeepEverything(name string) DataToKeep {
	return DataToKeep{
		ModelName:                            name,
		IsGoalLocationSaved:                  true,
		IsGoalOccupationSaved:                true,
		IsGoalDegreeLevelSaved:               true,
		IsGoalDegreeProgramSaved:             true,
		IsGoalRetirementAgeSaved:             true,
		IsEducationCostInstitutionSaved:      true,
		IsEducationCostStartSchoolSaved:      true,
		IsEducationCostPartTimeFullTimeSaved: true,
		IsEducationCostYearsToCompleteSaved:  true,
	}
}

// RoiAggregate is the consistency boundary for one user's scenarios: the shared
// current information plus a keyed store of RoiModels, one of which is active.
// The store is never empty outside of DeleteRoiModel.
type RoiAggregate struct {
	id                 uuid.UUID
	currentInformation CurrentInformation
	activeRoiModelID   uuid.UUID
	store              map[uuid.UUID]*RoiModel
	order              []uuid.UUID
}

// NewRoiAggregate builds an aggregate around props and registers its model as active.
// A nil id gets a fresh one.
func NewRoiAggregate(props AggregateProps, id uuid.UUID) (*RoiAggregate, error) {
	if props.RoiModel == nil {
		return nil, fmt.Errorf("%w: roi aggregate requires a roi model", e.ErrInvalidInput)
	}
	ci, err := NewCurrentInformation(props.CurrentInformation)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	a := &RoiAggregate{
		id:                 id,
		currentInformation: ci,
		store:              make(map[uuid.UUID]*RoiModel),
	}
	a.addRoiModelToStore(props.RoiModel)
	return a, nil
}

// NewDefaultRoiAggregate builds a fresh aggregate with default props.
func NewDefaultRoiAggregate() (*RoiAggregate, error) {
	props, err := DefaultAggregateProps()
	if err != nil {
		return nil, err
	}
	return NewRoiAggregate(props, uuid.Nil)
}

func (a *RoiAggregate) ID() uuid.UUID                          { return a.id }
func (a *RoiAggregate) CurrentInformation() CurrentInformation { return a.currentInformation.Clone() }
func (a *RoiAggregate) ActiveRoiModelID() uuid.UUID            { return a.activeRoiModelID }
func (a *RoiAggregate) Len() int                               { return len(a.store) }

// ActiveRoiModel resolves the active scenario.
func (a *RoiAggregate) ActiveRoiModel() (*RoiModel, error) {
	m, ok := a.store[a.activeRoiModelID]
	if !ok {
		return nil, fmt.Errorf("%w: active roi model (%s)", e.ErrRoiModelMissing, a.activeRoiModelID)
	}
	return m, nil
}

// RoiModel looks a scenario up by identity.
func (a *RoiAggregate) RoiModel(id uuid.UUID) (*RoiModel, bool) {
	m, ok := a.store[id]
	return m, ok
}

// RoiModelList returns the scenarios in insertion order.
func (a *RoiAggregate) RoiModelList() []*RoiModel {
	list := make([]*RoiModel, 0, len(a.order))
	for _, id := range a.order {
		list = append(list, a.store[id])
	}
	return list
}

// RoiCalculatorInput returns the last built calculator input of the active scenario.
func (a *RoiAggregate) RoiCalculatorInput() (*CalculatorInput, error) {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return nil, err
	}
	return m.RoiCalculatorInput(), nil
}

// AddRoiModel registers an existing scenario and makes it active.
func (a *RoiAggregate) AddRoiModel(m *RoiModel) error {
	if m == nil {
		return fmt.Errorf("%w: roi model is required", e.ErrInvalidInput)
	}
	if _, exists := a.store[m.ID()]; exists {
		return fmt.Errorf("%w: roi model (%s) already exists", e.ErrInvalidInput, m.ID())
	}
	a.addRoiModelToStore(m)
	return nil
}

// CreateEmptyRoiModel adds a default scenario and makes it active. An empty
// name is replaced by the next default name.
func (a *RoiAggregate) CreateEmptyRoiModel(name string) (*RoiModel, error) {
	props := DefaultRoiModelProps()
	props.Name = strings.TrimSpace(name)
	if props.Name == "" {
		props.Name = a.DefaultModelName()
	}

	m, err := NewRoiModel(props, uuid.Nil)
	if err != nil {
		return nil, err
	}
	a.addRoiModelToStore(m)
	return m, nil
}

// Duplicate clones the active scenario under a new identity and clears every
// field whose keep flag is false. The clone becomes active.
func (a *RoiAggregate) Duplicate(keep DataToKeep) (*RoiModel, error) {
	active, err := a.ActiveRoiModel()
	if err != nil {
		return nil, err
	}

	props := active.Props()
	props.Name = strings.TrimSpace(keep.ModelName)
	if props.Name == "" {
		props.Name = a.DefaultModelName()
	}
	props.DateCreated = now().UTC()
	props.LastUpdated = props.DateCreated

	clone, err := NewRoiModel(props, uuid.New())
	if err != nil {
		return nil, err
	}

	if !keep.IsGoalLocationSaved {
		clone.ClearCareerGoalLocation()
	}
	if !keep.IsGoalOccupationSaved {
		clone.ClearCareerGoalOccupation()
	}
	if !keep.IsGoalDegreeLevelSaved {
		clone.ClearCareerGoalDegreeLevel()
	}
	if !keep.IsGoalDegreeProgramSaved {
		clone.ClearCareerGoalDegreeProgram()
	}
	if !keep.IsGoalRetirementAgeSaved {
		clone.ClearCareerGoalRetirementAge()
	}

	if !keep.IsEducationCostInstitutionSaved {
		clone.ClearEducationCostInstitution()
	}
	if !keep.IsEducationCostStartSchoolSaved {
		clone.ClearEducationCostStartYear()
	}
	if !keep.IsEducationCostPartTimeFullTimeSaved {
		clone.ClearEducationCostPartTimeFullTime()
	}
	if !keep.IsEducationCostYearsToCompleteSaved {
		clone.ClearEducationCostYearsToComplete()
	}

	a.addRoiModelToStore(clone)
	return clone, nil
}

// MakeActive switches the active scenario. The pointer is unchanged on error.
func (a *RoiAggregate) MakeActive(id uuid.UUID) error {
	if _, ok := a.store[id]; !ok {
		return fmt.Errorf("%w: roi model (%s) does not exist", e.ErrRoiModelMissing, id)
	}
	a.activeRoiModelID = id
	return nil
}

// DeleteRoiModel removes a scenario; unknown ids are ignored. Removing the last
// scenario creates a new default one. Removing the active scenario activates
// the first remaining one.
func (a *RoiAggregate) DeleteRoiModel(id uuid.UUID) error {
	if _, ok := a.store[id]; !ok {
		return nil
	}

	delete(a.store, id)
	for i, key := range a.order {
		if key == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}

	if len(a.store) == 0 {
		_, err := a.CreateEmptyRoiModel("")
		return err
	}
	if id == a.activeRoiModelID {
		a.activeRoiModelID = a.order[0]
	}
	return nil
}

// UpdateRoiModelName renames the active scenario.
func (a *RoiAggregate) UpdateRoiModelName(name string) error {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return err
	}
	return m.UpdateRoiModelName(name)
}

// UpdateCurrentInformation replaces the shared profile.
func (a *RoiAggregate) UpdateCurrentInformation(ci CurrentInformation) error {
	ci, err := NewCurrentInformation(ci)
	if err != nil {
		return err
	}
	a.currentInformation = ci
	return nil
}

// UpdateCareerGoal replaces the career goal of the active scenario.
func (a *RoiAggregate) UpdateCareerGoal(g CareerGoal) error {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return err
	}
	return m.UpdateCareerGoal(g)
}

// UpdateEducationCost replaces the education cost of the active scenario.
func (a *RoiAggregate) UpdateEducationCost(c EducationCost) error {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return err
	}
	return m.UpdateEducationCost(c)
}

// UpdateEducationFinancing replaces the financing of the active scenario.
func (a *RoiAggregate) UpdateEducationFinancing(f EducationFinancing) error {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return err
	}
	return m.UpdateEducationFinancing(f)
}

// CalculateRoiCalculatorInput rebuilds the active scenario's calculator input
// and reports whether the calculator should run. It never reports true while
// the current information is invalid.
func (a *RoiAggregate) CalculateRoiCalculatorInput() (bool, error) {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return false, err
	}
	shouldRun, err := m.CalculateRoiCalculatorInput(a.currentInformation)
	if err != nil {
		return false, err
	}
	if !a.currentInformation.IsValid() {
		return false, nil
	}
	return shouldRun, nil
}

// UpdateRoiCalculatorOutput stores a projection on the active scenario.
func (a *RoiAggregate) UpdateRoiCalculatorOutput(out *CalculatorOutput) error {
	m, err := a.ActiveRoiModel()
	if err != nil {
		return err
	}
	m.UpdateRoiCalculatorOutput(out)
	return nil
}

// DefaultModelName returns "<prefix> <n>" where n is one more than the highest
// ordinal found among default-named scenarios. The ordinal is the integer
// leading the suffix ("Model 3abc" counts as 3); a bare prefix or a suffix
// without leading digits counts as 0.
func (a *RoiAggregate) DefaultModelName() string {
	maxOrdinal := 0
	for _, id := range a.order {
		name := a.store[id].Name()
		if !strings.HasPrefix(name, DefaultModelName) {
			continue
		}

		maxOrdinal = max(maxOrdinal, leadingInt(strings.TrimPrefix(name, DefaultModelName)))
	}
	return fmt.Sprintf("%s %d", DefaultModelName, maxOrdinal+1)
}

// leadingInt parses the optionally signed integer at the start of s after
// leading whitespace, ignoring whatever follows it. No digits yields 0.
func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func (a *RoiAggregate) addRoiModelToStore(m *RoiModel) {
	if _, exists := a.store[m.ID()]; !exists {
		a.order = append(a.order, m.ID())
	}
	a.store[m.ID()] = m
	a.activeRoiModelID = m.ID()
}

type aggregateJSON struct {
	ID                 uuid.UUID          `json:"id"`
	ActiveRoiModelID   uuid.UUID          `json:"activeRoiModelId"`
	CurrentInformation CurrentInformation `json:"currentInformation"`
	RoiModelList       []*RoiModel        `json:"roiModelList"`
}

// MarshalJSON renders the aggregate summary.
func (a *RoiAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregateJSON{
		ID:                 a.id,
		ActiveRoiModelID:   a.activeRoiModelID,
		CurrentInformation: a.currentInformation,
		RoiModelList:       a.RoiModelList(),
	})
}

package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// MockLookup implements lookup.Service for testing
type MockLookup struct {
	calls int32

	location             func(context.Context, string) (*models.Location, error)
	occupation           func(context.Context, string) (*models.Occupation, error)
	institution          func(context.Context, string) (*models.Institution, error)
	instructionalProgram func(context.Context, string) (*models.InstructionalProgram, error)
}

func (m *MockLookup) Location(ctx context.Context, zipCode string) (*models.Location, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.location(ctx, zipCode)
}

func (m *MockLookup) Occupation(ctx context.Context, onetCode string) (*models.Occupation, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.occupation(ctx, onetCode)
}

func (m *MockLookup) Institution(ctx context.Context, unitID string) (*models.Institution, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.institution(ctx, unitID)
}

func (m *MockLookup) InstructionalProgram(ctx context.Context, cipCode string) (*models.InstructionalProgram, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.instructionalProgram(ctx, cipCode)
}

func (m *MockLookup) callCount() int {
	return int(atomic.LoadInt32(&m.calls))
}

func newMockLookup() *MockLookup {
	return &MockLookup{
		location: func(_ context.Context, zip string) (*models.Location, error) {
			if zip == "00000" {
				return nil, nil
			}
			return &models.Location{ZipCode: zip, CityName: "Boston", StateAbbreviation: "MA"}, nil
		},
		occupation: func(_ context.Context, code string) (*models.Occupation, error) {
			return &models.Occupation{OnetCode: code, Title: "Registered Nurses"}, nil
		},
		institution: func(_ context.Context, id string) (*models.Institution, error) {
			return &models.Institution{UnitID: id, Name: "Northeastern University", StateAbbr: "MA"}, nil
		},
		instructionalProgram: func(_ context.Context, code string) (*models.InstructionalProgram, error) {
			return &models.InstructionalProgram{CipCode: code, CipTitle: "Nursing"}, nil
		},
	}
}

func TestFormProcessor_ProcessCareerGoal(t *testing.T) {
	f := newFixture(t)
	lk := newMockLookup()
	p := NewFormProcessor(f.svc, lk, zaptest.NewLogger(t))

	form := dto.CareerGoalForm{
		Location:           &dto.AutoCompleteModel{ID: "02115"},
		Occupation:         &dto.AutoCompleteModel{ID: "29-1141.00"},
		DegreeLevel:        models.Bachelors,
		DegreeProgram:      &dto.AutoCompleteModel{ID: "51.3801"},
		RetirementAge:      65,
		CareerGoalPathType: models.KnowCareer,
	}

	snap, err := p.ProcessCareerGoal(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 3, lk.callCount())
	assert.Equal(t, "Boston", snap.CareerGoal.Location.CityName)
	assert.Equal(t, "Registered Nurses", snap.CareerGoal.Occupation.Title)
	assert.Equal(t, "Nursing", snap.CareerGoal.DegreeProgram.CipTitle)
	assert.Equal(t, models.KnowCareer, snap.CareerGoal.CareerGoalPathType)

	// unchanged selections are reused
	form.RetirementAge = 70
	snap, err = p.ProcessCareerGoal(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 3, lk.callCount())
	assert.Equal(t, 70, snap.CareerGoal.RetirementAge)

	// a changed selection triggers only its own lookup
	form.Location = &dto.AutoCompleteModel{ID: "02139"}
	snap, err = p.ProcessCareerGoal(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 4, lk.callCount())
	assert.Equal(t, "02139", snap.CareerGoal.Location.ZipCode)

	// clearing a selection clears the field
	form.DegreeProgram = nil
	snap, err = p.ProcessCareerGoal(context.Background(), form)
	require.NoError(t, err)
	assert.Nil(t, snap.CareerGoal.DegreeProgram)
}

func TestFormProcessor_ProcessCurrentInformation(t *testing.T) {
	f := newFixture(t)
	lk := newMockLookup()
	p := NewFormProcessor(f.svc, lk, zaptest.NewLogger(t))

	snap, err := p.ProcessCurrentInformation(context.Background(), dto.CurrentInformationForm{
		CurrentAge:     30,
		Location:       &dto.AutoCompleteModel{ID: "02115"},
		Occupation:     &dto.AutoCompleteModel{ID: "41-2031.00"},
		EducationLevel: models.HighSchool,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, snap.CurrentInformation.CurrentAge)
	assert.Equal(t, "MA", snap.CurrentInformation.Location.StateAbbreviation)

	f.svc.WaitForCalculations()
	assert.Equal(t, 1, f.calculator.callCount(), "a complete profile starts the calculator")
}

func TestFormProcessor_ProcessEducationCost(t *testing.T) {
	f := newFixture(t)
	lk := newMockLookup()
	p := NewFormProcessor(f.svc, lk, zaptest.NewLogger(t))

	form := dto.EducationCostForm{
		Institution:           &dto.AutoCompleteModel{ID: "167358"},
		StartYear:             2027,
		IncomeRange:           models.Income48001To75000,
		IsFulltime:            true,
		YearsToCompleteDegree: 4,
	}
	snap, err := p.ProcessEducationCost(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "Northeastern University", snap.EducationCost.Institution.Name)
	assert.Equal(t, 4, snap.EducationCost.YearsToCompleteDegree)

	_, err = p.ProcessEducationCost(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 1, lk.callCount())
}

func TestFormProcessor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*MockLookup)
		form   dto.CareerGoalForm
		target error
	}{
		{
			name:   "invalid form",
			setup:  func(*MockLookup) {},
			form:   dto.CareerGoalForm{Location: &dto.AutoCompleteModel{}},
			target: e.ErrInvalidInput,
		},
		{
			name:   "unknown selection",
			setup:  func(*MockLookup) {},
			form:   dto.CareerGoalForm{Location: &dto.AutoCompleteModel{ID: "00000"}},
			target: e.ErrInvalidInput,
		},
		{
			name: "lookup failure",
			setup: func(m *MockLookup) {
				m.occupation = func(context.Context, string) (*models.Occupation, error) {
					return nil, errLookupDown
				}
			},
			form:   dto.CareerGoalForm{Occupation: &dto.AutoCompleteModel{ID: "29-1141.00"}},
			target: errLookupDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lk := newMockLookup()
			tt.setup(lk)
			p := NewFormProcessor(f.svc, lk, zaptest.NewLogger(t))
			before := f.svc.Snapshot()

			_, err := p.ProcessCareerGoal(context.Background(), tt.form)

			requireOpError(t, err, OpUpdateCareerGoal, tt.target)
			assert.NotNil(t, f.svc.LastError())
			assert.Equal(t, before, f.svc.Snapshot())
		})
	}
}

var errLookupDown = errors.New("reference service down")

func TestFormProcessor_ClosedSession(t *testing.T) {
	f := newFixture(t)
	lk := newMockLookup()
	p := NewFormProcessor(f.svc, lk, zaptest.NewLogger(t))

	// the session closes while the lookup is in flight
	lk.institution = func(_ context.Context, id string) (*models.Institution, error) {
		f.svc.Close()
		return &models.Institution{UnitID: id}, nil
	}

	_, err := p.ProcessEducationCost(context.Background(), dto.EducationCostForm{
		Institution: &dto.AutoCompleteModel{ID: "167358"},
	})
	requireOpError(t, err, OpUpdateEducationCost, e.ErrSessionClosed)
	assert.Nil(t, f.svc.LastError(), "late results of a closed session are not published")
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gartstein/roimodeling/internal/roimodel/auth"
	"github.com/gartstein/roimodeling/internal/roimodel/controller"
	dbmodels "github.com/gartstein/roimodeling/internal/roimodel/db/models"
	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/events"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

const testSecret = "test-secret"

type nopProducer struct{}

func (nopProducer) Produce(events.Event) {}

type stubCalculator struct{}

func (stubCalculator) Calculate(_ context.Context, in *models.CalculatorInput) (*models.CalculatorOutput, error) {
	return &models.CalculatorOutput{LifetimeEarningsGoal: float64(in.RetirementAge) * 1000}, nil
}

// memoryRepository keeps saved aggregates in a map.
type memoryRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*dbmodels.SavedAggregate
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{store: map[uuid.UUID]*dbmodels.SavedAggregate{}}
}

func (r *memoryRepository) SaveAggregate(_ context.Context, agg *dbmodels.SavedAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[agg.ID] = agg
	return nil
}

func (r *memoryRepository) GetAggregate(_ context.Context, id uuid.UUID) (*dbmodels.SavedAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.store[id]
	if !ok {
		return nil, e.ErrNotFound
	}
	return agg, nil
}

func (r *memoryRepository) ListAggregates(_ context.Context, owner string) ([]dbmodels.SavedAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dbmodels.SavedAggregate
	for _, agg := range r.store {
		if agg.Owner == owner {
			out = append(out, *agg)
		}
	}
	return out, nil
}

func (r *memoryRepository) DeleteAggregate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return e.ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// MockLookup is a mock implementation of lookup.Service
type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Location(ctx context.Context, zipCode string) (*models.Location, error) {
	args := m.Called(ctx, zipCode)
	loc, _ := args.Get(0).(*models.Location)
	return loc, args.Error(1)
}

func (m *MockLookup) Occupation(ctx context.Context, onetCode string) (*models.Occupation, error) {
	args := m.Called(ctx, onetCode)
	occ, _ := args.Get(0).(*models.Occupation)
	return occ, args.Error(1)
}

func (m *MockLookup) Institution(ctx context.Context, unitID string) (*models.Institution, error) {
	args := m.Called(ctx, unitID)
	inst, _ := args.Get(0).(*models.Institution)
	return inst, args.Error(1)
}

func (m *MockLookup) InstructionalProgram(ctx context.Context, cipCode string) (*models.InstructionalProgram, error) {
	args := m.Called(ctx, cipCode)
	p, _ := args.Get(0).(*models.InstructionalProgram)
	return p, args.Error(1)
}

type testAPI struct {
	router   *gin.Engine
	sessions *controller.Sessions
	lookup   *MockLookup
	repo     *memoryRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	api := &testAPI{
		lookup: &MockLookup{},
		repo:   newMemoryRepository(),
	}
	api.sessions = controller.NewSessions(controller.Dependencies{
		Calculator: stubCalculator{},
		Producer:   nopProducer{},
		Repository: api.repo,
		Logger:     logger,
	})
	t.Cleanup(api.sessions.CloseAll)

	api.router = NewRouter(NewHandler(api.sessions, api.lookup, logger), testSecret)
	return api
}

func (a *testAPI) do(t *testing.T, owner, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		token, err := auth.GenerateToken(owner, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandler_Unauthenticated(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "", http.MethodGet, "/api/v1/roi-models", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, api.sessions.Len())
}

func TestHandler_Live(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "", http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestHandler_Session(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "alice", http.MethodPost, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		SessionID string          `json:"sessionId"`
		Snapshot  dto.RoiModelDto `json:"snapshot"`
	}](t, w)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Model 1", resp.Snapshot.Name)
	assert.Equal(t, 1, api.sessions.Len())

	w = api.do(t, "alice", http.MethodDelete, "/api/v1/session", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := api.sessions.Get("alice")
	assert.False(t, ok)
}

func TestHandler_SessionsAreScopedByOwner(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "alice", http.MethodPost, "/api/v1/roi-models", nameRequest{Name: "Nursing"})
	require.Equal(t, http.StatusCreated, w.Code)

	alice := decode[[]dto.RoiModelDto](t, api.do(t, "alice", http.MethodGet, "/api/v1/roi-models", nil))
	bob := decode[[]dto.RoiModelDto](t, api.do(t, "bob", http.MethodGet, "/api/v1/roi-models", nil))
	assert.Len(t, alice, 2)
	assert.Len(t, bob, 1)
}

func TestHandler_RoiModelLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "alice", http.MethodPost, "/api/v1/roi-models", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	second := decode[dto.RoiModelDto](t, w)
	assert.Equal(t, "Model 2", second.Name)

	w = api.do(t, "alice", http.MethodPut, "/api/v1/roi-models/active/name", nameRequest{Name: "Nursing"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Nursing", decode[dto.RoiModelDto](t, w).Name)

	w = api.do(t, "alice", http.MethodPost, "/api/v1/roi-models/active/duplicate", dto.DialogDataToKeepModel{ModelName: "Copy"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Copy", decode[dto.RoiModelDto](t, w).Name)

	list := decode[[]dto.RoiModelDto](t, api.do(t, "alice", http.MethodGet, "/api/v1/roi-models", nil))
	require.Len(t, list, 3)

	w = api.do(t, "alice", http.MethodPost, "/api/v1/roi-models/"+list[0].ID+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, list[0].ID, decode[dto.RoiModelDto](t, w).ID)

	w = api.do(t, "alice", http.MethodGet, "/api/v1/roi-models/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, list[0].ID, decode[dto.RoiModelDto](t, w).ID)

	w = api.do(t, "alice", http.MethodDelete, "/api/v1/roi-models/"+list[1].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]dto.RoiModelDto](t, api.do(t, "alice", http.MethodGet, "/api/v1/roi-models", nil))
	assert.Len(t, list, 2)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantOp     string
	}{
		{
			name:       "activate unknown scenario",
			method:     http.MethodPost,
			path:       "/api/v1/roi-models/" + uuid.NewString() + "/activate",
			wantStatus: http.StatusNotFound,
			wantOp:     controller.OpMakeActive,
		},
		{
			name:       "activate malformed id",
			method:     http.MethodPost,
			path:       "/api/v1/roi-models/not-a-uuid/activate",
			wantStatus: http.StatusBadRequest,
			wantOp:     controller.OpMakeActive,
		},
		{
			name:       "empty name",
			method:     http.MethodPut,
			path:       "/api/v1/roi-models/active/name",
			body:       nameRequest{},
			wantStatus: http.StatusBadRequest,
			wantOp:     controller.OpUpdateName,
		},
		{
			name:       "age out of range",
			method:     http.MethodPut,
			path:       "/api/v1/current-information",
			body:       dto.CurrentInformationDto{CurrentAge: 500},
			wantStatus: http.StatusBadRequest,
			wantOp:     controller.OpUpdateCurrentInformation,
		},
		{
			name:       "load unknown aggregate",
			method:     http.MethodPost,
			path:       "/api/v1/saved/" + uuid.NewString() + "/load",
			wantStatus: http.StatusNotFound,
			wantOp:     controller.OpLoad,
		},
		{
			name:       "delete unknown aggregate",
			method:     http.MethodDelete,
			path:       "/api/v1/saved/" + uuid.NewString(),
			wantStatus: http.StatusNotFound,
			wantOp:     controller.OpDeleteSaved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			w := api.do(t, "alice", tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			resp := decode[errorResponse](t, w)
			assert.Equal(t, tt.wantOp, resp.Op)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	api := newTestAPI(t)

	token, err := auth.GenerateToken("alice", testSecret)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/career-goal", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "invalid request body")
}

func TestHandler_OptionalBody(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		body         string
		expectedCode int
		expectedName string
	}{
		{name: "roi model without body", path: "/api/v1/roi-models", expectedCode: http.StatusCreated, expectedName: "Model 2"},
		{name: "roi model blank body", path: "/api/v1/roi-models", body: " \n", expectedCode: http.StatusCreated, expectedName: "Model 2"},
		{name: "roi model named", path: "/api/v1/roi-models", body: `{"name":"Welding"}`, expectedCode: http.StatusCreated, expectedName: "Welding"},
		{name: "roi model malformed", path: "/api/v1/roi-models", body: "{", expectedCode: http.StatusBadRequest},
		{name: "aggregate without body", path: "/api/v1/aggregate", expectedCode: http.StatusCreated, expectedName: "Model 1"},
		{name: "aggregate malformed", path: "/api/v1/aggregate", body: "[", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			token, err := auth.GenerateToken("alice", testSecret)
			require.NoError(t, err)

			// chunked uploads carry no length
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			req.ContentLength = -1
			req.TransferEncoding = []string{"chunked"}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			api.router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.expectedName != "" {
				assert.Equal(t, tt.expectedName, decode[dto.RoiModelDto](t, w).Name)
			}
		})
	}
}

func TestHandler_UpdatesReachCompare(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "alice", http.MethodPut, "/api/v1/current-information", dto.CurrentInformationDto{
		CurrentAge:     30,
		Location:       &models.Location{ZipCode: "10001", CityName: "New York", StateAbbreviation: "NY"},
		EducationLevel: models.HighSchool,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 30, decode[dto.RoiModelDto](t, w).CurrentInformation.CurrentAge)

	w = api.do(t, "alice", http.MethodPut, "/api/v1/career-goal", dto.CareerGoalDto{
		DegreeLevel:   models.Bachelors,
		RetirementAge: 65,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.Bachelors, decode[dto.RoiModelDto](t, w).CareerGoal.DegreeLevel)

	w = api.do(t, "alice", http.MethodPut, "/api/v1/education-cost", dto.EducationCostDto{
		StartYear:             2027,
		IsFulltime:            true,
		YearsToCompleteDegree: 4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, "alice", http.MethodPut, "/api/v1/education-financing", dto.EducationFinancingDto{
		YearsToPayOffFederalLoan: 10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, "alice", http.MethodGet, "/api/v1/compare", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]map[string]interface{}](t, w)
	assert.Len(t, rows, 1)

	w = api.do(t, "alice", http.MethodGet, "/api/v1/aggregate/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))
}

func TestHandler_Forms(t *testing.T) {
	api := newTestAPI(t)
	loc := &models.Location{ZipCode: "02139", CityName: "Cambridge", StateAbbreviation: "MA"}
	api.lookup.On("Location", mock.Anything, "02139").Return(loc, nil).Once()

	w := api.do(t, "alice", http.MethodPost, "/api/v1/forms/current-information", dto.CurrentInformationForm{
		CurrentAge:     25,
		Location:       &dto.AutoCompleteModel{ID: "02139"},
		EducationLevel: models.HighSchool,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decode[dto.RoiModelDto](t, w)
	assert.Equal(t, loc, snap.CurrentInformation.Location)
	api.lookup.AssertExpectations(t)

	api.lookup.On("Institution", mock.Anything, "999999").Return(nil, nil).Once()
	w = api.do(t, "alice", http.MethodPost, "/api/v1/forms/education-cost", dto.EducationCostForm{
		Institution:           &dto.AutoCompleteModel{ID: "999999"},
		StartYear:             2027,
		YearsToCompleteDegree: 4,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	api.lookup.On("Occupation", mock.Anything, "29-1141.00").Return(nil, errors.New("lookup down")).Once()
	w = api.do(t, "alice", http.MethodPost, "/api/v1/forms/career-goal", dto.CareerGoalForm{
		Occupation:    &dto.AutoCompleteModel{ID: "29-1141.00"},
		RetirementAge: 65,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	assert.Equal(t, "internal server error", decode[errorResponse](t, w).Error)
	api.lookup.AssertExpectations(t)
}

func TestHandler_AggregateAndErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, "alice", http.MethodGet, "/api/v1/errors/last", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	api.do(t, "alice", http.MethodPost, "/api/v1/roi-models/nope/activate", nil)
	w = api.do(t, "alice", http.MethodGet, "/api/v1/errors/last", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, controller.OpMakeActive, decode[e.OperationError](t, w).Op)

	w = api.do(t, "alice", http.MethodPost, "/api/v1/aggregate/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, "alice", http.MethodGet, "/api/v1/errors/last", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(t, "alice", http.MethodPost, "/api/v1/aggregate", dto.RoiModelDto{Name: "Imported", RadiusInMiles: 25})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Imported", decode[dto.RoiModelDto](t, w).Name)

	w = api.do(t, "alice", http.MethodPost, "/api/v1/aggregate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Model 1", decode[dto.RoiModelDto](t, w).Name)

	w = api.do(t, "alice", http.MethodGet, "/api/v1/aggregate/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	export := decode[dto.AggregateDto](t, w)
	assert.Len(t, export.RoiModels, 1)
	assert.Equal(t, export.RoiModels[0].ID, export.ActiveRoiModelID)
}

func TestHandler_SaveAndLoad(t *testing.T) {
	api := newTestAPI(t)

	api.do(t, "alice", http.MethodPut, "/api/v1/roi-models/active/name", nameRequest{Name: "Nursing"})
	w := api.do(t, "alice", http.MethodPost, "/api/v1/saved", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]string](t, w)["id"]
	require.NotEmpty(t, id)

	saved := decode[[]dto.SavedAggregateSummary](t, api.do(t, "alice", http.MethodGet, "/api/v1/saved", nil))
	require.Len(t, saved, 1)
	assert.Equal(t, id, saved[0].ID)

	// bob cannot see or load alice's aggregate
	assert.Empty(t, decode[[]dto.SavedAggregateSummary](t, api.do(t, "bob", http.MethodGet, "/api/v1/saved", nil)))
	w = api.do(t, "bob", http.MethodPost, fmt.Sprintf("/api/v1/saved/%s/load", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.do(t, "alice", http.MethodPost, "/api/v1/aggregate/clear", nil)
	w = api.do(t, "alice", http.MethodPost, fmt.Sprintf("/api/v1/saved/%s/load", id), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Nursing", decode[dto.RoiModelDto](t, w).Name)

	w = api.do(t, "alice", http.MethodDelete, "/api/v1/saved/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, api.repo.store)
}

func TestMapServiceError(t *testing.T) {
	h := NewHandler(nil, nil, zaptest.NewLogger(t))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", e.ErrNotFound, http.StatusNotFound},
		{"missing model", fmt.Errorf("%w: gone", e.ErrRoiModelMissing), http.StatusNotFound},
		{"invalid input", e.NewOperationError("UPDATE NAME", e.ErrInvalidInput, ""), http.StatusBadRequest},
		{"conversion", fmt.Errorf("%w: %w", e.ErrConversion, errors.New("bad uuid")), http.StatusBadRequest},
		{"session closed", e.ErrSessionClosed, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.mapServiceError(tt.err))
		})
	}
}

package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbmodels "github.com/gartstein/roimodeling/internal/roimodel/db/models"
	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
	"github.com/gartstein/roimodeling/internal/roimodel/models"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")

	// every new connection to :memory: is a fresh database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrate(db), "failed to migrate test database")

	return &Repository{db: db}
}

func testExport(names ...string) dto.AggregateDto {
	d := dto.AggregateDto{
		ID: uuid.NewString(),
		CurrentInformation: &dto.CurrentInformationDto{
			CurrentAge:     28,
			Location:       &models.Location{ZipCode: "02139", StateAbbreviation: "MA"},
			EducationLevel: models.Associates,
		},
	}
	for _, name := range names {
		d.RoiModels = append(d.RoiModels, dto.RoiModelDto{
			ID:            uuid.NewString(),
			Name:          name,
			RadiusInMiles: 50,
			CareerGoal:    &dto.CareerGoalDto{DegreeLevel: models.Bachelors, RetirementAge: 67},
		})
	}
	d.ActiveRoiModelID = d.RoiModels[len(d.RoiModels)-1].ID
	return d
}

func saveExport(t *testing.T, repo *Repository, owner string, d dto.AggregateDto) *dbmodels.SavedAggregate {
	t.Helper()
	saved, err := dbmodels.NewSavedAggregate(owner, d)
	require.NoError(t, err)
	require.NoError(t, repo.SaveAggregate(context.Background(), saved))
	return saved
}

// TestSaveAndGetAggregate verifies a saved export reads back unchanged and in order.
func TestSaveAndGetAggregate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	export := testExport("Model 1", "Nursing", "Model 2")
	saved := saveExport(t, repo, "alice", export)

	got, err := repo.GetAggregate(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	require.Len(t, got.RoiModels, 3)

	back, err := got.ToAggregateDTO()
	require.NoError(t, err)
	assert.Equal(t, export.ID, back.ID)
	assert.Equal(t, export.ActiveRoiModelID, back.ActiveRoiModelID)
	assert.Equal(t, export.CurrentInformation, back.CurrentInformation)
	for i, m := range back.RoiModels {
		assert.Equal(t, export.RoiModels[i].ID, m.ID)
		assert.Equal(t, export.RoiModels[i].Name, m.Name)
		assert.Equal(t, models.Bachelors, m.CareerGoal.DegreeLevel)
		assert.Nil(t, m.CurrentInformation)
	}
}

// TestSaveAggregateReplacesModels verifies a second save overwrites the first.
func TestSaveAggregateReplacesModels(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	export := testExport("Model 1", "Model 2")
	saveExport(t, repo, "alice", export)

	export.RoiModels = export.RoiModels[:1]
	export.RoiModels[0].Name = "Renamed"
	export.ActiveRoiModelID = export.RoiModels[0].ID
	export.CurrentInformation.CurrentAge = 29
	saveExport(t, repo, "alice", export)

	got, err := repo.GetAggregate(ctx, uuid.MustParse(export.ID))
	require.NoError(t, err)
	back, err := got.ToAggregateDTO()
	require.NoError(t, err)

	require.Len(t, back.RoiModels, 1)
	assert.Equal(t, "Renamed", back.RoiModels[0].Name)
	assert.Equal(t, 29, back.CurrentInformation.CurrentAge)
	assert.Equal(t, export.RoiModels[0].ID, back.ActiveRoiModelID)
}

// TestGetAggregateNotFound verifies error handling when the aggregate does not exist.
func TestGetAggregateNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetAggregate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListAggregates(t *testing.T) {
	repo := SetupTestDB(t)
	saveExport(t, repo, "alice", testExport("Model 1"))
	saveExport(t, repo, "alice", testExport("Model 1"))
	saveExport(t, repo, "bob", testExport("Model 1"))

	list, err := repo.ListAggregates(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, agg := range list {
		assert.Equal(t, "alice", agg.Owner)
	}

	none, err := repo.ListAggregates(context.Background(), "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteAggregate(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	saved := saveExport(t, repo, "alice", testExport("Model 1", "Model 2"))

	require.NoError(t, repo.DeleteAggregate(ctx, saved.ID))

	_, err := repo.GetAggregate(ctx, saved.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	var orphans int64
	require.NoError(t, repo.db.Model(&dbmodels.SavedRoiModel{}).Where("aggregate_id = ?", saved.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	assert.ErrorIs(t, repo.DeleteAggregate(ctx, saved.ID), e.ErrNotFound)
}

func TestNewSavedAggregateInvalidIDs(t *testing.T) {
	export := testExport("Model 1")
	export.ID = "nope"
	_, err := dbmodels.NewSavedAggregate("alice", export)
	assert.Error(t, err)

	export = testExport("Model 1")
	export.RoiModels[0].ID = "nope"
	_, err = dbmodels.NewSavedAggregate("alice", export)
	assert.Error(t, err)
}

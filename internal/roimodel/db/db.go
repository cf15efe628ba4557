package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodels "github.com/gartstein/roimodeling/internal/roimodel/db/models"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Repository{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&dbmodels.SavedAggregate{}, &dbmodels.SavedRoiModel{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SaveAggregate upserts the aggregate row and replaces its scenario rows.
func (r *Repository) SaveAggregate(ctx context.Context, agg *dbmodels.SavedAggregate) error {
	return r.WithTransaction(ctx, func(repo *Repository) error {
		tx := repo.db.WithContext(ctx)

		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner", "active_roi_model_id", "current_information", "updated_at"}),
		}).Create(agg)
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("aggregate_id = ?", agg.ID).Delete(&dbmodels.SavedRoiModel{}).Error; err != nil {
			return err
		}
		if len(agg.RoiModels) == 0 {
			return nil
		}
		return tx.Create(&agg.RoiModels).Error
	})
}

func (r *Repository) GetAggregate(ctx context.Context, id uuid.UUID) (*dbmodels.SavedAggregate, error) {
	var agg dbmodels.SavedAggregate
	result := r.db.WithContext(ctx).
		Preload("RoiModels", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&agg, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return &agg, nil
}

// ListAggregates returns the owner's saved aggregates, most recent first,
// without their scenarios.
func (r *Repository) ListAggregates(ctx context.Context, owner string) ([]dbmodels.SavedAggregate, error) {
	var list []dbmodels.SavedAggregate
	result := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated_at DESC").
		Find(&list)
	if result.Error != nil {
		return nil, result.Error
	}
	return list, nil
}

func (r *Repository) DeleteAggregate(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(repo *Repository) error {
		tx := repo.db.WithContext(ctx)
		if err := tx.Where("aggregate_id = ?", id).Delete(&dbmodels.SavedRoiModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&dbmodels.SavedAggregate{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

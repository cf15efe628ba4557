// Package models contains the persisted form of saved scenario sets,
// configured to work using GORM as the ORM.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
)

// SavedAggregate is one saved scenario set. Scenarios are stored as JSON
// payloads in SavedRoiModel rows, ordered by Position.
type SavedAggregate struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Owner              string    `gorm:"size:255;index;not null"`
	ActiveRoiModelID   uuid.UUID `gorm:"type:uuid"`
	CurrentInformation datatypes.JSON
	RoiModels          []SavedRoiModel `gorm:"foreignKey:AggregateID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SavedRoiModel is one scenario of a saved aggregate.
type SavedRoiModel struct {
	AggregateID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position    int       `gorm:"check:position >= 0"`
	Name        string    `gorm:"size:255"`
	Payload     datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSavedAggregate flattens an export into rows owned by owner.
func NewSavedAggregate(owner string, d dto.AggregateDto) (*SavedAggregate, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate id: %w", err)
	}
	activeID, err := uuid.Parse(d.ActiveRoiModelID)
	if err != nil {
		return nil, fmt.Errorf("active roi model id: %w", err)
	}
	ci, err := json.Marshal(d.CurrentInformation)
	if err != nil {
		return nil, fmt.Errorf("encode current information: %w", err)
	}

	saved := &SavedAggregate{
		ID:                 id,
		Owner:              owner,
		ActiveRoiModelID:   activeID,
		CurrentInformation: datatypes.JSON(ci),
		RoiModels:          make([]SavedRoiModel, 0, len(d.RoiModels)),
	}
	for i, m := range d.RoiModels {
		modelID, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, fmt.Errorf("roi model id: %w", err)
		}
		// current information lives on the aggregate row
		m.CurrentInformation = nil
		payload, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode roi model: %w", err)
		}
		saved.RoiModels = append(saved.RoiModels, SavedRoiModel{
			AggregateID: id,
			ID:          modelID,
			Position:    i,
			Name:        m.Name,
			Payload:     datatypes.JSON(payload),
		})
	}
	return saved, nil
}

// ToAggregateDTO rebuilds the export. RoiModels must be ordered by Position.
func (s *SavedAggregate) ToAggregateDTO() (dto.AggregateDto, error) {
	out := dto.AggregateDto{
		ID:               s.ID.String(),
		ActiveRoiModelID: s.ActiveRoiModelID.String(),
		RoiModels:        make([]dto.RoiModelDto, 0, len(s.RoiModels)),
	}
	if len(s.CurrentInformation) > 0 {
		if err := json.Unmarshal(s.CurrentInformation, &out.CurrentInformation); err != nil {
			return dto.AggregateDto{}, fmt.Errorf("decode current information: %w", err)
		}
	}
	for _, row := range s.RoiModels {
		var m dto.RoiModelDto
		if err := json.Unmarshal(row.Payload, &m); err != nil {
			return dto.AggregateDto{}, fmt.Errorf("decode roi model %s: %w", row.ID, err)
		}
		out.RoiModels = append(out.RoiModels, m)
	}
	return out, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistics-live-tracking/internal/domain/load"
	"logistics-live-tracking/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoadRepository struct {
	db *DB
}

func NewLoadRepository(db *DB) *LoadRepository {
	return &LoadRepository{db: db}
}

func (r *LoadRepository) GetByID(ctx context.Context, id uuid.UUID) (*load.Load, error) {
	var dbModel models.LoadModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, load.ErrLoadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get load: %w", err)
	}

	return toLoadEntity(&dbModel), nil
}

func (r *LoadRepository) ListActive(ctx context.Context) ([]*load.Load, error) {
	statuses := make([]string, len(load.ActiveStatuses))
	for i, s := range load.ActiveStatuses {
		statuses[i] = string(s)
	}

	var dbModels []models.LoadModel
	err := r.db.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("reference ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active loads: %w", err)
	}

	loads := make([]*load.Load, len(dbModels))
	for i := range dbModels {
		loads[i] = toLoadEntity(&dbModels[i])
	}
	return loads, nil
}

// UpdateStatus writes one lifecycle transition conditionally: the row is
// only touched while its status still equals current, so a concurrent
// manual status change wins over a stale tracking decision.
func (r *LoadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, current, next load.Status, patch load.TimestampPatch) error {
	updates := map[string]interface{}{
		"status":     string(next),
		"updated_at": time.Now(),
	}
	if patch.ActualLoadingArrival != nil {
		updates["actual_loading_arrival"] = patch.ActualLoadingArrival
	}
	if patch.ActualLoadingDeparture != nil {
		updates["actual_loading_departure"] = patch.ActualLoadingDeparture
	}
	if patch.ActualOffloadingArrival != nil {
		updates["actual_offloading_arrival"] = patch.ActualOffloadingArrival
	}
	if patch.ActualOffloadingDeparture != nil {
		updates["actual_offloading_departure"] = patch.ActualOffloadingDeparture
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.LoadModel{}).
		Where("id = ? AND status = ?", id, string(current)).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update load status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the load is gone or its status moved under us.
		var count int64
		if err := r.db.DB.WithContext(ctx).
			Model(&models.LoadModel{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check load existence: %w", err)
		}
		if count == 0 {
			return load.ErrLoadNotFound
		}
		return load.ErrStaleStatus
	}

	return nil
}

func toLoadEntity(m *models.LoadModel) *load.Load {
	return &load.Load{
		ID:                        m.ID,
		Reference:                 m.Reference,
		Origin:                    m.Origin,
		Destination:               m.Destination,
		Status:                    load.Status(m.Status),
		VehicleIdentifier:         m.VehicleIdentifier,
		DriverName:                m.DriverName,
		ClientName:                m.ClientName,
		ActualLoadingArrival:      m.ActualLoadingArrival,
		ActualLoadingDeparture:    m.ActualLoadingDeparture,
		ActualOffloadingArrival:   m.ActualOffloadingArrival,
		ActualOffloadingDeparture: m.ActualOffloadingDeparture,
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}
}

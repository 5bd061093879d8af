package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
)

type DriverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Agency").
		First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *DriverRepository) ClearAgency(ctx context.Context, driverID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Driver{}).
		Where("id = ?", driverID).
		Update("agency_id", gorm.Expr("NULL")).Error
}

type DriverReportFilter struct {
	City     *string
	AgencyID *uuid.UUID
}

func (r *DriverRepository) ListForReport(ctx context.Context, filter DriverReportFilter) ([]model.Driver, error) {
	query := r.db.WithContext(ctx).Model(&model.Driver{})
	if filter.City != nil {
		query = query.Where("city = ?", *filter.City)
	}
	if filter.AgencyID != nil {
		query = query.Where("agency_id = ?", *filter.AgencyID)
	}

	var drivers []model.Driver
	if err := query.
		Order("created_at ASC").
		Preload("Profile").
		Find(&drivers).Error; err != nil {
		return nil, err
	}
	return drivers, nil
}

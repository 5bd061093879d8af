package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
)

type FacilityRepository struct {
	db *gorm.DB
}

func NewFacilityRepository(db *gorm.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

func (r *FacilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error) {
	var facility model.Facility
	if err := r.db.WithContext(ctx).
		Preload("Services").
		First(&facility, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &facility, nil
}

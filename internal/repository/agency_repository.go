package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
)

var (
	// ErrDriverAffiliated is returned when an accept races or conflicts with an
	// existing affiliation; the request itself is left untouched.
	ErrDriverAffiliated = errors.New("driver already affiliated with an agency")
	// ErrRequestNotPending is returned when a resolved request is acted on.
	ErrRequestNotPending = errors.New("request is not pending")
)

type AgencyRepository struct {
	db *gorm.DB
}

func NewAgencyRepository(db *gorm.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

func (r *AgencyRepository) GetAgency(ctx context.Context, id uuid.UUID) (*model.Agency, error) {
	var agency model.Agency
	if err := r.db.WithContext(ctx).First(&agency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *AgencyRepository) GetRequest(ctx context.Context, id uuid.UUID) (*model.AgencyRequest, error) {
	var req model.AgencyRequest
	if err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Driver.Profile").
		Preload("Agency").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

type RequestFilter struct {
	DriverID *uuid.UUID
	AgencyID *uuid.UUID
	Statuses []model.AgencyRequestStatus
	Limit    int
	Offset   int
}

func (r *AgencyRepository) ListRequests(ctx context.Context, filter RequestFilter) ([]model.AgencyRequest, error) {
	query := r.db.WithContext(ctx).Model(&model.AgencyRequest{})
	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.AgencyID != nil {
		query = query.Where("agency_id = ?", *filter.AgencyID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var requests []model.AgencyRequest
	if err := query.
		Order("created_at DESC").
		Preload("Driver").
		Preload("Driver.Profile").
		Preload("Agency").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateRequest relies on the partial unique index on (driver_id, agency_id)
// WHERE status = 'pending'; a duplicate pending pair surfaces as
// gorm.ErrDuplicatedKey.
func (r *AgencyRepository) CreateRequest(ctx context.Context, req *model.AgencyRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *AgencyRepository) HasPending(ctx context.Context, driverID, agencyID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.AgencyRequest{}).
		Where("driver_id = ? AND agency_id = ? AND status = ?",
			driverID, agencyID, model.AgencyRequestStatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Resolve moves a pending request to a terminal status. Returns false when the
// request was no longer pending.
func (r *AgencyRepository) Resolve(ctx context.Context, requestID uuid.UUID, to model.AgencyRequestStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.AgencyRequest{}).
		Where("id = ? AND status = ?", requestID, model.AgencyRequestStatusPending).
		Updates(map[string]interface{}{
			"status":       to,
			"responded_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AcceptRequest links the driver to the agency and resolves the request in
// one transaction. The affiliation update is guarded on agency_id being null;
// when the driver is already affiliated the request is not mutated.
func (r *AgencyRepository) AcceptRequest(ctx context.Context, requestID, driverID, agencyID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Driver{}).
			Where("id = ? AND agency_id IS NULL", driverID).
			Update("agency_id", agencyID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDriverAffiliated
		}

		res = tx.Model(&model.AgencyRequest{}).
			Where("id = ? AND status = ?", requestID, model.AgencyRequestStatusPending).
			Updates(map[string]interface{}{
				"status":       model.AgencyRequestStatusAccepted,
				"responded_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotPending
		}
		return nil
	})
}

// CancelPendingBetween closes every remaining pending request for the pair.
// Used when an affiliation ends.
func (r *AgencyRepository) CancelPendingBetween(ctx context.Context, driverID, agencyID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AgencyRequest{}).
		Where("driver_id = ? AND agency_id = ? AND status = ?",
			driverID, agencyID, model.AgencyRequestStatusPending).
		Updates(map[string]interface{}{
			"status":       model.AgencyRequestStatusCancelled,
			"responded_at": now,
		}).Error
}

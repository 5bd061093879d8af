package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
)

// errNoTransition aborts a repository transaction when the guarded status
// update matched no row (wrong prior status or concurrent writer won).
var errNoTransition = errors.New("status precondition not met")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type OrderFilter struct {
	DriverID   *uuid.UUID
	FacilityID *uuid.UUID
	Statuses   []model.OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_intent_id", intentID).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Driver.Profile").
		Preload("Facility").
		Preload("Transactions").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).
		Preload("Driver").
		First(&order, "payment_intent_id = ?", intentID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.DriverID != nil {
		query = query.Where("driver_id = ?", *filter.DriverID)
	}
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var orders []model.Order
	if err := query.
		Order("created_at DESC").
		Preload("Driver").
		Preload("Driver.Profile").
		Preload("Facility").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

type TransitionParams struct {
	OrderID   uuid.UUID
	From      model.OrderStatus
	To        model.OrderStatus
	Now       time.Time
	Note      string
	ChangedBy *uuid.UUID
}

// Transition flips the order status with a guard on the prior status. The
// guard is the concurrency control: a raced second caller matches zero rows
// and gets ok=false without any mutation.
func (r *OrderRepository) Transition(ctx context.Context, p TransitionParams) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": p.To}
		if col := model.TimestampColumn(p.To); col != "" {
			updates[col] = p.Now
		}
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", p.OrderID, p.From).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoTransition
		}
		from := p.From
		return tx.Create(&model.OrderStatusLog{
			OrderID:   p.OrderID,
			OldStatus: &from,
			NewStatus: p.To,
			Note:      p.Note,
			ChangedBy: p.ChangedBy,
		}).Error
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type CompleteOrderParams struct {
	OrderID          uuid.UUID
	DriverID         uuid.UUID
	FacilityID       uuid.UUID
	Now              time.Time
	Transactions     []model.Transaction
	ComplianceStatus model.ComplianceStatus
	Note             string
	ChangedBy        *uuid.UUID
}

// Complete applies every database effect of order completion in one
// transaction: the guarded status flip, the three ledger rows, the driver
// counter and compliance update, and the facility counter. Counters use
// atomic increments, never read-modify-write.
func (r *OrderRepository) Complete(ctx context.Context, p CompleteOrderParams) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", p.OrderID, model.OrderStatusInProgress).
			Updates(map[string]interface{}{
				"status":       model.OrderStatusCompleted,
				"completed_at": p.Now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoTransition
		}

		if len(p.Transactions) > 0 {
			if err := tx.Create(&p.Transactions).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Driver{}).
			Where("id = ?", p.DriverID).
			Updates(map[string]interface{}{
				"total_cleanings":    gorm.Expr("total_cleanings + 1"),
				"last_cleaning_date": p.Now,
				"compliance_status":  p.ComplianceStatus,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Facility{}).
			Where("id = ?", p.FacilityID).
			Update("total_orders", gorm.Expr("total_orders + 1")).Error; err != nil {
			return err
		}

		from := model.OrderStatusInProgress
		return tx.Create(&model.OrderStatusLog{
			OrderID:   p.OrderID,
			OldStatus: &from,
			NewStatus: model.OrderStatusCompleted,
			Note:      p.Note,
			ChangedBy: p.ChangedBy,
		}).Error
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type CancelOrderParams struct {
	OrderID      uuid.UUID
	Now          time.Time
	Reason       string
	MarkRefunded bool
	ChangedBy    *uuid.UUID
}

func (r *OrderRepository) Cancel(ctx context.Context, p CancelOrderParams) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":              model.OrderStatusCancelled,
			"cancelled_at":        p.Now,
			"cancellation_reason": p.Reason,
		}
		if p.MarkRefunded {
			updates["payment_status"] = model.PaymentStatusRefunded
		}
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", p.OrderID, model.OrderStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoTransition
		}
		from := model.OrderStatusPending
		return tx.Create(&model.OrderStatusLog{
			OrderID:   p.OrderID,
			OldStatus: &from,
			NewStatus: model.OrderStatusCancelled,
			Note:      p.Reason,
			ChangedBy: p.ChangedBy,
		}).Error
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkPaid records a successful payment. The guard on the current value makes
// duplicate webhook deliveries a no-op.
func (r *OrderRepository) MarkPaid(ctx context.Context, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("payment_intent_id = ? AND payment_status <> ?", paymentIntentID, model.PaymentStatusPaid).
		Update("payment_status", model.PaymentStatusPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Rate stores the order rating and recomputes the facility aggregate in the
// same transaction: mean of non-null order ratings, rounded to one decimal.
func (r *OrderRepository) Rate(ctx context.Context, orderID, facilityID uuid.UUID, rating int, review *string) (float64, error) {
	var newRating float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"rating": rating,
				"review": review,
			}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			`UPDATE facilities
			 SET rating = COALESCE((
				SELECT ROUND(AVG(rating)::numeric, 1)
				FROM orders
				WHERE facility_id = ? AND rating IS NOT NULL
			 ), 0)
			 WHERE id = ?`, facilityID, facilityID).Error; err != nil {
			return err
		}
		return tx.Raw(`SELECT rating FROM facilities WHERE id = ?`, facilityID).
			Scan(&newRating).Error
	})
	if err != nil {
		return 0, err
	}
	return newRating, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"cleanbag-service/internal/compliance"
	"cleanbag-service/internal/config"
	"cleanbag-service/internal/model"
	"cleanbag-service/internal/payment"
	"cleanbag-service/internal/repository"
)

// eventDedupeTTL bounds how long processed webhook event ids are remembered.
const eventDedupeTTL = 24 * time.Hour

type OrderService struct {
	orders     OrderStore
	drivers    DriverStore
	facilities FacilityStore
	payments   payment.Provider
	notifier   Notifier
	events     *redis.Client
	pricing    config.PricingConfig
	log        zerolog.Logger
}

func NewOrderService(
	orders OrderStore,
	drivers DriverStore,
	facilities FacilityStore,
	payments payment.Provider,
	notifier Notifier,
	events *redis.Client,
	pricing config.PricingConfig,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		drivers:    drivers,
		facilities: facilities,
		payments:   payments,
		notifier:   notifier,
		events:     events,
		pricing:    pricing,
		log:        log,
	}
}

// Create books a cleaning order for the calling driver. The price comes from
// the fixed catalog constant; the commission is the facility's cut rounded to
// whole cents. The payment hold is requested after the insert: when the
// provider call fails the order stays pending without a payment reference and
// is reconciled manually.
func (s *OrderService) Create(ctx context.Context, principal model.Principal, facilityID uuid.UUID) (*model.OrderRecord, error) {
	if !principal.IsDriver() {
		return nil, ErrPermissionDenied
	}

	driver, err := s.drivers.GetByID(ctx, *principal.DriverID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	facility, err := s.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !facility.Active {
		return nil, ErrConflict
	}

	now := time.Now()
	base := s.pricing.BasePriceCents
	order := &model.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(now),
		DriverID:        driver.ID,
		FacilityID:      facility.ID,
		BasePriceCents:  base,
		CommissionCents: commissionCents(base, facility.CommissionRate),
		TotalPriceCents: base,
		Currency:        s.pricing.Currency,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, payment.IntentRequest{
		AmountCents: order.TotalPriceCents,
		Currency:    order.Currency,
		Metadata: payment.Metadata{
			OrderID:    order.ID.String(),
			FacilityID: facility.ID.String(),
		},
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("order_id", order.ID.String()).
			Msg("payment hold failed, order left without payment intent")
	} else {
		if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
			return nil, err
		}
		order.PaymentIntentID = &intent.ID
	}

	order.Driver = driver
	order.Facility = facility
	record := model.BuildOrderRecord(*order)
	return &record, nil
}

func (s *OrderService) Get(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*model.OrderRecord, error) {
	order, err := s.getOwnedOrder(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	record := model.BuildOrderRecord(*order)
	return &record, nil
}

type ListOrdersOptions struct {
	Statuses []model.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

func (s *OrderService) List(ctx context.Context, principal model.Principal, opts ListOrdersOptions) ([]model.OrderRecord, error) {
	filter := repository.OrderFilter{
		Statuses: opts.Statuses,
		DateFrom: opts.DateFrom,
		DateTo:   opts.DateTo,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	switch {
	case principal.IsDriver():
		filter.DriverID = principal.DriverID
	case principal.IsFacility():
		filter.FacilityID = principal.FacilityID
	case principal.IsAdmin():
	default:
		return nil, ErrPermissionDenied
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	records := make([]model.OrderRecord, 0, len(orders))
	for _, o := range orders {
		records = append(records, model.BuildOrderRecord(o))
	}
	return records, nil
}

// Accept moves a pending order to accepted on behalf of its facility.
func (s *OrderService) Accept(ctx context.Context, principal model.Principal, orderID uuid.UUID) error {
	return s.advance(ctx, principal, orderID,
		model.OrderStatusPending, model.OrderStatusAccepted,
		"accepted by facility", "Order accepted", "Your cleaning order was accepted by the facility.")
}

// Start marks an accepted order as in progress.
func (s *OrderService) Start(ctx context.Context, principal model.Principal, orderID uuid.UUID) error {
	return s.advance(ctx, principal, orderID,
		model.OrderStatusAccepted, model.OrderStatusInProgress,
		"cleaning started", "Cleaning started", "The facility started cleaning your bag.")
}

func (s *OrderService) advance(ctx context.Context, principal model.Principal, orderID uuid.UUID, from, to model.OrderStatus, note, title, message string) error {
	if !principal.IsFacility() {
		return ErrPermissionDenied
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return mapNotFound(err)
	}
	if order.FacilityID != *principal.FacilityID {
		return ErrPermissionDenied
	}
	if !model.CanTransition(order.Status, to) {
		return ErrInvalidStatus
	}

	ok, err := s.orders.Transition(ctx, repository.TransitionParams{
		OrderID:   order.ID,
		From:      from,
		To:        to,
		Now:       time.Now(),
		Note:      note,
		ChangedBy: &principal.UserID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidStatus
	}

	s.notifyOrder(ctx, order, title, message, model.NotificationTypeOrder)
	return nil
}

// Complete finishes an in-progress order. The payout transfer is requested
// first; a transfer failure does not abort completion, it only downgrades the
// ledger rows to pending (fail-open). Every database effect then lands in one
// transaction.
func (s *OrderService) Complete(ctx context.Context, principal model.Principal, orderID uuid.UUID) error {
	if !principal.IsFacility() {
		return ErrPermissionDenied
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return mapNotFound(err)
	}
	if order.FacilityID != *principal.FacilityID {
		return ErrPermissionDenied
	}
	if !model.CanTransition(order.Status, model.OrderStatusCompleted) {
		return ErrInvalidStatus
	}

	facility, err := s.facilities.GetByID(ctx, order.FacilityID)
	if err != nil {
		return mapNotFound(err)
	}

	payout := order.BasePriceCents - order.CommissionCents

	ledgerStatus := model.TransactionStatusPending
	if facility.PaymentAccountID != nil && order.PaymentIntentID != nil {
		_, err := s.payments.CreateTransfer(ctx, payment.TransferRequest{
			AmountCents: payout,
			Currency:    order.Currency,
			Destination: *facility.PaymentAccountID,
			Metadata: payment.Metadata{
				OrderID:    order.ID.String(),
				FacilityID: facility.ID.String(),
			},
		})
		if err != nil {
			s.log.Warn().Err(err).
				Str("order_id", order.ID.String()).
				Msg("payout transfer failed, recording pending ledger rows")
		} else {
			ledgerStatus = model.TransactionStatusCompleted
		}
	}

	now := time.Now()
	transactions := []model.Transaction{
		{OrderID: order.ID, FacilityID: facility.ID, Type: model.TransactionTypeOrderPayment, AmountCents: order.TotalPriceCents, Status: ledgerStatus},
		{OrderID: order.ID, FacilityID: facility.ID, Type: model.TransactionTypeCommission, AmountCents: order.CommissionCents, Status: ledgerStatus},
		{OrderID: order.ID, FacilityID: facility.ID, Type: model.TransactionTypePayout, AmountCents: payout, Status: ledgerStatus},
	}

	ok, err := s.orders.Complete(ctx, repository.CompleteOrderParams{
		OrderID:          order.ID,
		DriverID:         order.DriverID,
		FacilityID:       facility.ID,
		Now:              now,
		Transactions:     transactions,
		ComplianceStatus: compliance.Classify(&now, now),
		Note:             "order completed",
		ChangedBy:        &principal.UserID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidStatus
	}

	s.notifyOrder(ctx, order, "Order completed",
		fmt.Sprintf("Order %s is complete. Thank you for keeping your bag clean.", order.OrderNumber),
		model.NotificationTypeOrder)
	return nil
}

// Cancel aborts a pending order. When the order is already paid the refund
// must succeed before any state changes (fail-closed, unlike Complete).
func (s *OrderService) Cancel(ctx context.Context, principal model.Principal, orderID uuid.UUID, reason string) error {
	if !principal.IsDriver() {
		return ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrInvalidInput
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return mapNotFound(err)
	}
	if order.DriverID != *principal.DriverID {
		return ErrPermissionDenied
	}
	if !model.CanTransition(order.Status, model.OrderStatusCancelled) {
		return ErrInvalidStatus
	}

	refunded := false
	if order.PaymentStatus == model.PaymentStatusPaid {
		if order.PaymentIntentID == nil {
			return fmt.Errorf("%w: paid order has no payment intent", ErrPaymentProvider)
		}
		if err := s.payments.CreateRefund(ctx, *order.PaymentIntentID); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
		}
		refunded = true
	}

	ok, err := s.orders.Cancel(ctx, repository.CancelOrderParams{
		OrderID:      order.ID,
		Now:          time.Now(),
		Reason:       reason,
		MarkRefunded: refunded,
		ChangedBy:    &principal.UserID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidStatus
	}
	return nil
}

// Rate stores the driver's rating for a completed order and refreshes the
// facility aggregate.
func (s *OrderService) Rate(ctx context.Context, principal model.Principal, orderID uuid.UUID, rating int, review *string) (float64, error) {
	if !principal.IsDriver() {
		return 0, ErrPermissionDenied
	}
	if rating < 1 || rating > 5 {
		return 0, ErrInvalidInput
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, mapNotFound(err)
	}
	if order.DriverID != *principal.DriverID {
		return 0, ErrPermissionDenied
	}
	if order.Status != model.OrderStatusCompleted {
		return 0, ErrInvalidStatus
	}
	return s.orders.Rate(ctx, order.ID, order.FacilityID, rating, review)
}

// HandlePaymentEvent consumes payment webhook deliveries. Events may arrive
// more than once: a Redis SETNX on the event id filters fast duplicates and
// the guarded database update is the authoritative idempotency check.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, event payment.Event) error {
	switch event.Type {
	case payment.EventPaymentIntentSucceeded:
		if strings.TrimSpace(event.Data.PaymentIntentID) == "" {
			return ErrInvalidInput
		}
		if s.events != nil && event.ID != "" {
			set, err := s.events.SetNX(ctx, "payments:event:"+event.ID, 1, eventDedupeTTL).Result()
			if err != nil {
				s.log.Warn().Err(err).Msg("event dedupe cache unavailable")
			} else if !set {
				return nil
			}
		}
		changed, err := s.orders.MarkPaid(ctx, event.Data.PaymentIntentID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		order, err := s.orders.GetByPaymentIntent(ctx, event.Data.PaymentIntentID)
		if err != nil {
			s.log.Warn().Err(err).
				Str("payment_intent_id", event.Data.PaymentIntentID).
				Msg("paid order lookup failed, skipping notification")
			return nil
		}
		s.notifyOrder(ctx, order, "Payment received",
			fmt.Sprintf("Payment for order %s was captured.", order.OrderNumber),
			model.NotificationTypePayment)
		return nil
	case payment.EventAccountUpdated:
		s.log.Info().
			Str("account_id", event.Data.AccountID).
			Msg("payment account confirmed")
		return nil
	default:
		s.log.Debug().Str("type", event.Type).Msg("ignoring unknown payment event")
		return nil
	}
}

func (s *OrderService) getOwnedOrder(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	switch {
	case principal.IsDriver() && order.DriverID == *principal.DriverID:
	case principal.IsFacility() && order.FacilityID == *principal.FacilityID:
	case principal.IsAdmin():
	default:
		return nil, ErrPermissionDenied
	}
	return order, nil
}

// notifyOrder is best effort: a notification failure never fails the workflow
// step that triggered it.
func (s *OrderService) notifyOrder(ctx context.Context, order *model.Order, title, message string, t model.NotificationType) {
	driver := order.Driver
	if driver == nil {
		d, err := s.drivers.GetByID(ctx, order.DriverID)
		if err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("driver lookup for notification failed")
			return
		}
		driver = d
	}
	err := s.notifier.Notify(ctx, driver.UserID, NotificationInput{
		Title:   title,
		Message: message,
		Type:    t,
		Data:    map[string]interface{}{"order_id": order.ID.String()},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("notification dispatch failed")
	}
}

func commissionCents(base int64, rate float64) int64 {
	return int64(math.Round(float64(base) * rate))
}

func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("CB-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

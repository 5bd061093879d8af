package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cleanbag-service/internal/model"
	"cleanbag-service/internal/repository"
)

// Store interfaces consumed by the services, implemented by the gorm
// repositories in internal/repository and by in-memory fakes in tests.

type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	SetPaymentIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*model.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	Transition(ctx context.Context, p repository.TransitionParams) (bool, error)
	Complete(ctx context.Context, p repository.CompleteOrderParams) (bool, error)
	Cancel(ctx context.Context, p repository.CancelOrderParams) (bool, error)
	MarkPaid(ctx context.Context, paymentIntentID string) (bool, error)
	Rate(ctx context.Context, orderID, facilityID uuid.UUID, rating int, review *string) (float64, error)
}

type DriverStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Driver, error)
	ClearAgency(ctx context.Context, driverID uuid.UUID) error
	ListForReport(ctx context.Context, filter repository.DriverReportFilter) ([]model.Driver, error)
}

type FacilityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Facility, error)
}

type AgencyStore interface {
	GetAgency(ctx context.Context, id uuid.UUID) (*model.Agency, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*model.AgencyRequest, error)
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]model.AgencyRequest, error)
	CreateRequest(ctx context.Context, req *model.AgencyRequest) error
	HasPending(ctx context.Context, driverID, agencyID uuid.UUID) (bool, error)
	Resolve(ctx context.Context, requestID uuid.UUID, to model.AgencyRequestStatus, now time.Time) (bool, error)
	AcceptRequest(ctx context.Context, requestID, driverID, agencyID uuid.UUID, now time.Time) error
	CancelPendingBetween(ctx context.Context, driverID, agencyID uuid.UUID, now time.Time) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type NotificationInput struct {
	Title   string
	Message string
	Type    model.NotificationType
	Data    map[string]interface{}
}

// Notifier is the fan-out side effect used by the workflow services.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, in NotificationInput) error
}

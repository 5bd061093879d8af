package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
	"cleanbag-service/internal/payment"
	"cleanbag-service/internal/repository"
)

// In-memory store fakes mirroring the guarded-update semantics of the gorm
// repositories, so the services can be exercised without a database.

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order

	drivers    *fakeDriverStore
	facilities *fakeFacilityStore
}

func newFakeOrderStore(drivers *fakeDriverStore, facilities *fakeFacilityStore) *fakeOrderStore {
	return &fakeOrderStore{
		orders:     make(map[uuid.UUID]*model.Order),
		drivers:    drivers,
		facilities: facilities,
	}
}

func (s *fakeOrderStore) Create(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *fakeOrderStore) SetPaymentIntent(_ context.Context, orderID uuid.UUID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentIntentID = &intentID
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) GetByPaymentIntent(_ context.Context, intentID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeOrderStore) List(_ context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Order
	for _, o := range s.orders {
		if filter.DriverID != nil && o.DriverID != *filter.DriverID {
			continue
		}
		if filter.FacilityID != nil && o.FacilityID != *filter.FacilityID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if o.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrderStore) Transition(_ context.Context, p repository.TransitionParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[p.OrderID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.Status != p.From {
		return false, nil
	}
	return true, model.ApplyTransition(o, p.To, p.Now)
}

func (s *fakeOrderStore) Complete(_ context.Context, p repository.CompleteOrderParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[p.OrderID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.Status != model.OrderStatusInProgress {
		return false, nil
	}
	o.Status = model.OrderStatusCompleted
	o.CompletedAt = &p.Now
	o.Transactions = append(o.Transactions, p.Transactions...)

	if d := s.drivers.get(p.DriverID); d != nil {
		d.TotalCleanings++
		t := p.Now
		d.LastCleaningDate = &t
		d.ComplianceStatus = p.ComplianceStatus
	}
	if f := s.facilities.get(p.FacilityID); f != nil {
		f.TotalOrders++
	}
	return true, nil
}

func (s *fakeOrderStore) Cancel(_ context.Context, p repository.CancelOrderParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[p.OrderID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusCancelled
	o.CancelledAt = &p.Now
	o.CancellationReason = &p.Reason
	if p.MarkRefunded {
		o.PaymentStatus = model.PaymentStatusRefunded
	}
	return true, nil
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, paymentIntentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == paymentIntentID {
			if o.PaymentStatus == model.PaymentStatusPaid {
				return false, nil
			}
			o.PaymentStatus = model.PaymentStatusPaid
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeOrderStore) Rate(_ context.Context, orderID, facilityID uuid.UUID, rating int, review *string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	o.Rating = &rating
	o.Review = review

	var sum, count int
	for _, other := range s.orders {
		if other.FacilityID == facilityID && other.Rating != nil {
			sum += *other.Rating
			count++
		}
	}
	var avg float64
	if count > 0 {
		avg = math.Round(float64(sum)/float64(count)*10) / 10
	}
	if f := s.facilities.get(facilityID); f != nil {
		f.Rating = avg
	}
	return avg, nil
}

type fakeDriverStore struct {
	mu      sync.Mutex
	drivers map[uuid.UUID]*model.Driver
}

func newFakeDriverStore(drivers ...*model.Driver) *fakeDriverStore {
	s := &fakeDriverStore{drivers: make(map[uuid.UUID]*model.Driver)}
	for _, d := range drivers {
		s.drivers[d.ID] = d
	}
	return s
}

func (s *fakeDriverStore) get(id uuid.UUID) *model.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drivers[id]
}

func (s *fakeDriverStore) GetByID(_ context.Context, id uuid.UUID) (*model.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDriverStore) ClearAgency(_ context.Context, driverID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[driverID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.AgencyID = nil
	return nil
}

func (s *fakeDriverStore) ListForReport(_ context.Context, filter repository.DriverReportFilter) ([]model.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Driver
	for _, d := range s.drivers {
		if filter.AgencyID != nil && (d.AgencyID == nil || *d.AgencyID != *filter.AgencyID) {
			continue
		}
		if filter.City != nil && d.City != *filter.City {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

type fakeFacilityStore struct {
	mu         sync.Mutex
	facilities map[uuid.UUID]*model.Facility
}

func newFakeFacilityStore(facilities ...*model.Facility) *fakeFacilityStore {
	s := &fakeFacilityStore{facilities: make(map[uuid.UUID]*model.Facility)}
	for _, f := range facilities {
		s.facilities[f.ID] = f
	}
	return s
}

func (s *fakeFacilityStore) get(id uuid.UUID) *model.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facilities[id]
}

func (s *fakeFacilityStore) GetByID(_ context.Context, id uuid.UUID) (*model.Facility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facilities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

type fakeAgencyStore struct {
	mu       sync.Mutex
	agencies map[uuid.UUID]*model.Agency
	requests map[uuid.UUID]*model.AgencyRequest

	drivers *fakeDriverStore
}

func newFakeAgencyStore(drivers *fakeDriverStore, agencies ...*model.Agency) *fakeAgencyStore {
	s := &fakeAgencyStore{
		agencies: make(map[uuid.UUID]*model.Agency),
		requests: make(map[uuid.UUID]*model.AgencyRequest),
		drivers:  drivers,
	}
	for _, a := range agencies {
		s.agencies[a.ID] = a
	}
	return s
}

func (s *fakeAgencyStore) GetAgency(_ context.Context, id uuid.UUID) (*model.Agency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agencies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAgencyStore) GetRequest(_ context.Context, id uuid.UUID) (*model.AgencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeAgencyStore) ListRequests(_ context.Context, filter repository.RequestFilter) ([]model.AgencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AgencyRequest
	for _, r := range s.requests {
		if filter.DriverID != nil && r.DriverID != *filter.DriverID {
			continue
		}
		if filter.AgencyID != nil && r.AgencyID != *filter.AgencyID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if r.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeAgencyStore) CreateRequest(_ context.Context, req *model.AgencyRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.DriverID == req.DriverID && r.AgencyID == req.AgencyID &&
			r.Status == model.AgencyRequestStatusPending {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeAgencyStore) HasPending(_ context.Context, driverID, agencyID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.DriverID == driverID && r.AgencyID == agencyID &&
			r.Status == model.AgencyRequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeAgencyStore) Resolve(_ context.Context, requestID uuid.UUID, to model.AgencyRequestStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if r.Status != model.AgencyRequestStatusPending {
		return false, nil
	}
	r.Status = to
	r.RespondedAt = &now
	return true, nil
}

func (s *fakeAgencyStore) AcceptRequest(_ context.Context, requestID, driverID, agencyID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drivers.get(driverID)
	if d == nil {
		return gorm.ErrRecordNotFound
	}
	if d.AgencyID != nil {
		return repository.ErrDriverAffiliated
	}
	r, ok := s.requests[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.Status != model.AgencyRequestStatusPending {
		return repository.ErrRequestNotPending
	}
	d.AgencyID = &agencyID
	r.Status = model.AgencyRequestStatusAccepted
	r.RespondedAt = &now
	return nil
}

func (s *fakeAgencyStore) CancelPendingBetween(_ context.Context, driverID, agencyID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.DriverID == driverID && r.AgencyID == agencyID &&
			r.Status == model.AgencyRequestStatusPending {
			r.Status = model.AgencyRequestStatusCancelled
			r.RespondedAt = &now
		}
	}
	return nil
}

// fakeProvider records payment API calls and fails on demand.
type fakeProvider struct {
	failIntents   bool
	failTransfers bool
	failRefunds   bool

	intents   []payment.IntentRequest
	transfers []payment.TransferRequest
	refunds   []string
}

func (p *fakeProvider) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if p.failIntents {
		return nil, errors.New("provider unavailable")
	}
	p.intents = append(p.intents, req)
	return &payment.Intent{ID: "pi_" + uuid.NewString()[:8], Status: "requires_capture"}, nil
}

func (p *fakeProvider) CreateTransfer(_ context.Context, req payment.TransferRequest) (*payment.Transfer, error) {
	if p.failTransfers {
		return nil, errors.New("provider unavailable")
	}
	p.transfers = append(p.transfers, req)
	return &payment.Transfer{ID: "tr_" + uuid.NewString()[:8]}, nil
}

func (p *fakeProvider) CreateRefund(_ context.Context, intentID string) error {
	if p.failRefunds {
		return errors.New("provider unavailable")
	}
	p.refunds = append(p.refunds, intentID)
	return nil
}

type sentNotification struct {
	UserID uuid.UUID
	Input  NotificationInput
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, in NotificationInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Input: in})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

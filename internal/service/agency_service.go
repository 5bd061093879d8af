package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"cleanbag-service/internal/model"
	"cleanbag-service/internal/repository"
)

// AgencyService runs the driver/agency association workflow: proposals from
// either side, acceptance or rejection by the counterpart, and dissolving an
// existing affiliation.
type AgencyService struct {
	agencies AgencyStore
	drivers  DriverStore
	notifier Notifier
	log      zerolog.Logger
}

func NewAgencyService(agencies AgencyStore, drivers DriverStore, notifier Notifier, log zerolog.Logger) *AgencyService {
	return &AgencyService{agencies: agencies, drivers: drivers, notifier: notifier, log: log}
}

type ProposeInput struct {
	DriverID uuid.UUID
	AgencyID uuid.UUID
	Message  *string
}

// Propose creates a pending request. Drivers propose to an agency; agencies
// invite a driver. The caller's own id always comes from the token, never
// from the payload.
func (s *AgencyService) Propose(ctx context.Context, principal model.Principal, in ProposeInput) (*model.AgencyRequest, error) {
	var (
		driverID, agencyID uuid.UUID
		initiator          model.RequestInitiator
	)
	switch {
	case principal.IsDriver():
		initiator = model.RequestInitiatorDriver
		driverID = *principal.DriverID
		agencyID = in.AgencyID
	case principal.IsAgency():
		initiator = model.RequestInitiatorAgency
		agencyID = *principal.AgencyID
		driverID = in.DriverID
	default:
		return nil, ErrPermissionDenied
	}
	if driverID == uuid.Nil || agencyID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if _, err := s.agencies.GetAgency(ctx, agencyID); err != nil {
		return nil, mapNotFound(err)
	}
	if driver.AgencyID != nil {
		return nil, ErrConflict
	}
	pending, err := s.agencies.HasPending(ctx, driverID, agencyID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrConflict
	}

	req := &model.AgencyRequest{
		ID:          uuid.New(),
		DriverID:    driverID,
		AgencyID:    agencyID,
		InitiatedBy: initiator,
		Status:      model.AgencyRequestStatusPending,
		Message:     in.Message,
	}
	if err := s.agencies.CreateRequest(ctx, req); err != nil {
		// The pending-pair unique index closes the race between the HasPending
		// check and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notifyCounterpart(ctx, req, driver,
		"New association request",
		"You received a new association request.")
	return req, nil
}

// Respond accepts or rejects a pending request. Only the party that did not
// initiate it may respond.
func (s *AgencyService) Respond(ctx context.Context, principal model.Principal, requestID uuid.UUID, accept bool) error {
	req, err := s.agencies.GetRequest(ctx, requestID)
	if err != nil {
		return mapNotFound(err)
	}
	if req.Status != model.AgencyRequestStatusPending {
		return ErrInvalidStatus
	}
	if !s.isResponder(principal, req) {
		return ErrPermissionDenied
	}

	now := time.Now()
	if accept {
		if err := s.agencies.AcceptRequest(ctx, req.ID, req.DriverID, req.AgencyID, now); err != nil {
			switch {
			case errors.Is(err, repository.ErrDriverAffiliated):
				return ErrConflict
			case errors.Is(err, repository.ErrRequestNotPending):
				return ErrInvalidStatus
			default:
				return err
			}
		}
		s.notifyInitiator(ctx, req, "Request accepted", "Your association request was accepted.")
		return nil
	}

	ok, err := s.agencies.Resolve(ctx, req.ID, model.AgencyRequestStatusRejected, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidStatus
	}
	s.notifyInitiator(ctx, req, "Request rejected", "Your association request was rejected.")
	return nil
}

// Cancel withdraws a pending request. Only the initiating party may cancel.
func (s *AgencyService) Cancel(ctx context.Context, principal model.Principal, requestID uuid.UUID) error {
	req, err := s.agencies.GetRequest(ctx, requestID)
	if err != nil {
		return mapNotFound(err)
	}
	if req.Status != model.AgencyRequestStatusPending {
		return ErrInvalidStatus
	}
	if !s.isInitiator(principal, req) {
		return ErrPermissionDenied
	}

	ok, err := s.agencies.Resolve(ctx, req.ID, model.AgencyRequestStatusCancelled, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidStatus
	}
	return nil
}

// Leave dissolves an affiliation: a driver leaves their agency, or an agency
// removes one of its drivers. Any still-pending requests between the pair are
// closed alongside.
func (s *AgencyService) Leave(ctx context.Context, principal model.Principal, driverID uuid.UUID) error {
	switch {
	case principal.IsDriver():
		driverID = *principal.DriverID
	case principal.IsAgency():
		if driverID == uuid.Nil {
			return ErrInvalidInput
		}
	default:
		return ErrPermissionDenied
	}

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return mapNotFound(err)
	}
	if driver.AgencyID == nil {
		return ErrConflict
	}
	if principal.IsAgency() && *driver.AgencyID != *principal.AgencyID {
		return ErrPermissionDenied
	}
	agencyID := *driver.AgencyID

	if err := s.drivers.ClearAgency(ctx, driver.ID); err != nil {
		return err
	}
	if err := s.agencies.CancelPendingBetween(ctx, driver.ID, agencyID, time.Now()); err != nil {
		s.log.Warn().Err(err).
			Str("driver_id", driver.ID.String()).
			Msg("closing pending requests after leave failed")
	}

	if principal.IsAgency() {
		s.notify(ctx, driver.UserID, "Affiliation ended", "Your agency removed you from its fleet.")
	} else if agency, err := s.agencies.GetAgency(ctx, agencyID); err == nil {
		s.notify(ctx, agency.UserID, "Driver left",
			fmt.Sprintf("A driver left your fleet (%s).", driver.City))
	}
	return nil
}

type ListRequestsOptions struct {
	Statuses []model.AgencyRequestStatus
	Limit    int
	Offset   int
}

func (s *AgencyService) ListRequests(ctx context.Context, principal model.Principal, opts ListRequestsOptions) ([]model.AgencyRequest, error) {
	filter := repository.RequestFilter{
		Statuses: opts.Statuses,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	switch {
	case principal.IsDriver():
		filter.DriverID = principal.DriverID
	case principal.IsAgency():
		filter.AgencyID = principal.AgencyID
	case principal.IsAdmin():
	default:
		return nil, ErrPermissionDenied
	}
	return s.agencies.ListRequests(ctx, filter)
}

func (s *AgencyService) isInitiator(principal model.Principal, req *model.AgencyRequest) bool {
	switch req.InitiatedBy {
	case model.RequestInitiatorDriver:
		return principal.IsDriver() && *principal.DriverID == req.DriverID
	case model.RequestInitiatorAgency:
		return principal.IsAgency() && *principal.AgencyID == req.AgencyID
	}
	return false
}

func (s *AgencyService) isResponder(principal model.Principal, req *model.AgencyRequest) bool {
	switch req.InitiatedBy {
	case model.RequestInitiatorDriver:
		return principal.IsAgency() && *principal.AgencyID == req.AgencyID
	case model.RequestInitiatorAgency:
		return principal.IsDriver() && *principal.DriverID == req.DriverID
	}
	return false
}

func (s *AgencyService) notifyCounterpart(ctx context.Context, req *model.AgencyRequest, driver *model.Driver, title, message string) {
	if req.InitiatedBy == model.RequestInitiatorDriver {
		agency, err := s.agencies.GetAgency(ctx, req.AgencyID)
		if err != nil {
			s.log.Warn().Err(err).Msg("agency lookup for notification failed")
			return
		}
		s.notify(ctx, agency.UserID, title, message)
		return
	}
	s.notify(ctx, driver.UserID, title, message)
}

func (s *AgencyService) notifyInitiator(ctx context.Context, req *model.AgencyRequest, title, message string) {
	if req.InitiatedBy == model.RequestInitiatorDriver {
		if req.Driver != nil {
			s.notify(ctx, req.Driver.UserID, title, message)
		}
		return
	}
	if req.Agency != nil {
		s.notify(ctx, req.Agency.UserID, title, message)
	}
}

func (s *AgencyService) notify(ctx context.Context, userID uuid.UUID, title, message string) {
	err := s.notifier.Notify(ctx, userID, NotificationInput{
		Title:   title,
		Message: message,
		Type:    model.NotificationTypeSystem,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("notification dispatch failed")
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cleanbag-service/internal/model"
)

type agencyFixture struct {
	svc      *AgencyService
	agencies *fakeAgencyStore
	drivers  *fakeDriverStore
	notifier *fakeNotifier

	driver *model.Driver
	agency *model.Agency
}

func newAgencyFixture(t *testing.T) *agencyFixture {
	t.Helper()

	driver := &model.Driver{
		ID:     uuid.New(),
		UserID: uuid.New(),
		City:   "Hamburg",
	}
	agency := &model.Agency{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Name:   "Fleet One",
		City:   "Hamburg",
	}

	drivers := newFakeDriverStore(driver)
	agencies := newFakeAgencyStore(drivers, agency)
	notifier := &fakeNotifier{}

	return &agencyFixture{
		svc:      NewAgencyService(agencies, drivers, notifier, zerolog.Nop()),
		agencies: agencies,
		drivers:  drivers,
		notifier: notifier,
		driver:   driver,
		agency:   agency,
	}
}

func (f *agencyFixture) driverPrincipal() model.Principal {
	return model.Principal{UserID: f.driver.UserID, Role: model.UserRoleDriver, DriverID: &f.driver.ID}
}

func (f *agencyFixture) agencyPrincipal() model.Principal {
	return model.Principal{UserID: f.agency.UserID, Role: model.UserRoleAgency, AgencyID: &f.agency.ID}
}

func TestProposeCreatesPendingRequest(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if req.Status != model.AgencyRequestStatusPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.InitiatedBy != model.RequestInitiatorDriver {
		t.Errorf("initiated_by = %s, want driver", req.InitiatedBy)
	}
	if req.DriverID != f.driver.ID || req.AgencyID != f.agency.ID {
		t.Error("request pair mismatch")
	}
}

func TestProposeRejectsDuplicatePending(t *testing.T) {
	f := newAgencyFixture(t)

	if _, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("first propose: %v", err)
	}
	// Same pair again, this time initiated by the agency.
	_, err := f.svc.Propose(context.Background(), f.agencyPrincipal(), ProposeInput{DriverID: f.driver.ID})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestProposeRejectsAffiliatedDriver(t *testing.T) {
	f := newAgencyFixture(t)
	other := uuid.New()
	f.driver.AgencyID = &other

	_, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestRespondAcceptLinksDriver(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := f.svc.Respond(context.Background(), f.agencyPrincipal(), req.ID, true); err != nil {
		t.Fatalf("respond: %v", err)
	}

	if f.driver.AgencyID == nil || *f.driver.AgencyID != f.agency.ID {
		t.Error("driver not linked to agency")
	}
	stored, _ := f.agencies.GetRequest(context.Background(), req.ID)
	if stored.Status != model.AgencyRequestStatusAccepted {
		t.Errorf("request status = %s, want accepted", stored.Status)
	}
	if stored.RespondedAt == nil {
		t.Error("responded_at not stamped")
	}
}

func TestRespondAcceptFailsWhenDriverAlreadyAffiliated(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// Driver joins another agency while the request is still open.
	other := uuid.New()
	f.driver.AgencyID = &other

	if err := f.svc.Respond(context.Background(), f.agencyPrincipal(), req.ID, true); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	stored, _ := f.agencies.GetRequest(context.Background(), req.ID)
	if stored.Status != model.AgencyRequestStatusPending {
		t.Errorf("request status = %s, want pending (must stay untouched)", stored.Status)
	}
	if *f.driver.AgencyID != other {
		t.Error("existing affiliation must not change")
	}
}

func TestRespondRejectsInitiator(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// The proposing driver cannot accept their own request.
	if err := f.svc.Respond(context.Background(), f.driverPrincipal(), req.ID, true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestRespondRejectMarksRequest(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := f.svc.Respond(context.Background(), f.agencyPrincipal(), req.ID, false); err != nil {
		t.Fatalf("respond: %v", err)
	}

	stored, _ := f.agencies.GetRequest(context.Background(), req.ID)
	if stored.Status != model.AgencyRequestStatusRejected {
		t.Errorf("status = %s, want rejected", stored.Status)
	}
	if f.driver.AgencyID != nil {
		t.Error("rejected request must not link the driver")
	}
}

func TestCancelOnlyByInitiator(t *testing.T) {
	f := newAgencyFixture(t)

	req, err := f.svc.Propose(context.Background(), f.driverPrincipal(), ProposeInput{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), f.agencyPrincipal(), req.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if err := f.svc.Cancel(context.Background(), f.driverPrincipal(), req.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stored, _ := f.agencies.GetRequest(context.Background(), req.ID)
	if stored.Status != model.AgencyRequestStatusCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
}

func TestLeaveClearsAffiliationAndPendingRequests(t *testing.T) {
	f := newAgencyFixture(t)
	f.driver.AgencyID = &f.agency.ID

	// A stray pending request between the pair should be closed on leave.
	stray := &model.AgencyRequest{
		ID:          uuid.New(),
		DriverID:    f.driver.ID,
		AgencyID:    f.agency.ID,
		InitiatedBy: model.RequestInitiatorAgency,
		Status:      model.AgencyRequestStatusPending,
	}
	if err := f.agencies.CreateRequest(context.Background(), stray); err != nil {
		t.Fatalf("seed request: %v", err)
	}

	if err := f.svc.Leave(context.Background(), f.driverPrincipal(), uuid.Nil); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if f.driver.AgencyID != nil {
		t.Error("affiliation not cleared")
	}
	stored, _ := f.agencies.GetRequest(context.Background(), stray.ID)
	if stored.Status != model.AgencyRequestStatusCancelled {
		t.Errorf("stray request status = %s, want cancelled", stored.Status)
	}
}

func TestLeaveWithoutAffiliation(t *testing.T) {
	f := newAgencyFixture(t)

	if err := f.svc.Leave(context.Background(), f.driverPrincipal(), uuid.Nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestAgencyRemovesOwnDriverOnly(t *testing.T) {
	f := newAgencyFixture(t)
	other := uuid.New()
	f.driver.AgencyID = &other

	err := f.svc.Leave(context.Background(), f.agencyPrincipal(), f.driver.ID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	f.driver.AgencyID = &f.agency.ID
	if err := f.svc.Leave(context.Background(), f.agencyPrincipal(), f.driver.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if f.driver.AgencyID != nil {
		t.Error("affiliation not cleared")
	}
}

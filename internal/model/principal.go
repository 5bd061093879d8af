package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleDriver   UserRole = "DRIVER"
	UserRoleFacility UserRole = "FACILITY"
	UserRoleAgency   UserRole = "AGENCY"
	UserRoleAdmin    UserRole = "ADMIN"
)

type Principal struct {
	UserID     uuid.UUID
	Role       UserRole
	DriverID   *uuid.UUID
	FacilityID *uuid.UUID
	AgencyID   *uuid.UUID
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver && p.DriverID != nil
}

func (p Principal) IsFacility() bool {
	return p.Role == UserRoleFacility && p.FacilityID != nil
}

func (p Principal) IsAgency() bool {
	return p.Role == UserRoleAgency && p.AgencyID != nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type DriverBrief struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	VehicleType string    `json:"vehicle_type"`
	City        string    `json:"city"`
}

type FacilityBrief struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	City   string    `json:"city"`
	Rating float64   `json:"rating"`
}

type OrderRecord struct {
	Order    Order          `json:"order"`
	Driver   *DriverBrief   `json:"driver"`
	Facility *FacilityBrief `json:"facility"`
}

// ComplianceRow is one line of the compliance report view.
type ComplianceRow struct {
	DriverID       uuid.UUID        `json:"driver_id"`
	FullName       string           `json:"full_name"`
	VehicleType    string           `json:"vehicle_type"`
	City           string           `json:"city"`
	Status         ComplianceStatus `json:"status"`
	LastCleaning   string           `json:"last_cleaning"`
	TotalCleanings int              `json:"total_cleanings"`
}

func BuildOrderRecord(o Order) OrderRecord {
	record := OrderRecord{Order: o}
	if o.Driver != nil {
		brief := DriverBrief{
			ID:          o.Driver.ID,
			VehicleType: o.Driver.VehicleType,
			City:        o.Driver.City,
		}
		if o.Driver.Profile != nil {
			brief.FullName = o.Driver.Profile.FullName
			brief.Phone = o.Driver.Profile.Phone
		}
		record.Driver = &brief
	}
	if o.Facility != nil {
		record.Facility = &FacilityBrief{
			ID:     o.Facility.ID,
			Name:   o.Facility.Name,
			City:   o.Facility.City,
			Rating: o.Facility.Rating,
		}
	}
	return record
}

// LastCleaningLabel renders the report's date column; drivers with no cleaning
// history show "Never".
func LastCleaningLabel(last *time.Time) string {
	if last == nil {
		return "Never"
	}
	return last.Format("2006-01-02")
}

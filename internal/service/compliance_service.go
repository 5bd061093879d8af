package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cleanbag-service/internal/compliance"
	"cleanbag-service/internal/model"
	"cleanbag-service/internal/repository"
)

// ComplianceService renders the fleet hygiene report. Status values are
// classified from last_cleaning_date at read time so the report never shows a
// stale stored status.
type ComplianceService struct {
	drivers DriverStore
	log     zerolog.Logger
}

func NewComplianceService(drivers DriverStore, log zerolog.Logger) *ComplianceService {
	return &ComplianceService{drivers: drivers, log: log}
}

type ReportOptions struct {
	City string
}

type ComplianceReport struct {
	Rows    []model.ComplianceRow          `json:"rows"`
	Total   int                            `json:"total"`
	Summary map[model.ComplianceStatus]int `json:"summary"`
}

// Report lists drivers with their current compliance classification. Agencies
// see only their own fleet; admins see everything.
func (s *ComplianceService) Report(ctx context.Context, principal model.Principal, opts ReportOptions) (*ComplianceReport, error) {
	var filter repository.DriverReportFilter
	if opts.City != "" {
		city := opts.City
		filter.City = &city
	}
	switch {
	case principal.IsAgency():
		filter.AgencyID = principal.AgencyID
	case principal.IsAdmin():
	default:
		return nil, ErrPermissionDenied
	}

	drivers, err := s.drivers.ListForReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &ComplianceReport{
		Rows:    make([]model.ComplianceRow, 0, len(drivers)),
		Summary: make(map[model.ComplianceStatus]int, 3),
	}
	for _, d := range drivers {
		status := compliance.Classify(d.LastCleaningDate, now)
		row := model.ComplianceRow{
			DriverID:       d.ID,
			VehicleType:    d.VehicleType,
			City:           d.City,
			Status:         status,
			LastCleaning:   model.LastCleaningLabel(d.LastCleaningDate),
			TotalCleanings: d.TotalCleanings,
		}
		if d.Profile != nil {
			row.FullName = d.Profile.FullName
		}
		report.Rows = append(report.Rows, row)
		report.Summary[status]++
	}
	report.Total = len(report.Rows)
	return report, nil
}

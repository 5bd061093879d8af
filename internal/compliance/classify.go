// Package compliance holds the cleaning-recency classification rule. It is the
// single implementation of the rule: order completion persists its result and
// the compliance report renders it.
package compliance

import (
	"time"

	"cleanbag-service/internal/model"
)

// Business constants: a cleaning within a week keeps a driver compliant, up to
// two weeks is a warning, anything older is overdue.
const (
	CompliantMaxDays = 7
	WarningMaxDays   = 14
)

// Classify maps the last cleaning date to a compliance status. A driver with
// no cleaning history is overdue.
func Classify(lastCleaning *time.Time, now time.Time) model.ComplianceStatus {
	if lastCleaning == nil {
		return model.ComplianceStatusOverdue
	}
	days := DaysSince(*lastCleaning, now)
	switch {
	case days <= CompliantMaxDays:
		return model.ComplianceStatusCompliant
	case days <= WarningMaxDays:
		return model.ComplianceStatusWarning
	default:
		return model.ComplianceStatusOverdue
	}
}

// DaysSince counts whole days between the last cleaning and now. Dates in the
// future count as zero.
func DaysSince(lastCleaning, now time.Time) int {
	days := int(now.Sub(lastCleaning).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

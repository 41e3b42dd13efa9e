package alerts

import (
	"slices"

	"github.com/apiarist/hivectl/internal/models"
)

// SortMode selects a presentation ordering for the alert list.
type SortMode string

const (
	// SortCriticality orders by severity rank, newest first within a rank.
	SortCriticality SortMode = "criticality"
	// SortTimestamp orders newest first.
	SortTimestamp SortMode = "timestamp"
)

// Sorted returns the collection in presentation order. The stored order is
// never mutated; sorting is stable so equal keys keep their arrival order.
func (r *Reconciler) Sorted(mode SortMode) []models.AlertRecord {
	out := r.Snapshot()
	SortAlerts(out, mode)
	return out
}

// SortAlerts sorts a slice of alerts in place by the given mode.
func SortAlerts(list []models.AlertRecord, mode SortMode) {
	switch mode {
	case SortCriticality:
		slices.SortStableFunc(list, func(a, b models.AlertRecord) int {
			if d := models.SeverityRank(a.Severity) - models.SeverityRank(b.Severity); d != 0 {
				return d
			}
			return compareDesc(a.TimestampMs, b.TimestampMs)
		})
	default:
		slices.SortStableFunc(list, func(a, b models.AlertRecord) int {
			return compareDesc(a.TimestampMs, b.TimestampMs)
		})
	}
}

func compareDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

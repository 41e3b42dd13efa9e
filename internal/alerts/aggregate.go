package alerts

import (
	"time"

	"github.com/apiarist/hivectl/internal/models"
)

// Derived aggregates are pure projections over (alerts, now). They are
// recomputed on demand and never cached.

// CountBySeverity returns alert counts per severity.
func (r *Reconciler) CountBySeverity() map[models.Severity]int {
	counts := make(map[models.Severity]int)
	for _, a := range r.Snapshot() {
		counts[a.Severity]++
	}
	return counts
}

// UnreadCount returns the number of alerts not yet marked read.
func (r *Reconciler) UnreadCount() int {
	n := 0
	for _, a := range r.Snapshot() {
		if !a.Read {
			n++
		}
	}
	return n
}

// TrendBucket is one time slot of a trailing-window histogram.
type TrendBucket struct {
	Start      time.Time
	BySeverity map[models.Severity]int
	Total      int
}

// Trend bins alerts into trailing-window buckets ending at now. The last
// bucket covers [now-step, now); earlier buckets follow backwards until the
// window is filled. Alerts outside the window are ignored.
func (r *Reconciler) Trend(now time.Time, window, step time.Duration) []TrendBucket {
	return BinAlerts(r.Snapshot(), now, window, step)
}

// HourlyTrend bins the last 24 hours by hour.
func (r *Reconciler) HourlyTrend(now time.Time) []TrendBucket {
	return r.Trend(now, 24*time.Hour, time.Hour)
}

// BinAlerts computes the trailing-window histogram for a fixed alert set.
func BinAlerts(list []models.AlertRecord, now time.Time, window, step time.Duration) []TrendBucket {
	if window <= 0 || step <= 0 {
		return nil
	}
	n := int(window / step)
	if n == 0 {
		return nil
	}

	start := now.Add(-window)
	buckets := make([]TrendBucket, n)
	for i := range buckets {
		buckets[i] = TrendBucket{
			Start:      start.Add(time.Duration(i) * step),
			BySeverity: make(map[models.Severity]int),
		}
	}

	for _, a := range list {
		ts := time.UnixMilli(a.TimestampMs)
		if ts.Before(start) || !ts.Before(now) {
			continue
		}
		i := int(ts.Sub(start) / step)
		if i < 0 || i >= n {
			continue
		}
		buckets[i].BySeverity[a.Severity]++
		buckets[i].Total++
	}
	return buckets
}

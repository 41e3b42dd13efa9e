package alerts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarist/hivectl/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAlertAPI struct {
	mu        sync.Mutex
	alerts    []models.AlertRecord
	listErr   error
	readErr   error
	readCalls []string
}

func (f *fakeAlertAPI) ListAlerts(ctx context.Context) ([]models.AlertRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.AlertRecord, len(f.alerts))
	copy(out, f.alerts)
	return out, nil
}

func (f *fakeAlertAPI) MarkAlertRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, id)
	return f.readErr
}

func (f *fakeAlertAPI) reads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.readCalls...)
}

func seedAlerts() []models.AlertRecord {
	return []models.AlertRecord{
		{ID: "a-info", Severity: models.SeverityInfo, Title: "Sensor online", TimestampMs: 3000},
		{ID: "a-crit-old", Severity: models.SeverityCritical, Title: "Predator detected", TimestampMs: 1000},
		{ID: "a-warn", Severity: models.SeverityWarning, Title: "Low weight", TimestampMs: 2000},
		{ID: "a-crit-new", Severity: models.SeverityCritical, Title: "Anomaly detected", TimestampMs: 4000},
	}
}

func loadedReconciler(t *testing.T, api *fakeAlertAPI) *Reconciler {
	t.Helper()
	r := NewReconciler(api, testLogger())
	require.NoError(t, r.Load(context.Background()))
	return r
}

func TestLoadPreservesDeliveryOrder(t *testing.T) {
	r := loadedReconciler(t, &fakeAlertAPI{alerts: seedAlerts()})

	got := r.Snapshot()
	require.Len(t, got, 4)
	assert.Equal(t, "a-info", got[0].ID)
	assert.Equal(t, "a-crit-new", got[3].ID)
}

func TestSortedByCriticality(t *testing.T) {
	r := loadedReconciler(t, &fakeAlertAPI{alerts: seedAlerts()})

	got := r.Sorted(SortCriticality)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	// Severity first, newest first within a severity
	assert.Equal(t, []string{"a-crit-new", "a-crit-old", "a-warn", "a-info"}, ids)

	// The stored order is untouched
	assert.Equal(t, "a-info", r.Snapshot()[0].ID)
}

func TestSortedByTimestamp(t *testing.T) {
	r := loadedReconciler(t, &fakeAlertAPI{alerts: seedAlerts()})

	got := r.Sorted(SortTimestamp)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a-crit-new", "a-info", "a-warn", "a-crit-old"}, ids)
}

func TestApplyUpsertsByID(t *testing.T) {
	r := loadedReconciler(t, &fakeAlertAPI{alerts: seedAlerts()})

	// New id appends
	r.Apply(models.AlertRecord{ID: "a-new", Severity: models.SeverityInfo, TimestampMs: 5000})
	assert.Equal(t, 5, r.Len())

	// Known id updates in place, position and count unchanged
	r.Apply(models.AlertRecord{ID: "a-warn", Severity: models.SeverityWarning, Title: "Very low weight", TimestampMs: 6000})
	assert.Equal(t, 5, r.Len())
	got := r.Snapshot()
	assert.Equal(t, "a-warn", got[2].ID)
	assert.Equal(t, "Very low weight", got[2].Title)
}

func TestRedeliveryKeepsReadFlag(t *testing.T) {
	api := &fakeAlertAPI{alerts: seedAlerts()}
	r := loadedReconciler(t, api)
	require.NoError(t, r.MarkAsRead(context.Background(), "a-warn"))

	// The backend echoes the record before it persisted the flag
	r.Apply(models.AlertRecord{ID: "a-warn", Severity: models.SeverityWarning, Title: "Low weight", TimestampMs: 2000})

	a, ok := r.Get("a-warn")
	require.True(t, ok)
	assert.True(t, a.Read, "an optimistic read flag must not flicker back")
}

func TestMarkAsReadIsOptimistic(t *testing.T) {
	api := &fakeAlertAPI{alerts: seedAlerts(), readErr: fmt.Errorf("backend down")}
	r := loadedReconciler(t, api)

	// Persistence failure is swallowed; local state is the truth
	require.NoError(t, r.MarkAsRead(context.Background(), "a-crit-new"))

	a, _ := r.Get("a-crit-new")
	assert.True(t, a.Read)
	assert.Equal(t, []string{"a-crit-new"}, api.reads())
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	api := &fakeAlertAPI{alerts: seedAlerts()}
	r := loadedReconciler(t, api)

	require.NoError(t, r.MarkAsRead(context.Background(), "a-info"))
	require.NoError(t, r.MarkAsRead(context.Background(), "a-info"))
	require.NoError(t, r.MarkAsRead(context.Background(), "no-such-id"))

	// Exactly one network call for the one real transition
	assert.Equal(t, []string{"a-info"}, api.reads())
}

func TestApplyRawDropsMalformed(t *testing.T) {
	r := NewReconciler(&fakeAlertAPI{}, testLogger())

	_, ok := r.ApplyRaw([]byte(`not json`))
	assert.False(t, ok)
	_, ok = r.ApplyRaw([]byte(`{"severity":"critical"}`))
	assert.False(t, ok, "missing id is dropped")

	rec, ok := r.ApplyRaw([]byte(`{"id":"a-1","severity":"warning","title":"Smoke"}`))
	require.True(t, ok)
	assert.Equal(t, "a-1", rec.ID)
	assert.Equal(t, 1, r.Len())
}

func TestCountBySeverityAndUnread(t *testing.T) {
	api := &fakeAlertAPI{alerts: seedAlerts()}
	r := loadedReconciler(t, api)
	require.NoError(t, r.MarkAsRead(context.Background(), "a-info"))

	counts := r.CountBySeverity()
	assert.Equal(t, 2, counts[models.SeverityCritical])
	assert.Equal(t, 1, counts[models.SeverityWarning])
	assert.Equal(t, 1, counts[models.SeverityInfo])
	assert.Equal(t, 3, r.UnreadCount())
}

func TestBinAlerts(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	list := []models.AlertRecord{
		{ID: "in-last-hour", Severity: models.SeverityCritical, TimestampMs: now.Add(-30 * time.Minute).UnixMilli()},
		{ID: "two-hours-ago", Severity: models.SeverityInfo, TimestampMs: now.Add(-90 * time.Minute).UnixMilli()},
		{ID: "outside-window", Severity: models.SeverityWarning, TimestampMs: now.Add(-25 * time.Hour).UnixMilli()},
		{ID: "exactly-now", Severity: models.SeverityWarning, TimestampMs: now.UnixMilli()},
	}

	buckets := BinAlerts(list, now, 24*time.Hour, time.Hour)
	require.Len(t, buckets, 24)

	last := buckets[23]
	assert.Equal(t, 1, last.Total)
	assert.Equal(t, 1, last.BySeverity[models.SeverityCritical])

	assert.Equal(t, 1, buckets[22].Total, "90 minutes ago lands in the second-to-last bucket")

	total := 0
	for _, b := range buckets {
		total += b.Total
	}
	assert.Equal(t, 2, total, "alerts at or outside the window edges are excluded")
}

func TestBinAlertsDegenerateWindows(t *testing.T) {
	now := time.Now()
	assert.Nil(t, BinAlerts(nil, now, 0, time.Hour))
	assert.Nil(t, BinAlerts(nil, now, time.Hour, 0))
	assert.Nil(t, BinAlerts(nil, now, time.Minute, time.Hour))
}

// Package alerts maintains a single consistent view of apiary alerts,
// merging the initial bulk load, live stream deliveries, and read-state
// mutations.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apiarist/hivectl/internal/models"
)

// API is the slice of the backend client the reconciler needs.
type API interface {
	ListAlerts(ctx context.Context) ([]models.AlertRecord, error)
	MarkAlertRead(ctx context.Context, id string) error
}

// Reconciler exclusively owns the in-memory alert collection. All mutation
// goes through its methods; invariants (unique ids, read-state) are
// enforced at this boundary.
type Reconciler struct {
	api API
	log *slog.Logger

	mu    sync.RWMutex
	list  []models.AlertRecord
	index map[string]int // id -> position in list
}

// NewReconciler creates an empty reconciler.
func NewReconciler(backend API, log *slog.Logger) *Reconciler {
	return &Reconciler{
		api:   backend,
		log:   log,
		index: make(map[string]int),
	}
}

// Load replaces the collection with the backend's current alert set,
// preserving delivery order.
func (r *Reconciler) Load(ctx context.Context) error {
	alerts, err := r.api.ListAlerts(ctx)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = r.list[:0]
	clear(r.index)
	for _, a := range alerts {
		r.upsertLocked(a)
	}
	return nil
}

// Apply merges one alert into the collection. A record whose id is already
// present updates that entry in place; stream redeliveries never create a
// duplicate.
func (r *Reconciler) Apply(rec models.AlertRecord) {
	if rec.ID == "" {
		r.log.Warn("dropping alert without id")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(rec)
}

// ApplyRaw parses a stream payload and merges it. Malformed payloads are
// logged and discarded; the stream keeps running.
func (r *Reconciler) ApplyRaw(payload []byte) (models.AlertRecord, bool) {
	var rec models.AlertRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		r.log.Warn("dropping malformed alert event", "error", err)
		return models.AlertRecord{}, false
	}
	if rec.ID == "" {
		r.log.Warn("dropping alert event without id")
		return models.AlertRecord{}, false
	}
	r.Apply(rec)
	return rec, true
}

// upsertLocked inserts or updates by id. A replacement never clears an
// already-set local read flag; the optimistic mark would otherwise flicker
// back when the backend echoes the record before persisting it.
func (r *Reconciler) upsertLocked(rec models.AlertRecord) {
	if pos, ok := r.index[rec.ID]; ok {
		rec.Read = rec.Read || r.list[pos].Read
		r.list[pos] = rec
		return
	}
	r.index[rec.ID] = len(r.list)
	r.list = append(r.list, rec)
}

// MarkAsRead flips the local read flag synchronously and then persists it.
// Persistence failures are logged but never rolled back; the local flag is
// the user-visible truth. Already-read and unknown ids are no-ops with no
// network call.
func (r *Reconciler) MarkAsRead(ctx context.Context, id string) error {
	r.mu.Lock()
	pos, ok := r.index[id]
	if !ok || r.list[pos].Read {
		r.mu.Unlock()
		return nil
	}
	r.list[pos].Read = true
	r.mu.Unlock()

	if err := r.api.MarkAlertRead(ctx, id); err != nil {
		// Accepted inconsistency: local stays read.
		r.log.Warn("failed to persist alert read state", "alert_id", id, "error", err)
	}
	return nil
}

// Get returns one alert by id.
func (r *Reconciler) Get(id string) (models.AlertRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.index[id]
	if !ok {
		return models.AlertRecord{}, false
	}
	return r.list[pos], true
}

// Snapshot returns a copy of the collection in stored order.
func (r *Reconciler) Snapshot() []models.AlertRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.AlertRecord, len(r.list))
	copy(out, r.list)
	return out
}

// Len returns the number of distinct alerts.
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

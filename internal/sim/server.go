package sim

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/apiarist/hivectl/internal/models"
)

// Server is the simulated apiary backend.
type Server struct {
	store  *Store
	jobs   *JobManager
	broker *Broker
	log    *slog.Logger

	registry      *prometheus.Registry
	alertsEmitted prometheus.Counter
	jobsStarted   prometheus.Counter
}

// Options configures the simulator.
type Options struct {
	// PhaseInterval is the time a harvest job spends per progress step.
	PhaseInterval time.Duration
	// FailRate in [0,1] injects random harvest failures.
	FailRate float64
}

// NewServer creates a simulator with seeded fixtures.
func NewServer(opts Options, log *slog.Logger) *Server {
	// Own registry so multiple simulators (tests) never collide.
	reg := prometheus.NewRegistry()
	return &Server{
		store:    NewStore(),
		jobs:     NewJobManager(opts.PhaseInterval, opts.FailRate, log),
		broker:   NewBroker(),
		log:      log,
		registry: reg,
		alertsEmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hivesim_alerts_emitted_total",
			Help: "Synthetic alerts pushed to the stream.",
		}),
		jobsStarted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hivesim_harvest_jobs_total",
			Help: "Harvest jobs started.",
		}),
	}
}

// Handler returns the full HTTP surface: REST under /api, the SSE stream,
// and prometheus metrics.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/farms", s.listFarms).Methods(http.MethodGet)
	api.HandleFunc("/farms", s.createFarm).Methods(http.MethodPost)
	api.HandleFunc("/farms/{id}", s.updateFarm).Methods(http.MethodPut)
	api.HandleFunc("/farms/{id}", s.deleteFarm).Methods(http.MethodDelete)

	api.HandleFunc("/hives", s.listHives).Methods(http.MethodGet)
	api.HandleFunc("/hives", s.createHive).Methods(http.MethodPost)
	api.HandleFunc("/hives/{id}", s.updateHive).Methods(http.MethodPut)
	api.HandleFunc("/hives/{id}", s.deleteHive).Methods(http.MethodDelete)

	api.HandleFunc("/sensors", s.listSensors).Methods(http.MethodGet)
	api.HandleFunc("/sensors", s.createSensor).Methods(http.MethodPost)
	api.HandleFunc("/sensors/{id}", s.updateSensor).Methods(http.MethodPut)
	api.HandleFunc("/sensors/{id}", s.deleteSensor).Methods(http.MethodDelete)

	api.HandleFunc("/devices", s.listDevices).Methods(http.MethodGet)

	api.HandleFunc("/alerts", s.listAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}", s.markAlertRead).Methods(http.MethodPut)

	api.HandleFunc("/harvest", s.startHarvest).Methods(http.MethodPost)
	api.HandleFunc("/harvest/{id}", s.harvestStatus).Methods(http.MethodGet)

	r.Handle("/sse/alerts", s.broker).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return cors.AllowAll().Handler(r)
}

// EmitAlerts publishes synthetic alerts at the given cadence until ctx
// ends. Used by cmd/hivesim to exercise the live stream.
func (s *Server) EmitAlerts(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PublishAlert(s.randomAlert())
		}
	}
}

// PublishAlert stores an alert and pushes it on the stream.
func (s *Server) PublishAlert(a models.AlertRecord) models.AlertRecord {
	stored := s.store.AddAlert(a)
	s.broker.Publish(stored)
	s.alertsEmitted.Inc()
	return stored
}

var syntheticAlerts = []struct {
	severity  models.Severity
	alertType string
	title     string
	message   string
}{
	{models.SeverityCritical, models.AlertPredatorDetected, "Predator detected", "Motion consistent with a hornet near the entrance"},
	{models.SeverityWarning, models.AlertAnomalyDetected, "Temperature anomaly", "Brood temperature drifted 3.1 degrees above baseline"},
	{models.SeverityWarning, models.AlertOfflineSensor, "Sensor offline", "A sensor stopped reporting"},
	{models.SeverityInfo, models.AlertOnlineSensor, "Sensor online", "A sensor resumed reporting"},
	{models.SeverityInfo, models.AlertHoneyHarvested, "Harvest complete", "Honey extraction finished"},
}

func (s *Server) randomAlert() models.AlertRecord {
	tpl := syntheticAlerts[rand.Intn(len(syntheticAlerts))]
	// The directory is mutable over the API, so the store may hold no
	// hives at all. Emit unattributed alerts in that case.
	var hiveName, farmName string
	if hives := s.store.Hives(); len(hives) > 0 {
		hive := hives[rand.Intn(len(hives))]
		hiveName = hive.Name
		for _, f := range s.store.Farms() {
			if f.ID == hive.FarmID {
				farmName = f.Name
			}
		}
	}
	now := time.Now()
	return models.AlertRecord{
		Severity:    tpl.severity,
		AlertType:   tpl.alertType,
		Title:       tpl.title,
		Message:     tpl.message,
		BeehiveName: hiveName,
		FarmName:    farmName,
		Timestamp:   now.Format(time.RFC1123),
		TimestampMs: now.UnixMilli(),
	}
}

// ---- handlers ----

func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) listFarms(w http.ResponseWriter, _ *http.Request)   { writeData(w, s.store.Farms()) }
func (s *Server) listHives(w http.ResponseWriter, _ *http.Request)   { writeData(w, s.store.Hives()) }
func (s *Server) listSensors(w http.ResponseWriter, _ *http.Request) { writeData(w, s.store.Sensors()) }
func (s *Server) listDevices(w http.ResponseWriter, _ *http.Request) { writeData(w, s.store.Devices()) }
func (s *Server) listAlerts(w http.ResponseWriter, _ *http.Request)  { writeData(w, s.store.Alerts()) }

func (s *Server) createFarm(w http.ResponseWriter, r *http.Request) {
	var f models.Farm
	if !decode(w, r, &f) {
		return
	}
	f.ID = ""
	writeJSON(w, http.StatusCreated, map[string]any{"data": s.store.UpsertFarm(f)})
}

func (s *Server) updateFarm(w http.ResponseWriter, r *http.Request) {
	var f models.Farm
	if !decode(w, r, &f) {
		return
	}
	f.ID = mux.Vars(r)["id"]
	writeData(w, s.store.UpsertFarm(f))
}

func (s *Server) deleteFarm(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteFarm(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createHive(w http.ResponseWriter, r *http.Request) {
	var h models.Beehive
	if !decode(w, r, &h) {
		return
	}
	h.ID = ""
	writeJSON(w, http.StatusCreated, map[string]any{"data": s.store.UpsertHive(h)})
}

func (s *Server) updateHive(w http.ResponseWriter, r *http.Request) {
	var h models.Beehive
	if !decode(w, r, &h) {
		return
	}
	h.ID = mux.Vars(r)["id"]
	writeData(w, s.store.UpsertHive(h))
}

func (s *Server) deleteHive(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteHive(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createSensor(w http.ResponseWriter, r *http.Request) {
	var sn models.Sensor
	if !decode(w, r, &sn) {
		return
	}
	sn.ID = ""
	writeJSON(w, http.StatusCreated, map[string]any{"data": s.store.UpsertSensor(sn)})
}

func (s *Server) updateSensor(w http.ResponseWriter, r *http.Request) {
	var sn models.Sensor
	if !decode(w, r, &sn) {
		return
	}
	sn.ID = mux.Vars(r)["id"]
	writeData(w, s.store.UpsertSensor(sn))
}

func (s *Server) deleteSensor(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteSensor(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markAlertRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Read bool `json:"read"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Read {
		http.Error(w, "only {\"read\": true} is supported", http.StatusBadRequest)
		return
	}
	if err := s.store.MarkAlertRead(mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) startHarvest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FarmID    string `json:"farmId"`
		BeehiveID string `json:"beehiveId"`
		DeviceID  string `json:"deviceId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.FarmID == "" || req.BeehiveID == "" || req.DeviceID == "" {
		http.Error(w, "farmId, beehiveId, and deviceId are required", http.StatusBadRequest)
		return
	}
	if !s.store.HiveBelongsToFarm(req.BeehiveID, req.FarmID) {
		http.Error(w, "beehive does not belong to farm", http.StatusUnprocessableEntity)
		return
	}
	if !s.store.DeviceAvailable(req.DeviceID) {
		http.Error(w, "harvest device is not available", http.StatusConflict)
		return
	}

	job := s.jobs.Start(req.FarmID, req.BeehiveID, req.DeviceID)
	s.jobsStarted.Inc()
	writeJSON(w, http.StatusCreated, map[string]string{"harvest_id": job.ID})
}

func (s *Server) harvestStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(mux.Vars(r)["id"])
	if job == nil {
		http.Error(w, "harvest not found", http.StatusNotFound)
		return
	}
	state, progress, message := job.State()
	resp := map[string]any{
		"state":    state,
		"progress": progress,
	}
	if message != "" {
		resp["message"] = message
	}
	writeJSON(w, http.StatusOK, resp)
}

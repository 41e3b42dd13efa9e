// Package sim implements a development apiary backend: the REST and SSE
// surface hivectl talks to, backed by in-memory fixtures and a harvest job
// simulator.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/apiarist/hivectl/internal/models"
	"github.com/google/uuid"
)

// Store holds the in-memory directory and alert data.
type Store struct {
	mu      sync.RWMutex
	farms   []models.Farm
	hives   []models.Beehive
	sensors []models.Sensor
	devices []models.HarvestDevice
	alerts  []models.AlertRecord
}

// NewStore creates a store seeded with demo fixtures.
func NewStore() *Store {
	s := &Store{}
	s.seed()
	return s
}

func (s *Store) seed() {
	s.farms = []models.Farm{
		{ID: "farm-1", Name: "Sunny Meadow Farm", Location: "Valley Road 12"},
		{ID: "farm-2", Name: "Mountain View Apiary", Location: "Highland Pass 3"},
	}
	s.hives = []models.Beehive{
		{ID: "hive-1", FarmID: "farm-1", Name: "Hive Alpha", HarvestStatus: "excellent", HoneyProduction: 12.5},
		{ID: "hive-2", FarmID: "farm-1", Name: "Hive Beta", HarvestStatus: "good", HoneyProduction: 8.1},
		{ID: "hive-3", FarmID: "farm-2", Name: "Hive Gamma", HarvestStatus: "fair", HoneyProduction: 5.4, HasAlert: true},
	}
	s.sensors = []models.Sensor{
		{ID: "sensor-1", BeehiveID: "hive-1", Name: "Temp A", Status: "online", DataCapture: []string{"temperature"}, CurrentValue: 34.2},
		{ID: "sensor-2", BeehiveID: "hive-1", Name: "Bee Counter A", Status: "online", DataCapture: []string{"bee_count"}, CurrentValue: 18200},
		{ID: "sensor-3", BeehiveID: "hive-3", Name: "Humidity G", Status: "offline", DataCapture: []string{"humidity"}, CurrentValue: 61},
	}
	s.devices = []models.HarvestDevice{
		{ID: "device-1", Name: "Extractor One", Status: models.DeviceAvailable},
		{ID: "device-2", Name: "Extractor Two", Status: models.DeviceAvailable},
		{ID: "device-3", Name: "Extractor Three", Status: "maintenance"},
	}
	now := time.Now()
	s.alerts = []models.AlertRecord{
		newAlert("alert-1", models.SeverityWarning, models.AlertOfflineSensor,
			"Sensor offline", "Humidity G stopped reporting", "Hive Gamma", "Mountain View Apiary", now.Add(-2*time.Hour)),
		newAlert("alert-2", models.SeverityInfo, models.AlertHoneyHarvested,
			"Harvest complete", "Hive Alpha produced 4.2kg", "Hive Alpha", "Sunny Meadow Farm", now.Add(-26*time.Hour)),
	}
}

func newAlert(id string, sev models.Severity, alertType, title, msg, hive, farm string, ts time.Time) models.AlertRecord {
	return models.AlertRecord{
		ID:          id,
		Severity:    sev,
		AlertType:   alertType,
		Title:       title,
		Message:     msg,
		BeehiveName: hive,
		FarmName:    farm,
		Timestamp:   ts.Format(time.RFC1123),
		TimestampMs: ts.UnixMilli(),
	}
}

// Farms returns all farms.
func (s *Store) Farms() []models.Farm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Farm(nil), s.farms...)
}

// Hives returns all beehives.
func (s *Store) Hives() []models.Beehive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Beehive(nil), s.hives...)
}

// Sensors returns all sensors.
func (s *Store) Sensors() []models.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Sensor(nil), s.sensors...)
}

// Devices returns all harvest devices.
func (s *Store) Devices() []models.HarvestDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.HarvestDevice(nil), s.devices...)
}

// Alerts returns the current alert collection.
func (s *Store) Alerts() []models.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AlertRecord(nil), s.alerts...)
}

// AddAlert appends a new alert and returns it.
func (s *Store) AddAlert(a models.AlertRecord) models.AlertRecord {
	if a.ID == "" {
		a.ID = "alert-" + uuid.New().String()[:8]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return a
}

// MarkAlertRead flips an alert's read flag.
func (s *Store) MarkAlertRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("alert not found: %s", id)
}

// UpsertFarm adds or replaces a farm.
func (s *Store) UpsertFarm(f models.Farm) models.Farm {
	if f.ID == "" {
		f.ID = "farm-" + uuid.New().String()[:8]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.farms {
		if s.farms[i].ID == f.ID {
			s.farms[i] = f
			return f
		}
	}
	s.farms = append(s.farms, f)
	return f
}

// DeleteFarm removes a farm by id.
func (s *Store) DeleteFarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.farms {
		if s.farms[i].ID == id {
			s.farms = append(s.farms[:i], s.farms[i+1:]...)
			return
		}
	}
}

// UpsertHive adds or replaces a beehive.
func (s *Store) UpsertHive(h models.Beehive) models.Beehive {
	if h.ID == "" {
		h.ID = "hive-" + uuid.New().String()[:8]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.hives {
		if s.hives[i].ID == h.ID {
			s.hives[i] = h
			return h
		}
	}
	s.hives = append(s.hives, h)
	return h
}

// DeleteHive removes a beehive by id.
func (s *Store) DeleteHive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.hives {
		if s.hives[i].ID == id {
			s.hives = append(s.hives[:i], s.hives[i+1:]...)
			return
		}
	}
}

// UpsertSensor adds or replaces a sensor.
func (s *Store) UpsertSensor(sn models.Sensor) models.Sensor {
	if sn.ID == "" {
		sn.ID = "sensor-" + uuid.New().String()[:8]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sensors {
		if s.sensors[i].ID == sn.ID {
			s.sensors[i] = sn
			return sn
		}
	}
	s.sensors = append(s.sensors, sn)
	return sn
}

// DeleteSensor removes a sensor by id.
func (s *Store) DeleteSensor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sensors {
		if s.sensors[i].ID == id {
			s.sensors = append(s.sensors[:i], s.sensors[i+1:]...)
			return
		}
	}
}

// HiveBelongsToFarm validates the harvest selection invariant.
func (s *Store) HiveBelongsToFarm(hiveID, farmID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hives {
		if h.ID == hiveID {
			return h.FarmID == farmID
		}
	}
	return false
}

// DeviceAvailable reports whether a device exists and is available.
func (s *Store) DeviceAvailable(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devices {
		if d.ID == id {
			return d.Status == models.DeviceAvailable
		}
	}
	return false
}

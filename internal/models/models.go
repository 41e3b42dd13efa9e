// Package models defines the data structures shared between the hivectl
// client and the apiary backend.
package models

// Farm is an apiary site grouping beehives.
type Farm struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Beehive is a single hive belonging to a farm.
type Beehive struct {
	ID              string  `json:"id"`
	FarmID          string  `json:"farmId"`
	Name            string  `json:"name"`
	HarvestStatus   string  `json:"harvestStatus,omitempty"` // excellent|good|fair|poor|critical
	HoneyProduction float64 `json:"honeyProduction,omitempty"`
	HasAlert        bool    `json:"hasAlert,omitempty"`
}

// Sensor is a field sensor attached to a beehive.
type Sensor struct {
	ID           string   `json:"id"`
	BeehiveID    string   `json:"beehiveId"`
	Name         string   `json:"name"`
	Status       string   `json:"status"` // online|offline
	DataCapture  []string `json:"dataCapture,omitempty"`
	CurrentValue float64  `json:"currentValue,omitempty"`
}

// DeviceAvailable is the only device status a harvest may be started with.
const DeviceAvailable = "available"

// HarvestDevice is a honey extraction unit that can be mapped to a hive.
type HarvestDevice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"` // available|in_use|maintenance
}

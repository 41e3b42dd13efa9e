package models

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Alert type values pushed by the backend.
const (
	AlertPredatorDetected = "predator_detected"
	AlertOnlineSensor     = "online_sensor"
	AlertOfflineSensor    = "offline_sensor"
	AlertHoneyHarvested   = "honey_harvested"
	AlertAnomalyDetected  = "anomaly_detected"
)

// AlertRecord is one alert as delivered by the bulk endpoint and the
// live stream. A missing read field means unread.
type AlertRecord struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	AlertType   string   `json:"alertType,omitempty"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	BeehiveName string   `json:"beehiveName,omitempty"`
	FarmName    string   `json:"farmName,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	TimestampMs int64    `json:"timestampMs"`
	Read        bool     `json:"read,omitempty"`
}

// SeverityRank orders severities for the criticality sort: critical first,
// unknown values last.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

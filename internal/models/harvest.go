package models

// HarvestState is one phase of a server-executed harvest job.
type HarvestState string

const (
	StateIdle               HarvestState = "idle"
	StateCalibrating        HarvestState = "calibrating"
	StateStartingSmoker     HarvestState = "starting_smoker"
	StateCapturingImages    HarvestState = "capturing_images"
	StateAnalyzingHoneypots HarvestState = "analyzing_honeypots"
	StateHarvesting         HarvestState = "harvesting"
	StateCompleted          HarvestState = "completed"
	StateFailed             HarvestState = "failed"
)

// Terminal reports whether no further automatic transition occurs.
func (s HarvestState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Valid reports whether s is a known harvest state.
func (s HarvestState) Valid() bool {
	switch s {
	case StateIdle, StateCalibrating, StateStartingSmoker, StateCapturingImages,
		StateAnalyzingHoneypots, StateHarvesting, StateCompleted, StateFailed:
		return true
	}
	return false
}

// PhaseLabel returns the display copy for a harvest state. It is a pure
// function of the state so the rendered label can be re-derived anywhere.
func PhaseLabel(s HarvestState) string {
	switch s {
	case StateIdle:
		return "Ready to harvest"
	case StateCalibrating:
		return "Calibrating sensors"
	case StateStartingSmoker:
		return "Starting smoker"
	case StateCapturingImages:
		return "Capturing hive images"
	case StateAnalyzingHoneypots:
		return "Analyzing honeypots"
	case StateHarvesting:
		return "Harvesting honey"
	case StateCompleted:
		return "Harvest completed"
	case StateFailed:
		return "Harvest failed"
	default:
		return string(s)
	}
}

// ProgressPercent clamps a reported progress value for display. Idle jobs
// always display zero regardless of any stale progress value.
func ProgressPercent(s HarvestState, progress int) int {
	if s == StateIdle {
		return 0
	}
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

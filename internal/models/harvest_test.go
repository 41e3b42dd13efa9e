package models

import "testing"

func TestTerminal(t *testing.T) {
	tests := []struct {
		state HarvestState
		want  bool
	}{
		{StateIdle, false},
		{StateCalibrating, false},
		{StateStartingSmoker, false},
		{StateCapturingImages, false},
		{StateAnalyzingHoneypots, false},
		{StateHarvesting, false},
		{StateCompleted, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range []HarvestState{
		StateIdle, StateCalibrating, StateStartingSmoker, StateCapturingImages,
		StateAnalyzingHoneypots, StateHarvesting, StateCompleted, StateFailed,
	} {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}
	for _, s := range []HarvestState{"", "unknown", "IDLE", "done"} {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		name  string
		state HarvestState
		want  string
	}{
		{"idle", StateIdle, "Ready to harvest"},
		{"calibrating", StateCalibrating, "Calibrating sensors"},
		{"smoker", StateStartingSmoker, "Starting smoker"},
		{"images", StateCapturingImages, "Capturing hive images"},
		{"honeypots", StateAnalyzingHoneypots, "Analyzing honeypots"},
		{"harvesting", StateHarvesting, "Harvesting honey"},
		{"completed", StateCompleted, "Harvest completed"},
		{"failed", StateFailed, "Harvest failed"},
		{"unknown passes through", HarvestState("draining"), "draining"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseLabel(tt.state); got != tt.want {
				t.Errorf("PhaseLabel(%q) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		state    HarvestState
		progress int
		want     int
	}{
		{"idle always zero", StateIdle, 80, 0},
		{"negative clamped", StateHarvesting, -5, 0},
		{"over 100 clamped", StateHarvesting, 140, 100},
		{"in range", StateCapturingImages, 45, 45},
		{"terminal keeps value", StateCompleted, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressPercent(tt.state, tt.progress); got != tt.want {
				t.Errorf("ProgressPercent(%q, %d) = %d, want %d", tt.state, tt.progress, got, tt.want)
			}
		})
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityRank(SeverityCritical) >= SeverityRank(SeverityWarning) {
		t.Error("critical must rank before warning")
	}
	if SeverityRank(SeverityWarning) >= SeverityRank(SeverityInfo) {
		t.Error("warning must rank before info")
	}
	if SeverityRank(Severity("mystery")) <= SeverityRank(SeverityInfo) {
		t.Error("unknown severities must rank last")
	}
}

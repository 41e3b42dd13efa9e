package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarist/hivectl/internal/client"
	"github.com/apiarist/hivectl/internal/harvest"
)

type stubAPI struct{}

func (stubAPI) StartHarvest(context.Context, client.HarvestRequest) (string, error) {
	return "harvest-1", nil
}

func (stubAPI) HarvestStatusByID(context.Context, string) (client.HarvestStatus, error) {
	return client.HarvestStatus{}, nil
}

type silentNotifier struct{}

func (silentNotifier) Success(string) {}
func (silentNotifier) Error(string)   {}

func testOrchestrator(t *testing.T) *harvest.Orchestrator {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := harvest.New(stubAPI{}, silentNotifier{}, log)
	t.Cleanup(orch.Close)
	return orch
}

func TestProgressRefreshMatchesPollInterval(t *testing.T) {
	orch := testOrchestrator(t)

	m := newProgressModel(orch, 250*time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, m.interval)
	require.NotNil(t, m.tickCmd())
}

func TestProgressIntervalDefaultsWhenUnset(t *testing.T) {
	orch := testOrchestrator(t)

	m := newProgressModel(orch, 0)
	assert.Equal(t, harvest.DefaultPollInterval, m.interval)
}

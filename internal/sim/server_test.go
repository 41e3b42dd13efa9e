package sim

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarist/hivectl/internal/client"
	"github.com/apiarist/hivectl/internal/config"
	"github.com/apiarist/hivectl/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// simClient runs a simulator and returns a real client pointed at it. This
// is the contract test between the two halves of the repo.
func simClient(t *testing.T, opts Options) (*client.Client, *Server) {
	t.Helper()
	server := NewServer(opts, testLogger())
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	c := client.New(config.Config{
		ServerURL:      srv.URL + "/api",
		StreamURL:      srv.URL,
		RequestTimeout: 5 * time.Second,
	})
	return c, server
}

func TestSeededDirectory(t *testing.T) {
	c, _ := simClient(t, Options{})
	ctx := context.Background()

	farms, err := c.ListFarms(ctx)
	require.NoError(t, err)
	assert.Len(t, farms, 2)

	hives, err := c.ListHives(ctx)
	require.NoError(t, err)
	require.Len(t, hives, 3)
	assert.Equal(t, "farm-1", hives[0].FarmID)

	sensors, err := c.ListSensors(ctx)
	require.NoError(t, err)
	assert.Len(t, sensors, 3)

	devices, err := c.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "maintenance", devices[2].Status)
}

func TestDirectoryMutations(t *testing.T) {
	c, _ := simClient(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.CreateFarm(ctx, models.Farm{Name: "New Farm"}))
	farms, err := c.ListFarms(ctx)
	require.NoError(t, err)
	require.Len(t, farms, 3)
	assert.NotEmpty(t, farms[2].ID, "the simulator assigns an id")

	require.NoError(t, c.UpdateFarm(ctx, models.Farm{ID: "farm-1", Name: "Renamed", Location: "Elsewhere"}))
	farms, err = c.ListFarms(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", farms[0].Name)

	require.NoError(t, c.DeleteFarm(ctx, "farm-2"))
	farms, err = c.ListFarms(ctx)
	require.NoError(t, err)
	assert.Len(t, farms, 2)

	require.NoError(t, c.DeleteSensor(ctx, "sensor-3"))
	sensors, err := c.ListSensors(ctx)
	require.NoError(t, err)
	assert.Len(t, sensors, 2)
}

func TestStartHarvestValidation(t *testing.T) {
	c, _ := simClient(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  client.HarvestRequest
		want string
	}{
		{"missing fields", client.HarvestRequest{FarmID: "farm-1"}, "400"},
		{"hive of another farm", client.HarvestRequest{FarmID: "farm-1", BeehiveID: "hive-3", DeviceID: "device-1"}, "422"},
		{"device in maintenance", client.HarvestRequest{FarmID: "farm-1", BeehiveID: "hive-1", DeviceID: "device-3"}, "409"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.StartHarvest(ctx, tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHarvestRunsToCompletion(t *testing.T) {
	c, _ := simClient(t, Options{PhaseInterval: 2 * time.Millisecond, FailRate: 0})
	ctx := context.Background()

	id, err := c.StartHarvest(ctx, client.HarvestRequest{
		FarmID: "farm-1", BeehiveID: "hive-1", DeviceID: "device-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var st client.HarvestStatus
	deadline := time.After(5 * time.Second)
	for {
		st, err = c.HarvestStatusByID(ctx, id)
		require.NoError(t, err)
		require.True(t, st.State.Valid(), "the simulator only reports known states")
		if st.State.Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("harvest stuck in %s", st.State)
		case <-time.After(2 * time.Millisecond):
		}
	}

	assert.Equal(t, models.StateCompleted, st.State)
	require.NotNil(t, st.Progress)
	assert.Equal(t, 100, *st.Progress)
}

func TestHarvestStatusUnknownJob(t *testing.T) {
	c, _ := simClient(t, Options{})

	_, err := c.HarvestStatusByID(context.Background(), "harvest-nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMarkAlertReadPersists(t *testing.T) {
	c, _ := simClient(t, Options{})
	ctx := context.Background()

	require.NoError(t, c.MarkAlertRead(ctx, "alert-1"))

	alerts, err := c.ListAlerts(ctx)
	require.NoError(t, err)
	for _, a := range alerts {
		if a.ID == "alert-1" {
			assert.True(t, a.Read)
			return
		}
	}
	t.Fatal("alert-1 missing from list")
}

func TestMarkAlertReadUnknownID(t *testing.T) {
	c, _ := simClient(t, Options{})

	err := c.MarkAlertRead(context.Background(), "alert-nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestStreamDeliversPublishedAlerts(t *testing.T) {
	c, server := simClient(t, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := c.OpenAlertStream(ctx)
	require.NoError(t, err)
	defer stream.Close()

	// Give the subscription a moment to register before publishing
	time.Sleep(20 * time.Millisecond)
	published := server.PublishAlert(models.AlertRecord{
		ID: "alert-live", Severity: models.SeverityCritical,
		Title: "Predator detected", TimestampMs: time.Now().UnixMilli(),
	})

	payload, err := stream.Next()
	require.NoError(t, err)

	var got models.AlertRecord
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, published.ID, got.ID)
	assert.Equal(t, models.SeverityCritical, got.Severity)
}

func TestRandomAlertWithEmptyDirectory(t *testing.T) {
	c, server := simClient(t, Options{})
	ctx := context.Background()

	// The generator ticks independently of the directory, which the API
	// can empty out from under it.
	for _, id := range []string{"hive-1", "hive-2", "hive-3"} {
		require.NoError(t, c.DeleteHive(ctx, id))
	}

	a := server.randomAlert()
	assert.Empty(t, a.BeehiveName)
	assert.Empty(t, a.FarmName)
	assert.NotEmpty(t, a.Title)
	assert.NotZero(t, a.TimestampMs)

	stored := server.PublishAlert(a)
	assert.NotEmpty(t, stored.ID)
}

func TestMetricsEndpoint(t *testing.T) {
	server := NewServer(Options{}, testLogger())
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hivesim_harvest_jobs_total")
}

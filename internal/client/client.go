// Package client provides a REST client for the apiary backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apiarist/hivectl/internal/config"
	"github.com/apiarist/hivectl/internal/metrics"
	"github.com/apiarist/hivectl/internal/models"
)

// Client talks to the apiary REST API.
type Client struct {
	baseURL    string
	streamURL  string
	httpClient *http.Client
	stats      *metrics.Collector
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithStats attaches a metrics collector recording every request.
func WithStats(stats *metrics.Collector) Option {
	return func(c *Client) { c.stats = stats }
}

// New creates a client from configuration.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:   cfg.ServerURL,
		streamURL: cfg.StreamURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the `{data: ...}` wrapper every collection endpoint uses.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do executes one request and returns the raw response body.
func (c *Client) do(ctx context.Context, method, url string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, snippet(respBody))
	}
	return respBody, nil
}

// getData fetches an endpoint and unwraps the `{data: ...}` envelope.
func (c *Client) getData(ctx context.Context, url string, result any) error {
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// observe records one request into the session stats. The error pointer is
// dereferenced at defer time so the final outcome is captured.
func (c *Client) observe(op string, start time.Time, err *error) {
	c.stats.Record(op, time.Since(start), err != nil && *err != nil)
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}

// =============================================================================
// DIRECTORY READS
// =============================================================================

// ListFarms returns all farms.
func (c *Client) ListFarms(ctx context.Context) (farms []models.Farm, err error) {
	defer c.observe(metrics.OpDirectory, time.Now(), &err)
	err = c.getData(ctx, c.baseURL+"/farms", &farms)
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	return farms, nil
}

// ListHives returns all beehives.
func (c *Client) ListHives(ctx context.Context) (hives []models.Beehive, err error) {
	defer c.observe(metrics.OpDirectory, time.Now(), &err)
	err = c.getData(ctx, c.baseURL+"/hives", &hives)
	if err != nil {
		return nil, fmt.Errorf("list hives: %w", err)
	}
	return hives, nil
}

// ListSensors returns all sensors.
func (c *Client) ListSensors(ctx context.Context) (sensors []models.Sensor, err error) {
	defer c.observe(metrics.OpDirectory, time.Now(), &err)
	err = c.getData(ctx, c.baseURL+"/sensors", &sensors)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return sensors, nil
}

// ListDevices returns all harvest devices.
func (c *Client) ListDevices(ctx context.Context) (devices []models.HarvestDevice, err error) {
	defer c.observe(metrics.OpDirectory, time.Now(), &err)
	err = c.getData(ctx, c.baseURL+"/devices", &devices)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// =============================================================================
// DIRECTORY MUTATIONS
// =============================================================================

func (c *Client) mutate(ctx context.Context, method, url string, body any) (err error) {
	defer c.observe(metrics.OpMutation, time.Now(), &err)
	_, err = c.do(ctx, method, url, body)
	return err
}

// CreateFarm adds a farm.
func (c *Client) CreateFarm(ctx context.Context, farm models.Farm) error {
	return c.mutate(ctx, http.MethodPost, c.baseURL+"/farms", farm)
}

// UpdateFarm replaces a farm's editable fields.
func (c *Client) UpdateFarm(ctx context.Context, farm models.Farm) error {
	return c.mutate(ctx, http.MethodPut, c.baseURL+"/farms/"+farm.ID, farm)
}

// DeleteFarm removes a farm.
func (c *Client) DeleteFarm(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, c.baseURL+"/farms/"+id, nil)
}

// CreateHive adds a beehive.
func (c *Client) CreateHive(ctx context.Context, hive models.Beehive) error {
	return c.mutate(ctx, http.MethodPost, c.baseURL+"/hives", hive)
}

// UpdateHive replaces a beehive's editable fields.
func (c *Client) UpdateHive(ctx context.Context, hive models.Beehive) error {
	return c.mutate(ctx, http.MethodPut, c.baseURL+"/hives/"+hive.ID, hive)
}

// DeleteHive removes a beehive.
func (c *Client) DeleteHive(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, c.baseURL+"/hives/"+id, nil)
}

// CreateSensor adds a sensor.
func (c *Client) CreateSensor(ctx context.Context, sensor models.Sensor) error {
	return c.mutate(ctx, http.MethodPost, c.baseURL+"/sensors", sensor)
}

// UpdateSensor replaces a sensor's editable fields.
func (c *Client) UpdateSensor(ctx context.Context, sensor models.Sensor) error {
	return c.mutate(ctx, http.MethodPut, c.baseURL+"/sensors/"+sensor.ID, sensor)
}

// DeleteSensor removes a sensor.
func (c *Client) DeleteSensor(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, c.baseURL+"/sensors/"+id, nil)
}

// =============================================================================
// ALERTS
// =============================================================================

// ListAlerts returns the full current alert collection.
func (c *Client) ListAlerts(ctx context.Context) (alerts []models.AlertRecord, err error) {
	defer c.observe(metrics.OpAlertLoad, time.Now(), &err)
	err = c.getData(ctx, c.baseURL+"/alerts", &alerts)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead persists an alert's read flag. The acknowledgement body is
// ignored beyond success/failure.
func (c *Client) MarkAlertRead(ctx context.Context, id string) (err error) {
	defer c.observe(metrics.OpAlertRead, time.Now(), &err)
	_, err = c.do(ctx, http.MethodPut, c.baseURL+"/alerts/"+id, map[string]bool{"read": true})
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	return nil
}

// =============================================================================
// HARVEST
// =============================================================================

// HarvestRequest carries the selection context for a new harvest job.
type HarvestRequest struct {
	FarmID    string `json:"farmId"`
	BeehiveID string `json:"beehiveId"`
	DeviceID  string `json:"deviceId"`
}

// HarvestStatus is the polled projection of a running job.
type HarvestStatus struct {
	State    models.HarvestState `json:"state"`
	Progress *int                `json:"progress,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// StartHarvest creates a harvest job and returns its identifier.
func (c *Client) StartHarvest(ctx context.Context, req HarvestRequest) (id string, err error) {
	defer c.observe(metrics.OpHarvestStart, time.Now(), &err)
	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/harvest", req)
	if err != nil {
		return "", fmt.Errorf("start harvest: %w", err)
	}
	id, ok := HarvestJobID(body)
	if !ok {
		return "", nil
	}
	return id, nil
}

// HarvestStatusByID fetches the current state of a harvest job.
func (c *Client) HarvestStatusByID(ctx context.Context, id string) (st HarvestStatus, err error) {
	defer c.observe(metrics.OpHarvestPoll, time.Now(), &err)
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/harvest/"+id, nil)
	if err != nil {
		return HarvestStatus{}, fmt.Errorf("harvest status: %w", err)
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return HarvestStatus{}, fmt.Errorf("unmarshal harvest status: %w", err)
	}
	return st, nil
}

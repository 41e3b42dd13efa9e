package sim

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/apiarist/hivectl/internal/models"
	"github.com/google/uuid"
)

// phaseOrder is the sequence a simulated harvest job walks through.
var phaseOrder = []models.HarvestState{
	models.StateCalibrating,
	models.StateStartingSmoker,
	models.StateCapturingImages,
	models.StateAnalyzingHoneypots,
	models.StateHarvesting,
}

// Job is one simulated harvest job.
type Job struct {
	ID        string
	FarmID    string
	BeehiveID string
	DeviceID  string

	mu       sync.RWMutex
	state    models.HarvestState
	progress int
	message  string

	startedAt   time.Time
	completedAt *time.Time
}

// State returns the job's current state, progress, and failure message.
func (j *Job) State() (models.HarvestState, int, string) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state, j.progress, j.message
}

// JobManager tracks simulated harvest jobs and advances them on a timer.
type JobManager struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	interval time.Duration
	failRate float64
	log      *slog.Logger
}

// NewJobManager creates a manager. interval is the time spent per phase
// step; failRate in [0,1] injects random terminal failures.
func NewJobManager(interval time.Duration, failRate float64, log *slog.Logger) *JobManager {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &JobManager{
		jobs:     make(map[string]*Job),
		interval: interval,
		failRate: failRate,
		log:      log,
	}
}

// Start creates a job in the calibrating phase and begins advancing it.
func (m *JobManager) Start(farmID, beehiveID, deviceID string) *Job {
	job := &Job{
		ID:        "harvest-" + uuid.New().String()[:8],
		FarmID:    farmID,
		BeehiveID: beehiveID,
		DeviceID:  deviceID,
		state:     models.StateCalibrating,
		startedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.log.Info("harvest job started", "job_id", job.ID, "farm", farmID, "hive", beehiveID, "device", deviceID)
	go m.advance(job)
	return job
}

// Get retrieves a job by id.
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// advance walks the job through its phases until completion or an injected
// failure. Progress grows monotonically across the whole run.
func (m *JobManager) advance(job *Job) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	steps := len(phaseOrder) * 4 // four progress ticks per phase
	for step := 1; step <= steps; step++ {
		<-ticker.C

		if m.failRate > 0 && rand.Float64() < m.failRate/float64(steps) {
			job.mu.Lock()
			job.state = models.StateFailed
			job.message = "extractor jam detected"
			now := time.Now()
			job.completedAt = &now
			job.mu.Unlock()
			m.log.Warn("harvest job failed", "job_id", job.ID)
			return
		}

		phase := phaseOrder[(step-1)*len(phaseOrder)/steps]
		progress := step * 100 / steps

		job.mu.Lock()
		job.state = phase
		job.progress = progress
		job.mu.Unlock()
	}

	job.mu.Lock()
	job.state = models.StateCompleted
	job.progress = 100
	now := time.Now()
	job.completedAt = &now
	job.mu.Unlock()
	m.log.Info("harvest job completed", "job_id", job.ID)
}

package handlers

import (
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/encoding"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// BuildJob represents an async dataset build.
type BuildJob struct {
	mu sync.RWMutex

	ID          string                `json:"id"`
	DatasetName string                `json:"dataset_name"`
	Status      JobStatus             `json:"status"`
	CurrentFile string                `json:"current_file,omitempty"`
	Error       string                `json:"error,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Report      *encoding.BuildReport `json:"report,omitempty"`
}

// SetRunning marks the job as running.
func (j *BuildJob) SetRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobStatusRunning
}

// SetProgress records the file currently being processed.
func (j *BuildJob) SetProgress(filename string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.CurrentFile = filename
}

// Complete marks the job as finished with its build report.
func (j *BuildJob) Complete(report encoding.BuildReport) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.CurrentFile = ""
	j.Report = &report
}

// Fail marks the job as failed with the given error.
func (j *BuildJob) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.CurrentFile = ""
	j.Error = err.Error()
}

// Snapshot returns a copy of the job safe to serialize.
func (j *BuildJob) Snapshot() BuildJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return BuildJob{
		ID:          j.ID,
		DatasetName: j.DatasetName,
		Status:      j.Status,
		CurrentFile: j.CurrentFile,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Report:      j.Report,
	}
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*BuildJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*BuildJob),
	}
}

// CreateJob creates a new build job.
func (m *JobManager) CreateJob(id, datasetName string) *BuildJob {
	job := &BuildJob{
		ID:          id,
		DatasetName: datasetName,
		Status:      JobStatusPending,
		StartedAt:   time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *BuildJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Package jobs tracks long-running publish operations in a process-wide
// registry. Records accumulate for the process lifetime; there is no TTL.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sitekit/sitekit/internal/events"
	"github.com/sitekit/sitekit/internal/metrics"
)

// Status of a tracked job.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusError      Status = "ERROR"
)

// Job is the record of one publish operation. Logs and Errors are grouped
// per connector (outer slice), with messages appended in order (inner slice).
// Timestamps are Unix milliseconds.
type Job struct {
	JobID     string     `json:"jobId"`
	Status    Status     `json:"status"`
	Message   string     `json:"message"`
	Logs      [][]string `json:"logs"`
	Errors    [][]string `json:"errors"`
	StartTime int64      `json:"startTime,omitempty"`
	EndTime   int64      `json:"endTime,omitempty"`
}

func newJob(id, message string) *Job {
	return &Job{
		JobID:     id,
		Status:    StatusInProgress,
		Message:   message,
		Logs:      [][]string{{message}},
		Errors:    [][]string{{}},
		StartTime: time.Now().UnixMilli(),
	}
}

// Log appends a progress message.
func (j *Job) Log(message string) {
	if len(j.Logs) > 0 {
		j.Logs[0] = append(j.Logs[0], message)
	}
}

// AddError appends an error message.
func (j *Job) AddError(message string) {
	if len(j.Errors) > 0 {
		j.Errors[0] = append(j.Errors[0], message)
	}
}

// Succeed marks the job successful.
func (j *Job) Succeed(message string) {
	j.Status = StatusSuccess
	j.Message = message
	j.EndTime = time.Now().UnixMilli()
}

// Fail marks the job failed and records the message in the error log.
func (j *Job) Fail(message string) {
	j.Status = StatusError
	j.Message = message
	j.AddError(message)
	j.EndTime = time.Now().UnixMilli()
}

// clone deep-copies the job so callers and the registry never share slices.
func (j *Job) clone() *Job {
	out := *j
	out.Logs = make([][]string, len(j.Logs))
	for i, group := range j.Logs {
		out.Logs[i] = append([]string(nil), group...)
	}
	out.Errors = make([][]string, len(j.Errors))
	for i, group := range j.Errors {
		out.Errors[i] = append([]string(nil), group...)
	}
	return &out
}

// Manager is the process-wide job registry. The map is guarded by a single
// reader/writer lock held only for map access, never across file I/O, so a
// slow publish never blocks unrelated lookups.
type Manager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *events.Broadcaster
}

// NewManager creates a job manager. The broadcaster may be nil when nothing
// consumes lifecycle events.
func NewManager(broadcaster *events.Broadcaster) *Manager {
	return &Manager{
		jobs:        make(map[string]*Job),
		broadcaster: broadcaster,
	}
}

// Start allocates a new in-progress job and returns the caller's copy.
// Progress logged into that copy stays local; only Complete and Fail write
// back into the registry by id.
func (m *Manager) Start(message string) *Job {
	job := newJob(uuid.NewString(), message)

	m.mu.Lock()
	m.jobs[job.JobID] = job.clone()
	m.mu.Unlock()

	metrics.JobStarted()
	m.publish(events.JobStarted, job.JobID, message)

	return job
}

// Get returns a copy of the stored job, or nil if the id is unknown.
func (m *Manager) Get(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	return job.clone()
}

// Complete marks a job successful. Unknown ids and jobs already in a
// terminal state are silently ignored.
func (m *Manager) Complete(jobID string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status != StatusInProgress {
		m.mu.Unlock()
		return
	}
	job.Status = StatusSuccess
	job.EndTime = time.Now().UnixMilli()
	message := job.Message
	m.mu.Unlock()

	metrics.JobFinished(string(StatusSuccess))
	m.publish(events.JobSucceeded, jobID, message)
}

// Fail marks a job failed with the given message. Unknown ids and jobs
// already in a terminal state are silently ignored.
func (m *Manager) Fail(jobID, message string) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status != StatusInProgress {
		m.mu.Unlock()
		return
	}
	job.Status = StatusError
	job.Message = message
	job.AddError(message)
	job.EndTime = time.Now().UnixMilli()
	m.mu.Unlock()

	metrics.JobFinished(string(StatusError))
	m.publish(events.JobFailed, jobID, message)
}

func (m *Manager) publish(eventType, jobID, message string) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Publish(events.Event{
		Type:    eventType,
		JobID:   jobID,
		Message: message,
	})
}

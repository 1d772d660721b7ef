package handlers

import (
	"sync"
	"time"

	"github.com/kozaktomas/gaitid/internal/constants"
	"github.com/kozaktomas/gaitid/internal/encoder"
	"github.com/kozaktomas/gaitid/internal/gait"
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

// Event types sent to run listeners.
const (
	EventStatus    = "status"
	EventEpoch     = "epoch"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// RunState is the externally visible state of an identification run.
type RunState struct {
	ID          string              `json:"id"`
	Status      JobStatus           `json:"status"`
	Frames      int                 `json:"frames"`
	Epochs      int                 `json:"epochs"`
	EpochsDone  int                 `json:"epochs_done"`
	LastEpoch   *encoder.EpochStats `json:"last_epoch,omitempty"`
	Error       string              `json:"error,omitempty"`
	ErrorKind   string              `json:"error_kind,omitempty"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Result      *gait.Result        `json:"result,omitempty"`
}

// RunJob is an identification run executing in the background. State
// transitions broadcast their event while holding stateMu, so a listener that
// sees a terminal status already has the final event buffered.
type RunJob struct {
	EventBroadcaster

	stateMu sync.RWMutex
	state   RunState
}

// Snapshot returns a copy of the run state.
func (j *RunJob) Snapshot() RunState {
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()
	return j.state
}

// GetStatus returns the current job status (implements SSEJob).
func (j *RunJob) GetStatus() JobStatus {
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()
	return j.state.Status
}

func (j *RunJob) start() {
	j.stateMu.Lock()
	j.state.Status = JobStatusRunning
	j.stateMu.Unlock()
}

func (j *RunJob) epoch(s encoder.EpochStats) {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	j.state.EpochsDone = s.Epoch
	j.state.LastEpoch = &s
	j.SendEvent(JobEvent{Type: EventEpoch, Data: s})
}

func (j *RunJob) complete(res *gait.Result) {
	now := time.Now()
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	j.state.Status = JobStatusCompleted
	j.state.CompletedAt = &now
	j.state.Result = res
	j.SendEvent(JobEvent{Type: EventCompleted, Message: res.Message, Data: res})
}

func (j *RunJob) fail(message, kind string) {
	now := time.Now()
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	j.state.Status = JobStatusFailed
	j.state.Error = message
	j.state.ErrorKind = kind
	j.state.CompletedAt = &now
	j.SendEvent(JobEvent{Type: EventFailed, Message: message, Data: map[string]string{"kind": kind}})
}

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// ListenerCount returns the number of attached listeners.
func (b *EventBroadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
}

// JobManager manages async jobs.
type JobManager struct {
	jobs      map[string]*RunJob
	retention time.Duration
	mu        sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:      make(map[string]*RunJob),
		retention: constants.FinishedJobRetention,
	}
}

// CreateJob creates a new pending run and drops finished runs past retention.
func (m *JobManager) CreateJob(id string, frames, epochs int) *RunJob {
	job := &RunJob{state: RunState{
		ID:        id,
		Status:    JobStatusPending,
		Frames:    frames,
		Epochs:    epochs,
		StartedAt: time.Now(),
	}}

	m.mu.Lock()
	m.pruneLocked(time.Now())
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *RunJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*RunJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*RunJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

func (m *JobManager) pruneLocked(now time.Time) {
	for id, job := range m.jobs {
		state := job.Snapshot()
		if state.CompletedAt != nil && now.Sub(*state.CompletedAt) > m.retention {
			delete(m.jobs, id)
		}
	}
}

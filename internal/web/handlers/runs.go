package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/gaitid/internal/constants"
	"github.com/kozaktomas/gaitid/internal/features"
	"github.com/kozaktomas/gaitid/internal/gait"
	"github.com/kozaktomas/gaitid/internal/identity"
)

// RunsHandler starts identification runs and reports their progress.
type RunsHandler struct {
	engine     *gait.Engine
	jobManager *JobManager
	logger     *slog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(engine *gait.Engine, jobManager *JobManager, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{engine: engine, jobManager: jobManager, logger: logger}
}

// Start validates the frames document and runs it in the background.
func (h *RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRunBodyBytes)
	frames, err := features.Load(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "frames document too large")
			return
		}
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Shape errors are reported synchronously; the run would reject them anyway.
	if _, err := features.Assemble(frames); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	jobID := uuid.New().String()
	job := h.jobManager.CreateJob(jobID, len(frames), h.engine.Options().Epochs)

	go h.runJob(job, frames)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     jobID,
		"status": string(JobStatusPending),
	})
}

// Status returns the state of a run.
func (h *RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusOK, job.Snapshot())
}

// Delete forgets a finished run. Runs still in progress cannot be deleted.
func (h *RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	if !isJobTerminal(job.GetStatus()) {
		respondError(w, http.StatusConflict, "job is still running")
		return
	}

	h.jobManager.DeleteJob(jobID)
	w.WriteHeader(http.StatusNoContent)
}

// Events streams run events via SSE.
func (h *RunsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*RunJob).Snapshot()
		},
	)
}

// runJob runs the identification in the background. The run is detached from
// the request so it completes even if the client goes away.
func (h *RunsHandler) runJob(job *RunJob, frames []features.Frame) {
	job.start()
	res, err := h.engine.Run(context.Background(), frames, job.epoch)
	if err != nil {
		kind := identity.Kind(err)
		h.logger.Error("run failed",
			"job_id", job.Snapshot().ID,
			"kind", kind,
			"error", sanitizeForLog(err.Error()))
		job.fail(err.Error(), kind)
		return
	}
	job.complete(res)
}

package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/omniprompt/internal/service"
)

// RunHandler handles generation-run API requests.
type RunHandler struct {
	runService *service.RunService
	validator  *validator.Validate
}

// NewRunHandler creates a new RunHandler with the given dependencies.
func NewRunHandler(runService *service.RunService) *RunHandler {
	return &RunHandler{
		runService: runService,
		validator:  validator.New(),
	}
}

// CreateRun handles POST /api/runs. It enqueues a generation run and
// returns 202 with the pending run snapshot; progress is polled via GetRun.
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	snap, err := h.runService.StartRun(r.Context(), service.RunParams{
		RecordIDs:   req.RecordIDs,
		Template:    req.Template,
		TargetField: req.TargetField,
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Streaming:   req.Streaming,
		MaxRetries:  req.MaxRetries,
	})
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusAccepted, snap)
}

// GetRun handles GET /api/runs/{id}.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.runService.GetRun(id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, snap)
}

// CancelRun handles POST /api/runs/{id}/cancel. Cancellation is
// cooperative: in-flight requests settle before the run reports a
// terminal state.
func (h *RunHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.runService.CancelRun(id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusAccepted, snap)
}

// EditOutcome handles PATCH /api/runs/{id}/outcomes/{index}.
func (h *RunHandler) EditOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	index, err := getPathInt(r, "index")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req EditOutcomeRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Text == nil && req.Approved == nil {
		RespondWithError(w, r, http.StatusBadRequest, "Request must set text or approved")
		return
	}

	snap, err := h.runService.EditOutcome(id, index, req.Text, req.Approved)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, snap)
}

// Commit handles POST /api/runs/{id}/commit. It writes all approved
// outcomes into their records' target field and reports what changed.
func (h *RunHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.runService.Commit(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, report)
}

// Discard handles POST /api/runs/{id}/discard. No record is modified.
func (h *RunHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.runService.Discard(id); err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

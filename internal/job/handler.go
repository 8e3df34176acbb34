package job

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/talentsift/talentsift/internal/auth"
	"github.com/talentsift/talentsift/internal/candidate"
	"github.com/talentsift/talentsift/internal/credits"
	"github.com/talentsift/talentsift/internal/httputil"
	"github.com/talentsift/talentsift/internal/logging"
	"github.com/talentsift/talentsift/internal/scoring"
	"github.com/talentsift/talentsift/internal/user"
)

// Handler contains HTTP handlers for screening job endpoints
type Handler struct {
	orchestrator *Orchestrator
	users        user.Repository
}

func NewHandler(orchestrator *Orchestrator, users user.Repository) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		users:        users,
	}
}

// ResumeUpload represents a single resume in a submission
type ResumeUpload struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// SubmitRequest represents the job submission request body
type SubmitRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"jd_text"`
	Resumes     []ResumeUpload `json:"resumes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse represents aggregate usage plus the remaining balance
type StatsResponse struct {
	TotalJobs          int     `json:"total_jobs"`
	TotalCandidates    int     `json:"total_candidates"`
	TotalTokensUsed    int     `json:"total_tokens_used"`
	TotalCost          float64 `json:"total_cost"`
	FreeTrialRemaining int     `json:"free_trial_remaining"`
	PaidCredits        int     `json:"paid_credits"`
}

// Submit handles job submission
// @Summary      Submit a screening job
// @Description  Create a screening job for a job description and a batch of resumes. Requires at least one remaining credit.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        request body SubmitRequest true "Job description and resumes"
// @Success      201 {object} Job
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      402 {object} ErrorResponse "Insufficient credits"
// @Failure      503 {object} ErrorResponse "Screening queue is full"
// @Security     BearerAuth
// @Router       /jobs [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid job submission body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	resumes := make([]scoring.Resume, 0, len(req.Resumes))
	for _, ru := range req.Resumes {
		resumes = append(resumes, scoring.Resume{FileName: ru.FileName, Content: ru.Content})
	}

	j, err := h.orchestrator.Submit(r.Context(), userID, req.Title, req.Description, resumes)
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrDescriptionRequired):
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, credits.ErrInsufficientCredits):
			logger.Warn("job submission rejected: insufficient credits", "user_id", userID)
			respondError(w, "insufficient credits", httputil.CodeInsufficientCredits, http.StatusPaymentRequired)
		case errors.Is(err, ErrQueueFull):
			logger.Warn("job submission rejected: queue full", "user_id", userID)
			respondError(w, "screening queue is full, please retry shortly", httputil.CodeInternalError, http.StatusServiceUnavailable)
		default:
			logger.Error("job submission failed", "error", err.Error())
			respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("job submitted", "job_id", j.ID, "user_id", userID, "resumes", len(resumes))
	respondJSON(w, j, http.StatusCreated)
}

// List handles listing the caller's jobs
// @Summary      List screening jobs
// @Description  Return the caller's jobs, newest first.
// @Tags         jobs
// @Produce      json
// @Success      200 {array} Job
// @Security     BearerAuth
// @Router       /jobs [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	jobs, err := h.orchestrator.ListForUser(r.Context(), userID)
	if err != nil {
		logger.Error("failed to list jobs", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, jobs, http.StatusOK)
}

// Status handles polling a job's status
// @Summary      Get job status
// @Description  Return the current state of one of the caller's jobs.
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} Job
// @Failure      404 {object} ErrorResponse "Job not found"
// @Security     BearerAuth
// @Router       /jobs/{id}/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.withJob(w, r, func(userID, jobID uuid.UUID) (any, error) {
		return h.orchestrator.Status(r.Context(), userID, jobID)
	})
}

// Candidates handles listing a job's ranked candidates
// @Summary      List ranked candidates
// @Description  Return all candidates for a job, ordered by descending match score.
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {array} candidate.Summary
// @Failure      404 {object} ErrorResponse "Job not found"
// @Security     BearerAuth
// @Router       /jobs/{id}/candidates [get]
func (h *Handler) Candidates(w http.ResponseWriter, r *http.Request) {
	h.withJob(w, r, func(userID, jobID uuid.UUID) (any, error) {
		list, err := h.orchestrator.Candidates(r.Context(), userID, jobID)
		if err != nil {
			return nil, err
		}
		return nonNil(list), nil
	})
}

// Shortlisted handles listing a job's shortlisted candidates
// @Summary      List shortlisted candidates
// @Description  Return only the shortlisted candidates for a job, ordered by descending match score.
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {array} candidate.Summary
// @Failure      404 {object} ErrorResponse "Job not found"
// @Security     BearerAuth
// @Router       /jobs/{id}/candidates/shortlisted [get]
func (h *Handler) Shortlisted(w http.ResponseWriter, r *http.Request) {
	h.withJob(w, r, func(userID, jobID uuid.UUID) (any, error) {
		list, err := h.orchestrator.Shortlisted(r.Context(), userID, jobID)
		if err != nil {
			return nil, err
		}
		return nonNil(list), nil
	})
}

// Stats handles the usage stats endpoint
// @Summary      Get usage stats
// @Description  Return the caller's aggregate usage totals and remaining credit balances.
// @Tags         jobs
// @Produce      json
// @Success      200 {object} StatsResponse
// @Security     BearerAuth
// @Router       /jobs/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	usage, err := h.orchestrator.Usage(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load usage stats", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load user for stats", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, StatsResponse{
		TotalJobs:          usage.TotalJobs,
		TotalCandidates:    usage.TotalCandidates,
		TotalTokensUsed:    usage.TotalTokensUsed,
		TotalCost:          usage.TotalCost,
		FreeTrialRemaining: u.FreeTrialRemaining,
		PaidCredits:        u.PaidCredits,
	}, http.StatusOK)
}

// withJob factors out the id parsing and not-found mapping shared by the
// per-job read endpoints.
func (h *Handler) withJob(w http.ResponseWriter, r *http.Request, fn func(userID, jobID uuid.UUID) (any, error)) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "job not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	result, err := fn(userID, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondError(w, "job not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("job request failed", "job_id", jobID, "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

func nonNil(list []*candidate.Summary) []*candidate.Summary {
	if list == nil {
		return []*candidate.Summary{}
	}
	return list
}

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// Package handler provides the HTTP handlers for the review workflow API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/mod-warden/internal/core"
	"github.com/sevigo/mod-warden/internal/jobs"
	"github.com/sevigo/mod-warden/internal/ledger"
	"github.com/sevigo/mod-warden/internal/lifecycle"
)

// ReviewHandler serves the review lifecycle and audit verification routes.
type ReviewHandler struct {
	engine     *lifecycle.Engine
	ledger     *ledger.Ledger
	dispatcher core.AssignmentDispatcher
	sweeper    *jobs.Sweeper
	logger     *slog.Logger
}

// NewReviewHandler creates a handler wired to the lifecycle engine.
func NewReviewHandler(engine *lifecycle.Engine, auditLedger *ledger.Ledger, dispatcher core.AssignmentDispatcher, sweeper *jobs.Sweeper, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		engine:     engine,
		ledger:     auditLedger,
		dispatcher: dispatcher,
		sweeper:    sweeper,
		logger:     logger,
	}
}

type createRequest struct {
	SubjectID string        `json:"subjectId"`
	Priority  core.Priority `json:"priority"`
}

// Create registers a new review and queues it for auto-assignment.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.SubjectID == "" {
		h.writeError(w, &core.ValidationError{Errors: []string{"Missing required field: subjectId"}})
		return
	}

	review, err := h.engine.Create(r.Context(), req.SubjectID, req.Priority)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), review.ID); err != nil {
		// Assignment is queued work; the review exists either way and the
		// next sweep pass will pick it up.
		h.logger.Warn("could not queue review for assignment", "review_id", review.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, review)
}

type assignRequest struct {
	ModeratorID string `json:"moderatorId"`
}

// Assign hands the review to the requested moderator.
func (h *ReviewHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.Assign(r.Context(), chi.URLParam(r, "reviewID"), req.ModeratorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Start moves the review to IN_PROGRESS.
func (h *ReviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.engine.Start(r.Context(), chi.URLParam(r, "reviewID"), req.ModeratorID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	ModeratorID string        `json:"moderatorId"`
	Decision    core.Decision `json:"decision"`
}

// Complete validates and records the moderator's decision.
func (h *ReviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.Complete(r.Context(), chi.URLParam(r, "reviewID"), req.ModeratorID, &req.Decision)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel terminally cancels the review.
func (h *ReviewHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.engine.Cancel(r.Context(), chi.URLParam(r, "reviewID"), req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status returns the review's current status and audit history.
func (h *ReviewHandler) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.GetReviewStatus(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VerifyChain replays the subject's audit chain and returns the verdict.
func (h *ReviewHandler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	verdict, err := h.ledger.VerifyChain(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// Sweep triggers one timeout sweep pass outside the cron schedule.
func (h *ReviewHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &core.ValidationError{Errors: []string{fmt.Sprintf("Invalid type for field: %s", typeErr.Field)}}
		}
		return &core.ValidationError{Errors: []string{"Malformed JSON body"}}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error     string   `json:"error"`
	Detail    string   `json:"detail,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// writeError maps the engine's error taxonomy onto HTTP status codes. Every
// response is a definite outcome; conflicts are marked retryable because the
// losing caller can safely re-read and retry against the new state.
func (h *ReviewHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *core.ValidationError
		stateErr      *core.InvalidStateError
		depErr        *core.DependencyError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:    "validation_failed",
			Errors:   validationErr.Errors,
			Warnings: validationErr.Warnings,
		})
	case errors.As(err, &stateErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:  "invalid_state",
			Detail: stateErr.Error(),
		})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	case errors.Is(err, core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, core.ErrModeratorUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:  "moderator_unavailable",
			Detail: err.Error(),
		})
	case errors.Is(err, core.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:     "conflict",
			Detail:    err.Error(),
			Retryable: true,
		})
	case errors.As(err, &depErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:  "dependency_failure",
			Detail: depErr.Error(),
		})
	default:
		h.logger.Error("unhandled error in review handler", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	lifecycleerrors "bountyfi/contexts/verification/submission-lifecycle/domain/errors"
	lifecyclehttp "bountyfi/contexts/verification/submission-lifecycle/transport/http"
)

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	submitterID := r.Header.Get("X-User-Id")
	if submitterID == "" {
		writeLifecycleError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req lifecyclehttp.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLifecycleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	resp, err := s.lifecycle.Handler.CreateSubmissionHandler(r.Context(), submitterID, idempotencyKey, req)
	if err != nil {
		writeLifecycleDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lifecycle.Handler.GetSubmissionHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeLifecycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordScore(w http.ResponseWriter, r *http.Request) {
	var req lifecyclehttp.RecordScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLifecycleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.lifecycle.Handler.RecordScoreHandler(r.Context(), r.PathValue("submission_id"), req)
	if err != nil {
		writeLifecycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAnomalies(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLifecycleError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.lifecycle.Handler.ListAnomaliesHandler(r.Context(), limit)
	if err != nil {
		writeLifecycleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLifecycleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycleerrors.ErrSubmissionNotFound):
		writeLifecycleError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, lifecycleerrors.ErrInvalidSubmissionInput),
		errors.Is(err, lifecycleerrors.ErrInvalidConfidence),
		errors.Is(err, lifecycleerrors.ErrIdempotencyKeyRequired):
		writeLifecycleError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, lifecycleerrors.ErrAlreadyScored),
		errors.Is(err, lifecycleerrors.ErrInvalidStateTransition),
		errors.Is(err, lifecycleerrors.ErrIdempotencyConflict),
		errors.Is(err, lifecycleerrors.ErrSettlementConflict):
		writeLifecycleError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeLifecycleError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLifecycleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, lifecyclehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

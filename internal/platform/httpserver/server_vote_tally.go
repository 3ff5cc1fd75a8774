package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	tallyerrors "bountyfi/contexts/verification/vote-tally/domain/errors"
	tallyhttp "bountyfi/contexts/verification/vote-tally/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	validatorID := r.Header.Get("X-User-Id")
	if validatorID == "" {
		writeTallyError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req tallyhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTallyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.tally.Handler.CastVoteHandler(r.Context(), r.PathValue("submission_id"), validatorID, req)
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.ListVotesHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetValidatorStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tally.Handler.GetValidatorStatsHandler(r.Context(), r.PathValue("validator_id"))
	if err != nil {
		writeTallyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTallyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tallyerrors.ErrInvalidVoteInput):
		writeTallyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, tallyerrors.ErrVoteNotFound),
		errors.Is(err, tallyerrors.ErrSubmissionNotFound):
		writeTallyError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, tallyerrors.ErrCollusion):
		writeTallyError(w, http.StatusForbidden, "collusion", err.Error())
	case errors.Is(err, tallyerrors.ErrDuplicateVote),
		errors.Is(err, tallyerrors.ErrAlreadyDecided):
		writeTallyError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, tallyerrors.ErrInvalidState):
		writeTallyError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	default:
		writeTallyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTallyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, tallyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	reconcilererrors "bountyfi/contexts/settlement/reconciler/domain/errors"
	reconcilerhttp "bountyfi/contexts/settlement/reconciler/transport/http"
)

func (s *Server) handleLogClaim(w http.ResponseWriter, r *http.Request) {
	var req reconcilerhttp.LogClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReconcilerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.reconciler.Handler.LogClaimHandler(r.Context(), req)
	if err != nil {
		writeReconcilerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDraw(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reconciler.Handler.GetDrawHandler(r.Context(), r.PathValue("draw_id"))
	if err != nil {
		writeReconcilerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPendingDraws(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeReconcilerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.reconciler.Handler.ListPendingDrawsHandler(r.Context(), limit)
	if err != nil {
		writeReconcilerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedeemPrize(w http.ResponseWriter, r *http.Request) {
	var req reconcilerhttp.RedeemPrizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReconcilerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.reconciler.Handler.RedeemPrizeHandler(r.Context(), r.PathValue("draw_id"), req)
	if err != nil {
		writeReconcilerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeReconcilerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcilererrors.ErrDrawNotFound):
		writeReconcilerError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, reconcilererrors.ErrInvalidDrawInput):
		writeReconcilerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, reconcilererrors.ErrDuplicateDraw),
		errors.Is(err, reconcilererrors.ErrAlreadyRedeemed),
		errors.Is(err, reconcilererrors.ErrInvalidDrawTransition):
		writeReconcilerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, reconcilererrors.ErrDrawNotWon):
		writeReconcilerError(w, http.StatusUnprocessableEntity, "draw_not_won", err.Error())
	case errors.Is(err, reconcilererrors.ErrInvalidRedemptionCode):
		writeReconcilerError(w, http.StatusForbidden, "invalid_redemption_code", err.Error())
	default:
		writeReconcilerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReconcilerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reconcilerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

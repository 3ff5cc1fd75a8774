package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	lotteryerrors "bountyfi/contexts/settlement/lottery/domain/errors"
	lotteryhttp "bountyfi/contexts/settlement/lottery/transport/http"
)

func (s *Server) handleGrantTickets(w http.ResponseWriter, r *http.Request) {
	var req lotteryhttp.GrantTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLotteryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.lottery.Handler.GrantTicketsHandler(r.Context(), r.PathValue("campaign_id"), req)
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTicketTotals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lottery.Handler.ListTicketTotalsHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestDraw(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lottery.Handler.RequestDrawHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetLotteryCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lottery.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeLotteryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLotteryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lotteryerrors.ErrCampaignNotFound):
		writeLotteryError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, lotteryerrors.ErrInvalidLotteryInput):
		writeLotteryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, lotteryerrors.ErrNoParticipants),
		errors.Is(err, lotteryerrors.ErrIdentifierMappingMissing):
		writeLotteryError(w, http.StatusUnprocessableEntity, "not_drawable", err.Error())
	case errors.Is(err, lotteryerrors.ErrDrawAlreadyRequested):
		writeLotteryError(w, http.StatusConflict, "draw_already_requested", err.Error())
	case errors.Is(err, lotteryerrors.ErrDrawOutcomeUnknown):
		// The transaction went out; the caller must reconcile against the
		// ledger before retrying.
		writeLotteryError(w, http.StatusBadGateway, "draw_outcome_unknown", err.Error())
	default:
		writeLotteryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLotteryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, lotteryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

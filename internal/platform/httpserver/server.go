package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	lottery "bountyfi/contexts/settlement/lottery"
	reconciler "bountyfi/contexts/settlement/reconciler"
	submissionlifecycle "bountyfi/contexts/verification/submission-lifecycle"
	votetally "bountyfi/contexts/verification/vote-tally"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "bountyfi/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	lifecycle  submissionlifecycle.Module
	tally      votetally.Module
	reconciler reconciler.Module
	lottery    lottery.Module
}

func New(
	lifecycleModule submissionlifecycle.Module,
	tallyModule votetally.Module,
	reconcilerModule reconciler.Module,
	lotteryModule lottery.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		lifecycle:  lifecycleModule,
		tally:      tallyModule,
		reconciler: reconcilerModule,
		lottery:    lotteryModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/submissions", s.handleCreateSubmission)
	s.mux.HandleFunc("GET /v1/submissions/{submission_id}", s.handleGetSubmission)
	s.mux.HandleFunc("POST /v1/submissions/{submission_id}/score", s.handleRecordScore)
	s.mux.HandleFunc("GET /v1/calibration/anomalies", s.handleListAnomalies)

	s.mux.HandleFunc("POST /v1/submissions/{submission_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/submissions/{submission_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("GET /v1/validators/{validator_id}/stats", s.handleGetValidatorStats)

	s.mux.HandleFunc("POST /v1/draws", s.handleLogClaim)
	s.mux.HandleFunc("GET /v1/draws/{draw_id}", s.handleGetDraw)
	s.mux.HandleFunc("GET /v1/draws", s.handleListPendingDraws)
	s.mux.HandleFunc("POST /v1/draws/{draw_id}/redeem", s.handleRedeemPrize)

	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/tickets", s.handleGrantTickets)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/tickets", s.handleListTicketTotals)
	s.mux.HandleFunc("POST /v1/campaigns/{campaign_id}/draw", s.handleRequestDraw)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/lottery", s.handleGetLotteryCampaign)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

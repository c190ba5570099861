package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	notificationservice "greenloop/contexts/engagement/notification-service"
	rewardledger "greenloop/contexts/engagement/reward-ledger"
	scoringengine "greenloop/contexts/engagement/scoring-engine"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "greenloop/internal/platform/httpserver/docs"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	scoring       scoringengine.Module
	rewards       rewardledger.Module
	notifications notificationservice.Module
}

func New(
	scoring scoringengine.Module,
	rewards rewardledger.Module,
	notifications notificationservice.Module,
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
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		scoring:       scoring,
		rewards:       rewards,
		notifications: notifications,
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
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /api/engagement/v1/actions", s.handleRecordAction)
	s.mux.HandleFunc("POST /api/engagement/v1/bills", s.handleRecordBill)
	s.mux.HandleFunc("GET /api/engagement/v1/bills", s.handleListBills)
	s.mux.HandleFunc("GET /api/engagement/v1/users/{user_id}/standing", s.handleGetStanding)
	s.mux.HandleFunc("GET /api/engagement/v1/users/{user_id}/footprint", s.handleGetFootprint)
	s.mux.HandleFunc("GET /api/engagement/v1/leaderboard", s.handleGetLeaderboard)

	s.mux.HandleFunc("GET /api/rewards/v1/rewards", s.handleListRewards)
	s.mux.HandleFunc("POST /api/rewards/v1/rewards", s.handleCreateReward)
	s.mux.HandleFunc("POST /api/rewards/v1/rewards/{reward_id}/stock", s.handleUpdateStock)
	s.mux.HandleFunc("POST /api/rewards/v1/redeem", s.handleRedeem)
	s.mux.HandleFunc("GET /api/rewards/v1/receipts", s.handleListReceipts)
	s.mux.HandleFunc("GET /api/rewards/v1/users/{user_id}/progress", s.handleGetProgress)

	s.mux.HandleFunc("GET /api/notifications/v1/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /api/notifications/v1/notifications/{notification_id}/read", s.handleMarkNotificationRead)
	s.mux.HandleFunc("POST /api/notifications/v1/notifications/read-all", s.handleMarkAllNotificationsRead)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

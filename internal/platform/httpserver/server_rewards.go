package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	rewarderrors "greenloop/contexts/engagement/reward-ledger/domain/errors"
	rewardhttp "greenloop/contexts/engagement/reward-ledger/transport/http"
)

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.ListRewardsHandler(r.Context(), r.Header.Get("X-User-Id"))
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.Header.Get("X-Admin-Id")) == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req rewardhttp.CreateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.CreateRewardHandler(r.Context(), req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.Header.Get("X-Admin-Id")) == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req rewardhttp.UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.UpdateStockHandler(r.Context(), r.PathValue("reward_id"), req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req rewardhttp.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.RedeemHandler(r.Context(), r.Header.Get("Idempotency-Key"), userID, req)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeRewardError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	limit, ok := parseLimit(w, r.URL.Query().Get("limit"), writeRewardError)
	if !ok {
		return
	}

	resp, err := s.rewards.Handler.ListReceiptsHandler(r.Context(), userID, limit)
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.GetProgressHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeRewardDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRewardDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rewarderrors.ErrInvalidReward):
		writeRewardError(w, http.StatusUnprocessableEntity, "invalid_reward", err.Error())
	case errors.Is(err, rewarderrors.ErrInvalidRequest):
		writeRewardError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rewarderrors.ErrRewardNotFound),
		errors.Is(err, rewarderrors.ErrUserNotFound):
		writeRewardError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, rewarderrors.ErrInsufficientPoints):
		writeRewardError(w, http.StatusConflict, "insufficient_points", err.Error())
	case errors.Is(err, rewarderrors.ErrOutOfStock):
		writeRewardError(w, http.StatusConflict, "out_of_stock", err.Error())
	default:
		writeRewardError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRewardError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rewardhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

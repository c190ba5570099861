package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	scoringerrors "greenloop/contexts/engagement/scoring-engine/domain/errors"
	scoringhttp "greenloop/contexts/engagement/scoring-engine/transport/http"
)

func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	var req scoringhttp.RecordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScoringError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = r.Header.Get("X-User-Id")
	}

	resp, err := s.scoring.Handler.RecordActionHandler(r.Context(), req)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordBill(w http.ResponseWriter, r *http.Request) {
	var req scoringhttp.RecordBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScoringError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = r.Header.Get("X-User-Id")
	}
	if strings.TrimSpace(req.EntryID) == "" {
		req.EntryID = r.Header.Get("Idempotency-Key")
	}

	resp, err := s.scoring.Handler.RecordBillHandler(r.Context(), req)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeScoringError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	query := r.URL.Query()
	limit, ok := parseLimit(w, query.Get("limit"), writeScoringError)
	if !ok {
		return
	}

	resp, err := s.scoring.Handler.ListBillsHandler(r.Context(), userID, query.Get("utility"), limit)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStanding(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scoring.Handler.GetStandingHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFootprint(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scoring.Handler.GetFootprintHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, ok := parseLimit(w, query.Get("limit"), writeScoringError)
	if !ok {
		return
	}

	resp, err := s.scoring.Handler.GetLeaderboardHandler(r.Context(), query.Get("metric"), limit)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeScoringDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoringerrors.ErrUnknownAction):
		writeScoringError(w, http.StatusUnprocessableEntity, "unknown_action", err.Error())
	case errors.Is(err, scoringerrors.ErrUnknownUtility):
		writeScoringError(w, http.StatusUnprocessableEntity, "unknown_utility", err.Error())
	case errors.Is(err, scoringerrors.ErrUnknownMetric):
		writeScoringError(w, http.StatusUnprocessableEntity, "unknown_metric", err.Error())
	case errors.Is(err, scoringerrors.ErrInvalidQuantity):
		writeScoringError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, scoringerrors.ErrInvalidRequest):
		writeScoringError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scoringerrors.ErrUserNotFound):
		writeScoringError(w, http.StatusNotFound, "user_not_found", err.Error())
	default:
		writeScoringError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeScoringError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, scoringhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func parseLimit(w http.ResponseWriter, raw string, writeError func(http.ResponseWriter, int, string, string)) (int, bool) {
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return 0, false
	}
	return limit, true
}

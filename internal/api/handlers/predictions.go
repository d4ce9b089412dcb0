package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

// PredictionHandler handles prediction API endpoints
// ⭐ SSOT: 예측 조회 API 핸들러는 이 구조체에서만
type PredictionHandler struct {
	repo   *predictions.Repository
	logger *logger.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(repo *predictions.Repository, log *logger.Logger) *PredictionHandler {
	return &PredictionHandler{
		repo:   repo,
		logger: log,
	}
}

// ListPredictions returns all category predictions for a target date
// GET /api/v1/predictions?date=2026-09-02
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetDate := r.URL.Query().Get("date")
	if targetDate == "" {
		// 기본값: 내일
		targetDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", targetDate); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)")
		return
	}

	preds, err := h.repo.ListPredictions(ctx, targetDate)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"target_date": targetDate,
		}).Error("Failed to list predictions")
		respondError(w, http.StatusInternalServerError, "failed to list predictions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"target_date": targetDate,
		"count":       len(preds),
		"predictions": preds,
	})
}

// GetPrediction returns the prediction for a single mid-category
// GET /api/v1/predictions/{mid_code}?date=2026-09-02
func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	midCode := vars["mid_code"]

	if midCode == "" {
		respondError(w, http.StatusBadRequest, "mid_code is required")
		return
	}

	targetDate := r.URL.Query().Get("date")
	if targetDate == "" {
		targetDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", targetDate); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)")
		return
	}

	pred, err := h.repo.GetPrediction(ctx, targetDate, midCode)
	if err != nil {
		if errors.Is(err, predictions.ErrNoPrediction) {
			respondError(w, http.StatusNotFound, "no prediction found")
			return
		}
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"mid_code":    midCode,
			"target_date": targetDate,
		}).Error("Failed to get prediction")
		respondError(w, http.StatusInternalServerError, "failed to get prediction")
		return
	}

	respondJSON(w, http.StatusOK, pred)
}

// ListPerformance returns evaluated prediction performance for a target date
// GET /api/v1/performance?date=2026-09-01
func (h *PredictionHandler) ListPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetDate := r.URL.Query().Get("date")
	if targetDate == "" {
		// 기본값: 어제 (최근 평가 대상일)
		targetDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", targetDate); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)")
		return
	}

	records, err := h.repo.ListPerformance(ctx, targetDate)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"target_date": targetDate,
		}).Error("Failed to list performance")
		respondError(w, http.StatusInternalServerError, "failed to list performance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"target_date": targetDate,
		"count":       len(records),
		"performance": records,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

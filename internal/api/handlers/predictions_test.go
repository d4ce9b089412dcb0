package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/database"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

func newTestHandler(t *testing.T) *PredictionHandler {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "category_predictions_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := predictions.NewRepository(db)
	require.NoError(t, repo.Migrate())

	require.NoError(t, repo.SavePrediction(context.Background(), predictions.CategoryPrediction{
		PredictionDate: "2026-08-20",
		TargetDate:     "2026-08-21",
		MidCode:        "001",
		MidName:        "도시락",
		PredictedSales: 42.5,
	}, []contracts.RecommendedItem{
		{ProductCode: "P1", ProductName: "제육 도시락", Quantity: 20, Reason: contracts.ReasonPercentage},
	}))

	require.NoError(t, repo.UpsertPerformance(context.Background(), predictions.PredictionPerformance{
		EvaluationDate:   "2026-08-22 09:00:00",
		TargetDate:       "2026-08-21",
		MidCode:          "001",
		PredictedSales:   42.5,
		ActualSales:      50,
		ErrorRatePercent: 15,
	}))

	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	return NewPredictionHandler(repo, log)
}

func newTestRouter(h *PredictionHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/predictions", h.ListPredictions).Methods("GET")
	r.HandleFunc("/api/v1/predictions/{mid_code}", h.GetPrediction).Methods("GET")
	r.HandleFunc("/api/v1/performance", h.ListPerformance).Methods("GET")
	return r
}

func TestPredictionHandler_ListPredictions(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest("GET", "/api/v1/predictions?date=2026-08-21", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TargetDate  string                           `json:"target_date"`
		Count       int                              `json:"count"`
		Predictions []predictions.CategoryPrediction `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-08-21", body.TargetDate)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Predictions, 1)
	assert.Equal(t, "001", body.Predictions[0].MidCode)
	assert.Len(t, body.Predictions[0].Items, 1)
}

func TestPredictionHandler_ListPredictions_BadDate(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest("GET", "/api/v1/predictions?date=21-08-2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictionHandler_GetPrediction(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest("GET", "/api/v1/predictions/001?date=2026-08-21", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var pred predictions.CategoryPrediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pred))
	assert.Equal(t, 42.5, pred.PredictedSales)
	require.Len(t, pred.Items, 1)
	assert.Equal(t, 20, pred.Items[0].RecommendedQuantity)
}

func TestPredictionHandler_GetPrediction_NotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest("GET", "/api/v1/predictions/404?date=2026-08-21", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictionHandler_ListPerformance(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest("GET", "/api/v1/performance?date=2026-08-21", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count       int                                 `json:"count"`
		Performance []predictions.PredictionPerformance `json:"performance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 15.0, body.Performance[0].ErrorRatePercent)
}

package brain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhkim-dev/ordersight/internal/predictions"
	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/database"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

// stubWeather 고정값 날씨 프로바이더
type stubWeather struct{}

func (stubWeather) Weather(ctx context.Context, date time.Time) (float64, float64) {
	return 25.0, 0.0
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

// seedStoreDB creates a sales DB file with history for two categories
func seedStoreDB(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "store_0001.db")
	db, err := database.Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Gorm.Exec(`
		CREATE TABLE mid_sales (
			collected_at TEXT,
			mid_code TEXT, mid_name TEXT,
			product_code TEXT, product_name TEXT,
			sales INTEGER, order_cnt INTEGER, purchase INTEGER,
			disposal INTEGER, stock INTEGER, soldout INTEGER,
			weekday INTEGER, month INTEGER, week_of_year INTEGER, is_holiday INTEGER,
			temperature REAL, rainfall REAL
		)`).Error)

	base := time.Now().AddDate(0, 0, -21)
	for day := 0; day < 21; day++ {
		date := base.AddDate(0, 0, day)
		ts := date.Format("2006-01-02") + " 10:00:00"
		weekday := (int(date.Weekday()) + 6) % 7

		categories := []struct {
			mid, name, product, productName string
			sales                           int
		}{
			{"001", "도시락", "P1", "제육 도시락", 15 + weekday*2},
			{"001", "도시락", "P2", "치킨 도시락", 8},
			{"002", "삼각김밥", "P9", "참치 삼각김밥", 12 + weekday},
		}
		for _, c := range categories {
			require.NoError(t, db.Gorm.Exec(`
				INSERT INTO mid_sales
				(collected_at, mid_code, mid_name, product_code, product_name,
				 sales, order_cnt, purchase, disposal, stock, soldout,
				 weekday, month, week_of_year, is_holiday, temperature, rainfall)
				VALUES (?, ?, ?, ?, ?, ?, 0, ?, 1, 25, 0, ?, ?, 34, 0, 25.0, 0.0)`,
				ts, c.mid, c.name, c.product, c.productName,
				c.sales, c.sales+2, weekday, int(date.Month()),
			).Error)
		}
	}

	return path
}

func TestOrchestrator_RunCycle_ColdStart(t *testing.T) {
	dir := t.TempDir()
	salesPath := seedStoreDB(t, dir)

	orch := NewOrchestrator(stubWeather{}, testLogger())

	cfg := CycleConfig{
		Tune:              false,
		ErrorThresholdPct: 10,
		ModelDir:          filepath.Join(dir, "models"),
	}

	result, err := orch.RunCycle(context.Background(), salesPath, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Categories)
	assert.Equal(t, 2, result.Predicted)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Evaluated, "첫 주기에는 어제 예측이 없어 평가할 것이 없음")

	// 예측 DB가 규약 경로에 생성된다
	predsPath := database.PredictionsPathFor(salesPath)
	_, statErr := os.Stat(predsPath)
	require.NoError(t, statErr)

	predsDB, err := database.Open(predsPath)
	require.NoError(t, err)
	defer predsDB.Close()

	repo := predictions.NewRepository(predsDB)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	preds, err := repo.ListPredictions(context.Background(), tomorrow)
	require.NoError(t, err)
	require.Len(t, preds, 2)

	for _, pred := range preds {
		assert.GreaterOrEqual(t, pred.PredictedSales, 0.0)
		assert.NotEmpty(t, pred.Items, "판매 이력이 있는 중분류는 추천 목록이 비지 않는다")
		for _, item := range pred.Items {
			assert.GreaterOrEqual(t, item.RecommendedQuantity, 1)
		}
	}
}

func TestOrchestrator_RunCycle_Rerun_Upserts(t *testing.T) {
	dir := t.TempDir()
	salesPath := seedStoreDB(t, dir)

	orch := NewOrchestrator(stubWeather{}, testLogger())
	cfg := CycleConfig{ErrorThresholdPct: 10, ModelDir: filepath.Join(dir, "models")}

	_, err := orch.RunCycle(context.Background(), salesPath, cfg)
	require.NoError(t, err)
	_, err = orch.RunCycle(context.Background(), salesPath, cfg)
	require.NoError(t, err)

	predsDB, err := database.Open(database.PredictionsPathFor(salesPath))
	require.NoError(t, err)
	defer predsDB.Close()

	repo := predictions.NewRepository(predsDB)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	preds, err := repo.ListPredictions(context.Background(), tomorrow)
	require.NoError(t, err)
	assert.Len(t, preds, 2, "재실행은 업서트라 행이 늘지 않는다")
}

func TestOrchestrator_RunCycle_MissingSalesDB(t *testing.T) {
	orch := NewOrchestrator(stubWeather{}, testLogger())

	_, err := orch.RunCycle(context.Background(), filepath.Join(t.TempDir(), "missing.db"), CycleConfig{ErrorThresholdPct: 10})
	assert.Error(t, err)
}

func TestOrchestrator_RunAll_ContinuesOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := seedStoreDB(t, dir)
	bad := filepath.Join(dir, "missing.db")

	orch := NewOrchestrator(stubWeather{}, testLogger())
	cfg := CycleConfig{ErrorThresholdPct: 10, ModelDir: filepath.Join(dir, "models")}

	results := orch.RunAll(context.Background(), []string{bad, good}, cfg)
	require.Len(t, results, 2)

	assert.Equal(t, 1, results[0].Failed, "실패한 DB는 실패로 기록")
	assert.Equal(t, 2, results[1].Predicted, "다음 DB는 정상 처리")
}

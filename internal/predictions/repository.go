package predictions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/pkg/database"
)

// ErrNoPrediction 기록된 예측이 없음
var ErrNoPrediction = errors.New("no recorded prediction")

// Repository 예측 DB 저장소 (이 시스템이 소유)
type Repository struct {
	db *database.DB
}

// NewRepository 새 저장소 생성
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the owned schema
func (r *Repository) Migrate() error {
	if err := r.db.Gorm.AutoMigrate(
		&CategoryPrediction{},
		&CategoryPredictionItem{},
		&PredictionPerformance{},
	); err != nil {
		return fmt.Errorf("migrate predictions schema: %w", err)
	}
	return nil
}

// SavePrediction upserts a category prediction and replaces its items in a
// single transaction.
// 부모 없는 자식이나 옛 자식이 보이는 순간이 없어야 함
func (r *Repository) SavePrediction(ctx context.Context, pred CategoryPrediction, items []contracts.RecommendedItem) error {
	return r.db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "target_date"}, {Name: "mid_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"prediction_date", "mid_name", "predicted_sales",
			}),
		}).Create(&pred).Error; err != nil {
			return fmt.Errorf("upsert prediction %s/%s: %w", pred.TargetDate, pred.MidCode, err)
		}

		// 업서트 경로에 따라 ID가 비어 있을 수 있으므로 다시 조회
		var saved CategoryPrediction
		if err := tx.
			Where("target_date = ? AND mid_code = ?", pred.TargetDate, pred.MidCode).
			First(&saved).Error; err != nil {
			return fmt.Errorf("reload prediction %s/%s: %w", pred.TargetDate, pred.MidCode, err)
		}

		if err := tx.
			Where("prediction_id = ?", saved.ID).
			Delete(&CategoryPredictionItem{}).Error; err != nil {
			return fmt.Errorf("delete stale items: %w", err)
		}

		for _, item := range items {
			row := CategoryPredictionItem{
				PredictionID:        saved.ID,
				ProductCode:         item.ProductCode,
				ProductName:         item.ProductName,
				RecommendedQuantity: item.Quantity,
				StockoutRate:        item.StockoutRate,
				Reason:              item.Reason,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert item %s: %w", item.ProductCode, err)
			}
		}

		return nil
	})
}

// GetPrediction returns the prediction recorded for (targetDate, midCode)
func (r *Repository) GetPrediction(ctx context.Context, targetDate, midCode string) (*CategoryPrediction, error) {
	var pred CategoryPrediction
	err := r.db.Gorm.WithContext(ctx).
		Preload("Items").
		Where("target_date = ? AND mid_code = ?", targetDate, midCode).
		First(&pred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPrediction
	}
	if err != nil {
		return nil, fmt.Errorf("query prediction %s/%s: %w", targetDate, midCode, err)
	}

	return &pred, nil
}

// ListPredictions returns all predictions for a target date with items
func (r *Repository) ListPredictions(ctx context.Context, targetDate string) ([]CategoryPrediction, error) {
	var preds []CategoryPrediction
	err := r.db.Gorm.WithContext(ctx).
		Preload("Items").
		Where("target_date = ?", targetDate).
		Order("mid_code").
		Find(&preds).Error
	if err != nil {
		return nil, fmt.Errorf("list predictions for %s: %w", targetDate, err)
	}

	return preds, nil
}

// UpsertPerformance upserts a performance record by (target_date, mid_code)
func (r *Repository) UpsertPerformance(ctx context.Context, rec PredictionPerformance) error {
	err := r.db.Gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "target_date"}, {Name: "mid_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"evaluation_date", "predicted_sales", "actual_sales", "error_rate_percent",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("upsert performance %s/%s: %w", rec.TargetDate, rec.MidCode, err)
	}

	return nil
}

// ListPerformance returns performance records for a target date
func (r *Repository) ListPerformance(ctx context.Context, targetDate string) ([]PredictionPerformance, error) {
	var recs []PredictionPerformance
	err := r.db.Gorm.WithContext(ctx).
		Where("target_date = ?", targetDate).
		Order("mid_code").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list performance for %s: %w", targetDate, err)
	}

	return recs, nil
}

// meanErrorRow GetRecentMeanError 스캔용
type meanErrorRow struct {
	MeanError float64 `json:"mean_error"`
	RowCount  int     `json:"row_count"`
}

// GetRecentMeanError returns the mean error_rate_percent over the last N
// days of performance records for a category.
// found=false면 최근 실적 기록이 전혀 없음 (콜드 스타트)
func (r *Repository) GetRecentMeanError(ctx context.Context, midCode string, asOf time.Time, days int) (float64, bool, error) {
	query := `
		SELECT
			COALESCE(AVG(error_rate_percent), 0) AS mean_error,
			COUNT(*)                             AS row_count
		FROM prediction_performance
		WHERE mid_code = ?
		  AND target_date > date(?, ?)
		  AND target_date <= date(?)`

	asOfStr := asOf.Format("2006-01-02")
	offset := fmt.Sprintf("-%d day", days)

	var row meanErrorRow
	if err := r.db.Gorm.WithContext(ctx).
		Raw(query, midCode, asOfStr, offset, asOfStr).
		Scan(&row).Error; err != nil {
		return 0, false, fmt.Errorf("query recent mean error for %s: %w", midCode, err)
	}

	return row.MeanError, row.RowCount > 0, nil
}

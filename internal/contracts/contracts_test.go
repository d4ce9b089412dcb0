package contracts

import (
	"testing"
	"time"
)

func TestFeatureRow_Vector(t *testing.T) {
	row := FeatureRow{
		Date:          time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		MidCode:       "001",
		Weekday:       3,
		Month:         8,
		WeekOfYear:    34,
		IsHoliday:     HolidayWorkday,
		Temperature:   27.5,
		Rainfall:      1.5,
		TotalSales:    42,
		TotalPurchase: 50,
		TotalDisposal: 3,
		TotalSoldout:  2,
		TotalStock:    120,
		DisposalRatio: 0.066,
		DemandGap:     8,
		ShelfLifeDays: 1,
	}

	vec := row.Vector()
	if len(vec) != NumFeatures {
		t.Fatalf("Vector() length = %d, want %d", len(vec), NumFeatures)
	}

	// 순서는 모델 블롭과의 계약
	want := []float64{3, 8, 34, 0, 27.5, 1.5, 120, 2, 50, 3, 0.066, 8, 1}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("Vector()[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestFeatureRow_TrueDemand(t *testing.T) {
	row := FeatureRow{TotalSales: 42, TotalDisposal: 3}
	if got := row.TrueDemand(); got != 45 {
		t.Errorf("TrueDemand() = %v, want 45", got)
	}
}

func TestShelfLifeFor(t *testing.T) {
	tests := []struct {
		name    string
		midCode string
		want    float64
	}{
		{"도시락", "001", 1},
		{"김밥", "003", 2},
		{"과자", "010", 90},
		{"unknown category", "999", DefaultShelfLifeDays},
		{"empty code", "", DefaultShelfLifeDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShelfLifeFor(tt.midCode); got != tt.want {
				t.Errorf("ShelfLifeFor(%q) = %v, want %v", tt.midCode, got, tt.want)
			}
		})
	}
}

func TestDefaultTrainParams(t *testing.T) {
	params := DefaultTrainParams()

	if params.NEstimators != 100 {
		t.Errorf("NEstimators = %d, want 100", params.NEstimators)
	}
	if params.LearningRate != 0.1 {
		t.Errorf("LearningRate = %v, want 0.1", params.LearningRate)
	}
	if params.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", params.MaxDepth)
	}
	if params.Seed != 42 {
		t.Errorf("Seed = %d, want 42", params.Seed)
	}
}

func TestDefaultTuneSearchSpace(t *testing.T) {
	space := DefaultTuneSearchSpace()

	if space.Trials != 50 {
		t.Errorf("Trials = %d, want 50", space.Trials)
	}
	if space.LearningRateMin >= space.LearningRateMax {
		t.Errorf("learning rate range inverted: [%v, %v]", space.LearningRateMin, space.LearningRateMax)
	}
	if space.MaxDepthMin >= space.MaxDepthMax {
		t.Errorf("max depth range inverted: [%d, %d]", space.MaxDepthMin, space.MaxDepthMax)
	}
}

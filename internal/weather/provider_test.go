package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/httputil"
	"github.com/dhkim-dev/ordersight/pkg/logger"
)

func TestParseRainfall(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"강수없음", "강수없음", 0},
		{"empty", "", 0},
		{"dash", "-", 0},
		{"plain number", "1.5", 1.5},
		{"mm suffix", "12.0mm", 12.0},
		{"mm suffix with space", "3.5 mm", 3.5},
		{"whitespace", "  2.0  ", 2.0},
		{"garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRainfall(tt.input); got != tt.want {
				t.Errorf("ParseRainfall(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func newTestProvider(t *testing.T, kma config.KMAConfig, forecastFile string, now time.Time) *Provider {
	t.Helper()

	log := zerolog.Nop()
	appLog := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	httpClient := httputil.NewWithTimeout(appLog, 5*time.Second).DisableRetry()

	p := NewProvider(httpClient, kma, forecastFile, log)
	p.now = func() time.Time { return now }
	return p
}

func TestWeather_TomorrowFromForecastFile(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)
	tomorrow := now.AddDate(0, 0, 1)

	dir := t.TempDir()
	file := filepath.Join(dir, "weather_forecast.json")

	payload := forecastPayload{
		TargetDate:  tomorrow.Format("2006-01-02"),
		Temperature: 28.3,
		Rainfall:    4.5,
		UpdatedAt:   now.Format(time.RFC3339),
	}
	data, _ := json.Marshal(payload)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestProvider(t, config.KMAConfig{}, file, now)

	temp, rain := p.Weather(context.Background(), tomorrow)
	if temp != 28.3 || rain != 4.5 {
		t.Errorf("Weather(tomorrow) = (%v, %v), want (28.3, 4.5)", temp, rain)
	}
}

func TestWeather_StaleForecastFileDefaultsToZero(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)
	tomorrow := now.AddDate(0, 0, 1)

	dir := t.TempDir()
	file := filepath.Join(dir, "weather_forecast.json")

	// 어제 대상 파일: 갱신이 안 된 상태
	payload := forecastPayload{
		TargetDate:  now.AddDate(0, 0, -1).Format("2006-01-02"),
		Temperature: 30.0,
		Rainfall:    0,
	}
	data, _ := json.Marshal(payload)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestProvider(t, config.KMAConfig{}, file, now)

	temp, rain := p.Weather(context.Background(), tomorrow)
	if temp != 0 || rain != 0 {
		t.Errorf("stale forecast file should give (0, 0), got (%v, %v)", temp, rain)
	}
}

func TestWeather_MissingForecastFileDefaultsToZero(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)
	tomorrow := now.AddDate(0, 0, 1)

	p := newTestProvider(t, config.KMAConfig{}, filepath.Join(t.TempDir(), "missing.json"), now)

	temp, rain := p.Weather(context.Background(), tomorrow)
	if temp != 0 || rain != 0 {
		t.Errorf("missing forecast file should give (0, 0), got (%v, %v)", temp, rain)
	}
}

func TestWeather_TodayNowcast(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("base_time"); got != "1500" {
			t.Errorf("base_time = %q, want 1500 (직전 정시)", got)
		}
		if got := r.URL.Query().Get("base_date"); got != "20260820" {
			t.Errorf("base_date = %q, want 20260820", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"response": {
				"body": {
					"items": {
						"item": [
							{"category": "T1H", "obsrValue": "23.5"},
							{"category": "RN1", "obsrValue": "강수없음"},
							{"category": "REH", "obsrValue": "80"}
						]
					}
				}
			}
		}`))
	}))
	defer server.Close()

	kma := config.KMAConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		GridNX:  60,
		GridNY:  127,
	}

	p := newTestProvider(t, kma, "", now)

	temp, rain := p.Weather(context.Background(), now)
	if temp != 23.5 {
		t.Errorf("temperature = %v, want 23.5", temp)
	}
	if rain != 0 {
		t.Errorf("rainfall = %v, want 0 (강수없음)", rain)
	}
}

func TestWeather_TodayWithoutAPIKeyDefaultsToZero(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)

	p := newTestProvider(t, config.KMAConfig{}, "", now)

	temp, rain := p.Weather(context.Background(), now)
	if temp != 0 || rain != 0 {
		t.Errorf("missing API key should give (0, 0), got (%v, %v)", temp, rain)
	}
}

func TestWeather_PastDateDefaultsToZero(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 30, 0, 0, time.Local)

	p := newTestProvider(t, config.KMAConfig{APIKey: "key", BaseURL: "http://unreachable.invalid"}, "", now)

	temp, rain := p.Weather(context.Background(), now.AddDate(0, 0, -3))
	if temp != 0 || rain != 0 {
		t.Errorf("past date should give (0, 0), got (%v, %v)", temp, rain)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (serve 모드)
	Port string
	Env  string // development, staging, production

	// Model lifecycle
	Model ModelConfig

	// External APIs
	KMA KMAConfig

	// Weather forecast file (수집기가 미리 받아둔 단기예보)
	ForecastFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// ModelConfig holds model lifecycle configuration
type ModelConfig struct {
	Dir               string  // 모델 블롭 저장 디렉토리
	ErrorThresholdPct float64 // 튜닝 트리거 임계값 (최근 7일 평균 오차율 %)
}

// KMAConfig holds KMA (기상청) open API configuration
type KMAConfig struct {
	APIKey  string
	BaseURL string
	GridNX  int // 기상청 격자 좌표 X
	GridNY  int // 기상청 격자 좌표 Y
	Timeout time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8097"),
		Env:  getEnv("ENV", "development"),

		Model: ModelConfig{
			Dir:               getEnv("MODEL_DIR", "models"),
			ErrorThresholdPct: getEnvAsFloat("ERROR_THRESHOLD_PCT", 10.0),
		},

		KMA: KMAConfig{
			APIKey:  getEnv("KMA_API_KEY", ""),
			BaseURL: getEnv("KMA_BASE_URL", "https://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"),
			GridNX:  getEnvAsInt("WEATHER_GRID_NX", 60),
			GridNY:  getEnvAsInt("WEATHER_GRID_NY", 127),
			Timeout: getEnvAsDuration("KMA_TIMEOUT", "15s"),
		},

		ForecastFile: getEnv("FORECAST_FILE", "weather_forecast.json"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are sane
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Model.ErrorThresholdPct <= 0 {
		return fmt.Errorf("ERROR_THRESHOLD_PCT must be positive")
	}

	// KMA_API_KEY는 선택: 없으면 날씨 피처가 (0,0)으로 수렴할 뿐 실패하지 않음

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

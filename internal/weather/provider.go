package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/pkg/config"
	"github.com/dhkim-dev/ordersight/pkg/httputil"
)

// Provider resolves weather features for a date
// ⭐ SSOT: 기상청 API 호출은 이 프로바이더에서만
//
// 해석 순서:
//  1. 내일 날짜 → 미리 받아둔 단기예보 파일
//  2. 오늘 날짜 → 초단기실황 (직전 정시 기준)
//  3. 그 외 날짜 → (0, 0)
//
// 네트워크 오류, 키 누락, 파싱 실패는 전부 (0, 0)으로 수렴하고 호출자를 실패시키지 않음
type Provider struct {
	httpClient   *httputil.Client
	cfg          config.KMAConfig
	forecastFile string
	log          zerolog.Logger

	// now is overridable for tests
	now func() time.Time
}

// NewProvider creates a new weather provider
func NewProvider(httpClient *httputil.Client, cfg config.KMAConfig, forecastFile string, log zerolog.Logger) *Provider {
	return &Provider{
		httpClient:   httpClient,
		cfg:          cfg,
		forecastFile: forecastFile,
		log:          log.With().Str("component", "weather.provider").Logger(),
		now:          time.Now,
	}
}

// Weather returns (temperature °C, rainfall mm) for the date
func (p *Provider) Weather(ctx context.Context, date time.Time) (float64, float64) {
	today := p.now().Format("2006-01-02")
	tomorrow := p.now().AddDate(0, 0, 1).Format("2006-01-02")
	target := date.Format("2006-01-02")

	switch target {
	case tomorrow:
		if temp, rain, ok := p.readForecastFile(target); ok {
			return temp, rain
		}
		return 0.0, 0.0
	case today:
		return p.nowcast(ctx)
	default:
		// 과거 날짜 날씨는 수집 시점 값만 유효. 상류가 백필하지 않으므로 0으로 근사
		return 0.0, 0.0
	}
}

// forecastPayload 수집기가 떨궈 놓는 단기예보 파일 포맷
type forecastPayload struct {
	TargetDate  string  `json:"target_date"`
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	UpdatedAt   string  `json:"updated_at"`
}

// readForecastFile reads the pre-fetched short-term forecast when its
// target_date matches
func (p *Provider) readForecastFile(targetDate string) (float64, float64, bool) {
	data, err := os.ReadFile(p.forecastFile)
	if err != nil {
		p.log.Warn().Err(err).Str("file", p.forecastFile).Msg("forecast file not readable")
		return 0, 0, false
	}

	var payload forecastPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		p.log.Warn().Err(err).Str("file", p.forecastFile).Msg("forecast file not parseable")
		return 0, 0, false
	}

	if payload.TargetDate != targetDate {
		p.log.Warn().
			Str("want", targetDate).
			Str("got", payload.TargetDate).
			Msg("forecast file is stale")
		return 0, 0, false
	}

	return payload.Temperature, payload.Rainfall, true
}

// ncstResponse 초단기실황 응답 (필요한 필드만)
type ncstResponse struct {
	Response struct {
		Body struct {
			Items struct {
				Item []ncstItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

type ncstItem struct {
	Category  string `json:"category"`
	ObsrValue string `json:"obsrValue"`
}

// nowcast queries 초단기실황 sampled at the preceding full hour
func (p *Provider) nowcast(ctx context.Context) (float64, float64) {
	if p.cfg.APIKey == "" {
		p.log.Warn().Msg("KMA_API_KEY not set, weather features default to zero")
		return 0.0, 0.0
	}

	base := p.now().Truncate(time.Hour)

	params := url.Values{}
	params.Set("serviceKey", p.cfg.APIKey)
	params.Set("pageNo", "1")
	params.Set("numOfRows", "100")
	params.Set("dataType", "JSON")
	params.Set("base_date", base.Format("20060102"))
	params.Set("base_time", base.Format("1504"))
	params.Set("nx", strconv.Itoa(p.cfg.GridNX))
	params.Set("ny", strconv.Itoa(p.cfg.GridNY))

	fullURL := fmt.Sprintf("%s/getUltraSrtNcst?%s", p.cfg.BaseURL, params.Encode())

	resp, err := p.httpClient.Get(ctx, fullURL)
	if err != nil {
		p.log.Warn().Err(err).Msg("nowcast request failed")
		return 0.0, 0.0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warn().Int("status", resp.StatusCode).Msg("nowcast returned non-200")
		return 0.0, 0.0
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.log.Warn().Err(err).Msg("nowcast body read failed")
		return 0.0, 0.0
	}

	var parsed ncstResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.log.Warn().Err(err).Msg("nowcast payload not parseable")
		return 0.0, 0.0
	}

	var temp, rain float64
	for _, item := range parsed.Response.Body.Items.Item {
		switch item.Category {
		case "T1H": // 기온
			if v, err := strconv.ParseFloat(item.ObsrValue, 64); err == nil {
				temp = v
			}
		case "RN1": // 1시간 강수량
			rain = ParseRainfall(item.ObsrValue)
		}
	}

	p.log.Debug().
		Float64("temperature", temp).
		Float64("rainfall", rain).
		Str("base_time", base.Format("1504")).
		Msg("nowcast resolved")

	return temp, rain
}

// ParseRainfall converts a KMA rainfall string to millimeters.
// "강수없음"은 0, "1.5mm" 같은 단위 접미사는 떼고 파싱
func ParseRainfall(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "강수없음") || s == "-" {
		return 0.0
	}

	s = strings.TrimSuffix(s, "mm")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return v
}

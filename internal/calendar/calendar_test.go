package calendar

import (
	"testing"
	"time"

	"github.com/dhkim-dev/ordersight/internal/contracts"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
}

func TestHolidayClass(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want contracts.HolidayClass
	}{
		{"평일", date(2026, 8, 20), contracts.HolidayWorkday},     // 목요일
		{"토요일", date(2026, 8, 22), contracts.HolidaySaturday},
		{"일요일", date(2026, 8, 23), contracts.HolidayPublic},
		{"광복절", date(2026, 8, 15), contracts.HolidayPublic},     // 토요일이지만 공휴일 우선
		{"신정", date(2026, 1, 1), contracts.HolidayPublic},
		{"성탄절", date(2026, 12, 25), contracts.HolidayPublic},
		{"설날 연휴", date(2026, 2, 17), contracts.HolidayPublic},
		{"추석 연휴", date(2026, 9, 25), contracts.HolidayPublic},
		{"부처님오신날 2025", date(2025, 5, 6), contracts.HolidayPublic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HolidayClass(tt.date); got != tt.want {
				t.Errorf("HolidayClass(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestIsPublicHoliday_UnknownYearFallsBackToFixed(t *testing.T) {
	// 환산표에 없는 해는 양력 고정 공휴일만 인정
	if !IsPublicHoliday(date(2030, 1, 1)) {
		t.Error("2030-01-01 should be a public holiday (신정)")
	}
	if IsPublicHoliday(date(2030, 2, 17)) {
		t.Error("2030-02-17 should not be a public holiday without a lunar table")
	}
}

func TestWeekOfYear(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{date(2026, 1, 1), 1},
		{date(2026, 8, 20), 34},
		{date(2026, 12, 31), 53},
	}

	for _, tt := range tests {
		if got := WeekOfYear(tt.date); got != tt.want {
			t.Errorf("WeekOfYear(%s) = %d, want %d", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

package calendar

import (
	"time"

	"github.com/dhkim-dev/ordersight/internal/contracts"
)

// fixedHolidays 매년 같은 날짜의 공휴일 (월, 일)
var fixedHolidays = map[[2]int]string{
	{1, 1}:   "신정",
	{3, 1}:   "삼일절",
	{5, 5}:   "어린이날",
	{6, 6}:   "현충일",
	{8, 15}:  "광복절",
	{10, 3}:  "개천절",
	{10, 9}:  "한글날",
	{12, 25}: "성탄절",
}

// lunarHolidays 음력 기반 공휴일 (연도별 양력 환산표, 대체공휴일 포함)
// 설날 연휴, 부처님오신날, 추석 연휴
var lunarHolidays = map[int][][2]int{
	2024: {{2, 9}, {2, 10}, {2, 11}, {2, 12}, {5, 15}, {9, 16}, {9, 17}, {9, 18}},
	2025: {{1, 28}, {1, 29}, {1, 30}, {5, 6}, {10, 5}, {10, 6}, {10, 7}, {10, 8}},
	2026: {{2, 16}, {2, 17}, {2, 18}, {5, 25}, {9, 24}, {9, 25}, {9, 26}},
	2027: {{2, 6}, {2, 7}, {2, 8}, {2, 9}, {5, 13}, {9, 14}, {9, 15}, {9, 16}},
}

// HolidayClass 날짜의 휴일 구분을 반환
// 0: 평일, 1: 공휴일(일요일 포함), 2: 토요일
func HolidayClass(date time.Time) contracts.HolidayClass {
	if IsPublicHoliday(date) || date.Weekday() == time.Sunday {
		return contracts.HolidayPublic
	}
	if date.Weekday() == time.Saturday {
		return contracts.HolidaySaturday
	}
	return contracts.HolidayWorkday
}

// IsPublicHoliday reports whether the date is a Korean public holiday.
// 연도별 환산표에 없는 해는 양력 고정 공휴일만 본다
func IsPublicHoliday(date time.Time) bool {
	md := [2]int{int(date.Month()), date.Day()}
	if _, ok := fixedHolidays[md]; ok {
		return true
	}

	for _, h := range lunarHolidays[date.Year()] {
		if h == md {
			return true
		}
	}

	return false
}

// WeekOfYear returns the ISO week number of the date
func WeekOfYear(date time.Time) int {
	_, week := date.ISOWeek()
	return week
}

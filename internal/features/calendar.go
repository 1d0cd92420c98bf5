package features

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

// Date layouts accepted for raw order dates, tried in order.
var orderDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"2/1/2006",
	"2006/01/02",
	time.RFC3339,
}

// ParseOrderDate parses a raw order date string using the accepted layouts.
// An unparsable value is a fatal input error.
func ParseOrderDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, &domain.InvalidDateError{Value: value}
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, &domain.InvalidDateError{Value: value}
}

// CalendarEncoder derives calendar feature vectors from dates. Holiday tables
// are computed on demand per year and memoized.
type CalendarEncoder struct {
	mu       sync.Mutex
	holidays map[int]map[string]string
}

func NewCalendarEncoder() *CalendarEncoder {
	return &CalendarEncoder{holidays: make(map[int]map[string]string)}
}

// Encode computes the full calendar feature vector for a date.
func (e *CalendarEncoder) Encode(date time.Time) domain.CalendarFeatureVector {
	year, month, day := date.Date()
	dow := zeroBasedWeekday(date)

	name, isHoliday := e.holidayFor(date)

	return domain.CalendarFeatureVector{
		Year:           year,
		Month:          int(month),
		Day:            day,
		DayOfWeek:      dow,
		Quarter:        (int(month)-1)/3 + 1,
		IsWeekend:      dow >= 5,
		IsHoliday:      isHoliday,
		HolidayName:    name,
		DayOfWeekSin:   cyclicalSin(float64(dow), 7),
		DayOfWeekCos:   cyclicalCos(float64(dow), 7),
		DayOfMonthSin:  cyclicalSin(float64(day-1), 31),
		DayOfMonthCos:  cyclicalCos(float64(day-1), 31),
		MonthOfYearSin: cyclicalSin(float64(int(month)-1), 12),
		MonthOfYearCos: cyclicalCos(float64(int(month)-1), 12),
	}
}

// HolidayFor reports whether a date is a US federal holiday and its name.
func (e *CalendarEncoder) HolidayFor(date time.Time) (string, bool) {
	return e.holidayFor(date)
}

func (e *CalendarEncoder) holidayFor(date time.Time) (string, bool) {
	year := date.Year()

	e.mu.Lock()
	table, ok := e.holidays[year]
	if !ok {
		table = FederalHolidays(year)
		e.holidays[year] = table
	}
	e.mu.Unlock()

	name, found := table[date.Format("2006-01-02")]
	return name, found
}

// zeroBasedWeekday maps time.Weekday (Sunday=0) to Monday=0 .. Sunday=6.
func zeroBasedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func cyclicalSin(x, period float64) float64 {
	return math.Sin(x * (2 * math.Pi / period))
}

func cyclicalCos(x, period float64) float64 {
	return math.Cos(x * (2 * math.Pi / period))
}

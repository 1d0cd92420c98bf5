package features

import "time"

// FederalHolidays computes the US federal holiday calendar for any year.
// Fixed-date holidays are listed directly; floating holidays are derived from
// their "Nth weekday of month" (or last-weekday) rules, so no year is ever
// baked in as a literal.
func FederalHolidays(year int) map[string]string {
	holidays := map[string]string{
		dateKey(year, time.January, 1):   "New Year's Day",
		dateKey(year, time.June, 19):     "Juneteenth",
		dateKey(year, time.July, 4):      "Independence Day",
		dateKey(year, time.November, 11): "Veterans Day",
		dateKey(year, time.December, 25): "Christmas Day",
	}

	add := func(d time.Time, name string) {
		holidays[d.Format("2006-01-02")] = name
	}

	add(nthWeekday(year, time.January, time.Monday, 3), "Martin Luther King Jr. Day")
	add(nthWeekday(year, time.February, time.Monday, 3), "Presidents' Day")
	add(lastWeekday(year, time.May, time.Monday), "Memorial Day")
	add(nthWeekday(year, time.September, time.Monday, 1), "Labor Day")
	add(nthWeekday(year, time.October, time.Monday, 2), "Columbus Day")
	add(nthWeekday(year, time.November, time.Thursday, 4), "Thanksgiving Day")

	return holidays
}

// nthWeekday returns the nth occurrence (1-based) of a weekday in a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

package rules

import (
	"sort"
	"time"
)

// FederalHolidays returns the eleven federal court holidays for a year.
// Fixed-date holidays carry their observed date (Saturday holidays shift
// to the preceding Friday, Sunday holidays to the following Monday);
// floating holidays always land on a weekday and need no shifting.
// Intended as the default holiday source when a district configures none.
func FederalHolidays(year int) []FederalHoliday {
	holidays := []FederalHoliday{
		observedHoliday(year, time.January, 1, "New Year's Day"),
		{Date: nthWeekdayOfMonth(year, time.January, time.Monday, 3), Name: "Martin Luther King Jr. Day"},
		{Date: nthWeekdayOfMonth(year, time.February, time.Monday, 3), Name: "Presidents' Day"},
		{Date: lastWeekdayOfMonth(year, time.May, time.Monday), Name: "Memorial Day"},
		observedHoliday(year, time.June, 19, "Juneteenth National Independence Day"),
		observedHoliday(year, time.July, 4, "Independence Day"),
		{Date: nthWeekdayOfMonth(year, time.September, time.Monday, 1), Name: "Labor Day"},
		{Date: nthWeekdayOfMonth(year, time.October, time.Monday, 2), Name: "Columbus Day"},
		observedHoliday(year, time.November, 11, "Veterans Day"),
		{Date: nthWeekdayOfMonth(year, time.November, time.Thursday, 4), Name: "Thanksgiving Day"},
		observedHoliday(year, time.December, 25, "Christmas Day"),
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// observedHoliday builds a fixed-date holiday on its observed date.
func observedHoliday(year int, month time.Month, day int, name string) FederalHoliday {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	switch date.Weekday() {
	case time.Saturday:
		date = date.AddDate(0, 0, -1)
	case time.Sunday:
		date = date.AddDate(0, 0, 1)
	}
	return FederalHoliday{Date: date, Name: name}
}

// nthWeekdayOfMonth returns the nth (1-based) occurrence of a weekday in
// a month, e.g. the 3rd Monday of January.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysAhead := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, daysAhead+(n-1)*7)
}

// lastWeekdayOfMonth returns the final occurrence of a weekday in a
// month, e.g. the last Monday of May.
func lastWeekdayOfMonth(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	daysBack := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -daysBack)
}

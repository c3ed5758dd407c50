package rules

import "time"

// Calendar answers business-day questions for one evaluation: weekends
// plus an immutable snapshot of federal holidays. A holiday falling on
// Saturday is also observed the preceding Friday, one falling on Sunday
// the following Monday, so holiday checks consider both the exact date
// and its observed-shift equivalents. An empty holiday list degrades to
// weekend-only exclusion.
type Calendar struct {
	holidays map[time.Time]string
}

// NewCalendar builds a Calendar from a holiday snapshot. Dates are
// normalized to UTC midnight so callers can pass any time-of-day.
func NewCalendar(holidays []FederalHoliday) *Calendar {
	set := make(map[time.Time]string, len(holidays))
	for _, h := range holidays {
		set[Day(h.Date)] = h.Name
	}
	return &Calendar{holidays: set}
}

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether the date is a Saturday or Sunday.
func (c *Calendar) IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date is a federal holiday, either
// directly or as the observed date of a weekend holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	d := Day(date)
	if _, ok := c.holidays[d]; ok {
		return true
	}
	// Friday observes a Saturday holiday
	if d.Weekday() == time.Friday {
		if _, ok := c.holidays[d.AddDate(0, 0, 1)]; ok {
			return true
		}
	}
	// Monday observes a Sunday holiday
	if d.Weekday() == time.Monday {
		if _, ok := c.holidays[d.AddDate(0, 0, -1)]; ok {
			return true
		}
	}
	return false
}

// IsBusinessDay reports whether the date is neither a weekend nor an
// (observed) holiday.
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	return !c.IsWeekend(date) && !c.IsHoliday(date)
}

// NextBusinessDay returns the date itself if it is a business day,
// otherwise the first business day after it.
func (c *Calendar) NextBusinessDay(date time.Time) time.Time {
	current := Day(date)
	for !c.IsBusinessDay(current) {
		current = current.AddDate(0, 0, 1)
	}
	return current
}

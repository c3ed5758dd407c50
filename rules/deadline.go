package rules

import (
	"fmt"
	"strings"
	"time"
)

// ShortPeriodDays is the FRCP 6 threshold at or below which a period
// counts only business days. Longer periods count calendar days.
const ShortPeriodDays = 14

const dateLayout = "2006-01-02"

// ComputeDeadline computes a single compliant due date from a trigger
// date, a period length, and a service method.
//
// The trigger date itself never counts. Short periods (<= 14 days)
// advance one business day at a time, so weekends and holidays consume
// none of the period. Long periods advance plain calendar days. The
// service method's grace days are a separate statutory count appended as
// calendar days after the period, regardless of branch. If the resulting
// date lands on a weekend or holiday it rolls forward to the next
// business day. ComputationNotes records every step of the derivation.
func ComputeDeadline(triggerDate time.Time, periodDays int, method ServiceMethod, holidays []FederalHoliday) (DeadlineResult, error) {
	if periodDays < 0 {
		return DeadlineResult{}, fmt.Errorf("%w: %d", ErrInvalidPeriod, periodDays)
	}

	cal := NewCalendar(holidays)
	trigger := Day(triggerDate)
	isShort := periodDays <= ShortPeriodDays

	var notes []string
	notes = append(notes, fmt.Sprintf("trigger date %s (excluded from count)", trigger.Format(dateLayout)))

	var periodEnd time.Time
	if isShort {
		skipped := 0
		counted := 0
		current := trigger
		for counted < periodDays {
			current = current.AddDate(0, 0, 1)
			if cal.IsBusinessDay(current) {
				counted++
			} else {
				skipped++
			}
		}
		periodEnd = current
		notes = append(notes, fmt.Sprintf(
			"short period of %d days: counted business days only, skipped %d weekend/holiday days, period ends %s",
			periodDays, skipped, periodEnd.Format(dateLayout)))
	} else {
		periodEnd = trigger.AddDate(0, 0, periodDays)
		notes = append(notes, fmt.Sprintf(
			"long period of %d days: counted calendar days, period ends %s",
			periodDays, periodEnd.Format(dateLayout)))
	}

	afterService := periodEnd
	if extra := method.AdditionalDays(); extra > 0 {
		afterService = periodEnd.AddDate(0, 0, extra)
		notes = append(notes, fmt.Sprintf(
			"service method %s: +%d calendar days, moving to %s",
			method, extra, afterService.Format(dateLayout)))
	}

	dueDate := cal.NextBusinessDay(afterService)
	if !dueDate.Equal(afterService) {
		notes = append(notes, fmt.Sprintf(
			"landing day %s falls on a weekend/holiday, extended to next business day %s",
			afterService.Format(dateLayout), dueDate.Format(dateLayout)))
	}

	notes = append(notes, fmt.Sprintf("due date %s", dueDate.Format(dateLayout)))

	return DeadlineResult{
		DueDate:          dueDate,
		ComputationNotes: strings.Join(notes, "; "),
		IsShortPeriod:    isShort,
	}, nil
}

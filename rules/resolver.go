package rules

import (
	"fmt"
	"sort"
	"time"
)

// Resolve orders the selected rules by priority weight (highest first,
// ties broken by stable input order) and applies each rule's actions in
// list order. GenerateDeadline actions invoke the deadline calculator;
// every other action kind becomes an Effect carrying the action payload
// verbatim. No deduplication happens: two rules both generating a
// "motion response" deadline legitimately yield two results.
//
// A malformed action (for example a negative day count) is reported as
// an ActionError on the resolution; it never aborts the other rules.
func Resolve(selected []*Rule, triggerDate time.Time, method ServiceMethod, holidays []FederalHoliday) Resolution {
	sorted := make([]*Rule, len(selected))
	copy(sorted, selected)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Weight() > sorted[j].Priority.Weight()
	})

	if method == "" {
		method = ServiceElectronic
	}

	var res Resolution
	for _, rule := range sorted {
		for i, action := range rule.Actions {
			if action.Type != ActionGenerateDeadline {
				res.Effects = append(res.Effects, Effect{
					Type:     action.Type,
					RuleID:   rule.ID,
					RuleName: rule.Name,
					Action:   action,
				})
				continue
			}

			deadline, err := ComputeDeadline(triggerDate, action.DaysFromTrigger, method, holidays)
			if err != nil {
				wrapped := fmt.Errorf("%w: %w", ErrMalformedAction, err)
				res.Errors = append(res.Errors, ActionError{
					RuleID:      rule.ID,
					RuleName:    rule.Name,
					ActionIndex: i,
					Err:         wrapped,
					Message:     fmt.Sprintf("deadline computation failed: %v", err),
				})
				continue
			}

			deadline.Description = action.Description
			deadline.RuleCitation = rule.Citation
			res.Deadlines = append(res.Deadlines, deadline)
		}
	}

	return res
}

// EvaluateAndResolve is the single entry point external callers use: it
// selects the applicable rules for the event and resolves their actions
// into deadlines and effects. The rule slice is treated as a point-in-
// time snapshot; nothing is mutated and no I/O happens.
func EvaluateAndResolve(all []*Rule, event TriggerEvent, ctx Context, triggerDate time.Time, method ServiceMethod, asOf time.Time, holidays []FederalHoliday) Resolution {
	selected := SelectRules(all, event, ctx, asOf)
	return Resolve(selected, triggerDate, method, holidays)
}

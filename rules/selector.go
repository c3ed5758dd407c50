package rules

import "time"

// SelectRules filters a rule snapshot to those applicable to a trigger
// event: status Active, trigger listed on the rule, asOf inside the
// effective window, and the condition tree satisfied by the context.
// Input order is preserved; priority ordering happens in Resolve.
func SelectRules(all []*Rule, event TriggerEvent, ctx Context, asOf time.Time) []*Rule {
	var selected []*Rule
	for _, r := range all {
		if !r.InEffect(asOf) {
			continue
		}
		if !r.TriggeredBy(event) {
			continue
		}
		if !EvaluateCondition(r.Conditions, ctx) {
			continue
		}
		selected = append(selected, r)
	}
	return selected
}

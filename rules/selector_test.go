package rules

import (
	"testing"
	"time"
)

func activeRule(id string, triggers ...TriggerEvent) *Rule {
	return &Rule{
		ID:       id,
		Name:     "rule " + id,
		Source:   SourceFRCP,
		Category: CategoryDeadline,
		Triggers: triggers,
		Priority: PriorityFederalRule,
		Status:   StatusActive,
	}
}

func TestSelectRulesByTrigger(t *testing.T) {
	asOf := date(2025, time.October, 1)

	motion := activeRule("r1", TriggerMotionFiled)
	order := activeRule("r2", TriggerOrderIssued)
	both := activeRule("r3", TriggerMotionFiled, TriggerOrderIssued)

	selected := SelectRules([]*Rule{motion, order, both}, TriggerMotionFiled, Context{}, asOf)
	if len(selected) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(selected))
	}
	if selected[0].ID != "r1" || selected[1].ID != "r3" {
		t.Errorf("expected [r1 r3] in input order, got [%s %s]", selected[0].ID, selected[1].ID)
	}
}

func TestSelectRulesSkipsNonActive(t *testing.T) {
	asOf := date(2025, time.October, 1)

	testCases := []struct {
		name   string
		status Status
		want   int
	}{
		{"active", StatusActive, 1},
		{"draft", StatusDraft, 0},
		{"inactive", StatusInactive, 0},
		{"superseded", StatusSuperseded, 0},
		{"archived", StatusArchived, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := activeRule("r1", TriggerMotionFiled)
			r.Status = tc.status
			selected := SelectRules([]*Rule{r}, TriggerMotionFiled, Context{}, asOf)
			if len(selected) != tc.want {
				t.Errorf("status %s: expected %d rules, got %d", tc.status, tc.want, len(selected))
			}
		})
	}
}

func TestSelectRulesEffectiveWindow(t *testing.T) {
	effective := date(2025, time.January, 1)
	expiration := date(2025, time.December, 31)

	r := activeRule("r1", TriggerMotionFiled)
	r.EffectiveDate = &effective
	r.ExpirationDate = &expiration

	testCases := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"before effective", date(2024, time.December, 31), 0},
		{"on effective date", date(2025, time.January, 1), 1},
		{"inside window", date(2025, time.June, 15), 1},
		{"on expiration date", date(2025, time.December, 31), 1},
		{"after expiration", date(2026, time.January, 1), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			selected := SelectRules([]*Rule{r}, TriggerMotionFiled, Context{}, tc.asOf)
			if len(selected) != tc.want {
				t.Errorf("expected %d rules, got %d", tc.want, len(selected))
			}
		})
	}
}

func TestSelectRulesOpenEndedWindow(t *testing.T) {
	asOf := date(2025, time.October, 1)

	r := activeRule("r1", TriggerMotionFiled)
	selected := SelectRules([]*Rule{r}, TriggerMotionFiled, Context{}, asOf)
	if len(selected) != 1 {
		t.Errorf("rule with no window bounds should always be in effect, got %d", len(selected))
	}
}

func TestSelectRulesConditionFiltering(t *testing.T) {
	asOf := date(2025, time.October, 1)

	r := activeRule("r1", TriggerMotionFiled)
	r.Conditions = &Condition{Type: ConditionFieldEquals, Field: "case_type", Value: "civil"}

	matching := SelectRules([]*Rule{r}, TriggerMotionFiled, Context{"case_type": "civil"}, asOf)
	if len(matching) != 1 {
		t.Errorf("expected condition to match, got %d rules", len(matching))
	}

	nonMatching := SelectRules([]*Rule{r}, TriggerMotionFiled, Context{"case_type": "criminal"}, asOf)
	if len(nonMatching) != 0 {
		t.Errorf("expected condition to reject, got %d rules", len(nonMatching))
	}
}

// A rule with no triggers is never selected, whatever the event.
func TestSelectRulesEmptyTriggers(t *testing.T) {
	asOf := date(2025, time.October, 1)
	r := activeRule("r1")

	for _, event := range []TriggerEvent{TriggerMotionFiled, TriggerCaseFiled, TriggerManualEvaluation} {
		if selected := SelectRules([]*Rule{r}, event, Context{}, asOf); len(selected) != 0 {
			t.Errorf("event %s: rule with empty triggers should never match", event)
		}
	}
}

func TestSelectRulesEmptyInput(t *testing.T) {
	selected := SelectRules(nil, TriggerMotionFiled, Context{}, date(2025, time.October, 1))
	if len(selected) != 0 {
		t.Errorf("expected no rules, got %d", len(selected))
	}
}

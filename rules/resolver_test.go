package rules

import (
	"errors"
	"testing"
	"time"
)

func deadlineRule(id string, priority Priority, days int) *Rule {
	r := activeRule(id, TriggerMotionFiled)
	r.Priority = priority
	r.Citation = "Cite " + id
	r.Actions = []Action{{
		Type:            ActionGenerateDeadline,
		Description:     "deadline from " + id,
		DaysFromTrigger: days,
	}}
	return r
}

func TestResolvePriorityOrdering(t *testing.T) {
	trigger := date(2025, time.October, 6)

	statutory := deadlineRule("r-statutory", PriorityStatutory, 21)
	standing := deadlineRule("r-standing", PriorityStandingOrder, 7)
	local := deadlineRule("r-local", PriorityLocal, 21)

	res := Resolve([]*Rule{statutory, standing, local}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 3 {
		t.Fatalf("expected 3 deadlines, got %d", len(res.Deadlines))
	}
	wantOrder := []string{"Cite r-standing", "Cite r-local", "Cite r-statutory"}
	for i, want := range wantOrder {
		if res.Deadlines[i].RuleCitation != want {
			t.Errorf("deadline %d: expected citation %q, got %q", i, want, res.Deadlines[i].RuleCitation)
		}
	}
}

func TestResolveStableTieBreak(t *testing.T) {
	trigger := date(2025, time.October, 6)

	first := deadlineRule("r-first", PriorityLocal, 21)
	second := deadlineRule("r-second", PriorityLocal, 21)

	res := Resolve([]*Rule{first, second}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 2 {
		t.Fatalf("expected 2 deadlines, got %d", len(res.Deadlines))
	}
	if res.Deadlines[0].RuleCitation != "Cite r-first" || res.Deadlines[1].RuleCitation != "Cite r-second" {
		t.Errorf("equal priorities should keep input order, got [%s %s]",
			res.Deadlines[0].RuleCitation, res.Deadlines[1].RuleCitation)
	}
}

// Two rules generating a deadline off the same trigger produce two
// deadline results. Overlap is the caller's concern, not the engine's.
func TestResolveNoDeduplication(t *testing.T) {
	trigger := date(2025, time.October, 6)

	a := deadlineRule("r-a", PriorityFederalRule, 21)
	b := deadlineRule("r-b", PriorityLocal, 21)

	res := Resolve([]*Rule{a, b}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 2 {
		t.Fatalf("expected 2 deadlines (no dedup), got %d", len(res.Deadlines))
	}
	want := date(2025, time.October, 27)
	for i, d := range res.Deadlines {
		if !d.DueDate.Equal(want) {
			t.Errorf("deadline %d: expected due date %s, got %s", i, want.Format(dateLayout), d.DueDate.Format(dateLayout))
		}
	}
}

func TestResolveDeadlineFieldsFilled(t *testing.T) {
	trigger := date(2025, time.October, 6)

	r := deadlineRule("r1", PriorityFederalRule, 7)
	res := Resolve([]*Rule{r}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 1 {
		t.Fatalf("expected 1 deadline, got %d", len(res.Deadlines))
	}
	d := res.Deadlines[0]
	if d.Description != "deadline from r1" {
		t.Errorf("expected action description, got %q", d.Description)
	}
	if d.RuleCitation != "Cite r1" {
		t.Errorf("expected rule citation, got %q", d.RuleCitation)
	}
	want := date(2025, time.October, 15)
	if !d.DueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want.Format(dateLayout), d.DueDate.Format(dateLayout))
	}
}

func TestResolveNonDeadlineActionsBecomeEffects(t *testing.T) {
	trigger := date(2025, time.October, 6)

	r := activeRule("r1", TriggerMotionFiled)
	r.Actions = []Action{
		{Type: ActionRequireRedaction, Fields: []string{"social_security_number"}},
		{Type: ActionSendNotification, Recipient: "clerk", Message: "motion filed"},
		{Type: ActionRequireFee, AmountCents: 40200},
		{Type: ActionFlagForReview, Reason: "pro se filer"},
	}

	res := Resolve([]*Rule{r}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 0 {
		t.Errorf("expected no deadlines, got %d", len(res.Deadlines))
	}
	if len(res.Effects) != 4 {
		t.Fatalf("expected 4 effects, got %d", len(res.Effects))
	}
	if res.Effects[0].Type != ActionRequireRedaction {
		t.Errorf("expected first effect redaction, got %s", res.Effects[0].Type)
	}
	if res.Effects[0].RuleID != "r1" || res.Effects[0].RuleName != "rule r1" {
		t.Errorf("effect should carry rule identity, got %s/%s", res.Effects[0].RuleID, res.Effects[0].RuleName)
	}
	if got := res.Effects[2].Action.AmountCents; got != 40200 {
		t.Errorf("effect should carry the action payload verbatim, got amount %d", got)
	}
}

func TestResolveBlockFiling(t *testing.T) {
	trigger := date(2025, time.October, 6)

	r := activeRule("r1", TriggerMotionFiled)
	r.Actions = []Action{{Type: ActionBlockFiling, Reason: "filing fee unpaid"}}

	res := Resolve([]*Rule{r}, trigger, ServiceElectronic, nil)

	if !res.Blocked() {
		t.Error("expected resolution to be blocked")
	}
	reasons := res.BlockReasons()
	if len(reasons) != 1 || reasons[0] != "filing fee unpaid" {
		t.Errorf("expected block reason, got %v", reasons)
	}
}

// A malformed action is reported on the resolution and never suppresses
// the other rules' output.
func TestResolveMalformedActionNonFatal(t *testing.T) {
	trigger := date(2025, time.October, 6)

	bad := deadlineRule("r-bad", PriorityStandingOrder, -5)
	good := deadlineRule("r-good", PriorityFederalRule, 21)

	res := Resolve([]*Rule{bad, good}, trigger, ServiceElectronic, nil)

	if len(res.Deadlines) != 1 {
		t.Fatalf("expected 1 deadline from the well-formed rule, got %d", len(res.Deadlines))
	}
	if res.Deadlines[0].RuleCitation != "Cite r-good" {
		t.Errorf("expected the well-formed rule's deadline, got %q", res.Deadlines[0].RuleCitation)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 action error, got %d", len(res.Errors))
	}
	e := res.Errors[0]
	if e.RuleID != "r-bad" || e.ActionIndex != 0 {
		t.Errorf("error should identify rule and action, got %s index %d", e.RuleID, e.ActionIndex)
	}
	if e.Message == "" {
		t.Error("error should carry a message")
	}
	if !errors.Is(e.Err, ErrMalformedAction) {
		t.Errorf("error should wrap ErrMalformedAction, got %v", e.Err)
	}
	if !errors.Is(e.Err, ErrInvalidPeriod) {
		t.Errorf("error should preserve the underlying cause, got %v", e.Err)
	}
}

func TestResolveDefaultsServiceMethod(t *testing.T) {
	trigger := date(2025, time.October, 6)

	r := deadlineRule("r1", PriorityFederalRule, 21)
	res := Resolve([]*Rule{r}, trigger, "", nil)

	// Empty method means electronic: no grace days appended.
	want := date(2025, time.October, 27)
	if len(res.Deadlines) != 1 || !res.Deadlines[0].DueDate.Equal(want) {
		t.Errorf("expected due date %s with default service method, got %+v", want.Format(dateLayout), res.Deadlines)
	}
}

func TestEvaluateAndResolve(t *testing.T) {
	asOf := date(2025, time.October, 6)
	trigger := asOf

	matching := deadlineRule("r-match", PriorityFederalRule, 21)
	wrongTrigger := deadlineRule("r-other", PriorityFederalRule, 21)
	wrongTrigger.Triggers = []TriggerEvent{TriggerOrderIssued}
	conditioned := deadlineRule("r-cond", PriorityLocal, 7)
	conditioned.Conditions = &Condition{Type: ConditionFieldEquals, Field: "case_type", Value: "criminal"}

	res := EvaluateAndResolve(
		[]*Rule{matching, wrongTrigger, conditioned},
		TriggerMotionFiled,
		Context{"case_type": "civil"},
		trigger, ServiceElectronic, asOf, nil,
	)

	if len(res.Deadlines) != 1 {
		t.Fatalf("expected 1 deadline, got %d", len(res.Deadlines))
	}
	if res.Deadlines[0].RuleCitation != "Cite r-match" {
		t.Errorf("expected only the matching rule to resolve, got %q", res.Deadlines[0].RuleCitation)
	}
}

package districtengine

import (
	"strings"
	"testing"
	"time"

	"github.com/docketops/courtrules/rules"
)

func validRule() *rules.Rule {
	return &rules.Rule{
		ID:       "11111111-1111-1111-1111-111111111111",
		Name:     "motion response deadline",
		Source:   rules.SourceFRCP,
		Category: rules.CategoryDeadline,
		Triggers: []rules.TriggerEvent{rules.TriggerMotionFiled},
		Conditions: &rules.Condition{
			Type:  rules.ConditionFieldEquals,
			Field: "case_type",
			Value: "civil",
		},
		Actions: []rules.Action{{
			Type:            rules.ActionGenerateDeadline,
			Description:     "response to motion due",
			DaysFromTrigger: 14,
		}},
		Priority: rules.PriorityFederalRule,
		Status:   rules.StatusActive,
	}
}

func TestValidateRuleAccepts(t *testing.T) {
	if err := ValidateRule(validRule()); err != nil {
		t.Errorf("ValidateRule() on valid rule = %v, want nil", err)
	}
}

func TestValidateRuleIdentity(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*rules.Rule)
	}{
		{"empty ID", func(r *rules.Rule) { r.ID = "" }},
		{"empty name", func(r *rules.Rule) { r.Name = "" }},
		{"name too long", func(r *rules.Rule) { r.Name = strings.Repeat("x", 256) }},
		{"bad source", func(r *rules.Rule) { r.Source = "common_law" }},
		{"bad category", func(r *rules.Rule) { r.Category = "misc" }},
		{"bad priority", func(r *rules.Rule) { r.Priority = "urgent" }},
		{"bad status", func(r *rules.Rule) { r.Status = "pending" }},
		{"bad trigger", func(r *rules.Rule) { r.Triggers = []rules.TriggerEvent{"case_closed"} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			tc.mutate(r)
			if err := ValidateRule(r); err == nil {
				t.Error("ValidateRule() = nil, want error")
			}
		})
	}
}

func TestValidateRuleWindow(t *testing.T) {
	effective := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	r := validRule()
	r.EffectiveDate = &effective
	r.ExpirationDate = &expiration
	if err := ValidateRule(r); err == nil {
		t.Error("expiration before effective should be rejected")
	}

	r.ExpirationDate = &effective
	if err := ValidateRule(r); err != nil {
		t.Errorf("single-day window should be accepted, got %v", err)
	}
}

func TestValidateRuleConditions(t *testing.T) {
	testCases := []struct {
		name    string
		cond    *rules.Condition
		wantErr bool
	}{
		{"nil conditions", nil, false},
		{"always", &rules.Condition{Type: rules.ConditionAlways}, false},
		{"unknown type", &rules.Condition{Type: "sometimes"}, true},
		{"not without child", &rules.Condition{Type: rules.ConditionNot}, true},
		{"leaf without field", &rules.Condition{Type: rules.ConditionFieldEquals, Value: "x"}, true},
		{"leaf without value", &rules.Condition{Type: rules.ConditionFieldEquals, Field: "case_type"}, true},
		{"exists needs no value", &rules.Condition{Type: rules.ConditionFieldExists, Field: "sealed"}, false},
		{"bad field name", &rules.Condition{Type: rules.ConditionFieldExists, Field: "9lives"}, true},
		{"field with spaces", &rules.Condition{Type: rules.ConditionFieldExists, Field: "case type"}, true},
		{"dotted field", &rules.Condition{Type: rules.ConditionFieldExists, Field: "filer.bar_number"}, false},
		{"nested invalid child", &rules.Condition{Type: rules.ConditionAnd, Conditions: []rules.Condition{
			{Type: rules.ConditionAlways},
			{Type: rules.ConditionFieldEquals, Field: "", Value: "x"},
		}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			r.Conditions = tc.cond
			err := ValidateRule(r)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateRule() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRuleConditionDepthLimit(t *testing.T) {
	// Chain of Not nodes one deeper than the limit.
	leaf := &rules.Condition{Type: rules.ConditionAlways}
	cond := leaf
	for i := 0; i < maxConditionDepth; i++ {
		cond = &rules.Condition{Type: rules.ConditionNot, Condition: cond}
	}

	r := validRule()
	r.Conditions = cond
	if err := ValidateRule(r); err == nil {
		t.Error("condition tree over the depth limit should be rejected")
	}
}

func TestValidateRuleConditionNodeLimit(t *testing.T) {
	children := make([]rules.Condition, maxConditionNodes)
	for i := range children {
		children[i] = rules.Condition{Type: rules.ConditionAlways}
	}

	r := validRule()
	r.Conditions = &rules.Condition{Type: rules.ConditionAnd, Conditions: children}
	if err := ValidateRule(r); err == nil {
		t.Error("condition tree over the node limit should be rejected")
	}
}

func TestValidateRuleActions(t *testing.T) {
	testCases := []struct {
		name    string
		action  rules.Action
		wantErr bool
	}{
		{"deadline", rules.Action{Type: rules.ActionGenerateDeadline, Description: "answer due", DaysFromTrigger: 21}, false},
		{"deadline zero days", rules.Action{Type: rules.ActionGenerateDeadline, Description: "due today", DaysFromTrigger: 0}, false},
		{"deadline negative days", rules.Action{Type: rules.ActionGenerateDeadline, Description: "x", DaysFromTrigger: -1}, true},
		{"deadline no description", rules.Action{Type: rules.ActionGenerateDeadline, DaysFromTrigger: 14}, true},
		{"redaction", rules.Action{Type: rules.ActionRequireRedaction, Fields: []string{"social_security_number"}}, false},
		{"redaction no fields", rules.Action{Type: rules.ActionRequireRedaction}, true},
		{"notification", rules.Action{Type: rules.ActionSendNotification, Recipient: "clerk"}, false},
		{"notification no recipient", rules.Action{Type: rules.ActionSendNotification}, true},
		{"block", rules.Action{Type: rules.ActionBlockFiling, Reason: "fee unpaid"}, false},
		{"block no reason", rules.Action{Type: rules.ActionBlockFiling}, true},
		{"fee", rules.Action{Type: rules.ActionRequireFee, AmountCents: 40200}, false},
		{"fee zero amount", rules.Action{Type: rules.ActionRequireFee}, true},
		{"flag", rules.Action{Type: rules.ActionFlagForReview}, false},
		{"log", rules.Action{Type: rules.ActionLogCompliance}, false},
		{"unknown", rules.Action{Type: "email_judge"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			r.Actions = []rules.Action{tc.action}
			err := ValidateRule(r)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateRule() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

package districtengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docketops/courtrules/rules"
)

const (
	maxConditionDepth = 32
	maxConditionNodes = 512
	maxActionsPerRule = 50
	maxNameLength     = 255
)

// ValidateRule checks a rule before it is persisted. Returns an error
// describing the first problem found, nil if the rule is valid.
func ValidateRule(rule *rules.Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}
	if rule.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if len(rule.Name) > maxNameLength {
		return fmt.Errorf("rule name length %d exceeds maximum of %d characters", len(rule.Name), maxNameLength)
	}

	if !isValidSource(rule.Source) {
		return fmt.Errorf("invalid source %q", rule.Source)
	}
	if !isValidCategory(rule.Category) {
		return fmt.Errorf("invalid category %q", rule.Category)
	}
	if !isValidPriority(rule.Priority) {
		return fmt.Errorf("invalid priority %q", rule.Priority)
	}
	if !isValidStatus(rule.Status) {
		return fmt.Errorf("invalid status %q", rule.Status)
	}

	for _, trigger := range rule.Triggers {
		if !isValidTrigger(trigger) {
			return fmt.Errorf("invalid trigger event %q", trigger)
		}
	}

	if rule.EffectiveDate != nil && rule.ExpirationDate != nil && rule.ExpirationDate.Before(*rule.EffectiveDate) {
		return fmt.Errorf("expiration date precedes effective date")
	}

	if rule.Conditions != nil {
		nodes := 0
		if err := validateCondition(rule.Conditions, 1, &nodes); err != nil {
			return fmt.Errorf("invalid conditions: %w", err)
		}
	}

	if len(rule.Actions) > maxActionsPerRule {
		return fmt.Errorf("rule has %d actions, maximum allowed is %d", len(rule.Actions), maxActionsPerRule)
	}
	for i, action := range rule.Actions {
		if err := validateAction(action); err != nil {
			return fmt.Errorf("invalid action %d: %w", i, err)
		}
	}

	return nil
}

// validateCondition walks the condition tree enforcing the closed node
// set, the field name format, and the depth and node count limits.
func validateCondition(cond *rules.Condition, depth int, nodes *int) error {
	if depth > maxConditionDepth {
		return fmt.Errorf("condition tree depth exceeds maximum of %d", maxConditionDepth)
	}
	*nodes++
	if *nodes > maxConditionNodes {
		return fmt.Errorf("condition tree contains more than %d nodes", maxConditionNodes)
	}

	switch cond.Type {
	case rules.ConditionAnd, rules.ConditionOr:
		for i := range cond.Conditions {
			if err := validateCondition(&cond.Conditions[i], depth+1, nodes); err != nil {
				return err
			}
		}
		return nil

	case rules.ConditionNot:
		if cond.Condition == nil {
			return fmt.Errorf("not node requires a child condition")
		}
		return validateCondition(cond.Condition, depth+1, nodes)

	case rules.ConditionFieldExists:
		return validateFieldName(cond.Field)

	case rules.ConditionFieldEquals, rules.ConditionFieldContains,
		rules.ConditionFieldGreaterThan, rules.ConditionFieldLessThan:
		if err := validateFieldName(cond.Field); err != nil {
			return err
		}
		if cond.Value == "" {
			return fmt.Errorf("%s node requires a value", cond.Type)
		}
		return nil

	case rules.ConditionAlways:
		return nil

	default:
		return fmt.Errorf("unknown condition type %q", cond.Type)
	}
}

// validateAction enforces the closed action set and the per-type
// payload requirements.
func validateAction(action rules.Action) error {
	switch action.Type {
	case rules.ActionGenerateDeadline:
		if action.DaysFromTrigger < 0 {
			return fmt.Errorf("days_from_trigger cannot be negative, got %d", action.DaysFromTrigger)
		}
		if action.Description == "" {
			return fmt.Errorf("generate_deadline requires a description")
		}
		return nil

	case rules.ActionRequireRedaction:
		if len(action.Fields) == 0 {
			return fmt.Errorf("require_redaction requires at least one field")
		}
		for _, f := range action.Fields {
			if err := validateFieldName(f); err != nil {
				return err
			}
		}
		return nil

	case rules.ActionSendNotification:
		if action.Recipient == "" {
			return fmt.Errorf("send_notification requires a recipient")
		}
		return nil

	case rules.ActionBlockFiling:
		if action.Reason == "" {
			return fmt.Errorf("block_filing requires a reason")
		}
		return nil

	case rules.ActionRequireFee:
		if action.AmountCents <= 0 {
			return fmt.Errorf("require_fee requires a positive amount, got %d", action.AmountCents)
		}
		return nil

	case rules.ActionFlagForReview, rules.ActionLogCompliance:
		return nil

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// validateFieldName validates a context field name: 1-100 characters,
// starting with a letter or underscore, followed by letters, digits,
// underscores, or dots for nested fields.
func validateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("field name length %d exceeds maximum of 100 characters", len(name))
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("field name %q has leading/trailing whitespace", name)
	}
	if !validFieldName.MatchString(name) {
		return fmt.Errorf("field name %q must start with a letter or underscore and contain only letters, digits, underscores, or dots", name)
	}
	return nil
}

var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidSource(s rules.Source) bool {
	switch s {
	case rules.SourceFRCP, rules.SourceFRCrP, rules.SourceFRE, rules.SourceFRAP,
		rules.SourceLocalRule, rules.SourceAdminProcedure, rules.SourceStandingOrder,
		rules.SourceStatute, rules.SourceGeneralOrder:
		return true
	}
	return false
}

func isValidCategory(c rules.Category) bool {
	switch c {
	case rules.CategoryFiling, rules.CategoryDeadline, rules.CategoryPrivacy,
		rules.CategoryProcedural, rules.CategoryFee, rules.CategoryAssignment,
		rules.CategoryService, rules.CategorySealing, rules.CategorySentencing,
		rules.CategoryDiscovery:
		return true
	}
	return false
}

func isValidPriority(p rules.Priority) bool {
	switch p {
	case rules.PriorityStatutory, rules.PriorityFederalRule, rules.PriorityAdministrative,
		rules.PriorityLocal, rules.PriorityStandingOrder:
		return true
	}
	return false
}

func isValidStatus(s rules.Status) bool {
	switch s {
	case rules.StatusActive, rules.StatusInactive, rules.StatusDraft,
		rules.StatusSuperseded, rules.StatusArchived:
		return true
	}
	return false
}

func isValidTrigger(t rules.TriggerEvent) bool {
	switch t {
	case rules.TriggerCaseFiled, rules.TriggerMotionFiled, rules.TriggerOrderIssued,
		rules.TriggerDocumentFiled, rules.TriggerStatusChanged, rules.TriggerDeadlineApproaching,
		rules.TriggerPleaEntered, rules.TriggerSentencingScheduled, rules.TriggerCaseAssigned,
		rules.TriggerCaseReassigned, rules.TriggerAppearanceFiled, rules.TriggerExtensionRequested,
		rules.TriggerManualEvaluation:
		return true
	}
	return false
}

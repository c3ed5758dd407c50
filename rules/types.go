package rules

import (
	"time"
)

// Rule represents a single court rule governing procedures, deadlines,
// filing requirements, or policies. The engine only reads rules; lifecycle
// transitions (Draft -> Active etc.) happen in the authoring workflow.
type Rule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Source           Source         `json:"source"`
	Category         Category       `json:"category"`
	Triggers         []TriggerEvent `json:"triggers,omitempty"`
	Conditions       *Condition     `json:"conditions,omitempty"`
	Actions          []Action       `json:"actions,omitempty"`
	Priority         Priority       `json:"priority"`
	Status           Status         `json:"status"`
	Jurisdiction     string         `json:"jurisdiction,omitempty"`
	Citation         string         `json:"citation,omitempty"`
	EffectiveDate    *time.Time     `json:"effective_date,omitempty"`
	ExpirationDate   *time.Time     `json:"expiration_date,omitempty"`
	SupersedesRuleID string         `json:"supersedes_rule_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CreatedBy        string         `json:"created_by,omitempty"`
}

// InEffect reports whether the rule is selectable at the given instant:
// status Active and asOf inside the [EffectiveDate, ExpirationDate] window.
// Unset bounds are open.
func (r *Rule) InEffect(asOf time.Time) bool {
	if r.Status != StatusActive {
		return false
	}
	if r.EffectiveDate != nil && asOf.Before(*r.EffectiveDate) {
		return false
	}
	if r.ExpirationDate != nil && asOf.After(*r.ExpirationDate) {
		return false
	}
	return true
}

// TriggeredBy reports whether the rule lists the given trigger event.
// A rule with no triggers is never auto-selected.
func (r *Rule) TriggeredBy(event TriggerEvent) bool {
	for _, t := range r.Triggers {
		if t == event {
			return true
		}
	}
	return false
}

// Source is the statutory authority category for a rule.
type Source string

const (
	SourceFRCP           Source = "frcp"
	SourceFRCrP          Source = "frcrp"
	SourceFRE            Source = "fre"
	SourceFRAP           Source = "frap"
	SourceLocalRule      Source = "local_rule"
	SourceAdminProcedure Source = "admin_procedure"
	SourceStandingOrder  Source = "standing_order"
	SourceStatute        Source = "statute"
	SourceGeneralOrder   Source = "general_order"
)

// Category classifies a rule for querying. It plays no part in evaluation.
type Category string

const (
	CategoryFiling     Category = "filing"
	CategoryDeadline   Category = "deadline"
	CategoryPrivacy    Category = "privacy"
	CategoryProcedural Category = "procedural"
	CategoryFee        Category = "fee"
	CategoryAssignment Category = "assignment"
	CategoryService    Category = "service"
	CategorySealing    Category = "sealing"
	CategorySentencing Category = "sentencing"
	CategoryDiscovery  Category = "discovery"
)

// TriggerEvent identifies the kind of occurrence that makes a rule
// eligible for evaluation.
type TriggerEvent string

const (
	TriggerCaseFiled           TriggerEvent = "case_filed"
	TriggerMotionFiled         TriggerEvent = "motion_filed"
	TriggerOrderIssued         TriggerEvent = "order_issued"
	TriggerDocumentFiled       TriggerEvent = "document_filed"
	TriggerStatusChanged       TriggerEvent = "status_changed"
	TriggerDeadlineApproaching TriggerEvent = "deadline_approaching"
	TriggerPleaEntered         TriggerEvent = "plea_entered"
	TriggerSentencingScheduled TriggerEvent = "sentencing_scheduled"
	TriggerCaseAssigned        TriggerEvent = "case_assigned"
	TriggerCaseReassigned      TriggerEvent = "case_reassigned"
	TriggerAppearanceFiled     TriggerEvent = "appearance_filed"
	TriggerExtensionRequested  TriggerEvent = "extension_requested"
	TriggerManualEvaluation    TriggerEvent = "manual_evaluation"
)

// Priority ranks which rule's actions apply first when multiple rules
// match the same event.
type Priority string

const (
	PriorityStatutory      Priority = "statutory"
	PriorityFederalRule    Priority = "federal_rule"
	PriorityAdministrative Priority = "administrative"
	PriorityLocal          Priority = "local"
	PriorityStandingOrder  Priority = "standing_order"
)

// Weight returns the numeric rank used for sort ordering (higher first).
func (p Priority) Weight() int {
	switch p {
	case PriorityStandingOrder:
		return 50
	case PriorityLocal:
		return 40
	case PriorityAdministrative:
		return 30
	case PriorityFederalRule:
		return 20
	case PriorityStatutory:
		return 10
	default:
		return 0
	}
}

// Status is a rule's lifecycle state. Only Active rules are selectable.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusDraft      Status = "draft"
	StatusSuperseded Status = "superseded"
	StatusArchived   Status = "archived"
)

// ConditionType discriminates the closed set of condition node kinds.
type ConditionType string

const (
	ConditionAnd              ConditionType = "and"
	ConditionOr               ConditionType = "or"
	ConditionNot              ConditionType = "not"
	ConditionFieldEquals      ConditionType = "field_equals"
	ConditionFieldContains    ConditionType = "field_contains"
	ConditionFieldExists      ConditionType = "field_exists"
	ConditionFieldGreaterThan ConditionType = "field_greater_than"
	ConditionFieldLessThan    ConditionType = "field_less_than"
	ConditionAlways           ConditionType = "always"
)

// Condition is one node of a rule's condition tree. Which fields are
// meaningful depends on Type: And/Or use Conditions, Not uses Condition,
// the field leaves use Field (and Value except for FieldExists).
type Condition struct {
	Type       ConditionType `json:"type"`
	Field      string        `json:"field,omitempty"`
	Value      string        `json:"value,omitempty"`
	Conditions []Condition   `json:"conditions,omitempty"`
	Condition  *Condition    `json:"condition,omitempty"`
}

// ActionType discriminates the closed set of rule action kinds.
type ActionType string

const (
	ActionGenerateDeadline ActionType = "generate_deadline"
	ActionRequireRedaction ActionType = "require_redaction"
	ActionSendNotification ActionType = "send_notification"
	ActionBlockFiling      ActionType = "block_filing"
	ActionRequireFee       ActionType = "require_fee"
	ActionFlagForReview    ActionType = "flag_for_review"
	ActionLogCompliance    ActionType = "log_compliance"
)

// Action is a pure description of a side effect a matched rule produces.
// Applying an action never mutates the rule. Which fields are meaningful
// depends on Type.
type Action struct {
	Type            ActionType `json:"type"`
	Description     string     `json:"description,omitempty"`
	DaysFromTrigger int        `json:"days_from_trigger,omitempty"`
	Fields          []string   `json:"fields,omitempty"`
	Recipient       string     `json:"recipient,omitempty"`
	Message         string     `json:"message,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	AmountCents     int64      `json:"amount_cents,omitempty"`
}

// Context is the immutable event context a rule set is evaluated against.
// Values are opaque strings, numbers, or booleans supplied by the caller.
type Context map[string]any

// ServiceMethod is how a document was served, for deadline grace days.
type ServiceMethod string

const (
	ServiceElectronic       ServiceMethod = "electronic"
	ServicePersonalDelivery ServiceMethod = "personal_delivery"
	ServiceMail             ServiceMethod = "mail"
	ServiceLeavingWithClerk ServiceMethod = "leaving_with_clerk"
	ServiceOther            ServiceMethod = "other"
)

// AdditionalDays returns the calendar days added to a deadline for the
// service method, per FRCP Rule 6(d): 0 for electronic and personal
// delivery, 3 for mail, leaving with the clerk, and other methods.
func (m ServiceMethod) AdditionalDays() int {
	switch m {
	case ServiceMail, ServiceLeavingWithClerk, ServiceOther:
		return 3
	default:
		return 0
	}
}

// FederalHoliday is one externally supplied court holiday.
type FederalHoliday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// DeadlineResult is one computed deadline. Produced fresh per evaluation
// and never persisted by this package.
type DeadlineResult struct {
	DueDate          time.Time `json:"due_date"`
	Description      string    `json:"description"`
	RuleCitation     string    `json:"rule_citation"`
	ComputationNotes string    `json:"computation_notes"`
	IsShortPeriod    bool      `json:"is_short_period"`
}

// Effect is one non-deadline side effect produced by a matched rule's
// action, carrying the action payload verbatim. BlockFiling effects are
// distinguished by Type so the caller can short-circuit acceptance; the
// engine itself never decides acceptance.
type Effect struct {
	Type     ActionType `json:"type"`
	RuleID   string     `json:"rule_id"`
	RuleName string     `json:"rule_name"`
	Action   Action     `json:"action"`
}

// ActionError reports a malformed action on a matched rule. It is
// attached to the resolution output; it never aborts the run and never
// suppresses the other rules' effects.
type ActionError struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	ActionIndex int    `json:"action_index"`
	Err         error  `json:"-"`
	Message     string `json:"message"`
}

// Resolution is the full outcome of resolving a selected rule list:
// deadlines and effects in priority order, plus per-action errors.
type Resolution struct {
	Deadlines []DeadlineResult `json:"deadlines"`
	Effects   []Effect         `json:"effects"`
	Errors    []ActionError    `json:"errors,omitempty"`
}

// Blocked reports whether any BlockFiling effect is present.
func (r *Resolution) Blocked() bool {
	for _, e := range r.Effects {
		if e.Type == ActionBlockFiling {
			return true
		}
	}
	return false
}

// BlockReasons collects the reasons of all BlockFiling effects, in order.
func (r *Resolution) BlockReasons() []string {
	var reasons []string
	for _, e := range r.Effects {
		if e.Type == ActionBlockFiling {
			reasons = append(reasons, e.Action.Reason)
		}
	}
	return reasons
}

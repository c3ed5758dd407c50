// Package filing implements the document filing pipeline: privacy
// scanning, rule compliance evaluation, and deadline generation, run
// before a filing is accepted onto the docket.
package filing

import (
	"time"

	"github.com/docketops/courtrules/rules"
)

// FilingSubmission is a document filing before compliance validation.
type FilingSubmission struct {
	CaseNumber    string              `json:"case_number"`
	CaseType      string              `json:"case_type"`
	DocumentType  string              `json:"document_type"`
	FilerName     string              `json:"filer_name"`
	FilerRole     string              `json:"filer_role"`
	ServiceMethod rules.ServiceMethod `json:"service_method,omitempty"`
	DocumentText  string              `json:"document_text,omitempty"`
	Metadata      map[string]any      `json:"metadata,omitempty"`
}

// Context builds the rule evaluation context for the submission.
// Metadata keys are merged in first so the structured fields win on
// collision.
func (s *FilingSubmission) Context() rules.Context {
	ctx := make(rules.Context, len(s.Metadata)+5)
	for k, v := range s.Metadata {
		ctx[k] = v
	}
	ctx["case_number"] = s.CaseNumber
	ctx["case_type"] = s.CaseType
	ctx["document_type"] = s.DocumentType
	ctx["filer_name"] = s.FilerName
	ctx["filer_role"] = s.FilerRole
	return ctx
}

// RuleResult records one rule's contribution to a compliance check.
type RuleResult struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	ActionTaken string `json:"action_taken"`
	Message     string `json:"message"`
}

// ComplianceReport is the outcome of running a filing through the
// rule engine.
type ComplianceReport struct {
	Results      []RuleResult           `json:"results"`
	Blocked      bool                   `json:"blocked"`
	BlockReasons []string               `json:"block_reasons,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Deadlines    []rules.DeadlineResult `json:"deadlines"`
}

// NefRecipient is one party served by a Notice of Electronic Filing.
type NefRecipient struct {
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	DeliveryMethod string     `json:"delivery_method"`
	ServedAt       *time.Time `json:"served_at,omitempty"`
}

// NoticeOfElectronicFiling is the NEF record generated when a filing
// is accepted.
type NoticeOfElectronicFiling struct {
	FilingID     string         `json:"filing_id"`
	CaseNumber   string         `json:"case_number"`
	FiledAt      time.Time      `json:"filed_at"`
	DocumentType string         `json:"document_type"`
	FilerName    string         `json:"filer_name"`
	DocketText   string         `json:"docket_text"`
	Recipients   []NefRecipient `json:"recipients"`
}

// FilingReceipt is issued after a filing is accepted.
type FilingReceipt struct {
	FilingID         string                    `json:"filing_id"`
	CaseNumber       string                    `json:"case_number"`
	FiledAt          time.Time                 `json:"filed_at"`
	DocumentType     string                    `json:"document_type"`
	ComplianceReport ComplianceReport          `json:"compliance_report"`
	Nef              *NoticeOfElectronicFiling `json:"nef,omitempty"`
}

// SubmissionOutcome is the full result of running a submission through
// the pipeline. Exactly one of the rejection fields explains a refusal:
// a dirty privacy scan or a blocked compliance report.
type SubmissionOutcome struct {
	Accepted    bool               `json:"accepted"`
	PrivacyScan *PrivacyScanResult `json:"privacy_scan,omitempty"`
	Report      ComplianceReport   `json:"compliance_report"`
	Receipt     *FilingReceipt     `json:"receipt,omitempty"`
}

package filing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/docketops/courtrules/rules"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T, testRules ...*rules.Rule) *rules.Engine {
	t.Helper()
	store := rules.NewInMemoryRuleStore()
	for _, r := range testRules {
		if err := store.Add(r); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	engine, err := rules.NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func filingRule(id string, actions ...rules.Action) *rules.Rule {
	return &rules.Rule{
		ID:       id,
		Name:     "rule " + id,
		Source:   rules.SourceLocalRule,
		Category: rules.CategoryFiling,
		Triggers: []rules.TriggerEvent{rules.TriggerDocumentFiled},
		Actions:  actions,
		Priority: rules.PriorityLocal,
		Status:   rules.StatusActive,
		Citation: "Local Rule " + id,
	}
}

func motionSubmission() FilingSubmission {
	return FilingSubmission{
		CaseNumber:    "5:24-cv-05001",
		CaseType:      "civil",
		DocumentType:  "motion",
		FilerName:     "Jane Attorney",
		FilerRole:     "plaintiff_attorney",
		ServiceMethod: rules.ServiceElectronic,
		DocumentText:  "Plaintiff moves for summary judgment.",
	}
}

func TestSubmitAccepted(t *testing.T) {
	engine := testEngine(t, filingRule("r1", rules.Action{
		Type:            rules.ActionGenerateDeadline,
		Description:     "response due",
		DaysFromTrigger: 14,
	}))
	pipeline := NewPipeline(discardLogger())

	outcome, err := pipeline.Submit(engine, motionSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !outcome.Accepted {
		t.Fatal("expected filing to be accepted")
	}
	if outcome.Receipt == nil {
		t.Fatal("accepted filing should carry a receipt")
	}
	if outcome.Receipt.FilingID == "" {
		t.Error("receipt should have a filing ID")
	}
	if outcome.Receipt.Nef == nil {
		t.Fatal("accepted filing should carry an NEF")
	}
	if outcome.Receipt.Nef.DocketText != "motion filed by Jane Attorney" {
		t.Errorf("unexpected docket text %q", outcome.Receipt.Nef.DocketText)
	}
	if len(outcome.Report.Deadlines) != 1 {
		t.Fatalf("expected 1 deadline, got %d", len(outcome.Report.Deadlines))
	}
	if outcome.Report.Deadlines[0].RuleCitation != "Local Rule r1" {
		t.Errorf("deadline should carry the rule citation, got %q", outcome.Report.Deadlines[0].RuleCitation)
	}
}

func TestSubmitBlockedByRule(t *testing.T) {
	engine := testEngine(t, filingRule("r1", rules.Action{
		Type:   rules.ActionBlockFiling,
		Reason: "filing fee unpaid",
	}))
	pipeline := NewPipeline(discardLogger())

	outcome, err := pipeline.Submit(engine, motionSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.Accepted {
		t.Fatal("expected filing to be blocked")
	}
	if outcome.Receipt != nil {
		t.Error("blocked filing should not carry a receipt")
	}
	if !outcome.Report.Blocked {
		t.Error("report should be marked blocked")
	}
	if len(outcome.Report.BlockReasons) != 1 || outcome.Report.BlockReasons[0] != "filing fee unpaid" {
		t.Errorf("expected block reason, got %v", outcome.Report.BlockReasons)
	}
}

func TestSubmitRejectedByPrivacyScan(t *testing.T) {
	engine := testEngine(t)
	pipeline := NewPipeline(discardLogger())

	sub := motionSubmission()
	sub.DocumentText = "Defendant's SSN is 123-45-6789."

	outcome, err := pipeline.Submit(engine, sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.Accepted {
		t.Fatal("expected filing to be rejected")
	}
	if outcome.PrivacyScan == nil || outcome.PrivacyScan.Clean {
		t.Fatal("expected a dirty privacy scan")
	}
	if outcome.Receipt != nil {
		t.Error("rejected filing should not carry a receipt")
	}
}

func TestSubmitConditionalRule(t *testing.T) {
	sealing := filingRule("r1", rules.Action{
		Type:   rules.ActionFlagForReview,
		Reason: "sealed filing requires judge approval",
	})
	sealing.Conditions = &rules.Condition{
		Type:  rules.ConditionFieldEquals,
		Field: "sealed",
		Value: "true",
	}
	engine := testEngine(t, sealing)
	pipeline := NewPipeline(discardLogger())

	plain, err := pipeline.Submit(engine, motionSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(plain.Report.Results) != 0 {
		t.Errorf("unsealed filing should not trip the rule, got %+v", plain.Report.Results)
	}

	sealed := motionSubmission()
	sealed.Metadata = map[string]any{"sealed": true}
	flagged, err := pipeline.Submit(engine, sealed)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(flagged.Report.Results) != 1 {
		t.Fatalf("sealed filing should trip the rule, got %+v", flagged.Report.Results)
	}
	if flagged.Report.Results[0].ActionTaken != string(rules.ActionFlagForReview) {
		t.Errorf("expected flag_for_review, got %s", flagged.Report.Results[0].ActionTaken)
	}
}

func TestSubmitMalformedActionBecomesWarning(t *testing.T) {
	engine := testEngine(t, filingRule("r1", rules.Action{
		Type:            rules.ActionGenerateDeadline,
		Description:     "bad deadline",
		DaysFromTrigger: -3,
	}))
	pipeline := NewPipeline(discardLogger())

	outcome, err := pipeline.Submit(engine, motionSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !outcome.Accepted {
		t.Fatal("a malformed action should not reject the filing")
	}
	if len(outcome.Report.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", outcome.Report.Warnings)
	}
}

func TestValidateIsDryRun(t *testing.T) {
	engine := testEngine(t, filingRule("r1", rules.Action{
		Type:            rules.ActionGenerateDeadline,
		Description:     "response due",
		DaysFromTrigger: 14,
	}))
	pipeline := NewPipeline(discardLogger())

	outcome, err := pipeline.Validate(engine, motionSubmission())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !outcome.Accepted {
		t.Error("expected validation to pass")
	}
	if outcome.Receipt != nil {
		t.Error("validation should never issue a receipt")
	}
	if len(outcome.Report.Deadlines) != 1 {
		t.Errorf("validation should still report deadlines, got %d", len(outcome.Report.Deadlines))
	}
}

func TestSubmissionContext(t *testing.T) {
	sub := motionSubmission()
	sub.Metadata = map[string]any{"page_count": 12, "document_type": "override-attempt"}

	ctx := sub.Context()
	if ctx["document_type"] != "motion" {
		t.Errorf("structured fields should win over metadata, got %v", ctx["document_type"])
	}
	if ctx["page_count"] != 12 {
		t.Errorf("metadata should be merged, got %v", ctx["page_count"])
	}
}

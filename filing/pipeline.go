package filing

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docketops/courtrules/rules"
)

// Pipeline runs submissions through privacy scanning, rule evaluation,
// and deadline generation. It holds no district state; the caller
// supplies the district's engine per call.
type Pipeline struct {
	scanner PrivacyScanner
	log     *slog.Logger
	now     func() time.Time
}

// NewPipeline creates a filing pipeline with the default privacy
// scanner.
func NewPipeline(log *slog.Logger) *Pipeline {
	return NewPipelineWithScanner(NewRedactionScanner(), log)
}

// NewPipelineWithScanner creates a filing pipeline with a caller-
// supplied privacy scanner.
func NewPipelineWithScanner(scanner PrivacyScanner, log *slog.Logger) *Pipeline {
	return &Pipeline{
		scanner: scanner,
		log:     log,
		now:     time.Now,
	}
}

// Submit runs the full pipeline. A dirty privacy scan or a blocking
// rule refuses the filing; otherwise a receipt with an NEF is issued.
// Nothing is persisted here; the receipt is the caller's to record.
func (p *Pipeline) Submit(engine *rules.Engine, sub FilingSubmission) (*SubmissionOutcome, error) {
	outcome, err := p.check(engine, sub)
	if err != nil {
		return nil, err
	}
	if !outcome.Accepted {
		return outcome, nil
	}

	filedAt := p.now()
	filingID := uuid.New().String()
	servedAt := filedAt
	outcome.Receipt = &FilingReceipt{
		FilingID:         filingID,
		CaseNumber:       sub.CaseNumber,
		FiledAt:          filedAt,
		DocumentType:     sub.DocumentType,
		ComplianceReport: outcome.Report,
		Nef: &NoticeOfElectronicFiling{
			FilingID:     filingID,
			CaseNumber:   sub.CaseNumber,
			FiledAt:      filedAt,
			DocumentType: sub.DocumentType,
			FilerName:    sub.FilerName,
			DocketText:   fmt.Sprintf("%s filed by %s", sub.DocumentType, sub.FilerName),
			Recipients: []NefRecipient{{
				Name:           sub.FilerName,
				DeliveryMethod: "electronic_nef",
				ServedAt:       &servedAt,
			}},
		},
	}

	p.log.Info("filing accepted",
		slog.String("filing_id", filingID),
		slog.String("case_number", sub.CaseNumber),
		slog.String("document_type", sub.DocumentType),
		slog.Int("deadlines", len(outcome.Report.Deadlines)))
	return outcome, nil
}

// Validate runs the same checks as Submit without issuing a receipt.
func (p *Pipeline) Validate(engine *rules.Engine, sub FilingSubmission) (*SubmissionOutcome, error) {
	return p.check(engine, sub)
}

func (p *Pipeline) check(engine *rules.Engine, sub FilingSubmission) (*SubmissionOutcome, error) {
	outcome := &SubmissionOutcome{}

	if sub.DocumentText != "" || sub.DocumentType != "" {
		scan := p.scanner.Scan(sub.DocumentText, sub.DocumentType)
		outcome.PrivacyScan = &scan
		if !scan.Clean {
			p.log.Info("filing rejected by privacy scan",
				slog.String("case_number", sub.CaseNumber),
				slog.Int("violations", len(scan.Violations)))
			return outcome, nil
		}
	}

	today := rules.Day(p.now())
	res, err := engine.EvaluateEvent(rules.TriggerDocumentFiled, sub.Context(), today, sub.ServiceMethod, today)
	if err != nil {
		return nil, fmt.Errorf("rule evaluation failed: %w", err)
	}

	outcome.Report = buildReport(res)
	outcome.Accepted = !outcome.Report.Blocked
	if outcome.Report.Blocked {
		p.log.Info("filing blocked by rule",
			slog.String("case_number", sub.CaseNumber),
			slog.Any("reasons", outcome.Report.BlockReasons))
	}
	return outcome, nil
}

// buildReport flattens an engine resolution into a compliance report.
func buildReport(res rules.Resolution) ComplianceReport {
	report := ComplianceReport{
		Blocked:      res.Blocked(),
		BlockReasons: res.BlockReasons(),
		Deadlines:    res.Deadlines,
	}

	for _, effect := range res.Effects {
		msg := effect.Action.Message
		if msg == "" {
			msg = effect.Action.Reason
		}
		report.Results = append(report.Results, RuleResult{
			RuleID:      effect.RuleID,
			RuleName:    effect.RuleName,
			ActionTaken: string(effect.Type),
			Message:     msg,
		})
	}

	for _, actionErr := range res.Errors {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("rule %s: %s", actionErr.RuleName, actionErr.Message))
	}

	return report
}

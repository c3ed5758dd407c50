package filing

import (
	"fmt"
	"regexp"
	"strings"
)

// PiiType categorizes personally identifiable information subject to
// redaction under FRCP 5.2 and FRCrP 49.1.
type PiiType string

const (
	PiiSSN              PiiType = "ssn"
	PiiTaxpayerID       PiiType = "taxpayer_id"
	PiiDateOfBirth      PiiType = "date_of_birth"
	PiiFinancialAccount PiiType = "financial_account"
)

// PiiMatch is one PII occurrence found during a privacy scan.
type PiiMatch struct {
	Type           PiiType `json:"pii_type"`
	StartPosition  int     `json:"start_position"`
	EndPosition    int     `json:"end_position"`
	OriginalText   string  `json:"original_text"`
	RequiredFormat string  `json:"required_format"`
}

// PrivacyScanResult is the outcome of scanning a document for PII.
type PrivacyScanResult struct {
	Clean             bool       `json:"clean"`
	Violations        []PiiMatch `json:"violations"`
	Restricted        bool       `json:"restricted"`
	RestrictionReason string     `json:"restriction_reason,omitempty"`
}

// restrictedDocTypes are document types withheld from public access
// regardless of content.
var restrictedDocTypes = map[string]string{
	"unexecuted_warrant":      "unexecuted arrest or search warrant",
	"presentence_report":      "presentence investigation report",
	"statement_of_reasons":    "statement of reasons in sentencing",
	"cja_financial_affidavit": "Criminal Justice Act financial affidavit",
	"juvenile_record":         "juvenile record",
	"juror_info":              "juror identifying information",
	"sealed_document":         "court-sealed document",
}

// PrivacyScanner checks document text for PII violations before a
// filing is accepted.
type PrivacyScanner interface {
	Scan(text, documentType string) PrivacyScanResult
}

// RedactionScanner is the default PrivacyScanner. It detects SSNs,
// taxpayer IDs, dates of birth, and financial account numbers with
// pattern matching, and filters the false positives common in court
// documents (case numbers, phone numbers, already-redacted values).
type RedactionScanner struct{}

func NewRedactionScanner() *RedactionScanner {
	return &RedactionScanner{}
}

var (
	ssnPattern     = regexp.MustCompile(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`)
	einPattern     = regexp.MustCompile(`\b\d{2}-\d{7}\b`)
	dobPattern     = regexp.MustCompile(`(?i)\b(?:born|birth|d\.o\.b\.?|dob)[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
	accountPattern = regexp.MustCompile(`(?i)\baccount\s+(?:no\.?|number|#)?\s*[:#]?\s*(\d{8,17})\b`)

	// Federal case number markers near a digit run mean it is a docket
	// number, not an SSN.
	caseNumberMarker = regexp.MustCompile(`(?i)\d:\d{2}-|(-cv-|-cr-|-mc-|-mj-|-po-)`)
)

// Scan checks the text for PII and the document type against the
// restricted list.
func (s *RedactionScanner) Scan(text, documentType string) PrivacyScanResult {
	result := PrivacyScanResult{Clean: true}

	if reason, ok := restrictedDocTypes[documentType]; ok {
		result.Restricted = true
		result.RestrictionReason = reason
	}

	result.Violations = append(result.Violations, s.scanSSN(text)...)
	result.Violations = append(result.Violations, s.scanEIN(text)...)
	result.Violations = append(result.Violations, s.scanDOB(text)...)
	result.Violations = append(result.Violations, s.scanAccounts(text)...)

	if len(result.Violations) > 0 {
		result.Clean = false
	}
	return result
}

func (s *RedactionScanner) scanSSN(text string) []PiiMatch {
	var matches []PiiMatch
	for _, loc := range ssnPattern.FindAllStringIndex(text, -1) {
		matched := text[loc[0]:loc[1]]
		if isRedacted(text, loc[0]) || isCaseNumberContext(text, loc[0]) || isPhoneContext(text, loc[0]) {
			continue
		}
		matches = append(matches, PiiMatch{
			Type:           PiiSSN,
			StartPosition:  loc[0],
			EndPosition:    loc[1],
			OriginalText:   matched,
			RequiredFormat: fmt.Sprintf("XXX-XX-%s", lastDigits(matched, 4)),
		})
	}
	return matches
}

func (s *RedactionScanner) scanEIN(text string) []PiiMatch {
	var matches []PiiMatch
	for _, loc := range einPattern.FindAllStringIndex(text, -1) {
		matched := text[loc[0]:loc[1]]
		if isCaseNumberContext(text, loc[0]) || isPhoneContext(text, loc[0]) {
			continue
		}
		matches = append(matches, PiiMatch{
			Type:           PiiTaxpayerID,
			StartPosition:  loc[0],
			EndPosition:    loc[1],
			OriginalText:   matched,
			RequiredFormat: fmt.Sprintf("XX-XXX%s", lastDigits(matched, 4)),
		})
	}
	return matches
}

func (s *RedactionScanner) scanDOB(text string) []PiiMatch {
	var matches []PiiMatch
	for _, loc := range dobPattern.FindAllStringSubmatchIndex(text, -1) {
		// Submatch 1 is the date itself.
		start, end := loc[2], loc[3]
		matched := text[start:end]
		year := matched[strings.LastIndex(matched, "/")+1:]
		matches = append(matches, PiiMatch{
			Type:           PiiDateOfBirth,
			StartPosition:  start,
			EndPosition:    end,
			OriginalText:   matched,
			RequiredFormat: year,
		})
	}
	return matches
}

func (s *RedactionScanner) scanAccounts(text string) []PiiMatch {
	var matches []PiiMatch
	for _, loc := range accountPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		matched := text[start:end]
		matches = append(matches, PiiMatch{
			Type:           PiiFinancialAccount,
			StartPosition:  start,
			EndPosition:    end,
			OriginalText:   matched,
			RequiredFormat: fmt.Sprintf("XXXX%s", lastDigits(matched, 4)),
		})
	}
	return matches
}

// isRedacted reports whether the match is the tail of an already
// redacted value like "XXX-XX-1234".
func isRedacted(text string, start int) bool {
	prefixStart := start - 7
	if prefixStart < 0 {
		return false
	}
	prefix := strings.ToLower(text[prefixStart:start])
	return prefix == "xxx-xx-" || prefix == "xxx xx "
}

// isCaseNumberContext reports whether the surrounding text looks like a
// federal docket number (e.g. "5:24-cv-05001").
func isCaseNumberContext(text string, start int) bool {
	windowStart := start - 20
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := start + 30
	if windowEnd > len(text) {
		windowEnd = len(text)
	}
	return caseNumberMarker.MatchString(text[windowStart:windowEnd])
}

// isPhoneContext reports whether the digits sit in a phone number
// context like "(479) 555-1234" or after "tel:".
func isPhoneContext(text string, start int) bool {
	windowStart := start - 30
	if windowStart < 0 {
		windowStart = 0
	}
	window := strings.ToLower(text[windowStart:start])
	if strings.Contains(window, "(") && strings.Contains(window, ")") {
		return true
	}
	for _, marker := range []string{"phone", "tel", "fax", "call", "mobile", "cell"} {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

func lastDigits(s string, n int) string {
	var digits []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) < n {
		return string(digits)
	}
	return string(digits[len(digits)-n:])
}

// Package intent maps normalized inbound message text to one of the
// bot's supported workflow intents. Classification is a fixed-priority
// list of substring predicates: the first matching rule wins, so a
// message containing both "validate" and "audit" always resolves the
// same way.
package intent

import "strings"

// Intent identifies which workflow an inbound message should trigger.
type Intent string

const (
	IntentValidateUpload   Intent = "VALIDATE_UPLOAD"
	IntentGenerateTemplate Intent = "GENERATE_TEMPLATE"
	IntentCustomPolicy     Intent = "CUSTOM_POLICY"
	IntentFraudDetection   Intent = "RUN_FRAUD_DETECTION"
	IntentRunAudit         Intent = "RUN_AUDIT"
	IntentThanks           Intent = "THANKS"
	IntentUnknown          Intent = "UNKNOWN"
)

// rule pairs a predicate with the intent it selects.
type rule struct {
	intent Intent
	match  func(text string, hasFile bool) bool
}

// rules is evaluated strictly in order. Reordering entries changes
// which intent wins for messages matching more than one predicate.
var rules = []rule{
	{IntentValidateUpload, func(t string, hasFile bool) bool {
		return strings.Contains(t, "validate") && hasFile
	}},
	{IntentGenerateTemplate, func(t string, _ bool) bool {
		return strings.Contains(t, "generate template") ||
			(strings.Contains(t, "template") && hasSectorKeyword(t))
	}},
	{IntentCustomPolicy, func(t string, _ bool) bool {
		return strings.Contains(t, "rules:") ||
			(strings.Contains(t, "create") && strings.Contains(t, "policy"))
	}},
	{IntentFraudDetection, func(t string, _ bool) bool {
		return strings.Contains(t, "run fraud detection")
	}},
	{IntentRunAudit, func(t string, _ bool) bool {
		return strings.Contains(t, "audit")
	}},
	// Bare "validate" with no attachment lands here, below "audit", so
	// the workflow can instruct the user to attach a PDF. With a file
	// the first rule already won.
	{IntentValidateUpload, func(t string, _ bool) bool {
		return strings.Contains(t, "validate")
	}},
	{IntentThanks, func(t string, _ bool) bool {
		return strings.Contains(t, "thanks")
	}},
}

// Classify resolves the intent for already-normalized (lower-cased,
// trimmed) message text. hasFile reports whether the message carried a
// document attachment. Pure: no side effects, same input same output.
func Classify(text string, hasFile bool) Intent {
	for _, r := range rules {
		if r.match(text, hasFile) {
			return r.intent
		}
	}
	return IntentUnknown
}

// sectorKeywords is the resolution priority for template sectors.
// First substring match wins; messages naming no sector fall back to
// finance.
var sectorKeywords = []struct {
	keywords []string
	sector   string
}{
	{[]string{"healthcare", "health"}, "healthcare"},
	{[]string{"insurance"}, "insurance"},
	{[]string{"finance"}, "finance"},
}

// DefaultSector is used when the message names no known sector.
const DefaultSector = "finance"

// ResolveSector picks the template sector mentioned in the normalized
// text, defaulting to finance.
func ResolveSector(text string) string {
	for _, entry := range sectorKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.sector
			}
		}
	}
	return DefaultSector
}

func hasSectorKeyword(text string) bool {
	for _, entry := range sectorKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

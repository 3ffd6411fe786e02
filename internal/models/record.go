package models

import "github.com/shopspring/decimal"

// AuditRecord represents one simulated expense claim entry subject to
// the fraud heuristics. Records are synthesized by the audit workflow
// and held per conversation thread until the next audit run overwrites
// them.
type AuditRecord struct {
	User              string          `json:"user"`
	Amount            decimal.Decimal `json:"amount"`
	Split             bool            `json:"split"`
	SameDay           bool            `json:"same_day"`
	NoReceipt         bool            `json:"no_receipt"`
	BackdatedApproval bool            `json:"backdated_approval"`
	Approver          string          `json:"approver,omitempty"`
}

// Fraud rule identifiers
const (
	RuleSplitClaim        = "SPLIT_CLAIM"
	RuleNoReceipt         = "HIGH_VALUE_NO_RECEIPT"
	RuleBackdatedApproval = "BACKDATED_APPROVAL"
)

// FraudFlag is a single finding produced by one rule firing on one
// record. Text is the human-readable line shown in the chat report.
type FraudFlag struct {
	Rule string `json:"rule"`
	User string `json:"user"`
	Text string `json:"text"`
}

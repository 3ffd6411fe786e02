// Package fraud evaluates a fixed set of heuristics over synthesized
// audit records and renders human-readable findings.
package fraud

import (
	"fmt"

	"github.com/compliancehq/compliancebot/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine applies the detection rules. Thresholds are configurable so
// tests can pin boundaries; NewEngine wires the production values.
type Engine struct {
	splitClaimCeiling decimal.Decimal // split claims under this amount are suspicious
	receiptFloor      decimal.Decimal // missing receipt above this amount is suspicious
	logger            *zap.Logger
}

// NewEngine creates an engine with the standard thresholds.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		splitClaimCeiling: decimal.NewFromInt(5000),
		receiptFloor:      decimal.NewFromInt(3000),
		logger:            logger,
	}
}

// Detect evaluates every rule against every record. Flags are emitted
// in record order, and one record may contribute several flags. Pure
// and deterministic; an empty input yields an empty result, which the
// caller renders as a positive "no anomalies" message.
func (e *Engine) Detect(records []models.AuditRecord) []models.FraudFlag {
	var flags []models.FraudFlag

	for _, rec := range records {
		if rec.Split && rec.SameDay && rec.Amount.LessThan(e.splitClaimCeiling) {
			flags = append(flags, models.FraudFlag{
				Rule: models.RuleSplitClaim,
				User: rec.User,
				Text: fmt.Sprintf("Split claim just under limit: %s submitted %s split across same-day claims",
					rec.User, rec.Amount.StringFixed(0)),
			})
		}

		if rec.NoReceipt && rec.Amount.GreaterThan(e.receiptFloor) {
			flags = append(flags, models.FraudFlag{
				Rule: models.RuleNoReceipt,
				User: rec.User,
				Text: fmt.Sprintf("High-value claim without receipt: %s claimed %s",
					rec.User, rec.Amount.StringFixed(0)),
			})
		}

		if rec.BackdatedApproval {
			approver := rec.Approver
			if approver == "" {
				// Malformed input: the flag still renders instead of failing.
				approver = "unknown"
			}
			flags = append(flags, models.FraudFlag{
				Rule: models.RuleBackdatedApproval,
				User: rec.User,
				Text: fmt.Sprintf("Backdated approval: %s approved %s's claim before submission",
					approver, rec.User),
			})
		}
	}

	if e.logger != nil {
		e.logger.Debug("Fraud detection pass complete",
			zap.Int("records", len(records)),
			zap.Int("flags", len(flags)))
	}

	return flags
}

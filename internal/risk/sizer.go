// Package risk provides position sizing for simulated strategies.
package risk

import (
	"github.com/shopspring/decimal"
)

// Sizer converts an equity risk budget into an order quantity. The
// quantity is the capital at risk divided by the stop distance, so a
// stop hit loses roughly the budgeted fraction of equity.
type Sizer struct {
	maxRiskPerTrade decimal.Decimal
	quantityStep    decimal.Decimal
}

// NewSizer creates a sizer. maxRiskPerTrade caps the per-trade risk
// fraction (zero means the default 10% cap). quantityStep rounds the
// computed quantity down to a multiple of the step (zero means whole
// units).
func NewSizer(maxRiskPerTrade, quantityStep decimal.Decimal) *Sizer {
	if maxRiskPerTrade.LessThanOrEqual(decimal.Zero) {
		maxRiskPerTrade = decimal.RequireFromString("0.1")
	}
	if quantityStep.LessThanOrEqual(decimal.Zero) {
		quantityStep = decimal.NewFromInt(1)
	}
	return &Sizer{
		maxRiskPerTrade: maxRiskPerTrade,
		quantityStep:    quantityStep,
	}
}

// Quantity computes the order quantity for a trade risking
// equity*riskPerTrade against the distance between entry and stop.
// Returns zero when the inputs cannot produce at least one quantity
// step.
func (s *Sizer) Quantity(equity, riskPerTrade, entry, stop decimal.Decimal) decimal.Decimal {
	if equity.LessThanOrEqual(decimal.Zero) || riskPerTrade.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if riskPerTrade.GreaterThan(s.maxRiskPerTrade) {
		riskPerTrade = s.maxRiskPerTrade
	}

	stopDistance := entry.Sub(stop).Abs()
	if stopDistance.IsZero() {
		return decimal.Zero
	}

	capitalAtRisk := equity.Mul(riskPerTrade)
	quantity := capitalAtRisk.Div(stopDistance)

	// Round down to the quantity step.
	steps := quantity.Div(s.quantityStep).Floor()
	return steps.Mul(s.quantityStep)
}

// RiskAmount returns the capital actually at risk for a quantity and
// stop distance.
func (s *Sizer) RiskAmount(quantity, entry, stop decimal.Decimal) decimal.Decimal {
	return entry.Sub(stop).Abs().Mul(quantity)
}

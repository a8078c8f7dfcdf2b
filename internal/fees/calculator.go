// Package fees computes trading fees from notional value.
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"
)

// Calculator computes per-trade fees. It is pure and stateless: the fee
// depends only on the execution price, quantity and quoting mode, never
// on position state.
type Calculator struct {
	rate     decimal.Decimal
	fixedFee decimal.Decimal
	minFee   decimal.Decimal
	maxFee   decimal.Decimal // zero means uncapped
}

// NewCalculator creates a fee calculator.
//
// rate is the percentage fee on notional value (0.001 = 0.1%), fixedFee
// is added per trade, and the result is clamped to [minFee, maxFee].
// A zero maxFee disables the cap.
func NewCalculator(rate, fixedFee, minFee, maxFee decimal.Decimal) *Calculator {
	return &Calculator{
		rate:     rate,
		fixedFee: fixedFee,
		minFee:   minFee,
		maxFee:   maxFee,
	}
}

// Calculate returns the fee for an execution at the given price and
// quantity. contractSize only matters in PIPS mode, where notional value
// scales by the contract size.
func (c *Calculator) Calculate(price, quantity decimal.Decimal, mode types.Mode, contractSize decimal.Decimal) (decimal.Decimal, error) {
	var notional decimal.Decimal
	switch mode {
	case types.ModeFiat, types.ModeTicks, types.ModePoints:
		notional = price.Mul(quantity)
	case types.ModePips:
		notional = price.Mul(contractSize).Mul(quantity)
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", types.ErrUnknownMode, mode)
	}

	fee := notional.Mul(c.rate).Add(c.fixedFee)

	// Cap first, then floor. A min above the cap wins, matching the
	// clamp order max(min, min(max, fee)).
	if !c.maxFee.IsZero() && fee.GreaterThan(c.maxFee) {
		fee = c.maxFee
	}
	if fee.LessThan(c.minFee) {
		fee = c.minFee
	}

	return fee, nil
}

// Slippage returns the price impact for a fill at the given price using
// a single linear multiplier (0.0001 = 0.01%).
func (c *Calculator) Slippage(price, slippageRate decimal.Decimal) decimal.Decimal {
	return price.Mul(slippageRate)
}

// Package pnl computes profit and loss across quoting conventions.
package pnl

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"
)

// Config holds the instrument parameters for PnL conversion.
type Config struct {
	Mode         types.Mode
	TickSize     decimal.Decimal // TICKS: minimum price increment
	TickValue    decimal.Decimal // TICKS: account-currency value of one tick
	PipPosition  int             // PIPS: decimal position of a pip (4 for most pairs)
	ContractSize decimal.Decimal // PIPS: standard lot size
}

// DefaultConfig returns common instrument defaults: futures ticks of
// 0.01 worth 1.0, forex pips at the 4th decimal on a 100k lot.
func DefaultConfig() Config {
	return Config{
		Mode:         types.ModeFiat,
		TickSize:     decimal.RequireFromString("0.01"),
		TickValue:    decimal.NewFromInt(1),
		PipPosition:  4,
		ContractSize: decimal.NewFromInt(100000),
	}
}

// Calculator converts price differences into account-currency PnL for
// one of the four quoting modes. Pure and stateless.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a PnL calculator for the given instrument config.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Mode returns the configured quoting mode.
func (c *Calculator) Mode() types.Mode {
	return c.cfg.Mode
}

// ContractSize returns the configured contract size.
func (c *Calculator) ContractSize() decimal.Decimal {
	return c.cfg.ContractSize
}

// PnL returns the signed profit or loss for moving from entryPrice to
// exitPrice with the given absolute quantity. side is the side that
// originally opened the position: a BUY side profits when price rises,
// a SELL side when it falls.
func (c *Calculator) PnL(entryPrice, exitPrice, quantity decimal.Decimal, side types.Side) (decimal.Decimal, error) {
	diff := exitPrice.Sub(entryPrice)
	if side == types.SideSell {
		diff = entryPrice.Sub(exitPrice)
	}

	switch c.cfg.Mode {
	case types.ModeFiat, types.ModePoints:
		return diff.Mul(quantity), nil
	case types.ModeTicks:
		ticks := diff.Div(c.cfg.TickSize)
		return ticks.Mul(c.cfg.TickValue).Mul(quantity), nil
	case types.ModePips:
		// pips * (contractSize / 10^pipPosition) * quantity, which
		// reduces exactly to diff * contractSize * quantity.
		return diff.Mul(c.cfg.ContractSize).Mul(quantity), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", types.ErrUnknownMode, c.cfg.Mode)
	}
}

// Pips converts a price difference to pips for the configured pip
// position. Display helper for PIPS mode.
func (c *Calculator) Pips(priceDiff decimal.Decimal) decimal.Decimal {
	return priceDiff.Mul(decimal.New(1, int32(c.cfg.PipPosition)))
}

// Notional returns the notional value of a position at the given price.
// PIPS mode scales by contract size; every other mode is price*quantity.
func (c *Calculator) Notional(price, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch c.cfg.Mode {
	case types.ModeFiat, types.ModeTicks, types.ModePoints:
		return price.Mul(quantity), nil
	case types.ModePips:
		return price.Mul(c.cfg.ContractSize).Mul(quantity), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %d", types.ErrUnknownMode, c.cfg.Mode)
	}
}

// RequiredMargin returns the margin needed to hold quantity at price
// with the given leverage (1 = unleveraged).
func (c *Calculator) RequiredMargin(price, quantity, leverage decimal.Decimal) (decimal.Decimal, error) {
	notional, err := c.Notional(price, quantity)
	if err != nil {
		return decimal.Zero, err
	}
	return notional.Div(leverage), nil
}

// Package position tracks the running aggregate position and its PnL.
package position

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/pnl"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Manager owns the single aggregate position and the trade history.
// Each trade is applied exactly once via a pure transition on the
// position value: opening, adding, reducing, closing or reversing.
//
// Not safe for concurrent use; a Manager belongs to exactly one
// simulator instance.
type Manager struct {
	calc   *pnl.Calculator
	logger *slog.Logger

	position types.Position
	history  []types.Trade
}

// NewManager creates a position manager.
func NewManager(calc *pnl.Calculator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		calc:   calc,
		logger: logger,
	}
}

// Apply folds an executed trade into the position. For closing trades it
// stamps the realized PnL (net of the trade's fees) onto the trade
// before recording it in the history.
func (m *Manager) Apply(trade *types.Trade) error {
	m.position.TotalFees = m.position.TotalFees.Add(trade.Fees)

	next, err := apply(m.calc, m.position, trade)
	if err != nil {
		return err
	}
	m.position = next
	m.history = append(m.history, *trade)

	m.logger.Debug("position updated",
		"trade_id", trade.ID,
		"side", trade.Side.String(),
		"quantity", m.position.Quantity,
		"average_price", m.position.AveragePrice,
		"realized_pnl", m.position.RealizedPnL,
	)
	return nil
}

// apply is the pure transition (position, trade) -> position. It mutates
// only trade.RealizedPnL, which carries the closing leg's result.
func apply(calc *pnl.Calculator, pos types.Position, trade *types.Trade) (types.Position, error) {
	signedQty := trade.Quantity
	if trade.Side == types.SideSell {
		signedQty = trade.Quantity.Neg()
	}

	switch {
	case pos.Quantity.IsZero():
		// Opening
		pos.Quantity = signedQty
		pos.AveragePrice = trade.Price
		trade.RealizedPnL = decimal.Zero

	case pos.Quantity.Sign() == signedQty.Sign():
		// Adding: fee-free weighted average entry price.
		absQty := pos.Quantity.Abs()
		totalCost := pos.AveragePrice.Mul(absQty).Add(trade.Price.Mul(trade.Quantity))
		pos.Quantity = pos.Quantity.Add(signedQty)
		pos.AveragePrice = totalCost.Div(pos.Quantity.Abs())
		trade.RealizedPnL = decimal.Zero

	case pos.Quantity.Abs().GreaterThanOrEqual(trade.Quantity):
		// Reducing or fully closing.
		realized, err := calc.PnL(pos.AveragePrice, trade.Price, trade.Quantity, pos.Side())
		if err != nil {
			return pos, fmt.Errorf("realize pnl: %w", err)
		}
		realized = realized.Sub(trade.Fees)
		pos.RealizedPnL = pos.RealizedPnL.Add(realized)
		trade.RealizedPnL = realized

		pos.Quantity = pos.Quantity.Add(signedQty)
		if pos.Quantity.IsZero() {
			pos.AveragePrice = decimal.Zero
		}

	default:
		// Reversing: close the full position, then open the remainder
		// in the opposite direction at the trade price. Fees are
		// apportioned to the closing leg by closed/total quantity.
		closeQty := pos.Quantity.Abs()
		realized, err := calc.PnL(pos.AveragePrice, trade.Price, closeQty, pos.Side())
		if err != nil {
			return pos, fmt.Errorf("realize pnl: %w", err)
		}
		closeFees := trade.Fees.Mul(closeQty).Div(trade.Quantity)
		realized = realized.Sub(closeFees)
		pos.RealizedPnL = pos.RealizedPnL.Add(realized)
		trade.RealizedPnL = realized

		remaining := trade.Quantity.Sub(closeQty)
		if trade.Side == types.SideSell {
			remaining = remaining.Neg()
		}
		pos.Quantity = remaining
		pos.AveragePrice = trade.Price
	}

	return pos, nil
}

// UpdateUnrealized recomputes unrealized PnL from scratch at the given
// market price. Flat positions carry zero unrealized PnL.
func (m *Manager) UpdateUnrealized(currentPrice decimal.Decimal) error {
	if m.position.IsFlat() {
		m.position.UnrealizedPnL = decimal.Zero
		return nil
	}

	unrealized, err := m.calc.PnL(m.position.AveragePrice, currentPrice, m.position.Quantity.Abs(), m.position.Side())
	if err != nil {
		return fmt.Errorf("unrealized pnl: %w", err)
	}
	m.position.UnrealizedPnL = unrealized
	return nil
}

// Position returns a snapshot of the current position.
func (m *Manager) Position() types.Position {
	return m.position
}

// History returns a copy of the trade history.
func (m *Manager) History() []types.Trade {
	out := make([]types.Trade, len(m.history))
	copy(out, m.history)
	return out
}

// Summary returns the PnL summary. Realized already nets out closing
// fees; Fees is informational gross fees and is not part of Net.
func (m *Manager) Summary() types.PnLSummary {
	total := m.position.RealizedPnL.Add(m.position.UnrealizedPnL)
	return types.PnLSummary{
		Realized:   m.position.RealizedPnL,
		Unrealized: m.position.UnrealizedPnL,
		Total:      total,
		Fees:       m.position.TotalFees,
		Net:        total,
	}
}

// Reset replaces the position with the flat zero state and clears the
// trade history.
func (m *Manager) Reset() {
	m.position = types.Position{}
	m.history = nil
}

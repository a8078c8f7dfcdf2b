// Package orders manages the set of resting orders and their execution.
package orders

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/fees"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Manager owns the pending order collection and the filled order log.
// Pending orders keep their insertion order, which is the order they are
// evaluated in when matched against a candle.
//
// Not safe for concurrent use; a Manager belongs to exactly one
// simulator instance.
type Manager struct {
	feeCalc      *fees.Calculator
	mode         types.Mode
	contractSize decimal.Decimal
	logger       *slog.Logger

	pending []*types.Order
	filled  []*types.Order
}

// NewManager creates an order manager.
func NewManager(feeCalc *fees.Calculator, mode types.Mode, contractSize decimal.Decimal, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		feeCalc:      feeCalc,
		mode:         mode,
		contractSize: contractSize,
		logger:       logger,
	}
}

// Add queues a resting order. Market orders are rejected: they must be
// executed synchronously, never queued.
func (m *Manager) Add(order *types.Order) error {
	if order.Type == types.OrderTypeMarket {
		return types.ErrMarketOrderResting
	}
	m.pending = append(m.pending, order)
	m.logger.Debug("order queued",
		"order_id", order.ID,
		"type", order.Type.String(),
		"side", order.Side.String(),
		"quantity", order.Quantity,
		"price", order.Price,
	)
	return nil
}

// ExecuteMarket fills a market order at the current price and returns
// the resulting trade.
func (m *Manager) ExecuteMarket(order *types.Order, currentPrice decimal.Decimal, now time.Time) (types.Trade, error) {
	if order.Type != types.OrderTypeMarket {
		return types.Trade{}, types.ErrNotMarketOrder
	}

	fee, err := m.feeCalc.Calculate(currentPrice, order.Quantity, m.mode, m.contractSize)
	if err != nil {
		return types.Trade{}, fmt.Errorf("calculate fee: %w", err)
	}

	order.Status = types.OrderStatusFilled
	order.FilledAt = now
	order.FilledPrice = currentPrice
	order.Fees = fee
	m.filled = append(m.filled, order)

	trade := types.Trade{
		ID:        uuid.New().String(),
		Side:      order.Side,
		Quantity:  order.Quantity,
		Price:     currentPrice,
		Fees:      fee,
		Timestamp: order.FilledAt,
	}

	m.logger.Info("market order filled",
		"order_id", order.ID,
		"side", order.Side.String(),
		"quantity", order.Quantity,
		"price", currentPrice,
		"fees", fee,
	)

	return trade, nil
}

// Match evaluates every pending order against the candle, in insertion
// order. Orders whose trigger condition holds are filled at their
// trigger price (resting-order execution, not slippage-to-market),
// moved to the filled log, and emitted as trades. Several orders may
// fill within the same candle; each order fills at most once.
func (m *Manager) Match(candle types.Candle) ([]types.Trade, error) {
	var trades []types.Trade
	remaining := m.pending[:0]

	for _, order := range m.pending {
		if !m.triggered(order, candle) {
			remaining = append(remaining, order)
			continue
		}

		fee, err := m.feeCalc.Calculate(order.Price, order.Quantity, m.mode, m.contractSize)
		if err != nil {
			return nil, fmt.Errorf("calculate fee: %w", err)
		}

		order.Status = types.OrderStatusFilled
		order.FilledAt = candle.Timestamp
		order.FilledPrice = order.Price
		order.Fees = fee
		m.filled = append(m.filled, order)

		trades = append(trades, types.Trade{
			ID:        uuid.New().String(),
			Side:      order.Side,
			Quantity:  order.Quantity,
			Price:     order.Price,
			Fees:      fee,
			Timestamp: candle.Timestamp,
		})

		m.logger.Info("resting order filled",
			"order_id", order.ID,
			"type", order.Type.String(),
			"side", order.Side.String(),
			"quantity", order.Quantity,
			"price", order.Price,
			"fees", fee,
		)
	}

	m.pending = remaining
	return trades, nil
}

// triggered reports whether the candle touches the order's trigger.
//
// LIMIT and TAKE_PROFIT share touch-price semantics: a BUY fills when
// the low reaches down to the trigger, a SELL when the high reaches up.
// STOP_LOSS uses the inverted breakout rule: a BUY stop fills when the
// high breaks up through the trigger, a SELL stop when the low breaks
// down through it.
func (m *Manager) triggered(order *types.Order, candle types.Candle) bool {
	switch order.Type {
	case types.OrderTypeLimit, types.OrderTypeTakeProfit:
		if order.Side == types.SideBuy {
			return candle.Low.LessThanOrEqual(order.Price)
		}
		return candle.High.GreaterThanOrEqual(order.Price)
	case types.OrderTypeStopLoss:
		if order.Side == types.SideBuy {
			return candle.High.GreaterThanOrEqual(order.Price)
		}
		return candle.Low.LessThanOrEqual(order.Price)
	default:
		return false
	}
}

// Cancel removes a pending order by id and marks it CANCELLED. Returns
// false if no pending order has that id.
func (m *Manager) Cancel(orderID string) bool {
	for i, order := range m.pending {
		if order.ID == orderID {
			order.Status = types.OrderStatusCancelled
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			m.logger.Info("order cancelled", "order_id", orderID)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending orders in insertion order.
func (m *Manager) Pending() []types.Order {
	out := make([]types.Order, len(m.pending))
	for i, o := range m.pending {
		out[i] = *o
	}
	return out
}

// Filled returns a copy of the filled order log.
func (m *Manager) Filled() []types.Order {
	out := make([]types.Order, len(m.filled))
	for i, o := range m.filled {
		out[i] = *o
	}
	return out
}

// PendingCount returns the number of resting orders.
func (m *Manager) PendingCount() int {
	return len(m.pending)
}

// Reset drops all pending orders and clears the filled log.
func (m *Manager) Reset() {
	m.pending = nil
	m.filled = nil
}

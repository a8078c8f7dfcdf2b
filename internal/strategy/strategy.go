// Package strategy implements candle-driven trading strategies that
// place orders on a simulator.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Strategy drives a simulator one candle at a time. OnCandle has the
// same signature as the replay runner's bar callback, so a strategy can
// be handed to a runner directly.
type Strategy interface {
	// OnCandle is invoked after the candle has been applied to the
	// simulator, with the fills it produced.
	OnCandle(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error

	// Name returns the strategy identifier.
	Name() string

	// Reset clears all strategy state.
	Reset()
}

// cancelPending cancels every resting order on the simulator. Used by
// strategies to clear leftover protective or grid orders once flat.
func cancelPending(s *sim.Simulator) {
	for _, order := range s.PendingOrders() {
		s.CancelOrder(order.ID)
	}
}

// highest returns the largest value in the slice, zero when empty.
func highest(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	high := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(high) {
			high = v
		}
	}
	return high
}

// lowest returns the smallest value in the slice, zero when empty.
func lowest(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	low := values[0]
	for _, v := range values[1:] {
		if v.LessThan(low) {
			low = v
		}
	}
	return low
}

package strategy

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// GridConfig holds configuration for the grid strategy.
type GridConfig struct {
	Levels        int             // resting orders placed per grid
	SpacingPct    decimal.Decimal // distance between levels as a fraction of price
	TakeProfitPct decimal.Decimal // rebound from average entry that flattens the grid
	StopLossPct   decimal.Decimal // adverse move from average entry that flattens the grid
	LevelQuantity decimal.Decimal // quantity per level
}

// DefaultGridConfig returns sensible defaults for intraday bars.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Levels:        5,
		SpacingPct:    decimal.RequireFromString("0.002"),
		TakeProfitPct: decimal.RequireFromString("0.003"),
		StopLossPct:   decimal.RequireFromString("0.015"),
		LevelQuantity: decimal.NewFromInt(1),
	}
}

// Grid lays a ladder of resting limit buys below the current price and
// accumulates as the price dips through them. The whole position is
// flattened with a market order once the price rebounds the configured
// fraction above the average entry, or stopped out on a deeper slide.
type Grid struct {
	cfg      GridConfig
	anchored bool
}

// NewGrid creates a grid strategy.
func NewGrid(cfg GridConfig) *Grid {
	return &Grid{cfg: cfg}
}

// OnCandle maintains the ladder and manages the exit.
func (g *Grid) OnCandle(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error {
	position := s.Position()

	if !position.IsFlat() {
		avg := position.AveragePrice
		target := avg.Mul(decimal.NewFromInt(1).Add(g.cfg.TakeProfitPct))
		stop := avg.Mul(decimal.NewFromInt(1).Sub(g.cfg.StopLossPct))

		if candle.Close.GreaterThanOrEqual(target) || candle.Close.LessThanOrEqual(stop) {
			return g.flatten(s, position)
		}
		return nil
	}

	// Flat with a stale ladder from a completed round trip: clear and
	// re-anchor at the current price.
	if g.anchored && len(s.PendingOrders()) > 0 && !g.ladderTouched(s) {
		return nil
	}
	cancelPending(s)

	spacing := candle.Close.Mul(g.cfg.SpacingPct)
	for level := 1; level <= g.cfg.Levels; level++ {
		price := candle.Close.Sub(spacing.Mul(decimal.NewFromInt(int64(level))))
		if price.LessThanOrEqual(decimal.Zero) {
			break
		}
		if _, err := s.PlaceOrder(sim.OrderRequest{
			Type:     types.OrderTypeLimit,
			Side:     types.SideBuy,
			Quantity: g.cfg.LevelQuantity,
			Price:    price,
		}); err != nil {
			return err
		}
	}
	g.anchored = true

	return nil
}

// ladderTouched reports whether any rung of the current ladder has
// filled.
func (g *Grid) ladderTouched(s *sim.Simulator) bool {
	return len(s.PendingOrders()) < g.cfg.Levels
}

// flatten closes the whole position at market and clears the ladder.
func (g *Grid) flatten(s *sim.Simulator, position types.Position) error {
	cancelPending(s)
	g.anchored = false

	_, err := s.PlaceOrder(sim.OrderRequest{
		Type:     types.OrderTypeMarket,
		Side:     position.Side().Opposite(),
		Quantity: position.Quantity.Abs(),
	})
	if errors.Is(err, types.ErrInsufficientBalance) {
		return nil
	}
	return err
}

// Name returns the strategy name.
func (g *Grid) Name() string {
	return "grid"
}

// Reset clears all state.
func (g *Grid) Reset() {
	g.anchored = false
}

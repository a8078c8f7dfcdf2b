package strategy

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/risk"
	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
	"github.com/Morgiver/trading-simulator/pkg/indicator"
)

// BreakoutConfig holds configuration for the breakout strategy.
type BreakoutConfig struct {
	LookbackBars  int             // bars defining the trading range
	BreakoutPct   decimal.Decimal // buffer beyond the range as a fraction of its width
	ATRPeriod     int             // lookback for the stop distance
	ATRMultiplier decimal.Decimal // stop distance in ATRs
	RiskPerTrade  decimal.Decimal // equity fraction risked per entry
}

// DefaultBreakoutConfig returns sensible defaults.
func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		LookbackBars:  20,
		BreakoutPct:   decimal.RequireFromString("0.0005"),
		ATRPeriod:     14,
		ATRMultiplier: decimal.RequireFromString("2.0"),
		RiskPerTrade:  decimal.RequireFromString("0.01"),
	}
}

// Breakout buys when the close breaks above the highest high of the
// lookback range and sells short on a break below the lowest low. Each
// range breaks at most once per side until the range itself moves.
type Breakout struct {
	cfg   BreakoutConfig
	atr   *indicator.ATR
	sizer *risk.Sizer

	highs []decimal.Decimal
	lows  []decimal.Decimal

	signalledLong  bool
	signalledShort bool
	lastRangeHigh  decimal.Decimal
	lastRangeLow   decimal.Decimal
}

// NewBreakout creates a breakout strategy.
func NewBreakout(cfg BreakoutConfig) *Breakout {
	return &Breakout{
		cfg:   cfg,
		atr:   indicator.NewATR(cfg.ATRPeriod),
		sizer: risk.NewSizer(decimal.Zero, decimal.Zero),
		highs: make([]decimal.Decimal, 0, cfg.LookbackBars),
		lows:  make([]decimal.Decimal, 0, cfg.LookbackBars),
	}
}

// OnCandle tracks the range and enters on a close beyond it.
func (b *Breakout) OnCandle(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error {
	atr := b.atr.Update(candle.High, candle.Low, candle.Close)

	b.highs = append(b.highs, candle.High)
	b.lows = append(b.lows, candle.Low)
	if len(b.highs) > b.cfg.LookbackBars {
		b.highs = b.highs[1:]
		b.lows = b.lows[1:]
	}
	if len(b.highs) < b.cfg.LookbackBars || !b.atr.Ready() {
		return nil
	}

	// Range excludes the current bar.
	rangeHigh := highest(b.highs[:len(b.highs)-1])
	rangeLow := lowest(b.lows[:len(b.lows)-1])

	if !rangeHigh.Equal(b.lastRangeHigh) || !rangeLow.Equal(b.lastRangeLow) {
		b.signalledLong = false
		b.signalledShort = false
		b.lastRangeHigh = rangeHigh
		b.lastRangeLow = rangeLow
	}

	position := s.Position()
	if position.IsFlat() {
		cancelPending(s)
	} else {
		return nil
	}

	buffer := rangeHigh.Sub(rangeLow).Mul(b.cfg.BreakoutPct)
	stopDistance := atr.Mul(b.cfg.ATRMultiplier)

	switch {
	case candle.Close.GreaterThan(rangeHigh.Add(buffer)) && !b.signalledLong:
		b.signalledLong = true
		stop := candle.Close.Sub(stopDistance)
		return b.enter(s, types.SideBuy, candle.Close, stop)

	case candle.Close.LessThan(rangeLow.Sub(buffer)) && !b.signalledShort:
		b.signalledShort = true
		stop := candle.Close.Add(stopDistance)
		return b.enter(s, types.SideSell, candle.Close, stop)
	}

	return nil
}

// enter places a sized market order with a protective stop.
func (b *Breakout) enter(s *sim.Simulator, side types.Side, entry, stop decimal.Decimal) error {
	quantity := b.sizer.Quantity(s.State().Equity, b.cfg.RiskPerTrade, entry, stop)
	if quantity.IsZero() {
		return nil
	}

	_, err := s.PlaceOrder(sim.OrderRequest{
		Type:     types.OrderTypeMarket,
		Side:     side,
		Quantity: quantity,
		StopLoss: stop,
	})
	if errors.Is(err, types.ErrInsufficientBalance) {
		return nil
	}
	return err
}

// Name returns the strategy name.
func (b *Breakout) Name() string {
	return "breakout"
}

// Reset clears all state.
func (b *Breakout) Reset() {
	b.atr.Reset()
	b.highs = b.highs[:0]
	b.lows = b.lows[:0]
	b.signalledLong = false
	b.signalledShort = false
	b.lastRangeHigh = decimal.Zero
	b.lastRangeLow = decimal.Zero
}

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

// MeanRevConfig holds configuration for the mean reversion strategy.
type MeanRevConfig struct {
	Period        int             // lookback for mean and deviation
	EntryStdDev   decimal.Decimal // deviations from the mean to enter
	ATRPeriod     int             // lookback for the stop distance
	ATRMultiplier decimal.Decimal // stop distance in ATRs
	RiskPerTrade  decimal.Decimal // equity fraction risked per entry
}

// DefaultMeanRevConfig returns sensible defaults.
func DefaultMeanRevConfig() MeanRevConfig {
	return MeanRevConfig{
		Period:        20,
		EntryStdDev:   decimal.RequireFromString("2.0"),
		ATRPeriod:     14,
		ATRMultiplier: decimal.RequireFromString("1.5"),
		RiskPerTrade:  decimal.RequireFromString("0.01"),
	}
}

// MeanReversion buys when the close drops below the lower deviation
// band and sells short when it rises above the upper band, with a
// protective stop an ATR multiple away and a take-profit at the mean.
// Exits ride on the derived stop-loss and take-profit orders.
type MeanReversion struct {
	cfg    MeanRevConfig
	sma    *indicator.SMA
	stddev *indicator.StdDev
	atr    *indicator.ATR
	sizer  *risk.Sizer

	signalledUp   bool
	signalledDown bool
}

// NewMeanReversion creates a mean reversion strategy.
func NewMeanReversion(cfg MeanRevConfig) *MeanReversion {
	return &MeanReversion{
		cfg:    cfg,
		sma:    indicator.NewSMA(cfg.Period),
		stddev: indicator.NewStdDev(cfg.Period),
		atr:    indicator.NewATR(cfg.ATRPeriod),
		sizer:  risk.NewSizer(decimal.Zero, decimal.Zero),
	}
}

// OnCandle updates the bands and enters when the close breaches one.
func (m *MeanReversion) OnCandle(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error {
	// Bands from the bars before this one.
	mean := m.sma.Current()
	deviation := m.stddev.Current().Mul(m.cfg.EntryStdDev)
	wasReady := m.sma.Ready() && m.stddev.Ready() && m.atr.Ready()

	m.sma.Update(candle.Close)
	m.stddev.Update(candle.Close)
	atr := m.atr.Update(candle.High, candle.Low, candle.Close)

	if !wasReady {
		return nil
	}

	position := s.Position()
	if position.IsFlat() {
		// Drop protective orders left over from the previous trade.
		cancelPending(s)
	} else {
		return nil
	}

	upperBand := mean.Add(deviation)
	lowerBand := mean.Sub(deviation)
	stopDistance := atr.Mul(m.cfg.ATRMultiplier)

	switch {
	case candle.Close.LessThan(lowerBand) && !m.signalledDown:
		m.signalledDown = true
		m.signalledUp = false
		stop := candle.Close.Sub(stopDistance)
		return m.enter(s, types.SideBuy, candle.Close, stop, mean)

	case candle.Close.GreaterThan(upperBand) && !m.signalledUp:
		m.signalledUp = true
		m.signalledDown = false
		stop := candle.Close.Add(stopDistance)
		return m.enter(s, types.SideSell, candle.Close, stop, mean)

	case candle.Close.GreaterThan(lowerBand) && candle.Close.LessThan(upperBand):
		// Back inside the bands, arm both sides again.
		m.signalledUp = false
		m.signalledDown = false
	}

	return nil
}

// enter places a sized market order with protective stop and target.
func (m *MeanReversion) enter(s *sim.Simulator, side types.Side, entry, stop, target decimal.Decimal) error {
	quantity := m.sizer.Quantity(s.State().Equity, m.cfg.RiskPerTrade, entry, stop)
	if quantity.IsZero() {
		return nil
	}

	_, err := s.PlaceOrder(sim.OrderRequest{
		Type:       types.OrderTypeMarket,
		Side:       side,
		Quantity:   quantity,
		StopLoss:   stop,
		TakeProfit: target,
	})
	if errors.Is(err, types.ErrInsufficientBalance) {
		return nil
	}
	return err
}

// Name returns the strategy name.
func (m *MeanReversion) Name() string {
	return "meanrev"
}

// Reset clears all state.
func (m *MeanReversion) Reset() {
	m.sma.Reset()
	m.stddev.Reset()
	m.atr.Reset()
	m.signalledUp = false
	m.signalledDown = false
}

// Bands returns the current upper and lower entry bands.
func (m *MeanReversion) Bands() (upper, lower decimal.Decimal) {
	mean := m.sma.Current()
	deviation := m.stddev.Current().Mul(m.cfg.EntryStdDev)
	return mean.Add(deviation), mean.Sub(deviation)
}

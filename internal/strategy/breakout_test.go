package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

func testBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		LookbackBars:  3,
		BreakoutPct:   decimal.Zero,
		ATRPeriod:     3,
		ATRMultiplier: decimal.NewFromInt(2),
		RiskPerTrade:  decimal.RequireFromString("0.01"),
	}
}

func TestBreakout_NoEntryInsideRange(t *testing.T) {
	s := newStrategySim(t)
	st := NewBreakout(testBreakoutConfig())

	for bar := 0; bar < 4; bar++ {
		feedBar(t, s, st, bar, "99", "101", "100")
	}

	if !s.Position().IsFlat() {
		t.Error("position opened inside the range")
	}
}

func TestBreakout_EntersOnBreakAboveRange(t *testing.T) {
	s := newStrategySim(t)
	st := NewBreakout(testBreakoutConfig())

	// Three bars establish a 99-101 range.
	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "99", "101", "100")
	}

	// Close above the range high of the prior bars.
	feedBar(t, s, st, 3, "101", "104", "103")

	position := s.Position()
	if !position.IsLong() {
		t.Fatal("expected a long position after the breakout")
	}
	// 1% of 10000 against the 2x ATR stop sizes to 18 units.
	if !position.Quantity.Equal(decimal.NewFromInt(18)) {
		t.Errorf("Quantity = %s, want 18", position.Quantity)
	}
	if !position.AveragePrice.Equal(decimal.NewFromInt(103)) {
		t.Errorf("AveragePrice = %s, want 103", position.AveragePrice)
	}

	pending := s.PendingOrders()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want the protective stop only", len(pending))
	}
	if pending[0].Type != types.OrderTypeStopLoss || pending[0].Side != types.SideSell {
		t.Errorf("pending = %s %s, want STOP_LOSS SELL", pending[0].Type, pending[0].Side)
	}
	if !pending[0].Price.LessThan(decimal.NewFromInt(103)) {
		t.Errorf("stop price = %s, want below the entry", pending[0].Price)
	}
}

func TestBreakout_EntersOnBreakBelowRange(t *testing.T) {
	s := newStrategySim(t)
	st := NewBreakout(testBreakoutConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "99", "101", "100")
	}
	feedBar(t, s, st, 3, "96", "99", "97")

	if !s.Position().IsShort() {
		t.Fatal("expected a short position after the breakdown")
	}
}

func TestBreakout_SignalsOncePerRange(t *testing.T) {
	s := newStrategySim(t)
	st := NewBreakout(testBreakoutConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "99", "101", "100")
	}
	feedBar(t, s, st, 3, "101", "104", "103")

	trades := len(s.TradeHistory())

	// Flatten by hand. The next bar's range includes the breakout high,
	// so the same close no longer clears it.
	pos := s.Position()
	if _, err := s.PlaceOrder(sim.OrderRequest{
		Type:     types.OrderTypeMarket,
		Side:     types.SideSell,
		Quantity: pos.Quantity,
	}); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	feedBar(t, s, st, 4, "102", "104", "103")

	if got := len(s.TradeHistory()); got != trades+1 {
		t.Errorf("trades = %d, want %d (no re-entry)", got, trades+1)
	}
}

func TestBreakout_Reset(t *testing.T) {
	s := newStrategySim(t)
	st := NewBreakout(testBreakoutConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "99", "101", "100")
	}
	st.Reset()

	// A breakout bar right after a reset is still warm-up.
	feedBar(t, s, st, 3, "101", "104", "103")
	if !s.Position().IsFlat() {
		t.Error("position opened during post-reset warm-up")
	}
}

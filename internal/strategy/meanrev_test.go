package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

func newStrategySim(t *testing.T) *sim.Simulator {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("sim.New failed: %v", err)
	}
	return s
}

// feedBar applies a candle the way the replay runner does: update the
// simulator, then hand the fills to the strategy.
func feedBar(t *testing.T, s *sim.Simulator, st Strategy, bar int, low, high, close string) {
	t.Helper()
	candle := types.Candle{
		Timestamp: time.Date(2024, 3, 1, 0, bar, 0, 0, time.UTC),
		Open:      decimal.RequireFromString(close),
		High:      decimal.RequireFromString(high),
		Low:       decimal.RequireFromString(low),
		Close:     decimal.RequireFromString(close),
		Volume:    100,
	}
	fills, err := s.UpdateMarket(candle)
	if err != nil {
		t.Fatalf("bar %d: UpdateMarket failed: %v", bar, err)
	}
	if err := st.OnCandle(context.Background(), s, candle, fills); err != nil {
		t.Fatalf("bar %d: OnCandle failed: %v", bar, err)
	}
}

func testMeanRevConfig() MeanRevConfig {
	return MeanRevConfig{
		Period:        3,
		EntryStdDev:   decimal.NewFromInt(1),
		ATRPeriod:     3,
		ATRMultiplier: decimal.RequireFromString("1.5"),
		RiskPerTrade:  decimal.RequireFromString("0.01"),
	}
}

func TestMeanReversion_NoEntryDuringWarmup(t *testing.T) {
	s := newStrategySim(t)
	st := NewMeanReversion(testMeanRevConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "100", "100", "100")
	}

	if !s.Position().IsFlat() {
		t.Error("position opened during warm-up")
	}
	if len(s.PendingOrders()) != 0 {
		t.Error("orders placed during warm-up")
	}
}

func TestMeanReversion_EntersBelowLowerBand(t *testing.T) {
	s := newStrategySim(t)
	st := NewMeanReversion(testMeanRevConfig())

	// Flat series pins both bands at 100.
	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "100", "100", "100")
	}

	// Sharp drop through the (degenerate) lower band.
	feedBar(t, s, st, 3, "89", "91", "90")

	position := s.Position()
	if !position.IsLong() {
		t.Fatal("expected a long position after the drop")
	}
	// Risking 1% of 10000 against the 1.5x ATR stop sizes to 18 units.
	if !position.Quantity.Equal(decimal.NewFromInt(18)) {
		t.Errorf("Quantity = %s, want 18", position.Quantity)
	}
	if !position.AveragePrice.Equal(decimal.NewFromInt(90)) {
		t.Errorf("AveragePrice = %s, want 90", position.AveragePrice)
	}

	// Entry derives a protective stop below and a target at the mean.
	pending := s.PendingOrders()
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want stop and target", len(pending))
	}
	if pending[0].Type != types.OrderTypeStopLoss || pending[0].Side != types.SideSell {
		t.Errorf("first pending = %s %s, want STOP_LOSS SELL", pending[0].Type, pending[0].Side)
	}
	if pending[1].Type != types.OrderTypeTakeProfit || !pending[1].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("target = %s @ %s, want TAKE_PROFIT @ 100", pending[1].Type, pending[1].Price)
	}
}

func TestMeanReversion_TargetClosesAndStopIsCancelled(t *testing.T) {
	s := newStrategySim(t)
	st := NewMeanReversion(testMeanRevConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "100", "100", "100")
	}
	feedBar(t, s, st, 3, "89", "91", "90")

	// Rebound to the mean: the target fills, the stop is left behind
	// and the strategy clears it on the next bar.
	feedBar(t, s, st, 4, "95", "101", "100")

	if !s.Position().IsFlat() {
		t.Fatal("position not closed at the target")
	}
	if len(s.PendingOrders()) != 0 {
		t.Errorf("pending = %d, want 0 after the stop is cancelled", len(s.PendingOrders()))
	}
	// 18 units from 90 to 100, fee-free.
	if !s.PnL().Realized.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Realized = %s, want 180", s.PnL().Realized)
	}
}

func TestMeanReversion_NoReentryWhileSignalled(t *testing.T) {
	s := newStrategySim(t)
	st := NewMeanReversion(testMeanRevConfig())

	for bar := 0; bar < 3; bar++ {
		feedBar(t, s, st, bar, "100", "100", "100")
	}
	feedBar(t, s, st, 3, "89", "91", "90")

	trades := len(s.TradeHistory())

	// Close the position by hand, then push another bar still below the
	// band: the armed flag suppresses a second entry.
	pos := s.Position()
	if _, err := s.PlaceOrder(sim.OrderRequest{
		Type:     types.OrderTypeMarket,
		Side:     types.SideSell,
		Quantity: pos.Quantity,
	}); err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	feedBar(t, s, st, 4, "85", "87", "86")

	if got := len(s.TradeHistory()); got != trades+1 {
		t.Errorf("trades = %d, want %d (no re-entry while signalled)", got, trades+1)
	}
}

func TestMeanReversion_Reset(t *testing.T) {
	st := NewMeanReversion(testMeanRevConfig())
	s := newStrategySim(t)

	for bar := 0; bar < 4; bar++ {
		feedBar(t, s, st, bar, "100", "100", "100")
	}
	st.Reset()

	upper, lower := st.Bands()
	if !upper.IsZero() || !lower.IsZero() {
		t.Errorf("bands = %s/%s after reset, want zero", upper, lower)
	}
}

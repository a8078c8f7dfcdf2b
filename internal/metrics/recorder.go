package metrics

import (
	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Recorder provides methods for recording simulation metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordOrder records an order reaching a status.
func (r *Recorder) RecordOrder(order types.Order) {
	OrdersTotal.WithLabelValues(order.Type.String(), order.Side.String(), order.Status.String()).Inc()
}

// RecordTrade records an executed trade.
func (r *Recorder) RecordTrade(trade types.Trade) {
	outcome := "flat"
	if trade.RealizedPnL.IsPositive() {
		outcome = "win"
	} else if trade.RealizedPnL.IsNegative() {
		outcome = "loss"
	}
	TradesTotal.WithLabelValues(trade.Side.String(), outcome).Inc()
}

// RecordCandle records one simulated step.
func (r *Recorder) RecordCandle() {
	CandlesTotal.Inc()
}

// RecordState records the simulator snapshot gauges.
func (r *Recorder) RecordState(state sim.State) {
	BalanceCurrent.Set(state.Balance.InexactFloat64())
	EquityCurrent.Set(state.Equity.InexactFloat64())
	RealizedPnL.Set(state.PnL.Realized.InexactFloat64())
	UnrealizedPnL.Set(state.PnL.Unrealized.InexactFloat64())
	FeesTotal.Set(state.PnL.Fees.InexactFloat64())
	PendingOrders.Set(float64(state.PendingOrders))
	PositionQuantity.Set(state.Position.Quantity.InexactFloat64())
}

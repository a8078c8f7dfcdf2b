// Package metrics exposes Prometheus metrics for simulation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the simulator.
var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "orders_total",
		Help:      "Total orders by type, side and final status.",
	}, []string{"type", "side", "status"})

	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "trades_total",
		Help:      "Total executed trades by side and outcome.",
	}, []string{"side", "outcome"})

	CandlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "candles_total",
		Help:      "Total candles pushed through the simulator.",
	})

	BalanceCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "balance_current",
		Help:      "Current account balance.",
	})

	EquityCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "equity_current",
		Help:      "Current equity (balance plus net PnL).",
	})

	RealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "realized_pnl",
		Help:      "Cumulative realized PnL, net of closing fees.",
	})

	UnrealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "unrealized_pnl",
		Help:      "Unrealized PnL at the last candle close.",
	})

	FeesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "fees_total",
		Help:      "Cumulative gross fees charged.",
	})

	PendingOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "pending_orders",
		Help:      "Number of resting orders.",
	})

	PositionQuantity = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "position_quantity",
		Help:      "Signed position quantity (positive long, negative short).",
	})
)

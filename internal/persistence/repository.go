// Package persistence journals simulation results for later analysis.
package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"
)

// EquitySnapshot records account state at one simulated step.
type EquitySnapshot struct {
	ID         int64
	Timestamp  time.Time
	Balance    decimal.Decimal
	Equity     decimal.Decimal
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
	Fees       decimal.Decimal
}

// Repository persists trades, orders and equity snapshots from a
// simulation run.
type Repository interface {
	SaveTrade(ctx context.Context, trade types.Trade) error
	GetTrades(ctx context.Context) ([]types.Trade, error)

	SaveOrder(ctx context.Context, order types.Order) error
	GetOrders(ctx context.Context) ([]types.Order, error)

	SaveEquitySnapshot(ctx context.Context, snapshot EquitySnapshot) error
	GetEquityHistory(ctx context.Context, from, to time.Time) ([]EquitySnapshot, error)

	Close() error
}

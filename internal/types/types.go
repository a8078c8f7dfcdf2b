// Package types defines shared types used across the trading simulator.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order or position.
type Side int

const (
	SideFlat Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "FLAT"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideFlat
	}
}

// OrderType represents the kind of order.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopLoss
	OrderTypeTakeProfit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStopLoss:
		return "STOP_LOSS"
	case OrderTypeTakeProfit:
		return "TAKE_PROFIT"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus represents the state of an order.
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// IsFinal returns true if the order is in a terminal state.
func (s OrderStatus) IsFinal() bool {
	return s != OrderStatusPending
}

// Mode selects how PnL, fees and margin are quoted.
type Mode int

const (
	ModeFiat Mode = iota
	ModeTicks
	ModePips
	ModePoints
)

func (m Mode) String() string {
	switch m {
	case ModeFiat:
		return "FIAT"
	case ModeTicks:
		return "TICKS"
	case ModePips:
		return "PIPS"
	case ModePoints:
		return "POINTS"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeFiat, ModeTicks, ModePips, ModePoints:
		return true
	default:
		return false
	}
}

// Candle is one OHLCV step of market data.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// Order represents a trading order. MARKET orders carry no trigger price
// and never rest; LIMIT/STOP_LOSS/TAKE_PROFIT require Price and rest
// until a candle touches it.
type Order struct {
	ID          string
	Type        OrderType
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal // trigger price, zero for MARKET
	StopLoss    decimal.Decimal
	TakeProfit  decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	FilledAt    time.Time
	FilledPrice decimal.Decimal
	Fees        decimal.Decimal
}

// Trade is the immutable fact of an execution. RealizedPnL is zero for
// trades that open or add to a position; it is stamped once by the
// position accounting step for trades that close or partially close one.
type Trade struct {
	ID          string
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Fees        decimal.Decimal
	Timestamp   time.Time
	RealizedPnL decimal.Decimal
}

// Position is the single aggregate position. Quantity is signed:
// positive long, negative short, zero flat.
type Position struct {
	Quantity      decimal.Decimal
	AveragePrice  decimal.Decimal
	UnrealizedPnL decimal.Decimal
	RealizedPnL   decimal.Decimal
	TotalFees     decimal.Decimal
}

// IsLong returns true if the position is long.
func (p Position) IsLong() bool {
	return p.Quantity.IsPositive()
}

// IsShort returns true if the position is short.
func (p Position) IsShort() bool {
	return p.Quantity.IsNegative()
}

// IsFlat returns true if there is no open position.
func (p Position) IsFlat() bool {
	return p.Quantity.IsZero()
}

// Side returns the side implied by the sign of Quantity.
func (p Position) Side() Side {
	switch {
	case p.IsLong():
		return SideBuy
	case p.IsShort():
		return SideSell
	default:
		return SideFlat
	}
}

// PnLSummary aggregates position profit and loss.
//
// Realized already has closing-trade fees deducted, so Net is simply
// Realized + Unrealized. Fees is the informational gross total of every
// fee ever charged (entry and exit sides both); it is not additively
// composable with Net.
type PnLSummary struct {
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
	Total      decimal.Decimal
	Fees       decimal.Decimal
	Net        decimal.Decimal
}

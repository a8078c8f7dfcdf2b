package types

import "errors"

// Sentinel errors for the trading simulator.
var (
	// Order placement errors
	ErrPriceRequired       = errors.New("resting orders require a trigger price")
	ErrInvalidQuantity     = errors.New("order quantity must be positive")
	ErrNoMarketData        = errors.New("no market data available")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Order manager errors
	ErrMarketOrderResting = errors.New("market orders execute immediately, they cannot rest")
	ErrNotMarketOrder     = errors.New("only market orders can be executed immediately")

	// Mode errors
	ErrUnknownMode = errors.New("unknown pnl mode")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Package sim wires the order, position, fee and pnl components into a
// single-instrument trading simulator.
package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/fees"
	"github.com/Morgiver/trading-simulator/internal/orders"
	"github.com/Morgiver/trading-simulator/internal/pnl"
	"github.com/Morgiver/trading-simulator/internal/position"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Config holds the simulator construction parameters. All fields are
// fixed for the lifetime of the simulator.
type Config struct {
	InitialBalance decimal.Decimal
	Mode           types.Mode
	FeeRate        decimal.Decimal
	FixedFee       decimal.Decimal
	MinFee         decimal.Decimal
	MaxFee         decimal.Decimal // zero means uncapped
	TickSize       decimal.Decimal
	TickValue      decimal.Decimal
	PipPosition    int
	ContractSize   decimal.Decimal
	Leverage       decimal.Decimal
}

// DefaultConfig returns a fee-free FIAT simulator with 10000 starting
// balance and no leverage.
func DefaultConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(10000),
		Mode:           types.ModeFiat,
		TickSize:       decimal.RequireFromString("0.01"),
		TickValue:      decimal.NewFromInt(1),
		PipPosition:    4,
		ContractSize:   decimal.NewFromInt(100000),
		Leverage:       decimal.NewFromInt(1),
	}
}

// Validate checks the construction parameters.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownMode, c.Mode)
	}
	if c.InitialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance must not be negative", types.ErrInvalidConfig)
	}
	if c.Leverage.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: leverage must be positive", types.ErrInvalidConfig)
	}
	if c.Mode == types.ModeTicks && c.TickSize.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: tick size must be positive", types.ErrInvalidConfig)
	}
	if c.Mode == types.ModePips && c.ContractSize.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: contract size must be positive", types.ErrInvalidConfig)
	}
	return nil
}

// OrderRequest describes an order to place. Price is the trigger price
// for resting orders and is ignored for MARKET orders. StopLoss and
// TakeProfit, when set on a MARKET order, spawn opposite-side
// protective orders at those prices.
type OrderRequest struct {
	Type       types.OrderType
	Side       types.Side
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// State is a full snapshot of the simulator, convenient as an
// observation for reinforcement-learning agents.
type State struct {
	Balance       decimal.Decimal
	Position      types.Position
	PnL           types.PnLSummary
	LastPrice     decimal.Decimal
	HasMarketData bool
	PendingOrders int
	Equity        decimal.Decimal
}

// Simulator executes orders against candles and tracks balance,
// position and PnL. All operations are synchronous; the simulator owns
// its state exclusively and must not be shared across goroutines.
type Simulator struct {
	cfg    Config
	logger *slog.Logger

	feeCalc   *fees.Calculator
	pnlCalc   *pnl.Calculator
	orders    *orders.Manager
	positions *position.Manager

	balance       decimal.Decimal
	currentCandle types.Candle
	lastPrice     decimal.Decimal
	hasMarketData bool
}

// New creates a simulator from the given config.
func New(cfg Config, logger *slog.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	feeCalc := fees.NewCalculator(cfg.FeeRate, cfg.FixedFee, cfg.MinFee, cfg.MaxFee)
	pnlCalc := pnl.NewCalculator(pnl.Config{
		Mode:         cfg.Mode,
		TickSize:     cfg.TickSize,
		TickValue:    cfg.TickValue,
		PipPosition:  cfg.PipPosition,
		ContractSize: cfg.ContractSize,
	})

	return &Simulator{
		cfg:       cfg,
		logger:    logger,
		feeCalc:   feeCalc,
		pnlCalc:   pnlCalc,
		orders:    orders.NewManager(feeCalc, cfg.Mode, cfg.ContractSize, logger),
		positions: position.NewManager(pnlCalc, logger),
		balance:   cfg.InitialBalance,
	}, nil
}

// PlaceOrder validates and places an order.
//
// MARKET orders execute immediately at the last observed close: the
// required margin is checked against the balance first, and on
// rejection the returned order carries status REJECTED alongside the
// error. Resting orders are queued without any balance check.
func (s *Simulator) PlaceOrder(req OrderRequest) (*types.Order, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, types.ErrInvalidQuantity
	}
	if req.Type != types.OrderTypeMarket && req.Price.IsZero() {
		return nil, fmt.Errorf("%w: %s", types.ErrPriceRequired, req.Type)
	}

	order := &types.Order{
		ID:         uuid.New().String(),
		Type:       req.Type,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Status:     types.OrderStatusPending,
		CreatedAt:  s.now(),
	}

	if req.Type == types.OrderTypeMarket {
		if err := s.executeMarket(order); err != nil {
			return order, err
		}
		// Protective orders are derived for MARKET entries only; a
		// filled resting order never spawns them.
		if !req.StopLoss.IsZero() {
			s.queueProtective(types.OrderTypeStopLoss, req.Side.Opposite(), req.Quantity, req.StopLoss)
		}
		if !req.TakeProfit.IsZero() {
			s.queueProtective(types.OrderTypeTakeProfit, req.Side.Opposite(), req.Quantity, req.TakeProfit)
		}
		return order, nil
	}

	if err := s.orders.Add(order); err != nil {
		return nil, err
	}
	return order, nil
}

// executeMarket runs the margin check and synchronous fill for a market
// order. On insufficient balance the order is marked REJECTED before
// the error is returned; no state changes.
func (s *Simulator) executeMarket(order *types.Order) error {
	if !s.hasMarketData {
		return fmt.Errorf("%w: push a candle before placing market orders", types.ErrNoMarketData)
	}

	margin, err := s.pnlCalc.RequiredMargin(s.lastPrice, order.Quantity, s.cfg.Leverage)
	if err != nil {
		return err
	}
	if margin.GreaterThan(s.balance) {
		order.Status = types.OrderStatusRejected
		s.logger.Warn("market order rejected",
			"order_id", order.ID,
			"required_margin", margin,
			"balance", s.balance,
		)
		return fmt.Errorf("%w: required %s, available %s", types.ErrInsufficientBalance, margin, s.balance)
	}

	trade, err := s.orders.ExecuteMarket(order, s.lastPrice, s.now())
	if err != nil {
		return err
	}
	if err := s.positions.Apply(&trade); err != nil {
		return err
	}
	if err := s.positions.UpdateUnrealized(s.lastPrice); err != nil {
		return err
	}
	s.balance = s.balance.Sub(trade.Fees)
	return nil
}

// queueProtective derives and queues a stop-loss or take-profit order.
func (s *Simulator) queueProtective(orderType types.OrderType, side types.Side, quantity, price decimal.Decimal) {
	order := &types.Order{
		ID:        uuid.New().String(),
		Type:      orderType,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Status:    types.OrderStatusPending,
		CreatedAt: s.now(),
	}
	// Add only fails for market orders, which cannot reach here.
	_ = s.orders.Add(order)
}

// UpdateMarket advances the simulation by one candle: resting orders
// are matched against it in insertion order, resulting trades are
// applied to the position with their fees debited, and unrealized PnL
// is recomputed at the candle close. The executed trades are returned
// in match order.
func (s *Simulator) UpdateMarket(candle types.Candle) ([]types.Trade, error) {
	s.currentCandle = candle
	s.lastPrice = candle.Close
	s.hasMarketData = true

	trades, err := s.orders.Match(candle)
	if err != nil {
		return nil, err
	}

	for i := range trades {
		if err := s.positions.Apply(&trades[i]); err != nil {
			return nil, err
		}
		s.balance = s.balance.Sub(trades[i].Fees)
	}

	if err := s.positions.UpdateUnrealized(candle.Close); err != nil {
		return nil, err
	}

	return trades, nil
}

// CancelOrder cancels a pending order by id. Cancellation is advisory:
// an unknown id returns false, not an error.
func (s *Simulator) CancelOrder(orderID string) bool {
	return s.orders.Cancel(orderID)
}

// Position returns a snapshot of the current position.
func (s *Simulator) Position() types.Position {
	return s.positions.Position()
}

// PnL returns the PnL summary.
func (s *Simulator) PnL() types.PnLSummary {
	return s.positions.Summary()
}

// Balance returns the current account balance.
func (s *Simulator) Balance() decimal.Decimal {
	return s.balance
}

// LastPrice returns the most recent candle close and whether any candle
// has been observed yet.
func (s *Simulator) LastPrice() (decimal.Decimal, bool) {
	return s.lastPrice, s.hasMarketData
}

// PendingOrders returns the resting orders in insertion order.
func (s *Simulator) PendingOrders() []types.Order {
	return s.orders.Pending()
}

// FilledOrders returns the filled order log.
func (s *Simulator) FilledOrders() []types.Order {
	return s.orders.Filled()
}

// TradeHistory returns every executed trade.
func (s *Simulator) TradeHistory() []types.Trade {
	return s.positions.History()
}

// State returns a full snapshot: balance, position, PnL, last price,
// pending order count and equity (balance plus net PnL).
func (s *Simulator) State() State {
	summary := s.positions.Summary()
	return State{
		Balance:       s.balance,
		Position:      s.positions.Position(),
		PnL:           summary,
		LastPrice:     s.lastPrice,
		HasMarketData: s.hasMarketData,
		PendingOrders: s.orders.PendingCount(),
		Equity:        s.balance.Add(summary.Net),
	}
}

// Reset restores the initial balance and clears all market data, orders
// and position state.
func (s *Simulator) Reset() {
	s.balance = s.cfg.InitialBalance
	s.currentCandle = types.Candle{}
	s.lastPrice = decimal.Zero
	s.hasMarketData = false
	s.positions.Reset()
	s.orders.Reset()
	s.logger.Info("simulator reset", "balance", s.balance)
}

// now returns the simulation clock: the timestamp of the current candle
// when market data has been observed, wall clock otherwise. Keeps order
// and trade timestamps deterministic during replays.
func (s *Simulator) now() time.Time {
	if s.hasMarketData && !s.currentCandle.Timestamp.IsZero() {
		return s.currentCandle.Timestamp
	}
	return time.Now()
}

// Package replay streams candles from a feed through a simulator and
// aggregates the results of the run.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/Morgiver/trading-simulator/internal/feed"
	"github.com/Morgiver/trading-simulator/internal/metrics"
	"github.com/Morgiver/trading-simulator/internal/persistence"
	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// BarFunc is invoked after each candle has been applied to the
// simulator. The callback drives the trading decisions: place or cancel
// orders on the simulator as it sees fit (a strategy, an RL agent, a
// scripted scenario).
type BarFunc func(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error

// Config holds replay settings.
type Config struct {
	BarsPerSecond float64 // 0 = unthrottled
}

// Result holds the aggregated outcome of a replay.
type Result struct {
	StartBalance  decimal.Decimal
	EndEquity     decimal.Decimal
	TotalReturn   decimal.Decimal // as ratio (0.15 = 15%)
	MaxDrawdown   decimal.Decimal // as ratio
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal // closing trades only, as ratio
	ProfitFactor  decimal.Decimal // gross profit / gross loss
	Candles       int
	Trades        []types.Trade
	EquityCurve   []EquityPoint
}

// EquityPoint represents equity at a point in time.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
	Drawdown  decimal.Decimal
}

// Runner replays a candle feed through a simulator.
type Runner struct {
	cfg      Config
	simul    *sim.Simulator
	feed     feed.Feed
	onBar    BarFunc
	recorder *metrics.Recorder
	repo     persistence.Repository
	logger   *slog.Logger

	equityCurve []EquityPoint
	highWater   decimal.Decimal
	candles     int
}

// NewRunner creates a replay runner. onBar, recorder and repo are
// optional.
func NewRunner(cfg Config, simul *sim.Simulator, candleFeed feed.Feed, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		simul:     simul,
		feed:      candleFeed,
		logger:    logger,
		highWater: simul.State().Equity,
	}
}

// SetBarFunc sets the per-bar trading callback.
func (r *Runner) SetBarFunc(fn BarFunc) {
	r.onBar = fn
}

// SetRecorder enables Prometheus metric recording for the run.
func (r *Runner) SetRecorder(rec *metrics.Recorder) {
	r.recorder = rec
}

// SetRepository enables journaling of trades and equity snapshots.
func (r *Runner) SetRepository(repo persistence.Repository) {
	r.repo = repo
}

// Run replays the feed to exhaustion and returns the aggregated result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	candleCh, err := r.feed.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe to feed: %w", err)
	}

	var limiter *rate.Limiter
	if r.cfg.BarsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.BarsPerSecond), 1)
	}

	startBalance := r.simul.Balance()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case candle, ok := <-candleCh:
			if !ok {
				return r.results(startBalance), nil
			}

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
			}

			if err := r.step(ctx, candle); err != nil {
				return nil, err
			}
		}
	}
}

// step applies one candle and runs the bookkeeping around it.
func (r *Runner) step(ctx context.Context, candle types.Candle) error {
	fills, err := r.simul.UpdateMarket(candle)
	if err != nil {
		return fmt.Errorf("update market: %w", err)
	}
	r.candles++

	if r.onBar != nil {
		if err := r.onBar(ctx, r.simul, candle, fills); err != nil {
			return fmt.Errorf("bar callback: %w", err)
		}
	}

	state := r.simul.State()
	r.recordEquity(candle.Timestamp, state.Equity)

	if r.recorder != nil {
		r.recorder.RecordCandle()
		for _, fill := range fills {
			r.recorder.RecordTrade(fill)
		}
		r.recorder.RecordState(state)
	}

	if r.repo != nil {
		for _, fill := range fills {
			if err := r.repo.SaveTrade(ctx, fill); err != nil {
				return fmt.Errorf("journal trade: %w", err)
			}
		}
		snapshot := persistence.EquitySnapshot{
			Timestamp:  candle.Timestamp,
			Balance:    state.Balance,
			Equity:     state.Equity,
			Realized:   state.PnL.Realized,
			Unrealized: state.PnL.Unrealized,
			Fees:       state.PnL.Fees,
		}
		if err := r.repo.SaveEquitySnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("journal equity: %w", err)
		}
	}

	return nil
}

// recordEquity records an equity point and tracks the high-water mark.
func (r *Runner) recordEquity(timestamp time.Time, equity decimal.Decimal) {
	if equity.GreaterThan(r.highWater) {
		r.highWater = equity
	}

	var drawdown decimal.Decimal
	if r.highWater.IsPositive() {
		drawdown = r.highWater.Sub(equity).Div(r.highWater)
	}

	r.equityCurve = append(r.equityCurve, EquityPoint{
		Timestamp: timestamp,
		Equity:    equity,
		Drawdown:  drawdown,
	})
}

// results computes the aggregated replay outcome.
func (r *Runner) results(startBalance decimal.Decimal) *Result {
	trades := r.simul.TradeHistory()

	var (
		winningTrades = 0
		losingTrades  = 0
		grossProfit   = decimal.Zero
		grossLoss     = decimal.Zero
	)

	for _, trade := range trades {
		if trade.RealizedPnL.IsPositive() {
			winningTrades++
			grossProfit = grossProfit.Add(trade.RealizedPnL)
		} else if trade.RealizedPnL.IsNegative() {
			losingTrades++
			grossLoss = grossLoss.Add(trade.RealizedPnL.Abs())
		}
	}

	maxDrawdown := decimal.Zero
	for _, point := range r.equityCurve {
		if point.Drawdown.GreaterThan(maxDrawdown) {
			maxDrawdown = point.Drawdown
		}
	}

	endEquity := r.simul.State().Equity

	totalReturn := decimal.Zero
	if startBalance.IsPositive() {
		totalReturn = endEquity.Sub(startBalance).Div(startBalance)
	}

	winRate := decimal.Zero
	if closing := winningTrades + losingTrades; closing > 0 {
		winRate = decimal.NewFromInt(int64(winningTrades)).Div(decimal.NewFromInt(int64(closing)))
	}

	profitFactor := decimal.Zero
	if grossLoss.IsPositive() {
		profitFactor = grossProfit.Div(grossLoss)
	}

	return &Result{
		StartBalance:  startBalance,
		EndEquity:     endEquity,
		TotalReturn:   totalReturn,
		MaxDrawdown:   maxDrawdown,
		TotalTrades:   len(trades),
		WinningTrades: winningTrades,
		LosingTrades:  losingTrades,
		WinRate:       winRate,
		ProfitFactor:  profitFactor,
		Candles:       r.candles,
		Trades:        trades,
		EquityCurve:   r.equityCurve,
	}
}

// Reset clears the runner and its simulator for a new replay.
func (r *Runner) Reset() {
	r.simul.Reset()
	r.equityCurve = nil
	r.candles = 0
	r.highWater = r.simul.State().Equity
}

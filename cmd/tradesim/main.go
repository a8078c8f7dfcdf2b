// Package main is the entry point for the trading simulator CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/config"
	"github.com/Morgiver/trading-simulator/internal/feed"
	"github.com/Morgiver/trading-simulator/internal/metrics"
	"github.com/Morgiver/trading-simulator/internal/persistence"
	"github.com/Morgiver/trading-simulator/internal/replay"
	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/strategy"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Version information (set by build flags).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "replay":
		cmdReplay(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Trading Simulator - Candle-Based Order Matching and PnL Accounting

Usage:
  tradesim <command> [options]

Commands:
  replay     Replay a CSV candle file through the simulator
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  tradesim replay --config config.yaml --data data/EURUSD_1h.csv
  tradesim replay --config config.yaml --data data/BTC_5m.csv --quantity 2 --take-profit 110
  tradesim replay --config config.yaml --data data/MES_5m.csv --strategy meanrev
  tradesim validate --config config.yaml

Use "tradesim <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("tradesim version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Initial balance: %.2f\n", cfg.Simulator.InitialBalance)
	fmt.Printf("  PnL mode: %s\n", cfg.Simulator.Mode)
	fmt.Printf("  Fee rate: %.4f%%\n", cfg.Simulator.FeeRate*100)
	fmt.Printf("  Leverage: %.1fx\n", cfg.Simulator.Leverage)
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	dataPath := fs.String("data", "", "Path to CSV candle file (overrides config)")
	strategyName := fs.String("strategy", "", "Strategy to run: meanrev, breakout or grid (default: single demo entry)")
	side := fs.String("side", "buy", "Demo entry side: buy or sell")
	quantity := fs.Float64("quantity", 1, "Demo entry quantity")
	entryBar := fs.Int("entry-bar", 1, "Bar index of the demo market entry")
	stopLoss := fs.Float64("stop-loss", 0, "Protective stop-loss price (0 = none)")
	takeProfit := fs.Float64("take-profit", 0, "Protective take-profit price (0 = none)")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	path := cfg.Replay.DataPath
	if *dataPath != "" {
		path = *dataPath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: --data or replay.data_path is required")
		fs.Usage()
		os.Exit(1)
	}

	entrySide := types.SideBuy
	if *side == "sell" {
		entrySide = types.SideSell
	}

	simCfg, err := cfg.ToSimConfig()
	if err != nil {
		slog.Error("invalid simulator config", "err", err)
		os.Exit(1)
	}

	simulator, err := sim.New(simCfg, logger)
	if err != nil {
		slog.Error("create simulator", "err", err)
		os.Exit(1)
	}

	runner := replay.NewRunner(
		replay.Config{BarsPerSecond: cfg.Replay.BarsPerSecond},
		simulator,
		feed.NewCSVFeed(path),
		logger,
	)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(metrics.ServerConfig{
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			HealthPath:  "/health",
		}, logger)
		if err := server.Start(); err != nil {
			slog.Error("start metrics server", "err", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		runner.SetRecorder(metrics.NewRecorder())
	}

	if cfg.Persistence.Enabled {
		repo, err := persistence.NewSQLiteRepository(cfg.Persistence.Path)
		if err != nil {
			slog.Error("open journal", "err", err)
			os.Exit(1)
		}
		defer func() { _ = repo.Close() }()
		runner.SetRepository(repo)
	}

	switch *strategyName {
	case "meanrev":
		runner.SetBarFunc(strategy.NewMeanReversion(strategy.DefaultMeanRevConfig()).OnCandle)
	case "breakout":
		runner.SetBarFunc(strategy.NewBreakout(strategy.DefaultBreakoutConfig()).OnCandle)
	case "grid":
		runner.SetBarFunc(strategy.NewGrid(strategy.DefaultGridConfig()).OnCandle)
	case "":
		// Demo driver: one market entry at the requested bar, protective
		// orders matched by the simulator from then on.
		bar := 0
		runner.SetBarFunc(func(ctx context.Context, s *sim.Simulator, candle types.Candle, fills []types.Trade) error {
			bar++
			if bar != *entryBar {
				return nil
			}
			_, err := s.PlaceOrder(sim.OrderRequest{
				Type:       types.OrderTypeMarket,
				Side:       entrySide,
				Quantity:   decimal.NewFromFloat(*quantity),
				StopLoss:   decimal.NewFromFloat(*stopLoss),
				TakeProfit: decimal.NewFromFloat(*takeProfit),
			})
			return err
		})
	default:
		fmt.Fprintf(os.Stderr, "Unknown strategy: %s\n", *strategyName)
		os.Exit(1)
	}

	slog.Info("starting replay",
		"data", path,
		"mode", cfg.Simulator.Mode,
		"balance", cfg.Simulator.InitialBalance,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		slog.Error("replay failed", "err", err)
		os.Exit(1)
	}

	printResults(result)
}

func printResults(result *replay.Result) {
	fmt.Println("\n=== REPLAY RESULTS ===")
	fmt.Printf("Start Balance:    %.2f\n", result.StartBalance.InexactFloat64())
	fmt.Printf("End Equity:       %.2f\n", result.EndEquity.InexactFloat64())
	fmt.Printf("Total Return:     %.2f%%\n", result.TotalReturn.Mul(decimal.NewFromInt(100)).InexactFloat64())
	fmt.Printf("Max Drawdown:     %.2f%%\n", result.MaxDrawdown.Mul(decimal.NewFromInt(100)).InexactFloat64())
	fmt.Println()
	fmt.Printf("Candles:          %d\n", result.Candles)
	fmt.Printf("Total Trades:     %d\n", result.TotalTrades)
	fmt.Printf("Winning Trades:   %d\n", result.WinningTrades)
	fmt.Printf("Losing Trades:    %d\n", result.LosingTrades)
	fmt.Printf("Win Rate:         %.2f%%\n", result.WinRate.Mul(decimal.NewFromInt(100)).InexactFloat64())
	fmt.Printf("Profit Factor:    %.2f\n", result.ProfitFactor.InexactFloat64())
}

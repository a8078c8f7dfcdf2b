package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite. Decimal values
// are stored as TEXT to avoid float rounding in the journal.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository and runs
// migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			side INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			price TEXT NOT NULL,
			fees TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			realized_pnl TEXT NOT NULL DEFAULT '0',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			type INTEGER NOT NULL,
			side INTEGER NOT NULL,
			quantity TEXT NOT NULL,
			price TEXT,
			status INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			filled_at DATETIME,
			filled_price TEXT,
			fees TEXT NOT NULL DEFAULT '0'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS equity_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			balance TEXT NOT NULL,
			equity TEXT NOT NULL,
			realized TEXT NOT NULL DEFAULT '0',
			unrealized TEXT NOT NULL DEFAULT '0',
			fees TEXT NOT NULL DEFAULT '0',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equity_timestamp ON equity_snapshots(timestamp)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SaveTrade saves an executed trade.
func (r *SQLiteRepository) SaveTrade(ctx context.Context, trade types.Trade) error {
	query := `INSERT OR REPLACE INTO trades (id, side, quantity, price, fees, timestamp, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		trade.ID,
		int(trade.Side),
		trade.Quantity.String(),
		trade.Price.String(),
		trade.Fees.String(),
		trade.Timestamp,
		trade.RealizedPnL.String(),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	return nil
}

// GetTrades returns all saved trades ordered by execution time.
func (r *SQLiteRepository) GetTrades(ctx context.Context) ([]types.Trade, error) {
	query := `SELECT id, side, quantity, price, fees, timestamp, realized_pnl
		FROM trades ORDER BY timestamp, created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var trades []types.Trade
	for rows.Next() {
		var t types.Trade
		var side int
		var quantity, price, fee, realized string

		if err := rows.Scan(&t.ID, &side, &quantity, &price, &fee, &t.Timestamp, &realized); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		t.Side = types.Side(side)
		t.Quantity, _ = decimal.NewFromString(quantity)
		t.Price, _ = decimal.NewFromString(price)
		t.Fees, _ = decimal.NewFromString(fee)
		t.RealizedPnL, _ = decimal.NewFromString(realized)

		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// SaveOrder saves an order in its current state.
func (r *SQLiteRepository) SaveOrder(ctx context.Context, order types.Order) error {
	query := `INSERT OR REPLACE INTO orders
		(id, type, side, quantity, price, status, created_at, filled_at, filled_price, fees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var filledAt any
	if !order.FilledAt.IsZero() {
		filledAt = order.FilledAt
	}

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		int(order.Type),
		int(order.Side),
		order.Quantity.String(),
		order.Price.String(),
		int(order.Status),
		order.CreatedAt,
		filledAt,
		order.FilledPrice.String(),
		order.Fees.String(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetOrders returns all saved orders ordered by creation time.
func (r *SQLiteRepository) GetOrders(ctx context.Context) ([]types.Order, error) {
	query := `SELECT id, type, side, quantity, price, status, created_at, filled_at, filled_price, fees
		FROM orders ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []types.Order
	for rows.Next() {
		var o types.Order
		var orderType, side, status int
		var quantity, price, filledPrice, fee string
		var filledAt sql.NullTime

		if err := rows.Scan(&o.ID, &orderType, &side, &quantity, &price, &status, &o.CreatedAt, &filledAt, &filledPrice, &fee); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		o.Type = types.OrderType(orderType)
		o.Side = types.Side(side)
		o.Status = types.OrderStatus(status)
		o.Quantity, _ = decimal.NewFromString(quantity)
		o.Price, _ = decimal.NewFromString(price)
		o.FilledPrice, _ = decimal.NewFromString(filledPrice)
		o.Fees, _ = decimal.NewFromString(fee)
		if filledAt.Valid {
			o.FilledAt = filledAt.Time
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// SaveEquitySnapshot saves an equity snapshot.
func (r *SQLiteRepository) SaveEquitySnapshot(ctx context.Context, snapshot EquitySnapshot) error {
	query := `INSERT INTO equity_snapshots (timestamp, balance, equity, realized, unrealized, fees)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.Timestamp,
		snapshot.Balance.String(),
		snapshot.Equity.String(),
		snapshot.Realized.String(),
		snapshot.Unrealized.String(),
		snapshot.Fees.String(),
	)
	if err != nil {
		return fmt.Errorf("insert equity snapshot: %w", err)
	}

	return nil
}

// GetEquityHistory returns equity snapshots in a time range.
func (r *SQLiteRepository) GetEquityHistory(ctx context.Context, from, to time.Time) ([]EquitySnapshot, error) {
	query := `SELECT id, timestamp, balance, equity, realized, unrealized, fees
		FROM equity_snapshots WHERE timestamp BETWEEN ? AND ? ORDER BY timestamp`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query equity history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []EquitySnapshot
	for rows.Next() {
		var s EquitySnapshot
		var balance, equity, realized, unrealized, fee string

		if err := rows.Scan(&s.ID, &s.Timestamp, &balance, &equity, &realized, &unrealized, &fee); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.Balance, _ = decimal.NewFromString(balance)
		s.Equity, _ = decimal.NewFromString(equity)
		s.Realized, _ = decimal.NewFromString(realized)
		s.Unrealized, _ = decimal.NewFromString(unrealized)
		s.Fees, _ = decimal.NewFromString(fee)

		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteRepository implements Repository.
var _ Repository = (*SQLiteRepository)(nil)

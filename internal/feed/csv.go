package feed

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"
)

// CSVFeed provides candles from a CSV file.
type CSVFeed struct {
	filePath string
	candles  []types.Candle
	loaded   bool
}

// NewCSVFeed creates a feed from a CSV file.
// CSV format: timestamp,open,high,low,close,volume
// Timestamp format: 2006-01-02 15:04:05 or Unix timestamp.
func NewCSVFeed(filePath string) *CSVFeed {
	return &CSVFeed{filePath: filePath}
}

// Subscribe starts sending historical candles. The channel closes when
// all data has been sent or the context is cancelled.
func (f *CSVFeed) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	if !f.loaded {
		if err := f.load(); err != nil {
			return nil, err
		}
	}

	ch := make(chan types.Candle, 100)

	go func() {
		defer close(ch)
		for _, candle := range f.candles {
			select {
			case <-ctx.Done():
				return
			case ch <- candle:
			}
		}
	}()

	return ch, nil
}

// Close releases resources.
func (f *CSVFeed) Close() error {
	f.candles = nil
	f.loaded = false
	return nil
}

// Name returns the feed identifier.
func (f *CSVFeed) Name() string {
	return "csv"
}

// CandleCount returns the number of loaded candles.
func (f *CSVFeed) CandleCount() int {
	return len(f.candles)
}

func (f *CSVFeed) load() error {
	file, err := os.Open(f.filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	candles, err := ParseCSV(file)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	f.candles = candles
	f.loaded = true
	return nil
}

// ParseCSV parses candles from a CSV reader. A header row is detected
// and skipped; malformed rows are skipped rather than failing the load.
func ParseCSV(r io.Reader) ([]types.Candle, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true

	var candles []types.Candle
	lineNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		lineNum++

		if lineNum == 1 && isHeader(record) {
			continue
		}

		if len(record) < 5 {
			continue
		}

		candle, err := parseRecord(record)
		if err != nil {
			continue
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

func parseRecord(record []string) (types.Candle, error) {
	var candle types.Candle

	ts, err := parseTimestamp(record[0])
	if err != nil {
		return candle, fmt.Errorf("parse timestamp: %w", err)
	}
	candle.Timestamp = ts

	candle.Open, err = decimal.NewFromString(record[1])
	if err != nil {
		return candle, fmt.Errorf("parse open: %w", err)
	}

	candle.High, err = decimal.NewFromString(record[2])
	if err != nil {
		return candle, fmt.Errorf("parse high: %w", err)
	}

	candle.Low, err = decimal.NewFromString(record[3])
	if err != nil {
		return candle, fmt.Errorf("parse low: %w", err)
	}

	candle.Close, err = decimal.NewFromString(record[4])
	if err != nil {
		return candle, fmt.Errorf("parse close: %w", err)
	}

	if len(record) > 5 {
		vol, err := strconv.ParseInt(record[5], 10, 64)
		if err == nil {
			candle.Volume = vol
		}
	}

	return candle, nil
}

// parseTimestamp tries Unix seconds first, then common date formats.
func parseTimestamp(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04",
		"2006-01-02",
		"01/02/2006 15:04:05",
		"01/02/2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unknown timestamp format: %s", s)
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	headers := []string{"timestamp", "time", "date", "datetime", "open", "high", "low", "close"}
	first := record[0]
	for _, h := range headers {
		if first == h {
			return true
		}
	}
	return false
}

// MemoryFeed provides candles from an in-memory slice. Useful for
// testing and for callers that build candles programmatically.
type MemoryFeed struct {
	candles []types.Candle
}

// NewMemoryFeed creates a feed from pre-loaded candles.
func NewMemoryFeed(candles []types.Candle) *MemoryFeed {
	return &MemoryFeed{candles: candles}
}

// Subscribe starts sending candles from memory.
func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan types.Candle, error) {
	ch := make(chan types.Candle, len(f.candles))

	go func() {
		defer close(ch)
		for _, candle := range f.candles {
			select {
			case <-ctx.Done():
				return
			case ch <- candle:
			}
		}
	}()

	return ch, nil
}

// Close is a no-op for memory feed.
func (f *MemoryFeed) Close() error {
	return nil
}

// Name returns the feed identifier.
func (f *MemoryFeed) Name() string {
	return "memory"
}

// AddCandle adds a candle to the feed.
func (f *MemoryFeed) AddCandle(candle types.Candle) {
	f.candles = append(f.candles, candle)
}

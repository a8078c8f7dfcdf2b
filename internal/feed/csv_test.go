package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Morgiver/trading-simulator/internal/types"
)

func TestParseCSV(t *testing.T) {
	data := `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,101,99,100.5,1200
2024-01-01 00:01:00,100.5,102,100,101.5,800
`
	candles, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}

	first := candles[0]
	wantTS := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTS) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, wantTS)
	}
	if !first.Open.Equal(decimal.NewFromInt(100)) ||
		!first.High.Equal(decimal.NewFromInt(101)) ||
		!first.Low.Equal(decimal.NewFromInt(99)) ||
		!first.Close.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("OHLC = %s/%s/%s/%s", first.Open, first.High, first.Low, first.Close)
	}
	if first.Volume != 1200 {
		t.Errorf("Volume = %d, want 1200", first.Volume)
	}
}

func TestParseCSV_NoHeader(t *testing.T) {
	data := "1704067200,100,101,99,100.5,1200\n"
	candles, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("candles = %d, want 1", len(candles))
	}
	if got := candles[0].Timestamp.Unix(); got != 1704067200 {
		t.Errorf("Timestamp = %d, want 1704067200", got)
	}
}

func TestParseCSV_SkipsMalformedRows(t *testing.T) {
	data := `date,open,high,low,close
2024-01-01,100,101,99,100.5
not-a-date,100,101,99,100.5
2024-01-02,abc,101,99,100.5
2024-01-03,101,102,100,101.5
`
	candles, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(candles) != 2 {
		t.Errorf("candles = %d, want 2 (malformed rows skipped)", len(candles))
	}
}

func TestParseCSV_MissingVolume(t *testing.T) {
	candles, err := ParseCSV(strings.NewReader("2024-01-01 00:00:00,100,101,99,100.5\n"))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("candles = %d, want 1", len(candles))
	}
	if candles[0].Volume != 0 {
		t.Errorf("Volume = %d, want 0", candles[0].Volume)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1704067200", time.Unix(1704067200, 0)},
		{"2024-01-01 12:30:00", time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-01-01T12:30:00", time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)},
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if err != nil {
			t.Errorf("parseTimestamp(%q) failed: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCSVFeed_Subscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	data := `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,101,99,100.5,1200
2024-01-01 00:01:00,100.5,102,100,101.5,800
2024-01-01 00:02:00,101.5,103,101,102.5,600
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewCSVFeed(path)
	if f.Name() != "csv" {
		t.Errorf("Name = %q, want csv", f.Name())
	}

	ch, err := f.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	var received []types.Candle
	for candle := range ch {
		received = append(received, candle)
	}
	if len(received) != 3 {
		t.Fatalf("received = %d, want 3", len(received))
	}
	if f.CandleCount() != 3 {
		t.Errorf("CandleCount = %d, want 3", f.CandleCount())
	}
	if !received[2].Close.Equal(decimal.RequireFromString("102.5")) {
		t.Errorf("last close = %s, want 102.5", received[2].Close)
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestCSVFeed_MissingFile(t *testing.T) {
	f := NewCSVFeed("/nonexistent/candles.csv")
	if _, err := f.Subscribe(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCSVFeed_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	var sb strings.Builder
	sb.WriteString("timestamp,open,high,low,close,volume\n")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		sb.WriteString(base.Add(time.Duration(i) * time.Minute).Format("2006-01-02 15:04:05"))
		sb.WriteString(",100,101,99,100,10\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := NewCSVFeed(path).Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	<-ch
	cancel()

	// Channel drains and closes after cancellation.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after cancel")
		}
	}
}

func TestMemoryFeed(t *testing.T) {
	f := NewMemoryFeed(nil)
	if f.Name() != "memory" {
		t.Errorf("Name = %q, want memory", f.Name())
	}

	for i := 0; i < 3; i++ {
		f.AddCandle(types.Candle{
			Timestamp: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
			Open:      decimal.NewFromInt(100),
			High:      decimal.NewFromInt(101),
			Low:       decimal.NewFromInt(99),
			Close:     decimal.NewFromInt(100),
		})
	}

	ch, err := f.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	count := 0
	for range ch {
		count++
	}
	if count != 3 {
		t.Errorf("received = %d, want 3", count)
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

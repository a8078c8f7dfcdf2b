// Package indicator provides streaming technical indicators. Each
// indicator consumes one bar at a time and returns zero until its
// warm-up period has elapsed. All math is decimal-based.
package indicator

import "github.com/shopspring/decimal"

// window is a fixed-size rolling window with a running sum.
type window struct {
	size   int
	values []decimal.Decimal
	sum    decimal.Decimal
}

func newWindow(size int) *window {
	if size < 1 {
		size = 1
	}
	return &window{
		size:   size,
		values: make([]decimal.Decimal, 0, size),
	}
}

func (w *window) push(v decimal.Decimal) {
	w.values = append(w.values, v)
	w.sum = w.sum.Add(v)
	if len(w.values) > w.size {
		w.sum = w.sum.Sub(w.values[0])
		w.values = w.values[1:]
	}
}

func (w *window) full() bool {
	return len(w.values) >= w.size
}

func (w *window) mean() decimal.Decimal {
	if !w.full() {
		return decimal.Zero
	}
	return w.sum.Div(decimal.NewFromInt(int64(w.size)))
}

func (w *window) reset() {
	w.values = w.values[:0]
	w.sum = decimal.Zero
}

package indicator

import "github.com/shopspring/decimal"

// SMA is a simple moving average over the last N values.
type SMA struct {
	w *window
}

// NewSMA creates an SMA with the given period.
func NewSMA(period int) *SMA {
	return &SMA{w: newWindow(period)}
}

// Update adds a value and returns the average, or zero while warming up.
func (s *SMA) Update(value decimal.Decimal) decimal.Decimal {
	s.w.push(value)
	return s.w.mean()
}

// Current returns the average without adding data.
func (s *SMA) Current() decimal.Decimal {
	return s.w.mean()
}

// Ready reports whether the warm-up period has elapsed.
func (s *SMA) Ready() bool {
	return s.w.full()
}

// Period returns the configured period.
func (s *SMA) Period() int {
	return s.w.size
}

// Reset clears all data.
func (s *SMA) Reset() {
	s.w.reset()
}

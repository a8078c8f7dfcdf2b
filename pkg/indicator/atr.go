package indicator

import "github.com/shopspring/decimal"

// ATR is the average true range over the last N bars, where the true
// range is max(high-low, |high-prevClose|, |low-prevClose|).
type ATR struct {
	w         *window
	prevClose decimal.Decimal
	seeded    bool
}

// NewATR creates an ATR with the given period.
func NewATR(period int) *ATR {
	return &ATR{w: newWindow(period)}
}

// Update adds a bar and returns the average true range, or zero while
// warming up.
func (a *ATR) Update(high, low, close decimal.Decimal) decimal.Decimal {
	tr := high.Sub(low)
	if a.seeded {
		if hpc := high.Sub(a.prevClose).Abs(); hpc.GreaterThan(tr) {
			tr = hpc
		}
		if lpc := low.Sub(a.prevClose).Abs(); lpc.GreaterThan(tr) {
			tr = lpc
		}
	}
	a.prevClose = close
	a.seeded = true

	a.w.push(tr)
	return a.w.mean()
}

// Current returns the average true range without adding data.
func (a *ATR) Current() decimal.Decimal {
	return a.w.mean()
}

// Ready reports whether the warm-up period has elapsed.
func (a *ATR) Ready() bool {
	return a.w.full()
}

// Period returns the configured period.
func (a *ATR) Period() int {
	return a.w.size
}

// Reset clears all data.
func (a *ATR) Reset() {
	a.w.reset()
	a.prevClose = decimal.Zero
	a.seeded = false
}

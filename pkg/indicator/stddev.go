package indicator

import "github.com/shopspring/decimal"

// StdDev is the population standard deviation over the last N values.
type StdDev struct {
	w *window
}

// NewStdDev creates a StdDev with the given period.
func NewStdDev(period int) *StdDev {
	return &StdDev{w: newWindow(period)}
}

// Update adds a value and returns the standard deviation, or zero while
// warming up.
func (s *StdDev) Update(value decimal.Decimal) decimal.Decimal {
	s.w.push(value)
	return s.deviation()
}

// Current returns the standard deviation without adding data.
func (s *StdDev) Current() decimal.Decimal {
	return s.deviation()
}

// Mean returns the rolling mean over the window.
func (s *StdDev) Mean() decimal.Decimal {
	return s.w.mean()
}

// Ready reports whether the warm-up period has elapsed.
func (s *StdDev) Ready() bool {
	return s.w.full()
}

// Period returns the configured period.
func (s *StdDev) Period() int {
	return s.w.size
}

// Reset clears all data.
func (s *StdDev) Reset() {
	s.w.reset()
}

func (s *StdDev) deviation() decimal.Decimal {
	if !s.w.full() {
		return decimal.Zero
	}

	mean := s.w.mean()
	var sumSquares decimal.Decimal
	for _, v := range s.w.values {
		diff := v.Sub(mean)
		sumSquares = sumSquares.Add(diff.Mul(diff))
	}
	variance := sumSquares.Div(decimal.NewFromInt(int64(len(s.w.values))))

	return sqrt(variance)
}

// sqrt computes a decimal square root with Newton's method, rounded to
// 8 places.
func sqrt(d decimal.Decimal) decimal.Decimal {
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	two := decimal.NewFromInt(2)
	epsilon := decimal.New(1, -8)

	guess := d.Div(two)
	if guess.IsZero() {
		guess = decimal.NewFromInt(1)
	}

	for i := 0; i < 100; i++ {
		next := guess.Add(d.Div(guess)).Div(two)
		if next.Sub(guess).Abs().LessThan(epsilon) {
			return next.Round(8)
		}
		guess = next
	}

	return guess.Round(8)
}

package risk

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSizer_Quantity(t *testing.T) {
	sizer := NewSizer(decimal.Zero, decimal.Zero)

	tests := []struct {
		name         string
		equity       string
		riskPerTrade string
		entry        string
		stop         string
		want         string
	}{
		{"one percent of 10k, stop 5 away", "10000", "0.01", "100", "95", "20"},
		{"short side stop above entry", "10000", "0.01", "100", "105", "20"},
		{"rounds down to whole units", "10000", "0.01", "100", "97", "33"},
		{"risk capped at ten percent", "10000", "0.5", "100", "90", "100"},
		{"too small for one unit", "100", "0.01", "100", "95", "0"},
		{"zero equity", "0", "0.01", "100", "95", "0"},
		{"zero risk", "10000", "0", "100", "95", "0"},
		{"stop equals entry", "10000", "0.01", "100", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sizer.Quantity(d(tt.equity), d(tt.riskPerTrade), d(tt.entry), d(tt.stop))
			if !got.Equal(d(tt.want)) {
				t.Errorf("Quantity = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSizer_QuantityStep(t *testing.T) {
	// Fractional step for fiat-style quantities.
	sizer := NewSizer(decimal.Zero, d("0.01"))

	// 10000 * 0.01 / 3 = 33.33..., floored to the step.
	got := sizer.Quantity(d("10000"), d("0.01"), d("100"), d("97"))
	if !got.Equal(d("33.33")) {
		t.Errorf("Quantity = %s, want 33.33", got)
	}
}

func TestSizer_RiskAmount(t *testing.T) {
	sizer := NewSizer(decimal.Zero, decimal.Zero)

	got := sizer.RiskAmount(d("20"), d("100"), d("95"))
	if !got.Equal(d("100")) {
		t.Errorf("RiskAmount = %s, want 100", got)
	}
}

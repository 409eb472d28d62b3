package convert

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundFloat64(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{1.234, 2, 1.23},
		{1.235, 1, 1.2},
		{-0.456, 2, -0.46},
		{12.5, 0, 13},
	}
	for _, tt := range tests {
		if got := RoundFloat64(tt.in, tt.decimals); got != tt.want {
			t.Errorf("RoundFloat64(%v, %d) = %v, want %v", tt.in, tt.decimals, got, tt.want)
		}
	}
}

func TestDecimalTwo(t *testing.T) {
	if got := DecimalTwo(decimal.RequireFromString("4.125")); got != 4.13 {
		t.Errorf("DecimalTwo(4.125) = %v, want 4.13", got)
	}
	if got := DecimalTwo(decimal.RequireFromString("-0.005")); got != -0.01 {
		t.Errorf("DecimalTwo(-0.005) = %v, want -0.01", got)
	}
}

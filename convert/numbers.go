package convert

import (
	"math"

	"github.com/shopspring/decimal"
)

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(decimals)) / math.Pow10(decimals)
}

// DecimalTwo rounds an exact price half away from zero for display.
func DecimalTwo(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

package calc

type PriceBand string

const (
	PriceBandFree     PriceBand = "free"
	PriceBandLow      PriceBand = "low"
	PriceBandMedium   PriceBand = "medium"
	PriceBandHigh     PriceBand = "high"
	PriceBandVeryHigh PriceBand = "very_high"
)

// BandForCents classifies a price in c/kWh for colouring.
func BandForCents(cents float64) PriceBand {
	switch {
	case cents <= 0:
		return PriceBandFree
	case cents < 5:
		return PriceBandLow
	case cents < 10:
		return PriceBandMedium
	case cents < 15:
		return PriceBandHigh
	default:
		return PriceBandVeryHigh
	}
}

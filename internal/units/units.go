// Package units provides shared constants and conversion for speed units.
// The perception engine reports speeds in m/s; speed-limit signs are posted
// in the market's display unit.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Markets a speed-limit sign can belong to.
const (
	MarketUS    = "us"
	MarketOther = "other"
)

// IsValidMarket reports whether market is a known sign market.
func IsValidMarket(market string) bool {
	return market == MarketUS || market == MarketOther
}

// SignUnit returns the unit speed-limit signs are posted in for a market.
func SignUnit(market string) string {
	if market == MarketUS {
		return MPH
	}
	return KPH
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

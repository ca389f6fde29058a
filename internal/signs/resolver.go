// Package signs maps classified sign values to display asset names. The
// full icon catalogue lives with the presentation layer; this package only
// names assets and reports values it cannot name.
package signs

import (
	"fmt"
	"math"

	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/units"
)

// Resolver names the display asset for a sign. over selects the variant
// shown while the driver exceeds the posted limit.
type Resolver interface {
	Icon(sign perception.SignValue, over bool) (string, bool)
}

// MarketResolver resolves assets for one sign market.
type MarketResolver struct {
	Market string
}

// NewResolver returns a resolver for market.
func NewResolver(market string) MarketResolver {
	return MarketResolver{Market: market}
}

// Icon returns the asset name for sign, or false when no asset exists.
func (r MarketResolver) Icon(sign perception.SignValue, over bool) (string, bool) {
	switch sign.Type {
	case perception.SignSpeedLimit:
		n, ok := r.postedLimit(sign.Number)
		if !ok {
			return "", false
		}
		name := fmt.Sprintf("speed-limit-%s-%d", r.Market, n)
		if over {
			name += "-over"
		}
		return name, true
	case perception.SignStop, perception.SignYield, perception.SignNoEntry, perception.SignSchoolZone:
		return fmt.Sprintf("sign-%s", sign.Type), true
	default:
		return "", false
	}
}

// postedLimit accepts the limits actually posted in the market: multiples
// of 5 from 5 to 90 mph in the US, multiples of 10 from 10 to 130 km/h
// elsewhere.
func (r MarketResolver) postedLimit(v float64) (int, bool) {
	if v != math.Trunc(v) {
		return 0, false
	}
	n := int(v)
	if r.Market == units.MarketUS {
		return n, n >= 5 && n <= 90 && n%5 == 0
	}
	return n, n >= 10 && n <= 130 && n%10 == 0
}

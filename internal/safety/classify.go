package safety

import (
	"math"

	"github.com/banshee-data/vision.safety/internal/perception"
)

// DefaultBonnetAdjustment is the sensor-to-bumper offset in meters.
const DefaultBonnetAdjustment = 1.25

// Policy tunes the classifier.
type Policy struct {
	// BonnetAdjustment is subtracted from the forward car's raw distance.
	BonnetAdjustment float64
	// BicycleCritical allows bicycles to produce critical entries. When
	// false a critical bicycle is reported as a warning.
	BicycleCritical bool
}

// DefaultPolicy returns the default classifier policy.
func DefaultPolicy() Policy {
	return Policy{BonnetAdjustment: DefaultBonnetAdjustment}
}

// Classify derives the single safety state of one frame. Rules apply in
// priority order: any critical object, then any warning object, then the
// forward car distance, then none. Lights and signs are ignored.
func Classify(world *perception.WorldDescription, policy Policy) State {
	if world == nil {
		return None()
	}

	var critical, warning []Collision
	for _, o := range world.Objects {
		if !o.Kind.SupportsCollision() {
			continue
		}
		switch o.Risk {
		case perception.RiskCritical:
			if kind, ok := criticalKind(o.Kind, policy); ok {
				critical = append(critical, Collision{Kind: kind, BoundingBox: o.BoundingBox})
			} else {
				warning = append(warning, Collision{Kind: warningKind(o.Kind), BoundingBox: o.BoundingBox})
			}
		case perception.RiskWarning:
			warning = append(warning, Collision{Kind: warningKind(o.Kind), BoundingBox: o.BoundingBox})
		}
	}

	switch {
	case len(critical) > 0:
		return Collisions(critical, world.FrameSize)
	case len(warning) > 0:
		return Collisions(warning, world.FrameSize)
	case world.ForwardCar != nil:
		d := math.Max(0, world.ForwardCar.DistanceMeters-policy.BonnetAdjustment)
		return Distance(world.ForwardCar.BoundingBox, d, world.FrameSize)
	default:
		return None()
	}
}

func criticalKind(k perception.ObjectKind, policy Policy) (CollisionKind, bool) {
	switch k {
	case perception.KindCar:
		return CriticalCar, true
	case perception.KindPerson:
		return CriticalPerson, true
	case perception.KindBicycle:
		if policy.BicycleCritical {
			return CriticalBicycle, true
		}
	}
	return "", false
}

func warningKind(k perception.ObjectKind) CollisionKind {
	switch k {
	case perception.KindPerson:
		return WarningPerson
	case perception.KindBicycle:
		return WarningBicycle
	default:
		return WarningCar
	}
}

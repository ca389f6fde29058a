// Package safety derives the per-frame collision safety state from the
// perception engine's tracked objects.
package safety

import (
	"github.com/banshee-data/vision.safety/internal/perception"
)

// Variant is the discriminant of a State.
type Variant int

const (
	VariantNone Variant = iota
	VariantDistance
	VariantCollisions
)

func (v Variant) String() string {
	switch v {
	case VariantDistance:
		return "distance"
	case VariantCollisions:
		return "collisions"
	default:
		return "none"
	}
}

// CollisionKind tags one collision entry by severity and object class.
type CollisionKind string

const (
	WarningCar      CollisionKind = "warningCar"
	WarningPerson   CollisionKind = "warningPerson"
	WarningBicycle  CollisionKind = "warningBicycle"
	CriticalCar     CollisionKind = "criticalCar"
	CriticalPerson  CollisionKind = "criticalPerson"
	CriticalBicycle CollisionKind = "criticalBicycle"
)

// IsCritical reports whether the kind is a critical-severity entry.
func (k CollisionKind) IsCritical() bool {
	return k == CriticalCar || k == CriticalPerson || k == CriticalBicycle
}

// IsPerson reports whether the entry is a pedestrian.
func (k CollisionKind) IsPerson() bool {
	return k == WarningPerson || k == CriticalPerson
}

// Collision is one object at collision risk.
type Collision struct {
	Kind        CollisionKind   `json:"kind"`
	BoundingBox perception.Rect `json:"box"`
}

// State is the tagged safety state of one frame. Exactly one variant is
// active; use the constructors rather than building a State by hand.
type State struct {
	variant Variant

	// distance payload
	boundingBox    perception.Rect
	distanceMeters float64

	// collisions payload
	collisions []Collision

	frameSize perception.Size
}

// None returns the idle state.
func None() State { return State{} }

// Distance returns a distance state for the forward car.
func Distance(box perception.Rect, distanceMeters float64, frameSize perception.Size) State {
	return State{
		variant:        VariantDistance,
		boundingBox:    box,
		distanceMeters: distanceMeters,
		frameSize:      frameSize,
	}
}

// Collisions returns a collisions state. An empty list yields None.
func Collisions(list []Collision, frameSize perception.Size) State {
	if len(list) == 0 {
		return None()
	}
	cp := make([]Collision, len(list))
	copy(cp, list)
	return State{variant: VariantCollisions, collisions: cp, frameSize: frameSize}
}

// Variant returns the active discriminant.
func (s State) Variant() Variant { return s.variant }

// IsNone reports whether the state is idle.
func (s State) IsNone() bool { return s.variant == VariantNone }

// Distance returns the forward-car payload when the variant is distance.
func (s State) Distance() (box perception.Rect, meters float64, ok bool) {
	if s.variant != VariantDistance {
		return perception.Rect{}, 0, false
	}
	return s.boundingBox, s.distanceMeters, true
}

// Collisions returns a copy of the collision entries, or nil.
func (s State) Collisions() []Collision {
	if s.variant != VariantCollisions {
		return nil
	}
	cp := make([]Collision, len(s.collisions))
	copy(cp, s.collisions)
	return cp
}

// FrameSize returns the frame size the payload refers to.
func (s State) FrameSize() perception.Size { return s.frameSize }

// HasCritical reports whether any collision entry is critical.
func (s State) HasCritical() bool {
	for _, c := range s.collisions {
		if c.Kind.IsCritical() {
			return true
		}
	}
	return false
}

// HasPerson reports whether any collision entry is a pedestrian.
func (s State) HasPerson() bool {
	for _, c := range s.collisions {
		if c.Kind.IsPerson() {
			return true
		}
	}
	return false
}

// SameKind compares discriminants only, ignoring payload. The engine uses
// it to gate speed-limit audio.
func (s State) SameKind(o State) bool { return s.variant == o.variant }

// Equal is full structural equality, used for UI diffing.
func (s State) Equal(o State) bool {
	if s.variant != o.variant || s.frameSize != o.frameSize {
		return false
	}
	switch s.variant {
	case VariantDistance:
		return s.boundingBox == o.boundingBox && s.distanceMeters == o.distanceMeters
	case VariantCollisions:
		if len(s.collisions) != len(o.collisions) {
			return false
		}
		for i := range s.collisions {
			if s.collisions[i] != o.collisions[i] {
				return false
			}
		}
	}
	return true
}

// View is the JSON-friendly rendering of a State for presentation layers.
type View struct {
	State          string           `json:"state"`
	BoundingBox    *perception.Rect `json:"box,omitempty"`
	DistanceMeters *float64         `json:"distance_m,omitempty"`
	Collisions     []Collision      `json:"collisions,omitempty"`
	FrameSize      *perception.Size `json:"frame_size,omitempty"`
}

// View renders s for JSON output.
func (s State) View() View {
	v := View{State: s.variant.String()}
	switch s.variant {
	case VariantDistance:
		box, d, fs := s.boundingBox, s.distanceMeters, s.frameSize
		v.BoundingBox, v.DistanceMeters, v.FrameSize = &box, &d, &fs
	case VariantCollisions:
		fs := s.frameSize
		v.Collisions, v.FrameSize = s.Collisions(), &fs
	}
	return v
}

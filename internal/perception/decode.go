package perception

import (
	"encoding/json"
	"fmt"
)

// Decode parses one JSON frame line and validates its enumerations.
func Decode(line []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate rejects frames carrying enumeration values the engine does not
// understand. Absent optional fields are always valid.
func (f *Frame) Validate() error {
	if f.LaneDeparture != nil && !f.LaneDeparture.valid() {
		return fmt.Errorf("unknown lane departure state %q", *f.LaneDeparture)
	}
	if f.World != nil {
		for i, o := range f.World.Objects {
			if err := o.validate(); err != nil {
				return fmt.Errorf("object %d: %w", i, err)
			}
		}
		if f.World.ForwardCar != nil {
			if err := f.World.ForwardCar.validate(); err != nil {
				return fmt.Errorf("forward car: %w", err)
			}
		}
	}
	return nil
}

func (o TrackedObject) validate() error {
	if !o.Kind.valid() {
		return fmt.Errorf("unknown object kind %q", o.Kind)
	}
	if o.Risk == "" {
		return nil
	}
	if !o.Risk.valid() {
		return fmt.Errorf("unknown risk level %q", o.Risk)
	}
	return nil
}

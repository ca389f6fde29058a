// Package speedlimit decides, per frame carrying a speed-limit reading,
// whether to highlight the sign and whether to announce a new limit or an
// over-limit condition, without re-announcing the same sign every frame.
package speedlimit

import (
	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/safety"
	"github.com/banshee-data/vision.safety/internal/units"
)

// Config tunes the advisor.
type Config struct {
	// SeenInterval is the gap, in frame timestamp units, after which the
	// same sign counts as re-confirmed.
	SeenInterval float64
	// WarningThreshold is the margin over the limit, in the sign unit,
	// that counts as speeding.
	WarningThreshold float64
	// Unit is the unit the sign number is posted in.
	Unit string
}

// DefaultConfig returns the US defaults.
func DefaultConfig() Config {
	return Config{SeenInterval: 5, WarningThreshold: 5, Unit: units.MPH}
}

// Decision is the outcome of evaluating one reading.
type Decision struct {
	IsNewLimit                  bool
	IsNewSameLimit              bool
	Highlight                   bool
	IsSpeedingThresholdExceeded bool
	// Sound is the sound to play, or empty.
	Sound alert.Sound
	// AudioGated is set when a sound was withheld because a collision
	// state is active.
	AudioGated bool
}

type memory struct {
	sign     perception.SignValue
	lastSeen float64
}

// Advisor carries the last reading and the over-limit flag across frames.
// It is not safe for concurrent use.
type Advisor struct {
	cfg             Config
	last            *memory
	overLimitBeeped bool
}

// NewAdvisor creates an advisor with no memory.
func NewAdvisor(cfg Config) *Advisor {
	return &Advisor{cfg: cfg}
}

// Evaluate applies the new/same-limit and over-limit rules to one reading.
// collision is the latest collision state; an active collisions state
// withholds speed-limit audio.
func (a *Advisor) Evaluate(r perception.SpeedLimitReading, collision safety.State) Decision {
	var d Decision
	switch {
	case a.last == nil || a.last.sign != r.Sign:
		d.IsNewLimit = true
	default:
		d.IsNewSameLimit = r.LastSeen-a.last.lastSeen > a.cfg.SeenInterval
	}
	d.Highlight = d.IsNewLimit || d.IsNewSameLimit

	speed := units.ConvertSpeed(r.SpeedMPS, a.cfg.Unit)
	d.IsSpeedingThresholdExceeded = speed > r.Sign.Number+a.cfg.WarningThreshold

	if !r.IsSpeeding {
		a.overLimitBeeped = false
	}

	var sound alert.Sound
	switch {
	case d.IsNewLimit:
		sound = alert.SoundNewSpeedLimit
	case d.IsSpeedingThresholdExceeded && !a.overLimitBeeped:
		sound = alert.SoundOverSpeedLimit
	}

	if sound != "" {
		if collision.Variant() == safety.VariantCollisions {
			d.AudioGated = true
		} else {
			d.Sound = sound
			if d.IsNewLimit {
				a.overLimitBeeped = d.IsSpeedingThresholdExceeded
			} else {
				a.overLimitBeeped = true
			}
		}
	}

	a.last = &memory{sign: r.Sign, lastSeen: r.LastSeen}
	return d
}

// OverLimitArmed reports whether the over-limit alert has already fired for
// the current speeding episode.
func (a *Advisor) OverLimitArmed() bool { return a.overLimitBeeped }

// Last returns the remembered sign and its last-seen time.
func (a *Advisor) Last() (perception.SignValue, float64, bool) {
	if a.last == nil {
		return perception.SignValue{}, 0, false
	}
	return a.last.sign, a.last.lastSeen, true
}

// Reset forgets the last reading and clears the over-limit flag.
func (a *Advisor) Reset() {
	a.last = nil
	a.overLimitBeeped = false
}

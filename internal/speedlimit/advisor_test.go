package speedlimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/safety"
	"github.com/banshee-data/vision.safety/internal/units"
)

func limit(n float64) perception.SignValue {
	return perception.SignValue{Type: perception.SignSpeedLimit, Number: n}
}

// mph converts a speed in mph to the m/s the perception engine reports.
func mph(v float64) float64 { return v / units.ConvertSpeed(1, units.MPH) }

func reading(n, lastSeen, speedMPH float64, speeding bool) perception.SpeedLimitReading {
	return perception.SpeedLimitReading{Sign: limit(n), LastSeen: lastSeen, SpeedMPS: mph(speedMPH), IsSpeeding: speeding}
}

var collisions = safety.Collisions([]safety.Collision{{Kind: safety.WarningCar}}, perception.Size{})

func TestAdvisor_NewVsSameLimit(t *testing.T) {
	tests := []struct {
		name        string
		second      perception.SpeedLimitReading
		wantNew     bool
		wantNewSame bool
	}{
		{"same sign inside interval", reading(55, 4, 50, false), false, false},
		{"same sign after interval", reading(55, 6, 50, false), false, true},
		{"same sign exactly at interval", reading(55, 5, 50, false), false, false},
		{"different sign", reading(65, 1, 50, false), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdvisor(DefaultConfig())
			first := a.Evaluate(reading(55, 0, 50, false), safety.None())
			require.True(t, first.IsNewLimit)
			require.True(t, first.Highlight)

			d := a.Evaluate(tt.second, safety.None())
			assert.Equal(t, tt.wantNew, d.IsNewLimit)
			assert.Equal(t, tt.wantNewSame, d.IsNewSameLimit)
			assert.Equal(t, tt.wantNew || tt.wantNewSame, d.Highlight)
		})
	}
}

func TestAdvisor_NewLimitAlwaysAnnounced(t *testing.T) {
	a := NewAdvisor(DefaultConfig())

	d := a.Evaluate(reading(55, 0, 40, false), safety.None())
	assert.Equal(t, alert.SoundNewSpeedLimit, d.Sound)
	assert.False(t, a.OverLimitArmed())

	d = a.Evaluate(reading(55, 1, 40, false), safety.None())
	assert.Empty(t, d.Sound, "same limit is not re-announced")
}

func TestAdvisor_NewLimitWhileSpeedingArmsFlag(t *testing.T) {
	a := NewAdvisor(DefaultConfig())

	d := a.Evaluate(reading(55, 0, 70, true), safety.None())
	assert.Equal(t, alert.SoundNewSpeedLimit, d.Sound)
	assert.True(t, d.IsSpeedingThresholdExceeded)
	assert.True(t, a.OverLimitArmed())

	// Still speeding: the over-limit sound is not played on top.
	d = a.Evaluate(reading(55, 1, 70, true), safety.None())
	assert.Empty(t, d.Sound)
}

func TestAdvisor_OverLimitOncePerEpisode(t *testing.T) {
	a := NewAdvisor(DefaultConfig())
	a.Evaluate(reading(55, 0, 50, false), safety.None())

	// 59 mph is not over 55+5.
	d := a.Evaluate(reading(55, 1, 59, true), safety.None())
	assert.False(t, d.IsSpeedingThresholdExceeded)
	assert.Empty(t, d.Sound)

	d = a.Evaluate(reading(55, 2, 61, true), safety.None())
	assert.True(t, d.IsSpeedingThresholdExceeded)
	assert.Equal(t, alert.SoundOverSpeedLimit, d.Sound)

	d = a.Evaluate(reading(55, 3, 65, true), safety.None())
	assert.Empty(t, d.Sound, "already beeped for this episode")

	// Driver slows down: flag clears.
	a.Evaluate(reading(55, 4, 50, false), safety.None())
	assert.False(t, a.OverLimitArmed())

	d = a.Evaluate(reading(55, 5, 66, true), safety.None())
	assert.Equal(t, alert.SoundOverSpeedLimit, d.Sound, "re-armed after slowing down")
}

func TestAdvisor_CollisionsGateAudio(t *testing.T) {
	a := NewAdvisor(DefaultConfig())

	d := a.Evaluate(reading(55, 0, 70, true), collisions)
	assert.True(t, d.IsNewLimit)
	assert.True(t, d.Highlight, "highlight is not gated")
	assert.Empty(t, d.Sound)
	assert.True(t, d.AudioGated)

	// Once the collision clears, the over-limit alert still fires.
	d = a.Evaluate(reading(55, 1, 70, true), safety.Distance(perception.Rect{}, 10, perception.Size{}))
	assert.Equal(t, alert.SoundOverSpeedLimit, d.Sound)
}

func TestAdvisor_KilometresPerHour(t *testing.T) {
	a := NewAdvisor(Config{SeenInterval: 5, WarningThreshold: 5, Unit: units.KPH})
	a.Evaluate(perception.SpeedLimitReading{Sign: limit(50), SpeedMPS: 10}, safety.None()) // 36 km/h

	d := a.Evaluate(perception.SpeedLimitReading{Sign: limit(50), LastSeen: 1, SpeedMPS: 15.5, IsSpeeding: true}, safety.None()) // 55.8 km/h
	assert.True(t, d.IsSpeedingThresholdExceeded)
	assert.Equal(t, alert.SoundOverSpeedLimit, d.Sound)
}

func TestAdvisor_Reset(t *testing.T) {
	a := NewAdvisor(DefaultConfig())
	a.Evaluate(reading(55, 0, 70, true), safety.None())

	sign, seen, ok := a.Last()
	require.True(t, ok)
	assert.Equal(t, limit(55), sign)
	assert.Equal(t, 0.0, seen)

	a.Reset()
	_, _, ok = a.Last()
	assert.False(t, ok)
	assert.False(t, a.OverLimitArmed())

	d := a.Evaluate(reading(55, 1, 50, false), safety.None())
	assert.True(t, d.IsNewLimit, "memory cleared by reset")
}

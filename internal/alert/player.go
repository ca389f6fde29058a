package alert

import (
	"sync"

	"github.com/banshee-data/vision.safety/internal/monitoring"
)

// Sound identifies an alert sound asset.
type Sound string

const (
	SoundCollisionWarning  Sound = "collision-alert-warning"
	SoundCollisionCritical Sound = "collision-alert-critical"
	SoundNewSpeedLimit     Sound = "new-speed-limit"
	SoundOverSpeedLimit    Sound = "over-speed-limit"
	SoundLaneDeparture     Sound = "lane-departure-warning"
)

// Player is the audio collaborator. Calls are fire-and-forget; starting a
// sound implicitly stops a looping one.
type Player interface {
	Play(sound Sound, repeated bool)
	Stop()
}

// LogPlayer is a Player that only logs. It stands in for real audio output
// on headless deployments.
type LogPlayer struct{}

// Play logs the sound.
func (LogPlayer) Play(sound Sound, repeated bool) {
	monitoring.Logf("play sound=%s repeated=%v", sound, repeated)
}

// Stop logs the stop.
func (LogPlayer) Stop() {
	monitoring.Logf("stop sound")
}

// PlayCall records one Play invocation.
type PlayCall struct {
	Sound    Sound
	Repeated bool
}

// RecordingPlayer records calls for tests.
type RecordingPlayer struct {
	mu      sync.Mutex
	plays   []PlayCall
	stops   int
	current *PlayCall
}

// Play records the call.
func (p *RecordingPlayer) Play(sound Sound, repeated bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := PlayCall{Sound: sound, Repeated: repeated}
	p.plays = append(p.plays, c)
	p.current = &c
}

// Stop records the call.
func (p *RecordingPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.current = nil
}

// Plays returns a copy of every recorded Play.
func (p *RecordingPlayer) Plays() []PlayCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlayCall, len(p.plays))
	copy(out, p.plays)
	return out
}

// Sounds returns the sounds played, in order.
func (p *RecordingPlayer) Sounds() []Sound {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sound, len(p.plays))
	for i, c := range p.plays {
		out[i] = c.Sound
	}
	return out
}

// Stops returns the number of Stop calls.
func (p *RecordingPlayer) Stops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// Current returns the sound playing right now, if any. A non-repeated sound
// counts as playing until the next Stop or Play.
func (p *RecordingPlayer) Current() (PlayCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return PlayCall{}, false
	}
	return *p.current, true
}

// Reset clears the recording.
func (p *RecordingPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = nil
	p.stops = 0
	p.current = nil
}

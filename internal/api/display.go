package api

import (
	"sync"
	"time"

	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/safety"
	"github.com/banshee-data/vision.safety/internal/speedlimit"
	"github.com/banshee-data/vision.safety/internal/timeutil"
)

// Snapshot is everything currently on screen.
type Snapshot struct {
	Screen        engine.Screen                   `json:"screen"`
	BackButton    bool                            `json:"back_button"`
	Signs         []string                        `json:"signs"`
	Safety        safety.View                     `json:"safety"`
	LaneDeparture perception.LaneDepartureState   `json:"lane_departure"`
	SpeedLimit    *speedlimit.Status              `json:"speed_limit"`
	Calibration   *perception.CalibrationProgress `json:"calibration"`
	Road          *perception.RoadDescription     `json:"road"`
	Version       uint64                          `json:"version"`
	UpdatedAt     time.Time                       `json:"updated_at"`
}

// Display is an engine.Presenter that keeps the latest presented values
// for the HTTP API and notifies watchers on every change.
type Display struct {
	clock timeutil.Clock

	mu       sync.Mutex
	snap     Snapshot
	watchers map[chan struct{}]struct{}
}

// NewDisplay creates an empty display showing the menu.
func NewDisplay(clock timeutil.Clock) *Display {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Display{
		clock: clock,
		snap: Snapshot{
			Screen:        engine.ScreenMenu,
			Signs:         []string{},
			Safety:        safety.None().View(),
			LaneDeparture: perception.LaneNormal,
		},
		watchers: make(map[chan struct{}]struct{}),
	}
}

// Snapshot returns a copy of the current values.
func (d *Display) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.snap
	s.Signs = append([]string{}, d.snap.Signs...)
	if s.SpeedLimit != nil {
		v := *s.SpeedLimit
		s.SpeedLimit = &v
	}
	return s
}

// Watch returns a channel that receives a signal after each change. The
// channel holds at most one pending signal; call the returned func to stop
// watching.
func (d *Display) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	d.mu.Lock()
	d.watchers[ch] = struct{}{}
	d.mu.Unlock()
	return ch, func() {
		d.mu.Lock()
		delete(d.watchers, ch)
		d.mu.Unlock()
	}
}

func (d *Display) update(fn func(*Snapshot)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.snap)
	d.snap.Version++
	d.snap.UpdatedAt = d.clock.Now()
	for ch := range d.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Display) PresentScreen(s engine.Screen) {
	d.update(func(snap *Snapshot) { snap.Screen = s })
}

func (d *Display) PresentBackButton(visible bool) {
	d.update(func(snap *Snapshot) { snap.BackButton = visible })
}

func (d *Display) PresentSigns(icons []string) {
	icons = append([]string{}, icons...)
	d.update(func(snap *Snapshot) { snap.Signs = icons })
}

func (d *Display) PresentSafetyState(s safety.State) {
	v := s.View()
	d.update(func(snap *Snapshot) { snap.Safety = v })
}

func (d *Display) PresentLaneDeparture(l perception.LaneDepartureState) {
	d.update(func(snap *Snapshot) { snap.LaneDeparture = l })
}

func (d *Display) PresentSpeedLimit(status *speedlimit.Status) {
	if status != nil {
		v := *status
		status = &v
	}
	d.update(func(snap *Snapshot) { snap.SpeedLimit = status })
}

func (d *Display) PresentCalibration(c *perception.CalibrationProgress) {
	d.update(func(snap *Snapshot) { snap.Calibration = c })
}

func (d *Display) PresentRoad(r *perception.RoadDescription) {
	d.update(func(snap *Snapshot) { snap.Road = r })
}

// Package engine is the mode controller. It owns every stateful decision
// component, routes perception updates to the ones the active screen
// governs, and resets all of them on every screen transition.
package engine

import (
	"errors"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/config"
	"github.com/banshee-data/vision.safety/internal/monitoring"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/safety"
	"github.com/banshee-data/vision.safety/internal/signs"
	"github.com/banshee-data/vision.safety/internal/speedlimit"
	"github.com/banshee-data/vision.safety/internal/timeutil"
	"github.com/banshee-data/vision.safety/internal/tracker"
)

// Options wires an Engine to its collaborators. Presenter, Player and
// Scheduler are required.
type Options struct {
	Config    *config.EngineConfig
	Scheduler timeutil.Scheduler
	Presenter Presenter
	Player    alert.Player
	// Source receives performance hints and supplies calibration progress.
	Source perception.Source
	// Resolver defaults to the configured market's resolver.
	Resolver signs.Resolver
	Recorder AlertRecorder
}

// Engine is not safe for concurrent use. Drive it from a single goroutine,
// normally through Loop.
type Engine struct {
	cfg       *config.EngineConfig
	scheduler timeutil.Scheduler
	presenter Presenter
	player    alert.Player
	source    perception.Source
	resolver  signs.Resolver
	recorder  AlertRecorder
	policy    safety.Policy

	screen Screen
	// epoch changes on every transition; callbacks scheduled in an older
	// epoch do nothing.
	epoch     uint64
	frameTime float64

	signTracker *tracker.Tracker[perception.SignValue]
	signTick    timeutil.Handle

	collisionGate *alert.Gate
	lastSafety    safety.State

	advisor       *speedlimit.Advisor
	highlightGate *alert.Gate
	speedStatus   *speedlimit.Status

	laneLoop *alert.Loop
}

// New creates an engine on the menu screen and presents the idle state.
func New(opts Options) (*Engine, error) {
	if opts.Presenter == nil {
		return nil, errors.New("engine: presenter is required")
	}
	if opts.Player == nil {
		return nil, errors.New("engine: player is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("engine: scheduler is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyEngineConfig()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = signs.NewResolver(cfg.GetMarket())
	}

	e := &Engine{
		cfg:       cfg,
		scheduler: opts.Scheduler,
		presenter: opts.Presenter,
		player:    opts.Player,
		source:    opts.Source,
		resolver:  resolver,
		recorder:  opts.Recorder,
		policy: safety.Policy{
			BonnetAdjustment: cfg.GetBonnetAdjustment(),
			BicycleCritical:  cfg.GetBicycleCritical(),
		},
		screen:      ScreenMenu,
		signTracker: tracker.New[perception.SignValue](cfg.GetSignTrackerCapacity()),
		lastSafety:  safety.None(),
		advisor: speedlimit.NewAdvisor(speedlimit.Config{
			SeenInterval:     cfg.GetSpeedLimitSeenInterval(),
			WarningThreshold: cfg.GetSpeedLimitWarningThreshold(),
			Unit:             cfg.GetSpeedUnit(),
		}),
		laneLoop: alert.NewLoop(alert.CategoryLaneDeparture),
	}
	e.collisionGate = alert.NewGate(alert.CategoryCollision, cfg.GetCollisionCooldown(), e.scheduler)
	e.highlightGate = alert.NewGate(alert.CategorySpeedLimitHighlight, cfg.GetSpeedLimitHighlight(), e.scheduler)
	e.highlightGate.OnReset(e.highlightExpired(e.epoch))

	e.presentIdle()
	e.presenter.PresentScreen(ScreenMenu)
	e.presenter.PresentBackButton(false)
	e.setPerformance(ScreenMenu)
	return e, nil
}

// Screen returns the active screen.
func (e *Engine) Screen() Screen { return e.screen }

// LastSafetyState returns the most recent classification on the distance
// screen, or none.
func (e *Engine) LastSafetyState() safety.State { return e.lastSafety }

// Select activates screen. Screens form a tree of depth one under the menu,
// so selecting from any other screen first returns to the menu.
func (e *Engine) Select(screen Screen) error {
	if _, err := ParseScreen(string(screen)); err != nil {
		return err
	}
	if screen == ScreenMenu {
		e.BackToMenu()
		return nil
	}
	if e.screen != ScreenMenu {
		e.BackToMenu()
	}

	e.reset()
	e.screen = screen
	monitoring.Logf("engine: enter %s (epoch %d)", screen, e.epoch)

	e.presenter.PresentScreen(screen)
	e.presenter.PresentBackButton(true)
	e.setPerformance(screen)

	switch screen {
	case ScreenSignsDetection:
		e.scheduleSignPublish()
	case ScreenDistanceToObject:
		e.presenter.PresentSafetyState(e.lastSafety)
		var progress *perception.CalibrationProgress
		if e.source != nil {
			progress = e.source.CalibrationProgress()
		}
		e.presenter.PresentCalibration(progress)
	}
	return nil
}

// BackToMenu tears down the active screen and presents idle values.
func (e *Engine) BackToMenu() {
	prev := e.screen
	e.reset()
	e.screen = ScreenMenu
	if prev != ScreenMenu {
		monitoring.Logf("engine: leave %s (epoch %d)", prev, e.epoch)
	}

	e.player.Stop()
	e.presentIdle()
	e.presenter.PresentScreen(ScreenMenu)
	e.presenter.PresentBackButton(false)
	e.setPerformance(ScreenMenu)
}

// reset clears all per-screen state and invalidates pending callbacks.
func (e *Engine) reset() {
	e.epoch++
	if e.signTick != nil {
		e.signTick.Cancel()
		e.signTick = nil
	}
	e.signTracker.Reset()
	e.collisionGate.Reset()
	e.lastSafety = safety.None()
	e.advisor.Reset()
	e.highlightGate.Reset()
	e.highlightGate.OnReset(e.highlightExpired(e.epoch))
	e.speedStatus = nil
	e.laneLoop.Reset()
}

func (e *Engine) presentIdle() {
	e.presenter.PresentSigns([]string{})
	e.presenter.PresentRoad(nil)
	e.presenter.PresentLaneDeparture(perception.LaneNormal)
	e.presenter.PresentSafetyState(safety.None())
	e.presenter.PresentCalibration(nil)
	e.presenter.PresentSpeedLimit(nil)
}

func (e *Engine) setPerformance(screen Screen) {
	if e.source != nil {
		e.source.SetPerformance(screen.Performance())
	}
}

// HandleFrame dispatches one perception frame in a fixed order: lane,
// signs, world, speed limit, calibration, road. Absent lane, signs,
// calibration and road fields mean no update. World and speed limit are
// delivered every frame; their absence publishes none and clears the sign.
func (e *Engine) HandleFrame(f perception.Frame) {
	e.frameTime = f.Timestamp
	if f.LaneDeparture != nil {
		e.OnLaneDeparture(*f.LaneDeparture)
	}
	if f.Classifications != nil {
		e.OnSignClassifications(f.Classifications, f.Timestamp)
	}
	e.OnWorldDescription(f.World)
	e.OnSpeedLimit(f.SpeedLimit)
	if f.Calibration != nil {
		e.OnCalibrationProgress(f.Calibration)
	}
	if f.Road != nil {
		e.OnRoadDescription(f.Road)
	}
}

// OnLaneDeparture drives the looping lane-departure sound on transitions
// into and out of the alert state.
func (e *Engine) OnLaneDeparture(state perception.LaneDepartureState) {
	if e.screen != ScreenLaneDetection {
		return
	}
	start, stop := e.laneLoop.Update(state == perception.LaneAlert)
	switch {
	case start:
		e.player.Play(alert.SoundLaneDeparture, true)
		e.record(alert.CategoryLaneDeparture, alert.SoundLaneDeparture, true)
	case stop:
		e.player.Stop()
	}
	e.presenter.PresentLaneDeparture(state)
}

// OnRoadDescription passes the lane geometry through to the presenter.
func (e *Engine) OnRoadDescription(road *perception.RoadDescription) {
	if e.screen != ScreenLaneDetection {
		return
	}
	e.presenter.PresentRoad(road)
}

// OnSignClassifications feeds one batch into the tracker. The tracked list
// is published on the 1 Hz timer, not per batch.
func (e *Engine) OnSignClassifications(batch []perception.SignValue, now float64) {
	if e.screen != ScreenSignsDetection {
		return
	}
	e.signTracker.Update(batch, now)
}

func (e *Engine) scheduleSignPublish() {
	epoch := e.epoch
	e.signTick = e.scheduler.Schedule(e.cfg.GetSignPublishInterval(), func() {
		if epoch != e.epoch || e.screen != ScreenSignsDetection {
			return
		}
		e.publishSigns()
		e.scheduleSignPublish()
	})
}

func (e *Engine) publishSigns() {
	current := e.signTracker.Current()
	icons := make([]string, 0, len(current))
	for _, sign := range current {
		icon, ok := e.resolver.Icon(sign, false)
		if !ok {
			monitoring.Anomalyf("no icon for sign %s %g", sign.Type, sign.Number)
			continue
		}
		icons = append(icons, icon)
	}
	e.presenter.PresentSigns(icons)
}

// OnWorldDescription classifies the scene, publishes the safety state and
// beeps for collisions involving a person or a critical risk, at most once
// per collision cooldown.
func (e *Engine) OnWorldDescription(world *perception.WorldDescription) {
	if e.screen != ScreenDistanceToObject {
		return
	}
	state := safety.Classify(world, e.policy)
	prev := e.lastSafety
	e.lastSafety = state
	e.presenter.PresentSafetyState(state)

	if state.Variant() != safety.VariantCollisions {
		if prev.Variant() == safety.VariantCollisions {
			e.player.Stop()
		}
		return
	}
	candidate := state.HasPerson() || state.HasCritical()
	if !e.collisionGate.ShouldFire(candidate) {
		return
	}
	sound := alert.SoundCollisionWarning
	if state.HasCritical() {
		sound = alert.SoundCollisionCritical
	}
	e.player.Play(sound, false)
	e.collisionGate.MarkFired()
	e.record(alert.CategoryCollision, sound, false)
}

// OnSpeedLimit updates the speed-limit sign, its highlight and its audio.
// A nil reading hides the sign and drops any highlight.
func (e *Engine) OnSpeedLimit(reading *perception.SpeedLimitReading) {
	if e.screen != ScreenDistanceToObject {
		return
	}
	if reading == nil {
		e.highlightGate.Reset()
		if e.speedStatus != nil {
			e.speedStatus = nil
			e.presenter.PresentSpeedLimit(nil)
		}
		return
	}

	d := e.advisor.Evaluate(*reading, e.lastSafety)
	if d.Highlight {
		e.highlightGate.MarkFired()
	}

	if icon, ok := e.resolver.Icon(reading.Sign, reading.IsSpeeding); ok {
		e.speedStatus = &speedlimit.Status{Icon: icon, IsHighlighted: e.highlightGate.Suppressed()}
		status := *e.speedStatus
		e.presenter.PresentSpeedLimit(&status)
	} else {
		monitoring.Anomalyf("no icon for speed limit %g (over=%t)", reading.Sign.Number, reading.IsSpeeding)
	}

	if d.Sound != "" {
		e.player.Play(d.Sound, false)
		category := alert.CategorySpeedLimitOver
		if d.IsNewLimit {
			category = alert.CategorySpeedLimitNew
		}
		e.record(category, d.Sound, false)
	}
}

// highlightExpired returns the highlight gate's reset hook for epoch.
func (e *Engine) highlightExpired(epoch uint64) func() {
	return func() {
		if epoch != e.epoch || e.screen != ScreenDistanceToObject || e.speedStatus == nil {
			return
		}
		e.speedStatus.IsHighlighted = false
		status := *e.speedStatus
		e.presenter.PresentSpeedLimit(&status)
	}
}

// OnCalibrationProgress passes calibration progress through to the
// presenter.
func (e *Engine) OnCalibrationProgress(progress *perception.CalibrationProgress) {
	if e.screen != ScreenDistanceToObject {
		return
	}
	e.presenter.PresentCalibration(progress)
}

func (e *Engine) record(category alert.Category, sound alert.Sound, repeated bool) {
	if e.recorder == nil {
		return
	}
	ev := AlertEvent{
		Category:       category,
		Sound:          sound,
		Repeated:       repeated,
		Screen:         e.screen,
		FrameTimestamp: e.frameTime,
		At:             e.scheduler.Now(),
	}
	if err := e.recorder.RecordAlert(ev); err != nil {
		monitoring.Logf("engine: record %s alert: %v", category, err)
	}
}

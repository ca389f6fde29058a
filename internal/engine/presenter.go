package engine

import (
	"time"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/safety"
	"github.com/banshee-data/vision.safety/internal/speedlimit"
)

// Presenter receives every UI-facing value the engine derives.
type Presenter interface {
	PresentScreen(Screen)
	PresentBackButton(visible bool)
	PresentSigns(icons []string)
	PresentSafetyState(safety.State)
	PresentLaneDeparture(perception.LaneDepartureState)
	// PresentSpeedLimit shows the sign, or hides it when status is nil.
	PresentSpeedLimit(status *speedlimit.Status)
	PresentCalibration(*perception.CalibrationProgress)
	PresentRoad(*perception.RoadDescription)
}

// AlertEvent describes one sound the engine triggered.
type AlertEvent struct {
	Category       alert.Category
	Sound          alert.Sound
	Repeated       bool
	Screen         Screen
	FrameTimestamp float64
	At             time.Time
}

// AlertRecorder persists triggered alerts. Errors are logged by the engine
// and never stop frame processing.
type AlertRecorder interface {
	RecordAlert(AlertEvent) error
}

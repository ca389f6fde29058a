package engine

import (
	"fmt"

	"github.com/banshee-data/vision.safety/internal/perception"
)

// Screen is the active UI mode. It decides which perception updates the
// engine acts on.
type Screen string

const (
	ScreenMenu             Screen = "menu"
	ScreenSignsDetection   Screen = "signsDetection"
	ScreenSegmentation     Screen = "segmentation"
	ScreenObjectDetection  Screen = "objectDetection"
	ScreenDistanceToObject Screen = "distanceToObject"
	ScreenMap              Screen = "map"
	ScreenLaneDetection    Screen = "laneDetection"
	ScreenARRouting        Screen = "arRouting"
)

// Screens lists every screen in menu order.
var Screens = []Screen{
	ScreenMenu,
	ScreenSignsDetection,
	ScreenSegmentation,
	ScreenObjectDetection,
	ScreenDistanceToObject,
	ScreenMap,
	ScreenLaneDetection,
	ScreenARRouting,
}

// ParseScreen validates a screen name.
func ParseScreen(s string) (Screen, error) {
	for _, sc := range Screens {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown screen %q", s)
}

// Performance returns the perception model-rate profile for the screen.
func (s Screen) Performance() perception.Performance {
	switch s {
	case ScreenSignsDetection, ScreenObjectDetection, ScreenSegmentation:
		return perception.PerformanceHigh
	case ScreenDistanceToObject, ScreenLaneDetection:
		return perception.PerformanceMedium
	default:
		return perception.PerformanceLow
	}
}

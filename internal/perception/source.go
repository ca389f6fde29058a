package perception

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/vision.safety/internal/framemux"
	"github.com/banshee-data/vision.safety/internal/monitoring"
)

// Source is the engine's port onto the perception engine for everything
// that is not a per-frame update.
type Source interface {
	// CalibrationProgress returns the most recent calibration progress, or
	// nil if none has been reported.
	CalibrationProgress() *CalibrationProgress
	// SetPerformance requests a model-rate profile. Fire-and-forget.
	SetPerformance(Performance)
}

// Transport is the subset of framemux.Interface the LineSource needs.
type Transport interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
	SendCommand(string) error
}

// LineSource adapts a line transport carrying JSON frames into a Source and
// a frame channel.
type LineSource struct {
	transport Transport

	mu          sync.Mutex
	subID       string
	lines       chan string
	calibration *CalibrationProgress
	performance Performance
	decodeErrs  int
}

// NewLineSource creates a LineSource reading from transport.
func NewLineSource(transport Transport) *LineSource {
	return &LineSource{transport: transport}
}

// Subscribe attaches to the transport without reading. Call it before the
// transport starts monitoring so no early line is fanned out to nobody. Run
// subscribes on its own if Subscribe was not called.
func (s *LineSource) Subscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		s.subID, s.lines = s.transport.Subscribe()
	}
}

// Run forwards decoded frames to out until ctx is cancelled or the
// subscription closes. Command replies are ignored; malformed frames are
// logged and skipped.
func (s *LineSource) Run(ctx context.Context, out chan<- Frame) error {
	s.Subscribe()
	s.mu.Lock()
	id, lines := s.subID, s.lines
	s.mu.Unlock()
	defer s.transport.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if framemux.ClassifyLine(line) != framemux.LineFrame {
				continue
			}
			frame, err := Decode([]byte(line))
			if err != nil {
				s.mu.Lock()
				s.decodeErrs++
				s.mu.Unlock()
				monitoring.Logf("skipping frame: %v", err)
				continue
			}
			if frame.Calibration != nil {
				c := *frame.Calibration
				s.mu.Lock()
				s.calibration = &c
				s.mu.Unlock()
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// CalibrationProgress returns the last calibration progress seen on the wire.
func (s *LineSource) CalibrationProgress() *CalibrationProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calibration == nil {
		return nil
	}
	c := *s.calibration
	return &c
}

// SetPerformance forwards the profile to the device as a "PERF <profile>"
// command. Repeated requests for the active profile are not resent.
func (s *LineSource) SetPerformance(p Performance) {
	s.mu.Lock()
	if s.performance == p {
		s.mu.Unlock()
		return
	}
	s.performance = p
	s.mu.Unlock()

	if err := s.transport.SendCommand(fmt.Sprintf("PERF %s", p)); err != nil {
		monitoring.Logf("failed to set perception performance %q: %v", p, err)
	}
}

// DecodeErrors returns the number of lines that failed to decode.
func (s *LineSource) DecodeErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decodeErrs
}

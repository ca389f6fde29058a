package framemux

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ReplayPort plays recorded frame lines back as if they came from the unit.
// Commands written to it are captured rather than sent anywhere.
type ReplayPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	written bytes.Buffer
}

// ReplayOptions controls playback.
type ReplayOptions struct {
	// Interval between lines. Zero plays as fast as the reader consumes.
	Interval time.Duration
	// Loop restarts from the first line at the end of the recording.
	Loop bool
}

// NewReplayPort starts replaying lines. Blank lines are skipped.
func NewReplayPort(lines []string, opts ReplayOptions) *ReplayPort {
	r, w := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	p := &ReplayPort{r: r, w: w, cancel: cancel, done: make(chan struct{})}
	go p.play(ctx, lines, opts)
	return p
}

func (p *ReplayPort) play(ctx context.Context, lines []string, opts ReplayOptions) {
	defer close(p.done)
	defer p.w.Close()

	var tick <-chan time.Time
	if opts.Interval > 0 {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		wrote := false
		for _, line := range lines {
			if len(bytes.TrimSpace([]byte(line))) == 0 {
				continue
			}
			if tick != nil {
				select {
				case <-tick:
				case <-ctx.Done():
					return
				}
			}
			if _, err := io.WriteString(p.w, line+"\n"); err != nil {
				return
			}
			wrote = true
		}
		if !opts.Loop || !wrote {
			return
		}
	}
}

func (p *ReplayPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *ReplayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

// Close stops playback.
func (p *ReplayPort) Close() error {
	p.cancel()
	err := p.r.Close()
	<-p.done
	return err
}

// Written returns everything written to the port so far.
func (p *ReplayPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// ReadFixture loads a JSON-lines recording.
func ReadFixture(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scan.Scan() {
		lines = append(lines, scan.Text())
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return lines, nil
}

// NewReplayMux creates a mux replaying the recording at path.
func NewReplayMux(path string, opts ReplayOptions) (*FrameMux[*ReplayPort], error) {
	lines, err := ReadFixture(path)
	if err != nil {
		return nil, err
	}
	return NewFrameMux(NewReplayPort(lines, opts)), nil
}

// Package framemux multiplexes a line-oriented link to the perception unit.
// Many clients may subscribe to the lines it emits and send commands back
// over the single underlying port.
package framemux

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"tailscale.com/tsweb"

	"github.com/banshee-data/vision.safety/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("failed to write to perception port")

// SubscriberBuffer is how many lines a subscriber may fall behind before
// lines are dropped for it.
const SubscriberBuffer = 64

// maxLineSize bounds a single frame line.
const maxLineSize = 1 << 20

// FrameMux is a generic multiplexer over any Porter.
type FrameMux[T Porter] struct {
	port      T
	subs      *subscriberSet
	commandMu sync.Mutex
	closing   atomic.Bool

	lines atomic.Int64
}

// Interface is implemented by every mux variant.
type Interface interface {
	// Subscribe creates a new channel for receiving lines. The ID identifies
	// the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel and closes it.
	Unsubscribe(string)
	// SendCommand writes one command line to the port.
	SendCommand(string) error
	// Monitor reads lines from the port and fans them out until ctx is done
	// or the port reaches EOF; at EOF every subscriber channel is closed.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the port.
	Close() error

	Initialise() error

	// AttachAdminRoutes attaches debugging endpoints under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// NewFrameMux creates a FrameMux over port.
func NewFrameMux[T Porter](port T) *FrameMux[T] {
	return &FrameMux[T]{
		port: port,
		subs: newSubscriberSet(SubscriberBuffer),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe adds a subscriber. After the stream has ended the returned
// channel is already closed.
func (m *FrameMux[T]) Subscribe() (string, chan string) { return m.subs.add() }

// Unsubscribe removes a subscriber from the mux and closes its channel.
func (m *FrameMux[T]) Unsubscribe(id string) { m.subs.remove(id) }

// Initialise switches the unit to JSON-lines output and starts streaming.
func (m *FrameMux[T]) Initialise() error {
	for _, command := range []string{
		CommandFormatJSON,
		CommandStreamOn,
	} {
		if err := m.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send start command %q: %w", command, err)
		}
	}
	return nil
}

// SendCommand sends a command to the port.
func (m *FrameMux[T]) SendCommand(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads the port and sends every line to every subscriber. A
// subscriber whose buffer is full misses the line rather than stalling the
// others. When the port reaches EOF or fails, every subscriber channel is
// closed.
func (m *FrameMux[T]) Monitor(ctx context.Context) error {
	err := m.monitor(ctx)
	if ctx.Err() == nil {
		m.subs.end()
	}
	return err
}

func (m *FrameMux[T]) monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is not held
	// up by a quiet port.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			if m.closing.Load() {
				return nil
			}

			m.lines.Add(1)
			switch ClassifyLine(line) {
			case LineAck:
				monitoring.Logf("perception ack: %s", line)
			case LineError:
				monitoring.Logf("perception error: %s", line)
			}
			m.subs.publish(line)
		}
	}
}

// Stats returns the number of lines read and subscriber deliveries dropped.
func (m *FrameMux[T]) Stats() (lines, dropped int64) {
	return m.lines.Load(), m.subs.dropped.Load()
}

// Close ends the stream for every subscriber, asks the unit to stop
// streaming and closes the port.
func (m *FrameMux[T]) Close() error {
	m.closing.Store(true)
	m.subs.end()
	if err := m.SendCommand(CommandStreamOff); err != nil {
		monitoring.Logf("failed to stop perception stream: %v", err)
	}
	return m.port.Close()
}

func (m *FrameMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("perception-stats", "perception link line counters", func(w http.ResponseWriter, r *http.Request) {
		lines, dropped := m.Stats()
		fmt.Fprintf(w, "lines: %d\ndropped: %d\nsubscribers: %d\n", lines, dropped, m.subs.count())
	})

	// API endpoint to write a command to the perception unit.
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if err := m.SendCommand(command); err != nil {
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to perception port", command))
	})

	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		serveTail(w, r, m)
	})
}

type subscriber interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
}

// serveTail streams lines as Server-Sent Events until the client leaves or
// the subscription closes.
func serveTail(w http.ResponseWriter, r *http.Request, s subscriber) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, c := s.Subscribe()
	defer s.Unsubscribe(id)

	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case payload, ok := <-c:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

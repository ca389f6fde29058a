// Package api serves the presentation state and screen controls over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/alertlog"
	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/httputil"
	"github.com/banshee-data/vision.safety/internal/monitoring"
	"github.com/banshee-data/vision.safety/internal/version"
)

// ANSI escape codes for request logging.
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// AlertSource reads the alert log.
type AlertSource interface {
	Recent(limit int) ([]alertlog.Entry, error)
	CountByCategory(since time.Time) (map[alert.Category]int, error)
}

type Server struct {
	display *Display
	ctrl    Controller
	alerts  AlertSource
}

// NewServer creates a server. alerts may be nil when the alert log is
// disabled.
func NewServer(display *Display, ctrl Controller, alerts AlertSource) *Server {
	return &Server{
		display: display,
		ctrl:    ctrl,
		alerts:  alerts,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.showState)
	mux.HandleFunc("/api/state/stream", s.streamState)
	mux.HandleFunc("/api/screens", s.listScreens)
	mux.HandleFunc("/api/screen", s.selectScreen)
	mux.HandleFunc("/api/back", s.backToMenu)
	mux.HandleFunc("/api/alerts", s.listAlerts)
	mux.HandleFunc("/api/alerts/summary", s.alertSummary)
	mux.HandleFunc("/api/health", s.health)
	return mux
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.display.Snapshot())
}

// streamState sends the snapshot as a Server-Sent Event on connect and after
// every change.
func (s *Server) streamState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalServerError(w, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	changes, stop := s.display.Watch()
	defer stop()

	var sent uint64
	send := func() bool {
		snap := s.display.Snapshot()
		if sent != 0 && snap.Version == sent {
			return true
		}
		sent = snap.Version
		b, err := json.Marshal(snap)
		if err != nil {
			monitoring.Logf("failed to encode state: %v", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-changes:
			if !send() {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

type screenInfo struct {
	Screen      engine.Screen `json:"screen"`
	Performance string        `json:"performance"`
}

func (s *Server) listScreens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	screens := make([]screenInfo, 0, len(engine.Screens))
	for _, sc := range engine.Screens {
		screens = append(screens, screenInfo{Screen: sc, Performance: string(sc.Performance())})
	}
	httputil.WriteJSONOK(w, screens)
}

type selectRequest struct {
	Screen string `json:"screen"`
}

func (s *Server) selectScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req selectRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	screen, err := engine.ParseScreen(req.Screen)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.ctrl.Select(r.Context(), screen); err != nil {
		s.controlError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.display.Snapshot())
}

func (s *Server) backToMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if err := s.ctrl.BackToMenu(r.Context()); err != nil {
		s.controlError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.display.Snapshot())
}

func (s *Server) controlError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "engine unavailable")
		return
	}
	httputil.InternalServerError(w, err.Error())
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.alerts == nil {
		httputil.NotFound(w, "alert log disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			httputil.BadRequest(w, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	entries, err := s.alerts.Recent(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to read alerts: %v", err))
		return
	}
	if entries == nil {
		entries = []alertlog.Entry{}
	}
	httputil.WriteJSONOK(w, entries)
}

func (s *Server) alertSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.alerts == nil {
		httputil.NotFound(w, "alert log disabled")
		return
	}
	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			httputil.BadRequest(w, "window must be a positive duration")
			return
		}
		window = d
	}
	counts, err := s.alerts.CountByCategory(time.Now().Add(-window))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to count alerts: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]any{
		"window": window.String(),
		"counts": counts,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]any{
		"status":    "ok",
		"version":   version.Version,
		"screen":    s.display.Snapshot().Screen,
		"anomalies": monitoring.Anomalies(),
	})
}

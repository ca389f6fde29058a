package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/alertlog"
	"github.com/banshee-data/vision.safety/internal/engine"
)

type fakeController struct {
	display *Display
	err     error
	calls   []string
}

func (c *fakeController) Select(_ context.Context, screen engine.Screen) error {
	c.calls = append(c.calls, "select "+string(screen))
	if c.err != nil {
		return c.err
	}
	c.display.PresentScreen(screen)
	return nil
}

func (c *fakeController) BackToMenu(context.Context) error {
	c.calls = append(c.calls, "back")
	if c.err != nil {
		return c.err
	}
	c.display.PresentScreen(engine.ScreenMenu)
	return nil
}

type fakeAlerts struct {
	entries []alertlog.Entry
	counts  map[alert.Category]int
	limit   int
	since   time.Time
	err     error
}

func (f *fakeAlerts) Recent(limit int) ([]alertlog.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

func (f *fakeAlerts) CountByCategory(since time.Time) (map[alert.Category]int, error) {
	f.since = since
	return f.counts, f.err
}

func newTestServer(alerts AlertSource) (*Server, *Display, *fakeController) {
	d := NewDisplay(nil)
	ctrl := &fakeController{display: d}
	return NewServer(d, ctrl, alerts), d, ctrl
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestServer_State(t *testing.T) {
	s, d, _ := newTestServer(nil)
	d.PresentSigns([]string{"sign-yield"})

	rec := serve(s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, []string{"sign-yield"}, snap.Signs)

	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPost, "/api/state", "").Code)
}

func TestServer_SelectScreen(t *testing.T) {
	s, _, ctrl := newTestServer(nil)

	rec := serve(s, http.MethodPost, "/api/screen", `{"screen":"laneDetection"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, engine.ScreenLaneDetection, snap.Screen)

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/api/screen", `{"screen":"radio"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodPost, "/api/screen", `not json`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodGet, "/api/screen", "").Code)

	rec = serve(s, http.MethodPost, "/api/back", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"select laneDetection", "back"}, ctrl.calls)
}

func TestServer_ControlErrors(t *testing.T) {
	s, _, ctrl := newTestServer(nil)

	ctrl.err = context.Canceled
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, http.MethodPost, "/api/back", "").Code)

	ctrl.err = errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, serve(s, http.MethodPost, "/api/screen", `{"screen":"map"}`).Code)
}

func TestServer_Screens(t *testing.T) {
	s, _, _ := newTestServer(nil)
	rec := serve(s, http.MethodGet, "/api/screens", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var screens []screenInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &screens))
	require.Len(t, screens, len(engine.Screens))
	assert.Equal(t, screenInfo{Screen: engine.ScreenSignsDetection, Performance: "high"}, screens[1])
}

func TestServer_Alerts(t *testing.T) {
	alerts := &fakeAlerts{
		entries: []alertlog.Entry{{ID: "a1", Category: alert.CategoryCollision, Sound: alert.SoundCollisionCritical}},
		counts:  map[alert.Category]int{alert.CategoryCollision: 4},
	}
	s, _, _ := newTestServer(alerts)

	rec := serve(s, http.MethodGet, "/api/alerts?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, alerts.limit)
	var entries []alertlog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, "a1", entries[0].ID)

	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/alerts?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/alerts?limit=x", "").Code)

	before := time.Now()
	rec = serve(s, http.MethodGet, "/api/alerts/summary?window=10m", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.WithinDuration(t, before.Add(-10*time.Minute), alerts.since, time.Second)
	assert.Contains(t, rec.Body.String(), `"collision":4`)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/alerts/summary?window=-1s", "").Code)

	alerts.err = errors.New("disk")
	assert.Equal(t, http.StatusInternalServerError, serve(s, http.MethodGet, "/api/alerts", "").Code)
}

func TestServer_AlertsDisabled(t *testing.T) {
	s, _, _ := newTestServer(nil)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/alerts", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/alerts/summary", "").Code)
}

func TestServer_Health(t *testing.T) {
	s, _, _ := newTestServer(nil)
	rec := serve(s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_StreamState(t *testing.T) {
	s, d, _ := newTestServer(nil)
	srv := httptest.NewServer(s.ServeMux())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/state/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	next := func() Snapshot {
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var snap Snapshot
				require.NoError(t, json.Unmarshal([]byte(data), &snap))
				return snap
			}
		}
	}

	assert.Equal(t, engine.ScreenMenu, next().Screen)
	d.PresentScreen(engine.ScreenMap)
	assert.Equal(t, engine.ScreenMap, next().Screen)
}

func TestLoggingMiddleware(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, statusCodeColor(http.StatusTeapot), "418")
}

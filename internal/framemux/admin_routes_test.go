package framemux

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localHostRequest creates a request that passes tsweb's loopback check.
func localHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAttachAdminRoutes_SendCommandAPI(t *testing.T) {
	port := newTestPort("")
	m := NewFrameMux(port)
	httpMux := http.NewServeMux()
	m.AttachAdminRoutes(httpMux)

	tests := []struct {
		name   string
		method string
		form   url.Values
		status int
	}{
		{"valid command", http.MethodPost, url.Values{"command": {"PERF high"}}, http.StatusOK},
		{"empty command", http.MethodPost, url.Values{"command": {"  "}}, http.StatusBadRequest},
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := localHostRequest(tt.method, "/debug/send-command-api", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			httpMux.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, "PERF high\n", port.Written())
}

func TestAttachAdminRoutes_Stats(t *testing.T) {
	m := NewFrameMux(newTestPort(""))
	httpMux := http.NewServeMux()
	m.AttachAdminRoutes(httpMux)
	m.Subscribe()

	rec := httptest.NewRecorder()
	httpMux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/perception-stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscribers: 1")
}

func TestAttachAdminRoutes_Tail(t *testing.T) {
	quietLogs(t)
	port := newTestPort("")
	m := NewFrameMux(port)
	httpMux := http.NewServeMux()
	m.AttachAdminRoutes(httpMux)

	srv := httptest.NewServer(httpMux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/debug/tail", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ping\n", line)

	// The subscription exists once the ping has been flushed.
	require.Equal(t, 1, m.subs.count())
	m.subs.publish(`{"t":7}`)

	for {
		line, err = r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}
	assert.Equal(t, "data: {\"t\":7}\n", line)
}

func TestDisabledMux(t *testing.T) {
	d := NewDisabledMux()
	id, ch := d.Subscribe()
	require.NoError(t, d.SendCommand("PERF high"))
	require.NoError(t, d.Initialise())

	d.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)

	_, ch = d.Subscribe()
	require.NoError(t, d.Close())
	_, ok = <-ch
	assert.False(t, ok)

	_, ch = d.Subscribe()
	_, ok = <-ch
	assert.False(t, ok, "subscribe after close returns a closed channel")
	require.NoError(t, d.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Monitor(ctx), context.Canceled)

	httpMux := http.NewServeMux()
	d.AttachAdminRoutes(httpMux)
	rec := httptest.NewRecorder()
	httpMux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/perception-stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "perception: disabled\nlines: 0\nsubscribers: 0\n", rec.Body.String())
}

package httputil

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStandardClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Method+" "+r.URL.Path)
	}))
	defer srv.Close()

	if NewStandardClient(nil).Client != http.DefaultClient {
		t.Error("nil client should wrap http.DefaultClient")
	}

	c := NewStandardClient(srv.Client())
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/state", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "GET /api/state" {
		t.Errorf("body = %q", body)
	}
}

func TestMockHTTPClient(t *testing.T) {
	mock := NewMockHTTPClient().
		AddResponse(http.StatusOK, `{"screen":"menu"}`).
		AddErrorResponse(errors.New("connection refused"))

	req, _ := http.NewRequest(http.MethodPost, "http://safetyd/api/screen", strings.NewReader(`{"screen":"map"}`))
	resp, err := mock.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"screen":"menu"}` {
		t.Errorf("body = %q", body)
	}
	if mock.Bodies[0] != `{"screen":"map"}` {
		t.Errorf("recorded body = %q", mock.Bodies[0])
	}

	req, _ = http.NewRequest(http.MethodGet, "http://safetyd/api/state", nil)
	if _, err := mock.Do(req); err == nil || err.Error() != "connection refused" {
		t.Errorf("expected queued error, got %v", err)
	}

	resp, err = mock.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("exhausted queue should return 200, got %v %v", resp, err)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount() = %d, want 3", mock.RequestCount())
	}
}

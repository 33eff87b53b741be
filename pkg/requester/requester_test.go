package requester

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fuucckk/Fenjing/pkg/retry"
)

func TestDoCapturesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Probe", "yes")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("blocked"))
	}))
	defer srv.Close()

	h := NewHTTP(WithClient(srv.Client()))
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := h.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Body != "blocked" {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.Header.Get("X-Probe") != "yes" {
		t.Fatal("header lost")
	}
}

func TestDoSetsUserAgent(t *testing.T) {
	t.Parallel()

	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.UserAgent())
	}))
	defer srv.Close()

	h := NewHTTP(WithClient(srv.Client()), WithUserAgent("probe-agent"))
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if _, err := h.Do(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if got := seen.Load(); got != "probe-agent" {
		t.Fatalf("user agent = %v", got)
	}
}

func TestDoRetriesWithBody(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			// Kill the first exchange mid-flight to force a retry.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijacking")
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		w.Write(body)
	}))
	defer srv.Close()

	h := NewHTTP(
		WithClient(srv.Client()),
		WithRetry(retry.Config{Attempts: 3, Delay: time.Millisecond}),
	)
	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("name=payload"))
	resp, err := h.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Body != "name=payload" {
		t.Fatalf("retried request lost its body: %q", resp.Body)
	}
}

func TestDoInterval(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	const interval = 50 * time.Millisecond
	h := NewHTTP(WithClient(srv.Client()), WithInterval(interval))

	start := time.Now()
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		if _, err := h.Do(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	// First request is immediate, the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("3 requests took %v, want at least %v", elapsed, 2*interval)
	}
}

func TestTCPSendPlain(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello raw"))
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	tcp := NewTCP(addr, false, "")
	raw := "GET / HTTP/1.1\r\nHost: " + addr + "\r\nConnection: close\r\n\r\n"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := tcp.Send(ctx, []byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "200 OK") || !strings.Contains(out, "hello raw") {
		t.Fatalf("raw response = %q", out)
	}
}

package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testDeliverer returns a deliverer with short timings so retry paths run
// quickly.
func testDeliverer(client *http.Client) *Deliverer {
	d := NewDelivererWithHTTPClient(client, testLogger())
	d.timeout = 250 * time.Millisecond
	d.retryDelay = 100 * time.Millisecond
	return d
}

func TestDeliver_SuccessFirstAttempt(t *testing.T) {
	var attempts atomic.Int32
	var body []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		body, _ = io.ReadAll(r.Body)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDeliverer(srv.Client())
	payload := NewPayload("write tests", "https://news.example/a")
	result := d.Deliver(srv.URL, payload)

	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.Message != "Sent successfully (200)" {
		t.Errorf("Message = %q", result.Message)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (success never retries)", got)
	}

	var wire map[string]string
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatal(err)
	}
	if wire["intention"] != "write tests" {
		t.Errorf("intention = %q", wire["intention"])
	}
	if _, err := time.Parse(time.RFC3339, wire["timestamp"]); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", wire["timestamp"], err)
	}
}

func TestDeliver_Status201Message(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := testDeliverer(srv.Client())
	result := d.Deliver(srv.URL, NewPayload("write tests", "https://news.example/a"))

	if !result.Success || result.Message != "Sent successfully (201)" {
		t.Errorf("result = %+v, want Sent successfully (201)", result)
	}
}

func TestDeliver_RetriesOn500ThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	var attemptTimes [2]time.Time
	var bodies [2][]byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			attemptTimes[n-1] = time.Now()
			bodies[n-1], _ = io.ReadAll(r.Body)
		}
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDeliverer(srv.Client())
	result := d.Deliver(srv.URL, NewPayload("retry me", ""))

	if !result.Success || result.Message != "Sent successfully (200)" {
		t.Fatalf("result = %+v", result)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
	if gap := attemptTimes[1].Sub(attemptTimes[0]); gap < d.retryDelay {
		t.Errorf("retry gap = %v, want >= %v", gap, d.retryDelay)
	}
	if string(bodies[0]) != string(bodies[1]) {
		t.Error("retry must reuse the same payload bytes (no timestamp refresh)")
	}
}

func TestDeliver_RetryBudgetExhausted(t *testing.T) {
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := testDeliverer(srv.Client())
	result := d.Deliver(srv.URL, NewPayload("doomed", ""))

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "unexpected status 500" {
		t.Errorf("Message = %q, want unexpected status 500", result.Message)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want exactly 2", got)
	}
}

func TestDeliver_ClientErrorRetriedLikeServerError(t *testing.T) {
	var attempts atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := testDeliverer(srv.Client())
	result := d.Deliver(srv.URL, NewPayload("x", ""))

	if result.Success || result.Message != "unexpected status 404" {
		t.Errorf("result = %+v", result)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (4xx consumes the retry budget too)", got)
	}
}

func TestDeliver_TimeoutBothAttempts(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(done)

	d := testDeliverer(srv.Client())
	result := d.Deliver(srv.URL, NewPayload("slow", ""))

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "Request timeout" {
		t.Errorf("Message = %q, want Request timeout", result.Message)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (timeout is retried once)", got)
	}
}

func TestDeliver_ConnectionRefused(t *testing.T) {
	d := testDeliverer(&http.Client{})
	start := time.Now()
	result := d.Deliver("http://127.0.0.1:1", NewPayload("dead", ""))

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Message != "Network error" {
		t.Errorf("Message = %q, want Network error", result.Message)
	}
	// Two attempts separated by the retry delay.
	if elapsed := time.Since(start); elapsed < d.retryDelay {
		t.Errorf("elapsed = %v, want >= %v (one retry after the delay)", elapsed, d.retryDelay)
	}
}

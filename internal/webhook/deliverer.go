package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// One initial attempt plus one retry; every failure mode shares the
	// same budget.
	maxAttempts    = 2
	requestTimeout = 10 * time.Second
	retryDelay     = 5 * time.Second
)

// errTimeout marks an attempt cancelled by its deadline.
var errTimeout = errors.New("request timeout")

// statusError is a response received with a status outside [200,300). It is
// retried identically to a transport failure.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// Deliverer posts payloads to a destination URL with a bounded retry
// budget. It never lets an error escape its boundary: every terminal
// outcome is encoded in the returned Result.
type Deliverer struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	retryDelay time.Duration
}

// NewDeliverer creates a webhook deliverer.
func NewDeliverer(logger *slog.Logger) *Deliverer {
	return NewDelivererWithHTTPClient(&http.Client{Timeout: requestTimeout}, logger)
}

// NewDelivererWithHTTPClient creates a deliverer with a custom HTTP client
// (for testing).
func NewDelivererWithHTTPClient(client *http.Client, logger *slog.Logger) *Deliverer {
	return &Deliverer{
		httpClient: client,
		logger:     logger.With(slog.String("component", "webhook-deliverer")),
		timeout:    requestTimeout,
		retryDelay: retryDelay,
	}
}

// Deliver posts payload to url, retrying once after a fixed delay on any
// failure. The same payload bytes are sent on both attempts.
func (d *Deliverer) Deliver(url string, payload Payload) Result {
	result, _ := d.deliver(url, payload)
	return result
}

// deliver also reports how many attempts were made, for the delivery log.
func (d *Deliverer) deliver(url string, payload Payload) (Result, int) {
	body, err := json.Marshal(payload)
	if err != nil {
		// Payload is plain strings; this does not happen in practice.
		return Result{Success: false, Message: "Network error"}, 0
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(d.retryDelay)
		}

		status, err := d.post(url, body)
		if err == nil {
			d.logger.Debug("webhook delivered",
				slog.Int("status", status),
				slog.Int("attempt", attempt+1),
			)
			return Result{
				Success: true,
				Message: fmt.Sprintf("Sent successfully (%d)", status),
			}, attempt + 1
		}

		lastErr = err
		d.logger.Warn("webhook delivery failed",
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}

	d.logger.Error("webhook delivery exhausted retries", slog.Any("error", lastErr))
	return Result{Success: false, Message: failureMessage(lastErr)}, maxAttempts
}

// post performs one attempt, bounded by the request timeout. Attempt
// contexts are rooted in Background: a send cannot be aborted by its caller
// once started.
func (d *Deliverer) post(url string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "intentd-webhook/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, errTimeout
		}
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()        //nolint:errcheck
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &statusError{code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}

// failureMessage converts the last attempt error into the user-facing
// message. Transport details stay in the logs; the UI gets a short,
// stable string.
func failureMessage(err error) string {
	if errors.Is(err, errTimeout) {
		return "Request timeout"
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return "Network error"
}

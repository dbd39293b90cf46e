package webhook

import (
	"context"
	"log/slog"
)

// Notifier is the single entry point both callers go through: the settings
// save action and the widget's intention submission. It guarantees
// identical behavior regardless of caller.
type Notifier struct {
	config    *ConfigStore
	deliverer *Deliverer
	history   *History
	logger    *slog.Logger
}

// NewNotifier creates a Notifier. History recording is off until
// SetHistory is called.
func NewNotifier(config *ConfigStore, deliverer *Deliverer, logger *slog.Logger) *Notifier {
	return &Notifier{
		config:    config,
		deliverer: deliverer,
		logger:    logger.With(slog.String("component", "webhook-notifier")),
	}
}

// SetHistory enables recording of terminal delivery outcomes.
func (n *Notifier) SetHistory(h *History) {
	n.history = h
}

// Send delivers one intention to the configured endpoint. Every outcome
// resolves to a Result: a failing settings store, a disabled webhook, and
// an exhausted retry budget are all reported here, never as errors or
// panics. A disabled or unset webhook is a deliberate short-circuit with
// zero network calls, not a failure.
func (n *Notifier) Send(ctx context.Context, intention, pageURL string) Result {
	cfg, err := n.config.Get(ctx)
	if err != nil {
		n.logger.Error("reading webhook config", slog.Any("error", err))
		return Result{Success: false, Message: err.Error()}
	}

	if !cfg.Enabled || cfg.URL == "" {
		return Result{Success: true, Message: "Webhook not enabled"}
	}

	payload := NewPayload(intention, pageURL)
	result, attempts := n.deliverer.deliver(cfg.URL, payload)
	n.record(ctx, payload, cfg.URL, result, attempts)
	return result
}

func (n *Notifier) record(ctx context.Context, payload Payload, destination string, result Result, attempts int) {
	if n.history == nil {
		return
	}
	d := &Delivery{
		Intention:   payload.Intention,
		PageURL:     payload.PageURL,
		Destination: destination,
		Success:     result.Success,
		Message:     result.Message,
		Attempts:    attempts,
	}
	if err := n.history.Record(ctx, d); err != nil {
		n.logger.Warn("recording delivery", slog.Any("error", err))
	}
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quietloop/intentd/internal/webhook"
)

func (r *Router) handleGetWebhook(w http.ResponseWriter, req *http.Request) {
	cfg, err := r.configStore.Get(req.Context())
	if err != nil {
		r.logger.Error("reading webhook config", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleSaveWebhook is the settings save action. It validates the URL
// before anything is persisted, saves the full record, and then runs a
// confirmation send through the same path the widget uses. Disabling never
// reports success until the store write is confirmed.
func (r *Router) handleSaveWebhook(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Enabled bool   `json:"enabled"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if body.URL != "" {
		if err := webhook.ValidateURL(body.URL); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	if body.Enabled && body.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "webhook URL is required when enabled"})
		return
	}

	if err := r.configStore.Save(req.Context(), body.Enabled, body.URL); err != nil {
		r.logger.Error("saving webhook config", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result := r.notifier.Send(req.Context(), "Webhook configuration saved", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "saved",
		"delivery": result,
	})
}

func (r *Router) handleTestWebhook(w http.ResponseWriter, req *http.Request) {
	result := r.notifier.Send(req.Context(), "Test intention", "")
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) handleListDeliveries(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		// Invalid values fall back to the default limit.
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	deliveries, err := r.history.Recent(req.Context(), limit)
	if err != nil {
		r.logger.Error("listing deliveries", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if deliveries == nil {
		deliveries = []webhook.Delivery{}
	}
	writeJSON(w, http.StatusOK, deliveries)
}

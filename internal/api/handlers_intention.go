package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// handleSubmitIntention records an intention and forwards it to the
// configured webhook. Delivery failures are reported in the body, not the
// status code, so the widget can always read a Result.
func (r *Router) handleSubmitIntention(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Intention string `json:"intention"`
		PageURL   string `json:"page_url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if strings.TrimSpace(body.Intention) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "intention is required"})
		return
	}

	result := r.notifier.Send(req.Context(), body.Intention, body.PageURL)
	writeJSON(w, http.StatusOK, result)
}

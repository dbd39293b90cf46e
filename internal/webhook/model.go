// Package webhook implements outbound intention delivery: the persisted
// webhook configuration, payload construction, and the retrying HTTP
// deliverer behind the single Send entry point both callers use.
package webhook

// Config is the single persisted webhook configuration record. URL is
// either empty or an absolute http(s) URL; the settings caller validates
// before saving.
type Config struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// Payload is the JSON body posted to the configured endpoint. It is built
// once per logical send and reused verbatim across retries; the timestamp
// is never refreshed for a retry.
type Payload struct {
	Intention string `json:"intention"`
	PageURL   string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// Result is the terminal outcome of a send. Callers render Message; a
// Result is never partially filled.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

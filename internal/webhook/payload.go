package webhook

import "time"

// NewPayload assembles the delivery body for one logical send. The
// timestamp is captured here; retries of the same send reuse it.
func NewPayload(intention, pageURL string) Payload {
	return Payload{
		Intention: intention,
		PageURL:   pageURL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

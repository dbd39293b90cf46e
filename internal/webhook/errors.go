package webhook

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrStoreUnavailable marks persistence failures from the settings store.
// These are surfaced to the caller verbatim and never retried: retrying a
// broken local store has no value.
var ErrStoreUnavailable = errors.New("settings store unavailable")

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// ValidateURL checks that raw is an absolute http or https URL. The
// settings caller runs this before Save; the store itself persists whatever
// it is given.
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("webhook URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("webhook URL must be absolute")
	}
	return nil
}

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quietloop/intentd/internal/settings"
)

// settingsKey is the single key-value record holding the webhook config.
const settingsKey = "webhook"

// ConfigStore reads and writes the webhook configuration through the
// key-value settings capability. It performs no URL validation.
type ConfigStore struct {
	store settings.Store
}

// NewConfigStore creates a ConfigStore over the given settings store.
func NewConfigStore(store settings.Store) *ConfigStore {
	return &ConfigStore{store: store}
}

// Get returns the persisted configuration. An absent record yields the
// disabled default without writing anything back; store failures surface as
// ErrStoreUnavailable.
func (s *ConfigStore) Get(ctx context.Context) (Config, error) {
	raw, err := s.store.Get(ctx, settingsKey)
	if errors.Is(err, settings.ErrNotFound) {
		return Config{Enabled: false, URL: ""}, nil
	}
	if err != nil {
		return Config{}, storeUnavailable("reading webhook config", err)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding webhook config: %w", err)
	}
	return cfg, nil
}

// Save overwrites the full record in a single write. There are no
// partial-field updates; concurrent saves are last-write-wins.
func (s *ConfigStore) Save(ctx context.Context, enabled bool, url string) error {
	data, err := json.Marshal(Config{Enabled: enabled, URL: url})
	if err != nil {
		return fmt.Errorf("encoding webhook config: %w", err)
	}
	if err := s.store.Set(ctx, settingsKey, string(data)); err != nil {
		return storeUnavailable("writing webhook config", err)
	}
	return nil
}

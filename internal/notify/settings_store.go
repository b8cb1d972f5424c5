package notify

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// SettingsKey is the fixed slot the serialized settings blob lives under.
const SettingsKey = "notification_settings"

// kv is the durable key-value slot backing the settings blob. The sqlite
// store satisfies it; GetSetting reports a missing key with an error
// wrapping sql.ErrNoRows.
type kv interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// SettingsStore owns the single live Settings instance for the process.
// Reads and writes go through its mutex so notification dispatch never
// observes a half-written settings struct.
type SettingsStore struct {
	mu       sync.Mutex
	kv       kv
	settings Settings
	logger   *slog.Logger
}

// NewSettingsStore loads persisted settings from the slot. A missing or
// unparseable blob yields defaults; corruption is treated as absence.
func NewSettingsStore(store kv, logger *slog.Logger) *SettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SettingsStore{kv: store, logger: logger}
	s.settings = s.load()
	return s
}

func (s *SettingsStore) load() Settings {
	raw, err := s.kv.GetSetting(SettingsKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("reading notification settings failed, using defaults", "error", err)
		}
		return DefaultSettings()
	}

	var loaded Settings
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.logger.Warn("notification settings blob unreadable, using defaults", "error", err)
		return DefaultSettings()
	}
	loaded.clamp()
	return loaded
}

// Current returns a copy of the live settings.
func (s *SettingsStore) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Save clamps, persists and installs new settings. Settings changes are
// user-initiated, so a write failure surfaces to the caller and the live
// instance keeps its previous value.
func (s *SettingsStore) Save(settings Settings) error {
	settings.clamp()
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal notification settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.SetSetting(SettingsKey, string(data)); err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	s.settings = settings
	return nil
}

package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a clock time independent of date. It serializes to JSON as
// an "HH:MM:SS" string so the do-not-disturb window round-trips exactly.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// TimeOfDayFrom extracts the clock time from t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay{Hour: h, Minute: m, Second: s}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SecondsOfDay returns the offset from midnight in seconds.
func (t TimeOfDay) SecondsOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("parse time of day %q: %w", s, err)
	}
	t.Hour, t.Minute, t.Second = parsed.Clock()
	return nil
}

// Settings holds the user's notification preferences. One live instance
// exists per process, owned by SettingsStore.
type Settings struct {
	VoiceEnabled               bool `json:"voice_enabled"`
	SystemNotificationEnabled  bool `json:"system_notification_enabled"`
	ForegroundPopupEnabled     bool `json:"foreground_popup_enabled"`
	DesktopNotificationEnabled bool `json:"desktop_notification_enabled"`

	ReminderFrequencyMinutes int `json:"reminder_frequency_minutes"`

	DoNotDisturbEnabled bool      `json:"do_not_disturb_enabled"`
	DoNotDisturbStart   TimeOfDay `json:"do_not_disturb_start"`
	DoNotDisturbEnd     TimeOfDay `json:"do_not_disturb_end"`

	VoiceVolume   float64 `json:"voice_volume"` // 0.0 to 1.0
	VoiceLanguage string  `json:"voice_language"`

	ActiveStartMessage string `json:"active_start_message"`
	ActiveEndMessage   string `json:"active_end_message"`
	RestStartMessage   string `json:"rest_start_message"`
	RestEndMessage     string `json:"rest_end_message"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		VoiceEnabled:               true,
		SystemNotificationEnabled:  true,
		ForegroundPopupEnabled:     false,
		DesktopNotificationEnabled: true,
		ReminderFrequencyMinutes:   5,
		DoNotDisturbEnabled:        false,
		DoNotDisturbStart:          TimeOfDay{Hour: 22},
		DoNotDisturbEnd:            TimeOfDay{Hour: 8},
		VoiceVolume:                0.8,
		VoiceLanguage:              "en-US",
		ActiveStartMessage:         "Work started",
		ActiveEndMessage:           "Work finished",
		RestStartMessage:           "Break started",
		RestEndMessage:             "Break finished",
	}
}

// clamp forces out-of-range values back into their valid domains.
func (s *Settings) clamp() {
	if s.ReminderFrequencyMinutes < 1 {
		s.ReminderFrequencyMinutes = 1
	}
	if s.VoiceVolume < 0 {
		s.VoiceVolume = 0
	}
	if s.VoiceVolume > 1 {
		s.VoiceVolume = 1
	}
}

package notify

import (
	"log/slog"
	"sync"
	"time"
)

const notificationTitle = "workcycle"

// Notifier gates notification events through the do-not-disturb window and
// fans them out to the enabled channels. One channel failing never blocks
// or fails the others; failures are logged here and go no further.
type Notifier struct {
	settings *SettingsStore
	voice    VoiceChannel
	system   SystemChannel
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	popup PopupChannel
}

func NewNotifier(settings *SettingsStore, voice VoiceChannel, system SystemChannel, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		settings: settings,
		voice:    voice,
		system:   system,
		logger:   logger,
		now:      time.Now,
	}
}

// AttachPopup installs the foreground popup channel. Pass nil when the
// foreground surface goes away; the popup channel is best-effort and is
// skipped while detached.
func (n *Notifier) AttachPopup(p PopupChannel) {
	n.mu.Lock()
	n.popup = p
	n.mu.Unlock()
}

func (n *Notifier) ActiveStart() {
	n.dispatch(n.settings.Current().ActiveStartMessage, "work period started")
}

func (n *Notifier) ActiveEnd() {
	n.dispatch(n.settings.Current().ActiveEndMessage, "work period finished")
}

func (n *Notifier) RestStart() {
	n.dispatch(n.settings.Current().RestStartMessage, "rest period started")
}

func (n *Notifier) RestEnd() {
	n.dispatch(n.settings.Current().RestEndMessage, "rest period finished")
}

// Custom announces an arbitrary message through the same gate and channels.
func (n *Notifier) Custom(message string) {
	n.dispatch(message, notificationTitle)
}

// InDoNotDisturbPeriod reports whether dispatch would be suppressed right now.
func (n *Notifier) InDoNotDisturbPeriod() bool {
	return suppressed(n.settings.Current(), TimeOfDayFrom(n.now()))
}

func (n *Notifier) dispatch(message, subtitle string) {
	settings := n.settings.Current()
	if suppressed(settings, TimeOfDayFrom(n.now())) {
		return
	}

	if settings.VoiceEnabled {
		n.speak(message, settings.VoiceVolume)
	}
	if settings.SystemNotificationEnabled {
		n.show(message, subtitle)
	}
	if settings.ForegroundPopupEnabled {
		n.popupAlert(message)
	}
	// The desktop channel delivers through the system channel, so it only
	// fires on its own when the system toggle is off; otherwise the same
	// notification would arrive twice.
	if settings.DesktopNotificationEnabled && !settings.SystemNotificationEnabled {
		n.show(message, subtitle)
	}
}

// suppressed applies the do-not-disturb window to a clock time. Bounds are
// inclusive; a window whose start is later than its end spans midnight.
func suppressed(settings Settings, now TimeOfDay) bool {
	if !settings.DoNotDisturbEnabled {
		return false
	}
	at := now.SecondsOfDay()
	start := settings.DoNotDisturbStart.SecondsOfDay()
	end := settings.DoNotDisturbEnd.SecondsOfDay()
	if start > end {
		return at >= start || at <= end
	}
	return at >= start && at <= end
}

// speak fires the voice channel, falling back to a system notification when
// the voice back-end errors.
func (n *Notifier) speak(message string, volume float64) {
	if err := n.voice.Speak(message, volume); err != nil {
		n.logger.Warn("voice channel failed, falling back to system notification", "error", err)
		if err := n.system.Show(notificationTitle, "voice reminder failed", message); err != nil {
			n.logger.Warn("system channel failed", "error", err)
		}
	}
}

func (n *Notifier) show(message, subtitle string) {
	if err := n.system.Show(notificationTitle, subtitle, message); err != nil {
		n.logger.Warn("system channel failed", "error", err)
	}
}

func (n *Notifier) popupAlert(message string) {
	n.mu.Lock()
	popup := n.popup
	n.mu.Unlock()
	if popup == nil {
		return
	}
	if err := popup.ShowBlockingAlert(notificationTitle, message); err != nil {
		n.logger.Warn("popup channel failed", "error", err)
	}
}

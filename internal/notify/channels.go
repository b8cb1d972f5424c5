package notify

// The channel interfaces are the collaborator contract: platform back-ends
// (text-to-speech, notification daemons, a windowing shell) implement them
// outside this module.

// VoiceChannel speaks a message aloud at the given volume (0.0 to 1.0).
type VoiceChannel interface {
	Speak(text string, volume float64) error
}

// SystemChannel delivers a system notification.
type SystemChannel interface {
	Show(title, subtitle, body string) error
}

// PopupChannel raises a blocking foreground alert. Only meaningful while a
// foreground surface is attached.
type PopupChannel interface {
	ShowBlockingAlert(title, body string) error
}

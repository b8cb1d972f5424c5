package notify

import (
	"fmt"
	"io"
)

// ConsoleChannels writes notifications to a writer. It is the default
// back-end for the headless runner; desktop embedders inject platform
// channels instead.
type ConsoleChannels struct {
	w io.Writer
}

func NewConsoleChannels(w io.Writer) *ConsoleChannels {
	return &ConsoleChannels{w: w}
}

func (c *ConsoleChannels) Speak(text string, volume float64) error {
	_, err := fmt.Fprintf(c.w, "[voice %3.0f%%] %s\n", volume*100, text)
	return err
}

func (c *ConsoleChannels) Show(title, subtitle, body string) error {
	_, err := fmt.Fprintf(c.w, "[notify] %s (%s): %s\n", title, subtitle, body)
	return err
}

package engine

import "time"

// Phase identifies which half of the work/rest cycle is running.
type Phase string

const (
	PhaseActive Phase = "active"
	PhaseRest   Phase = "rest"
)

// State is the engine lifecycle state.
type State string

const (
	StateIdle          State = "idle"
	StateRunningActive State = "running_active"
	StateRunningRest   State = "running_rest"
	StateStopping      State = "stopping"
)

// EventType defines the type of engine event.
type EventType string

const (
	// EventPhaseStart marks the beginning of a phase.
	EventPhaseStart EventType = "phase_start"
	// EventCountdown carries the time remaining in the running phase.
	EventCountdown EventType = "countdown"
	// EventDelta attributes newly crossed whole seconds to the running
	// phase. Summed over a phase, deltas equal its elapsed seconds.
	EventDelta EventType = "delta"
	// EventPhaseEnd marks a phase reaching its deadline. A stopped session
	// ends without one.
	EventPhaseEnd EventType = "phase_end"
)

// Event is a single update from the engine loop.
type Event struct {
	Type      EventType
	Phase     Phase
	Remaining time.Duration // countdown events, never negative
	Seconds   int64         // delta events
	At        time.Time
}

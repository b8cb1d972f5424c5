package engine

import (
	"fmt"
	"sync"
	"time"
)

// DefaultPollInterval is how often a running phase reports remaining time
// and attributes elapsed seconds. Stop latency is bounded by one interval.
const DefaultPollInterval = 5 * time.Second

const (
	DefaultActiveDuration = 50 * time.Minute
	DefaultRestDuration   = 10 * time.Minute
)

// Config contains runtime options for the Engine.
type Config struct {
	ActiveDuration time.Duration
	RestDuration   time.Duration
	PollInterval   time.Duration
	EventBuffer    int
	Clock          Clock
}

// Engine drives an infinite alternation of active and rest phases until
// stopped, reporting remaining time and elapsed-second deltas on each poll
// tick. Session state is transient; nothing here is persisted.
type Engine struct {
	mu      sync.Mutex
	active  time.Duration
	rest    time.Duration
	poll    time.Duration
	state   State
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	events chan Event
	clock  Clock
}

// New creates an Engine with the provided configuration. Zero values fall
// back to the defaults.
func New(config Config) *Engine {
	if config.ActiveDuration <= 0 {
		config.ActiveDuration = DefaultActiveDuration
	}
	if config.RestDuration <= 0 {
		config.RestDuration = DefaultRestDuration
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}
	clock := config.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Engine{
		active: config.ActiveDuration,
		rest:   config.RestDuration,
		poll:   config.PollInterval,
		state:  StateIdle,
		events: make(chan Event, config.EventBuffer),
		clock:  clock,
	}
}

// Events is the engine's outbound stream. The session controller is the
// sole subscriber and must keep draining it: delta and boundary events use
// blocking sends because accounting must not be dropped.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetDurations reconfigures the phase lengths used by the next Start.
// Non-positive durations are rejected, never silently accepted.
func (e *Engine) SetDurations(active, rest time.Duration) error {
	if active <= 0 {
		return fmt.Errorf("active duration must be positive, got %s", active)
	}
	if rest <= 0 {
		return fmt.Errorf("rest duration must be positive, got %s", rest)
	}
	e.mu.Lock()
	e.active = active
	e.rest = rest
	e.mu.Unlock()
	return nil
}

// Start launches the alternation loop in its own goroutine, beginning with
// an active phase. Starting a running engine is a no-op and reports false,
// so two Start calls can never produce two loops.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return false
	}
	e.running = true
	e.state = StateRunningActive
	e.stopCh = make(chan struct{})
	e.done = make(chan struct{})
	active, rest, poll := e.active, e.rest, e.poll
	stopCh, done := e.stopCh, e.done
	e.mu.Unlock()

	go e.run(active, rest, poll, stopCh, done)
	return true
}

// Stop signals the loop and reports whether a running loop was stopped.
// The signal is observed at the loop's next poll boundary; the final
// partial delta is flushed before the loop exits. Stopping an idle engine
// is a no-op.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.running = false
	e.state = StateStopping
	close(e.stopCh)
	return true
}

// Done reports when the current loop has fully exited. It returns nil
// before the first Start.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *Engine) run(active, rest, poll time.Duration, stopCh <-chan struct{}, done chan struct{}) {
	defer func() {
		e.mu.Lock()
		e.state = StateIdle
		e.mu.Unlock()
		close(done)
	}()

	for {
		if !e.runPhase(PhaseActive, active, poll, stopCh) {
			return
		}
		if !e.runPhase(PhaseRest, rest, poll, stopCh) {
			return
		}
	}
}

// runPhase drives one timed phase and returns false once the stop signal
// has been observed.
func (e *Engine) runPhase(phase Phase, duration, poll time.Duration, stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return false
	default:
	}

	start := e.clock.Now()
	deadline := start.Add(duration)
	var watermark int64

	e.setRunningState(phase)
	e.send(Event{Type: EventPhaseStart, Phase: phase, At: start})

	for {
		now := e.clock.Now()
		if now.After(deadline) {
			e.flushDelta(phase, start, deadline, &watermark)
			e.send(Event{Type: EventPhaseEnd, Phase: phase, At: now})
			return true
		}

		remaining := deadline.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		e.sendCountdown(Event{Type: EventCountdown, Phase: phase, Remaining: remaining, At: now})
		e.flushDelta(phase, start, now, &watermark)

		select {
		case <-stopCh:
			e.flushDelta(phase, start, minTime(e.clock.Now(), deadline), &watermark)
			return false
		case <-e.clock.After(poll):
		}
	}
}

// flushDelta attributes whole seconds elapsed since the phase start that
// have not been attributed yet. The watermark guarantees each wall-clock
// second is counted exactly once even though polling is coarser than the
// one-second attribution granularity.
func (e *Engine) flushDelta(phase Phase, start, upto time.Time, watermark *int64) {
	elapsed := int64(upto.Sub(start) / time.Second)
	if elapsed > *watermark {
		e.send(Event{Type: EventDelta, Phase: phase, Seconds: elapsed - *watermark, At: upto})
		*watermark = elapsed
	}
}

func (e *Engine) setRunningState(phase Phase) {
	e.mu.Lock()
	if e.running {
		if phase == PhaseActive {
			e.state = StateRunningActive
		} else {
			e.state = StateRunningRest
		}
	}
	e.mu.Unlock()
}

func (e *Engine) send(event Event) {
	e.events <- event
}

// sendCountdown drops the update when the consumer lags; countdown events
// are cosmetic and the next tick supersedes them.
func (e *Engine) sendCountdown(event Event) {
	select {
	case e.events <- event:
	default:
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

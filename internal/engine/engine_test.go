package engine

import (
	"sync"
	"testing"
	"time"
)

// stepClock is a manually driven Clock. After returns a shared channel that
// only fires when the test calls step, so every engine iteration is under
// test control and the stop signal is always observed deterministically.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newStepClock() *stepClock {
	return &stepClock{
		now:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		tick: make(chan time.Time),
	}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) After(d time.Duration) <-chan time.Time {
	return c.tick
}

// step advances the clock and wakes the engine loop once.
func (c *stepClock) step(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.tick <- now
}

// advance moves the clock without waking the loop.
func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T, active, rest, poll time.Duration) (*Engine, *stepClock) {
	t.Helper()
	clock := newStepClock()
	eng := New(Config{
		ActiveDuration: active,
		RestDuration:   rest,
		PollInterval:   poll,
		EventBuffer:    256,
		Clock:          clock,
	})
	return eng, clock
}

// expectEvent reads the next event and fails unless it matches the wanted
// type and phase.
func expectEvent(t *testing.T, eng *Engine, wantType EventType, wantPhase Phase) Event {
	t.Helper()
	select {
	case ev := <-eng.Events():
		if ev.Type != wantType || ev.Phase != wantPhase {
			t.Fatalf("got event %s/%s, want %s/%s", ev.Type, ev.Phase, wantType, wantPhase)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s/%s", wantType, wantPhase)
		return Event{}
	}
}

// drainAndJoin stops the engine and consumes events until the loop exits.
func drainAndJoin(t *testing.T, eng *Engine) {
	t.Helper()
	eng.Stop()
	done := eng.Done()
	for {
		select {
		case <-eng.Events():
		case <-done:
			return
		case <-time.After(2 * time.Second):
			t.Fatal("engine loop did not exit")
		}
	}
}

// ============================================================
// Watermark accounting
// ============================================================

func TestWatermarkAttributesEverySecondOnce(t *testing.T) {
	// A 12 second phase polled every 5 seconds must yield deltas summing
	// to exactly 12, none larger than the poll interval's worth.
	eng, clock := newTestEngine(t, 12*time.Second, 7*time.Second, 5*time.Second)
	eng.Start()

	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive) // t=0, no delta yet

	var deltas []int64

	clock.step(5 * time.Second)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	deltas = append(deltas, expectEvent(t, eng, EventDelta, PhaseActive).Seconds)

	clock.step(5 * time.Second)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	deltas = append(deltas, expectEvent(t, eng, EventDelta, PhaseActive).Seconds)

	// Third tick overshoots the deadline: the final flush is capped there.
	clock.step(5 * time.Second)
	deltas = append(deltas, expectEvent(t, eng, EventDelta, PhaseActive).Seconds)
	expectEvent(t, eng, EventPhaseEnd, PhaseActive)

	var sum int64
	for _, d := range deltas {
		if d > 5 {
			t.Errorf("delta %d exceeds the poll interval", d)
		}
		sum += d
	}
	if sum != 12 {
		t.Fatalf("deltas sum to %d, want 12 (got %v)", sum, deltas)
	}

	drainAndJoin(t, eng)
}

func TestCountdownNeverNegative(t *testing.T) {
	eng, clock := newTestEngine(t, 4*time.Second, 2*time.Second, 5*time.Second)
	eng.Start()

	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	first := expectEvent(t, eng, EventCountdown, PhaseActive)
	if first.Remaining != 4*time.Second {
		t.Fatalf("initial remaining = %s, want 4s", first.Remaining)
	}

	// Wake exactly at the deadline: remaining clamps to zero, and the
	// phase only ends on the tick after.
	clock.step(4 * time.Second)
	ev := expectEvent(t, eng, EventCountdown, PhaseActive)
	if ev.Remaining != 0 {
		t.Fatalf("remaining at deadline = %s, want 0", ev.Remaining)
	}
	expectEvent(t, eng, EventDelta, PhaseActive)

	drainAndJoin(t, eng)
}

// ============================================================
// Phase alternation
// ============================================================

func TestPhasesAlternate(t *testing.T) {
	eng, clock := newTestEngine(t, 2*time.Second, 1*time.Second, 1*time.Second)
	eng.Start()

	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive)

	clock.step(1 * time.Second)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	expectEvent(t, eng, EventDelta, PhaseActive)

	clock.step(1 * time.Second) // t=2, exactly at the deadline
	expectEvent(t, eng, EventCountdown, PhaseActive)
	expectEvent(t, eng, EventDelta, PhaseActive)

	clock.step(1 * time.Second) // t=3, past the deadline
	expectEvent(t, eng, EventPhaseEnd, PhaseActive)

	expectEvent(t, eng, EventPhaseStart, PhaseRest)
	expectEvent(t, eng, EventCountdown, PhaseRest)

	clock.step(1 * time.Second) // t=4, rest deadline
	expectEvent(t, eng, EventCountdown, PhaseRest)
	expectEvent(t, eng, EventDelta, PhaseRest)

	clock.step(1 * time.Second) // t=5, past it
	expectEvent(t, eng, EventPhaseEnd, PhaseRest)
	expectEvent(t, eng, EventPhaseStart, PhaseActive)

	drainAndJoin(t, eng)
}

func TestStateFollowsPhase(t *testing.T) {
	eng, clock := newTestEngine(t, 1*time.Second, 1*time.Second, 1*time.Second)

	if eng.State() != StateIdle {
		t.Fatalf("state before start = %s, want idle", eng.State())
	}

	eng.Start()
	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	if eng.State() != StateRunningActive {
		t.Fatalf("state = %s, want running_active", eng.State())
	}

	clock.step(1 * time.Second)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	expectEvent(t, eng, EventDelta, PhaseActive)
	clock.step(1 * time.Second)
	expectEvent(t, eng, EventPhaseEnd, PhaseActive)
	expectEvent(t, eng, EventPhaseStart, PhaseRest)
	expectEvent(t, eng, EventCountdown, PhaseRest)
	if eng.State() != StateRunningRest {
		t.Fatalf("state = %s, want running_rest", eng.State())
	}

	drainAndJoin(t, eng)
	if eng.State() != StateIdle {
		t.Fatalf("state after join = %s, want idle", eng.State())
	}
}

// ============================================================
// Stop behavior
// ============================================================

func TestStopFlushesPartialDelta(t *testing.T) {
	eng, clock := newTestEngine(t, time.Hour, 10*time.Minute, 5*time.Second)
	eng.Start()

	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive)

	clock.step(5 * time.Second)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	if got := expectEvent(t, eng, EventDelta, PhaseActive).Seconds; got != 5 {
		t.Fatalf("delta = %d, want 5", got)
	}

	// 3 more seconds pass, then stop mid-sleep: the partial delta up to
	// the stop instant must be flushed, and nothing beyond it.
	clock.advance(3 * time.Second)
	if !eng.Stop() {
		t.Fatal("Stop should report a running loop was stopped")
	}

	if got := expectEvent(t, eng, EventDelta, PhaseActive).Seconds; got != 3 {
		t.Fatalf("final flush = %d, want 3", got)
	}

	select {
	case <-eng.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("engine loop did not exit after stop")
	}

	// Once the loop has observed cancellation, no further events.
	select {
	case ev := <-eng.Events():
		t.Fatalf("unexpected event after stop: %s/%s", ev.Type, ev.Phase)
	default:
	}

	if eng.IsRunning() {
		t.Fatal("engine still reports running after stop")
	}
}

func TestStopOnIdleIsNoop(t *testing.T) {
	eng, _ := newTestEngine(t, time.Minute, time.Minute, time.Second)
	if eng.Stop() {
		t.Fatal("Stop on an idle engine should be a no-op")
	}
	if eng.Done() != nil {
		t.Fatal("Done should be nil before the first start")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	eng, _ := newTestEngine(t, time.Hour, time.Minute, 5*time.Second)

	if !eng.Start() {
		t.Fatal("first Start should launch the loop")
	}
	if eng.Start() {
		t.Fatal("second Start should be a no-op")
	}

	// Only the single loop's phase start arrives, no duplicate.
	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	select {
	case ev := <-eng.Events():
		t.Fatalf("unexpected event from a second loop: %s/%s", ev.Type, ev.Phase)
	default:
	}

	drainAndJoin(t, eng)
}

func TestRestartAfterStop(t *testing.T) {
	eng, clock := newTestEngine(t, time.Hour, time.Minute, 5*time.Second)

	eng.Start()
	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	expectEvent(t, eng, EventCountdown, PhaseActive)
	drainAndJoin(t, eng)

	clock.advance(time.Minute)
	if !eng.Start() {
		t.Fatal("restart after stop should launch a new loop")
	}
	expectEvent(t, eng, EventPhaseStart, PhaseActive)
	drainAndJoin(t, eng)
}

// ============================================================
// Configuration
// ============================================================

func TestSetDurationsRejectsNonPositive(t *testing.T) {
	eng, _ := newTestEngine(t, time.Minute, time.Minute, time.Second)

	if err := eng.SetDurations(0, time.Minute); err == nil {
		t.Fatal("expected error for zero active duration")
	}
	if err := eng.SetDurations(time.Minute, -time.Second); err == nil {
		t.Fatal("expected error for negative rest duration")
	}
	if err := eng.SetDurations(30*time.Minute, 5*time.Minute); err != nil {
		t.Fatalf("valid durations rejected: %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	eng := New(Config{})
	if eng.active != DefaultActiveDuration {
		t.Fatalf("active = %s, want %s", eng.active, DefaultActiveDuration)
	}
	if eng.rest != DefaultRestDuration {
		t.Fatalf("rest = %s, want %s", eng.rest, DefaultRestDuration)
	}
	if eng.poll != DefaultPollInterval {
		t.Fatalf("poll = %s, want %s", eng.poll, DefaultPollInterval)
	}
}

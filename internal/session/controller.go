package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/okarlsen/workcycle/internal/engine"
	"github.com/okarlsen/workcycle/internal/store"
)

// RecordSink receives elapsed-second deltas keyed by calendar day. The
// sqlite store satisfies it.
type RecordSink interface {
	ApplyDelta(kind store.Kind, seconds int64, day string) error
	GetRecord(day string) (*store.DayRecord, error)
}

// BoundaryNotifier receives phase boundary announcements.
type BoundaryNotifier interface {
	ActiveStart()
	ActiveEnd()
	RestStart()
	RestEnd()
}

// Controller is the single entry point external collaborators use. It owns
// the engine's loop handle and routes engine events: deltas to the record
// sink, boundaries to the notifier, countdowns to subscribers.
type Controller struct {
	engine   *engine.Engine
	records  RecordSink
	notifier BoundaryNotifier
	logger   *slog.Logger

	mu        sync.Mutex
	remaining []chan time.Duration
}

// New wires a controller and starts its dispatch goroutine. The dispatcher
// lives as long as the process; engine sessions come and go under it.
func New(eng *engine.Engine, records RecordSink, notifier BoundaryNotifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		engine:   eng,
		records:  records,
		notifier: notifier,
		logger:   logger,
	}
	go c.dispatch()
	return c
}

// SetDurations configures the phase lengths for the next session.
func (c *Controller) SetDurations(active, rest time.Duration) error {
	return c.engine.SetDurations(active, rest)
}

// Start begins a session. Starting while one is running is a no-op.
func (c *Controller) Start() {
	c.engine.Start()
}

// Stop ends the session and joins the engine loop; the loop observes the
// signal at its next poll boundary, so the join is bounded by one poll
// interval. The work-finished announcement fires after the join, once the
// final delta has been flushed.
func (c *Controller) Stop() {
	if !c.engine.Stop() {
		return
	}
	<-c.engine.Done()
	c.notifier.ActiveEnd()
}

func (c *Controller) IsRunning() bool {
	return c.engine.IsRunning()
}

// DailyTotalFormatted returns today's accumulated total as HH:MM, or
// "00:00" when no record exists yet.
func (c *Controller) DailyTotalFormatted() string {
	day := dayKey(time.Now())
	record, err := c.records.GetRecord(day)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("daily total lookup failed", "day", day, "error", err)
		}
		return "00:00"
	}
	return formatHoursMinutes(record.TotalSeconds)
}

// SubscribeRemaining registers a consumer for countdown updates. Updates
// are dropped rather than queued when the consumer lags.
func (c *Controller) SubscribeRemaining(buffer int) <-chan time.Duration {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan time.Duration, buffer)
	c.mu.Lock()
	c.remaining = append(c.remaining, ch)
	c.mu.Unlock()
	return ch
}

func (c *Controller) dispatch() {
	for ev := range c.engine.Events() {
		switch ev.Type {
		case engine.EventDelta:
			c.applyDelta(ev)
		case engine.EventCountdown:
			c.fanOutRemaining(ev.Remaining)
		case engine.EventPhaseStart:
			if ev.Phase == engine.PhaseActive {
				c.notifier.ActiveStart()
			} else {
				c.notifier.RestStart()
			}
		case engine.EventPhaseEnd:
			if ev.Phase == engine.PhaseActive {
				c.notifier.ActiveEnd()
			} else {
				c.notifier.RestEnd()
			}
		}
	}
}

// applyDelta persists one delta. On failure the seconds are lost, not
// retried: the engine watermark has already advanced, so retrying later
// would double-count, and the timer must keep running either way.
func (c *Controller) applyDelta(ev engine.Event) {
	kind := store.KindActive
	if ev.Phase == engine.PhaseRest {
		kind = store.KindRest
	}
	day := dayKey(ev.At)
	if err := c.records.ApplyDelta(kind, ev.Seconds, day); err != nil {
		c.logger.Error("persisting delta failed", "day", day, "kind", kind, "seconds", ev.Seconds, "error", err)
	}
}

func (c *Controller) fanOutRemaining(d time.Duration) {
	c.mu.Lock()
	subs := append([]chan time.Duration(nil), c.remaining...)
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- d:
		default:
		}
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatHoursMinutes(totalSeconds int64) string {
	return fmt.Sprintf("%02d:%02d", totalSeconds/3600, (totalSeconds%3600)/60)
}

package engine

import "time"

type TimerKind string

const (
	TimerProgress  TimerKind = "progress"
	TimerLongPress TimerKind = "long_press"
	TimerSlide     TimerKind = "slide"
	TimerMedia     TimerKind = "media"
)

// Timer identifies a deferred callback. Gen is bumped on every cancel, so a
// timer delivered after its cancellation no longer matches and is dropped.
type Timer struct {
	Kind TimerKind
	Gen  uint64
}

// Scheduler defers timers on the host event loop. After delay the host must
// call Dispatch(TimerFired{Timer: t}) from the same loop that dispatches
// pointer events; the engine never blocks or spawns goroutines.
type Scheduler interface {
	Schedule(delay time.Duration, t Timer)
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(delay time.Duration, t Timer)

func (f SchedulerFunc) Schedule(delay time.Duration, t Timer) { f(delay, t) }

package ui

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/DaanHessen/storyreel/internal/engine"
)

// frameInterval paces redraws and timer delivery while the viewer is open.
const frameInterval = time.Second / 30

type frameMsg struct{}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

type dueTimer struct {
	at  time.Time
	t   engine.Timer
	seq uint64
}

// timerQueue implements engine.Scheduler on the bubbletea loop. Timers are
// kept with their deadlines and handed back on frame ticks, so the engine only
// ever sees them from the Update goroutine.
type timerQueue struct {
	clock   clockwork.Clock
	pending []dueTimer
	seq     uint64
}

func newTimerQueue(clock clockwork.Clock) *timerQueue {
	return &timerQueue{clock: clock}
}

func (q *timerQueue) Schedule(d time.Duration, t engine.Timer) {
	q.seq++
	q.pending = append(q.pending, dueTimer{at: q.clock.Now().Add(d), t: t, seq: q.seq})
}

// next pops the earliest timer due at or before now.
func (q *timerQueue) next(now time.Time) (dueTimer, bool) {
	if len(q.pending) == 0 {
		return dueTimer{}, false
	}
	sort.SliceStable(q.pending, func(i, j int) bool {
		if q.pending[i].at.Equal(q.pending[j].at) {
			return q.pending[i].seq < q.pending[j].seq
		}
		return q.pending[i].at.Before(q.pending[j].at)
	})
	if q.pending[0].at.After(now) {
		return dueTimer{}, false
	}
	d := q.pending[0]
	q.pending = q.pending[1:]
	return d, true
}

func (q *timerQueue) clear() { q.pending = nil }

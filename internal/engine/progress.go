package engine

import "time"

// ProgressTimer tracks the completion fraction of the active item. Elapsed
// time only accumulates while running; completion is reported at most once
// per Arm.
type ProgressTimer struct {
	sched    Scheduler
	duration time.Duration
	frozen   float64
	started  time.Time
	running  bool
	done     bool
	gen      uint64
}

func NewProgressTimer(s Scheduler) *ProgressTimer { return &ProgressTimer{sched: s} }

// Arm resets to zero and loads the duration without starting the countdown.
func (p *ProgressTimer) Arm(d time.Duration) {
	p.Reset()
	p.duration = d
}

// Start arms d and starts counting from zero.
func (p *ProgressTimer) Start(now time.Time, d time.Duration) {
	p.Arm(d)
	p.Resume(now)
}

// Pause freezes the current fraction and cancels the pending completion.
func (p *ProgressTimer) Pause(now time.Time) {
	if !p.running {
		return
	}
	p.frozen = p.Fraction(now)
	p.running = false
	p.gen++
}

// Resume continues from the frozen fraction; the completion is scheduled after
// duration*(1-fraction).
func (p *ProgressTimer) Resume(now time.Time) {
	if p.running || p.done || p.duration <= 0 {
		return
	}
	remaining := p.Remaining()
	p.started = now
	p.running = true
	p.gen++
	p.sched.Schedule(remaining, Timer{Kind: TimerProgress, Gen: p.gen})
}

// Reset snaps to zero and cancels any countdown.
func (p *ProgressTimer) Reset() {
	p.frozen = 0
	p.running = false
	p.done = false
	p.gen++
}

// Remaining is the countdown still owed from the frozen fraction.
func (p *ProgressTimer) Remaining() time.Duration {
	return time.Duration(float64(p.duration) * (1 - p.frozen))
}

func (p *ProgressTimer) Running() bool { return p.running }
func (p *ProgressTimer) Done() bool    { return p.done }

// Fraction is the completion in [0,1] at now.
func (p *ProgressTimer) Fraction(now time.Time) float64 {
	if p.done {
		return 1
	}
	if !p.running {
		return p.frozen
	}
	if p.duration <= 0 {
		return 1
	}
	f := p.frozen + float64(now.Sub(p.started))/float64(p.duration)
	return clamp(f, 0, 1)
}

// Fire consumes a delivered timer and reports whether it completed the item.
func (p *ProgressTimer) Fire(t Timer) bool {
	if t.Kind != TimerProgress || t.Gen != p.gen || !p.running || p.done {
		return false
	}
	p.frozen = 1
	p.running = false
	p.done = true
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

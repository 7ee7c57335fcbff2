package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/media"
	"github.com/DaanHessen/storyreel/internal/story"
)

type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhasePaused   Phase = "paused"
	PhaseDragging Phase = "dragging"
	PhaseClosed   Phase = "closed"
)

type CloseReason string

const (
	CloseExhausted CloseReason = "exhausted"
	CloseDismissed CloseReason = "dismissed"
	CloseUser      CloseReason = "user"
)

var (
	ErrUnknownGroup = errors.New("unknown story group")
	ErrViewerOpen   = errors.New("viewer already open")
)

// Event is input to Dispatch.
type Event interface{ isEvent() }

type PointerDown struct {
	Point
	At       time.Time
	Viewport Viewport
}

type PointerMove struct {
	Point
	At time.Time
}

type PointerUp struct {
	Point
	At time.Time
}

type TimerFired struct {
	Timer Timer
	At    time.Time
}

// Next and Previous navigate without a gesture (keyboard, buttons).
type Next struct{ At time.Time }
type Previous struct{ At time.Time }

// TogglePause places or lifts an explicit hold. Gestures never lift it.
type TogglePause struct{ At time.Time }

type Close struct{ At time.Time }

func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (TimerFired) isEvent()  {}
func (Next) isEvent()        {}
func (Previous) isEvent()    {}
func (TogglePause) isEvent() {}
func (Close) isEvent()       {}

// Notification is output from Dispatch for the host.
type Notification interface{ isNotification() }

type CursorChanged struct{ From, To Cursor }

// Watched is sent once per session when the last item of the last group is
// exhausted, carrying that group's id.
type Watched struct{ GroupID string }

type Closed struct{ Reason CloseReason }

func (CursorChanged) isNotification() {}
func (Watched) isNotification()       {}
func (Closed) isNotification()        {}

// Snapshot is the render command for the current instant.
type Snapshot struct {
	Phase            Phase
	Cursor           Cursor
	Group            story.Group
	Item             story.Item
	Media            *media.Handle
	MediaUnavailable bool
	Progress         []float64 // one fraction per item of Group
	OverlayVisible   bool
	UserHold         bool
	Offset           float64 // horizontal frame translation
	OffsetY          float64 // downward travel of a vertical drag
}

type slideStage int

const (
	slideIdle slideStage = iota
	slideOut             // leaving towards the edge; navigation pending
	slideIn              // entering from the opposite edge
	slideSpring          // returning to rest without navigation
)

type slide struct {
	stage    slideStage
	from, to float64
	began    time.Time
	dur      time.Duration
	action   Action
}

func (s slide) offset(now time.Time) float64 {
	if s.stage == slideIdle {
		return 0
	}
	f := 1.0
	if s.dur > 0 {
		f = clamp(float64(now.Sub(s.began))/float64(s.dur), 0, 1)
	}
	eased := 1 - math.Pow(1-f, 3)
	return s.from + (s.to-s.from)*eased
}

// Engine is the story playback state machine. All methods must be called from
// one goroutine, the host event loop.
type Engine struct {
	ctx     context.Context
	catalog *story.Catalog
	sched   Scheduler
	media   *media.Coordinator
	tuning  Tuning
	log     *slog.Logger

	nav         *Navigator
	progress    *ProgressTimer
	phase       Phase
	overlay     bool
	userHold    bool
	gesture     *Gesture
	holdGen     uint64
	slide       slide
	slideGen    uint64
	mediaGen    uint64
	unavailable bool
	watchedSent bool
	notes       []Notification
}

type Option func(*Engine)

func WithTuning(t Tuning) Option { return func(e *Engine) { e.tuning = t } }

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New builds a closed engine over catalog. Call Open to start a session.
func New(ctx context.Context, catalog *story.Catalog, sched Scheduler, surface media.Surface, opts ...Option) *Engine {
	e := &Engine{
		ctx:     ctx,
		catalog: catalog,
		sched:   sched,
		tuning:  DefaultTuning(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		phase:   PhaseClosed,
	}
	for _, o := range opts {
		o(e)
	}
	e.media = media.NewCoordinator(surface, e.log)
	e.progress = NewProgressTimer(sched)
	return e
}

func (e *Engine) Phase() Phase { return e.phase }

// Open starts a viewing session at the first item of the group with id.
func (e *Engine) Open(groupID string, at time.Time) error {
	if e.phase != PhaseClosed {
		return ErrViewerOpen
	}
	g, ok := e.catalog.IndexOf(groupID)
	if !ok {
		return errors.Wrapf(ErrUnknownGroup, "%q", groupID)
	}
	nav, err := NewNavigator(e.catalog, Cursor{Group: g})
	if err != nil {
		return err
	}
	e.nav = nav
	e.phase = PhasePlaying
	e.overlay = true
	e.userHold = false
	e.gesture = nil
	e.slide = slide{}
	e.watchedSent = false
	e.log.Debug("viewer opened", "group", groupID)
	e.enter(at)
	return nil
}

// Dispatch applies ev and returns the notifications it produced.
func (e *Engine) Dispatch(ev Event) []Notification {
	e.notes = nil
	if e.phase == PhaseClosed {
		return nil
	}
	switch ev := ev.(type) {
	case PointerDown:
		e.pointerDown(ev)
	case PointerMove:
		e.pointerMove(ev)
	case PointerUp:
		e.pointerUp(ev)
	case TimerFired:
		e.timerFired(ev)
	case Next:
		e.settleSlide(ev.At)
		e.apply(e.nav.Advance(), ev.At)
	case Previous:
		e.settleSlide(ev.At)
		e.apply(e.nav.Retreat(), ev.At)
	case TogglePause:
		e.togglePause(ev.At)
	case Close:
		e.close(CloseUser)
	}
	out := e.notes
	e.notes = nil
	return out
}

// State returns the render command at now.
func (e *Engine) State(now time.Time) Snapshot {
	if e.phase == PhaseClosed {
		return Snapshot{Phase: PhaseClosed}
	}
	cur := e.nav.Cursor()
	g := e.catalog.Group(cur.Group)
	s := Snapshot{
		Phase:            e.phase,
		Cursor:           cur,
		Group:            g,
		Item:             g.Items[cur.Item],
		Media:            e.media.Live(),
		MediaUnavailable: e.unavailable,
		Progress:         make([]float64, len(g.Items)),
		OverlayVisible:   e.overlay,
		UserHold:         e.userHold,
	}
	for i := range s.Progress {
		switch {
		case i < cur.Item:
			s.Progress[i] = 1
		case i == cur.Item:
			s.Progress[i] = e.progress.Fraction(now)
		}
	}
	switch {
	case e.gesture != nil && e.gesture.Kind == GestureDrag && e.gesture.Axis == AxisHorizontal:
		s.Offset = e.gesture.Offset
	case e.gesture != nil && e.gesture.Kind == GestureDrag && e.gesture.Axis == AxisVertical:
		s.OffsetY = math.Max(0, e.gesture.Last.Y-e.gesture.Start.Y)
	default:
		s.Offset = e.slide.offset(now)
	}
	return s
}

func (e *Engine) bounds() Bounds {
	return Bounds{CanRetreat: e.nav.CanRetreat(), CanAdvance: e.nav.CanAdvance()}
}

func (e *Engine) pointerDown(ev PointerDown) {
	if e.gesture != nil {
		return
	}
	e.settleSlide(ev.At)
	if e.phase == PhaseClosed {
		return
	}
	g := BeginGesture(ev.Point, ev.At, ev.Viewport)
	e.gesture = &g
	e.holdGen++
	e.sched.Schedule(e.tuning.LongPress, Timer{Kind: TimerLongPress, Gen: e.holdGen})
}

func (e *Engine) pointerMove(ev PointerMove) {
	if e.gesture == nil {
		return
	}
	g, sig := e.gesture.Move(ev.Point, ev.At, e.bounds(), e.tuning)
	e.gesture = &g
	e.signal(sig, ev.At)
}

func (e *Engine) signal(sig Signal, at time.Time) {
	switch sig {
	case SignalDragStart:
		e.holdGen++
		e.overlay = false
		e.setPhase(PhaseDragging, at)
	case SignalVertical:
		e.holdGen++
	case SignalHold:
		e.holdGen++
		e.overlay = false
		e.setPhase(PhasePaused, at)
	}
}

func (e *Engine) pointerUp(ev PointerUp) {
	if e.gesture == nil {
		return
	}
	e.holdGen++
	g, res := e.gesture.Release(ev.Point, ev.At, e.bounds(), e.tuning)
	e.gesture = nil
	if g.Kind == GestureLongPress && e.phase == PhasePlaying {
		// classified at release by timestamp; it never visibly paused
		res.Resume = false
	}
	e.log.Debug("gesture released", "action", res.Action.String(), "offset", res.Offset)
	switch res.Action {
	case ActionRetreat, ActionAdvance:
		if res.Swipe {
			e.startSlide(slideOut, res.Offset, edge(res.Action, g.Viewport.Width), res.Action, ev.At)
			return
		}
		e.apply(e.step(res.Action), ev.At)
	case ActionDismiss:
		e.close(CloseDismissed)
		return
	case ActionSpringBack:
		e.startSlide(slideSpring, res.Offset, 0, ActionNone, ev.At)
	}
	// a hold lifted mid-gesture is honoured once the pointer is released
	lifted := !e.userHold && e.phase != PhasePlaying && e.phase != PhaseClosed
	if res.Resume || lifted {
		e.resumeFromGesture(ev.At)
	}
}

// edge is the full-width offset a swipe leaves towards.
func edge(a Action, width float64) float64 {
	if a == ActionRetreat {
		return width
	}
	return -width
}

func (e *Engine) step(a Action) Transition {
	if a == ActionRetreat {
		return e.nav.Retreat()
	}
	return e.nav.Advance()
}

func (e *Engine) startSlide(stage slideStage, from, to float64, a Action, at time.Time) {
	e.slideGen++
	e.slide = slide{stage: stage, from: from, to: to, began: at, dur: e.tuning.SlideDuration, action: a}
	e.sched.Schedule(e.tuning.SlideDuration, Timer{Kind: TimerSlide, Gen: e.slideGen})
}

// settleSlide finishes an in-flight slide immediately, applying its pending
// navigation, so a new input never races the animation.
func (e *Engine) settleSlide(at time.Time) {
	if e.slide.stage == slideIdle {
		return
	}
	s := e.slide
	e.slideGen++
	e.slide = slide{}
	if s.stage == slideOut {
		e.apply(e.step(s.action), at)
		if e.phase != PhaseClosed {
			e.resumeFromGesture(at)
		}
	}
}

func (e *Engine) slideDone(at time.Time) {
	s := e.slide
	e.slide = slide{}
	if s.stage != slideOut {
		return
	}
	e.apply(e.step(s.action), at)
	if e.phase == PhaseClosed {
		return
	}
	e.startSlide(slideIn, -s.to, 0, ActionNone, at)
	e.resumeFromGesture(at)
}

func (e *Engine) timerFired(ev TimerFired) {
	t := ev.Timer
	switch t.Kind {
	case TimerProgress:
		if e.progress.Fire(t) {
			e.apply(e.nav.Advance(), ev.At)
		}
	case TimerLongPress:
		if t.Gen != e.holdGen || e.gesture == nil {
			return
		}
		g, sig := e.gesture.Hold()
		e.gesture = &g
		e.signal(sig, ev.At)
	case TimerSlide:
		if t.Gen == e.slideGen && e.slide.stage != slideIdle {
			e.slideDone(ev.At)
		}
	case TimerMedia:
		if t.Gen != e.mediaGen || !e.unavailable || e.phase != PhasePlaying {
			return
		}
		e.log.Warn("skipping unavailable media", "cursor", e.nav.Cursor())
		e.apply(e.nav.Advance(), ev.At)
	}
}

func (e *Engine) togglePause(at time.Time) {
	e.userHold = !e.userHold
	if e.userHold {
		e.setPhase(PhasePaused, at)
		return
	}
	if e.gesture == nil && e.slide.stage != slideOut {
		e.setPhase(PhasePlaying, at)
	}
}

func (e *Engine) resumeFromGesture(at time.Time) {
	e.overlay = true
	if e.userHold {
		e.setPhase(PhasePaused, at)
		return
	}
	e.setPhase(PhasePlaying, at)
}

func (e *Engine) setPhase(p Phase, at time.Time) {
	if e.phase == p || e.phase == PhaseClosed {
		return
	}
	e.phase = p
	if p == PhasePlaying {
		e.progress.Resume(at)
		e.media.SetPaused(false)
		if e.unavailable {
			e.scheduleSkip()
		}
		return
	}
	e.progress.Pause(at)
	e.media.SetPaused(true)
}

func (e *Engine) apply(tr Transition, at time.Time) {
	switch tr.Kind {
	case Moved:
		e.log.Debug("cursor changed", "from", tr.From, "to", tr.To)
		e.notes = append(e.notes, CursorChanged{From: tr.From, To: tr.To})
		e.enter(at)
	case Exhausted:
		e.exhaust()
	}
}

// enter resets progress and mounts the item under the cursor.
func (e *Engine) enter(at time.Time) {
	cur := e.nav.Cursor()
	item := e.catalog.Item(cur.Group, cur.Item)
	e.progress.Arm(e.tuning.DurationFor(item))
	e.mediaGen++
	e.unavailable = false
	if _, err := e.media.Mount(e.ctx, item, e.phase != PhasePlaying); err != nil {
		e.unavailable = true
		if e.phase == PhasePlaying {
			e.scheduleSkip()
		}
	}
	if e.phase == PhasePlaying {
		e.progress.Resume(at)
	}
}

func (e *Engine) scheduleSkip() {
	e.mediaGen++
	e.sched.Schedule(0, Timer{Kind: TimerMedia, Gen: e.mediaGen})
}

func (e *Engine) exhaust() {
	if !e.watchedSent {
		e.watchedSent = true
		id := e.catalog.Group(e.nav.Cursor().Group).ID
		e.log.Info("story groups fully watched", "group", id)
		e.notes = append(e.notes, Watched{GroupID: id})
	}
	e.close(CloseExhausted)
}

func (e *Engine) close(reason CloseReason) {
	if e.phase == PhaseClosed {
		return
	}
	e.phase = PhaseClosed
	e.progress.Reset()
	e.holdGen++
	e.slideGen++
	e.mediaGen++
	e.slide = slide{}
	e.gesture = nil
	e.unavailable = false
	e.media.Release(e.media.Live())
	e.log.Debug("viewer closed", "reason", string(reason))
	e.notes = append(e.notes, Closed{Reason: reason})
}

package engine

import (
	"math"
	"time"
)

type Point struct {
	X float64
	Y float64
}

// Viewport is sampled once per gesture, at pointer down.
type Viewport struct {
	Width  float64
	Height float64
}

type GestureKind int

const (
	GesturePending GestureKind = iota // tap until proven otherwise
	GestureDrag
	GestureLongPress
)

type Axis int

const (
	AxisNone Axis = iota
	AxisHorizontal
	AxisVertical
)

// Bounds tells the interpreter whether a swipe has somewhere to go.
type Bounds struct {
	CanRetreat bool
	CanAdvance bool
}

// Signal is what a gesture step asks the engine to do right away.
type Signal int

const (
	SignalNone      Signal = iota
	SignalDragStart        // horizontal drag: pause and hide the overlay
	SignalVertical         // vertical drag: no playback change
	SignalHold             // long press: pause and hide the overlay
)

type Action int

const (
	ActionNone Action = iota
	ActionRetreat
	ActionAdvance
	ActionDismiss
	ActionSpringBack
)

func (a Action) String() string {
	switch a {
	case ActionRetreat:
		return "retreat"
	case ActionAdvance:
		return "advance"
	case ActionDismiss:
		return "dismiss"
	case ActionSpringBack:
		return "spring_back"
	default:
		return "none"
	}
}

// Resolution is the outcome of a released gesture. Swipe is set when the
// navigation should run behind a slide animation. Resume is set when this
// gesture paused playback.
type Resolution struct {
	Action Action
	Swipe  bool
	Resume bool
	Offset float64
}

// Gesture is the state of one pointer-down-to-up sequence. It is a value: each
// step returns the next state. Once Kind leaves GesturePending it never changes.
type Gesture struct {
	Start    Point
	Last     Point
	Began    time.Time
	Viewport Viewport
	Kind     GestureKind
	Axis     Axis
	Offset   float64 // live horizontal frame translation
	DownY    float64 // furthest downward travel
}

func BeginGesture(p Point, at time.Time, vp Viewport) Gesture {
	return Gesture{Start: p, Last: p, Began: at, Viewport: vp}
}

// Hold classifies a still-pending gesture as a long press.
func (g Gesture) Hold() (Gesture, Signal) {
	if g.Kind != GesturePending {
		return g, SignalNone
	}
	g.Kind = GestureLongPress
	return g, SignalHold
}

// Move feeds a pointer position into the gesture.
func (g Gesture) Move(p Point, at time.Time, b Bounds, t Tuning) (Gesture, Signal) {
	sig := SignalNone
	if g.Kind == GesturePending && t.LongPress > 0 && at.Sub(g.Began) >= t.LongPress {
		g, sig = g.Hold()
	}
	dx, dy := p.X-g.Start.X, p.Y-g.Start.Y
	if g.Kind == GesturePending && math.Hypot(dx, dy) > t.TouchSlop {
		g.Kind = GestureDrag
		if math.Abs(dx) > math.Abs(dy) {
			g.Axis = AxisHorizontal
			sig = SignalDragStart
		} else {
			g.Axis = AxisVertical
			sig = SignalVertical
		}
	}
	if g.Kind == GestureDrag && g.Axis == AxisHorizontal {
		g.Offset = g.translate(dx, b, t)
	}
	if dy > g.DownY {
		g.DownY = dy
	}
	g.Last = p
	return g, sig
}

func (g Gesture) translate(dx float64, b Bounds, t Tuning) float64 {
	w := g.Viewport.Width
	if (dx > 0 && !b.CanRetreat) || (dx < 0 && !b.CanAdvance) {
		lim := t.BoundaryClamp * w
		return clamp(dx*t.BoundaryResistance, -lim, lim)
	}
	lim := t.DragLimit * w
	return clamp(dx, -lim, lim)
}

// Release resolves the gesture at pointer up.
func (g Gesture) Release(p Point, at time.Time, b Bounds, t Tuning) (Gesture, Resolution) {
	g, _ = g.Move(p, at, b, t)
	switch g.Kind {
	case GestureDrag:
		if g.Axis == AxisVertical {
			if g.DownY > t.Dismiss*g.Viewport.Height {
				return g, Resolution{Action: ActionDismiss}
			}
			return g, Resolution{Action: ActionNone}
		}
		res := Resolution{Action: ActionSpringBack, Resume: true, Offset: g.Offset}
		threshold := t.SwipeCommit * g.Viewport.Width
		switch {
		case g.Offset > threshold:
			res.Action, res.Swipe = ActionRetreat, true
		case g.Offset < -threshold:
			res.Action, res.Swipe = ActionAdvance, true
		}
		return g, res
	case GestureLongPress:
		return g, Resolution{Action: ActionNone, Resume: true}
	default:
		if p.X < g.Viewport.Width/2 {
			return g, Resolution{Action: ActionRetreat}
		}
		return g, Resolution{Action: ActionAdvance}
	}
}

package engine

import (
	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/story"
)

// Cursor is the (group, item) position on screen.
type Cursor struct {
	Group int
	Item  int
}

type TransitionKind int

const (
	NoOp TransitionKind = iota
	Moved
	Exhausted
)

func (k TransitionKind) String() string {
	switch k {
	case Moved:
		return "moved"
	case Exhausted:
		return "exhausted"
	default:
		return "noop"
	}
}

// Transition is the result of a navigation request. From and To are equal
// unless Kind is Moved.
type Transition struct {
	Kind TransitionKind
	From Cursor
	To   Cursor
}

var ErrCursorOutOfRange = errors.New("cursor out of range")

// Navigator owns the playback cursor over a catalog.
type Navigator struct {
	catalog *story.Catalog
	cur     Cursor
}

func NewNavigator(c *story.Catalog, start Cursor) (*Navigator, error) {
	if start.Group < 0 || start.Group >= c.Len() || start.Item < 0 || start.Item >= c.ItemCount(start.Group) {
		return nil, errors.Wrapf(ErrCursorOutOfRange, "%+v", start)
	}
	return &Navigator{catalog: c, cur: start}, nil
}

func (n *Navigator) Cursor() Cursor { return n.cur }

func (n *Navigator) CanAdvance() bool {
	return n.cur.Item+1 < n.catalog.ItemCount(n.cur.Group) || n.cur.Group+1 < n.catalog.Len()
}

func (n *Navigator) CanRetreat() bool {
	return n.cur.Item > 0 || n.cur.Group > 0
}

// Advance moves to the next item, crossing into the next group at its first
// item. Past the last item of the last group it reports Exhausted.
func (n *Navigator) Advance() Transition {
	from := n.cur
	switch {
	case n.cur.Item+1 < n.catalog.ItemCount(n.cur.Group):
		n.cur.Item++
	case n.cur.Group+1 < n.catalog.Len():
		n.cur = Cursor{Group: n.cur.Group + 1}
	default:
		return Transition{Kind: Exhausted, From: from, To: from}
	}
	return Transition{Kind: Moved, From: from, To: n.cur}
}

// Retreat moves to the previous item, crossing into the previous group at its
// last item. At the very first item it is a no-op.
func (n *Navigator) Retreat() Transition {
	from := n.cur
	switch {
	case n.cur.Item > 0:
		n.cur.Item--
	case n.cur.Group > 0:
		g := n.cur.Group - 1
		n.cur = Cursor{Group: g, Item: n.catalog.ItemCount(g) - 1}
	default:
		return Transition{Kind: NoOp, From: from, To: from}
	}
	return Transition{Kind: Moved, From: from, To: n.cur}
}

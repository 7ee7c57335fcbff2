package engine

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/DaanHessen/storyreel/internal/media"
	"github.com/DaanHessen/storyreel/internal/story"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type queued struct {
	due time.Time
	t   Timer
	seq int
}

// manualLoop is a single-threaded host: timers are delivered in deadline order
// only when the test advances virtual time.
type manualLoop struct {
	now   time.Time
	queue []queued
	seq   int
	eng   *Engine
	notes []Notification
}

func (l *manualLoop) Schedule(d time.Duration, t Timer) {
	l.queue = append(l.queue, queued{due: l.now.Add(d), t: t, seq: l.seq})
	l.seq++
}

func (l *manualLoop) advance(d time.Duration) {
	target := l.now.Add(d)
	for {
		sort.SliceStable(l.queue, func(i, j int) bool {
			if l.queue[i].due.Equal(l.queue[j].due) {
				return l.queue[i].seq < l.queue[j].seq
			}
			return l.queue[i].due.Before(l.queue[j].due)
		})
		if len(l.queue) == 0 || l.queue[0].due.After(target) {
			break
		}
		next := l.queue[0]
		l.queue = l.queue[1:]
		l.now = next.due
		l.notes = append(l.notes, l.eng.Dispatch(TimerFired{Timer: next.t, At: l.now})...)
	}
	l.now = target
}

func (l *manualLoop) dispatch(ev Event) {
	l.notes = append(l.notes, l.eng.Dispatch(ev)...)
}

func (l *manualLoop) down(x, y float64, vp Viewport) {
	l.dispatch(PointerDown{Point: Point{X: x, Y: y}, At: l.now, Viewport: vp})
}

func (l *manualLoop) move(x, y float64) { l.dispatch(PointerMove{Point: Point{X: x, Y: y}, At: l.now}) }
func (l *manualLoop) up(x, y float64)   { l.dispatch(PointerUp{Point: Point{X: x, Y: y}, At: l.now}) }

func (l *manualLoop) take() []Notification {
	out := l.notes
	l.notes = nil
	return out
}

func newLoop(t *testing.T, c *story.Catalog, surface media.Surface, opts ...Option) *manualLoop {
	t.Helper()
	l := &manualLoop{now: epoch}
	l.eng = New(context.Background(), c, l, surface, opts...)
	return l
}

func imageCatalog(t *testing.T, sizes ...int) *story.Catalog {
	t.Helper()
	var groups []story.Group
	for gi, n := range sizes {
		g := story.Group{ID: string(rune('a' + gi)), DisplayName: string(rune('A' + gi))}
		for i := 0; i < n; i++ {
			g.Items = append(g.Items, story.Image("img"))
		}
		groups = append(groups, g)
	}
	c, err := story.NewCatalog(groups)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func count[T Notification](notes []Notification) int {
	n := 0
	for _, x := range notes {
		if _, ok := x.(T); ok {
			n++
		}
	}
	return n
}

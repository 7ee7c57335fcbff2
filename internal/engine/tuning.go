package engine

import (
	"time"

	"github.com/DaanHessen/storyreel/internal/story"
)

// Tuning holds the playback and gesture constants. Distances are in the same
// pixel unit as pointer coordinates; fractions are of the viewport.
type Tuning struct {
	ItemDuration       time.Duration
	Durations          map[story.Kind]time.Duration // per-kind override of ItemDuration
	LongPress          time.Duration
	TouchSlop          float64
	SwipeCommit        float64
	Dismiss            float64
	DragLimit          float64
	BoundaryResistance float64
	BoundaryClamp      float64
	SlideDuration      time.Duration
}

func DefaultTuning() Tuning {
	return Tuning{
		ItemDuration:       8000 * time.Millisecond,
		LongPress:          250 * time.Millisecond,
		TouchSlop:          8,
		SwipeCommit:        0.3,
		Dismiss:            0.25,
		DragLimit:          0.6,
		BoundaryResistance: 0.2,
		BoundaryClamp:      0.15,
		SlideDuration:      200 * time.Millisecond,
	}
}

// DurationFor returns how long item stays on screen.
func (t Tuning) DurationFor(item story.Item) time.Duration {
	if d, ok := t.Durations[item.Kind]; ok && d > 0 {
		return d
	}
	return t.ItemDuration
}

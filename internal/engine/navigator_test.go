package engine

import "testing"

func TestAdvanceExhaustsAfterEveryItem(t *testing.T) {
	for _, sizes := range [][]int{{1}, {3}, {2, 1, 4}, {1, 1, 1, 1}} {
		c := imageCatalog(t, sizes...)
		n, err := NewNavigator(c, Cursor{})
		if err != nil {
			t.Fatalf("NewNavigator: %v", err)
		}
		calls := 0
		for {
			calls++
			tr := n.Advance()
			if tr.Kind == Exhausted {
				break
			}
			if tr.Kind != Moved {
				t.Fatalf("unexpected %v", tr.Kind)
			}
			if calls > 100 {
				t.Fatalf("never exhausted")
			}
		}
		if calls != c.TotalItems() {
			t.Fatalf("sizes %v: exhausted after %d calls, want %d", sizes, calls, c.TotalItems())
		}
	}
}

func TestAdvanceCrossesGroupsAtFirstItem(t *testing.T) {
	n, _ := NewNavigator(imageCatalog(t, 2, 3), Cursor{Group: 0, Item: 1})
	tr := n.Advance()
	if tr.Kind != Moved || tr.To != (Cursor{Group: 1, Item: 0}) {
		t.Fatalf("unexpected transition %+v", tr)
	}
}

func TestRetreatLandsOnLastItemOfPreviousGroup(t *testing.T) {
	n, _ := NewNavigator(imageCatalog(t, 3, 2), Cursor{Group: 1, Item: 0})
	tr := n.Retreat()
	if tr.Kind != Moved || tr.To != (Cursor{Group: 0, Item: 2}) {
		t.Fatalf("unexpected transition %+v", tr)
	}
}

func TestRetreatAtFirstItemIsIdempotent(t *testing.T) {
	n, _ := NewNavigator(imageCatalog(t, 2, 2), Cursor{})
	for i := 0; i < 3; i++ {
		tr := n.Retreat()
		if tr.Kind != NoOp || n.Cursor() != (Cursor{}) {
			t.Fatalf("retreat at first item moved: %+v", tr)
		}
	}
	if n.CanRetreat() {
		t.Fatalf("CanRetreat at first item")
	}
}

func TestNewNavigatorRejectsInvalidCursor(t *testing.T) {
	c := imageCatalog(t, 2)
	for _, cur := range []Cursor{{Group: 1}, {Item: 2}, {Group: -1}} {
		if _, err := NewNavigator(c, cur); err == nil {
			t.Fatalf("expected error for %+v", cur)
		}
	}
}

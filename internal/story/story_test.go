package story

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func group(id string, items ...Item) Group {
	return Group{ID: id, DisplayName: id, Items: items}
}

func TestNewCatalogRejectsEmptyGroup(t *testing.T) {
	_, err := NewCatalog([]Group{group("a", Image("x")), group("b")})
	if !errors.Is(err, ErrEmptyGroup) {
		t.Fatalf("expected ErrEmptyGroup, got %v", err)
	}
}

func TestNewCatalogRejectsDuplicateAndMissingIDs(t *testing.T) {
	if _, err := NewCatalog([]Group{group("a", Image("x")), group("a", Image("y"))}); !errors.Is(err, ErrDuplicateGroup) {
		t.Fatalf("expected ErrDuplicateGroup, got %v", err)
	}
	if _, err := NewCatalog([]Group{group("", Image("x"))}); !errors.Is(err, ErrMissingGroupID) {
		t.Fatalf("expected ErrMissingGroupID, got %v", err)
	}
	if _, err := NewCatalog([]Group{group("a", Item{Kind: "gif", Source: "x"})}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestCatalogCopiesItems(t *testing.T) {
	items := []Item{Image("a"), Video("https://example.com/v.mp4")}
	c, err := NewCatalog([]Group{group("g", items...)})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	items[0] = Image("mutated")
	if got := c.Item(0, 0).Source; got != "a" {
		t.Fatalf("catalog aliased caller slice: %q", got)
	}
	g := c.Group(0)
	g.Items[1] = Image("also-mutated")
	if !c.Item(0, 1).IsVideo() {
		t.Fatalf("Group() leaked internal slice")
	}
}

func TestMarkWatchedIsMonotonic(t *testing.T) {
	c, _ := NewCatalog([]Group{group("a", Image("x"))})
	if !c.MarkWatched("a") {
		t.Fatalf("first MarkWatched should report a change")
	}
	if c.MarkWatched("a") {
		t.Fatalf("second MarkWatched should be a no-op")
	}
	if c.MarkWatched("missing") {
		t.Fatalf("unknown id should be a no-op")
	}
	if !c.Group(0).Watched {
		t.Fatalf("group not watched")
	}
}

func TestOrderedPutsUnwatchedFirstStably(t *testing.T) {
	c, _ := NewCatalog([]Group{
		group("a", Image("1")),
		group("b", Image("2")),
		group("c", Image("3")),
		group("d", Image("4")),
	})
	c.MarkWatched("a")
	c.MarkWatched("c")
	o := c.Ordered()
	var ids []string
	for _, g := range o.Groups() {
		ids = append(ids, g.ID)
	}
	if got := strings.Join(ids, ","); got != "b,d,a,c" {
		t.Fatalf("unexpected order %s", got)
	}
	if i, ok := o.IndexOf("a"); !ok || i != 2 {
		t.Fatalf("IndexOf(a) = %d,%v", i, ok)
	}
	if i, _ := c.IndexOf("a"); i != 0 {
		t.Fatalf("Ordered mutated the source catalog")
	}
}

func TestDecodeDemoCatalog(t *testing.T) {
	c, err := DemoSource{}.Load(context.Background())
	if err != nil {
		t.Fatalf("demo catalog: %v", err)
	}
	if c.Len() == 0 || c.TotalItems() < c.Len() {
		t.Fatalf("demo catalog looks empty: %d groups %d items", c.Len(), c.TotalItems())
	}
	if !c.Item(0, 1).IsVideo() {
		t.Fatalf("expected second item of first group to be a video")
	}
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"no items":    "groups:\n  - id: a\n    items: []\n",
		"both kinds":  "groups:\n  - id: a\n    items:\n      - image: x\n        video: https://example.com/v.mp4\n",
		"bad url":     "groups:\n  - id: a\n    items:\n      - video: not a url\n",
		"duplicate":   "groups:\n  - id: a\n    items:\n      - image: x\n  - id: a\n    items:\n      - image: y\n",
		"missing id":  "groups:\n  - items:\n      - image: x\n",
		"not yaml":    "groups: [\n",
		"no groups":   "groups: []\n",
		"empty entry": "groups:\n  - id: a\n    items:\n      - {}\n",
	}
	for name, doc := range cases {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEncodeDecodePreservesOrder(t *testing.T) {
	c, _ := NewCatalog([]Group{
		{ID: "z", DisplayName: "Zed", Items: []Item{Video("https://example.com/a.mp4"), Image("b")}},
		{ID: "a", DisplayName: "Ay", Items: []Item{Image("c")}, Watched: true},
	})
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.Group(0).ID != "z" || !back.Item(0, 0).IsVideo() || back.Item(0, 1).Source != "b" {
		t.Fatalf("round trip lost ordering: %+v", back.Groups())
	}
	if !back.Group(1).Watched {
		t.Fatalf("round trip lost watched flag")
	}
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*Catalog, error) { return nil, errors.New("down") }

func TestWithFallback(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	c, err := WithFallback(failingSource{}, DemoSource{}, log).Load(context.Background())
	if err != nil || c.Len() == 0 {
		t.Fatalf("fallback did not load demo catalog: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "using fallback") || !strings.Contains(out, "down") {
		t.Fatalf("primary failure not logged: %q", out)
	}
	c, err = WithFallback(nil, DemoSource{}, nil).Load(context.Background())
	if err != nil || c.Len() == 0 {
		t.Fatalf("nil primary should use fallback: %v", err)
	}
}

package story

import (
	"sort"

	"github.com/pkg/errors"
)

// String backed kinds for DB interoperability.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	ErrEmptyGroup     = errors.New("story group has no items")
	ErrDuplicateGroup = errors.New("duplicate story group id")
	ErrMissingGroupID = errors.New("story group id is empty")
	ErrInvalidItem    = errors.New("invalid story item")
)

// Item is a single timed piece of content. Source holds the image source for
// KindImage and the playable URL for KindVideo.
type Item struct {
	Kind   Kind
	Source string
}

func Image(source string) Item { return Item{Kind: KindImage, Source: source} }
func Video(url string) Item    { return Item{Kind: KindVideo, Source: url} }

func (i Item) IsVideo() bool { return i.Kind == KindVideo }

func (i Item) valid() bool {
	return (i.Kind == KindImage || i.Kind == KindVideo) && i.Source != ""
}

// Group is an ordered run of items belonging to one user.
type Group struct {
	ID          string
	DisplayName string
	Avatar      string
	Items       []Item
	Watched     bool
}

// Catalog is the immutable ordered set of groups shown in a session. Only the
// watched flags change after construction, and only from false to true.
type Catalog struct {
	groups []Group
	index  map[string]int
}

// NewCatalog validates groups and copies them into a catalog.
func NewCatalog(groups []Group) (*Catalog, error) {
	c := &Catalog{
		groups: make([]Group, 0, len(groups)),
		index:  make(map[string]int, len(groups)),
	}
	for _, g := range groups {
		if g.ID == "" {
			return nil, ErrMissingGroupID
		}
		if _, dup := c.index[g.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateGroup, "group %q", g.ID)
		}
		if len(g.Items) == 0 {
			return nil, errors.Wrapf(ErrEmptyGroup, "group %q", g.ID)
		}
		for i, it := range g.Items {
			if !it.valid() {
				return nil, errors.Wrapf(ErrInvalidItem, "group %q item %d", g.ID, i)
			}
		}
		g.Items = append([]Item(nil), g.Items...)
		c.index[g.ID] = len(c.groups)
		c.groups = append(c.groups, g)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.groups) }

// Group returns a copy of the group at index i.
func (c *Catalog) Group(i int) Group {
	g := c.groups[i]
	g.Items = append([]Item(nil), g.Items...)
	return g
}

// ItemCount is the number of items in group i.
func (c *Catalog) ItemCount(i int) int { return len(c.groups[i].Items) }

// Item returns item j of group i.
func (c *Catalog) Item(i, j int) Item { return c.groups[i].Items[j] }

// Groups returns copies of all groups in catalog order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i := range c.groups {
		out[i] = c.Group(i)
	}
	return out
}

func (c *Catalog) IndexOf(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// TotalItems sums the item counts of every group.
func (c *Catalog) TotalItems() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Items)
	}
	return n
}

// MarkWatched flags the group as watched. It reports whether the flag changed;
// a watched group never reverts.
func (c *Catalog) MarkWatched(id string) bool {
	i, ok := c.index[id]
	if !ok || c.groups[i].Watched {
		return false
	}
	c.groups[i].Watched = true
	return true
}

// Ordered derives a catalog with unwatched groups before watched ones. The
// relative order inside each partition and every group's items are kept.
func (c *Catalog) Ordered() *Catalog {
	groups := append([]Group(nil), c.groups...)
	sort.SliceStable(groups, func(a, b int) bool {
		return !groups[a].Watched && groups[b].Watched
	})
	out := &Catalog{groups: groups, index: make(map[string]int, len(groups))}
	for i, g := range groups {
		out.index[g.ID] = i
	}
	return out
}

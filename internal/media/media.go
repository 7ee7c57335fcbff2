// Package media owns the single live media resource of the story viewer.
package media

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/story"
)

// ErrUnavailable is returned when a video session cannot be prepared.
var ErrUnavailable = errors.New("media unavailable")

//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=mocks/mock.go

// Surface prepares playable sessions for video items. It stands in for the
// platform video decoder.
type Surface interface {
	Prepare(ctx context.Context, url string) (Session, error)
}

// Session is a prepared video, positioned at zero.
type Session interface {
	SetPlaying(playing bool)
	Release()
}

// Handle describes what is mounted on the rendering surface. Session is nil
// for image items.
type Handle struct {
	Item    story.Item
	Session Session
	Seq     uint64
}

// Coordinator guarantees at most one live handle: the previous handle is
// always released before the next one is requested.
type Coordinator struct {
	surface Surface
	live    *Handle
	seq     uint64
	log     *slog.Logger
}

func NewCoordinator(surface Surface, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{surface: surface, log: log}
}

// Mount releases the live handle and mounts item. Video sessions start playing
// unless paused. A failed preparation leaves nothing mounted and returns an
// error wrapping ErrUnavailable.
func (c *Coordinator) Mount(ctx context.Context, item story.Item, paused bool) (*Handle, error) {
	c.Release(c.live)
	c.seq++
	h := &Handle{Item: item, Seq: c.seq}
	if item.IsVideo() {
		if c.surface == nil {
			return nil, errors.Wrap(ErrUnavailable, "no video surface")
		}
		sess, err := c.surface.Prepare(ctx, item.Source)
		if err != nil {
			c.log.Warn("video prepare failed", "url", item.Source, "error", err)
			return nil, errors.Wrapf(ErrUnavailable, "prepare %s: %v", item.Source, err)
		}
		if sess == nil {
			return nil, errors.Wrapf(ErrUnavailable, "prepare %s: no session", item.Source)
		}
		sess.SetPlaying(!paused)
		h.Session = sess
	}
	c.live = h
	c.log.Debug("media mounted", "kind", item.Kind, "source", item.Source, "seq", h.Seq)
	return h, nil
}

// Release frees h if it is the live handle. Releasing anything else, including
// nil or an already released handle, is a no-op.
func (c *Coordinator) Release(h *Handle) {
	if h == nil || c.live != h {
		return
	}
	if h.Session != nil {
		h.Session.Release()
	}
	c.live = nil
	c.log.Debug("media released", "seq", h.Seq)
}

// SetPaused mirrors the playback phase onto the live video session.
func (c *Coordinator) SetPaused(paused bool) {
	if c.live != nil && c.live.Session != nil {
		c.live.Session.SetPlaying(!paused)
	}
}

// Live returns the mounted handle, or nil.
func (c *Coordinator) Live() *Handle { return c.live }

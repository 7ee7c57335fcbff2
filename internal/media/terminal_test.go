package media_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/media"
	"github.com/DaanHessen/storyreel/internal/story"
)

func TestTerminalSurfaceRejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"", "clip.mp4", "ftp://example.com/a.mp4", "https://", "http://%zz"} {
		if _, err := (media.TerminalSurface{}).Prepare(context.Background(), raw); err == nil {
			t.Fatalf("Prepare(%q) accepted", raw)
		}
	}
}

func TestTerminalSessionLifecycle(t *testing.T) {
	c := media.NewCoordinator(media.TerminalSurface{}, nil)
	h, err := c.Mount(context.Background(), story.Video("https://example.com/a.mp4"), false)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	sess := h.Session.(*media.TerminalSession)
	if !sess.Playing() {
		t.Fatalf("session should start playing")
	}
	c.SetPaused(true)
	if sess.Playing() {
		t.Fatalf("session still playing after pause")
	}
	if _, err := c.Mount(context.Background(), story.Video("nope"), false); !errors.Is(err, media.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !sess.Released() {
		t.Fatalf("previous session not released before the next mount")
	}
	sess.SetPlaying(true)
	if sess.Playing() {
		t.Fatalf("released session resumed")
	}
}

func TestTerminalSurfaceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (media.TerminalSurface{}).Prepare(ctx, "https://example.com/a.mp4"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

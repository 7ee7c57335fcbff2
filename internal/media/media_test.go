package media_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/DaanHessen/storyreel/internal/media"
	mock_media "github.com/DaanHessen/storyreel/internal/media/mocks"
	"github.com/DaanHessen/storyreel/internal/story"
)

const clip = "https://example.com/clip.mp4"

func TestMountImageNeedsNoSurface(t *testing.T) {
	c := media.NewCoordinator(nil, nil)
	h, err := c.Mount(context.Background(), story.Image("photo.png"), false)
	if err != nil {
		t.Fatalf("Mount image: %v", err)
	}
	if h.Session != nil || h.Item.Source != "photo.png" {
		t.Fatalf("unexpected handle %+v", h)
	}
	if c.Live() != h {
		t.Fatalf("handle not live")
	}
}

func TestMountVideoPlaysInverseOfPaused(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mock_media.NewMockSurface(ctrl)
	sess := mock_media.NewMockSession(ctrl)
	surface.EXPECT().Prepare(gomock.Any(), clip).Return(sess, nil)
	sess.EXPECT().SetPlaying(false)

	c := media.NewCoordinator(surface, nil)
	h, err := c.Mount(context.Background(), story.Video(clip), true)
	if err != nil {
		t.Fatalf("Mount video: %v", err)
	}
	if h.Session != sess {
		t.Fatalf("session not attached")
	}
}

func TestMountReleasesPreviousFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mock_media.NewMockSurface(ctrl)
	first := mock_media.NewMockSession(ctrl)
	second := mock_media.NewMockSession(ctrl)

	gomock.InOrder(
		surface.EXPECT().Prepare(gomock.Any(), clip).Return(first, nil),
		first.EXPECT().SetPlaying(true),
		first.EXPECT().Release(),
		surface.EXPECT().Prepare(gomock.Any(), clip).Return(second, nil),
		second.EXPECT().SetPlaying(true),
	)

	c := media.NewCoordinator(surface, nil)
	h1, err := c.Mount(context.Background(), story.Video(clip), false)
	if err != nil {
		t.Fatalf("first mount: %v", err)
	}
	h2, err := c.Mount(context.Background(), story.Video(clip), false)
	if err != nil {
		t.Fatalf("second mount: %v", err)
	}
	if h1.Seq == h2.Seq {
		t.Fatalf("handles share a sequence number")
	}
	// releasing a stale handle must not touch the live one
	c.Release(h1)
	if c.Live() != h2 {
		t.Fatalf("stale release dropped the live handle")
	}
}

func TestMountFailureIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mock_media.NewMockSurface(ctrl)
	prev := mock_media.NewMockSession(ctrl)
	surface.EXPECT().Prepare(gomock.Any(), "https://example.com/a.mp4").Return(prev, nil)
	prev.EXPECT().SetPlaying(true)
	prev.EXPECT().Release()
	surface.EXPECT().Prepare(gomock.Any(), "https://example.com/b.mp4").Return(nil, errors.New("codec"))

	c := media.NewCoordinator(surface, nil)
	if _, err := c.Mount(context.Background(), story.Video("https://example.com/a.mp4"), false); err != nil {
		t.Fatalf("mount a: %v", err)
	}
	_, err := c.Mount(context.Background(), story.Video("https://example.com/b.mp4"), false)
	if !errors.Is(err, media.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if c.Live() != nil {
		t.Fatalf("failed mount left a live handle")
	}
}

func TestSetPausedAndRelease(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mock_media.NewMockSurface(ctrl)
	sess := mock_media.NewMockSession(ctrl)
	gomock.InOrder(
		surface.EXPECT().Prepare(gomock.Any(), clip).Return(sess, nil),
		sess.EXPECT().SetPlaying(true),
		sess.EXPECT().SetPlaying(false),
		sess.EXPECT().SetPlaying(true),
		sess.EXPECT().Release().Times(1),
	)
	c := media.NewCoordinator(surface, nil)
	h, _ := c.Mount(context.Background(), story.Video(clip), false)
	c.SetPaused(true)
	c.SetPaused(false)
	c.Release(h)
	c.Release(h)
	c.SetPaused(true)
	if c.Live() != nil {
		t.Fatalf("expected nothing live after release")
	}
}

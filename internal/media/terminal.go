package media

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

// TerminalSurface plays videos as a status line. It accepts absolute http(s)
// URLs only, so malformed catalog entries surface as unavailable media.
type TerminalSurface struct{}

func (TerminalSurface) Prepare(ctx context.Context, raw string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse video url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("unsupported video url %q", raw)
	}
	return &TerminalSession{URL: u.String()}, nil
}

// TerminalSession records what the player was told to do.
type TerminalSession struct {
	URL      string
	playing  bool
	released bool
}

func (s *TerminalSession) SetPlaying(playing bool) {
	if !s.released {
		s.playing = playing
	}
}

func (s *TerminalSession) Release() {
	s.released = true
	s.playing = false
}

func (s *TerminalSession) Playing() bool  { return s.playing }
func (s *TerminalSession) Released() bool { return s.released }

package util

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/engine"
	"github.com/DaanHessen/storyreel/internal/story"
)

// Config holds runtime settings. Values come from the environment (and .env,
// loaded by main); command line flags override a few of them.
type Config struct {
	App struct {
		Env       string `env:"STORYREEL_ENV" env-default:"development"`
		Catalog   string `env:"STORYREEL_CATALOG" env-description:"YAML story catalog; empty uses the built-in demo"`
		Theme     string `env:"STORYREEL_THEME" env-default:"catppuccin"`
		Group     string `env:"STORYREEL_GROUP" env-description:"open this group on start"`
		SentryDSN string `env:"SENTRY_DSN"`
	}
	Log struct {
		File  string `env:"STORYREEL_LOG_FILE" env-default:"storyreel.log"`
		Level string `env:"STORYREEL_LOG_LEVEL" env-default:"info"`
	}
	DSN string `env:"DATABASE_URL"`

	Playback struct {
		ItemMS  int `env:"ITEM_DURATION_MS" env-default:"8000"`
		VideoMS int `env:"VIDEO_DURATION_MS" env-default:"0"`
		SlideMS int `env:"SLIDE_MS" env-default:"200"`
	}
	Gesture struct {
		LongPressMS        int     `env:"LONG_PRESS_MS" env-default:"250"`
		TouchSlop          float64 `env:"TOUCH_SLOP_PX" env-default:"8"`
		SwipeCommit        float64 `env:"SWIPE_COMMIT_FRACTION" env-default:"0.3"`
		Dismiss            float64 `env:"DISMISS_FRACTION" env-default:"0.25"`
		DragLimit          float64 `env:"DRAG_LIMIT_FRACTION" env-default:"0.6"`
		BoundaryResistance float64 `env:"BOUNDARY_RESISTANCE" env-default:"0.2"`
		BoundaryClamp      float64 `env:"BOUNDARY_CLAMP" env-default:"0.15"`
	}
	// Terminal cells are mapped to pixels so gesture distances keep their meaning.
	Cell struct {
		Width  float64 `env:"CELL_WIDTH_PX" env-default:"8"`
		Height float64 `env:"CELL_HEIGHT_PX" env-default:"16"`
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Usage describes every environment variable the program reads.
func Usage() string {
	help, _ := cleanenv.GetDescription(&Config{}, nil)
	return help
}

func (c *Config) Validate() error {
	switch {
	case c.Playback.ItemMS <= 0:
		return errors.New("ITEM_DURATION_MS must be positive")
	case c.Playback.VideoMS < 0:
		return errors.New("VIDEO_DURATION_MS must not be negative")
	case c.Gesture.LongPressMS <= 0:
		return errors.New("LONG_PRESS_MS must be positive")
	case c.Gesture.SwipeCommit <= 0 || c.Gesture.SwipeCommit >= 1:
		return errors.New("SWIPE_COMMIT_FRACTION must be in (0,1)")
	case c.Gesture.DragLimit < c.Gesture.SwipeCommit:
		return errors.New("DRAG_LIMIT_FRACTION must not be below SWIPE_COMMIT_FRACTION")
	case c.Gesture.TouchSlop < 0:
		return errors.New("TOUCH_SLOP_PX must not be negative")
	case c.Gesture.Dismiss <= 0 || c.Gesture.Dismiss > 1:
		return errors.New("DISMISS_FRACTION must be in (0,1]")
	case c.Gesture.BoundaryResistance < 0 || c.Gesture.BoundaryResistance > 1:
		return errors.New("BOUNDARY_RESISTANCE must be in [0,1]")
	case c.Gesture.BoundaryClamp < 0 || c.Gesture.BoundaryClamp >= c.Gesture.SwipeCommit:
		// an edge drag that can reach the commit threshold would slide around a no-op
		return errors.New("BOUNDARY_CLAMP must be in [0,SWIPE_COMMIT_FRACTION)")
	case c.Playback.SlideMS < 0:
		return errors.New("SLIDE_MS must not be negative")
	case c.Cell.Width <= 0 || c.Cell.Height <= 0:
		return errors.New("cell size must be positive")
	}
	return nil
}

// Tuning converts the playback and gesture settings for the engine.
func (c *Config) Tuning() engine.Tuning {
	t := engine.Tuning{
		ItemDuration:       ms(c.Playback.ItemMS),
		LongPress:          ms(c.Gesture.LongPressMS),
		TouchSlop:          c.Gesture.TouchSlop,
		SwipeCommit:        c.Gesture.SwipeCommit,
		Dismiss:            c.Gesture.Dismiss,
		DragLimit:          c.Gesture.DragLimit,
		BoundaryResistance: c.Gesture.BoundaryResistance,
		BoundaryClamp:      c.Gesture.BoundaryClamp,
		SlideDuration:      ms(c.Playback.SlideMS),
	}
	if c.Playback.VideoMS > 0 {
		t.Durations = map[story.Kind]time.Duration{story.KindVideo: ms(c.Playback.VideoMS)}
	}
	return t
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

package story

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DemoYAML is the catalog bundled with the binary, used when no database or
// catalog file is configured.
//
//go:embed demo.yaml
var DemoYAML []byte

type fileCatalog struct {
	Groups []fileGroup `yaml:"groups" validate:"required,min=1,unique=ID,dive"`
}

type fileGroup struct {
	ID      string     `yaml:"id" validate:"required"`
	Name    string     `yaml:"name"`
	Avatar  string     `yaml:"avatar"`
	Items   []fileItem `yaml:"items" validate:"required,min=1,dive"`
	Watched bool       `yaml:"watched"`
}

type fileItem struct {
	Image string `yaml:"image,omitempty" validate:"required_without=Video,excluded_with=Video"`
	Video string `yaml:"video,omitempty" validate:"required_without=Image,excluded_with=Image,omitempty,url"`
}

var validate = validator.New()

// Decode reads a YAML catalog document.
func Decode(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	var fc fileCatalog
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, errors.Wrap(err, "unmarshal catalog")
	}
	if err := validate.Struct(fc); err != nil {
		return nil, errors.Wrap(err, "catalog validation")
	}
	groups := make([]Group, 0, len(fc.Groups))
	for _, g := range fc.Groups {
		grp := Group{ID: g.ID, DisplayName: g.Name, Avatar: g.Avatar, Watched: g.Watched}
		if grp.DisplayName == "" {
			grp.DisplayName = g.ID
		}
		for _, it := range g.Items {
			if it.Video != "" {
				grp.Items = append(grp.Items, Video(it.Video))
			} else {
				grp.Items = append(grp.Items, Image(it.Image))
			}
		}
		groups = append(groups, grp)
	}
	return NewCatalog(groups)
}

// Encode writes c in the format Decode reads.
func Encode(w io.Writer, c *Catalog) error {
	fc := fileCatalog{Groups: make([]fileGroup, 0, c.Len())}
	for _, g := range c.Groups() {
		fg := fileGroup{ID: g.ID, Name: g.DisplayName, Avatar: g.Avatar, Watched: g.Watched}
		for _, it := range g.Items {
			if it.IsVideo() {
				fg.Items = append(fg.Items, fileItem{Video: it.Source})
			} else {
				fg.Items = append(fg.Items, fileItem{Image: it.Source})
			}
		}
		fc.Groups = append(fc.Groups, fg)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fc); err != nil {
		return errors.Wrap(err, "encode catalog")
	}
	return enc.Close()
}

// Source yields a catalog, e.g. from a file or a database.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// FileSource loads a YAML catalog from Path.
type FileSource struct{ Path string }

func (f FileSource) Load(ctx context.Context) (*Catalog, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer fh.Close()
	return Decode(fh)
}

// DemoSource loads the embedded demo catalog.
type DemoSource struct{}

func (DemoSource) Load(ctx context.Context) (*Catalog, error) {
	return Decode(bytes.NewReader(DemoYAML))
}

// WithFallback returns a source that prefers primary and falls back on error.
// The primary failure is logged on log, which may be nil.
func WithFallback(primary, fallback Source, log *slog.Logger) Source {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &fallbackSource{p: primary, f: fallback, log: log}
}

type fallbackSource struct {
	p, f Source
	log  *slog.Logger
}

func (s *fallbackSource) Load(ctx context.Context) (*Catalog, error) {
	if s.p == nil {
		return s.f.Load(ctx)
	}
	c, err := s.p.Load(ctx)
	if err == nil {
		return c, nil
	}
	s.log.Warn("catalog source failed, using fallback", "error", err)
	return s.f.Load(ctx)
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DaanHessen/storyreel/internal/story"
	"github.com/DaanHessen/storyreel/internal/util"
)

var (
	ErrNoChange     = errors.New("no change")
	ErrMissingDSN   = errors.New("missing DSN")
	ErrEmptyCatalog = errors.New("no story groups stored")
)

// DB wraps gorm.DB for repositories and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error   { return d.sql.Close() }
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Open connects to DB per config.
func Open(ctx context.Context, cfg util.Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}
	// Postgres-only. gorm's own logger would write over the TUI.
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(10)
	sdb.SetMaxIdleConns(5)
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

// WithTx executes fn within a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

type GroupRecord struct {
	ID          string `gorm:"primaryKey"`
	DisplayName string
	Avatar      string
	Position    int
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (GroupRecord) TableName() string { return "story_groups" }

type ItemRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID string
	Idx     int
	Kind    string
	Source  string
}

func (ItemRecord) TableName() string { return "story_items" }

// CatalogRepo persists the story catalog. Watched flags are session state and
// are never stored.
type CatalogRepo struct{ db *DB }

func NewCatalogRepo(db *DB) *CatalogRepo { return &CatalogRepo{db: db} }

// Load implements story.Source.
func (r *CatalogRepo) Load(ctx context.Context) (*story.Catalog, error) {
	var groups []GroupRecord
	if err := r.db.gorm.WithContext(ctx).Order("position").Find(&groups).Error; err != nil {
		return nil, errors.Wrap(err, "load story groups")
	}
	if len(groups) == 0 {
		return nil, ErrEmptyCatalog
	}
	var items []ItemRecord
	if err := r.db.gorm.WithContext(ctx).Order("group_id, idx").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "load story items")
	}
	return fromRecords(groups, items)
}

// Replace swaps the stored catalog for c in one transaction.
func (r *CatalogRepo) Replace(ctx context.Context, c *story.Catalog) error {
	groups, items := toRecords(c)
	return r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ItemRecord{}).Error; err != nil {
			return errors.Wrap(err, "clear story items")
		}
		if err := tx.Where("1 = 1").Delete(&GroupRecord{}).Error; err != nil {
			return errors.Wrap(err, "clear story groups")
		}
		if err := tx.Create(&groups).Error; err != nil {
			return errors.Wrap(err, "insert story groups")
		}
		if err := tx.CreateInBatches(&items, 100).Error; err != nil {
			return errors.Wrap(err, "insert story items")
		}
		return nil
	})
}

// Count returns the number of stored groups.
func (r *CatalogRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.gorm.WithContext(ctx).Model(&GroupRecord{}).Count(&n).Error
	return n, errors.Wrap(err, "count story groups")
}

func toRecords(c *story.Catalog) ([]GroupRecord, []ItemRecord) {
	groups := make([]GroupRecord, 0, c.Len())
	items := make([]ItemRecord, 0, c.TotalItems())
	for pos, g := range c.Groups() {
		groups = append(groups, GroupRecord{ID: g.ID, DisplayName: g.DisplayName, Avatar: g.Avatar, Position: pos})
		for i, it := range g.Items {
			items = append(items, ItemRecord{ID: uuid.New(), GroupID: g.ID, Idx: i, Kind: string(it.Kind), Source: it.Source})
		}
	}
	return groups, items
}

func fromRecords(groups []GroupRecord, items []ItemRecord) (*story.Catalog, error) {
	byGroup := make(map[string][]story.Item, len(groups))
	for _, it := range items {
		byGroup[it.GroupID] = append(byGroup[it.GroupID], story.Item{Kind: story.Kind(it.Kind), Source: it.Source})
	}
	out := make([]story.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, story.Group{ID: g.ID, DisplayName: g.DisplayName, Avatar: g.Avatar, Items: byGroup[g.ID]})
	}
	c, err := story.NewCatalog(out)
	return c, errors.Wrap(err, "stored catalog")
}

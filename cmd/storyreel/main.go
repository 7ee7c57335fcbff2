package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/DaanHessen/storyreel/internal/logging"
	"github.com/DaanHessen/storyreel/internal/store"
	"github.com/DaanHessen/storyreel/internal/story"
	"github.com/DaanHessen/storyreel/internal/ui"
	"github.com/DaanHessen/storyreel/internal/util"
)

var version = "0.1.0-alpha"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := util.Load()
	if err != nil {
		log.Fatalf("config: %v\n%s", err, util.Usage())
	}

	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN (optional; stories come from --catalog or the demo without it)")
	flag.StringVar(&cfg.App.Catalog, "catalog", cfg.App.Catalog, "YAML story catalog")
	flag.StringVar(&cfg.App.Theme, "theme", cfg.App.Theme, "Color theme: catppuccin|dracula|gruvbox|solarized_dark")
	flag.StringVar(&cfg.App.Group, "group", cfg.App.Group, "Open this story group on start")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "storyreel [--dsn DSN] [--catalog file.yaml] [--theme name] [--group id] | migrate up|down|version | seed [file.yaml] | export | version\n\n%s", util.Usage())
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()
	if len(args) > 0 {
		if err := runCommand(ctx, cfg, args); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := logging.New(logging.Options{
		Env:       cfg.App.Env,
		Level:     cfg.Log.Level,
		File:      cfg.Log.File,
		SentryDSN: cfg.App.SentryDSN,
		Release:   "storyreel@" + version,
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Close()

	catalog, closeDB, err := loadCatalog(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("load catalog", "error", err)
		log.Fatalf("load catalog: %v", err)
	}
	defer closeDB()
	logger.Info("catalog loaded", "groups", catalog.Len(), "items", catalog.TotalItems())

	if err := ui.Run(ctx, catalog, *cfg, logger.Logger); err != nil {
		logger.Error("ui exited", "error", err)
		log.Fatal(err)
	}
}

// fileSource is the catalog used without a database, or when it is empty.
func fileSource(cfg *util.Config) story.Source {
	if cfg.App.Catalog == "" {
		return story.DemoSource{}
	}
	return story.FileSource{Path: cfg.App.Catalog}
}

// loadCatalog prefers the database and falls back to the file or demo catalog.
func loadCatalog(ctx context.Context, cfg *util.Config, logger *slog.Logger) (*story.Catalog, func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		c, err := fileSource(cfg).Load(ctx)
		return c, noop, err
	}
	if err := migrateUp(ctx, cfg.DSN); err != nil {
		logger.Warn("database unavailable, using file catalog", "error", err)
		c, err := fileSource(cfg).Load(ctx)
		return c, noop, err
	}
	db, err := store.Open(ctx, *cfg)
	if err != nil {
		logger.Warn("database unavailable, using file catalog", "error", err)
		c, err := fileSource(cfg).Load(ctx)
		return c, noop, err
	}
	src := story.WithFallback(store.NewCatalogRepo(db), fileSource(cfg), logger)
	c, err := src.Load(ctx)
	if err != nil {
		_ = db.Close()
		return nil, noop, err
	}
	return c, func() { _ = db.Close() }, nil
}

func migrateUp(ctx context.Context, dsn string) error {
	mig, err := store.NewMigrator(dsn, "")
	if err != nil {
		return err
	}
	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mig.Up(migCtx); err != nil && !errors.Is(err, store.ErrNoChange) {
		return err
	}
	return nil
}

func runCommand(ctx context.Context, cfg *util.Config, args []string) error {
	switch args[0] {
	case "version":
		fmt.Println("storyreel", version)
		return nil
	case "migrate":
		return runMigrate(ctx, cfg, args[1:])
	case "seed":
		return runSeed(ctx, cfg, args[1:])
	case "export":
		return runExport(ctx, cfg)
	default:
		flag.Usage()
		return errors.Errorf("unknown command %q", args[0])
	}
}

func runMigrate(ctx context.Context, cfg *util.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("migrate requires 'up', 'down' or 'version'")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	migrator, err := store.NewMigrator(cfg.DSN, "")
	if err != nil {
		return err
	}
	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return err
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			return err
		}
		fmt.Println("Migrations rolled back")
	case "version":
		v, dirty, err := migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d (dirty=%v)\n", v, dirty)
	default:
		return errors.New("unknown migrate action; use up|down|version")
	}
	return nil
}

// runSeed replaces the stored catalog with a YAML file, or the demo.
func runSeed(ctx context.Context, cfg *util.Config, args []string) error {
	var src story.Source = story.DemoSource{}
	if len(args) > 0 {
		src = story.FileSource{Path: args[0]}
	} else if cfg.App.Catalog != "" {
		src = story.FileSource{Path: cfg.App.Catalog}
	}
	catalog, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if err := migrateUp(ctx, cfg.DSN); err != nil {
		return err
	}
	db, err := store.Open(ctx, *cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := store.NewCatalogRepo(db)
	if err := repo.Replace(ctx, catalog); err != nil {
		return err
	}
	stored, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d groups, %d items\n", stored, catalog.TotalItems())
	return nil
}

// runExport writes the active catalog as YAML to stdout.
func runExport(ctx context.Context, cfg *util.Config) error {
	logger := logging.NewWriter(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	catalog, closeDB, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()
	return story.Encode(os.Stdout, catalog)
}

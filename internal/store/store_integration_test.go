//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/DaanHessen/storyreel/internal/story"
	"github.com/DaanHessen/storyreel/internal/util"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("storyreel"),
		tcpostgres.WithUsername("storyreel"),
		tcpostgres.WithPassword("storyreel"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	return dsn
}

func TestCatalogRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	mig, err := NewMigrator(dsn, "../../db/migrations")
	if err != nil {
		t.Fatal(err)
	}
	if err := mig.Up(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := mig.Up(ctx); !errors.Is(err, ErrNoChange) {
		t.Fatalf("second up should be a no-op, got %v", err)
	}
	if v, dirty, err := mig.Version(ctx); err != nil || v != 1 || dirty {
		t.Fatalf("version = %d dirty=%v err=%v", v, dirty, err)
	}

	db, err := Open(ctx, util.Config{DSN: dsn})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := NewCatalogRepo(db)

	if _, err := repo.Load(ctx); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("empty store: %v", err)
	}

	demo, err := story.DemoSource{}.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Replace(ctx, demo); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// replacing twice must not duplicate rows
	if err := repo.Replace(ctx, demo); err != nil {
		t.Fatalf("Replace again: %v", err)
	}
	if n, err := repo.Count(ctx); err != nil || n != int64(demo.Len()) {
		t.Fatalf("count = %d err=%v", n, err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != demo.Len() || got.TotalItems() != demo.TotalItems() {
		t.Fatalf("loaded %d/%d, stored %d/%d", got.Len(), got.TotalItems(), demo.Len(), demo.TotalItems())
	}
	for i := 0; i < demo.Len(); i++ {
		want, have := demo.Group(i), got.Group(i)
		if want.ID != have.ID || len(want.Items) != len(have.Items) {
			t.Fatalf("group %d: %+v vs %+v", i, have, want)
		}
		for j := range want.Items {
			if want.Items[j] != have.Items[j] {
				t.Fatalf("group %s item %d: %+v vs %+v", want.ID, j, have.Items[j], want.Items[j])
			}
		}
	}

	if err := mig.Down(ctx); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
}

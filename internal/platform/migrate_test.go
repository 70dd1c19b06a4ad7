package platform_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/ashaboard/ashaboard/internal/platform"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(platform.Migrations(), "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %q in migrations", name)
		}
	}

	if uint(len(ups)) != platform.SeedSchemaVersion {
		t.Errorf("got %d up migrations, SeedSchemaVersion is %d", len(ups), platform.SeedSchemaVersion)
	}
	for name := range ups {
		if !downs[name] {
			t.Errorf("migration %s has no down file", name)
		}
	}
}

func TestSeedTablesMatchLoaderQueries(t *testing.T) {
	data, err := fs.ReadFile(platform.Migrations(), "migrations/000001_seed_tables.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(data)
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS workers",
		"CREATE TABLE IF NOT EXISTS cases",
		"CREATE TABLE IF NOT EXISTS water_sources",
		"patient_name",
		"last_tested",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("schema is missing %q", want)
		}
	}
}

package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"testing"

	relay "github.com/goliatone/go-feed-relay"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}

	var postgresFound bool
	var sqliteFound bool
	for _, entry := range filesystems {
		matches, globErr := fs.Glob(entry.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", entry.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files, got none", entry.Dialect)
		}
		switch entry.Dialect {
		case DialectPostgres:
			postgresFound = true
		case DialectSQLite:
			sqliteFound = true
		}
	}

	if !postgresFound {
		t.Fatalf("expected postgres filesystem")
	}
	if !sqliteFound {
		t.Fatalf("expected sqlite filesystem")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	_, err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithValidationTargets(DialectSQLite))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 registration call, got %d", len(calls))
	}
	if calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration, got %q", calls[0])
	}
}

func TestRelayCoreMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := relay.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/0001_relay_core.up.sql",
		"data/sql/migrations/0001_relay_core.down.sql",
		"data/sql/migrations/sqlite/0001_relay_core.up.sql",
		"data/sql/migrations/sqlite/0001_relay_core.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteRelayCoreMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-relay-core?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	root := relay.GetMigrationsFS()
	sqliteMigrations, err := fs.Sub(root, "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}

	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "0001_relay_core.up.sql"); err != nil {
		t.Fatalf("apply relay core migration up: %v", err)
	}
	for _, table := range []string{"relay_watermarks", "relay_sessions"} {
		if !tableExists(t, db, table) {
			t.Fatalf("expected table %s after up migration", table)
		}
	}

	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "0001_relay_core.down.sql"); err != nil {
		t.Fatalf("apply relay core migration down: %v", err)
	}
	for _, table := range []string{"relay_watermarks", "relay_sessions"} {
		if tableExists(t, db, table) {
			t.Fatalf("expected table %s to be dropped by down migration", table)
		}
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, name string) error {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`,
		name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master for %s: %v", name, err)
	}
	return count > 0
}

// Package migrations exposes the relay schema as dialect-keyed filesystems
// so host applications can register them with their own migration runner.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	relay "github.com/goliatone/go-feed-relay"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// The embedded layout is fixed: postgres files at the root, sqlite files in
// a subdirectory with matching names.
const (
	migrationsBase = "data/sql/migrations"
	sqliteSubdir   = "sqlite"
)

// FilesystemSpec is one dialect's migration files.
type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Registration records what Register handed to the runner.
type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

// RegisterFunc receives one dialect's filesystem. The persistence layer's
// RegisterSQLMigrations is the usual target.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

// WithDialectSourceLabel overrides the label the runner files the relay
// migrations under.
func WithDialectSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithValidationTargets restricts registration to the named dialects.
// Tests running against SQLite pass DialectSQLite only.
func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		normalized := normalizeDialects(targets)
		if len(normalized) > 0 {
			r.ValidationTargets = normalized
		}
	}
}

// WithFilesystems replaces the embedded migration set, for hosts that ship
// their own schema variants.
func WithFilesystems(filesystems ...FilesystemSpec) Option {
	return func(r *Registration) {
		replacement := make([]FilesystemSpec, 0, len(filesystems))
		for _, spec := range filesystems {
			dialect := strings.TrimSpace(strings.ToLower(spec.Dialect))
			if dialect == "" || spec.FS == nil {
				continue
			}
			spec.Dialect = dialect
			replacement = append(replacement, spec)
		}
		if len(replacement) > 0 {
			r.Filesystems = replacement
		}
	}
}

// Filesystems returns the relay migration set, one entry per dialect. An
// optional source overrides the embedded filesystem. Each returned entry
// is guaranteed to contain at least one *.up.sql file.
func Filesystems(sources ...fs.FS) ([]FilesystemSpec, error) {
	root := relay.GetMigrationsFS()
	if len(sources) > 0 && sources[0] != nil {
		root = sources[0]
	}

	base, err := fs.Sub(root, migrationsBase)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", migrationsBase, err)
	}
	sqliteFS, err := fs.Sub(base, sqliteSubdir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: migrationsBase, FS: base},
		{Dialect: DialectSQLite, Path: path.Join(migrationsBase, sqliteSubdir), FS: sqliteFS},
	}
	for _, spec := range filesystems {
		if err := requireUpMigrations(spec); err != nil {
			return nil, err
		}
	}
	return filesystems, nil
}

// Register hands each targeted dialect's filesystem to registerFn. The
// default targets both dialects with the embedded migration set.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       "go-feed-relay",
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	reg.Filesystems = filesystems

	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	targeted := make(map[string]struct{}, len(reg.ValidationTargets))
	for _, dialect := range normalizeDialects(reg.ValidationTargets) {
		targeted[dialect] = struct{}{}
	}
	if len(targeted) == 0 {
		return reg, fmt.Errorf("migrations: validation targets are required")
	}

	for _, spec := range reg.Filesystems {
		if _, ok := targeted[spec.Dialect]; !ok {
			continue
		}
		if err := registerFn(ctx, spec.Dialect, reg.SourceLabel, spec.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", spec.Dialect, spec.Path, err)
		}
	}
	return reg, nil
}

func requireUpMigrations(spec FilesystemSpec) error {
	matches, err := fs.Glob(spec.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s %s: %w", spec.Dialect, spec.Path, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", spec.Dialect, spec.Path)
	}
	return nil
}

func normalizeDialects(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		dialect := strings.TrimSpace(strings.ToLower(value))
		if dialect == "" {
			continue
		}
		if _, ok := seen[dialect]; ok {
			continue
		}
		seen[dialect] = struct{}{}
		out = append(out, dialect)
	}
	return out
}

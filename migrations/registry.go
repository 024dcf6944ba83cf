// Package migrations ships the ownership_assets schema for postgres and
// sqlite and registers it on a go-persistence-bun client.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"

	ownership "github.com/goliatone/go-ownership"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	migrationsDir = "data/sql/migrations"
	sourceLabel   = "go-ownership"

	// assetsMigration creates ownership_assets with a unique asset_id and an
	// owner index. Every dialect must ship it.
	assetsMigration = "00001_ownership_assets.up.sql"
)

// dialectLayout lists where each dialect's files live under migrationsDir.
// Postgres files sit at the root, the sqlite variants in a subdirectory.
var dialectLayout = []struct {
	dialect string
	dir     string
}{
	{dialect: DialectPostgres, dir: "."},
	{dialect: DialectSQLite, dir: "sqlite"},
}

// DialectFS is the ownership schema for one dialect.
type DialectFS struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// Registration reports what Register handed to the register function.
type Registration struct {
	SourceLabel string
	Dialects    []string
	Registered  []DialectFS
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

// WithSourceLabel overrides the label go-persistence-bun records the
// migrations under.
func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithDialects limits registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		if selected := normalizeDialects(dialects); len(selected) > 0 {
			r.Dialects = selected
		}
	}
}

// Filesystems returns the ownership schema for every dialect, reading from
// source when given and from the embedded files otherwise. It fails when a
// dialect is missing the ownership_assets migration.
func Filesystems(source ...fs.FS) ([]DialectFS, error) {
	root := ownership.GetMigrationsFS()
	if len(source) > 0 && source[0] != nil {
		root = source[0]
	}
	base, err := fs.Sub(root, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migrations: open %s: %w", migrationsDir, err)
	}

	out := make([]DialectFS, 0, len(dialectLayout))
	for _, layout := range dialectLayout {
		fsys, subErr := fs.Sub(base, layout.dir)
		if subErr != nil {
			return nil, fmt.Errorf("migrations: open %s schema: %w", layout.dialect, subErr)
		}
		if _, statErr := fs.Stat(fsys, assetsMigration); statErr != nil {
			return nil, fmt.Errorf("migrations: %s schema is missing %s: %w", layout.dialect, assetsMigration, statErr)
		}
		out = append(out, DialectFS{
			Dialect: layout.dialect,
			Path:    path.Join(migrationsDir, layout.dir),
			FS:      fsys,
		})
	}
	return out, nil
}

// Register passes the selected dialect schemas to registerFn, typically a
// go-persistence-bun client's RegisterSQLMigrations.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: sourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	filesystems, err := Filesystems()
	if err != nil {
		return reg, err
	}
	for _, schema := range filesystems {
		if !slices.Contains(reg.Dialects, schema.Dialect) {
			continue
		}
		if err := registerFn(ctx, schema.Dialect, reg.SourceLabel, schema.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s schema: %w", schema.Dialect, err)
		}
		reg.Registered = append(reg.Registered, schema)
	}
	if len(reg.Registered) == 0 {
		return reg, fmt.Errorf("migrations: no schema for dialects %v", reg.Dialects)
	}
	return reg, nil
}

// Apply creates or upgrades the ownership_assets table on client.
func Apply(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	if strings.TrimSpace(dialect) == "" {
		return fmt.Errorf("migrations: dialect is required")
	}
	_, err := Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, WithDialects(dialect))
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: apply %s schema: %w", dialect, err)
	}
	return nil
}

// DialectForDriver maps a database/sql driver name to its schema dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: no dialect for driver %q", driver)
	}
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" && !slices.Contains(out, value) {
			out = append(out, value)
		}
	}
	return out
}

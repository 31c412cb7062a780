// Package migrations exposes the embedded provisioning schema so host
// applications can register it with their persistence layer per dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	provision "github.com/goliatone/go-provision"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const sourceLabel = "go-provision"

type FilesystemSpec struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc receives one dialect-specific migration filesystem. Hosts
// typically forward it to persistence.Client.RegisterSQLMigrations.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Registration struct {
	SourceLabel       string
	ValidationTargets []string
	Filesystems       []FilesystemSpec
}

type Option func(*Registration)

func WithValidationTargets(targets ...string) Option {
	return func(r *Registration) {
		next := make([]string, 0, len(targets))
		for _, target := range targets {
			trimmed := strings.TrimSpace(strings.ToLower(target))
			if trimmed == "" {
				continue
			}
			if !slices.Contains(next, trimmed) {
				next = append(next, trimmed)
			}
		}
		if len(next) > 0 {
			r.ValidationTargets = next
		}
	}
}

// Filesystems resolves the embedded migration tree into one filesystem per
// supported dialect and verifies each carries at least one up migration.
func Filesystems() ([]FilesystemSpec, error) {
	root := provision.GetMigrationsFS()
	base, err := fs.Sub(root, "data/sql/migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations: data/sql/migrations not found: %w", err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
	}

	filesystems := []FilesystemSpec{
		{Dialect: DialectPostgres, Path: "data/sql/migrations", FS: base},
		{Dialect: DialectSQLite, Path: "data/sql/migrations/sqlite", FS: sqliteFS},
	}
	for _, fsys := range filesystems {
		matches, globErr := fs.Glob(fsys.FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: glob %s %s: %w", fsys.Dialect, fsys.Path, globErr)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", fsys.Dialect, fsys.Path)
		}
	}
	return filesystems, nil
}

// Register invokes registerFn for each dialect named in the validation
// targets.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel:       sourceLabel,
		ValidationTargets: []string{DialectPostgres, DialectSQLite},
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
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

	for _, fsys := range reg.Filesystems {
		if !slices.Contains(reg.ValidationTargets, fsys.Dialect) {
			continue
		}
		if err := registerFn(ctx, fsys.Dialect, reg.SourceLabel, fsys.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", fsys.Dialect, fsys.Path, err)
		}
	}
	return reg, nil
}

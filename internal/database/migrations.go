package database

// Migrations follow https://github.com/tardisx/embed_tern: the SQL files are
// embedded and applied by tern.

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/tern/v2/migrate"
)

const versionTable = "db_version"

type Migrator struct {
	migrator *migrate.Migrator
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

func NewMigrator(ctx context.Context, conn *pgx.Conn) (Migrator, error) {
	migrator, err := migrate.NewMigratorEx(
		ctx, conn, versionTable,
		&migrate.MigratorOptions{
			DisableTx: false,
		})
	if err != nil {
		return Migrator{}, err
	}

	migrationRoot, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return Migrator{}, err
	}

	if err := migrator.LoadMigrations(migrationRoot); err != nil {
		return Migrator{}, err
	}

	return Migrator{migrator: migrator}, nil
}

// Info returns the current version, the newest embedded version and a
// listing of the migrations that marks the current one.
func (m Migrator) Info(ctx context.Context) (int32, int32, string, error) {
	version, err := m.migrator.GetCurrentVersion(ctx)
	if err != nil {
		return 0, 0, "", err
	}

	var sb strings.Builder
	var last int32
	for _, thisMigration := range m.migrator.Migrations {
		last = thisMigration.Sequence
		indicator := "  "
		if version == thisMigration.Sequence {
			indicator = "->"
		}
		fmt.Fprintf(&sb, "%2s %3d %s\n", indicator, thisMigration.Sequence, thisMigration.Name)
	}
	return version, last, sb.String(), nil
}

// Migrate migrates the DB to the most recent version of the schema.
func (m Migrator) Migrate(ctx context.Context) error {
	return m.migrator.Migrate(ctx)
}

// MigrateTo migrates to a specific version of the schema. Use '0' to undo all migrations.
func (m Migrator) MigrateTo(ctx context.Context, ver int32) error {
	return m.migrator.MigrateTo(ctx, ver)
}

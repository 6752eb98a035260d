package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/memelib/internal/liberr"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema version tracking:
// 0 - Initial layout (meme, tag, meme_tag)
// 1 - Added meme.thumbnail
// 2 - Added indexes for search ordering and tag lookups
const currentSchemaVersion = 2

// CurrentSchemaVersion returns the schema version this build writes.
func CurrentSchemaVersion() int {
	return currentSchemaVersion
}

// upgradeStep moves a store from version From to From+1.
type upgradeStep struct {
	From   int
	Script string
}

// upgradeSteps is ordered by From. Steps are cumulative and never skipped.
var upgradeSteps = []upgradeStep{
	{From: 0, Script: "schema/upgrade_0_1.sql"},
	{From: 1, Script: "schema/upgrade_1_2.sql"},
}

// Migrate bootstraps a fresh store or upgrades an existing one to the
// current schema version. Everything runs in one transaction; on failure
// the store is left exactly as it was.
//
// Migrating a store that is already current is a no-op read of the
// version row.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return liberr.Storage("migrate", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := execScript(ctx, tx, "schema/create_tableversion.sql"); err != nil {
		return liberr.Storage("migrate", err)
	}

	version, found, err := readVersion(ctx, tx)
	if err != nil {
		return liberr.Storage("migrate", err)
	}

	switch {
	case !found:
		if err := s.createFresh(ctx, tx); err != nil {
			return liberr.Storage("migrate", err)
		}
	case version > currentSchemaVersion:
		return liberr.SchemaTooNew(version, currentSchemaVersion)
	case version < currentSchemaVersion:
		if err := s.upgrade(ctx, tx, version); err != nil {
			return liberr.Storage("migrate", err)
		}
	default:
		return nil
	}

	if err := tx.Commit(); err != nil {
		return liberr.Storage("migrate", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// SchemaVersion returns the version code stored in table_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version_code FROM table_version WHERE id = 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, liberr.NotFound("schema version", "version row")
	}
	if err != nil {
		return 0, liberr.Storage("schema version", err)
	}
	return version, nil
}

// createFresh records the current version and creates the full layout.
func (s *Store) createFresh(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO table_version (id, version_code) VALUES (1, ?)",
		currentSchemaVersion,
	); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	if err := execScript(ctx, tx, "schema/create_database.sql"); err != nil {
		return err
	}

	s.logger.Info("created database", slog.Int("version", currentSchemaVersion))
	return nil
}

// upgrade applies every step covering [from, currentSchemaVersion) in
// ascending order, then records the new version.
func (s *Store) upgrade(ctx context.Context, tx *sql.Tx, from int) error {
	for _, step := range upgradeSteps {
		if step.From < from || step.From >= currentSchemaVersion {
			continue
		}
		if err := execScript(ctx, tx, step.Script); err != nil {
			return fmt.Errorf("upgrade %d -> %d: %w", step.From, step.From+1, err)
		}
		s.logger.Info("upgraded database",
			slog.Int("from", step.From),
			slog.Int("to", step.From+1))
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE table_version SET version_code = ? WHERE id = 1",
		currentSchemaVersion,
	); err != nil {
		return fmt.Errorf("set version: %w", err)
	}
	return nil
}

func readVersion(ctx context.Context, tx *sql.Tx) (int, bool, error) {
	var version int
	err := tx.QueryRowContext(ctx, "SELECT version_code FROM table_version WHERE id = 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read version: %w", err)
	}
	return version, true, nil
}

func execScript(ctx context.Context, tx *sql.Tx, name string) error {
	script, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	return nil
}

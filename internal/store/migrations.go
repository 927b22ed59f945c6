package store

import (
	"context"
	"database/sql"
	"fmt"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS statements (
			id             TEXT PRIMARY KEY,
			entity_id      TEXT NOT NULL,
			period         TEXT NOT NULL,
			country        TEXT NOT NULL,
			standard       TEXT NOT NULL,
			system         TEXT NOT NULL CHECK (system IN ('NORMAL','MINIMAL')),
			statement_type TEXT NOT NULL,
			status         TEXT NOT NULL CHECK (status IN ('DRAFT','VALIDE','CLOTURE')),
			equilibre      INTEGER NOT NULL,
			generated_at   TEXT NOT NULL,
			validated_at   TEXT NOT NULL DEFAULT '',
			closed_at      TEXT NOT NULL DEFAULT '',
			body           TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_period ON statements(entity_id, period)`,

		`CREATE TABLE IF NOT EXISTS statement_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			statement_id TEXT NOT NULL REFERENCES statements(id),
			from_status  TEXT NOT NULL,
			to_status    TEXT NOT NULL,
			at           TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statement_events_stmt ON statement_events(statement_id)`,

		`CREATE TRIGGER IF NOT EXISTS trg_closed_statement_update
		BEFORE UPDATE ON statements
		WHEN OLD.status = 'CLOTURE'
		BEGIN
			SELECT RAISE(ABORT, 'statement is closed');
		END`,

		`CREATE TRIGGER IF NOT EXISTS trg_closed_statement_delete
		BEFORE DELETE ON statements
		WHEN OLD.status = 'CLOTURE'
		BEGIN
			SELECT RAISE(ABORT, 'statement is closed');
		END`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

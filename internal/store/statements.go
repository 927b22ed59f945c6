package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/coa/internal/model"
	"github.com/cleared-dev/coa/internal/statement"
)

// ErrStatementNotFound is returned when no statement has the requested ID.
var ErrStatementNotFound = errors.New("statement not found")

// Filter narrows List. Zero fields match everything.
type Filter struct {
	EntityID string
	Period   string
	Type     model.StatementType
	Status   model.StatementStatus
}

// Transition is one recorded status change. From is empty for the first save.
type Transition struct {
	StatementID string
	From        model.StatementStatus
	To          model.StatementStatus
	At          time.Time
}

// Save inserts a statement or replaces a stored one, recording a transition
// whenever its status changes. A stored closed statement cannot be replaced.
func (s *Store) Save(ctx context.Context, stmt *statement.GeneratedStatement) error {
	body, err := json.Marshal(stmt)
	if err != nil {
		return fmt.Errorf("encode statement %s: %w", stmt.ID, err)
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var prev string
	err = tx.QueryRowContext(ctx, `SELECT status FROM statements WHERE id = ?`, stmt.ID).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prev = ""
	case err != nil:
		return fmt.Errorf("read status of %s: %w", stmt.ID, err)
	case model.StatementStatus(prev) == model.StatementCloture:
		return fmt.Errorf("%w: %s", statement.ErrStatementClosed, stmt.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO statements (id, entity_id, period, country, standard, system, statement_type,
			status, equilibre, generated_at, validated_at, closed_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity_id = excluded.entity_id,
			period = excluded.period,
			country = excluded.country,
			standard = excluded.standard,
			system = excluded.system,
			statement_type = excluded.statement_type,
			status = excluded.status,
			equilibre = excluded.equilibre,
			generated_at = excluded.generated_at,
			validated_at = excluded.validated_at,
			closed_at = excluded.closed_at,
			body = excluded.body`,
		stmt.ID, stmt.EntityID, stmt.Period, stmt.Scope.Country, stmt.Scope.Standard,
		string(stmt.Scope.System), string(stmt.Type()), string(stmt.Status), stmt.Equilibre,
		formatTime(stmt.GeneratedAt), formatTime(stmt.ValidatedAt), formatTime(stmt.ClosedAt), string(body),
	)
	if err != nil {
		return fmt.Errorf("save statement %s: %w", stmt.ID, err)
	}

	if prev != string(stmt.Status) {
		at := stmt.GeneratedAt
		switch stmt.Status {
		case model.StatementValide:
			at = stmt.ValidatedAt
		case model.StatementCloture:
			at = stmt.ClosedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO statement_events (statement_id, from_status, to_status, at) VALUES (?, ?, ?, ?)`,
			stmt.ID, prev, string(stmt.Status), formatTime(at),
		)
		if err != nil {
			return fmt.Errorf("record transition of %s: %w", stmt.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns a stored statement.
func (s *Store) Get(ctx context.Context, id string) (*statement.GeneratedStatement, error) {
	var body string
	err := s.reader.QueryRowContext(ctx, `SELECT body FROM statements WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStatementNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}
	return decode(id, body)
}

// List returns the stored statements matching f, ordered by period, type and
// generation time.
func (s *Store) List(ctx context.Context, f Filter) ([]*statement.GeneratedStatement, error) {
	query := `SELECT id, body FROM statements WHERE 1=1`
	var args []any
	if f.EntityID != "" {
		query += ` AND entity_id = ?`
		args = append(args, f.EntityID)
	}
	if f.Period != "" {
		query += ` AND period = ?`
		args = append(args, f.Period)
	}
	if f.Type != "" {
		query += ` AND statement_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY period, statement_type, generated_at, id`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []*statement.GeneratedStatement
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		stmt, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, rows.Err()
}

// History returns the status transitions of a statement, oldest first.
func (s *Store) History(ctx context.Context, id string) ([]Transition, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT from_status, to_status, at FROM statement_events WHERE statement_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("statement history: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var from, to, at string
		if err := rows.Scan(&from, &to, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t, err := parseTime(at)
		if err != nil {
			return nil, err
		}
		out = append(out, Transition{
			StatementID: id,
			From:        model.StatementStatus(from),
			To:          model.StatementStatus(to),
			At:          t,
		})
	}
	return out, rows.Err()
}

// Delete removes a statement that is not closed, with its history.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM statements WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrStatementNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("read status of %s: %w", id, err)
	}
	if model.StatementStatus(status) == model.StatementCloture {
		return fmt.Errorf("%w: %s", statement.ErrStatementClosed, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM statement_events WHERE statement_id = ?`, id); err != nil {
		return fmt.Errorf("delete history of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete statement %s: %w", id, err)
	}
	return tx.Commit()
}

func decode(id, body string) (*statement.GeneratedStatement, error) {
	var stmt statement.GeneratedStatement
	if err := json.Unmarshal([]byte(body), &stmt); err != nil {
		return nil, fmt.Errorf("decode statement %s: %w", id, err)
	}
	return &stmt, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type FormSession struct {
	ID         string
	TableCount int64
	RowCount   int64
	UpdatedAt  int64
	ExpiresAt  int64
}

const getFormSession = `
SELECT id, table_count, row_count, updated_at, expires_at
FROM form_sessions
WHERE id = ? AND expires_at > ?
`

func (q *Queries) GetFormSession(ctx context.Context, id string, now int64) (FormSession, error) {
	row := q.db.QueryRowContext(ctx, getFormSession, id, now)
	var s FormSession
	err := row.Scan(&s.ID, &s.TableCount, &s.RowCount, &s.UpdatedAt, &s.ExpiresAt)
	return s, err
}

const touchFormSession = `
UPDATE form_sessions SET expires_at = ? WHERE id = ?
`

func (q *Queries) TouchFormSession(ctx context.Context, id string, expiresAt int64) error {
	_, err := q.db.ExecContext(ctx, touchFormSession, expiresAt, id)
	return err
}

const upsertFormSession = `
INSERT INTO form_sessions (id, table_count, row_count, updated_at, expires_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    table_count = excluded.table_count,
    row_count   = excluded.row_count,
    updated_at  = excluded.updated_at,
    expires_at  = excluded.expires_at
`

func (q *Queries) UpsertFormSession(ctx context.Context, s FormSession) error {
	_, err := q.db.ExecContext(ctx, upsertFormSession, s.ID, s.TableCount, s.RowCount, s.UpdatedAt, s.ExpiresAt)
	return err
}

const deleteFormSession = `
DELETE FROM form_sessions WHERE id = ?
`

func (q *Queries) DeleteFormSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteFormSession, id)
	return err
}

const deleteExpiredFormSessions = `
DELETE FROM form_sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredFormSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredFormSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

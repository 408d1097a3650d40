package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"yeargrid/internal/session"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores form sessions in a SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	ttl     time.Duration
	now     func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it. Sessions live for ttl after their last use.
func NewSQLiteRepository(dbPath string, ttl time.Duration) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; also keeps an in-memory database on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get implements session.Store. Reading a live session extends its expiry
// in the same transaction.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (session.State, error) {
	now := r.now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return session.State{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	row, err := q.GetFormSession(ctx, id, now.UnixMilli())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.State{}, session.ErrNotFound
		}
		return session.State{}, fmt.Errorf("get form session: %w", err)
	}

	if err := q.TouchFormSession(ctx, id, now.Add(r.ttl).UnixMilli()); err != nil {
		slog.WarnContext(ctx, "Failed to extend form session", "session_id", id, "error", err)
	}
	if err := tx.Commit(); err != nil {
		slog.WarnContext(ctx, "Failed to commit form session read", "session_id", id, "error", err)
	}

	return session.State{
		ID:        row.ID,
		Tables:    int(row.TableCount),
		Rows:      int(row.RowCount),
		UpdatedAt: time.UnixMilli(row.UpdatedAt).UTC(),
	}, nil
}

// Save implements session.Store
func (r *SQLiteRepository) Save(ctx context.Context, s session.State) error {
	err := r.queries.UpsertFormSession(ctx, FormSession{
		ID:         s.ID,
		TableCount: int64(s.Tables),
		RowCount:   int64(s.Rows),
		UpdatedAt:  s.UpdatedAt.UnixMilli(),
		ExpiresAt:  r.now().Add(r.ttl).UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("save form session: %w", err)
	}
	return nil
}

// Delete implements session.Store
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if err := r.queries.DeleteFormSession(ctx, id); err != nil {
		return fmt.Errorf("delete form session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions whose expiry has passed.
func (r *SQLiteRepository) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := r.queries.DeleteExpiredFormSessions(ctx, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge form sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired form sessions purged", "count", n)
	}
	return n, nil
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (r *SQLiteRepository) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.PurgeExpired(ctx); err != nil {
				slog.ErrorContext(ctx, "Form session purge failed", "error", err)
			}
		}
	}
}

// Package sqlite persists the gait signature population in a local SQLite
// file. It is the default backend when no PostgreSQL URL is configured.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kozaktomas/gaitid/internal/config"
	"github.com/kozaktomas/gaitid/internal/database"
)

//go:embed schema.sql
var schemaSQL string

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a SQLite-backed database.SignatureStore. Write transactions are
// opened with BEGIN IMMEDIATE and serialised in-process by writeMu.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
}

// Open connects to (creating if needed) the SQLite file named by cfg.Path.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("sqlite database path is required")
	}

	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

const selectColumns = "SELECT gait_id, person_id, gait_signature FROM gait_data"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryOne(ctx context.Context, q queryer, query string, args ...any) (*database.Entry, error) {
	var e database.Entry
	var personID sql.NullInt64
	err := q.QueryRowContext(ctx, query, args...).Scan(&e.GaitID, &personID, &e.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.PersonID = personID.Int64
	return &e, nil
}

func queryAll(ctx context.Context, q queryer) ([]database.Entry, error) {
	rows, err := q.QueryContext(ctx, selectColumns+" ORDER BY gait_id")
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var entries []database.Entry
	for rows.Next() {
		var e database.Entry
		var personID sql.NullInt64
		if err := rows.Scan(&e.GaitID, &personID, &e.Signature); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		e.PersonID = personID.Int64
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}
	return entries, nil
}

// Latest returns the entry with the highest gait id.
func (s *Store) Latest(ctx context.Context) (*database.Entry, error) {
	ctx = ensureContext(ctx)
	e, err := queryOne(ctx, s.db, selectColumns+" ORDER BY gait_id DESC LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("query latest signature: %w", err)
	}
	return e, nil
}

// LatestByPerson returns the entry with the highest person id.
func (s *Store) LatestByPerson(ctx context.Context) (*database.Entry, error) {
	ctx = ensureContext(ctx)
	e, err := queryOne(ctx, s.db, selectColumns+" ORDER BY person_id DESC, gait_id DESC LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("query latest person signature: %w", err)
	}
	return e, nil
}

// All returns every entry ordered by gait id.
func (s *Store) All(ctx context.Context) ([]database.Entry, error) {
	return queryAll(ensureContext(ctx), s.db)
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(*) FROM gait_data").Scan(&count); err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}
	return count, nil
}

// WithinTx runs fn inside one immediate write transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx database.SignatureTx) error) error {
	ctx = ensureContext(ctx)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var tx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var beginErr error
		tx, beginErr = s.db.BeginTx(ctx, nil)
		return beginErr
	}); err != nil {
		return fmt.Errorf("begin signature tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&signatureTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signature tx: %w", err)
	}
	return nil
}

type signatureTx struct {
	tx *sql.Tx
}

func (t *signatureTx) All(ctx context.Context) ([]database.Entry, error) {
	return queryAll(ctx, t.tx)
}

func (t *signatureTx) FindBySignature(ctx context.Context, sig []byte) (*database.Entry, error) {
	e, err := queryOne(ctx, t.tx, selectColumns+" WHERE gait_signature = ? ORDER BY gait_id LIMIT 1", sig)
	if err != nil {
		return nil, fmt.Errorf("find signature: %w", err)
	}
	return e, nil
}

func (t *signatureTx) Append(ctx context.Context, personID int64, sig []byte) (int64, error) {
	res, err := t.tx.ExecContext(ctx, "INSERT INTO gait_data (person_id, gait_signature) VALUES (?, ?)", personID, sig)
	if err != nil {
		return 0, fmt.Errorf("insert signature: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted gait id: %w", err)
	}
	return id, nil
}

var _ database.SignatureStore = (*Store)(nil)

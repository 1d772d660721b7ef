package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/gaitid/internal/database"
)

const selectColumns = `SELECT gait_id, person_id, gait_signature FROM gait_data`

// SignatureRepository provides PostgreSQL-backed gait signature storage.
type SignatureRepository struct {
	pool *Pool
}

// NewSignatureRepository creates a new SignatureRepository.
func NewSignatureRepository(pool *Pool) *SignatureRepository {
	return &SignatureRepository{pool: pool}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOne(row *sql.Row) (*database.Entry, error) {
	var e database.Entry
	var personID sql.NullInt64
	err := row.Scan(&e.GaitID, &personID, &e.Signature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.PersonID = personID.Int64
	return &e, nil
}

func listAll(ctx context.Context, q queryer) ([]database.Entry, error) {
	rows, err := q.QueryContext(ctx, selectColumns+` ORDER BY gait_id`)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
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

func (r *SignatureRepository) Latest(ctx context.Context) (*database.Entry, error) {
	e, err := scanOne(r.pool.QueryRow(ctx, selectColumns+` ORDER BY gait_id DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("get latest signature: %w", err)
	}
	return e, nil
}

func (r *SignatureRepository) LatestByPerson(ctx context.Context) (*database.Entry, error) {
	e, err := scanOne(r.pool.QueryRow(ctx,
		selectColumns+` ORDER BY person_id DESC NULLS LAST, gait_id DESC LIMIT 1`))
	if err != nil {
		return nil, fmt.Errorf("get latest person signature: %w", err)
	}
	return e, nil
}

func (r *SignatureRepository) All(ctx context.Context) ([]database.Entry, error) {
	return listAll(ctx, r.pool.DB())
}

func (r *SignatureRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gait_data`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}
	return count, nil
}

// WithinTx runs fn in a transaction holding a lock that excludes other
// writers of gait_data while still allowing plain reads.
func (r *SignatureRepository) WithinTx(ctx context.Context, fn func(tx database.SignatureTx) error) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE gait_data IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock gait_data: %w", err)
	}

	if err := fn(&signatureTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit signature tx: %w", err)
	}
	return nil
}

func (r *SignatureRepository) Close() error {
	return r.pool.Close()
}

type signatureTx struct {
	tx *sql.Tx
}

func (t *signatureTx) All(ctx context.Context) ([]database.Entry, error) {
	return listAll(ctx, t.tx)
}

func (t *signatureTx) FindBySignature(ctx context.Context, sig []byte) (*database.Entry, error) {
	e, err := scanOne(t.tx.QueryRowContext(ctx,
		selectColumns+` WHERE gait_signature = $1 ORDER BY gait_id LIMIT 1`, sig))
	if err != nil {
		return nil, fmt.Errorf("find signature: %w", err)
	}
	return e, nil
}

func (t *signatureTx) Append(ctx context.Context, personID int64, sig []byte) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO gait_data (person_id, gait_signature) VALUES ($1, $2) RETURNING gait_id`,
		personID, sig).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert signature: %w", err)
	}
	return id, nil
}

var _ database.SignatureStore = (*SignatureRepository)(nil)

package database

import (
	"context"
)

// SignatureReader provides read-only access to the signature population.
type SignatureReader interface {
	// Latest returns the most recently inserted entry (highest gait id), nil if empty
	Latest(ctx context.Context) (*Entry, error)
	// LatestByPerson returns the entry with the highest person id, nil if empty
	LatestByPerson(ctx context.Context) (*Entry, error)
	// All returns every entry ordered by gait id
	All(ctx context.Context) ([]Entry, error)
	// Count returns the number of stored entries
	Count(ctx context.Context) (int, error)
}

// SignatureTx is the view of the store inside one write transaction.
type SignatureTx interface {
	// All returns every entry ordered by gait id
	All(ctx context.Context) ([]Entry, error)
	// FindBySignature returns the first entry whose payload is byte-identical, nil if none
	FindBySignature(ctx context.Context, sig []byte) (*Entry, error)
	// Append inserts a new entry and returns its gait id
	Append(ctx context.Context, personID int64, sig []byte) (int64, error)
}

// SignatureStore is an append-only signature population with a single-writer
// transaction boundary.
type SignatureStore interface {
	SignatureReader

	// WithinTx runs fn inside one exclusive write transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx SignatureTx) error) error

	// Close releases the underlying connection.
	Close() error
}

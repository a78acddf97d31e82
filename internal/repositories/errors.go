package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrItemNotFound means no item matched the id for the calling user.
	ErrItemNotFound = errors.New("pantry item not found")
	// ErrNotConfigured means the repository has no store connection.
	ErrNotConfigured = errors.New("pantry store client not configured")
)

// PersistenceError reports that the store rejected or failed an operation.
type PersistenceError struct {
	Op   string
	Code string // SQLSTATE, when the store is PostgreSQL
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("failed to %s: %v (sqlstate %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	pe := &PersistenceError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		pe.Code = pgErr.Code
		pe.Err = errors.New(pgErr.Message)
	}
	return pe
}

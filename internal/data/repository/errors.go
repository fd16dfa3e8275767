package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("conflict")
	// ErrStaleVersion is returned when an optimistic-concurrency update
	// matched no row: the version token moved under us or the row is gone.
	ErrStaleVersion = errors.New("stale version")
)

// IsRetryable reports whether the transaction failed on a serialization
// conflict or deadlock and can be retried as a whole.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

// translateDBErr maps driver errors onto repository sentinels.
func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// unique_violation
		if pgErr.Code == "23505" {
			return ErrConflict
		}
	}

	return err
}

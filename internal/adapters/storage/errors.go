package storage

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Storage errors shared by all stores.
var (
	// ErrSchemaNotReady means the statement ran against a schema that changed
	// underneath it (a freshly created table not yet visible). Retrying is safe.
	ErrSchemaNotReady = errors.New("schema not ready")
	// ErrTableNotFound means a named cohort table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrBusy means the database was locked by another writer.
	ErrBusy = errors.New("database busy")
)

// Classify wraps driver errors in the storage error kinds above.
// Errors that match no kind are returned unchanged.
// PRE: none
// POST: errors.Is(result, ErrSchemaNotReady) for SQLITE_SCHEMA, ErrBusy for SQLITE_BUSY/LOCKED
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_SCHEMA:
		return fmt.Errorf("%w: %v", ErrSchemaNotReady, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}

// IsRetryable reports whether an error is worth retrying after a short wait.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSchemaNotReady) || errors.Is(err, ErrBusy)
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/platinummonkey/gvserver/pkg/storage"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// translateError maps driver errors onto the storage sentinels and wraps
// everything else with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyExists) || errors.Is(err, storage.ErrAcquireTimeout) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, storage.ErrAlreadyExists, pqErr.Constraint)
	}

	return fmt.Errorf("%s: %w", op, err)
}

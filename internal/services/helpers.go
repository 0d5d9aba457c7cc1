// ===============================
// FILE: internal/services/helpers.go
// ===============================

package services

import (
	"database/sql"
	"errors"
)

// mapNotFound converts the repository no-rows sentinel into a 404 and
// wraps anything else as internal.
func mapNotFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return EntityNotFoundError(entity, id)
	}
	if _, ok := GetServiceError(err); ok {
		return err
	}
	return NewInternalError("database error", err)
}

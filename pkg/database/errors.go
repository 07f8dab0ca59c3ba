package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/wareflow/wareflow-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return mapCheckConstraint(pqErr)
	case "23505":
		return errors.Conflict("a record with these values already exists")
	case "23503":
		return errors.BadRequest("referenced record does not exist")
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})
	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "phase_valid"):
		return errors.Validation(map[string]string{
			"phase": "must be one of: header, delete, update, create",
		})
	case strings.Contains(constraint, "outcome_valid"):
		return errors.Validation(map[string]string{
			"outcome": "must be one of: succeeded, failed, incomplete",
		})
	case strings.Contains(constraint, "kind_valid"):
		return errors.Validation(map[string]string{
			"kind": "must be one of: create, edit, delete",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

package runstore

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/mlopskit/errors"
)

// isBusy reports SQLite lock contention, which clears on retry.
func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy")
}

// fromDB converts a GORM error into an AppError.
func fromDB(err error, resource, id string) *errors.AppError {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFound(resource, id).WithCause(err)
	case isBusy(err):
		return errors.ServiceUnavailable("runstore").WithCause(err)
	default:
		return errors.Internal(err)
	}
}

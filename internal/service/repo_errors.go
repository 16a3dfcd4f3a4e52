package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/screen-admin-api/internal/repository"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

// repoError translates repository failures into API errors. Missing rows
// become notFound, unique violations become conflict and anything else is an
// internal error carrying message.
func repoError(err error, notFound, conflict, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicate) && conflict != "":
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

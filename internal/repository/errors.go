package repository

import (
	"errors"

	"blogpost/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique index conflicts.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err came from a unique constraint, with or
// without gorm's error translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and passes
// AppErrors through. Anything else becomes an internal error.
func notFoundOr(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// internal wraps a raw storage error, leaving AppErrors untouched.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

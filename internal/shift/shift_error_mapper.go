package shift

import (
	"errors"
	"strings"

	shifterrors "go-timeclock/internal/shift/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const openShiftConstraint = "uq_shifts_open_employee"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shifterrors.ErrShiftNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == openShiftConstraint {
			return shifterrors.ErrShiftAlreadyOpen
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, openShiftConstraint) {
		return shifterrors.ErrShiftAlreadyOpen
	}

	return err
}

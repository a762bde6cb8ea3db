package shifterrors

import (
	"net/http"

	"go-timeclock/internal/shared/apperror"
)

var (
	ErrShiftAlreadyOpen = apperror.New(
		apperror.CodeConflict,
		"employee already has an open shift",
		http.StatusConflict,
	)
	ErrNoOpenShift = apperror.New(
		apperror.CodeNotFound,
		"no open shift to clock out of",
		http.StatusNotFound,
	)
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrClockOutBeforeClockIn = apperror.New(
		apperror.CodeInvalidInput,
		"clock-out must be after clock-in",
		http.StatusBadRequest,
	)
	ErrTimestampInFuture = apperror.New(
		apperror.CodeInvalidInput,
		"timestamp must not be in the future",
		http.StatusBadRequest,
	)
	ErrInvalidLocation = apperror.New(
		apperror.CodeInvalidInput,
		"location is invalid",
		http.StatusBadRequest,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"shift is not in a state that allows this action",
		http.StatusConflict,
	)
	ErrInvalidResolution = apperror.New(
		apperror.CodeInvalidInput,
		"resolution must be forgot or actual",
		http.StatusBadRequest,
	)
	ErrReasonTooShort = apperror.New(
		apperror.CodeInvalidInput,
		"reason is too short",
		http.StatusBadRequest,
	)
	ErrRevisionOutOfWindow = apperror.New(
		apperror.CodeInvalidInput,
		"revised clock-out is outside the allowed window",
		http.StatusBadRequest,
	)
	ErrNotShiftOwner = apperror.New(
		apperror.CodeForbidden,
		"only the shift owner or a manager may do this",
		http.StatusForbidden,
	)
)

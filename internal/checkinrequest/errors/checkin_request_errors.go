package checkinrequesterrors

import (
	"net/http"

	"go-timeclock/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"check-in request not found",
		http.StatusNotFound,
	)
	ErrInvalidRequestType = apperror.New(
		apperror.CodeInvalidInput,
		"request_type must be clock_in or clock_out",
		http.StatusBadRequest,
	)
	ErrReasonTooShort = apperror.New(
		apperror.CodeInvalidInput,
		"reason is too short",
		http.StatusBadRequest,
	)
	ErrTimestampInFuture = apperror.New(
		apperror.CodeInvalidInput,
		"requested timestamp is in the future",
		http.StatusBadRequest,
	)
	ErrTimestampTooOld = apperror.New(
		apperror.CodeInvalidInput,
		"requested timestamp is outside the historical window",
		http.StatusBadRequest,
	)
	ErrPendingRequestExists = apperror.New(
		apperror.CodeConflict,
		"a pending request of this type already exists",
		http.StatusConflict,
	)
	ErrAlreadyReviewed = apperror.New(
		apperror.CodeInvalidState,
		"check-in request is no longer pending",
		http.StatusConflict,
	)
)

package organizationerrors

import (
	"net/http"

	"go-timeclock/internal/shared/apperror"
)

var (
	ErrOrganizationNotFound = apperror.New(
		apperror.CodeNotFound,
		"organization not found",
		http.StatusNotFound,
	)
	ErrInvalidTimezone = apperror.New(
		apperror.CodeInvalidInput,
		"organization timezone is invalid",
		http.StatusBadRequest,
	)
)

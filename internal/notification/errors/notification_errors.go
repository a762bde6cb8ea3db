package notificationerrors

import (
	"net/http"

	"go-timeclock/internal/shared/apperror"
)

var ErrInvalidUser = apperror.New(
	apperror.CodeInvalidInput,
	"invalid user id",
	http.StatusBadRequest,
)

package scheduleerrors

import (
	"net/http"

	"go-timeclock/internal/shared/apperror"
)

var (
	ErrTemplateNotFound = apperror.New(
		apperror.CodeNotFound,
		"schedule template not found",
		http.StatusNotFound,
	)
	ErrInvalidSlot = apperror.New(
		apperror.CodeInvalidInput,
		"schedule slot is invalid",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"effective_from must be before or equal effective_to",
		http.StatusBadRequest,
	)
	ErrInvalidTarget = apperror.New(
		apperror.CodeInvalidInput,
		"assignment target must be a team or a user",
		http.StatusBadRequest,
	)
	ErrAssignmentOverlap = apperror.New(
		apperror.CodeConflict,
		"an active assignment for this target already covers part of the period",
		http.StatusConflict,
	)
	ErrAssignmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"schedule assignment not found",
		http.StatusNotFound,
	)
)

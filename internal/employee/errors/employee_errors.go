package employeeerrors

import (
	"net/http"

	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same employee ID or email already exists",
		http.StatusConflict,
	)
	ErrBalanceChanged = apperror.New(
		apperror.CodeConflict,
		"Employee balance changed concurrently, retry the request",
		http.StatusConflict,
	)
)

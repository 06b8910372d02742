package server

import (
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

// errJSON maps domain error classes onto HTTP statuses. Anything
// unrecognized is a 500.
func errJSON(ctx echo.Context, err error) error {
	status := 500
	switch err.(type) {
	case usecase.ErrValidation:
		status = 400
	case usecase.ErrNotFound:
		status = 404
	case usecase.ErrConflict:
		status = 409
	case usecase.ErrExternalService:
		status = 502
	case usecase.ErrConfiguration:
		status = 500
	}
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the standard {status,message,data} envelope.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes err as a mapped AppError.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromDomain(err)
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}

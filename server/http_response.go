// SPDX-License-Identifier: ice License 1.0

package server

import (
	"net/http"
)

func BadRequest(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusBadRequest, err, code, dataArg...)
}

func Unauthorized(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusUnauthorized, err, code, dataArg...)
}

func Forbidden(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusForbidden, err, code, dataArg...)
}

func NotFound(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusNotFound, err, code, dataArg...)
}

func Conflict(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusConflict, err, code, dataArg...)
}

func UnprocessableEntity(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusUnprocessableEntity, err, code, dataArg...)
}

// BadGateway reports that an upstream dependency answered negatively or not at all.
func BadGateway(err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	return failed(http.StatusBadGateway, err, code, dataArg...)
}

func Unexpected(err error) *Response[ErrorResponse] {
	return &Response[ErrorResponse]{
		Code: -1,
		Data: &ErrorResponse{
			error: err,
			Error: err.Error(),
		},
	}
}

func failed(status int, err error, code string, dataArg ...map[string]any) *Response[ErrorResponse] {
	var data map[string]any
	if len(dataArg) == 1 {
		data = dataArg[0]
	}

	return &Response[ErrorResponse]{
		Code: status,
		Data: &ErrorResponse{
			error: err,
			Error: err.Error(),
			Code:  code,
			Data:  data,
		},
	}
}

func NoContent[RESP any]() *Response[RESP] {
	return &Response[RESP]{Code: http.StatusNoContent}
}

func Created[RESP any](resp *RESP) *Response[RESP] {
	return &Response[RESP]{Code: http.StatusCreated, Data: resp}
}

func OK[RESP any](responses ...*RESP) *Response[RESP] {
	var resp *RESP
	if len(responses) == 1 {
		resp = responses[0]
	}

	return &Response[RESP]{Code: http.StatusOK, Data: resp}
}

func (e *ErrorResponse) Fail(err error) *ErrorResponse {
	e.error = err

	return e
}

func (e *ErrorResponse) InternalErr() error {
	return e.error
}

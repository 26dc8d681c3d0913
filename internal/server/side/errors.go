package side

import (
	"errors"

	"github.com/lanmouse/lanmouse/sidetypes"
)

// Factory helpers returning *sidetypes.ApiError (single canonical error type).
func ErrBadRequest(detail string) *sidetypes.ApiError {
	return &sidetypes.ApiError{Status: 400, Title: "Bad Request", Detail: detail}
}
func ErrNotFound(detail string) *sidetypes.ApiError {
	return &sidetypes.ApiError{Status: 404, Title: "Not Found", Detail: detail}
}
func ErrTooLarge(detail string) *sidetypes.ApiError {
	return &sidetypes.ApiError{Status: 413, Title: "Request Too Large", Detail: detail}
}
func ErrInternal(detail string) *sidetypes.ApiError {
	return &sidetypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: detail}
}

// WrapError normalizes any error into *sidetypes.ApiError.
func WrapError(err error) *sidetypes.ApiError {
	if err == nil {
		return nil
	}
	var ae *sidetypes.ApiError
	if errors.As(err, &ae) {
		return ae
	}
	var av sidetypes.ApiError
	if errors.As(err, &av) {
		return &av
	}
	// Default wrap as internal error
	return ErrInternal(err.Error())
}

package handler

import (
	"errors"

	"saas-api/internal/feature/user"
	httpez "saas-api/internal/transport/http/ez"
)

// mapErr 领域错误 -> 响应错误码
func mapErr(err error) error {
	var rej *user.ValidationRejected
	switch {
	case errors.As(err, &rej):
		return httpez.Rejected(rej.Messages())
	case errors.Is(err, user.ErrStorageUnavailable):
		return httpez.Unavailable(err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return httpez.Unauthorized("invalid credentials")
	case errors.Is(err, user.ErrInactive):
		return httpez.Forbidden("account is inactive")
	case errors.Is(err, user.ErrAuthRequired):
		return httpez.Unauthorized(err.Error())
	case errors.Is(err, user.ErrForbidden):
		return httpez.Forbidden(err.Error())
	case errors.Is(err, user.ErrMalformedBody):
		return httpez.BadRequest(err.Error())
	default:
		return httpez.Internal("internal error", err)
	}
}

package handler

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"saas-api/internal/feature/user"
)

var registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "user_registrations_total", Help: "User registration attempts by result"},
	[]string{"result"},
)

func init() { prometheus.MustRegister(registrations) }

func registrationResult(err error) string {
	var rej *user.ValidationRejected
	switch {
	case err == nil:
		return "created"
	case errors.As(err, &rej):
		return "rejected"
	case errors.Is(err, user.ErrAuthRequired), errors.Is(err, user.ErrForbidden):
		return "denied"
	case errors.Is(err, user.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

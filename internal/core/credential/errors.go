package credential

import "errors"

// ErrInvalidSecret 明文不满足长度约束；下面三个具体原因都 Is 它。
var ErrInvalidSecret = errors.New("invalid secret")

type secretError struct{ reason string }

func (e secretError) Error() string        { return "invalid secret: " + e.reason }
func (e secretError) Is(target error) bool { return target == ErrInvalidSecret }

var (
	ErrSecretEmpty    error = secretError{"empty"}
	ErrSecretTooShort error = secretError{"too short"}
	ErrSecretTooLong  error = secretError{"too long"}
)

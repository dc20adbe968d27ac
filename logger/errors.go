package logger

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is returned when a level or configuration value is not acceptable,
	// for example a non-integer default level.
	ErrInvalidArgument = errors.New("invalid argument")

	// errSerialization never leaves the package; callers see a type summary instead.
	errSerialization = errors.New("value not serializable")
)

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

package growth

import "github.com/pkg/errors"

var (
	// ErrOutOfBounds is returned when an index is not in [0, Len()).
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidCapacity is returned for negative capacity requests.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrInvalidCount is returned when a demonstrator is asked for a negative number of steps.
	ErrInvalidCount = errors.New("invalid count")

	// ErrUnknownPolicy is returned by ParsePolicy for names it does not know.
	ErrUnknownPolicy = errors.New("unknown growth policy")
)

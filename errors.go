package gradblend

import "errors"

var (
	// ErrInvalidChannelSelection is returned when a channel index is out of
	// range for the input, or a field would have an unsupported channel count.
	ErrInvalidChannelSelection = errors.New("gradblend: invalid channel selection")

	// ErrShapeMismatch is returned when image and gradient buffers, or two
	// merge regions, do not have the dimensions they must have.
	ErrShapeMismatch = errors.New("gradblend: shape mismatch")

	// ErrInvalidIterationCount is returned for a negative number of steps.
	ErrInvalidIterationCount = errors.New("gradblend: invalid iteration count")

	// ErrInvalidBoost is returned for a negative, NaN or infinite boost.
	ErrInvalidBoost = errors.New("gradblend: invalid boost")

	// ErrFieldBusy is returned when a field is mutated while another merge or
	// reconstruction holds it.
	ErrFieldBusy = errors.New("gradblend: field in use")
)

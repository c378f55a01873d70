package amp

import "errors"

// Sentinel errors for loss scaler operations.
var (
	// ErrNotImplemented is returned by UnimplementedLossScaler methods and
	// by custom strategies that embed it without overriding Update.
	ErrNotImplemented = errors.New("amp: loss scaler operation not implemented")

	// ErrUnknownFiniteness is returned by Update when the step record
	// carries no gradient finiteness verdict to act on.
	ErrUnknownFiniteness = errors.New("amp: step finiteness unknown, gradient check did not run")
)

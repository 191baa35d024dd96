package rtcbridge

import "errors"

// Sentinel errors shared across the registry, the resources and the
// ABI boundary. The capi layer maps these onto the stable status-code
// vocabulary; nothing else crosses that boundary.
var (
	// ErrInvalidHandle reports an operation on a handle with no live
	// resource, including double deletion.
	ErrInvalidHandle = errors.New("handle does not exist")

	// ErrInvalidArgument reports a null or contradictory parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotAvailable reports a queried value that has not been
	// produced yet, such as a local description before negotiation.
	ErrNotAvailable = errors.New("not available")

	// ErrNotOpen reports a send on a channel that is not open.
	ErrNotOpen = errors.New("channel is not open")

	// ErrClosed reports an operation on a channel whose transport
	// resource has been released.
	ErrClosed = errors.New("channel is closed")
)

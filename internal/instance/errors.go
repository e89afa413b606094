package instance

import "errors"

var (
	// ErrAlreadyExists is returned by New while another Instance is live.
	ErrAlreadyExists = errors.New("instance: an instance already exists")
	// ErrAPIVersionUnsupported is returned when the requested API major
	// version is not 1.
	ErrAPIVersionUnsupported = errors.New("instance: unsupported API version major")
	// ErrExtensionNotPresent is returned when a requested extension is not
	// in SupportedExtensions.
	ErrExtensionNotPresent = errors.New("instance: requested extension not present")
)

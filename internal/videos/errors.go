package videos

import "errors"

var (
	// ErrInvalidSource indicates the input URL does not name a known video source.
	ErrInvalidSource = errors.New("invalid video source")
	// ErrProviderUnavailable indicates the metadata provider could not be reached.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrMalformedResponse indicates the provider returned an unusable payload.
	ErrMalformedResponse = errors.New("malformed provider response")
)

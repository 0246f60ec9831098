package codec

import "errors"

var (
	// ErrDecoderNotFound is returned when no decoder matches a name or
	// byte prefix.
	ErrDecoderNotFound = errors.New("decoder not found")

	// ErrInvalidParameter indicates decoding parameters are invalid.
	ErrInvalidParameter = errors.New("invalid parameter")
)

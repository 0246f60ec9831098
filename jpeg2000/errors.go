// Package jpeg2000 decodes JPEG 2000 Part 1 codestreams into per-component
// sample planes.
// Reference: ISO/IEC 15444-1:2019
package jpeg2000

import (
	"fmt"

	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
)

// Error kinds are shared with the codestream package so callers match one
// taxonomy across the whole decode path.
var (
	ErrStructural  = codestream.ErrStructural
	ErrMalformed   = codestream.ErrMalformed
	ErrUnsupported = codestream.ErrUnsupported
	ErrResource    = codestream.ErrResource
)

// codestreamError builds a malformed-data error for a named element.
func codestreamError(elem, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s: %w", elem, fmt.Sprintf(format, args...), ErrMalformed)
}

// tileError wraps an error with the tile/component position at which it
// was detected. Errors from deep inside a code-block abort the
// decode; they are never silently recovered.
func tileError(tile, comp int, err error) error {
	return fmt.Errorf("tile %d component %d: %w", tile, comp, err)
}

// unsupportedError marks a feature outside this decoder's scope.
func unsupportedError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnsupported)
}

// resourceError marks derived sizes beyond the configured bounds.
func resourceError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrResource)
}

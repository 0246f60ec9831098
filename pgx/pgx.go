// Package pgx writes the PGX raw-sample format used by the JPEG 2000
// conformance tooling: an ASCII header followed by little-endian samples
// of the smallest integer width holding the precision.
package pgx

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jp2kit/go-jp2-codec/codec"
)

// Write writes one component plane as a PGX stream: the header
// "PG ML <sign> <bits> <width> <height>\n" then raw samples, 1 byte for
// precisions up to 8 bits, 2 up to 16, 4 beyond.
func Write(w io.Writer, p codec.Plane) error {
	if p.Width <= 0 || p.Height <= 0 || len(p.Data) != p.Width*p.Height {
		return fmt.Errorf("pgx: plane %dx%d with %d samples: %w", p.Width, p.Height, len(p.Data), codec.ErrInvalidParameter)
	}
	if p.BitDepth < 1 || p.BitDepth > 38 {
		return fmt.Errorf("pgx: precision %d: %w", p.BitDepth, codec.ErrInvalidParameter)
	}

	sign := byte('+')
	if p.Signed {
		sign = '-'
	}
	if _, err := fmt.Fprintf(w, "PG ML %c %d %d %d\n", sign, p.BitDepth, p.Width, p.Height); err != nil {
		return err
	}

	switch {
	case p.BitDepth <= 8:
		buf := make([]byte, len(p.Data))
		for i, v := range p.Data {
			buf[i] = byte(v)
		}
		_, err := w.Write(buf)
		return err
	case p.BitDepth <= 16:
		buf := make([]byte, 2*len(p.Data))
		for i, v := range p.Data {
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
		}
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 4*len(p.Data))
		for i, v := range p.Data {
			binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
		}
		_, err := w.Write(buf)
		return err
	}
}

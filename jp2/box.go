// Package jp2 reads the JP2 box-structured file format wrapping a JPEG
// 2000 codestream.
//
// A JP2 file is a sequence of boxes: 4-byte big-endian length, 4-byte
// type, an optional 8-byte extended length when the length field is 1, and
// the payload. Length 0 means the box runs to end of file.
// Reference: ISO/IEC 15444-1:2019 Annex I
package jp2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Type is a 4-byte box type code.
type Type uint32

// Box type codes.
const (
	TypeSignature Type = 0x6A502020 // "jP  "
	TypeFileType  Type = 0x66747970 // "ftyp"

	TypeJP2Header    Type = 0x6A703268 // "jp2h"
	TypeImageHeader  Type = 0x69686472 // "ihdr"
	TypeBitsPerComp  Type = 0x62706363 // "bpcc"
	TypeColourSpec   Type = 0x636F6C72 // "colr"
	TypePalette      Type = 0x70636C72 // "pclr"
	TypeComponentMap Type = 0x636D6170 // "cmap"
	TypeChannelDef   Type = 0x63646566 // "cdef"
	TypeResolution   Type = 0x72657320 // "res "
	TypeCaptureRes   Type = 0x72657363 // "resc"
	TypeDisplayRes   Type = 0x72657364 // "resd"

	TypeCodestream Type = 0x6A703263 // "jp2c"

	TypeXML      Type = 0x786D6C20 // "xml "
	TypeUUID     Type = 0x75756964 // "uuid"
	TypeUUIDInfo Type = 0x75696E66 // "uinf"
	TypeIPR      Type = 0x6A703269 // "jp2i"
)

// String returns the 4-character type code.
func (t Type) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return string(b[:])
}

// Box is one parsed box: type, total length, payload and file offset.
type Box struct {
	Type     Type
	Length   uint64 // total box length including header; 0 when open-ended
	Offset   int64  // file offset of the box header
	Contents []byte
}

// maxBoxPayload bounds a single box payload against hostile length fields.
const maxBoxPayload = 1 << 30

// Reader walks boxes from a byte stream.
type Reader struct {
	r      io.Reader
	offset int64
}

// NewReader creates a box reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the current stream offset.
func (r *Reader) Offset() int64 { return r.offset }

// ReadBox reads the next box. io.EOF is returned cleanly at a box
// boundary; anything shorter is a malformed-data error.
func (r *Reader) ReadBox() (*Box, error) {
	start := r.offset
	var header [8]byte
	n, err := io.ReadFull(r.r, header[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("box header at offset %d: %w", start, errTruncated(err))
	}
	r.offset += 8

	length := uint64(binary.BigEndian.Uint32(header[0:4]))
	boxType := Type(binary.BigEndian.Uint32(header[4:8]))
	headerLen := uint64(8)

	if length == 1 {
		var ext [8]byte
		if _, err := io.ReadFull(r.r, ext[:]); err != nil {
			return nil, fmt.Errorf("box extended length at offset %d: %w", start, errTruncated(err))
		}
		r.offset += 8
		length = binary.BigEndian.Uint64(ext[:])
		headerLen = 16
	}

	box := &Box{Type: boxType, Length: length, Offset: start}

	if length == 0 {
		// Runs to end of file.
		contents, err := io.ReadAll(io.LimitReader(r.r, maxBoxPayload+1))
		if err != nil {
			return nil, fmt.Errorf("box %q at offset %d: %w", boxType, start, err)
		}
		if len(contents) > maxBoxPayload {
			return nil, fmt.Errorf("box %q at offset %d exceeds %d bytes", boxType, start, maxBoxPayload)
		}
		r.offset += int64(len(contents))
		box.Contents = contents
		return box, nil
	}

	if length < headerLen {
		return nil, fmt.Errorf("box %q at offset %d: declared length %d shorter than header", boxType, start, length)
	}
	payload := length - headerLen
	if payload > maxBoxPayload {
		return nil, fmt.Errorf("box %q at offset %d exceeds %d bytes", boxType, start, maxBoxPayload)
	}
	contents := make([]byte, payload)
	if _, err := io.ReadFull(r.r, contents); err != nil {
		return nil, fmt.Errorf("box %q at offset %d: %w", boxType, start, errTruncated(err))
	}
	r.offset += int64(payload)
	box.Contents = contents
	return box, nil
}

// ErrTruncated marks byte sources exhausting mid-box.
var ErrTruncated = errors.New("truncated input")

func errTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

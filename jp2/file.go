package jp2

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// File is a parsed JP2 file: validated structure boxes, preserved metadata
// boxes, and the embedded codestreams.
type File struct {
	FileType    FileTypeBox
	Header      *Header
	Codestreams [][]byte

	XML   [][]byte
	UUIDs []UUIDBox
	Other []Box // unknown boxes, preserved but ignored
}

// UUIDBox carries vendor metadata keyed by a 16-byte UUID.
type UUIDBox struct {
	ID   uuid.UUID
	Data []byte
}

// FileTypeBox - "ftyp" (I.5.2).
type FileTypeBox struct {
	Brand         Type
	MinorVersion  uint32
	Compatibility []Type
}

// BrandJP2 is the "jp2 " brand required in ftyp.
const BrandJP2 Type = 0x6A703220

// BrandJPX marks Part 2 files, which this reader rejects.
const BrandJPX Type = 0x6A707820

func (b *FileTypeBox) parse(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("ftyp: payload %d bytes, need 8: %w", len(data), ErrTruncated)
	}
	b.Brand = Type(be32(data[0:4]))
	b.MinorVersion = be32(data[4:8])
	for i := 8; i+4 <= len(data); i += 4 {
		b.Compatibility = append(b.Compatibility, Type(be32(data[i:i+4])))
	}
	return nil
}

// CompatibleWith reports whether the brand appears in the compatibility
// list.
func (b *FileTypeBox) CompatibleWith(brand Type) bool {
	for _, c := range b.Compatibility {
		if c == brand {
			return true
		}
	}
	return false
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// signatureMagic is the fixed payload of the 12-byte signature box.
var signatureMagic = []byte{0x0D, 0x0A, 0x87, 0x0A}

// socPrefix detects a raw codestream handed to the JP2 layer.
var socPrefix = []byte{0xFF, 0x4F}

// ErrNotJP2 marks inputs that are neither a JP2 file nor a raw codestream.
var ErrNotJP2 = errors.New("not a JP2 file")

// IsRawCodestream reports whether the prefix starts with an SOC marker.
func IsRawCodestream(prefix []byte) bool {
	return len(prefix) >= 2 && bytes.Equal(prefix[:2], socPrefix)
}

// ReadFile reads and validates a JP2 file:
//   - the first box is the 12-byte signature box with the fixed magic,
//   - the second is the file type box carrying and listing "jp2 ",
//   - a single JP2 header super-box precedes every codestream box,
//   - at least one colour specification box is present.
//
// Unknown boxes and XML/UUID/IPR boxes are preserved but do not affect
// decoding.
func ReadFile(r io.Reader) (*File, error) {
	br := NewReader(r)
	f := &File{}

	sig, err := br.ReadBox()
	if err != nil {
		return nil, fmt.Errorf("signature box: %w", coerceNotJP2(err))
	}
	if sig.Type != TypeSignature || sig.Length != 12 || !bytes.Equal(sig.Contents, signatureMagic) {
		return nil, fmt.Errorf("first box is not a valid signature box: %w", ErrNotJP2)
	}

	ftyp, err := br.ReadBox()
	if err != nil {
		return nil, fmt.Errorf("file type box: %w", coerceNotJP2(err))
	}
	if ftyp.Type != TypeFileType {
		return nil, fmt.Errorf("second box %q is not ftyp: %w", ftyp.Type, ErrNotJP2)
	}
	if err := f.FileType.parse(ftyp.Contents); err != nil {
		return nil, err
	}
	if f.FileType.Brand == BrandJPX && !f.FileType.CompatibleWith(BrandJP2) {
		return nil, fmt.Errorf("JPX brand without jp2 compatibility: unsupported")
	}
	if f.FileType.Brand != BrandJP2 || !f.FileType.CompatibleWith(BrandJP2) {
		return nil, fmt.Errorf("brand %q or missing jp2 compatibility entry: %w", f.FileType.Brand, ErrNotJP2)
	}

	for {
		box, err := br.ReadBox()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch box.Type {
		case TypeJP2Header:
			if f.Header != nil {
				return nil, fmt.Errorf("duplicate jp2h box at offset %d", box.Offset)
			}
			h, err := parseHeader(box.Contents)
			if err != nil {
				return nil, err
			}
			for _, cs := range h.ColourSpecs {
				if cs.Method > MethodRestrictedICC {
					slog.Warn("colour specification method beyond Part 1", "method", cs.Method.String())
				}
				if cs.Precedence != 0 || cs.Approximation != 0 {
					slog.Warn("reserved PREC/APPROX in colour specification",
						"precedence", cs.Precedence, "approximation", cs.Approximation)
				}
			}
			f.Header = h

		case TypeCodestream:
			if f.Header == nil {
				return nil, fmt.Errorf("jp2c box at offset %d before jp2h", box.Offset)
			}
			f.Codestreams = append(f.Codestreams, box.Contents)

		case TypeXML:
			f.XML = append(f.XML, box.Contents)

		case TypeUUID:
			if len(box.Contents) < 16 {
				return nil, fmt.Errorf("uuid box at offset %d: %w", box.Offset, ErrTruncated)
			}
			id, err := uuid.FromBytes(box.Contents[:16])
			if err != nil {
				return nil, fmt.Errorf("uuid box at offset %d: %w", box.Offset, err)
			}
			f.UUIDs = append(f.UUIDs, UUIDBox{ID: id, Data: box.Contents[16:]})

		case TypeUUIDInfo, TypeIPR:
			f.Other = append(f.Other, *box)

		default:
			slog.Warn("unknown box preserved", "type", box.Type.String(), "offset", box.Offset)
			f.Other = append(f.Other, *box)
		}
	}

	if f.Header == nil {
		return nil, fmt.Errorf("missing jp2h header box")
	}
	if len(f.Codestreams) == 0 {
		return nil, fmt.Errorf("missing contiguous codestream box")
	}
	return f, nil
}

func coerceNotJP2(err error) error {
	if err == io.EOF || errors.Is(err, ErrTruncated) {
		return ErrNotJP2
	}
	return err
}

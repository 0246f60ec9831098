package jp2

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(t Type, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(b[0:4], uint32(8+len(payload)))
	binary.BigEndian.PutUint32(b[4:8], uint32(t))
	copy(b[8:], payload)
	return b
}

func signatureBox() []byte {
	return box(TypeSignature, signatureMagic)
}

func ftypBox() []byte {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], uint32(BrandJP2))
	binary.BigEndian.PutUint32(payload[4:8], 0)
	binary.BigEndian.PutUint32(payload[8:12], uint32(BrandJP2))
	return box(TypeFileType, payload)
}

func ihdrPayload(w, h uint32, comps uint16, depth uint8) []byte {
	p := make([]byte, 14)
	binary.BigEndian.PutUint32(p[0:4], h)
	binary.BigEndian.PutUint32(p[4:8], w)
	binary.BigEndian.PutUint16(p[8:10], comps)
	p[10] = depth - 1
	p[11] = 7 // JPEG 2000 compression
	return p
}

func colrPayload(enumCS uint32) []byte {
	p := make([]byte, 7)
	p[0] = byte(MethodEnumerated)
	binary.BigEndian.PutUint32(p[3:7], enumCS)
	return p
}

func jp2hBox() []byte {
	inner := append(box(TypeImageHeader, ihdrPayload(4, 4, 1, 8)),
		box(TypeColourSpec, colrPayload(CSGreyscale))...)
	return box(TypeJP2Header, inner)
}

func minimalJP2(codestream []byte) []byte {
	var f []byte
	f = append(f, signatureBox()...)
	f = append(f, ftypBox()...)
	f = append(f, jp2hBox()...)
	f = append(f, box(TypeCodestream, codestream)...)
	return f
}

func TestReadFileMinimal(t *testing.T) {
	cs := []byte{0xFF, 0x4F, 0xFF, 0xD9}
	f, err := ReadFile(bytes.NewReader(minimalJP2(cs)))
	require.NoError(t, err)

	assert.Equal(t, BrandJP2, f.FileType.Brand)
	require.NotNil(t, f.Header)
	assert.Equal(t, uint32(4), f.Header.ImageHeader.Width)
	assert.Equal(t, uint16(1), f.Header.ImageHeader.NumComponents)
	require.Len(t, f.Header.ColourSpecs, 1)
	assert.Equal(t, MethodEnumerated, f.Header.ColourSpecs[0].Method)
	assert.Equal(t, uint32(CSGreyscale), f.Header.ColourSpecs[0].EnumCS)
	require.Len(t, f.Codestreams, 1)
	assert.Equal(t, cs, f.Codestreams[0])
}

func TestReadFileBadSignature(t *testing.T) {
	data := minimalJP2([]byte{0xFF, 0x4F})
	data[8] = 0x00 // corrupt the magic
	_, err := ReadFile(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNotJP2)
}

func TestReadFileSignatureMustBeFirst(t *testing.T) {
	var data []byte
	data = append(data, ftypBox()...)
	data = append(data, signatureBox()...)
	_, err := ReadFile(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNotJP2)
}

func TestReadFileHeaderBeforeCodestream(t *testing.T) {
	var data []byte
	data = append(data, signatureBox()...)
	data = append(data, ftypBox()...)
	data = append(data, box(TypeCodestream, []byte{0xFF, 0x4F})...)
	data = append(data, jp2hBox()...)
	_, err := ReadFile(bytes.NewReader(data))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "before jp2h")
}

func TestReadFileMissingColourSpec(t *testing.T) {
	var data []byte
	data = append(data, signatureBox()...)
	data = append(data, ftypBox()...)
	data = append(data, box(TypeJP2Header, box(TypeImageHeader, ihdrPayload(4, 4, 1, 8)))...)
	data = append(data, box(TypeCodestream, []byte{0xFF, 0x4F})...)
	_, err := ReadFile(bytes.NewReader(data))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestReadFilePreservesMetadataBoxes(t *testing.T) {
	id := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
	}
	uuidPayload := append(append([]byte(nil), id...), []byte("vendor-data")...)

	var data []byte
	data = append(data, signatureBox()...)
	data = append(data, ftypBox()...)
	data = append(data, jp2hBox()...)
	data = append(data, box(TypeXML, []byte("<meta/>"))...)
	data = append(data, box(TypeUUID, uuidPayload)...)
	data = append(data, box(Type(0x61626364), []byte{1, 2, 3})...) // "abcd"
	data = append(data, box(TypeCodestream, []byte{0xFF, 0x4F})...)

	f, err := ReadFile(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, f.XML, 1)
	assert.Equal(t, []byte("<meta/>"), f.XML[0])
	require.Len(t, f.UUIDs, 1)
	assert.Equal(t, id, f.UUIDs[0].ID[:])
	assert.Equal(t, []byte("vendor-data"), f.UUIDs[0].Data)
	require.Len(t, f.Other, 1)
	assert.Equal(t, "abcd", f.Other[0].Type.String())
}

func TestReadFileParsesPaletteAndComponentMap(t *testing.T) {
	// Palette: 2 entries, 1 column of 8-bit values.
	pclr := []byte{
		0x00, 0x02, // entries
		0x01, // columns
		0x07, // 8-bit unsigned
		0x10, // entry 0
		0xF0, // entry 1
	}
	// One channel fed through palette column 0 of component 0.
	cmap := []byte{0x00, 0x00, 0x01, 0x00}

	inner := append(box(TypeImageHeader, ihdrPayload(4, 4, 1, 8)),
		box(TypeColourSpec, colrPayload(CSGreyscale))...)
	inner = append(inner, box(TypePalette, pclr)...)
	inner = append(inner, box(TypeComponentMap, cmap)...)

	var data []byte
	data = append(data, signatureBox()...)
	data = append(data, ftypBox()...)
	data = append(data, box(TypeJP2Header, inner)...)
	data = append(data, box(TypeCodestream, []byte{0xFF, 0x4F})...)

	f, err := ReadFile(bytes.NewReader(data))
	require.NoError(t, err)

	require.NotNil(t, f.Header.Palette)
	assert.Equal(t, 2, f.Header.Palette.NumEntries)
	assert.Equal(t, [][]uint32{{0x10}, {0xF0}}, f.Header.Palette.Entries)

	require.Len(t, f.Header.ComponentMaps, 1)
	m := f.Header.ComponentMaps[0]
	assert.Equal(t, uint16(0), m.Component)
	assert.Equal(t, uint8(1), m.MappingType)
	assert.Equal(t, uint8(0), m.PaletteColumn)
}

func TestReadBoxExtendedLength(t *testing.T) {
	payload := []byte{0xCA, 0xFE}
	b := make([]byte, 16+len(payload))
	binary.BigEndian.PutUint32(b[0:4], 1) // extended
	binary.BigEndian.PutUint32(b[4:8], uint32(TypeXML))
	binary.BigEndian.PutUint64(b[8:16], uint64(16+len(payload)))
	copy(b[16:], payload)

	r := NewReader(bytes.NewReader(b))
	got, err := r.ReadBox()
	require.NoError(t, err)
	assert.Equal(t, TypeXML, got.Type)
	assert.Equal(t, payload, got.Contents)
}

func TestReadBoxOpenEnded(t *testing.T) {
	b := make([]byte, 8, 12)
	binary.BigEndian.PutUint32(b[0:4], 0) // to end of stream
	binary.BigEndian.PutUint32(b[4:8], uint32(TypeCodestream))
	b = append(b, 0xFF, 0x4F, 0xFF, 0xD9)

	r := NewReader(bytes.NewReader(b))
	got, err := r.ReadBox()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x4F, 0xFF, 0xD9}, got.Contents)
}

func TestReadBoxTruncated(t *testing.T) {
	b := box(TypeXML, []byte("full payload"))
	_, err := NewReader(bytes.NewReader(b[:10])).ReadBox()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestIsRawCodestream(t *testing.T) {
	assert.True(t, IsRawCodestream([]byte{0xFF, 0x4F, 0xFF, 0x51}))
	assert.False(t, IsRawCodestream(signatureBox()))
	assert.False(t, IsRawCodestream([]byte{0xFF}))
}

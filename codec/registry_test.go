package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecoder struct {
	name   string
	prefix []byte
}

func (f *fakeDecoder) Name() string { return f.name }

func (f *fakeDecoder) Sniff(prefix []byte) bool {
	return len(prefix) >= len(f.prefix) && bytes.Equal(prefix[:len(f.prefix)], f.prefix)
}

func (f *fakeDecoder) Decode(data []byte) (*Result, error) {
	return &Result{}, nil
}

func TestRegistryGet(t *testing.T) {
	r := &Registry{decoders: make(map[string]Decoder)}
	d := &fakeDecoder{name: "fake", prefix: []byte{0xAB}}
	r.Register(d)

	got, err := r.Get("fake")
	require.NoError(t, err)
	assert.Same(t, Decoder(d), got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrDecoderNotFound)
}

func TestRegistryDetectOrder(t *testing.T) {
	r := &Registry{decoders: make(map[string]Decoder)}
	a := &fakeDecoder{name: "a", prefix: []byte{0x01}}
	b := &fakeDecoder{name: "b", prefix: []byte{0x01, 0x02}}
	r.Register(a)
	r.Register(b)

	got, err := r.Detect([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name(), "registration order wins")

	_, err = r.Detect([]byte{0xFF})
	assert.ErrorIs(t, err, ErrDecoderNotFound)
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	r := &Registry{decoders: make(map[string]Decoder)}
	r.Register(&fakeDecoder{name: "x", prefix: []byte{1}})
	r.Register(&fakeDecoder{name: "x", prefix: []byte{2}})
	assert.Len(t, r.List(), 1)
}

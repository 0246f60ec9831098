// Package mqc implements the MQ binary arithmetic decoder.
// Reference: ISO/IEC 15444-1:2019 Annex C
package mqc

// Decoder is the MQ arithmetic decoder for one code-block segment. It is
// single-threaded and not restartable: a new code-block gets a fresh
// instance. Adaptive state lives in the per-context state bytes; the
// probability tables are immutable package data.
type Decoder struct {
	data    []byte // input with a two-byte 0xFF sentinel appended
	bp      int    // last read byte
	dataLen int    // input length without the sentinel

	a  uint32 // probability interval
	c  uint32 // code register
	ct int    // bits until the next byte-in

	contexts []uint8 // per-context (state | MPS<<7)
}

// NewDecoder creates an MQ decoder over data with numContexts adaptive
// contexts, all in state 0 with MPS 0.
func NewDecoder(data []byte, numContexts int) *Decoder {
	d := &Decoder{
		data:     withSentinel(data),
		dataLen:  len(data),
		contexts: make([]uint8, numContexts),
	}
	d.init()
	return d
}

// withSentinel appends the 0xFF 0xFF end-of-segment marker so the byte-in
// routine never runs off the slice.
func withSentinel(data []byte) []byte {
	buf := make([]byte, len(data)+2)
	copy(buf, data)
	buf[len(data)] = 0xFF
	buf[len(data)+1] = 0xFF
	return buf
}

// init implements INITDEC (C.3.5).
func (d *Decoder) init() {
	if d.dataLen == 0 {
		d.c = 0xFF << 16
	} else {
		d.c = uint32(d.data[0]) << 16
	}
	d.byteIn()
	d.c <<= 7
	d.ct -= 7
	d.a = 0x8000
}

// SetContextState forces a context to a given (state | MPS<<7) byte. Used
// for the non-zero initial states of the uniform, run-length and first
// zero-coding contexts.
func (d *Decoder) SetContextState(ctx int, state uint8) {
	d.contexts[ctx] = state
}

// Decode returns the next bit under context ctx (DECODE, C.3.2).
func (d *Decoder) Decode(ctx int) int {
	cx := &d.contexts[ctx]
	state := *cx & 0x7F
	mps := int(*cx >> 7)

	qe := qeTable[state]
	d.a -= qe

	var bit int
	if (d.c >> 16) < qe {
		// LPS exchange path.
		if d.a < qe {
			d.a = qe
			bit = mps
			*cx = nmpsTable[state] | uint8(mps)<<7
		} else {
			d.a = qe
			bit = 1 - mps
			newMPS := mps
			if switchTable[state] == 1 {
				newMPS = 1 - mps
			}
			*cx = nlpsTable[state] | uint8(newMPS)<<7
		}
		d.renorm()
		return bit
	}

	d.c -= qe << 16
	if d.a&0x8000 != 0 {
		return mps
	}
	// MPS exchange path.
	if d.a < qe {
		bit = 1 - mps
		newMPS := mps
		if switchTable[state] == 1 {
			newMPS = 1 - mps
		}
		*cx = nlpsTable[state] | uint8(newMPS)<<7
	} else {
		bit = mps
		*cx = nmpsTable[state] | uint8(mps)<<7
	}
	d.renorm()
	return bit
}

// renorm doubles the interval until it re-enters range (RENORMD, C.3.3).
func (d *Decoder) renorm() {
	for d.a < 0x8000 {
		if d.ct == 0 {
			d.byteIn()
		}
		d.a <<= 1
		d.c <<= 1
		d.ct--
	}
}

// byteIn feeds the next byte into the code register (BYTEIN, C.3.4). After
// an 0xFF byte only seven bits of the follower are significant; a follower
// above 0x8F marks end of segment and synthesizes 1-bits from then on.
func (d *Decoder) byteIn() {
	next := d.data[d.bp+1]
	if d.data[d.bp] == 0xFF {
		if next > 0x8F {
			d.c += 0xFF00
			d.ct = 8
		} else {
			d.bp++
			d.c += uint32(next) << 9
			d.ct = 7
		}
	} else {
		d.bp++
		d.c += uint32(next) << 8
		d.ct = 8
	}
}

// ResetContexts returns every context to state 0 with MPS 0 without
// touching the arithmetic registers or stream position.
func (d *Decoder) ResetContexts() {
	for i := range d.contexts {
		d.contexts[i] = 0
	}
}

package flate

import "github.com/jonjohnsonjr/deflatecore/deflateerr"

// bitReader is the LSB-first streaming bit reader. Unlike a one-shot
// reader bound to a single byte slice, it is rebound to a new input
// slice on every Update call via setInput, while its bit buffer
// (buf/nbits) persists across calls so a value split across two calls
// can still be assembled.
type bitReader struct {
	in    []byte
	pos   int // next unread byte in 'in'
	buf   uint32
	nbits uint
}

func (r *bitReader) setInput(data []byte) {
	r.in = data
	r.pos = 0
}

// consumed reports how many bytes of the current input slice have been
// folded into the bit buffer (and are therefore safe for the caller to
// treat as consumed).
func (r *bitReader) consumed() int { return r.pos }

// fill pulls bytes from the input into the bit buffer until it holds at
// least want bits or the input is exhausted. It never blocks and never
// fails; the caller checks whether enough bits ended up available.
func (r *bitReader) fill(want int) {
	for r.nbits < uint(want) && r.pos < len(r.in) {
		r.buf |= uint32(r.in[r.pos]) << r.nbits
		r.pos++
		r.nbits += 8
	}
}

// readBits consumes n bits (1<=n<=24) LSB-first. ok is false when the
// current input does not yet hold n bits; the caller should supply more
// input and retry without having lost any state.
func (r *bitReader) readBits(n int) (value uint32, ok bool) {
	r.fill(n)
	if r.nbits < uint(n) {
		return 0, false
	}
	value = r.buf & ((1 << uint(n)) - 1)
	r.buf >>= uint(n)
	r.nbits -= uint(n)
	return value, true
}

// peek implements peekFunc: up to n bits without consuming, zero-padded
// past the end of currently available input, plus how many of those bits
// are real.
func (r *bitReader) peek(n int) (uint32, int) {
	r.fill(n)
	have := int(r.nbits)
	if have > n {
		have = n
	}
	var mask uint32
	if n >= 32 {
		mask = ^uint32(0)
	} else {
		mask = (uint32(1) << uint(n)) - 1
	}
	return r.buf & mask, have
}

// consume drops n bits previously returned by peek without re-reading them.
func (r *bitReader) consume(n int) {
	r.buf >>= uint(n)
	r.nbits -= uint(n)
}

// alignToByte drops the partial byte currently in the bit buffer.
func (r *bitReader) alignToByte() {
	drop := r.nbits % 8
	r.buf >>= drop
	r.nbits -= drop
}

// isEOF is true only when both the byte cursor and the bit buffer are
// drained: no more progress is possible without new input.
func (r *bitReader) isEOF() bool {
	return r.pos >= len(r.in) && r.nbits == 0
}

// rawBytes returns up to n raw, byte-aligned bytes (nbits must be a
// multiple of 8, i.e. the reader has been aligned). Whole bytes still held
// in the bit buffer are returned first; once it is empty, bytes come
// directly from the underlying input. Used for stored-block LEN/NLEN and
// payload copies, which are byte-level, not bit-level, operations.
func (r *bitReader) rawBytes(n int) []byte {
	if r.nbits%8 != 0 {
		return nil
	}
	if r.nbits > 0 {
		if k := int(r.nbits / 8); n > k {
			n = k
		}
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(r.buf)
			r.buf >>= 8
			r.nbits -= 8
		}
		return b
	}
	avail := len(r.in) - r.pos
	if avail < n {
		n = avail
	}
	b := r.in[r.pos : r.pos+n]
	r.pos += n
	return b
}

// bitWriter is the LSB-first bit writer, the encoder's mirror of
// bitReader.
type bitWriter struct {
	out   []byte
	pos   int
	buf   uint32
	nbits uint
}

// init binds to a fresh destination and resets the bit buffer. Used only
// at the very start of a stream.
func (w *bitWriter) init(dest []byte) {
	*w = bitWriter{out: dest}
}

// setBuffer rebinds to a new destination slice while preserving the
// current partial-byte bit buffer, so a multi-call emit that stopped
// mid-byte can continue into fresh output.
func (w *bitWriter) setBuffer(dest []byte) {
	w.out = dest
	w.pos = 0
}

// writeBits appends the low n bits of value (1<=n<=24), flushing whole
// bytes to the destination. Fails with ErrLimit, leaving no partial state
// mutated, if the destination cannot hold the bytes this write would flush.
func (w *bitWriter) writeBits(value uint32, n int) error {
	need := (int(w.nbits) + n) / 8
	if w.pos+need > len(w.out) {
		return deflateerr.Limit("encoder", int64(w.pos), int64(len(w.out)))
	}
	mask := uint32(1)<<uint(n) - 1
	w.buf |= (value & mask) << w.nbits
	w.nbits += uint(n)
	for w.nbits >= 8 {
		w.out[w.pos] = byte(w.buf)
		w.pos++
		w.buf >>= 8
		w.nbits -= 8
	}
	return nil
}

// flushToByte zero-pads the current partial byte out and writes it.
func (w *bitWriter) flushToByte() error {
	if w.nbits == 0 {
		return nil
	}
	if w.pos >= len(w.out) {
		return deflateerr.Limit("encoder", int64(w.pos), int64(len(w.out)))
	}
	w.out[w.pos] = byte(w.buf)
	w.pos++
	w.buf = 0
	w.nbits = 0
	return nil
}

// bytesWritten is the count of whole bytes emitted, excluding any pending
// partial byte.
func (w *bitWriter) bytesWritten() int { return w.pos }

// hasPending reports whether a partial byte remains in the bit buffer.
func (w *bitWriter) hasPending() bool { return w.nbits != 0 }

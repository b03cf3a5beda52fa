package flate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/deflateerr"
	"github.com/jonjohnsonjr/deflatecore/options"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(options.New(), allocator.New(0))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return d
}

func decodeAll(t *testing.T, d *Decoder, input []byte) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	scratch := make([]byte, 256)
	for len(input) > 0 {
		nIn, nOut, err := d.Update(input, scratch)
		out.Write(scratch[:nOut])
		if err != nil {
			return out.Bytes(), err
		}
		input = input[nIn:]
	}
	for {
		n, err := d.Finish(scratch)
		out.Write(scratch[:n])
		if err != nil {
			return out.Bytes(), err
		}
		if n == 0 {
			break
		}
	}
	return out.Bytes(), nil
}

func TestDecodeStoredBlockRoundTrip(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'}
	d := newTestDecoder(t)
	got, err := decodeAll(t, d, input)
	if err != nil {
		t.Fatalf("decodeAll: %v", err)
	}
	if string(got) != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

func TestDecodeRejectsMalformedNLEN(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0x00, 0x00, 'H', 'e', 'l', 'l', 'o'}
	d := newTestDecoder(t)
	_, err := decodeAll(t, d, input)
	if !errors.Is(err, deflateerr.Corrupt("", 0)) {
		t.Fatalf("got %v, want ErrCorrupt", err)
	}
}

func TestDecodeRejectsInvalidBlockType(t *testing.T) {
	input := []byte{0x07}
	d := newTestDecoder(t)
	_, err := decodeAll(t, d, input)
	var de *deflateerr.Error
	if !errors.As(err, &de) || de.Code != deflateerr.ErrCorrupt || de.Stage != "block_header" {
		t.Fatalf("got %v, want ErrCorrupt at block_header", err)
	}
}

func TestTruncationAlwaysCorrupt(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'}
	truncated := input[:len(input)-1]
	d := newTestDecoder(t)
	_, err := decodeAll(t, d, truncated)
	if err == nil {
		t.Fatalf("decodeAll on truncated stream: got nil error, want CORRUPT")
	}
}

func TestByteByByteMatchesWholeInput(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'}

	whole, err := decodeAll(t, newTestDecoder(t), input)
	if err != nil {
		t.Fatalf("decodeAll whole: %v", err)
	}

	d := newTestDecoder(t)
	var out bytes.Buffer
	scratch := make([]byte, 4)
	for _, b := range input {
		chunk := []byte{b}
		for len(chunk) > 0 {
			nIn, nOut, err := d.Update(chunk, scratch)
			out.Write(scratch[:nOut])
			if err != nil {
				t.Fatalf("Update byte-by-byte: %v", err)
			}
			chunk = chunk[nIn:]
		}
	}
	for {
		n, err := d.Finish(scratch)
		out.Write(scratch[:n])
		if err != nil {
			t.Fatalf("Finish byte-by-byte: %v", err)
		}
		if n == 0 {
			break
		}
	}
	if !bytes.Equal(out.Bytes(), whole) {
		t.Fatalf("byte-by-byte = %q, want %q", out.Bytes(), whole)
	}
}

func TestFinishDrainsSmallOutputBuffers(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'}
	for _, bufSize := range []int{1, 2} {
		d := newTestDecoder(t)
		var out bytes.Buffer
		big := make([]byte, bufSize)
		in := input
		for len(in) > 0 {
			nIn, nOut, err := d.Update(in, big)
			out.Write(big[:nOut])
			if err != nil {
				t.Fatalf("buf %d: Update: %v", bufSize, err)
			}
			in = in[nIn:]
		}
		for {
			n, err := d.Finish(big)
			out.Write(big[:n])
			if err != nil {
				t.Fatalf("buf %d: Finish: %v", bufSize, err)
			}
			if n == 0 {
				break
			}
		}
		if out.String() != "Hello" {
			t.Fatalf("buf %d: got %q, want %q", bufSize, out.String(), "Hello")
		}
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'})
	f.Add([]byte{0x01, 0x05, 0x00, 0x00, 0x00, 'H', 'e', 'l', 'l', 'o'})
	f.Add([]byte{0x07})
	f.Add([]byte{0x03, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		d := newTestDecoder(t)
		scratch := make([]byte, 64)
		for len(data) > 0 {
			nIn, _, err := d.Update(data, scratch)
			if err != nil {
				return
			}
			if nIn == 0 {
				break
			}
			data = data[nIn:]
		}
		for {
			n, err := d.Finish(scratch)
			if err != nil || n == 0 {
				return
			}
		}
	})
}

func TestResetAllowsReuse(t *testing.T) {
	input := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'H', 'e', 'l', 'l', 'o'}
	d := newTestDecoder(t)
	if _, err := decodeAll(t, d, input); err != nil {
		t.Fatalf("first decode: %v", err)
	}
	d.Reset()
	got, err := decodeAll(t, d, input)
	if err != nil {
		t.Fatalf("second decode after reset: %v", err)
	}
	if string(got) != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

// Package deflate is the public codec: Encoder and Decoder wrap
// internal/flate's resumable state machines behind a buffer-pair
// update/finish API, and register themselves with registry under the
// name "deflate" so a caller never has to import internal/flate
// directly.
package deflate

import (
	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/internal/flate"
	"github.com/jonjohnsonjr/deflatecore/options"
	"github.com/jonjohnsonjr/deflatecore/registry"
)

// Name is the registry key both NewEncoder and NewDecoder register
// themselves under.
const Name = "deflate"

// Encoder is the public compressing half of the codec.
type Encoder struct {
	e *flate.Encoder
}

// Decoder is the public decompressing half of the codec.
type Decoder struct {
	d *flate.Decoder
}

// NewEncoder constructs an encoder, reading deflate.level/window_bits/
// strategy and the limits.* keys from opts and routing every allocation
// through alloc.
func NewEncoder(opts *options.Map, alloc *allocator.Handle) (*Encoder, error) {
	e, err := flate.NewEncoder(opts, alloc)
	if err != nil {
		return nil, err
	}
	return &Encoder{e: e}, nil
}

// Update feeds input and drains as much compressed output as fits in
// output.
func (c *Encoder) Update(input, output []byte) (int, int, error) {
	return c.e.Update(input, output)
}

// Finish signals end of input and drains remaining output. A LIMIT
// return with Stage "finish" means call Finish again; it does not mark
// the encoder failed.
func (c *Encoder) Finish(output []byte) (int, error) {
	return c.e.Finish(output)
}

// Reset returns the encoder to its just-constructed state, discarding
// any buffered input or pending output.
func (c *Encoder) Reset() {
	c.e.Reset()
}

// NewDecoder constructs a decoder, reading deflate.window_bits and the
// limits.* keys from opts and routing every allocation through alloc.
func NewDecoder(opts *options.Map, alloc *allocator.Handle) (*Decoder, error) {
	d, err := flate.NewDecoder(opts, alloc)
	if err != nil {
		return nil, err
	}
	return &Decoder{d: d}, nil
}

// Update feeds compressed input and drains as much decompressed output
// as fits in output.
func (c *Decoder) Update(input, output []byte) (int, int, error) {
	return c.d.Update(input, output)
}

// Finish signals end of input and drains remaining output.
func (c *Decoder) Finish(output []byte) (int, error) {
	return c.d.Finish(output)
}

// Reset returns the decoder to its just-constructed state.
func (c *Decoder) Reset() {
	c.d.Reset()
}

// ErrorDetail returns the human-readable detail string for the most
// recent non-OK return.
func (c *Decoder) ErrorDetail() string {
	return c.d.ErrorDetail()
}

func init() {
	registry.Default.RegisterEncoder(Name, func(opts *options.Map, alloc *allocator.Handle) (registry.Encoder, error) {
		return NewEncoder(opts, alloc)
	})
	registry.Default.RegisterDecoder(Name, func(opts *options.Map, alloc *allocator.Handle) (registry.Decoder, error) {
		return NewDecoder(opts, alloc)
	})
}

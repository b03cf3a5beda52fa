// Package registry is a name->factory map codecs self-register with, so
// a caller can construct an encoder or decoder by name ("deflate")
// without importing the concrete package directly.
package registry

import (
	"fmt"
	"sync"

	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/options"
)

// Encoder is the minimal interface the registry requires of an encoder
// handle.
type Encoder interface {
	Update(input, output []byte) (int, int, error)
	Finish(output []byte) (int, error)
	Reset()
}

// Decoder is Encoder's decode-direction counterpart, with an added
// error-detail accessor.
type Decoder interface {
	Update(input, output []byte) (int, int, error)
	Finish(output []byte) (int, error)
	Reset()
	ErrorDetail() string
}

// EncoderFactory constructs a fresh encoder handle for the given options,
// routing all allocation through alloc.
type EncoderFactory func(opts *options.Map, alloc *allocator.Handle) (Encoder, error)

// DecoderFactory is EncoderFactory's decode-direction counterpart.
type DecoderFactory func(opts *options.Map, alloc *allocator.Handle) (Decoder, error)

// Registry is a process-wide name->factory map. The zero value is ready
// to use; Default is the package-level instance codecs register with on
// import.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]EncoderFactory
	decoders map[string]DecoderFactory
}

// Default is the process-wide registry codec packages self-register
// with in their init() functions.
var Default = &Registry{}

// RegisterEncoder makes an encoder factory available under name. It
// panics on duplicate registration, matching the standard library's own
// driver-registration idiom (e.g. database/sql.Register).
func (r *Registry) RegisterEncoder(name string, factory EncoderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoders == nil {
		r.encoders = map[string]EncoderFactory{}
	}
	if _, dup := r.encoders[name]; dup {
		panic(fmt.Sprintf("registry: duplicate encoder registration for %q", name))
	}
	r.encoders[name] = factory
}

// RegisterDecoder is RegisterEncoder's decode-direction counterpart.
func (r *Registry) RegisterDecoder(name string, factory DecoderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decoders == nil {
		r.decoders = map[string]DecoderFactory{}
	}
	if _, dup := r.decoders[name]; dup {
		panic(fmt.Sprintf("registry: duplicate decoder registration for %q", name))
	}
	r.decoders[name] = factory
}

// CreateEncoder looks up the named encoder factory and invokes it.
func (r *Registry) CreateEncoder(name string, opts *options.Map, alloc *allocator.Handle) (Encoder, error) {
	r.mu.RLock()
	factory, ok := r.encoders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: no encoder registered for %q", name)
	}
	return factory(opts, alloc)
}

// CreateDecoder looks up the named decoder factory and invokes it.
func (r *Registry) CreateDecoder(name string, opts *options.Map, alloc *allocator.Handle) (Decoder, error) {
	r.mu.RLock()
	factory, ok := r.decoders[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: no decoder registered for %q", name)
	}
	return factory(opts, alloc)
}

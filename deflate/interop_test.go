package deflate

import (
	"bytes"
	compressflate "compress/flate"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/deflateerr"
	"github.com/jonjohnsonjr/deflatecore/options"
	"github.com/jonjohnsonjr/deflatecore/registry"
)

// encodeBytes/decodeBytes are the error-returning cores, usable from
// goroutines (unlike *testing.T, which only tolerates Fatal from the
// test's own goroutine); the t-suffixed wrappers below call t.Fatalf for
// the common single-goroutine case.

func encodeBytes(level int, strategy string, input []byte) ([]byte, error) {
	opts := options.New().
		SetInt(options.KeyLevel, int64(level)).
		SetString(options.KeyStrategy, strategy)
	enc, err := NewEncoder(opts, allocator.New(0))
	if err != nil {
		return nil, fmt.Errorf("NewEncoder: %w", err)
	}

	var out bytes.Buffer
	scratch := make([]byte, 512)
	for len(input) > 0 {
		nIn, nOut, err := enc.Update(input, scratch)
		out.Write(scratch[:nOut])
		if err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
		input = input[nIn:]
	}
	for {
		n, err := enc.Finish(scratch)
		out.Write(scratch[:n])
		if err == nil {
			break
		}
		var de *deflateerr.Error
		if !errors.As(err, &de) || de.Code != deflateerr.ErrLimit || de.Stage != "finish" {
			return nil, fmt.Errorf("Finish: %w", err)
		}
	}
	return out.Bytes(), nil
}

func decodeBytes(compressed []byte) ([]byte, error) {
	dec, err := NewDecoder(options.New(), allocator.New(0))
	if err != nil {
		return nil, fmt.Errorf("NewDecoder: %w", err)
	}

	var out bytes.Buffer
	scratch := make([]byte, 512)
	for len(compressed) > 0 {
		nIn, nOut, err := dec.Update(compressed, scratch)
		out.Write(scratch[:nOut])
		if err != nil {
			return nil, fmt.Errorf("Update: %w (%s)", err, dec.ErrorDetail())
		}
		compressed = compressed[nIn:]
	}
	for {
		n, err := dec.Finish(scratch)
		out.Write(scratch[:n])
		if err != nil {
			return nil, fmt.Errorf("Finish: %w (%s)", err, dec.ErrorDetail())
		}
		if n == 0 {
			break
		}
	}
	return out.Bytes(), nil
}

func decodeStdlibBytes(compressed []byte) ([]byte, error) {
	r := compressflate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	return io.ReadAll(r)
}

func encodeStdlibBytes(level int, input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := compressflate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("NewWriter: %w", err)
	}
	if _, err := w.Write(input); err != nil {
		return nil, fmt.Errorf("Write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeWith(t *testing.T, level int, strategy string, input []byte) []byte {
	t.Helper()
	got, err := encodeBytes(level, strategy, input)
	if err != nil {
		t.Fatalf("encodeBytes: %v", err)
	}
	return got
}

func decodeWith(t *testing.T, compressed []byte) []byte {
	t.Helper()
	got, err := decodeBytes(compressed)
	if err != nil {
		t.Fatalf("decodeBytes: %v", err)
	}
	return got
}

// Each level's round trip is independent of the others, so they run
// concurrently; errors come back through errgroup rather than t.Fatalf,
// since only the test's own goroutine may call that safely.
func TestInteropAllLevelsAgainstStdlib(t *testing.T) {
	input := []byte("The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs. How vexingly quick daft zebras jump!")

	var g errgroup.Group
	for level := 0; level <= 9; level++ {
		level := level
		g.Go(func() error {
			compressed, err := encodeBytes(level, "default", input)
			if err != nil {
				return fmt.Errorf("level %d: encode: %w", level, err)
			}
			got, err := decodeBytes(compressed)
			if err != nil {
				return fmt.Errorf("level %d: our decoder: %w", level, err)
			}
			if !bytes.Equal(got, input) {
				return fmt.Errorf("level %d: our decoder got %q, want %q", level, got, input)
			}
			gotStd, err := decodeStdlibBytes(compressed)
			if err != nil {
				return fmt.Errorf("level %d: stdlib decoder: %w", level, err)
			}
			if !bytes.Equal(gotStd, input) {
				return fmt.Errorf("level %d: stdlib decoder got %q, want %q", level, gotStd, input)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestInteropDecodeStdlibEncodedStreams(t *testing.T) {
	input := bytes.Repeat([]byte("interop payload, repeated so matches are worth finding. "), 200)
	for level := 0; level <= 9; level++ {
		compressed, err := encodeStdlibBytes(level, input)
		if err != nil {
			t.Fatalf("level %d: encodeStdlibBytes: %v", level, err)
		}
		got := decodeWith(t, compressed)
		if !bytes.Equal(got, input) {
			t.Fatalf("level %d: decoding stdlib stream mismatch (got %d bytes, want %d)", level, len(got), len(input))
		}
	}
}

// 64 KiB pseudo-random input via an explicit linear congruential
// generator.
func TestInteropLinearCongruentialPayload(t *testing.T) {
	const n = 64 * 1024
	input := make([]byte, n)
	state := uint32(12345)
	for i := range input {
		state = state*1103515245 + 12345
		input[i] = byte(state >> 24)
	}

	compressed := encodeWith(t, 6, "default", input)
	got := decodeWith(t, compressed)
	if !bytes.Equal(got, input) {
		t.Fatalf("64 KiB LCG round trip mismatch")
	}
}

func TestByteByByteDecodingMatchesWholeInput(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	input := make([]byte, 2048)
	r.Read(input)
	compressed := encodeWith(t, 6, "default", input)

	whole := decodeWith(t, compressed)

	dec, err := NewDecoder(options.New(), allocator.New(0))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	var out bytes.Buffer
	scratch := make([]byte, 8)
	for _, b := range compressed {
		chunk := []byte{b}
		for len(chunk) > 0 {
			nIn, nOut, err := dec.Update(chunk, scratch)
			out.Write(scratch[:nOut])
			if err != nil {
				t.Fatalf("Update byte-by-byte: %v (%s)", err, dec.ErrorDetail())
			}
			chunk = chunk[nIn:]
		}
	}
	for {
		n, err := dec.Finish(scratch)
		out.Write(scratch[:n])
		if err != nil {
			t.Fatalf("Finish byte-by-byte: %v (%s)", err, dec.ErrorDetail())
		}
		if n == 0 {
			break
		}
	}
	if !bytes.Equal(out.Bytes(), whole) {
		t.Fatalf("byte-by-byte decode mismatched whole-input decode")
	}
}

func TestTruncatedStreamNeverReturnsOK(t *testing.T) {
	input := bytes.Repeat([]byte("truncate this stream please"), 50)
	compressed := encodeWith(t, 6, "default", input)
	truncated := compressed[:len(compressed)-1]

	dec, err := NewDecoder(options.New(), allocator.New(0))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	scratch := make([]byte, 512)
	var lastErr error
	for len(truncated) > 0 && lastErr == nil {
		nIn, _, err := dec.Update(truncated, scratch)
		if err != nil {
			lastErr = err
			break
		}
		truncated = truncated[nIn:]
	}
	if lastErr == nil {
		for {
			n, err := dec.Finish(scratch)
			if err != nil {
				lastErr = err
				break
			}
			if n == 0 {
				break
			}
		}
	}
	if lastErr == nil {
		t.Fatalf("truncated stream: got OK, want CORRUPT")
	}
}

func TestOutputLimitEnforced(t *testing.T) {
	input := bytes.Repeat([]byte("x"), 4096)
	compressed := encodeWith(t, 6, "default", input)

	opts := options.New().SetInt(options.KeyMaxOutputBytes, 100)
	dec, err := NewDecoder(opts, allocator.New(0))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	scratch := make([]byte, 4096)
	var gotLimit bool
	for len(compressed) > 0 {
		nIn, _, err := dec.Update(compressed, scratch)
		if err != nil {
			if !errors.Is(err, deflateerr.Limit("", 0, 0)) {
				t.Fatalf("Update: got %v, want ErrLimit", err)
			}
			gotLimit = true
			break
		}
		compressed = compressed[nIn:]
	}
	if !gotLimit {
		t.Fatalf("decoding 4096 bytes of output with max_output_bytes=100: never hit the limit")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	input := []byte("driven through the registry, not the concrete package")
	opts := options.New()
	alloc := allocator.New(0)

	enc, err := registry.Default.CreateEncoder(Name, opts, alloc)
	if err != nil {
		t.Fatalf("CreateEncoder: %v", err)
	}
	var compressed bytes.Buffer
	scratch := make([]byte, 256)
	remaining := input
	for len(remaining) > 0 {
		nIn, nOut, err := enc.Update(remaining, scratch)
		compressed.Write(scratch[:nOut])
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		remaining = remaining[nIn:]
	}
	for {
		n, err := enc.Finish(scratch)
		compressed.Write(scratch[:n])
		if err == nil {
			break
		}
		var de *deflateerr.Error
		if !errors.As(err, &de) || de.Code != deflateerr.ErrLimit || de.Stage != "finish" {
			t.Fatalf("Finish: %v", err)
		}
	}

	dec, err := registry.Default.CreateDecoder(Name, options.New(), allocator.New(0))
	if err != nil {
		t.Fatalf("CreateDecoder: %v", err)
	}
	var out bytes.Buffer
	remainingCompressed := compressed.Bytes()
	for len(remainingCompressed) > 0 {
		nIn, nOut, err := dec.Update(remainingCompressed, scratch)
		out.Write(scratch[:nOut])
		if err != nil {
			t.Fatalf("Update: %v (%s)", err, dec.ErrorDetail())
		}
		remainingCompressed = remainingCompressed[nIn:]
	}
	for {
		n, err := dec.Finish(scratch)
		out.Write(scratch[:n])
		if err != nil {
			t.Fatalf("Finish: %v (%s)", err, dec.ErrorDetail())
		}
		if n == 0 {
			break
		}
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Fatalf("registry round trip: got %q, want %q", out.Bytes(), input)
	}
}

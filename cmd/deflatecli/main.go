// Command deflatecli compresses or decompresses stdin to stdout using
// the public deflate package, driving the codec's update/finish contract
// over fixed-size buffers the way a real streaming caller would.
package main

import (
	"errors"
	"flag"
	"fmt"
	"hash"
	"io"
	"log"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/deflate"
	"github.com/jonjohnsonjr/deflatecore/deflateerr"
	"github.com/jonjohnsonjr/deflatecore/options"
)

const bufferSize = 64 * 1024

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("deflatecli", flag.ExitOnError)
	decompress := fs.Bool("d", false, "decompress stdin instead of compressing it")
	level := fs.Int("level", int(options.DefaultLevel), "compression level 0-9 (ignored with -d)")
	strategy := fs.String("strategy", options.DefaultStrategy, "compression strategy (ignored with -d)")
	windowBits := fs.Int("window-bits", int(options.DefaultWindowBits), "window size in bits, 8-15")
	verify := fs.Bool("verify", false, "print an xxhash64 digest of the output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := options.New().
		SetInt(options.KeyLevel, int64(*level)).
		SetString(options.KeyStrategy, *strategy).
		SetInt(options.KeyWindowBits, int64(*windowBits))
	alloc := allocator.New(0)

	var digest hash.Hash64
	out := io.Writer(os.Stdout)
	if *verify {
		digest = xxhash.New()
		out = io.MultiWriter(os.Stdout, digest)
	}

	var err error
	if *decompress {
		err = runDecompress(opts, alloc, os.Stdin, out)
	} else {
		err = runCompress(opts, alloc, os.Stdin, out)
	}
	if err != nil {
		return err
	}
	if digest != nil {
		fmt.Fprintf(os.Stderr, "xxhash64: %016x\n", digest.Sum64())
	}
	return nil
}

func runCompress(opts *options.Map, alloc *allocator.Handle, r io.Reader, w io.Writer) error {
	enc, err := deflate.NewEncoder(opts, alloc)
	if err != nil {
		return fmt.Errorf("new encoder: %w", err)
	}

	in := make([]byte, bufferSize)
	out := make([]byte, bufferSize)
	for {
		n, readErr := r.Read(in)
		if n > 0 {
			if err := drainUpdate(enc, in[:n], out, w); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read input: %w", readErr)
		}
	}
	return drainFinish(enc, out, w)
}

func runDecompress(opts *options.Map, alloc *allocator.Handle, r io.Reader, w io.Writer) error {
	dec, err := deflate.NewDecoder(opts, alloc)
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}

	in := make([]byte, bufferSize)
	out := make([]byte, bufferSize)
	for {
		n, readErr := r.Read(in)
		if n > 0 {
			if err := drainUpdate(dec, in[:n], out, w); err != nil {
				return fmt.Errorf("%w: %s", err, dec.ErrorDetail())
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read input: %w", readErr)
		}
	}
	if err := drainFinish(dec, out, w); err != nil {
		return fmt.Errorf("%w: %s", err, dec.ErrorDetail())
	}
	return nil
}

// codec is the subset of the Codec API main.go drives directly.
type codec interface {
	Update(input, output []byte) (int, int, error)
	Finish(output []byte) (int, error)
}

// drainUpdate feeds all of input through c, writing every output chunk
// produced along the way. update may consume less than all of input or
// produce no output in a single call; we loop until input is fully
// consumed.
func drainUpdate(c codec, input, out []byte, w io.Writer) error {
	for len(input) > 0 {
		nIn, nOut, err := c.Update(input, out)
		if nOut > 0 {
			if _, werr := w.Write(out[:nOut]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
		input = input[nIn:]
		if nIn == 0 && nOut == 0 {
			return fmt.Errorf("update made no progress")
		}
	}
	return nil
}

// drainFinish calls finish repeatedly until it reports done, per the
// encoder's LIMIT-as-continue-signal and the decoder's OK-as-continue
// semantics documented in DESIGN.md: an *deflateerr.Error with
// Code == ErrLimit and Stage == "finish" means "call finish again", not
// failure.
func drainFinish(c codec, out []byte, w io.Writer) error {
	for {
		n, err := c.Finish(out)
		if n > 0 {
			if _, werr := w.Write(out[:n]); werr != nil {
				return werr
			}
		}
		if err == nil {
			if n == 0 {
				return nil
			}
			continue
		}
		if isFinishContinue(err) {
			continue
		}
		return err
	}
}

// isFinishContinue reports whether err is the "call finish again" signal
// rather than a real failure.
func isFinishContinue(err error) bool {
	var de *deflateerr.Error
	return errors.As(err, &de) && de.Code == deflateerr.ErrLimit && de.Stage == "finish"
}

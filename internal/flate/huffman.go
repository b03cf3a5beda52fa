package flate

import (
	"errors"
	"math/bits"

	"golang.org/x/exp/slices"
)

// errCorrupt is a sentinel: huffman.go has no notion of decoder stage or
// output-byte counters, so it reports malformed input generically and lets
// the caller (decoder.go) attach stage/counters when surfacing it through
// deflateerr.
var errCorrupt = errors.New("corrupt huffman code")

// fastBits is the width of the first-level lookup table: enough to
// decode every RFC 1951 §3.2.6 fixed code, and most dynamic codes, in a
// single table lookup.
const (
	fastBits      = 9
	numFastChunks = 1 << fastBits
)

// chunk layout: symbol<<chunkValueShift | nbits. nbits in [0,15] fits the
// 4-bit count mask; nbits==0 means "empty slot" (CORRUPT if reached),
// nbits==longSentinel means "consult the long table instead".
const (
	chunkCountMask  = 0xF
	chunkValueShift = 4
	longSentinel    = fastBits + 1
)

// table is the two-level canonical Huffman decode table. Long codes
// (length > fastBits) that share a fastBits-wide prefix are replicated
// into a per-prefix long table sized by the *global* longest code in the
// alphabet rather than a tighter per-prefix bound; this wastes a handful
// of table slots but decodes identically, since shorter long codes are
// still replicated across every compatible extension.
type table struct {
	min           int // minimum nonzero code length present; 0 means empty
	fast          [numFastChunks]uint32
	long          [][]uint32 // long[prefix] is nil unless prefix needs a long table
	longMask      uint32
	longExtraBits int
}

// validateLengths checks lengths against RFC 1951 §3.2.2: no code may
// exceed maxLen, and the tree must not be over-subscribed. Under-subscribed
// (incomplete) trees are accepted.
func validateLengths(lengths []int, maxLen int) error {
	var count [maxCodeLen + 1]int
	max := 0
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if n > maxLen {
			return errCorrupt
		}
		count[n]++
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}
	code := 0
	for l := 1; l <= max; l++ {
		code = (code + count[l-1]) << 1
		if code+count[l] > 1<<uint(l) {
			return errCorrupt
		}
	}
	return nil
}

// canonicalize mutates lengths in place for the degenerate single-symbol
// case: the lone nonzero-length symbol is forced to length 1,
// guaranteeing a usable code regardless of what the stream declared.
func canonicalize(lengths []int) {
	idx, n := -1, 0
	for i, l := range lengths {
		if l != 0 {
			n++
			idx = i
		}
	}
	if n == 1 && lengths[idx] != 1 {
		lengths[idx] = 1
	}
}

// assignCodes performs the canonical RFC 1951 §3.2.2 code assignment:
// same-length codes are consecutive, shorter codes are numerically
// smaller. Zero-length symbols get code 0, length 0.
func assignCodes(lengths []int) (codes []int, min, max int) {
	codes = make([]int, len(lengths))

	var count [maxCodeLen + 1]int
	for _, n := range lengths {
		if n == 0 {
			continue
		}
		if min == 0 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
		count[n]++
	}
	if max == 0 {
		return codes, 0, 0
	}

	var nextCode [maxCodeLen + 1]int
	code := 0
	for l := 1; l <= max; l++ {
		code = (code + count[l-1]) << 1
		nextCode[l] = code
	}

	order := make([]int, 0, len(lengths))
	for i, n := range lengths {
		if n != 0 {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return lengths[a] - lengths[b]
	})
	for _, i := range order {
		l := lengths[i]
		codes[i] = nextCode[l]
		nextCode[l]++
	}
	return codes, min, max
}

// buildDecodeTable constructs the two-level decode table from an
// already-validated length array, in three stages: validate, assign
// canonical codes, then build the fast/long lookup tables.
func buildDecodeTable(lengths []int) (*table, error) {
	if err := validateLengths(lengths, maxCodeLen); err != nil {
		return nil, err
	}
	work := append([]int(nil), lengths...)
	canonicalize(work)

	codes, min, max := assignCodes(work)
	t := &table{}
	if max == 0 {
		return t, nil // empty table: any decode against it is CORRUPT
	}
	t.min = min

	if max > fastBits {
		numLinks := 1 << uint(max-fastBits)
		t.longMask = uint32(numLinks - 1)
		t.longExtraBits = max - fastBits

		needsLong := map[int]bool{}
		for i, l := range work {
			if l > fastBits {
				prefix := codes[i] >> uint(l-fastBits)
				needsLong[prefix] = true
			}
		}
		t.long = make([][]uint32, numFastChunks)
		for prefix := range needsLong {
			reverse := int(bits.Reverse16(uint16(prefix)))
			reverse >>= uint(16 - fastBits)
			t.fast[reverse] = uint32(longSentinel)
			t.long[reverse] = make([]uint32, numLinks)
		}
	}

	for i, l := range work {
		if l == 0 {
			continue
		}
		code := codes[i]
		chunk := uint32(i<<chunkValueShift | l)
		reverse := int(bits.Reverse16(uint16(code)))
		reverse >>= uint(16 - l)
		if l <= fastBits {
			for off := reverse; off < numFastChunks; off += 1 << uint(l) {
				t.fast[off] = chunk
			}
		} else {
			j := reverse & (numFastChunks - 1)
			linktab := t.long[j]
			rest := reverse >> fastBits
			for off := rest; off < len(linktab); off += 1 << uint(l-fastBits) {
				linktab[off] = chunk
			}
		}
	}

	return t, nil
}

// peekFunc gives up to n bits without consuming them (zero-padded past the
// end of available input) and reports how many bits were actually
// available, so decodeSymbol can tell "ran out of real input" from
// "padding made up the rest".
type peekFunc func(n int) (bits uint32, have int)

// decodeSymbol decodes one symbol using t: peek fastBits, reverse, look
// up the fast table; if the slot names the long table, peek the long
// table's extra bits and look up there.
// Returns consumed==0 with a nil error when not enough input is currently
// buffered to decide (caller should supply more input and retry).
func decodeSymbol(peek peekFunc, t *table) (symbol int, consumed int, err error) {
	if t.min == 0 {
		return 0, 0, errCorrupt
	}
	raw, have := peek(fastBits)
	idx := raw & (numFastChunks - 1)
	chunk := t.fast[idx]
	n := int(chunk & chunkCountMask)
	if n == 0 {
		if have < fastBits {
			return 0, 0, nil
		}
		return 0, 0, errCorrupt
	}
	if n == longSentinel {
		total := fastBits + t.longExtraBits
		raw2, have2 := peek(total)
		linkIdx := (raw2 >> fastBits) & t.longMask
		chunk = t.long[idx][linkIdx]
		n = int(chunk & chunkCountMask)
		if n == 0 {
			if have2 < total {
				return 0, 0, nil
			}
			return 0, 0, errCorrupt
		}
		if have2 < n {
			return 0, 0, nil
		}
		return int(chunk >> chunkValueShift), n, nil
	}
	if have < n {
		return 0, 0, nil
	}
	return int(chunk >> chunkValueShift), n, nil
}

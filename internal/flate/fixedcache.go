package flate

import "sync"

// fixedTables bundles the RFC 1951 §3.2.6 fixed Huffman tables both
// directions need: the two-level decode tables for the decoder, and the
// canonical code/length arrays for the encoder. All fields are read-only
// once built, so one instance is safely shared by every Encoder/Decoder
// in the process.
type fixedTables struct {
	litDecode, distDecode *table
	litCodes, litLens     []int
	distCodes, distLens   []int
}

var (
	fixedOnce   sync.Once
	fixedResult *fixedTables
	fixedErr    error
)

// cachedFixedTables builds fixedTables exactly once per process and
// returns the shared instance on every subsequent call, however many
// Encoders/Decoders get constructed: the fixed tables are deterministic
// and argument-free, so there is never a reason to rebuild them.
func cachedFixedTables() (*fixedTables, error) {
	fixedOnce.Do(func() {
		litDecode, err := buildDecodeTable(fixedLitLenLengths())
		if err != nil {
			fixedErr = err
			return
		}
		distDecode, err := buildDecodeTable(fixedDistLengths())
		if err != nil {
			fixedErr = err
			return
		}
		litCodes, _, _ := assignCodes(fixedLitLenLengths())
		distCodes, _, _ := assignCodes(fixedDistLengths())
		fixedResult = &fixedTables{
			litDecode:  litDecode,
			distDecode: distDecode,
			litCodes:   litCodes,
			litLens:    fixedLitLenLengths(),
			distCodes:  distCodes,
			distLens:   fixedDistLengths(),
		}
	})
	return fixedResult, fixedErr
}

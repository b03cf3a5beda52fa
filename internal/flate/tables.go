package flate

// RFC 1951 constants shared by the decoder and the encoder, per
// RFC 1951 §3.2.5/§3.2.6/§3.2.7.

const (
	maxCodeLen = 15 // max Huffman code length RFC 1951 permits

	numLitLenSymbols  = 288 // 0..285 used, 286/287 reserved
	numDistSymbols    = 30
	numCodeLenSymbols = 19

	// maxDistCodeSlots is the largest HDIST+1 the 5-bit header field can
	// declare (32), distinct from numDistSymbols (30): a dynamic header is
	// accepted up to this size and only rejected once a decoded distance
	// symbol >= numDistSymbols is actually used (see DESIGN.md).
	maxDistCodeSlots = 32

	endOfBlock = 256

	minMatchLength = 3
	maxMatchLength = 258
	minMatchDist   = 1
	maxMatchDist   = 32768
)

// codeLengthOrder is the permutation in which code-length-code lengths are
// transmitted in a dynamic block header (RFC 1951 §3.2.7).
var codeLengthOrder = [numCodeLenSymbols]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// lengthBase/lengthExtraBits map length codes 257..285 to base length and
// extra-bit count (RFC 1951 §3.2.5).
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase/distExtraBits map distance codes 0..29 to base distance and
// extra-bit count.
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145,
	8193, 12289, 16385, 24577,
}

var distExtraBits = [30]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// lengthCodeForLength returns the length code (257..285) and extra value
// for a match length in [minMatchLength, maxMatchLength], used by the
// encoder when emitting a match symbol.
func lengthCodeForLength(length int) (code int, extra int, extraBits int) {
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if length >= lengthBase[i] {
			return 257 + i, length - lengthBase[i], lengthExtraBits[i]
		}
	}
	return 257, 0, 0
}

// distCodeForDist returns the distance code (0..29) and extra value for a
// match distance in [minMatchDist, maxMatchDist].
func distCodeForDist(dist int) (code int, extra int, extraBits int) {
	for i := len(distBase) - 1; i >= 0; i-- {
		if dist >= distBase[i] {
			return i, dist - distBase[i], distExtraBits[i]
		}
	}
	return 0, 0, 0
}

// fixedLitLenLengths is the RFC 1951 §3.2.6 fixed literal/length code
// length table.
func fixedLitLenLengths() []int {
	lengths := make([]int, numLitLenSymbols)
	for i := 0; i < 144; i++ {
		lengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		lengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		lengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		lengths[i] = 8
	}
	return lengths
}

// fixedDistLengths is the RFC 1951 §3.2.6 fixed distance code length
// table: 5 bits for every one of the 30 defined codes.
func fixedDistLengths() []int {
	lengths := make([]int, numDistSymbols)
	for i := range lengths {
		lengths[i] = 5
	}
	return lengths
}

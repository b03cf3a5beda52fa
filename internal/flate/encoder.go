package flate

import (
	"container/heap"
	"math/bits"

	"github.com/jonjohnsonjr/deflatecore/allocator"
	"github.com/jonjohnsonjr/deflatecore/deflateerr"
	"github.com/jonjohnsonjr/deflatecore/options"
)

const (
	maxStoredBlockSize = 65535
	symbolBufferCap    = 1 << 15
	scratchCapacity    = symbolBufferCap*8 + 4096
	maxCLCodeLen       = 7
)

// Encoder is the resumable DEFLATE encoder state machine: a step-by-step
// dispatch loop with a persistent bit buffer that carries state across
// Update/Finish calls, mirroring the decoder's own resumption style.
type Encoder struct {
	win *window
	mf  *matchFinder

	level    int
	strategy string
	maxChain int

	windowSize int

	pending []byte

	litBuf  []uint16
	distBuf []uint16

	litFreq  [numLitLenSymbols]int64
	distFreq [numDistSymbols]int64

	storedStage []byte

	bwScratch bitWriter
	scratch   []byte

	scratchPos int
	scratchLen int
	draining   bool

	finalRendered bool

	fixedLitCodes, fixedLitLens   []int
	fixedDistCodes, fixedDistLens []int

	totalInput  int64
	totalOutput int64

	maxOutputBytes    int64
	maxExpansionRatio int64

	failed  bool
	lastErr *deflateerr.Error
}

func normalizeStrategy(s string) string {
	switch s {
	case "filtered", "huffman_only", "rle", "fixed":
		return s
	default:
		return "default"
	}
}

// chainParams returns the hash-chain length for the given level/strategy
// combination; FILTERED gets the longer chains. Whether lazy matching
// applies is decided separately, in acceptInput.
func chainParams(level int, strategy string) int {
	filtered := strategy == "filtered"
	switch {
	case level <= 3:
		if filtered {
			return 16
		}
		return 4
	case level <= 6:
		if filtered {
			return 128
		}
		return 32
	default:
		if filtered {
			return 256
		}
		return 128
	}
}

// huffmanMode decides fixed vs dynamic Huffman output: FIXED forces
// fixed-Huffman output; every other strategy uses fixed for levels 1..3
// and dynamic for 4..9 (see DESIGN.md for why FILTERED/HUFFMAN_ONLY/RLE
// follow the same level-based rule as DEFAULT).
func huffmanMode(level int, strategy string) string {
	if strategy == "fixed" {
		return "fixed"
	}
	if level <= 3 {
		return "fixed"
	}
	return "dynamic"
}

// NewEncoder constructs an encoder per the options/allocator contract
// shared with NewDecoder.
func NewEncoder(opts *options.Map, alloc *allocator.Handle) (*Encoder, error) {
	level := int(opts.Int(options.KeyLevel, options.DefaultLevel))
	if level < 0 || level > 9 {
		return nil, deflateerr.InvalidArg("deflate.level out of range [0,9]")
	}
	strategy := normalizeStrategy(opts.String(options.KeyStrategy, options.DefaultStrategy))

	windowBits := int(opts.Uint(options.KeyWindowBits, options.DefaultWindowBits))
	if windowBits < 8 || windowBits > 15 {
		return nil, deflateerr.InvalidArg("deflate.window_bits out of range [8,15]")
	}
	windowCap := 1 << uint(windowBits)
	maxWindowBytes := int64(opts.Uint(options.KeyMaxWindowBytes, 0))
	if maxWindowBytes > 0 && int64(windowCap) > maxWindowBytes {
		return nil, deflateerr.InvalidArg("deflate.window_bits exceeds limits.max_window_bytes")
	}

	buf, err := alloc.Allocate(windowCap)
	if err != nil {
		alloc.RollbackAll()
		return nil, err
	}
	if _, err := alloc.Allocate(windowCap * 4); err != nil { // prev[]
		alloc.RollbackAll()
		return nil, err
	}
	if _, err := alloc.Allocate(windowCap * 8); err != nil { // posStream[]
		alloc.RollbackAll()
		return nil, err
	}
	scratch, err := alloc.Allocate(scratchCapacity)
	if err != nil {
		alloc.RollbackAll()
		return nil, err
	}
	if maxMem := int64(opts.Uint(options.KeyMaxMemoryBytes, 0)); maxMem > 0 && alloc.Used() > maxMem {
		alloc.RollbackAll()
		return nil, deflateerr.Memory("init", "allocation would exceed limits.max_memory_bytes")
	}

	fixed, err := cachedFixedTables()
	if err != nil {
		alloc.RollbackAll()
		return nil, deflateerr.Internal("init", "fixed table build failed")
	}

	e := &Encoder{
		win:               &window{buf: buf},
		mf:                newMatchFinder(windowCap),
		level:             level,
		strategy:          strategy,
		maxChain:          chainParams(level, strategy),
		windowSize:        windowCap,
		scratch:           scratch,
		fixedLitCodes:     fixed.litCodes,
		fixedLitLens:      fixed.litLens,
		fixedDistCodes:    fixed.distCodes,
		fixedDistLens:     fixed.distLens,
		maxOutputBytes:    int64(opts.Uint(options.KeyMaxOutputBytes, 0)),
		maxExpansionRatio: int64(opts.Uint(options.KeyMaxExpansionRatio, 0)),
	}
	return e, nil
}

// Reset returns the encoder to its post-construction state: the window,
// hash chain, and fixed tables are not freed.
func (e *Encoder) Reset() {
	e.win.reset()
	e.mf.reset()
	e.pending = e.pending[:0]
	e.litBuf = e.litBuf[:0]
	e.distBuf = e.distBuf[:0]
	for i := range e.litFreq {
		e.litFreq[i] = 0
	}
	for i := range e.distFreq {
		e.distFreq[i] = 0
	}
	e.storedStage = e.storedStage[:0]
	e.bwScratch = bitWriter{}
	e.scratchPos, e.scratchLen = 0, 0
	e.draining = false
	e.finalRendered = false
	e.totalInput, e.totalOutput = 0, 0
	e.failed = false
	e.lastErr = nil
}

func (e *Encoder) fail(err error) error {
	e.failed = true
	switch x := err.(type) {
	case *deflateerr.Error:
		e.lastErr = x
	default:
		e.lastErr = deflateerr.Internal("encoder", err.Error())
	}
	return e.lastErr
}

// ErrorDetail returns the human-readable detail string valid after any
// non-OK return.
func (e *Encoder) ErrorDetail() string {
	if e.lastErr == nil {
		return ""
	}
	return e.lastErr.Error()
}

// Update consumes input bytes into the match/symbol pipeline and drains
// any previously rendered block bytes into output.
func (e *Encoder) Update(input, output []byte) (nIn int, nOut int, err error) {
	if e.failed {
		return 0, 0, nil
	}
	outPos := 0

	if !e.draining {
		e.pending = append(e.pending, input...)
		nIn = len(input)
		e.totalInput += int64(nIn)
	}

	for {
		if e.draining {
			n := copy(output[outPos:], e.scratch[e.scratchPos:e.scratchLen])
			e.scratchPos += n
			outPos += n
			e.totalOutput += int64(n)
			if e.scratchPos >= e.scratchLen {
				e.draining = false
				e.scratchPos, e.scratchLen = 0, 0
			} else {
				break
			}
		}

		if e.level == 0 {
			if len(e.pending) > 0 {
				e.storedStage = append(e.storedStage, e.pending...)
				e.pending = e.pending[:0]
			}
			if len(e.storedStage) < maxStoredBlockSize {
				break
			}
			if err := e.renderBlock(false); err != nil {
				return nIn, outPos, e.fail(err)
			}
			e.draining = true
			continue
		}

		e.acceptInput()
		if len(e.litBuf) >= symbolBufferCap {
			if err := e.renderBlock(false); err != nil {
				return nIn, outPos, e.fail(err)
			}
			e.draining = true
			continue
		}
		break
	}

	return nIn, outPos, nil
}

// Finish encodes any buffered input as literals/matches and renders the
// final block, then drains the rendered bytes incrementally. When the
// buffered input fills more than one symbol buffer, the leading blocks are
// rendered and drained over successive calls; every call that leaves work
// outstanding returns a LIMIT error whose Stage is "finish".
func (e *Encoder) Finish(output []byte) (int, error) {
	if e.failed {
		return 0, e.lastErr
	}
	outPos := 0

	if e.draining {
		n := copy(output[outPos:], e.scratch[e.scratchPos:e.scratchLen])
		e.scratchPos += n
		outPos += n
		e.totalOutput += int64(n)
		if e.scratchPos >= e.scratchLen {
			e.draining = false
			e.scratchPos, e.scratchLen = 0, 0
		}
	}

	if !e.draining && !e.finalRendered {
		if e.level == 0 {
			e.storedStage = append(e.storedStage, e.pending...)
			e.pending = e.pending[:0]
		} else {
			e.acceptInput()
		}
		// acceptInput stops once the symbol buffer is full; input still
		// pending after that goes out in further blocks on later calls.
		final := len(e.pending) == 0
		if err := e.renderBlock(final); err != nil {
			return outPos, e.fail(err)
		}
		e.finalRendered = final
		e.draining = true

		n := copy(output[outPos:], e.scratch[e.scratchPos:e.scratchLen])
		e.scratchPos += n
		outPos += n
		e.totalOutput += int64(n)
		if e.scratchPos >= e.scratchLen {
			e.draining = false
			e.scratchPos, e.scratchLen = 0, 0
		}
	}

	if e.draining || !e.finalRendered {
		return outPos, deflateerr.Limit("finish", int64(e.scratchPos), int64(e.scratchLen))
	}
	return outPos, nil
}

// --- symbol production (LZ77 match finding) ---

func (e *Encoder) acceptInput() {
	insertHash := e.strategy != "huffman_only" && e.strategy != "rle"
	for len(e.pending) > 0 && len(e.litBuf) < symbolBufferCap {
		switch e.strategy {
		case "huffman_only":
			e.emitLiteralSymbol(e.pending[0])
			e.advance(1, false)

		case "rle":
			n := e.rleRun()
			if n >= minMatchLength {
				e.emitMatchSymbol(n, 1)
				e.advance(n, false)
			} else {
				e.emitLiteralSymbol(e.pending[0])
				e.advance(1, false)
			}

		default:
			var length, dist int
			if len(e.pending) >= 3 {
				h := hash3Bytes(e.pending[0], e.pending[1], e.pending[2])
				length, dist = e.mf.search(e.win, h, e.win.pos, e.pos(), e.pending, e.maxChain, e.windowSize)
			}
			if e.strategy == "filtered" && length > 0 && length < 32 {
				if altLen, _ := e.peekMatchAt(1); altLen >= length+2 {
					e.emitLiteralSymbol(e.pending[0])
					e.advance(1, insertHash)
					continue
				}
			}
			if length >= minMatchLength {
				e.emitMatchSymbol(length, dist)
				e.advance(length, insertHash)
			} else {
				e.emitLiteralSymbol(e.pending[0])
				e.advance(1, insertHash)
			}
		}
	}
}

func (e *Encoder) pos() int64 { return e.totalInput - int64(len(e.pending)) }

func (e *Encoder) rleRun() int {
	if e.win.filled == 0 {
		return 0
	}
	r := e.win.byteAtDistance(1)
	limit := len(e.pending)
	if limit > maxMatchLength {
		limit = maxMatchLength
	}
	n := 0
	for n < limit && e.pending[n] == r {
		n++
	}
	return n
}

func (e *Encoder) peekMatchAt(offset int) (int, int) {
	if len(e.pending)-offset < 3 {
		return 0, 0
	}
	lookahead := e.pending[offset:]
	h := hash3Bytes(lookahead[0], lookahead[1], lookahead[2])
	idx := (e.win.pos + offset) % e.win.capacity()
	streamPos := e.pos() + int64(offset)
	return e.mf.search(e.win, h, idx, streamPos, lookahead, e.maxChain, e.windowSize)
}

func (e *Encoder) advance(n int, insertHash bool) {
	if insertHash {
		for i := 0; i < n; i++ {
			if len(e.pending)-i >= 3 {
				h := hash3Bytes(e.pending[i], e.pending[i+1], e.pending[i+2])
				idx := (e.win.pos + i) % e.win.capacity()
				e.mf.insert(h, idx, e.pos()+int64(i))
			}
		}
	}
	for i := 0; i < n; i++ {
		e.win.writeByte(e.pending[i])
	}
	e.pending = e.pending[n:]
}

func (e *Encoder) emitLiteralSymbol(b byte) {
	e.litBuf = append(e.litBuf, uint16(b))
	e.distBuf = append(e.distBuf, 0)
	e.litFreq[b]++
}

func (e *Encoder) emitMatchSymbol(length, dist int) {
	e.litBuf = append(e.litBuf, uint16(length))
	e.distBuf = append(e.distBuf, uint16(dist))
	code, _, _ := lengthCodeForLength(length)
	e.litFreq[code]++
	dcode, _, _ := distCodeForDist(dist)
	e.distFreq[dcode]++
}

func (e *Encoder) clearSymbolBuffers() {
	e.litBuf = e.litBuf[:0]
	e.distBuf = e.distBuf[:0]
	for i := range e.litFreq {
		e.litFreq[i] = 0
	}
	for i := range e.distFreq {
		e.distFreq[i] = 0
	}
}

// --- block rendering ---

// renderBlock renders exactly one block's worth of currently-buffered
// content (stored payload or symbol buffer) into e.scratch, reusing the
// persistent e.bwScratch so bit-packing carries seamlessly across block
// boundaries (the wire format has no inter-block byte alignment except
// for stored blocks, handled explicitly below).
func (e *Encoder) renderBlock(final bool) error {
	bw := &e.bwScratch
	bw.setBuffer(e.scratch)

	var err error
	if e.level == 0 {
		err = e.renderStoredBlocks(bw, final)
	} else if huffmanMode(e.level, e.strategy) == "fixed" {
		err = e.renderFixedBlock(bw, final)
	} else {
		err = e.renderDynamicBlock(bw, final)
	}
	if err != nil {
		return err
	}
	if final {
		if err := bw.flushToByte(); err != nil {
			return err
		}
	}
	e.scratchLen = bw.bytesWritten()
	e.scratchPos = 0
	return nil
}

func writeBlockHeader(bw *bitWriter, bfinal bool, btype uint32) error {
	v := btype << 1
	if bfinal {
		v |= 1
	}
	return bw.writeBits(v, 3)
}

func (e *Encoder) renderStoredBlocks(bw *bitWriter, final bool) error {
	if len(e.storedStage) == 0 {
		if final {
			if err := writeBlockHeader(bw, true, 0); err != nil {
				return err
			}
			if err := bw.flushToByte(); err != nil {
				return err
			}
			if err := bw.writeBits(0, 16); err != nil {
				return err
			}
			if err := bw.writeBits(0xFFFF, 16); err != nil {
				return err
			}
		}
		return nil
	}
	for len(e.storedStage) > 0 {
		n := len(e.storedStage)
		if n > maxStoredBlockSize {
			n = maxStoredBlockSize
		}
		isLast := final && n == len(e.storedStage)
		if err := writeBlockHeader(bw, isLast, 0); err != nil {
			return err
		}
		if err := bw.flushToByte(); err != nil {
			return err
		}
		if err := bw.writeBits(uint32(uint16(n)), 16); err != nil {
			return err
		}
		if err := bw.writeBits(uint32(^uint16(n)), 16); err != nil {
			return err
		}
		for _, b := range e.storedStage[:n] {
			if err := bw.writeBits(uint32(b), 8); err != nil {
				return err
			}
		}
		e.storedStage = e.storedStage[n:]
	}
	return nil
}

func reverseCode(code uint32, length int) uint32 {
	return uint32(bits.Reverse16(uint16(code))) >> uint(16-length)
}

func writeCode(bw *bitWriter, code, length int) error {
	return bw.writeBits(reverseCode(uint32(code), length), length)
}

func (e *Encoder) renderFixedBlock(bw *bitWriter, final bool) error {
	if err := writeBlockHeader(bw, final, 1); err != nil {
		return err
	}
	for i := range e.litBuf {
		if err := e.writeFixedSymbol(bw, i); err != nil {
			return err
		}
	}
	if err := writeCode(bw, e.fixedLitCodes[endOfBlock], e.fixedLitLens[endOfBlock]); err != nil {
		return err
	}
	e.clearSymbolBuffers()
	return nil
}

func (e *Encoder) writeFixedSymbol(bw *bitWriter, i int) error {
	lit := e.litBuf[i]
	dist := e.distBuf[i]
	if dist == 0 {
		return writeCode(bw, e.fixedLitCodes[lit], e.fixedLitLens[lit])
	}
	code, extra, extraBits := lengthCodeForLength(int(lit))
	if err := writeCode(bw, e.fixedLitCodes[code], e.fixedLitLens[code]); err != nil {
		return err
	}
	if extraBits > 0 {
		if err := bw.writeBits(uint32(extra), extraBits); err != nil {
			return err
		}
	}
	dcode, dextra, dextraBits := distCodeForDist(int(dist))
	if err := writeCode(bw, e.fixedDistCodes[dcode], e.fixedDistLens[dcode]); err != nil {
		return err
	}
	if dextraBits > 0 {
		if err := bw.writeBits(uint32(dextra), dextraBits); err != nil {
			return err
		}
	}
	return nil
}

// --- dynamic Huffman tree construction ---

type heapNode struct {
	freq        int64
	sym         int
	left, right *heapNode
}

type nodeHeap []*heapNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].sym < h[j].sym
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*heapNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// buildHuffmanLengths builds length-limited canonical Huffman code
// lengths from freq via a binary min-heap.
func buildHuffmanLengths(freq []int64, maxLen int) []int {
	lengths := make([]int, len(freq))

	var used []int
	for i, f := range freq {
		if f > 0 {
			used = append(used, i)
		}
	}
	if len(used) == 0 {
		return lengths
	}
	if len(used) == 1 {
		lengths[used[0]] = 1
		return lengths
	}

	h := make(nodeHeap, 0, len(used))
	for _, i := range used {
		h = append(h, &heapNode{freq: freq[i], sym: i})
	}
	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(*heapNode)
		b := heap.Pop(&h).(*heapNode)
		heap.Push(&h, &heapNode{freq: a.freq + b.freq, sym: -1, left: a, right: b})
	}
	root := heap.Pop(&h).(*heapNode)

	var walk func(node *heapNode, depth int)
	walk = func(node *heapNode, depth int) {
		if node.left == nil && node.right == nil {
			lengths[node.sym] = depth
			return
		}
		walk(node.left, depth+1)
		walk(node.right, depth+1)
	}
	walk(root, 0)

	clampAndFix(lengths, maxLen)
	return lengths
}

// clampAndFix enforces the maxLen cap, then restores the Kraft
// inequality by lengthening short codes.
func clampAndFix(lengths []int, maxLen int) {
	for i, l := range lengths {
		if l > maxLen {
			lengths[i] = maxLen
		}
	}
	unit := int64(1) << uint(maxLen)
	var sum int64
	for _, l := range lengths {
		if l > 0 {
			sum += unit >> uint(l)
		}
	}
	for sum > unit {
		for i, l := range lengths {
			if l > 0 && l < maxLen {
				lengths[i] = l + 1
				sum -= unit >> uint(l+1)
				break
			}
		}
	}
}

func highestNonzero(lengths []int) int {
	for i := len(lengths) - 1; i >= 0; i-- {
		if lengths[i] != 0 {
			return i
		}
	}
	return -1
}

type clSymbol struct {
	sym       int
	extra     int
	extraBits int
}

// rleCodeLengths run-length encodes a concatenated lit/len+dist length
// sequence using the code-length alphabet.
func rleCodeLengths(seq []int) ([]clSymbol, [numCodeLenSymbols]int64) {
	var out []clSymbol
	var freq [numCodeLenSymbols]int64

	i := 0
	for i < len(seq) {
		l := seq[i]
		j := i + 1
		for j < len(seq) && seq[j] == l {
			j++
		}
		runLen := j - i

		if l == 0 {
			for runLen > 0 {
				if runLen < 3 {
					out = append(out, clSymbol{sym: 0})
					freq[0]++
					runLen--
					continue
				}
				n := runLen
				if n > 138 {
					n = 138
				}
				if n <= 10 {
					out = append(out, clSymbol{sym: 17, extra: n - 3, extraBits: 3})
					freq[17]++
				} else {
					out = append(out, clSymbol{sym: 18, extra: n - 11, extraBits: 7})
					freq[18]++
				}
				runLen -= n
			}
		} else {
			out = append(out, clSymbol{sym: l})
			freq[l]++
			runLen--
			for runLen > 0 {
				if runLen < 3 {
					out = append(out, clSymbol{sym: l})
					freq[l]++
					runLen--
					continue
				}
				n := runLen
				if n > 6 {
					n = 6
				}
				out = append(out, clSymbol{sym: 16, extra: n - 3, extraBits: 2})
				freq[16]++
				runLen -= n
			}
		}
		i = j
	}
	return out, freq
}

// fixCodeLengthCompleteness pads the code-length alphabet's own Huffman
// tree until it is complete, for wide-ecosystem decoder compatibility.
func fixCodeLengthCompleteness(lengths []int) {
	const unit = int64(1) << maxCLCodeLen
	sum := func() int64 {
		var s int64
		for _, l := range lengths {
			if l > 0 {
				s += unit >> uint(l)
			}
		}
		return s
	}
	for sum() < unit {
		assigned := false
		for i := len(codeLengthOrder) - 1; i >= 0; i-- {
			sym := codeLengthOrder[i]
			if lengths[sym] == 0 {
				lengths[sym] = maxCLCodeLen
				assigned = true
				break
			}
		}
		if !assigned {
			break
		}
	}
}

func writeCodeTable(bw *bitWriter, codes, lengths []int, sym int) error {
	return writeCode(bw, codes[sym], lengths[sym])
}

func (e *Encoder) renderDynamicBlock(bw *bitWriter, final bool) error {
	if err := writeBlockHeader(bw, final, 2); err != nil {
		return err
	}

	freq := append([]int64(nil), e.litFreq[:]...)
	freq[endOfBlock]++
	litLengths := buildHuffmanLengths(freq, maxCodeLen)
	distLengths := buildHuffmanLengths(e.distFreq[:], maxCodeLen)

	highest := highestNonzero(litLengths)
	if highest < endOfBlock {
		highest = endOfBlock
	}
	hlit := highest - 256
	if hlit < 0 {
		hlit = 0
	}

	distHighest := highestNonzero(distLengths)
	if distHighest < 0 {
		distLengths[0] = 1
		distHighest = 0
	}
	hdist := distHighest

	litCount := 257 + hlit
	distCount := 1 + hdist

	seq := make([]int, 0, litCount+distCount)
	seq = append(seq, litLengths[:litCount]...)
	seq = append(seq, distLengths[:distCount]...)

	clSymbols, clFreqArr := rleCodeLengths(seq)
	clFreq := append([]int64(nil), clFreqArr[:]...)
	clLengths := buildHuffmanLengths(clFreq, maxCLCodeLen)
	fixCodeLengthCompleteness(clLengths)

	hclenIdx := 3 // at least the first 4 entries are always transmitted
	for i := len(codeLengthOrder) - 1; i >= 0; i-- {
		if clLengths[codeLengthOrder[i]] != 0 {
			hclenIdx = i
			break
		}
	}
	hclen := hclenIdx - 3
	if hclen < 4 {
		hclen = 4
	}
	if hclen > 15 {
		hclen = 15
	}

	clCodes, _, _ := assignCodes(clLengths)
	litCodes, _, _ := assignCodes(litLengths)
	distCodes, _, _ := assignCodes(distLengths)

	if err := bw.writeBits(uint32(hlit), 5); err != nil {
		return err
	}
	if err := bw.writeBits(uint32(hdist), 5); err != nil {
		return err
	}
	if err := bw.writeBits(uint32(hclen), 4); err != nil {
		return err
	}
	for i := 0; i < hclen+4; i++ {
		if err := bw.writeBits(uint32(clLengths[codeLengthOrder[i]]), 3); err != nil {
			return err
		}
	}

	for _, cs := range clSymbols {
		if err := writeCodeTable(bw, clCodes, clLengths, cs.sym); err != nil {
			return err
		}
		if cs.extraBits > 0 {
			if err := bw.writeBits(uint32(cs.extra), cs.extraBits); err != nil {
				return err
			}
		}
	}

	for i := range e.litBuf {
		lit := e.litBuf[i]
		dist := e.distBuf[i]
		if dist == 0 {
			if err := writeCodeTable(bw, litCodes, litLengths, int(lit)); err != nil {
				return err
			}
			continue
		}
		code, extra, extraBits := lengthCodeForLength(int(lit))
		if err := writeCodeTable(bw, litCodes, litLengths, code); err != nil {
			return err
		}
		if extraBits > 0 {
			if err := bw.writeBits(uint32(extra), extraBits); err != nil {
				return err
			}
		}
		dcode, dextra, dextraBits := distCodeForDist(int(dist))
		if err := writeCodeTable(bw, distCodes, distLengths, dcode); err != nil {
			return err
		}
		if dextraBits > 0 {
			if err := bw.writeBits(uint32(dextra), dextraBits); err != nil {
				return err
			}
		}
	}

	if err := writeCodeTable(bw, litCodes, litLengths, endOfBlock); err != nil {
		return err
	}

	e.clearSymbolBuffers()
	return nil
}

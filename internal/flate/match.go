package flate

const (
	hashBits = 15
	hashSize = 1 << hashBits
	hashMask = hashSize - 1
)

const noEntry = -1

// matchFinder is the hash-chain LZ77 match finder: it tracks, per
// 3-byte hash, the most recent buffer positions that hashed to it, so
// the encoder can walk backward candidates looking for the longest
// match against the current lookahead.
type matchFinder struct {
	head      [hashSize]int32 // most recently inserted buffer index for a hash, or noEntry
	prev      []int32         // buffer index of the previous insert sharing the hash
	posStream []int64         // stream position at which buf[i] was last inserted, or -1
}

func newMatchFinder(capacity int) *matchFinder {
	mf := &matchFinder{
		prev:      make([]int32, capacity),
		posStream: make([]int64, capacity),
	}
	mf.reset()
	return mf
}

func (mf *matchFinder) reset() {
	for i := range mf.head {
		mf.head[i] = noEntry
	}
	for i := range mf.prev {
		mf.prev[i] = noEntry
		mf.posStream[i] = -1
	}
}

// hashUpdate folds one more byte into a rolling 15-bit hash.
func hashUpdate(h uint32, b byte) uint32 {
	return ((h << 5) ^ (h >> 10) ^ uint32(b)) & hashMask
}

// hash3Bytes hashes three consecutive lookahead bytes from scratch (the
// encoder never keeps a running hash across arbitrary seeks).
func hash3Bytes(b0, b1, b2 byte) uint32 {
	h := uint32(0)
	h = hashUpdate(h, b0)
	h = hashUpdate(h, b1)
	h = hashUpdate(h, b2)
	return h
}

// insert records buffer index idx (at stream position streamPos) under
// hash h.
func (mf *matchFinder) insert(h uint32, idx int, streamPos int64) {
	mf.prev[idx] = mf.head[h]
	mf.head[h] = int32(idx)
	mf.posStream[idx] = streamPos
}

// search walks the hash chain for h up to maxChain candidates, returning
// the longest match of at least minMatchLength bytes against lookahead
// (read fresh, since those bytes have not yet been committed to the
// window). idx/streamPos describe where the current lookahead *would*
// land once committed.
func (mf *matchFinder) search(win *window, h uint32, idx int, streamPos int64, lookahead []byte, maxChain, windowSize int) (bestLen, bestDist int) {
	limit := len(lookahead)
	if limit > maxMatchLength {
		limit = maxMatchLength
	}
	if limit < minMatchLength {
		return 0, 0
	}
	capacity := win.capacity()

	candidate := mf.head[h]
	for chain := 0; candidate != noEntry && chain < maxChain; chain++ {
		m := int(candidate)
		candidate = mf.prev[m]

		storedPos := mf.posStream[m]
		if storedPos < 0 || storedPos >= streamPos {
			continue
		}
		streamDist := streamPos - storedPos
		bufDist := (idx - m) % capacity
		if bufDist < 0 {
			bufDist += capacity
		}
		if streamDist != int64(bufDist) {
			continue // stale: window has wrapped over this entry
		}
		if streamDist > int64(windowSize) || streamDist > maxMatchDist {
			continue
		}

		length := matchLengthMixed(win, m, lookahead, limit, int(streamDist))
		if length > bestLen {
			bestLen = length
			bestDist = int(streamDist)
			if bestLen >= limit {
				break
			}
		}
	}

	if bestLen < minMatchLength {
		return 0, 0
	}
	return bestLen, bestDist
}

// matchLengthMixed compares window history starting at buffer index m,
// dist bytes behind the lookahead, against lookahead (not yet committed to
// the window), up to limit bytes. Once an overlapping match reaches bytes
// that are themselves still in lookahead (n >= dist), those are read from
// lookahead rather than from window slots that have not been written yet.
func matchLengthMixed(win *window, m int, lookahead []byte, limit, dist int) int {
	capacity := win.capacity()
	n := 0
	for n < limit {
		var b byte
		if n < dist {
			b = win.at((m + n) % capacity)
		} else {
			b = lookahead[n-dist]
		}
		if b != lookahead[n] {
			break
		}
		n++
	}
	return n
}

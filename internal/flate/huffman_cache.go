package flate

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
)

// tableCache memoizes decode tables built from a dynamic block's
// literal/length+distance code-length arrays, keyed by a content hash.
// Streams that repeat the same block shape (common with chunked encoders
// that re-emit an identical header per chunk) skip rebuilding both
// tables. Uses a bounded tinylfu admission cache rather than an unbounded
// map so a stream with many distinct block shapes can't grow this
// without limit.
type tableCache struct {
	lit  *tinylfu.T[uint64, *table]
	dist *tinylfu.T[uint64, *table]
}

// newTableCache builds a cache sized for entries shaped dynamic blocks;
// 64 entries per table comfortably covers the handful of distinct block
// shapes a typical stream repeats.
func newTableCache() *tableCache {
	const size = 64
	return &tableCache{
		lit:  tinylfu.New[uint64, *table](size, size*10, hashUint64),
		dist: tinylfu.New[uint64, *table](size, size*10, hashUint64),
	}
}

func hashUint64(k uint64) uint64 { return k }

// fingerprintLengths hashes a code-length array into a cache key.
func fingerprintLengths(lengths []int) uint64 {
	h := xxhash.New()
	buf := make([]byte, len(lengths))
	for i, l := range lengths {
		buf[i] = byte(l)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

// buildOrReuseLit returns a cached literal/length decode table for
// lengths if one was built before, else builds and caches it.
func (c *tableCache) buildOrReuseLit(lengths []int) (*table, error) {
	key := fingerprintLengths(lengths)
	if t, ok := c.lit.Get(key); ok {
		return t, nil
	}
	t, err := buildDecodeTable(lengths)
	if err != nil {
		return nil, err
	}
	c.lit.Add(key, t)
	return t, nil
}

// buildOrReuseDist is buildOrReuseLit's distance-table counterpart.
func (c *tableCache) buildOrReuseDist(lengths []int) (*table, error) {
	key := fingerprintLengths(lengths)
	if t, ok := c.dist.Get(key); ok {
		return t, nil
	}
	t, err := buildDecodeTable(lengths)
	if err != nil {
		return nil, err
	}
	c.dist.Add(key, t)
	return t, nil
}

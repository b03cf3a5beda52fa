// Package allocator provides the handle through which the codec routes
// every heap allocation, so a construction-time memory budget can be
// enforced and rolled back on failure. It is a minimal stand-in for a
// caller-supplied allocator, kept deliberately separate from the codec
// core.
package allocator

import "github.com/jonjohnsonjr/deflatecore/deflateerr"

// Handle tracks a running total of bytes allocated through it and can
// refuse further allocation once a budget is exceeded.
type Handle struct {
	budget int64 // 0 = unlimited
	used   int64
	spans  []int64 // sizes of live allocations, in order, for rollback
}

// New returns a handle with the given memory budget in bytes (0 = unlimited).
func New(budgetBytes int64) *Handle {
	return &Handle{budget: budgetBytes}
}

// Allocate reserves n bytes of budget and returns a zero-valued slice of
// that length. It fails with ErrMemory if the budget would be exceeded.
func (h *Handle) Allocate(n int) ([]byte, error) {
	return h.ZeroAllocate(n)
}

// ZeroAllocate is identical to Allocate; Go slices are always zeroed, so
// there is no distinct non-zeroing path the way a C allocator would have.
func (h *Handle) ZeroAllocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, deflateerr.InvalidArg("negative allocation size")
	}
	if h.budget > 0 && h.used+int64(n) > h.budget {
		return nil, deflateerr.Memory("init", "allocation would exceed max_memory_bytes")
	}
	h.used += int64(n)
	h.spans = append(h.spans, int64(n))
	return make([]byte, n), nil
}

// Free releases the most recently tracked allocation of the given size.
// Go's GC reclaims the backing array; Free only undoes the budget
// accounting so a failed construction can roll back in reverse order.
func (h *Handle) Free(n int) {
	for i := len(h.spans) - 1; i >= 0; i-- {
		if h.spans[i] == int64(n) {
			h.used -= h.spans[i]
			h.spans = append(h.spans[:i], h.spans[i+1:]...)
			return
		}
	}
}

// RollbackAll releases every tracked allocation, for use when
// construction fails partway through: prior allocations are released in
// reverse order.
func (h *Handle) RollbackAll() {
	h.used = 0
	h.spans = h.spans[:0]
}

// Used returns the current tracked allocation total.
func (h *Handle) Used() int64 { return h.used }

// Budget returns the configured budget (0 = unlimited).
func (h *Handle) Budget() int64 { return h.budget }

package box

import "sync"

// IDAllocator hands out new local ids for boxes created on one process
// (by cutting, splitting, or bursting), drawn from a monotonic counter
// initialized above the maximum id currently in use so new ids never
// collide with existing ones (spec's ownership rule).
type IDAllocator struct {
	mu        sync.Mutex
	ownerRank int32
	next      int64
}

// NewIDAllocator creates an allocator for ownerRank, starting above
// maxExistingLocalID.
func NewIDAllocator(ownerRank int32, maxExistingLocalID int64) *IDAllocator {
	return &IDAllocator{ownerRank: ownerRank, next: maxExistingLocalID + 1}
}

// Next mints a fresh ID with the given block id.
func (a *IDAllocator) Next(blockID int32) ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := ID{OwnerRank: a.ownerRank, LocalID: a.next, BlockID: blockID}
	a.next++
	return id
}

// Observe advances the allocator past localID if localID is not already
// below the next value to hand out, preserving the no-collision
// invariant when ids arrive from elsewhere (e.g. deserialized boxes).
func (a *IDAllocator) Observe(localID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if localID >= a.next {
		a.next = localID + 1
	}
}

// Package mem defines the buffer allocator used for read results.
//
// Devices allocate output buffers through the Allocator captured at
// request submission, so embedders can route them into arenas or
// instrumented pools. The default allocator is plain heap allocation.
package mem

import "sync"

type Allocator interface {
	Alloc(n int) []byte
	Free(b []byte)
}

// Default is the process-wide allocator. It lives for the lifetime of
// the process and is an engine's allocator unless WithAllocator sets
// another; requests that pass a nil Allocator use the engine's.
var Default Allocator = Heap{}

// Heap allocates from the Go heap. Free is a no-op; the collector
// reclaims buffers once the work item drops them.
type Heap struct{}

func (Heap) Alloc(n int) []byte { return make([]byte, n) }
func (Heap) Free(b []byte)      {}

// Counting wraps an Allocator and tracks live buffers.
type Counting struct {
	Inner Allocator

	mu    sync.Mutex
	live  int
	total int
}

func (c *Counting) Alloc(n int) []byte {
	c.mu.Lock()
	c.live++
	c.total++
	c.mu.Unlock()
	if c.Inner != nil {
		return c.Inner.Alloc(n)
	}
	return make([]byte, n)
}

func (c *Counting) Free(b []byte) {
	c.mu.Lock()
	c.live--
	c.mu.Unlock()
	if c.Inner != nil {
		c.Inner.Free(b)
	}
}

// Live reports buffers allocated and not yet freed.
func (c *Counting) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Total reports all allocations made through c.
func (c *Counting) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

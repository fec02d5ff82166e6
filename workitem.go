package strata

import (
	"sync/atomic"

	"tractor.dev/strata/mem"
)

type op int

const (
	opExists op = iota
	opSize
	opRead
	opWrite
	opAppend
	opWriteSegment
	opRemove
	opMkdir
	opRemoveDir
)

func (o op) String() string {
	switch o {
	case opExists:
		return "exists"
	case opSize:
		return "size"
	case opRead:
		return "read"
	case opWrite:
		return "write"
	case opAppend:
		return "append"
	case opWriteSegment:
		return "write-segment"
	case opRemove:
		return "remove"
	case opMkdir:
		return "mkdir"
	case opRemoveDir:
		return "removedir"
	}
	return "invalid"
}

// Callback receives a completed work item on the worker goroutine.
type Callback func(*WorkItem)

// BufferAction tells the engine what to do with a read buffer after a
// callback returns. It has no effect on other operations.
type BufferAction int

const (
	KeepBuffer BufferAction = iota
	FreeBuffer
)

// WorkItem is a queued request. Once Completed reports true every
// field is stable for the item's remaining lifetime.
//
// All accessors tolerate a nil receiver: a nil handle is what a
// request returns when the pool is exhausted, and it reads as a
// completed item with result OutOfWorkItems.
type WorkItem struct {
	op   op
	path string

	// For writes, buffer borrows the caller's data. For reads it is
	// the device-allocated output, owned by the item until released
	// or freed.
	buffer      []byte
	bufferOwned bool
	bytes       uint64
	offset      uint64

	nullTerminate bool
	alloc         mem.Allocator

	callback Callback
	action   BufferAction
	engine   *Engine

	result    Result
	err       error
	completed uint32
}

// Result returns the terminal status.
func (wi *WorkItem) Result() Result {
	if wi == nil {
		return OutOfWorkItems
	}
	return wi.result
}

// Err returns the underlying error, or nil on success.
func (wi *WorkItem) Err() error {
	if wi == nil {
		return ErrOutOfWorkItems
	}
	return wi.err
}

// Path returns the normalized virtual path of the request.
func (wi *WorkItem) Path() string {
	if wi == nil {
		return ""
	}
	return wi.path
}

// Buffer returns the output buffer of a successful read, including
// the trailing zero byte when the request asked for one.
func (wi *WorkItem) Buffer() []byte {
	if wi == nil {
		return nil
	}
	atomic.LoadUint32(&wi.completed)
	return wi.buffer
}

// Bytes returns the bytes read or written.
func (wi *WorkItem) Bytes() uint64 {
	if wi == nil {
		return 0
	}
	return wi.bytes
}

// Completed reports whether the worker has finished the item.
// Engine-owned items always read as completed; their callback is the
// completion signal.
func (wi *WorkItem) Completed() bool {
	if wi == nil || wi.callback != nil {
		return true
	}
	return atomic.LoadUint32(&wi.completed) != 0
}

// Wait blocks until the item completes. It returns immediately for
// nil and engine-owned items.
func (wi *WorkItem) Wait() {
	if wi == nil || wi.callback != nil {
		return
	}
	e := wi.engine
	e.compMu.Lock()
	for atomic.LoadUint32(&wi.completed) == 0 {
		e.compCond.Wait()
	}
	e.compMu.Unlock()
}

// FreeBuffer returns a read buffer to the allocator captured at
// submission. It does nothing for write items, whose buffer is
// borrowed from the caller, or when no buffer was allocated.
func (wi *WorkItem) FreeBuffer() {
	if wi == nil || !wi.bufferOwned || wi.buffer == nil {
		return
	}
	wi.alloc.Free(wi.buffer)
	wi.buffer = nil
	wi.bufferOwned = false
}

// Release returns a handle-owned work item to the pool. The item must
// be completed; use Wait to ensure that. Engine-owned items are
// released by the worker and nil handles are ignored.
func (e *Engine) Release(wi *WorkItem) {
	if wi == nil || wi.callback != nil {
		return
	}
	e.pool.Free(wi)
}

func (e *Engine) releaseInternal(wi *WorkItem) {
	e.pool.Free(wi)
}

package strata

import (
	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
	"tractor.dev/strata/vpath"
)

// NoLimit as maxBytes reads to the end of the file.
const NoLimit = device.NoLimit

// newWorkItem allocates and initializes a work item, normalizing the
// virtual path. On pool exhaustion the handle path returns nil; the
// callback path fires the callback synchronously on the caller with a
// transient completed item carrying OutOfWorkItems.
func (e *Engine) newWorkItem(path string, o op, cb Callback, action BufferAction) *WorkItem {
	wi := e.pool.Alloc()
	if wi == nil {
		e.log.Error("work item pool exhausted", "capacity", e.pool.Cap(), "op", o.String(), "path", path)
		if cb != nil {
			tmp := WorkItem{
				op:        o,
				path:      vpath.Clean(path),
				callback:  cb,
				action:    action,
				engine:    e,
				result:    OutOfWorkItems,
				err:       ErrOutOfWorkItems,
				completed: 1,
			}
			cb(&tmp)
		}
		return nil
	}

	wi.op = o
	wi.path = vpath.Clean(path)
	wi.callback = cb
	wi.action = action
	wi.engine = e
	return wi
}

func (e *Engine) submit(wi *WorkItem) {
	e.queue.Push(wi)
}

// Exists asks whether a file exists on any readable mount covering
// the path.
func (e *Engine) Exists(path string) *WorkItem {
	wi := e.newWorkItem(path, opExists, nil, KeepBuffer)
	if wi != nil {
		e.submit(wi)
	}
	return wi
}

func (e *Engine) ExistsCallback(path string, cb Callback) {
	if wi := e.newWorkItem(path, opExists, cb, KeepBuffer); wi != nil {
		e.submit(wi)
	}
}

// Size reports the size of a file; Bytes carries the result.
func (e *Engine) Size(path string) *WorkItem {
	wi := e.newWorkItem(path, opSize, nil, KeepBuffer)
	if wi != nil {
		e.submit(wi)
	}
	return wi
}

func (e *Engine) SizeCallback(path string, cb Callback) {
	if wi := e.newWorkItem(path, opSize, cb, KeepBuffer); wi != nil {
		e.submit(wi)
	}
}

// Read reads a whole file. With nullTerminate the buffer gets one
// extra zero byte after the payload so it can be handed to C-string
// consumers. A nil alloc uses the engine's allocator.
func (e *Engine) Read(path string, nullTerminate bool, alloc mem.Allocator) *WorkItem {
	return e.ReadSegment(path, 0, NoLimit, nullTerminate, alloc)
}

// ReadSegment reads up to maxBytes starting at offset.
func (e *Engine) ReadSegment(path string, offset, maxBytes uint64, nullTerminate bool, alloc mem.Allocator) *WorkItem {
	wi := e.newWorkItem(path, opRead, nil, KeepBuffer)
	if wi != nil {
		e.initRead(wi, offset, maxBytes, nullTerminate, alloc)
		e.submit(wi)
	}
	return wi
}

func (e *Engine) ReadCallback(path string, nullTerminate bool, alloc mem.Allocator, action BufferAction, cb Callback) {
	e.ReadSegmentCallback(path, 0, NoLimit, nullTerminate, alloc, action, cb)
}

func (e *Engine) ReadSegmentCallback(path string, offset, maxBytes uint64, nullTerminate bool, alloc mem.Allocator, action BufferAction, cb Callback) {
	if wi := e.newWorkItem(path, opRead, cb, action); wi != nil {
		e.initRead(wi, offset, maxBytes, nullTerminate, alloc)
		e.submit(wi)
	}
}

func (e *Engine) initRead(wi *WorkItem, offset, maxBytes uint64, nullTerminate bool, alloc mem.Allocator) {
	if alloc == nil {
		alloc = e.alloc
	}
	wi.alloc = alloc
	wi.nullTerminate = nullTerminate
	wi.bytes = maxBytes
	wi.offset = offset
}

// Write replaces the file contents with data. The data slice is
// borrowed until the item completes.
func (e *Engine) Write(path string, data []byte) *WorkItem {
	return e.submitWrite(path, opWrite, 0, data, nil, KeepBuffer)
}

func (e *Engine) WriteCallback(path string, data []byte, cb Callback) {
	e.submitWrite(path, opWrite, 0, data, cb, KeepBuffer)
}

// WriteSegment writes data at offset, preserving surrounding bytes.
func (e *Engine) WriteSegment(path string, offset uint64, data []byte) *WorkItem {
	return e.submitWrite(path, opWriteSegment, offset, data, nil, KeepBuffer)
}

func (e *Engine) WriteSegmentCallback(path string, offset uint64, data []byte, cb Callback) {
	e.submitWrite(path, opWriteSegment, offset, data, cb, KeepBuffer)
}

// Append writes data past the current end of the file.
func (e *Engine) Append(path string, data []byte) *WorkItem {
	return e.submitWrite(path, opAppend, 0, data, nil, KeepBuffer)
}

func (e *Engine) AppendCallback(path string, data []byte, cb Callback) {
	e.submitWrite(path, opAppend, 0, data, cb, KeepBuffer)
}

func (e *Engine) submitWrite(path string, o op, offset uint64, data []byte, cb Callback, action BufferAction) *WorkItem {
	wi := e.newWorkItem(path, o, cb, action)
	if wi != nil {
		wi.buffer = data
		wi.bytes = uint64(len(data))
		wi.offset = offset
		e.submit(wi)
	}
	return wi
}

// Remove deletes a file.
func (e *Engine) Remove(path string) *WorkItem {
	wi := e.newWorkItem(path, opRemove, nil, KeepBuffer)
	if wi != nil {
		e.submit(wi)
	}
	return wi
}

func (e *Engine) RemoveCallback(path string, cb Callback) {
	if wi := e.newWorkItem(path, opRemove, cb, KeepBuffer); wi != nil {
		e.submit(wi)
	}
}

// Mkdir creates a directory.
func (e *Engine) Mkdir(path string) *WorkItem {
	wi := e.newWorkItem(path, opMkdir, nil, KeepBuffer)
	if wi != nil {
		e.submit(wi)
	}
	return wi
}

func (e *Engine) MkdirCallback(path string, cb Callback) {
	if wi := e.newWorkItem(path, opMkdir, cb, KeepBuffer); wi != nil {
		e.submit(wi)
	}
}

// RemoveDir deletes a directory and everything under it.
func (e *Engine) RemoveDir(path string) *WorkItem {
	wi := e.newWorkItem(path, opRemoveDir, nil, KeepBuffer)
	if wi != nil {
		e.submit(wi)
	}
	return wi
}

func (e *Engine) RemoveDirCallback(path string, cb Callback) {
	if wi := e.newWorkItem(path, opRemoveDir, cb, KeepBuffer); wi != nil {
		e.submit(wi)
	}
}

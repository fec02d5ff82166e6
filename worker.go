package strata

import (
	"errors"
	"io/fs"
	"sync/atomic"

	"tractor.dev/strata/device"
)

func (e *Engine) work() {
	defer close(e.workerDone)
	e.log.Debug("worker started")

	for e.running.Load() {
		wi := e.queue.Pop(nil)
		if wi == nil {
			e.sem.Wait()
			continue
		}
		e.dispatch(wi)
		e.complete(wi)
	}

	e.log.Debug("worker stopped")
}

func (e *Engine) dispatch(wi *WorkItem) {
	switch wi.op {
	case opExists:
		e.resolveRead(wi, func(m *Mount, devPath string) (Result, error) {
			if m.dev.Exists(devPath) {
				return Ok, nil
			}
			return NotFound, fs.ErrNotExist
		})

	case opSize:
		wi.bytes = 0
		e.resolveRead(wi, func(m *Mount, devPath string) (Result, error) {
			size, err := m.dev.Size(devPath)
			wi.bytes = size
			return ResultOf(err), err
		})

	case opRead:
		maxBytes := wi.bytes
		wi.bytes = 0
		e.resolveRead(wi, func(m *Mount, devPath string) (Result, error) {
			buf, err := m.dev.Read(devPath, wi.offset, maxBytes, wi.alloc, wi.nullTerminate)
			if err != nil {
				return ResultOf(err), err
			}
			wi.buffer = buf
			wi.bufferOwned = true
			wi.bytes = uint64(len(buf))
			if wi.nullTerminate && wi.bytes > 0 {
				wi.bytes--
			}
			return Ok, nil
		})

	case opWrite, opAppend, opWriteSegment:
		e.resolveMutation(wi, func(m *Mount, devPath string) error {
			n, err := m.dev.(device.Writer).Write(devPath, wi.offset, wi.buffer, wi.op.writeMode())
			wi.bytes = n
			return err
		})

	case opRemove:
		e.resolveMutation(wi, func(m *Mount, devPath string) error {
			return m.dev.(device.Remover).Remove(devPath)
		})

	case opMkdir:
		e.resolveMutation(wi, func(m *Mount, devPath string) error {
			return m.dev.(device.DirMaker).Mkdir(devPath)
		})

	case opRemoveDir:
		e.resolveMutation(wi, func(m *Mount, devPath string) error {
			return m.dev.(device.DirRemover).RemoveDir(devPath)
		})
	}
}

// resolveRead walks the mount table in reverse insertion order,
// skipping mounts without read permission, and tries fn against each
// matching mount. Not-found falls through to the next candidate; any
// other result ends resolution and surfaces as-is, so a device can
// report a present-but-unreadable file without being shadowed.
func (e *Engine) resolveRead(wi *WorkItem, fn func(*Mount, string) (Result, error)) {
	wi.result = NotFound
	wi.err = fs.ErrNotExist

	e.mountMu.RLock()
	defer e.mountMu.RUnlock()

	for i := len(e.mounts) - 1; i >= 0; i-- {
		m := e.mounts[i]
		if m.perms&PermRead == 0 {
			continue
		}
		devPath, ok := m.match(wi.path)
		if !ok {
			continue
		}
		wi.result, wi.err = fn(m, devPath)
		if wi.result != NotFound {
			return
		}
	}
}

// resolveMutation finds the single mount allowed to serve the
// operation. With no eligible mount the operation is unsupported.
func (e *Engine) resolveMutation(wi *WorkItem, fn func(*Mount, string) error) {
	e.mountMu.RLock()
	defer e.mountMu.RUnlock()

	m, devPath := e.findMutableMount(wi.path, wi.op)
	if m == nil {
		wi.bytes = 0
		wi.result = Unsupported
		wi.err = &fs.PathError{Op: wi.op.String(), Path: wi.path, Err: errors.ErrUnsupported}
		return
	}
	wi.err = fn(m, devPath)
	wi.result = ResultOf(wi.err)
}

func (e *Engine) complete(wi *WorkItem) {
	e.compMu.Lock()
	atomic.StoreUint32(&wi.completed, 1)
	e.compMu.Unlock()

	if wi.callback != nil {
		wi.callback(wi)
		if wi.action == FreeBuffer {
			wi.FreeBuffer()
		}
		e.releaseInternal(wi)
	} else {
		e.compCond.Broadcast()
	}
}

func (o op) writeMode() device.WriteMode {
	switch o {
	case opAppend:
		return device.Append
	case opWriteSegment:
		return device.Segment
	default:
		return device.Truncate
	}
}

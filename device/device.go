// Package device defines the capability contract storage backends
// implement to be mounted into an engine.
//
// Device is the required surface. Optional capabilities are discovered
// by type assertion, the same way io/fs extensions work: a backend
// that also implements Writer can be mounted with write permission,
// one that implements io.Closer is closed when its mount is released.
// The engine calls a device serially from one worker, but the same
// device may be shared by multiple engines.
package device

import (
	"errors"

	"tractor.dev/strata/mem"
)

// NoLimit as maxBytes reads to the end of the file.
const NoLimit = ^uint64(0)

// WriteMode selects how Write positions its data.
type WriteMode int

const (
	// Truncate replaces the file contents.
	Truncate WriteMode = iota
	// Append writes past the current end of the file.
	Append
	// Segment writes at the given offset, preserving surrounding bytes.
	Segment
)

func (m WriteMode) String() string {
	switch m {
	case Truncate:
		return "truncate"
	case Append:
		return "append"
	case Segment:
		return "segment"
	}
	return "invalid"
}

// ErrOutOfSpace reports that the backing store cannot hold the write.
var ErrOutOfSpace = errors.New("out of space")

// Interface describes a registrable device type. Create builds a
// backend instance for a device path; it returns fs.ErrNotExist when
// the path does not name something the backend can serve.
type Interface struct {
	Name   string
	Create func(devicePath string) (Device, error)
}

// Device is the required capability set.
//
// Paths are device-relative virtual paths: absolute, slash-separated,
// already normalized by the engine. Read allocates the result through
// alloc; when nullTerminate is set it allocates one extra byte and
// stores a zero after the payload, so the returned buffer is one byte
// longer than the bytes read.
type Device interface {
	Exists(path string) bool
	Size(path string) (uint64, error)
	Read(path string, offset, maxBytes uint64, alloc mem.Allocator, nullTerminate bool) ([]byte, error)
}

// Writer is implemented by devices that support file writes.
type Writer interface {
	Device
	Write(path string, offset uint64, data []byte, mode WriteMode) (uint64, error)
}

// Remover is implemented by devices that support file deletion.
type Remover interface {
	Device
	Remove(path string) error
}

// DirMaker is implemented by devices that can create directories.
type DirMaker interface {
	Device
	Mkdir(path string) error
}

// DirRemover is implemented by devices that can delete a directory
// tree recursively.
type DirRemover interface {
	Device
	RemoveDir(path string) error
}

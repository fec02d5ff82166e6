package strata

import (
	"errors"
	"io/fs"
	"syscall"

	"tractor.dev/strata/device"
)

// Result is the terminal status of a work item or mount operation.
type Result int32

const (
	Ok Result = iota
	GenericError
	NotFound
	Unsupported
	AlreadyExists
	PermissionsError
	OutOfSpace
	InvalidDevice
	OutOfWorkItems
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case GenericError:
		return "generic error"
	case NotFound:
		return "not found"
	case Unsupported:
		return "unsupported"
	case AlreadyExists:
		return "already exists"
	case PermissionsError:
		return "permissions error"
	case OutOfSpace:
		return "out of space"
	case InvalidDevice:
		return "invalid device"
	case OutOfWorkItems:
		return "out of work items"
	}
	return "unknown"
}

var (
	// ErrOutOfWorkItems reports that the work item pool was exhausted
	// at submission.
	ErrOutOfWorkItems = errors.New("out of work items")

	// ErrInvalidDevice reports an unknown device type index.
	ErrInvalidDevice = errors.New("invalid device type")
)

// ResultOf maps an error to its Result. Devices speak Go errors;
// results are how the status surfaces across the API (and the FFI
// facades built on it).
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Ok
	case errors.Is(err, ErrOutOfWorkItems):
		return OutOfWorkItems
	case errors.Is(err, ErrInvalidDevice):
		return InvalidDevice
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return PermissionsError
	case errors.Is(err, errors.ErrUnsupported):
		return Unsupported
	case errors.Is(err, device.ErrOutOfSpace), errors.Is(err, syscall.ENOSPC):
		return OutOfSpace
	case errors.Is(err, syscall.EROFS):
		return Unsupported
	default:
		return GenericError
	}
}

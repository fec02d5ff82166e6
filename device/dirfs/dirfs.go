// Package dirfs implements the host directory device. It is the
// default backend, registered at device type index 0 on every engine.
package dirfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

// Interface returns the registry record for directory devices. The
// device path must name an existing directory.
func Interface() device.Interface {
	return device.Interface{
		Name: "dir",
		Create: func(devicePath string) (device.Device, error) {
			return New(devicePath)
		},
	}
}

// FS serves a host directory. All access goes through an os.Root so
// device-relative paths cannot escape the mounted directory.
type FS struct {
	root *os.Root
}

func New(dir string) (*FS, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, &fs.PathError{Op: "mount", Path: dir, Err: fs.ErrNotExist}
	}
	r, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &FS{root: r}, nil
}

// rel converts an engine path ("/a/b", "" for the mount root) to the
// os.Root form.
func rel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "."
	}
	return path
}

func (d *FS) Exists(path string) bool {
	fi, err := d.root.Stat(rel(path))
	return err == nil && fi.Mode().IsRegular()
}

func (d *FS) Size(path string) (uint64, error) {
	fi, err := d.root.Stat(rel(path))
	if err != nil {
		return 0, err
	}
	if !fi.Mode().IsRegular() {
		return 0, &fs.PathError{Op: "size", Path: path, Err: errors.ErrUnsupported}
	}
	return uint64(fi.Size()), nil
}

func (d *FS) Read(path string, offset, maxBytes uint64, alloc mem.Allocator, nullTerminate bool) ([]byte, error) {
	f, err := d.root.Open(rel(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var want uint64
	if size := uint64(fi.Size()); offset < size {
		want = size - offset
	}
	if maxBytes < want {
		want = maxBytes
	}

	extra := 0
	if nullTerminate {
		extra = 1
	}
	buf := alloc.Alloc(int(want) + extra)

	got, err := f.ReadAt(buf[:want], int64(offset))
	if err != nil && err != io.EOF {
		alloc.Free(buf)
		return nil, err
	}
	if nullTerminate {
		buf[got] = 0
	}
	return buf[:got+extra], nil
}

func (d *FS) Write(path string, offset uint64, data []byte, mode device.WriteMode) (uint64, error) {
	var f *os.File
	var err error
	switch mode {
	case device.Append:
		f, err = d.root.OpenFile(rel(path), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o666)
	case device.Segment:
		f, err = d.root.OpenFile(rel(path), os.O_RDWR|os.O_CREATE, 0o666)
	default:
		f, err = d.root.OpenFile(rel(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n int
	if mode == device.Segment {
		n, err = f.WriteAt(data, int64(offset))
	} else {
		n, err = f.Write(data)
	}
	return uint64(n), err
}

func (d *FS) Remove(path string) error {
	fi, err := d.root.Stat(rel(path))
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrInvalid}
	}
	return d.root.Remove(rel(path))
}

func (d *FS) Mkdir(path string) error {
	return d.root.Mkdir(rel(path), 0o777)
}

func (d *FS) RemoveDir(path string) error {
	fi, err := d.root.Stat(rel(path))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &fs.PathError{Op: "removedir", Path: path, Err: fs.ErrInvalid}
	}
	return d.root.RemoveAll(rel(path))
}

func (d *FS) Close() error {
	return d.root.Close()
}

// Package memfs implements an in-memory device with the full
// capability set. It backs tests and the remote server's default
// export, and is handy as a scratch overlay mount.
package memfs

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

func Interface() device.Interface {
	return device.Interface{
		Name: "mem",
		Create: func(devicePath string) (device.Device, error) {
			return New(), nil
		},
	}
}

type node struct {
	data []byte
	dir  bool
}

// FS maps device paths to nodes. The root directory always exists;
// other parent directories must be created explicitly, matching the
// host directory device.
type FS struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

func New() *FS {
	return &FS{nodes: map[string]*node{
		"/": {dir: true},
	}}
}

// NewFromMap seeds a filesystem with file contents, synthesizing
// parent directories.
func NewFromMap(files map[string][]byte) *FS {
	fsys := New()
	for p, data := range files {
		for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
			fsys.nodes[dir] = &node{dir: true}
		}
		fsys.nodes[p] = &node{data: append([]byte(nil), data...)}
	}
	return fsys
}

func clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (m *FS) get(p string) *node {
	return m.nodes[clean(p)]
}

func (m *FS) Exists(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.get(p)
	return n != nil && !n.dir
}

func (m *FS) Size(p string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.get(p)
	if n == nil {
		return 0, &fs.PathError{Op: "size", Path: p, Err: fs.ErrNotExist}
	}
	if n.dir {
		return 0, &fs.PathError{Op: "size", Path: p, Err: errors.ErrUnsupported}
	}
	return uint64(len(n.data)), nil
}

func (m *FS) Read(p string, offset, maxBytes uint64, alloc mem.Allocator, nullTerminate bool) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.get(p)
	if n == nil || n.dir {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}

	var want uint64
	if size := uint64(len(n.data)); offset < size {
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
	if want > 0 {
		copy(buf, n.data[offset:offset+want])
	}
	if nullTerminate {
		buf[want] = 0
	}
	return buf, nil
}

func (m *FS) Write(p string, offset uint64, data []byte, mode device.WriteMode) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if parent := m.nodes[path.Dir(p)]; parent == nil || !parent.dir {
		return 0, &fs.PathError{Op: "write", Path: p, Err: fs.ErrNotExist}
	}
	n := m.nodes[p]
	if n != nil && n.dir {
		return 0, &fs.PathError{Op: "write", Path: p, Err: fs.ErrInvalid}
	}
	if n == nil {
		n = &node{}
		m.nodes[p] = n
	}

	switch mode {
	case device.Append:
		n.data = append(n.data, data...)
	case device.Segment:
		if need := offset + uint64(len(data)); uint64(len(n.data)) < need {
			grown := make([]byte, need)
			copy(grown, n.data)
			n.data = grown
		}
		copy(n.data[offset:], data)
	default:
		n.data = append([]byte(nil), data...)
	}
	return uint64(len(data)), nil
}

func (m *FS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	n := m.nodes[p]
	if n == nil {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
	}
	if n.dir {
		return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrInvalid}
	}
	delete(m.nodes, p)
	return nil
}

func (m *FS) Mkdir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if m.nodes[p] != nil {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if parent := m.nodes[path.Dir(p)]; parent == nil || !parent.dir {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrNotExist}
	}
	m.nodes[p] = &node{dir: true}
	return nil
}

func (m *FS) RemoveDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	n := m.nodes[p]
	if n == nil {
		return &fs.PathError{Op: "removedir", Path: p, Err: fs.ErrNotExist}
	}
	if !n.dir {
		return &fs.PathError{Op: "removedir", Path: p, Err: fs.ErrInvalid}
	}
	if p == "/" {
		return &fs.PathError{Op: "removedir", Path: p, Err: fs.ErrInvalid}
	}

	prefix := p + "/"
	for name := range m.nodes {
		if strings.HasPrefix(name, prefix) {
			delete(m.nodes, name)
		}
	}
	delete(m.nodes, p)
	return nil
}

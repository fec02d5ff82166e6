// Package tarfs implements a read-only device over a tar archive.
// It carries only the required capability set, so mounts created from
// it derive read-only permissions.
package tarfs

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"strings"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

// Interface returns the registry record for tar devices. The device
// path names a .tar archive, gzipped when it ends in .tgz or .tar.gz.
func Interface() device.Interface {
	return device.Interface{
		Name: "tar",
		Create: func(devicePath string) (device.Device, error) {
			f, err := os.Open(devicePath)
			if err != nil {
				return nil, err
			}
			defer f.Close()

			var r io.Reader = f
			if strings.HasSuffix(devicePath, ".tgz") || strings.HasSuffix(devicePath, ".tar.gz") {
				zr, err := gzip.NewReader(f)
				if err != nil {
					return nil, err
				}
				defer zr.Close()
				r = zr
			}
			return Load(tar.NewReader(r))
		},
	}
}

type FS struct {
	files map[string][]byte
}

// Load reads the whole archive into memory. Non-regular entries are
// skipped.
func Load(tr *tar.Reader) (*FS, error) {
	fsys := &FS{files: make(map[string][]byte)}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		name := "/" + strings.TrimPrefix(hdr.Name, "/")
		fsys.files[name] = data
	}
	return fsys, nil
}

func clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (t *FS) Exists(p string) bool {
	_, ok := t.files[clean(p)]
	return ok
}

func (t *FS) Size(p string) (uint64, error) {
	data, ok := t.files[clean(p)]
	if !ok {
		return 0, &fs.PathError{Op: "size", Path: p, Err: fs.ErrNotExist}
	}
	return uint64(len(data)), nil
}

func (t *FS) Read(p string, offset, maxBytes uint64, alloc mem.Allocator, nullTerminate bool) ([]byte, error) {
	data, ok := t.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}

	var want uint64
	if size := uint64(len(data)); offset < size {
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
		copy(buf, data[offset:offset+want])
	}
	if nullTerminate {
		buf[want] = 0
	}
	return buf, nil
}

package strata

import (
	"io"
	"io/fs"

	"tractor.dev/strata/device"
)

// Permissions is the capability bitset of a mount.
type Permissions uint32

const (
	PermRead Permissions = 1 << iota
	PermWriteFile
	PermDeleteFile
	PermCreateDir
	PermDeleteDir
)

// Mount binds a virtual prefix to a device instance. Later mounts
// shadow earlier ones on overlapping prefixes.
type Mount struct {
	prefix string
	dev    device.Device
	perms  Permissions
	name   string
}

// Prefix returns the virtual path the device is mounted on.
func (m *Mount) Prefix() string { return m.prefix }

// Permissions returns the mount's effective capability bits.
func (m *Mount) Permissions() Permissions { return m.perms }

// match reports whether path falls under the mount prefix and returns
// the device-relative remainder. The byte after the prefix must be a
// slash or the end of the path, except for the root prefix "/" which
// matches everything and passes the path through whole.
func (m *Mount) match(path string) (string, bool) {
	if len(m.prefix) == 1 {
		return path, true
	}
	if len(path) < len(m.prefix) || path[:len(m.prefix)] != m.prefix {
		return "", false
	}
	if len(path) == len(m.prefix) {
		return "", true
	}
	if path[len(m.prefix)] != '/' {
		return "", false
	}
	return path[len(m.prefix):], true
}

// supportedPerms derives the capability bits a device instance can
// honor from the optional interfaces it implements.
func supportedPerms(d device.Device) Permissions {
	p := PermRead
	if _, ok := d.(device.Writer); ok {
		p |= PermWriteFile
	}
	if _, ok := d.(device.Remover); ok {
		p |= PermDeleteFile
	}
	if _, ok := d.(device.DirMaker); ok {
		p |= PermCreateDir
	}
	if _, ok := d.(device.DirRemover); ok {
		p |= PermDeleteDir
	}
	return p
}

// CreateMount mounts a device of the registered type on the virtual
// prefix, handing devicePath to the backend constructor. With no
// explicit permissions the mount receives every capability the device
// supports; explicit permissions must be a subset of those or the
// mount fails with a permissions error.
//
// The prefix is stored as given: a canonical absolute path with no
// trailing slash (the root "/" excepted).
func (e *Engine) CreateMount(deviceType int, mountPoint, devicePath string, perms ...Permissions) (*Mount, error) {
	e.mountMu.RLock()
	if deviceType < 0 || deviceType >= len(e.interfaces) {
		e.mountMu.RUnlock()
		return nil, ErrInvalidDevice
	}
	iface := e.interfaces[deviceType]
	e.mountMu.RUnlock()

	dev, err := iface.Create(devicePath)
	if err != nil {
		e.log.Warn("unable to mount device",
			"type", iface.Name, "path", devicePath, "prefix", mountPoint, "err", err)
		return nil, err
	}

	supported := supportedPerms(dev)
	effective := supported
	if len(perms) > 0 && perms[0] != 0 {
		if perms[0]&^supported != 0 {
			if c, ok := dev.(io.Closer); ok {
				c.Close()
			}
			return nil, &fs.PathError{Op: "mount", Path: mountPoint, Err: fs.ErrPermission}
		}
		effective = perms[0]
	}

	m := &Mount{
		prefix: mountPoint,
		dev:    dev,
		perms:  effective,
		name:   iface.Name,
	}

	e.mountMu.Lock()
	e.mounts = append(e.mounts, m)
	e.mountMu.Unlock()

	e.log.Info("mounted device",
		"type", iface.Name, "path", devicePath, "prefix", mountPoint)
	return m, nil
}

// ReleaseMount removes a mount and destroys its device, reporting
// whether the mount was found. It quiesces the worker while the table
// changes; callers are responsible for draining their own outstanding
// requests first.
func (e *Engine) ReleaseMount(m *Mount) bool {
	if m == nil {
		return false
	}

	e.stopWorker()

	found := false
	e.mountMu.Lock()
	for i, cand := range e.mounts {
		if cand == m {
			e.mounts = append(e.mounts[:i], e.mounts[i+1:]...)
			found = true
			break
		}
	}
	e.mountMu.Unlock()

	if found {
		if c, ok := m.dev.(io.Closer); ok {
			c.Close()
		}
		e.log.Info("released mount", "prefix", m.prefix, "type", m.name)
	}

	e.startWorker()
	return found
}

// findMutableMount returns the last mount whose prefix matches path
// and whose permissions include the bit the operation requires.
// A prefix match with insufficient permissions falls through to the
// next mount. Callers hold the mount lock shared.
func (e *Engine) findMutableMount(path string, o op) (*Mount, string) {
	need := o.permission()
	for i := len(e.mounts) - 1; i >= 0; i-- {
		m := e.mounts[i]
		devPath, ok := m.match(path)
		if !ok {
			continue
		}
		if m.perms&need == 0 {
			continue
		}
		return m, devPath
	}
	return nil, ""
}

func (o op) permission() Permissions {
	switch o {
	case opWrite, opAppend, opWriteSegment:
		return PermWriteFile
	case opRemove:
		return PermDeleteFile
	case opMkdir:
		return PermCreateDir
	case opRemoveDir:
		return PermDeleteDir
	}
	return 0
}

package remote

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

// Interface returns the registry record for remote devices. The
// device path is a ws:// or wss:// URL of a Server endpoint.
func Interface() device.Interface {
	return device.Interface{
		Name:   "ws",
		Create: Dial,
	}
}

// Dial connects to a Server and returns a device mirroring its
// capability set: a fully capable server yields a device with the
// whole optional surface, anything less yields a read-only device.
func Dial(url string) (device.Device, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	c := &client{conn: conn}
	var h hello
	if err := c.readFrame(&h); err != nil {
		conn.Close()
		return nil, fmt.Errorf("remote: handshake: %w", err)
	}

	if h.Caps == capAll {
		return &readWriteDevice{readDevice{c}}, nil
	}
	return &readDevice{c}, nil
}

// client is the frame transport. One call in flight at a time.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) readFrame(v any) error {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}
	return cbor.Unmarshal(data, v)
}

func (c *client) call(req request) (response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := cbor.Marshal(req)
	if err != nil {
		return response{}, err
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return response{}, err
	}
	var resp response
	if err := c.readFrame(&resp); err != nil {
		return response{}, err
	}
	return resp, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}

// readDevice carries only the required capability set.
type readDevice struct {
	c *client
}

func (d *readDevice) Exists(path string) bool {
	resp, err := d.c.call(request{Op: opExists, Path: path})
	return err == nil && resp.Exists
}

func (d *readDevice) Size(path string) (uint64, error) {
	resp, err := d.c.call(request{Op: opSize, Path: path})
	if err != nil {
		return 0, err
	}
	if err := errOf(resp, opSize, path); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (d *readDevice) Read(path string, offset, maxBytes uint64, alloc mem.Allocator, nullTerminate bool) ([]byte, error) {
	resp, err := d.c.call(request{
		Op:            opRead,
		Path:          path,
		Offset:        offset,
		Max:           maxBytes,
		NullTerminate: nullTerminate,
	})
	if err != nil {
		return nil, err
	}
	if err := errOf(resp, opRead, path); err != nil {
		return nil, err
	}
	buf := alloc.Alloc(len(resp.Data))
	copy(buf, resp.Data)
	return buf, nil
}

func (d *readDevice) Close() error {
	return d.c.Close()
}

// readWriteDevice mirrors a fully capable server.
type readWriteDevice struct {
	readDevice
}

func (d *readWriteDevice) Write(path string, offset uint64, data []byte, mode device.WriteMode) (uint64, error) {
	resp, err := d.c.call(request{
		Op:     opWrite,
		Path:   path,
		Offset: offset,
		Data:   data,
		Mode:   uint8(mode),
	})
	if err != nil {
		return 0, err
	}
	if err := errOf(resp, opWrite, path); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (d *readWriteDevice) Remove(path string) error {
	resp, err := d.c.call(request{Op: opRemove, Path: path})
	if err != nil {
		return err
	}
	return errOf(resp, opRemove, path)
}

func (d *readWriteDevice) Mkdir(path string) error {
	resp, err := d.c.call(request{Op: opMkdir, Path: path})
	if err != nil {
		return err
	}
	return errOf(resp, opMkdir, path)
}

func (d *readWriteDevice) RemoveDir(path string) error {
	resp, err := d.c.call(request{Op: opRemoveDir, Path: path})
	if err != nil {
		return err
	}
	return errOf(resp, opRemoveDir, path)
}

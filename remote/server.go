package remote

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

// Server exposes a device over websocket connections. It implements
// http.Handler; mount it wherever the mux wants it.
type Server struct {
	dev      device.Device
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(dev device.Device, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{dev: dev, log: log}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	if err := s.writeFrame(conn, hello{Name: "strata", Caps: capsOf(s.dev)}); err != nil {
		return
	}

	s.log.Debug("client connected", "remote", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("client disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}
		var req request
		if err := cbor.Unmarshal(data, &req); err != nil {
			s.log.Warn("bad frame", "remote", r.RemoteAddr, "err", err)
			return
		}
		if err := s.writeFrame(conn, s.handle(req)); err != nil {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *Server) handle(req request) response {
	switch req.Op {
	case opExists:
		return response{Exists: s.dev.Exists(req.Path)}

	case opSize:
		size, err := s.dev.Size(req.Path)
		if err != nil {
			return errorResponse(err)
		}
		return response{Size: size}

	case opRead:
		buf, err := s.dev.Read(req.Path, req.Offset, req.Max, mem.Default, req.NullTerminate)
		if err != nil {
			return errorResponse(err)
		}
		return response{Data: buf}

	case opWrite:
		w, ok := s.dev.(device.Writer)
		if !ok {
			return errorResponse(unsupported(req))
		}
		n, err := w.Write(req.Path, req.Offset, req.Data, device.WriteMode(req.Mode))
		if err != nil {
			return errorResponse(err)
		}
		return response{Size: n}

	case opRemove:
		d, ok := s.dev.(device.Remover)
		if !ok {
			return errorResponse(unsupported(req))
		}
		if err := d.Remove(req.Path); err != nil {
			return errorResponse(err)
		}
		return response{}

	case opMkdir:
		d, ok := s.dev.(device.DirMaker)
		if !ok {
			return errorResponse(unsupported(req))
		}
		if err := d.Mkdir(req.Path); err != nil {
			return errorResponse(err)
		}
		return response{}

	case opRemoveDir:
		d, ok := s.dev.(device.DirRemover)
		if !ok {
			return errorResponse(unsupported(req))
		}
		if err := d.RemoveDir(req.Path); err != nil {
			return errorResponse(err)
		}
		return response{}
	}
	return errorResponse(unsupported(req))
}

func unsupported(req request) error {
	return &fs.PathError{Op: req.Op, Path: req.Path, Err: errors.ErrUnsupported}
}

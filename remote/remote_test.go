package remote

import (
	"net/http/httptest"
	"strings"
	"testing"

	"tractor.dev/strata"
	"tractor.dev/strata/device"
	"tractor.dev/strata/device/memfs"
	"tractor.dev/strata/mem"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialMirrorsCapabilities(t *testing.T) {
	rw := httptest.NewServer(NewServer(memfs.New(), nil))
	defer rw.Close()

	d, err := Dial(wsURL(rw))
	if err != nil {
		t.Fatal(err)
	}
	defer d.(interface{ Close() error }).Close()
	if _, ok := d.(device.Writer); !ok {
		t.Fatal("full server yielded a read-only device")
	}

	// A device exposing only the required surface comes back read-only.
	ro := httptest.NewServer(NewServer(struct{ device.Device }{memfs.New()}, nil))
	defer ro.Close()

	d2, err := Dial(wsURL(ro))
	if err != nil {
		t.Fatal(err)
	}
	defer d2.(interface{ Close() error }).Close()
	if _, ok := d2.(device.Writer); ok {
		t.Fatal("read-only server yielded a writable device")
	}
}

func TestRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewServer(memfs.New(), nil))
	defer srv.Close()

	d, err := Dial(wsURL(srv))
	if err != nil {
		t.Fatal(err)
	}
	defer d.(interface{ Close() error }).Close()

	w := d.(device.Writer)
	if n, err := w.Write("/f.txt", 0, []byte("over the wire"), device.Truncate); err != nil || n != 13 {
		t.Fatalf("write = %d, %v", n, err)
	}

	if !d.Exists("/f.txt") {
		t.Fatal("written file does not exist")
	}
	if size, err := d.Size("/f.txt"); err != nil || size != 13 {
		t.Fatalf("size = %d, %v", size, err)
	}

	buf, err := d.Read("/f.txt", 5, 3, mem.Default, true)
	if err != nil || string(buf) != "the\x00" {
		t.Fatalf("read = %q, %v", buf, err)
	}

	mk := d.(device.DirMaker)
	if err := mk.Mkdir("/dir"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write("/dir/g.txt", 0, []byte("g"), device.Truncate); err != nil {
		t.Fatal(err)
	}
	if err := d.(device.DirRemover).RemoveDir("/dir"); err != nil {
		t.Fatal(err)
	}
	if err := d.(device.Remover).Remove("/f.txt"); err != nil {
		t.Fatal(err)
	}
	if d.Exists("/f.txt") {
		t.Fatal("file survived remove")
	}
}

func TestErrorsCrossTheWire(t *testing.T) {
	srv := httptest.NewServer(NewServer(memfs.New(), nil))
	defer srv.Close()

	d, err := Dial(wsURL(srv))
	if err != nil {
		t.Fatal(err)
	}
	defer d.(interface{ Close() error }).Close()

	// The sentinel survives so engine-side mapping works.
	if _, err := d.Size("/missing"); strata.ResultOf(err) != strata.NotFound {
		t.Fatalf("size err = %v, want a not-found result", err)
	}

	mk := d.(device.DirMaker)
	mk.Mkdir("/d")
	if err := mk.Mkdir("/d"); strata.ResultOf(err) != strata.AlreadyExists {
		t.Fatalf("mkdir err = %v, want already-exists result", err)
	}
}

func TestEngineOverRemoteMount(t *testing.T) {
	srv := httptest.NewServer(NewServer(memfs.New(), nil))
	defer srv.Close()

	e := strata.New()
	defer e.Close()

	wsType := e.RegisterDevice(Interface())
	if _, err := e.CreateMount(wsType, "/net", wsURL(srv)); err != nil {
		t.Fatal(err)
	}

	wi := e.Write("/net/f.txt", []byte("engine to server"))
	wi.Wait()
	if wi.Result() != strata.Ok {
		t.Fatalf("write result = %v (%v)", wi.Result(), wi.Err())
	}
	e.Release(wi)

	wi = e.Read("/net/f.txt", false, nil)
	wi.Wait()
	if wi.Result() != strata.Ok || string(wi.Buffer()) != "engine to server" {
		t.Fatalf("read = %v %q", wi.Result(), wi.Buffer())
	}
	wi.FreeBuffer()
	e.Release(wi)

	wi = e.Exists("/net/missing")
	wi.Wait()
	if wi.Result() != strata.NotFound {
		t.Fatalf("exists result = %v, want NotFound", wi.Result())
	}
	e.Release(wi)
}

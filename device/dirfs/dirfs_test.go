package dirfs

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

func newTestFS(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	d, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d, dir
}

func TestCreateRequiresDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}

	file := filepath.Join(t.TempDir(), "f")
	os.WriteFile(file, []byte("x"), 0o644)
	if _, err := New(file); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err for plain file = %v, want not exist", err)
	}
}

func TestExists(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "f.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	if !d.Exists("/f.txt") {
		t.Error("regular file not found")
	}
	if d.Exists("/sub") {
		t.Error("directory reported as file")
	}
	if d.Exists("/missing") {
		t.Error("missing file reported as existing")
	}
}

func TestReadOffsets(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "f"), []byte("0123456789"), 0o644)

	buf, err := d.Read("/f", 0, device.NoLimit, mem.Default, false)
	if err != nil || !bytes.Equal(buf, []byte("0123456789")) {
		t.Fatalf("full read = %q, %v", buf, err)
	}

	buf, err = d.Read("/f", 7, device.NoLimit, mem.Default, false)
	if err != nil || string(buf) != "789" {
		t.Fatalf("offset read = %q, %v", buf, err)
	}

	buf, err = d.Read("/f", 2, 4, mem.Default, true)
	if err != nil || string(buf) != "2345\x00" {
		t.Fatalf("segment read = %q, %v", buf, err)
	}

	if _, err = d.Read("/missing", 0, device.NoLimit, mem.Default, false); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing read err = %v, want not exist", err)
	}
}

func TestWriteModes(t *testing.T) {
	d, dir := newTestFS(t)

	if _, err := d.Write("/f", 0, []byte("first"), device.Truncate); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write("/f", 0, []byte("-more"), device.Append); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write("/f", 0, []byte("FIRST"), device.Segment); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, "f"))
	if string(got) != "FIRST-more" {
		t.Fatalf("file contents %q", got)
	}
}

func TestRemoveFilesOnly(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	if err := d.Remove("/f"); err != nil {
		t.Fatal(err)
	}
	if err := d.Remove("/f"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("double remove err = %v, want not exist", err)
	}
	if err := d.Remove("/sub"); err == nil {
		t.Fatal("Remove deleted a directory")
	}
}

func TestDirOps(t *testing.T) {
	d, dir := newTestFS(t)

	if err := d.Mkdir("/x"); err != nil {
		t.Fatal(err)
	}
	if err := d.Mkdir("/x"); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("mkdir existing err = %v, want exist", err)
	}
	if err := d.Mkdir("/x/y"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write("/x/y/f", 0, []byte("deep"), device.Truncate); err != nil {
		t.Fatal(err)
	}

	if err := d.RemoveDir("/x"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "x")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("directory tree survived RemoveDir")
	}
	if err := d.RemoveDir("/x"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("removedir missing err = %v, want not exist", err)
	}
}

func TestSize(t *testing.T) {
	d, dir := newTestFS(t)
	os.WriteFile(filepath.Join(dir, "f"), []byte("12345"), 0o644)

	size, err := d.Size("/f")
	if err != nil || size != 5 {
		t.Fatalf("size = %d, %v", size, err)
	}
	if _, err := d.Size("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("size missing err = %v, want not exist", err)
	}
}

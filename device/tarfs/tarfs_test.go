package tarfs

import (
	"archive/tar"
	"bytes"
	"testing"

	"tractor.dev/strata/device"
	"tractor.dev/strata/mem"
)

func archive(t *testing.T, files map[string]string) *tar.Reader {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}); err != nil {
			t.Fatal(err)
		}
		tw.Write([]byte(content))
	}
	tw.Close()
	return tar.NewReader(&buf)
}

func TestLoadAndRead(t *testing.T) {
	fsys, err := Load(archive(t, map[string]string{
		"hello.txt":      "hello, world",
		"sub/nested.txt": "nested",
	}))
	if err != nil {
		t.Fatal(err)
	}

	if !fsys.Exists("/hello.txt") || !fsys.Exists("/sub/nested.txt") {
		t.Fatal("archive entries missing")
	}
	if fsys.Exists("/nope") {
		t.Fatal("phantom entry")
	}

	size, err := fsys.Size("/hello.txt")
	if err != nil || size != 12 {
		t.Fatalf("size = %d, %v", size, err)
	}

	buf, err := fsys.Read("/sub/nested.txt", 0, device.NoLimit, mem.Default, true)
	if err != nil || string(buf) != "nested\x00" {
		t.Fatalf("read = %q, %v", buf, err)
	}

	buf, err = fsys.Read("/hello.txt", 7, 5, mem.Default, false)
	if err != nil || string(buf) != "world" {
		t.Fatalf("segment read = %q, %v", buf, err)
	}
}

func TestReadOnlyCapabilities(t *testing.T) {
	fsys, err := Load(archive(t, map[string]string{"f": "x"}))
	if err != nil {
		t.Fatal(err)
	}

	var d device.Device = fsys
	if _, ok := d.(device.Writer); ok {
		t.Error("tarfs should not be writable")
	}
	if _, ok := d.(device.Remover); ok {
		t.Error("tarfs should not support remove")
	}
	if _, ok := d.(device.DirMaker); ok {
		t.Error("tarfs should not support mkdir")
	}
	if _, ok := d.(device.DirRemover); ok {
		t.Error("tarfs should not support removedir")
	}
}

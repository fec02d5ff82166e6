package strata

import "testing"

func TestMountMatch(t *testing.T) {
	tests := []struct {
		prefix  string
		path    string
		devPath string
		ok      bool
	}{
		{"/", "/anything/goes", "/anything/goes", true},
		{"/", "/", "/", true},
		{"/assets", "/assets/img.png", "/img.png", true},
		{"/assets", "/assets", "", true},
		{"/assets", "/assetsfoo/img.png", "", false},
		{"/assets", "/asset", "", false},
		{"/a/b", "/a/b/c", "/c", true},
		{"/a/b", "/a/bc", "", false},
	}
	for _, tt := range tests {
		m := &Mount{prefix: tt.prefix}
		devPath, ok := m.match(tt.path)
		if ok != tt.ok || devPath != tt.devPath {
			t.Errorf("match(%q, %q) = %q, %v; want %q, %v",
				tt.prefix, tt.path, devPath, ok, tt.devPath, tt.ok)
		}
	}
}

func TestFindMutableMountOrder(t *testing.T) {
	e := &Engine{}
	a := &Mount{prefix: "/", perms: PermRead | PermWriteFile}
	b := &Mount{prefix: "/sub", perms: PermRead}
	c := &Mount{prefix: "/sub", perms: PermRead | PermDeleteFile}
	e.mounts = []*Mount{a, b, c}

	// Last matching mount with the delete bit wins.
	m, devPath := e.findMutableMount("/sub/f.txt", opRemove)
	if m != c || devPath != "/f.txt" {
		t.Fatalf("remove resolved to %+v (%q), want the delete-capable /sub mount", m, devPath)
	}

	// Neither /sub mount can write, so the write falls through to /.
	m, devPath = e.findMutableMount("/sub/f.txt", opWrite)
	if m != a || devPath != "/sub/f.txt" {
		t.Fatalf("write resolved to %+v (%q), want the root mount", m, devPath)
	}

	// Nothing grants mkdir.
	if m, _ := e.findMutableMount("/sub/d", opMkdir); m != nil {
		t.Fatalf("mkdir resolved to %+v, want none", m)
	}
}

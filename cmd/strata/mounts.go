package main

import (
	"fmt"
	"strings"

	"tractor.dev/strata"
	"tractor.dev/strata/device/memfs"
	"tractor.dev/strata/device/tarfs"
	"tractor.dev/strata/remote"
)

// buildEngine constructs an engine from a mount table spec:
// comma-separated "prefix=kind:path" entries, e.g.
//
//	/=dir:./data,/assets=tar:assets.tgz,/scratch=mem,/net=ws:ws://host/dev
func buildEngine(spec string) (*strata.Engine, error) {
	e := strata.New()
	types := map[string]int{
		"dir": strata.DirectoryDevice,
		"tar": e.RegisterDevice(tarfs.Interface()),
		"mem": e.RegisterDevice(memfs.Interface()),
		"ws":  e.RegisterDevice(remote.Interface()),
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, target, ok := strings.Cut(entry, "=")
		if !ok {
			e.Close()
			return nil, fmt.Errorf("bad mount entry %q, want prefix=kind:path", entry)
		}
		kind, path, _ := strings.Cut(target, ":")
		deviceType, ok := types[kind]
		if !ok {
			e.Close()
			return nil, fmt.Errorf("unknown device kind %q in %q", kind, entry)
		}
		if _, err := e.CreateMount(deviceType, prefix, path); err != nil {
			e.Close()
			return nil, fmt.Errorf("mount %q: %w", entry, err)
		}
	}
	return e, nil
}

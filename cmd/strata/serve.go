package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"tractor.dev/strata/device/dirfs"
	"tractor.dev/strata/device/memfs"
	"tractor.dev/strata/remote"
	"tractor.dev/toolkit-go/engine/cli"
)

func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func serveCmd() *cli.Command {
	var addr string
	var dir string
	cmd := &cli.Command{
		Usage: "serve",
		Short: "serve a device over websocket",
		Run: func(ctx *cli.Context, args []string) {
			srv := newServer(dir)
			mux := http.NewServeMux()
			mux.Handle("/dev", srv)
			log.Printf("serving device at ws://%s/dev ...", addr)
			fatal(http.ListenAndServe(addr, loggerMiddleware(mux)))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9204", "listen address")
	cmd.Flags().StringVar(&dir, "dir", "", "host directory to serve; empty serves an in-memory device")
	return cmd
}

func newServer(dir string) *remote.Server {
	if dir == "" {
		return remote.NewServer(memfs.New(), slog.Default())
	}
	d, err := dirfs.New(dir)
	fatal(err)
	return remote.NewServer(d, slog.Default())
}

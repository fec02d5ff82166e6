// Package strata is an embeddable virtual filesystem that unifies
// heterogeneous storage backends under one logical path namespace.
//
// Devices are mounted onto prefixes of a virtual tree and all file
// operations are served asynchronously by a single background worker.
// Each request returns a [WorkItem] the caller can poll, wait on, or
// receive through a completion callback.
//
// There are two ownership modes for work items. Handle-owned items
// (no callback) must be released by the caller with [Engine.Release]
// once completed. Engine-owned items (submitted with a callback) are
// released by the worker after the callback returns. The mode is
// fixed at submission.
//
// Callbacks run on the worker goroutine, one at a time. A callback
// must not synchronously wait on another work item of the same
// engine. Submitting new requests from a callback returns without
// waiting while the queue has room; with the queue full, the submission
// blocks the worker itself and the engine stops making progress.
package strata

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"tractor.dev/strata/device"
	"tractor.dev/strata/device/dirfs"
	"tractor.dev/strata/internal/pool"
	"tractor.dev/strata/internal/ring"
	"tractor.dev/strata/internal/sema"
	"tractor.dev/strata/mem"
)

// DirectoryDevice is the device type index of the built-in host
// directory device. It is always the first registered interface.
const DirectoryDevice = 0

const (
	defaultQueueSize = 128
	defaultPoolSize  = 1024
)

type config struct {
	queueSize int
	poolSize  int
	alloc     mem.Allocator
	log       *slog.Logger
}

type Option func(*config)

// WithQueueSize bounds how many submitted work items can be waiting
// for the worker. Submission blocks while the queue is full.
func WithQueueSize(n int) Option {
	return func(c *config) { c.queueSize = n }
}

// WithPoolSize fixes the work item pool capacity. Submissions beyond
// it fail with OutOfWorkItems until items are released.
func WithPoolSize(n int) Option {
	return func(c *config) { c.poolSize = n }
}

// WithAllocator sets the allocator used for read buffers when a
// request does not supply its own.
func WithAllocator(a mem.Allocator) Option {
	return func(c *config) { c.alloc = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// Engine owns the device registry, the mount table, and the worker
// that drains the request queue.
type Engine struct {
	mountMu    sync.RWMutex
	interfaces []device.Interface
	mounts     []*Mount

	pool  *pool.Pool[WorkItem]
	queue *ring.Buffer[*WorkItem]
	sem   *sema.Semaphore

	alloc mem.Allocator
	log   *slog.Logger

	running    atomic.Bool
	workerDone chan struct{}

	compMu   sync.Mutex
	compCond *sync.Cond
}

// New creates an engine and starts its worker. The host directory
// device is registered at index [DirectoryDevice].
func New(opts ...Option) *Engine {
	c := config{
		queueSize: defaultQueueSize,
		poolSize:  defaultPoolSize,
		alloc:     mem.Default,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&c)
	}

	e := &Engine{
		pool:  pool.New[WorkItem](c.poolSize),
		sem:   sema.New(),
		alloc: c.alloc,
		log:   c.log,
	}
	e.queue = ring.New[*WorkItem](c.queueSize, e.sem.Notify)
	e.compCond = sync.NewCond(&e.compMu)

	e.RegisterDevice(dirfs.Interface())

	e.startWorker()
	return e
}

// RegisterDevice installs a backend type and returns its device type
// index for use with CreateMount, or -1 if the interface has no
// constructor.
func (e *Engine) RegisterDevice(iface device.Interface) int {
	if iface.Create == nil {
		return -1
	}
	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	e.interfaces = append(e.interfaces, iface)
	return len(e.interfaces) - 1
}

// Close stops the worker and tears down all mounts. The engine must
// not be used afterwards; callers are responsible for waiting out any
// outstanding work items first.
func (e *Engine) Close() error {
	e.stopWorker()

	e.mountMu.Lock()
	mounts := e.mounts
	e.mounts = nil
	e.mountMu.Unlock()

	for _, m := range mounts {
		if c, ok := m.dev.(io.Closer); ok {
			c.Close()
		}
	}
	return nil
}

func (e *Engine) startWorker() {
	if e.running.Swap(true) {
		return
	}
	e.workerDone = make(chan struct{})
	go e.work()
}

func (e *Engine) stopWorker() {
	if !e.running.Swap(false) {
		return
	}
	e.sem.Notify()
	<-e.workerDone
}

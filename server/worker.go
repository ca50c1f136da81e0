package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/liveprog/bridge"
	"github.com/chazu/liveprog/vm"
)

// ErrWorkerStopped is returned by Do after Stop.
var ErrWorkerStopped = errors.New("worker stopped")

// Target is what a worker request operates on.
type Target struct {
	Engine *vm.Engine
	Access *bridge.Access
}

// request represents a unit of control-plane work.
type request struct {
	fn   func(*Target) (any, error)
	done chan result
}

type result struct {
	value any
	err   error
}

// Worker serializes control-plane requests through a single goroutine.
// Variable reads and writes are safe from any goroutine, but freezing,
// resuming and consistent snapshots change engine state and must not
// interleave: a Freeze request arriving inside a consistent section
// would otherwise be undone when that section resumes.
type Worker struct {
	target   *Target
	requests chan request
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker over engine and starts the processing
// goroutine.
func NewWorker(engine *vm.Engine) *Worker {
	w := &Worker{
		target:   &Target{Engine: engine, Access: bridge.New(engine)},
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (w *Worker) execute(fn func(*Target) (any, error)) (res result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from panic in worker request: %v", r)
			res = result{err: fmt.Errorf("%v", r)}
		}
	}()
	v, err := fn(w.target)
	return result{value: v, err: err}
}

// Do submits fn and blocks until it completes. A panic in fn is returned
// as an error.
func (w *Worker) Do(fn func(*Target) (any, error)) (any, error) {
	req := request{fn: fn, done: make(chan result, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Access returns the variable access for reads that need no
// serialization.
func (w *Worker) Access() *bridge.Access {
	return w.target.Access
}

// Engine returns the engine the worker controls.
func (w *Worker) Engine() *vm.Engine {
	return w.target.Engine
}

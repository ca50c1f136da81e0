package vm

import (
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"
)

var engineLog = commonlog.GetLogger("liveprog.vm")

// Kernel runs a compiled program over one audio buffer. It is called on the
// audio goroutine and must not block.
type Kernel func(p *Program, buf []float32)

// Engine hosts the currently loaded program and drives its execution once
// per audio buffer.
//
// Program replacement and freezing both wait for the in-flight buffer, so
// after Freeze, Hold or Load returns no kernel call observes the old state.
// Execution runs only while the engine is neither frozen nor held.
type Engine struct {
	program atomic.Pointer[Program]
	kernel  atomic.Pointer[Kernel]
	active  atomic.Bool
	cycles  atomic.Uint64

	stateMu sync.Mutex
	frozen  bool // set by Freeze, cleared by Resume
	holds   int  // outstanding Hold calls

	execMu sync.Mutex // held for the duration of one buffer
}

// NewEngine creates an engine with no program loaded and execution enabled.
func NewEngine() *Engine {
	e := &Engine{}
	e.active.Store(true)
	return e
}

// Load publishes p as the current program, replacing any previous one.
// Loading nil is the same as Unload.
func (e *Engine) Load(p *Program) {
	if p == nil {
		e.Unload()
		return
	}

	e.execMu.Lock()
	defer e.execMu.Unlock()

	old := e.program.Swap(p)
	if old != nil {
		engineLog.Debugf("program %q replaced by %q", old.ID, p.ID)
	} else {
		engineLog.Debugf("program %q loaded", p.ID)
	}
}

// Unload tears down the current program.
func (e *Engine) Unload() {
	e.execMu.Lock()
	defer e.execMu.Unlock()

	if old := e.program.Swap(nil); old != nil {
		engineLog.Debugf("program %q unloaded", old.ID)
	}
}

// Program returns the current program, or nil if none is loaded.
func (e *Engine) Program() *Program {
	return e.program.Load()
}

// SetKernel installs the per-buffer execution function.
func (e *Engine) SetKernel(k Kernel) {
	if k == nil {
		e.kernel.Store(nil)
		return
	}
	e.kernel.Store(&k)
}

// Freeze suspends execution between buffers. It returns once any buffer
// that was already running has finished.
func (e *Engine) Freeze() {
	e.update(func() { e.frozen = true })
	e.drain()
	engineLog.Debug("execution frozen")
}

// Resume re-enables execution. Outstanding holds keep it suspended until
// they are released.
func (e *Engine) Resume() {
	e.update(func() { e.frozen = false })
	engineLog.Debug("execution resumed")
}

// Hold suspends execution like Freeze, but nests: execution stays
// suspended until every Hold has a matching Release. Holds and Freeze are
// independent, so a Release never undoes a Freeze.
func (e *Engine) Hold() {
	e.update(func() { e.holds++ })
	e.drain()
}

// Release drops one Hold.
func (e *Engine) Release() {
	e.update(func() {
		if e.holds > 0 {
			e.holds--
		}
	})
}

// Frozen reports whether execution is suspended, by Freeze or by a Hold.
func (e *Engine) Frozen() bool {
	return !e.active.Load()
}

func (e *Engine) update(change func()) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	change()
	e.active.Store(!e.frozen && e.holds == 0)
}

// drain waits out the buffer in flight, if any.
func (e *Engine) drain() {
	e.execMu.Lock()
	e.execMu.Unlock()
}

// Process runs the kernel over buf. It reports false without running when
// execution is suspended or no program or kernel is installed. Process
// never waits: if a control call holds the engine, the buffer is skipped.
func (e *Engine) Process(buf []float32) bool {
	if !e.execMu.TryLock() {
		return false
	}
	defer e.execMu.Unlock()

	if !e.active.Load() {
		return false
	}
	p := e.program.Load()
	k := e.kernel.Load()
	if p == nil || k == nil {
		return false
	}

	(*k)(p, buf)
	e.cycles.Add(1)
	return true
}

// Cycles returns the number of buffers processed so far.
func (e *Engine) Cycles() uint64 {
	return e.cycles.Load()
}

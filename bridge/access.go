// Package bridge reads and writes the variables of a running liveprog
// program from outside the audio goroutine.
package bridge

import (
	"errors"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/liveprog/vm"
	"github.com/chazu/liveprog/wire"
)

var log = commonlog.GetLogger("liveprog.bridge")

// ProgramSource supplies the currently loaded program, or nil when none is.
// *vm.Engine implements it.
type ProgramSource interface {
	Program() *vm.Program
}

// Freezer is implemented by sources that can suspend execution between
// buffers. Holds nest: execution stays suspended until every Hold has been
// released.
type Freezer interface {
	Hold()
	Release()
}

// Variable is one occupied slot with its resolved value.
type Variable struct {
	Name  string
	Value vm.Resolved
	Ref   vm.SlotRef
}

// Access is the read/write surface over a program's variable table.
//
// Access keeps no state of its own: every call fetches the current program
// from the source once and works on that program until it returns.
type Access struct {
	src ProgramSource
}

// New creates an Access over src.
func New(src ProgramSource) *Access {
	return &Access{src: src}
}

// Available reports whether a program is loaded.
func (a *Access) Available() bool {
	return a.src.Program() != nil
}

func (a *Access) program(op, name string) (*vm.Program, error) {
	p := a.src.Program()
	if p == nil {
		return nil, &VariableError{Op: op, Name: name, Err: ErrNotAvailable}
	}
	return p, nil
}

// Enumerate returns every occupied slot in table order. Each value is read
// atomically; the result as a whole is only consistent if execution is
// frozen (see Consistent).
func (a *Access) Enumerate() ([]Variable, error) {
	_, vars, err := a.EnumerateProgram()
	return vars, err
}

// EnumerateProgram is Enumerate that also returns the ID of the program
// the variables were read from.
func (a *Access) EnumerateProgram() (string, []Variable, error) {
	p, err := a.program("enumerate", "")
	if err != nil {
		return "", nil, err
	}
	return p.ID, enumerate(p), nil
}

func enumerate(p *vm.Program) []Variable {
	res := p.Resolver()
	vars := make([]Variable, 0, p.Vars.Len())
	p.Vars.ForEach(func(s vm.Slot) bool {
		vars = append(vars, Variable{Name: s.Name, Value: res.Classify(s.Raw), Ref: s.Ref})
		return true
	})
	return vars
}

// Lookup returns the value of the first slot named name. Names match
// exactly and case-sensitively; if a name occurs more than once, the
// earliest slot in table order wins.
func (a *Access) Lookup(name string) (vm.Resolved, error) {
	p, err := a.program("lookup", name)
	if err != nil {
		return vm.Resolved{}, err
	}
	slot, ok := find(p, name)
	if !ok {
		return vm.Resolved{}, &VariableError{Op: "lookup", Name: name, Err: ErrNotFound}
	}
	return p.Resolver().Classify(slot.Raw), nil
}

func find(p *vm.Program, name string) (vm.Slot, bool) {
	var found vm.Slot
	ok := false
	p.Vars.ForEach(func(s vm.Slot) bool {
		if s.Name == name {
			found, ok = s, true
			return false
		}
		return true
	})
	return found, ok
}

// Mutate overwrites the numeric variable name with v. String variables are
// never overwritten. The new value is visible to the interpreter on its
// next read of the slot.
func (a *Access) Mutate(name string, v float32) error {
	p, err := a.program("mutate", name)
	if err != nil {
		return err
	}

	slot, ok := find(p, name)
	if !ok {
		log.Errorf("variable %q not found", name)
		return &VariableError{Op: "mutate", Name: name, Err: ErrNotFound}
	}

	cell, err := p.Vars.Cell(slot.Ref)
	if err != nil {
		// The slot was occupied a moment ago and slots are never freed.
		return &VariableError{Op: "mutate", Name: name, Err: err}
	}

	res := p.Resolver()
	for {
		cur := cell.Load()
		if res.Classify(cur).IsString() {
			log.Errorf("variable %q is a string; only numeric variables can be changed", name)
			return &VariableError{Op: "mutate", Name: name, Err: ErrTypeMismatch}
		}
		// The interpreter may have stored a sentinel since we classified.
		if cell.CompareAndSwap(cur, v) {
			log.Debugf("variable %q: %s -> %s", name, vm.FormatNumber(cur), vm.FormatNumber(v))
			return nil
		}
	}
}

// Consistent runs fn with execution frozen, so that reads and writes made
// by fn see a table the interpreter is not touching. Overlapping calls each
// keep execution frozen until their own fn returns. If the source cannot
// freeze, fn runs as is.
func (a *Access) Consistent(fn func() error) error {
	f, ok := a.src.(Freezer)
	if !ok {
		return fn()
	}
	f.Hold()
	defer f.Release()
	return fn()
}

// Snapshot copies every variable of the current program.
func (a *Access) Snapshot() (*wire.Snapshot, error) {
	p, err := a.program("snapshot", "")
	if err != nil {
		return nil, err
	}

	vars := enumerate(p)
	s := &wire.Snapshot{
		Program:   p.ID,
		Taken:     time.Now().UnixMilli(),
		Variables: make([]wire.Variable, 0, len(vars)),
	}
	for _, v := range vars {
		wv := wire.Variable{Name: v.Name, IsString: v.Value.IsString()}
		if wv.IsString {
			wv.Str = v.Value.Str
		} else {
			wv.Number = v.Value.Number
		}
		s.Variables = append(s.Variables, wv)
	}
	return s, nil
}

// Restore writes every numeric entry of s back by name. String entries are
// skipped because strings cannot be written. Failures for individual
// variables are joined; the remaining entries are still applied.
func (a *Access) Restore(s *wire.Snapshot) error {
	if !a.Available() {
		return &VariableError{Op: "restore", Err: ErrNotAvailable}
	}

	var errs []error
	for _, v := range s.Variables {
		if v.IsString {
			continue
		}
		if err := a.Mutate(v.Name, v.Number); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package liveprog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coregx/coregex"

	"github.com/chazu/liveprog/vm"
)

var assignPattern *coregex.Regexp

func init() {
	assignPattern = mustCompile(`\w+\s*=\s*(` + number + `|"[^"\n]*")\s*;`)
}

// Mutator writes a numeric variable of a running program.
// *bridge.Access implements it.
type Mutator interface {
	Mutate(name string, v float32) error
}

// Seed builds a program whose variable table declares every
// `name = number;` and `name = "literal";` statement of the script, in
// source order. String literals are interned into the program's pool.
// The first assignment to a name sets its initial value.
//
// Seed does not compile or evaluate the script.
func (s *Script) Seed() *vm.Program {
	p := vm.NewProgram(s.Name)
	seen := make(map[string]bool)

	for _, loc := range assignPattern.FindAllStringIndex(s.Source, -1) {
		if loc[0] > 0 && isWordByte(s.Source[loc[0]-1]) {
			continue
		}
		m := s.Source[loc[0]:loc[1]]
		eq := strings.IndexByte(m, '=')
		name := strings.TrimSpace(m[:eq])
		val := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[eq+1:]), ";"))

		if seen[name] {
			continue
		}
		seen[name] = true

		var err error
		if strings.HasPrefix(val, `"`) {
			_, err = p.DefineString(name, val[1:len(val)-1])
		} else {
			var v float32
			if v, err = parseFloat(val); err == nil {
				_, err = p.DefineNumber(name, v)
			}
		}
		if err != nil {
			log.Warningf("seed %q: %v", name, err)
		}
	}

	log.Debugf("seeded %d variables, %d strings", p.Vars.Len(), p.Strings.Len())
	return p
}

// Push writes every parameter's value into a running program through m.
// All parameters are attempted; failures are joined.
func (s *Script) Push(m Mutator) error {
	var errs []error
	for _, p := range s.Params {
		if err := m.Mutate(p.Key, p.Value); err != nil {
			errs = append(errs, fmt.Errorf("push %s: %w", p.Key, err))
		}
	}
	return errors.Join(errs...)
}

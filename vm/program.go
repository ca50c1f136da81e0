package vm

// Program is the output of compiling one script: its variable table and
// its string pool. Both are created together and replaced together when a
// new script is loaded.
type Program struct {
	ID      string
	Vars    *VarTable
	Strings *StringPool

	resolver *Resolver
}

// NewProgram creates an empty program.
func NewProgram(id string) *Program {
	pool := NewStringPool()
	return &Program{
		ID:       id,
		Vars:     NewVarTable(),
		Strings:  pool,
		resolver: NewResolver(pool),
	}
}

// Resolver returns the classifier bound to this program's string pool.
func (p *Program) Resolver() *Resolver {
	return p.resolver
}

// DefineNumber declares name and stores v in it.
func (p *Program) DefineNumber(name string, v float32) (SlotRef, error) {
	ref, err := p.Vars.Declare(name)
	if err != nil {
		return SlotRef{}, err
	}
	return ref, p.Vars.Set(ref, v)
}

// DefineString interns literal and stores its sentinel in name.
func (p *Program) DefineString(name, literal string) (SlotRef, error) {
	ref, err := p.Vars.Declare(name)
	if err != nil {
		return SlotRef{}, err
	}
	id := p.Strings.Intern(literal)
	return ref, p.Vars.Set(ref, SentinelValue(id))
}

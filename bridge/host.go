package bridge

// Entry is the host-facing form of a variable: value already rendered as
// text.
type Entry struct {
	Name     string
	Value    string
	IsString bool
}

// Host is the flat boundary handed to the DSP host. Failures never cross
// it as errors: enumeration of an unavailable program yields nothing and
// SetVariable reports false without saying why. Use Access directly when
// the reason matters.
type Host struct {
	access *Access
}

// NewHost wraps an Access.
func NewHost(a *Access) *Host {
	return &Host{access: a}
}

// EnumerateVariables returns a snapshot of all variables.
func (h *Host) EnumerateVariables() []Entry {
	vars, err := h.access.Enumerate()
	if err != nil {
		return []Entry{}
	}

	out := make([]Entry, len(vars))
	for i, v := range vars {
		out[i] = Entry{Name: v.Name, Value: v.Value.String(), IsString: v.Value.IsString()}
	}
	return out
}

// SetVariable writes a numeric variable. It returns false if the variable
// does not exist, holds a string, or no program is loaded.
func (h *Host) SetVariable(name string, value float32) bool {
	return h.access.Mutate(name, value) == nil
}

// IsAvailable reports whether a program is loaded.
func (h *Host) IsAvailable() bool {
	return h.access.Available()
}

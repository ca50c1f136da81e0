package vm

import "strconv"

// Kind is the derived type of a variable. It is computed on every read and
// never stored: the table only holds floats.
type Kind uint8

const (
	KindNumber Kind = iota
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Resolved is a slot value after classification. For KindNumber, Number
// is the raw float unchanged; for KindString, Str is the interned literal.
type Resolved struct {
	Kind   Kind
	Number float32
	Str    string
}

// Number wraps a plain numeric value.
func Number(v float32) Resolved {
	return Resolved{Kind: KindNumber, Number: v}
}

// Str wraps a string value.
func Str(s string) Resolved {
	return Resolved{Kind: KindString, Str: s}
}

// IsString reports whether the value resolved through the string pool.
func (r Resolved) IsString() bool {
	return r.Kind == KindString
}

// String renders the value for display: strings verbatim, numbers in the
// shortest decimal form that round-trips as float32 ("3.5", "7").
func (r Resolved) String() string {
	if r.Kind == KindString {
		return r.Str
	}
	return FormatNumber(r.Number)
}

// FormatNumber renders a float32 without exponent and without trailing zeros.
func FormatNumber(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// Resolver classifies raw slot values against a string pool.
type Resolver struct {
	pool *StringPool
}

// NewResolver creates a Resolver. A nil pool classifies everything as a
// number.
func NewResolver(pool *StringPool) *Resolver {
	return &Resolver{pool: pool}
}

// Classify decides whether raw denotes a number or an interned string.
func (r *Resolver) Classify(raw float32) Resolved {
	if r.pool != nil {
		if s, ok := r.pool.Resolve(raw); ok {
			return Str(s)
		}
	}
	return Number(raw)
}

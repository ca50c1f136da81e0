package liveprog

import (
	"fmt"
	"math"
	"strconv"
)

// Param is a tunable parameter declared in a script header.
//
// A range parameter is written key:default<min,max,step>Description, a
// list parameter key:default<0,max,step{a,b,c}>Description. The default
// and step are optional; the step defaults to 0.1 for ranges and is always
// 1 for lists.
type Param struct {
	Key         string
	Description string

	Value float32
	Min   float32
	Max   float32
	Step  float32

	// Options holds the labels of a list parameter, nil for ranges.
	Options []string

	def    float32
	hasDef bool
	line   int
}

// IsList reports whether the parameter selects from a list of options.
func (p *Param) IsList() bool {
	return p.Options != nil
}

// Line is the 1-based source line the parameter was declared on.
func (p *Param) Line() int {
	return p.line
}

// Default returns the declared default, if any.
func (p *Param) Default() (float32, bool) {
	return p.def, p.hasDef
}

// Set assigns v clamped to [Min, Max]. List parameters hold whole numbers
// only, so v is rounded first.
func (p *Param) Set(v float32) {
	if p.IsList() {
		v = float32(math.Round(float64(v)))
	}
	p.Value = p.clamp(v)
}

func (p *Param) clamp(v float32) float32 {
	return min(max(v, p.Min), p.Max)
}

// IsDefault reports whether the current value equals the default. A
// parameter without a default is never at its default.
func (p *Param) IsDefault() bool {
	if !p.hasDef {
		return false
	}
	if p.IsList() || p.def == p.Value {
		return p.def == p.Value
	}
	return equalsDelta(float64(p.def), float64(p.Value))
}

// RestoreDefault resets the value to the default. It reports whether the
// parameter has one.
func (p *Param) RestoreDefault() bool {
	if !p.hasDef {
		return false
	}
	p.Value = p.def
	return true
}

// ValueString renders the value the way it is written back into the
// script: as an integer when the step is integral or the parameter is a
// list, otherwise with two decimals.
func (p *Param) ValueString() string {
	if p.IsList() || p.integral() {
		return strconv.Itoa(int(p.Value))
	}
	return strconv.FormatFloat(float64(p.Value), 'f', 2, 32)
}

// Option returns the label selected by a list parameter.
func (p *Param) Option() (string, bool) {
	i := int(p.Value)
	if !p.IsList() || i < 0 || i >= len(p.Options) {
		return "", false
	}
	return p.Options[i], true
}

func (p *Param) integral() bool {
	s := float64(p.Step)
	return equalsDelta(s, math.Floor(s))
}

func (p *Param) String() string {
	s := fmt.Sprintf("key=%s; desc=%s; value=%v; default=%v; min=%v; max=%v; step=%v",
		p.Key, p.Description, p.Value, p.def, p.Min, p.Max, p.Step)
	if p.IsList() {
		s += fmt.Sprintf("; options=%v", p.Options)
	}
	return s
}

func equalsDelta(a, b float64) bool {
	return math.Abs(a-b) < 0.00001*max(math.Abs(a), math.Abs(b))
}

// Package liveprog reads the annotations of a liveprog script: its
// description, tags and tunable parameters. It can also write parameter
// values back into the source and seed a variable table from the script's
// top-level assignments.
package liveprog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coregx/coregex"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("liveprog.script")

// ErrNoAssignment means the script has no `key = number;` statement for a
// parameter, so its value cannot be read or written.
var ErrNoAssignment = errors.New("no numeric assignment in script")

// ErrUnknownParam means the script declares no parameter with a key.
var ErrUnknownParam = errors.New("unknown parameter")

var (
	descPattern  *coregex.Regexp
	tagsPattern  *coregex.Regexp
	rangePattern *coregex.Regexp
	listPattern  *coregex.Regexp
	notePattern  *coregex.Regexp
)

const number = `-?\d+\.?\d*`

func init() {
	descPattern = mustCompile(`^desc:.+`)
	tagsPattern = mustCompile(`^[^\w]*tags:.+`)
	rangePattern = mustCompile(`\w+:(` + number + `)?<` + number + `,` + number + `,?(` + number + `)?>.+`)
	listPattern = mustCompile(`\w+:(` + number + `)?<` + number + `,` + number + `,?(` + number + `)?\{[^\}]*\}>.+`)
	notePattern = mustCompile(`^\s*@\w*`)
}

func mustCompile(pattern string) *coregex.Regexp {
	re, err := coregex.Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("liveprog: compile %q: %v", pattern, err))
	}
	return re
}

// Diagnostic describes a parameter declaration that was recognized but
// could not be used.
type Diagnostic struct {
	Line    int // 1-based
	Key     string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Key, d.Message)
}

// Script is a parsed liveprog script.
type Script struct {
	// Name is the file name without extension; empty for scripts parsed
	// from memory.
	Name   string
	Source string

	Description    string
	HasDescription bool
	Tags           []string

	Params      []*Param
	Diagnostics []Diagnostic
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("liveprog: read %s: %w", path, err)
	}
	log.Debugf("loaded %s", path)

	base := filepath.Base(path)
	s := Parse(string(data))
	s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	if !s.HasDescription {
		s.Description = base
	}
	return s, nil
}

// Parse reads the annotations of source. Parse never fails: declarations
// that cannot be used are recorded in Diagnostics and skipped.
func Parse(source string) *Script {
	s := &Script{Source: source, Tags: []string{}, Params: []*Param{}}
	lines := strings.Split(source, "\n")

	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		if !s.HasDescription && descPattern.MatchString(line) {
			if d := strings.TrimSpace(strings.TrimPrefix(line, "desc:")); d != "" {
				s.Description, s.HasDescription = d, true
			}
			continue
		}
		if len(s.Tags) == 0 {
			if loc := tagsPattern.FindStringIndex(line); loc != nil {
				rest := line[strings.Index(line, "tags:")+len("tags:"):]
				s.Tags = strings.Fields(rest)
				continue
			}
		}

		p, err := parseDeclaration(line, source)
		if p == nil && err == nil {
			continue
		}
		if err != nil {
			key := declarationKey(line)
			log.Warningf("parameter %q on line %d: %v", key, i+1, err)
			s.Diagnostics = append(s.Diagnostics, Diagnostic{Line: i + 1, Key: key, Message: err.Error()})
			continue
		}
		p.line = i + 1
		log.Debugf("found parameter: %s", p)
		s.Params = append(s.Params, p)
	}

	log.Debugf("description %q, tags %v, %d parameters", s.Description, s.Tags, len(s.Params))
	return s
}

// Param returns the parameter with the given key, or nil.
func (s *Script) Param(key string) *Param {
	for _, p := range s.Params {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// Apply writes the value of p into the script's assignment for p.Key and
// returns the updated source. The script's own parameter with that key is
// replaced by p.
func (s *Script) Apply(p *Param) (string, error) {
	a, ok := findAssignment(p.Key, s.Source)
	if !ok {
		log.Errorf("cannot write %q: no assignment in script", p.Key)
		return s.Source, fmt.Errorf("liveprog: %s: %w", p.Key, ErrNoAssignment)
	}

	s.Source = s.Source[:a.start] + p.ValueString() + s.Source[a.end:]
	log.Debugf("set %q to %s", p.Key, p.ValueString())

	replaced := false
	for i, q := range s.Params {
		if q.Key == p.Key {
			s.Params[i], replaced = p, true
			break
		}
	}
	if !replaced {
		log.Warningf("parameter %q was not declared; adding it", p.Key)
		s.Params = append(s.Params, p)
	}
	return s.Source, nil
}

// HasDefaults reports whether any parameter declares a default.
func (s *Script) HasDefaults() bool {
	for _, p := range s.Params {
		if _, ok := p.Default(); ok {
			return true
		}
	}
	return false
}

// CanRestoreDefaults reports whether some parameter is away from its
// default.
func (s *Script) CanRestoreDefaults() bool {
	for _, p := range s.Params {
		if _, ok := p.Default(); ok && !p.IsDefault() {
			return true
		}
	}
	return false
}

// RestoreDefaults resets every parameter to its default and writes the
// values into the source.
func (s *Script) RestoreDefaults() error {
	var errs []error
	for _, p := range s.Params {
		p.RestoreDefault()
		if _, err := s.Apply(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AnnotationLine returns the 1-based line of the first `@name` annotation,
// or -1.
func (s *Script) AnnotationLine(name string) int {
	for i, line := range strings.Split(s.Source, "\n") {
		loc := notePattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if strings.TrimSpace(line[loc[0]:loc[1]]) == name {
			return i + 1
		}
	}
	return -1
}

// parseDeclaration returns (nil, nil) when line declares no parameter.
// Range declarations are tried before lists.
func parseDeclaration(line, source string) (*Param, error) {
	if loc := rangePattern.FindStringIndex(line); loc != nil {
		return parseRange(line[loc[0]:loc[1]], source)
	}
	if loc := listPattern.FindStringIndex(line); loc != nil {
		return parseList(line[loc[0]:loc[1]], source)
	}
	return nil, nil
}

// declaration splits a matched declaration into its parts. inner is the
// text between < and >.
type declaration struct {
	key, def, inner, desc string
}

func splitDeclaration(m string) declaration {
	colon := strings.IndexByte(m, ':')
	lt := strings.IndexByte(m, '<')
	gt := lt + strings.IndexByte(m[lt:], '>')
	if br := strings.IndexByte(m[lt:gt], '{'); br >= 0 {
		// Option labels may contain '>'; the list closes with "}>".
		gt = lt + strings.Index(m[lt:], "}>") + 1
	}
	return declaration{
		key:   m[:colon],
		def:   m[colon+1 : lt],
		inner: m[lt+1 : gt],
		desc:  strings.TrimSpace(m[gt+1:]),
	}
}

func declarationKey(line string) string {
	if loc := rangePattern.FindStringIndex(line); loc != nil {
		return splitDeclaration(line[loc[0]:loc[1]]).key
	}
	if loc := listPattern.FindStringIndex(line); loc != nil {
		return splitDeclaration(line[loc[0]:loc[1]]).key
	}
	return ""
}

func parseRange(m, source string) (*Param, error) {
	d := splitDeclaration(m)
	lo, hi, step, err := parseBounds(d.inner, 0.1)
	if err != nil {
		return nil, err
	}

	a, ok := findAssignment(d.key, source)
	if !ok {
		return nil, errors.New("no current value assigned in script")
	}
	cur, err := parseFloat(a.text)
	if err != nil {
		return nil, fmt.Errorf("current value %q: %w", a.text, err)
	}

	return newParam(d, cur, lo, hi, step, nil)
}

func parseList(m, source string) (*Param, error) {
	d := splitDeclaration(m)
	brace := strings.IndexByte(d.inner, '{')
	opts := strings.Split(d.inner[brace+1:len(d.inner)-1], ",")
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}

	lo, hi, _, err := parseBounds(d.inner[:brace], 1)
	if err != nil {
		return nil, err
	}
	if lo != 0 {
		return nil, errors.New("minimum must be zero for list parameters")
	}
	if hi != float32(int(hi)) {
		return nil, fmt.Errorf("maximum %v of a list parameter is not a whole number", hi)
	}

	a, ok := findAssignment(d.key, source)
	if !ok {
		return nil, errors.New("no current value assigned in script")
	}
	cur, err := strconv.Atoi(a.text)
	if err != nil {
		return nil, fmt.Errorf("current value %q is not a whole number", a.text)
	}
	if d.def != "" {
		if _, err := strconv.Atoi(d.def); err != nil {
			return nil, fmt.Errorf("default %q is not a whole number", d.def)
		}
	}

	return newParam(d, float32(cur), lo, hi, 1, opts)
}

func newParam(d declaration, cur, lo, hi, step float32, opts []string) (*Param, error) {
	if lo >= hi {
		return nil, fmt.Errorf("minimum %v must be smaller than maximum %v", lo, hi)
	}
	p := &Param{
		Key:         d.key,
		Description: d.desc,
		Min:         lo,
		Max:         hi,
		Step:        step,
		Options:     opts,
	}
	if d.def != "" {
		def, err := parseFloat(d.def)
		if err != nil {
			return nil, fmt.Errorf("default %q: %w", d.def, err)
		}
		p.def, p.hasDef = def, true
	}
	p.Value = p.clamp(cur)
	return p, nil
}

// parseBounds reads "min,max" or "min,max,step". An empty step falls back
// to defStep.
func parseBounds(s string, defStep float32) (lo, hi, step float32, err error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("malformed bounds %q", s)
	}
	if lo, err = parseFloat(parts[0]); err != nil {
		return
	}
	if hi, err = parseFloat(parts[1]); err != nil {
		return
	}
	step = defStep
	if len(parts) == 3 && parts[2] != "" {
		if step, err = parseFloat(parts[2]); err != nil {
			return
		}
	}
	return lo, hi, step, nil
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

// assignment locates the number in the first `key = number;` statement.
type assignment struct {
	start, end int // byte span of the number in the source
	text       string
}

func findAssignment(key, source string) (assignment, bool) {
	re, err := coregex.Compile(key + `\s*=\s*` + number + `\s*;`)
	if err != nil {
		return assignment{}, false
	}
	for _, loc := range re.FindAllStringIndex(source, -1) {
		if loc[0] > 0 && isWordByte(source[loc[0]-1]) {
			continue
		}
		m := source[loc[0]:loc[1]]
		eq := strings.IndexByte(m, '=')
		start := eq + 1
		for start < len(m) && isSpace(m[start]) {
			start++
		}
		end := start
		for end < len(m) && !isSpace(m[end]) && m[end] != ';' {
			end++
		}
		return assignment{start: loc[0] + start, end: loc[0] + end, text: m[start:end]}, true
	}
	return assignment{}, false
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

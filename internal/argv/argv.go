// Package argv parses raw command-line tokens the way the agent
// commands expect them: --flag value, --flag=value, bare boolean
// flags, and pass-through of anything a command did not declare.
package argv

import (
	"sort"
	"strconv"
	"strings"
)

type valueKind int

const (
	valueString valueKind = iota
	valueBool
	valueList
)

// Value is one parsed flag value: a string, the literal boolean true
// (bare flag), or an accumulated list for declared multi flags.
type Value struct {
	kind valueKind
	str  string
	list []string
}

func String(s string) Value {
	return Value{kind: valueString, str: s}
}

func True() Value {
	return Value{kind: valueBool}
}

func List(items ...string) Value {
	return Value{kind: valueList, list: items}
}

func (v Value) IsTrue() bool {
	return v.kind == valueBool
}

func (v Value) Str() (string, bool) {
	if v.kind != valueString {
		return "", false
	}
	return v.str, true
}

func (v Value) Strings() ([]string, bool) {
	if v.kind != valueList {
		return nil, false
	}
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out, true
}

func (v Value) String() string {
	switch v.kind {
	case valueBool:
		return "true"
	case valueList:
		return strings.Join(v.list, ",")
	default:
		return v.str
	}
}

type Flag struct {
	Name  string
	Value Value
}

// Args holds the parse result: flag values keyed by canonical name plus
// positionals in argv order. One Args belongs to one command invocation;
// Strip is the only mutation after Parse.
type Args struct {
	values      map[string]Value
	positionals []string
}

// Parse walks the token list once. Declared flags follow their spec:
// bool flags never consume the next token, value flags consume exactly
// one, multi flags accumulate. Undeclared flags infer arity from
// position (next token non-flag = value, otherwise boolean true), and a
// value flag dangling at end of input degrades to boolean true. Unknown
// flags are kept, never rejected.
func Parse(tokens []string, spec Spec) *Args {
	args := &Args{values: make(map[string]Value)}
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !isFlagToken(token) {
			args.positionals = append(args.positionals, token)
			continue
		}
		body := token[2:]
		if eq := strings.IndexByte(body, '='); eq >= 0 {
			name := spec.canonical(body[:eq])
			args.store(spec, name, body[eq+1:])
			continue
		}
		name := spec.canonical(body)
		fs, declared := spec.lookup(body)
		consumes := !declared || fs.Kind != KindBool
		if consumes && i+1 < len(tokens) && !isFlagToken(tokens[i+1]) {
			i++
			args.store(spec, name, tokens[i])
			continue
		}
		args.values[name] = True()
	}
	return args
}

func (a *Args) store(spec Spec, name string, raw string) {
	if fs, ok := spec.lookup(name); ok && fs.Kind == KindMulti {
		if existing, ok := a.values[name].Strings(); ok {
			a.values[name] = List(append(existing, raw)...)
			return
		}
		a.values[name] = List(raw)
		return
	}
	a.values[name] = String(raw)
}

func isFlagToken(token string) bool {
	return len(token) > 2 && strings.HasPrefix(token, "--")
}

func (a *Args) Positionals() []string {
	out := make([]string, len(a.positionals))
	copy(out, a.positionals)
	return out
}

func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// ReadString returns the flag's value when it is a non-empty string,
// otherwise the default. Boolean and list values fall back too; callers
// that want those use ReadBool/ReadStrings.
func (a *Args) ReadString(name string, def string) string {
	value, ok := a.values[name]
	if !ok {
		return def
	}
	s, ok := value.Str()
	if !ok || s == "" {
		return def
	}
	return s
}

// ReadNumber parses the flag's string value as an integer, falling back
// to the default on absence or malformed input. Malformed input is not
// an error: only missing required fields are fatal, and commands check
// those separately.
func (a *Args) ReadNumber(name string, def int) int {
	value, ok := a.values[name]
	if !ok {
		return def
	}
	s, ok := value.Str()
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// ReadBool is true only for a bare flag or an explicit =true; anything
// else, including a consumed "false" token, yields the default.
func (a *Args) ReadBool(name string, def bool) bool {
	value, ok := a.values[name]
	if !ok {
		return def
	}
	if value.IsTrue() {
		return true
	}
	if s, ok := value.Str(); ok && s == "true" {
		return true
	}
	return def
}

func (a *Args) ReadStrings(name string) []string {
	value, ok := a.values[name]
	if !ok {
		return nil
	}
	if items, ok := value.Strings(); ok {
		return items
	}
	if s, ok := value.Str(); ok && s != "" {
		return []string{s}
	}
	return nil
}

// Strip deletes the named keys so later reads see them as absent and
// Remaining no longer forwards them. Aliases collapse to canonical
// names at parse time, so stripping the canonical name covers both
// spellings.
func (a *Args) Strip(names ...string) {
	for _, name := range names {
		delete(a.values, name)
	}
}

// Remaining lists the flags still present after stripping, sorted by
// name so forwarded argv is deterministic.
func (a *Args) Remaining() []Flag {
	out := make([]Flag, 0, len(a.values))
	for name, value := range a.values {
		out = append(out, Flag{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

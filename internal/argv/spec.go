package argv

import "strings"

type Kind int

const (
	KindString Kind = iota
	KindBool
	KindMulti
)

type FlagSpec struct {
	Name        string
	Alias       string
	Kind        Kind
	Placeholder string
	Help        string
}

type Spec struct {
	ordered []FlagSpec
	byName  map[string]FlagSpec
}

func NewSpec(flags ...FlagSpec) Spec {
	spec := Spec{byName: make(map[string]FlagSpec, len(flags)*2)}
	for _, fs := range flags {
		fs.Name = strings.TrimSpace(fs.Name)
		if fs.Name == "" {
			continue
		}
		spec.ordered = append(spec.ordered, fs)
		spec.byName[fs.Name] = fs
		if alias := strings.TrimSpace(fs.Alias); alias != "" {
			spec.byName[alias] = fs
		}
	}
	return spec
}

func (s Spec) Merge(other Spec) Spec {
	merged := Spec{byName: make(map[string]FlagSpec, len(s.byName)+len(other.byName))}
	merged.ordered = append(merged.ordered, s.ordered...)
	merged.ordered = append(merged.ordered, other.ordered...)
	for name, fs := range s.byName {
		merged.byName[name] = fs
	}
	for name, fs := range other.byName {
		merged.byName[name] = fs
	}
	return merged
}

func (s Spec) Flags() []FlagSpec {
	out := make([]FlagSpec, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s Spec) lookup(name string) (FlagSpec, bool) {
	if s.byName == nil {
		return FlagSpec{}, false
	}
	fs, ok := s.byName[name]
	return fs, ok
}

// canonical maps an alias spelling to its declared name; unknown flags
// keep the spelling the user typed.
func (s Spec) canonical(name string) string {
	if fs, ok := s.lookup(name); ok {
		return fs.Name
	}
	return name
}

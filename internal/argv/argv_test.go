package argv

import (
	"reflect"
	"testing"
)

func testSpec() Spec {
	return NewSpec(
		FlagSpec{Name: "output", Kind: KindString},
		FlagSpec{Name: "max-pages", Alias: "maxPages", Kind: KindString},
		FlagSpec{Name: "include-warnings", Kind: KindBool},
		FlagSpec{Name: "exclude", Kind: KindMulti},
	)
}

func TestParseFlagForms(t *testing.T) {
	args := Parse([]string{"https://example.com", "--output", "report.md", "--max-pages=25", "--include-warnings", "extra"}, testSpec())

	if got := args.ReadString("output", ""); got != "report.md" {
		t.Fatalf("output = %q", got)
	}
	if got := args.ReadNumber("max-pages", 0); got != 25 {
		t.Fatalf("max-pages = %d", got)
	}
	if !args.ReadBool("include-warnings", false) {
		t.Fatalf("include-warnings should be true")
	}
	want := []string{"https://example.com", "extra"}
	if got := args.Positionals(); !reflect.DeepEqual(got, want) {
		t.Fatalf("positionals = %v, want %v", got, want)
	}
}

func TestParseIsPureAndIdempotent(t *testing.T) {
	tokens := []string{"--output", "a.md", "pos", "--flag"}
	snapshot := make([]string, len(tokens))
	copy(snapshot, tokens)

	first := Parse(tokens, testSpec())
	second := Parse(tokens, testSpec())

	if !reflect.DeepEqual(tokens, snapshot) {
		t.Fatalf("input tokens mutated: %v", tokens)
	}
	if !reflect.DeepEqual(first.values, second.values) {
		t.Fatalf("values differ between parses: %v vs %v", first.values, second.values)
	}
	if !reflect.DeepEqual(first.positionals, second.positionals) {
		t.Fatalf("positionals differ between parses")
	}
}

func TestDeclaredBoolNeverConsumes(t *testing.T) {
	args := Parse([]string{"--include-warnings", "report.md"}, testSpec())
	if !args.ReadBool("include-warnings", false) {
		t.Fatalf("include-warnings should be true")
	}
	if got := args.Positionals(); len(got) != 1 || got[0] != "report.md" {
		t.Fatalf("positionals = %v, want [report.md]", got)
	}
}

func TestFlagFollowedByFlagIsTrue(t *testing.T) {
	args := Parse([]string{"--output", "--include-warnings"}, testSpec())
	if !args.ReadBool("output", false) {
		t.Fatalf("dangling --output before another flag should read as true")
	}
	if !args.ReadBool("include-warnings", false) {
		t.Fatalf("include-warnings should be true")
	}
}

func TestDanglingValueFlagAtEnd(t *testing.T) {
	args := Parse([]string{"--output"}, testSpec())
	if !args.ReadBool("output", false) {
		t.Fatalf("dangling --output at end should read as true")
	}
	if got := args.ReadString("output", "fallback"); got != "fallback" {
		t.Fatalf("ReadString on boolean value = %q, want fallback", got)
	}
}

func TestUnknownFlagsPassThrough(t *testing.T) {
	args := Parse([]string{"--verbose", "--session-id", "abc123"}, testSpec())
	if !args.ReadBool("verbose", false) {
		t.Fatalf("unknown bare flag should infer boolean true")
	}
	if got := args.ReadString("session-id", ""); got != "abc123" {
		t.Fatalf("session-id = %q", got)
	}
}

func TestRepeatedFlagLastWriteWins(t *testing.T) {
	args := Parse([]string{"--output", "a.md", "--output", "b.md"}, testSpec())
	if got := args.ReadString("output", ""); got != "b.md" {
		t.Fatalf("output = %q, want b.md", got)
	}
}

func TestDeclaredMultiAccumulates(t *testing.T) {
	args := Parse([]string{"--exclude", "vendor", "--exclude=node_modules"}, testSpec())
	want := []string{"vendor", "node_modules"}
	if got := args.ReadStrings("exclude"); !reflect.DeepEqual(got, want) {
		t.Fatalf("exclude = %v, want %v", got, want)
	}
}

func TestAliasNormalizesToCanonicalName(t *testing.T) {
	args := Parse([]string{"--maxPages", "10"}, testSpec())
	if got := args.ReadNumber("max-pages", 0); got != 10 {
		t.Fatalf("max-pages via alias = %d", got)
	}
	if args.Has("maxPages") {
		t.Fatalf("alias spelling should not be stored")
	}
}

func TestReadBoolRules(t *testing.T) {
	spec := NewSpec()
	cases := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"bare", []string{"--x"}, true},
		{"explicit true", []string{"--x=true"}, true},
		{"consumed false token", []string{"--x", "false"}, false},
		{"explicit false", []string{"--x=false"}, false},
		{"absent", nil, false},
	}
	for _, tc := range cases {
		args := Parse(tc.tokens, spec)
		if got := args.ReadBool("x", false); got != tc.want {
			t.Fatalf("%s: ReadBool = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestReadNumberFallsBackOnGarbage(t *testing.T) {
	if got := Parse([]string{"--count", "abc"}, NewSpec()).ReadNumber("count", 10); got != 10 {
		t.Fatalf("unparseable count = %d, want 10", got)
	}
	if got := Parse([]string{"--count", "5"}, NewSpec()).ReadNumber("count", 10); got != 5 {
		t.Fatalf("count = %d, want 5", got)
	}
}

func TestReadStringEmptyFallsBack(t *testing.T) {
	args := Parse([]string{"--output="}, testSpec())
	if got := args.ReadString("output", "default.md"); got != "default.md" {
		t.Fatalf("empty output = %q, want default.md", got)
	}
}

func TestStripRemovesOnlyListedKeys(t *testing.T) {
	args := Parse([]string{"--output", "a.md", "--maxPages", "3", "--model", "opus"}, testSpec())
	args.Strip("output", "max-pages")

	if args.Has("output") || args.Has("max-pages") {
		t.Fatalf("stripped keys still present")
	}
	if got := args.ReadString("output", "absent"); got != "absent" {
		t.Fatalf("read after strip = %q", got)
	}
	if got := args.ReadString("model", ""); got != "opus" {
		t.Fatalf("unrelated key lost: model = %q", got)
	}
}

func TestRemainingSortedByName(t *testing.T) {
	args := Parse([]string{"--zeta", "1", "--alpha", "--mid", "x"}, NewSpec())
	remaining := args.Remaining()
	if len(remaining) != 3 {
		t.Fatalf("remaining len = %d", len(remaining))
	}
	names := []string{remaining[0].Name, remaining[1].Name, remaining[2].Name}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Fatalf("remaining order = %v", names)
	}
	if !remaining[0].Value.IsTrue() {
		t.Fatalf("alpha should be boolean true")
	}
}

func TestSingleDashTokenIsPositional(t *testing.T) {
	args := Parse([]string{"-h", "--output", "a.md"}, testSpec())
	if got := args.Positionals(); len(got) != 1 || got[0] != "-h" {
		t.Fatalf("positionals = %v, want [-h]", got)
	}
}

package payload

import (
	"errors"
	"strings"
	"testing"

	"github.com/fuucckk/Fenjing/pkg/grammar"
	"github.com/fuucckk/Fenjing/pkg/options"
)

func TestGenerateStringExpressionPattern(t *testing.T) {
	t.Parallel()

	g := NewFullGenerator(options.Default(), nil, nil)
	p, err := g.GenerateString("hello")
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "{{'hello'}}" {
		t.Fatalf("content = %q", p.Content)
	}
	if !p.WillEcho {
		t.Fatal("expression pattern should echo")
	}
	if p.Pattern != "expression" {
		t.Fatalf("pattern = %q", p.Pattern)
	}
}

func TestGenerateFallsBackToPrintStatement(t *testing.T) {
	t.Parallel()

	oracle := StaticOracle([]string{"{{"})
	g := NewFullGenerator(options.Default(), nil, oracle)
	p, err := g.GenerateString("hello")
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "{%print('hello')%}" {
		t.Fatalf("content = %q", p.Content)
	}
	if !p.WillEcho {
		t.Fatal("print pattern should echo")
	}
}

func TestGenerateFallsBackToBlindPattern(t *testing.T) {
	t.Parallel()

	oracle := StaticOracle([]string{"{{", "print"})
	g := NewFullGenerator(options.Default(), nil, oracle)
	p, err := g.GenerateCommand("id")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p.Content, "{%if ") || !strings.HasSuffix(p.Content, "%}{%endif%}") {
		t.Fatalf("content = %q, want if-statement wrapping", p.Content)
	}
	if p.WillEcho {
		t.Fatal("if-statement pattern cannot echo")
	}
}

func TestGenerateAllPatternsBlocked(t *testing.T) {
	t.Parallel()

	g := NewFullGenerator(options.Default(), nil, StaticOracle([]string{"{"}))
	_, err := g.GenerateString("x")
	if !errors.Is(err, ErrNoPayload) {
		t.Fatalf("err = %v, want ErrNoPayload", err)
	}
}

func TestGenerateWrapperProbeRendersCleanly(t *testing.T) {
	t.Parallel()

	// A filterless target that surfaces template errors rejects broken
	// syntax on its own: an oracle refusing exactly the bare wrappers must
	// not make generation fail.
	invalid := map[string]bool{
		"{{}}":             true,
		"{%print()%}":      true,
		"{%if %}{%endif%}": true,
	}
	oracle := func(candidate string) (bool, error) {
		return !invalid[candidate], nil
	}
	g := NewFullGenerator(options.Default(), nil, oracle)
	p, err := g.GenerateString("hello")
	if err != nil {
		t.Fatalf("generate failed against a filterless target: %v", err)
	}
	if p.Content != "{{'hello'}}" {
		t.Fatalf("content = %q", p.Content)
	}
}

func TestGenerateCommandUsesPopen(t *testing.T) {
	t.Parallel()

	g := NewFullGenerator(options.Default(), nil, nil)
	p, err := g.GenerateCommand("id")
	if err != nil {
		t.Fatal(err)
	}
	want := "{{lipsum.__globals__.os.popen('id').read()}}"
	if p.Content != want {
		t.Fatalf("content = %q, want %q", p.Content, want)
	}
}

func TestGenerateConfigDumpFlask(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.Environment = options.EnvFlask
	g := NewFullGenerator(opts, nil, nil)
	p, err := g.GenerateConfigDump()
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "{{config}}" {
		t.Fatalf("content = %q", p.Content)
	}
}

func TestGenerateConfigDumpBareEngine(t *testing.T) {
	t.Parallel()

	g := NewFullGenerator(options.Default(), nil, nil)
	p, err := g.GenerateConfigDump()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.Content, "_TemplateReference__context") {
		t.Fatalf("content = %q, want template-self route without framework globals", p.Content)
	}
}

func TestGeneratePayloadAvoidsBlockedKeywords(t *testing.T) {
	t.Parallel()

	// The classic hard blocklist: no underscores, no dots, no quotes in the
	// final payload, yet command execution must still assemble.
	blocked := []string{"__", ".", "'", "\""}
	opts := options.Default()
	opts.Keywords = blocked
	g := NewFullGenerator(opts, nil, StaticOracle(blocked))

	p, err := g.GenerateCommand("id")
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range blocked {
		if strings.Contains(p.Content, k) {
			t.Fatalf("payload %q contains blocked keyword %q", p.Content, k)
		}
	}
}

func TestGenerateSessionsIndependent(t *testing.T) {
	t.Parallel()

	// Each Generate runs a fresh session: a rejection memoized while the
	// oracle was failing must not leak into a later session where the same
	// candidate would be accepted.
	rejecting := true
	oracle := func(string) (bool, error) { return !rejecting, nil }
	g := NewFullGenerator(options.Default(), nil, oracle)

	if _, err := g.GenerateString("hello"); !errors.Is(err, ErrNoPayload) {
		t.Fatalf("first session err = %v, want ErrNoPayload", err)
	}
	rejecting = false
	p, err := g.GenerateString("hello")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if p.Content != "{{'hello'}}" {
		t.Fatalf("content = %q", p.Content)
	}
}

func TestGenerateOracleCallCount(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := func(string) (bool, error) {
		calls++
		return true, nil
	}
	g := NewFullGenerator(options.Default(), nil, counting)
	p, err := g.Generate(grammar.String("x"))
	if err != nil {
		t.Fatal(err)
	}
	if p.OracleCalls != calls {
		t.Fatalf("payload reports %d oracle calls, oracle saw %d", p.OracleCalls, calls)
	}
}

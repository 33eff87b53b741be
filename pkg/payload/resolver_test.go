package payload

import (
	"errors"
	"strings"
	"testing"

	"github.com/fuucckk/Fenjing/pkg/grammar"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/rules"
)

func TestResolveStringDirect(t *testing.T) {
	t.Parallel()

	r := NewResolver(options.Default(), nil, nil)
	res, ok := r.Resolve(grammar.String("hello"))
	if !ok {
		t.Fatal("unconstrained string did not resolve")
	}
	if res.Expr != "'hello'" {
		t.Fatalf("expr = %q, want single-quoted literal", res.Expr)
	}
}

func TestResolveStringQuoteBlocked(t *testing.T) {
	t.Parallel()

	oracle := StaticOracle([]string{"'"})
	r := NewResolver(options.Default(), nil, oracle)
	res, ok := r.Resolve(grammar.String("data"))
	if !ok {
		t.Fatal("string did not resolve with single quote blocked")
	}
	if res.Expr != `"data"` {
		t.Fatalf("expr = %q, want double-quoted fallback", res.Expr)
	}
}

func TestResolveStringConcatSplit(t *testing.T) {
	t.Parallel()

	// Block the value itself in any quoting, forcing a concatenation split.
	oracle := StaticOracle([]string{"secret"})
	r := NewResolver(options.Default(), nil, oracle)
	res, ok := r.Resolve(grammar.String("secret"))
	if !ok {
		t.Fatal("string did not resolve under value blocklist")
	}
	if strings.Contains(res.Expr, "secret") {
		t.Fatalf("expr %q still contains blocked value", res.Expr)
	}
	if !strings.Contains(res.Expr, "~") && !strings.Contains(res.Expr, "+") {
		t.Fatalf("expr %q is not a concatenation", res.Expr)
	}
}

func TestResolveAttributeEvadesKeyword(t *testing.T) {
	t.Parallel()

	// With dotted access, bracket access and the verbatim filter name all
	// blocked, the map-filter spelling must reassemble "attr" from pieces.
	blocked := []string{".", "[", "attr"}
	opts := options.Default()
	opts.Keywords = blocked
	r := NewResolver(opts, nil, StaticOracle(blocked))

	res, ok := r.Resolve(grammar.Attribute(grammar.Variable("x"), "class"))
	if !ok {
		t.Fatal("attribute did not resolve under blocklist")
	}
	for _, k := range blocked {
		if strings.Contains(res.Expr, k) {
			t.Fatalf("expr %q contains blocked keyword %q", res.Expr, k)
		}
	}
	if !strings.Contains(res.Expr, "map(") {
		t.Fatalf("expr %q does not use the map-filter route", res.Expr)
	}
}

func TestResolveDoubleTapDuplicatesKeyword(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.Keywords = []string{"class"}
	opts.EvasionStrategy = options.EvadeDoubleTap
	r := NewResolver(opts, nil, nil)

	res, ok := r.Resolve(grammar.Attribute(grammar.Variable("x"), "class"))
	if !ok {
		t.Fatal("attribute did not resolve")
	}
	if res.Expr != "x.classclass" {
		t.Fatalf("expr = %q, want doubled keyword spelling", res.Expr)
	}
}

func TestResolveIgnoreEmitsKeyword(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.Keywords = []string{"class"}
	opts.EvasionStrategy = options.EvadeIgnore
	r := NewResolver(opts, nil, nil)

	res, ok := r.Resolve(grammar.Attribute(grammar.Variable("x"), "class"))
	if !ok {
		t.Fatal("attribute did not resolve")
	}
	if res.Expr != "x.class" {
		t.Fatalf("expr = %q, want verbatim spelling", res.Expr)
	}
}

func TestResolveMemoizesSubtrees(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := func(candidate string) (bool, error) {
		calls++
		return true, nil
	}
	r := NewResolver(options.Default(), nil, counting)

	if _, ok := r.Resolve(grammar.String("abc")); !ok {
		t.Fatal("first resolve failed")
	}
	first := calls
	if _, ok := r.Resolve(grammar.String("abc")); !ok {
		t.Fatal("second resolve failed")
	}
	if calls != first {
		t.Fatalf("memoized resolve consulted the oracle again (%d -> %d)", first, calls)
	}
	if r.OracleCalls() != calls {
		t.Fatalf("OracleCalls() = %d, want %d", r.OracleCalls(), calls)
	}
}

func TestResolveFailureMemoized(t *testing.T) {
	t.Parallel()

	calls := 0
	reject := func(string) (bool, error) {
		calls++
		return false, nil
	}
	r := NewResolver(options.Default(), nil, reject)

	if _, ok := r.Resolve(grammar.String("ab")); ok {
		t.Fatal("resolve succeeded against an all-rejecting oracle")
	}
	first := calls
	if _, ok := r.Resolve(grammar.String("ab")); ok {
		t.Fatal("second resolve succeeded")
	}
	if calls != first {
		t.Fatalf("memoized failure consulted the oracle again (%d -> %d)", first, calls)
	}
}

func TestResolveCycleTerminates(t *testing.T) {
	t.Parallel()

	// A registry whose only variable rule lowers the requirement into
	// itself. The stack check must break the cycle instead of recursing.
	reg := rules.NewRegistry(rules.Rule{
		Name: "self_loop",
		Kind: grammar.KindVariable,
		Generate: func(_ *rules.Context, req *grammar.Requirement) []grammar.Candidate {
			return []grammar.Candidate{grammar.Delegate(grammar.Variable(req.Name))}
		},
	})
	r := NewResolver(options.Default(), reg, nil)
	if _, ok := r.Resolve(grammar.Variable("x")); ok {
		t.Fatal("self-referential requirement resolved")
	}
}

func TestResolveOracleErrorRejects(t *testing.T) {
	t.Parallel()

	failing := func(string) (bool, error) {
		return true, errors.New("connection reset")
	}
	r := NewResolver(options.Default(), nil, failing)
	if _, ok := r.Resolve(grammar.String("x")); ok {
		t.Fatal("resolve succeeded despite oracle transport failure")
	}
	if r.Indeterminate() == 0 {
		t.Fatal("indeterminate counter not incremented")
	}
}

func TestResolvePython2OSRoute(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.PythonVersion = options.Python2
	r := NewResolver(opts, nil, nil)

	res, ok := r.Resolve(grammar.OSModule())
	if !ok {
		t.Fatal("os module did not resolve for python2")
	}
	if !strings.Contains(res.Expr, "func_globals") {
		t.Fatalf("expr = %q, want func_globals route", res.Expr)
	}
	if strings.Contains(res.Expr, "__globals__") {
		t.Fatalf("expr = %q uses a python3-only route", res.Expr)
	}
}

func TestResolvePython3OSRoute(t *testing.T) {
	t.Parallel()

	r := NewResolver(options.Default(), nil, nil)
	res, ok := r.Resolve(grammar.OSModule())
	if !ok {
		t.Fatal("os module did not resolve")
	}
	if res.Expr != "lipsum.__globals__.os" {
		t.Fatalf("expr = %q, want the lipsum globals route", res.Expr)
	}
}

func TestEmbedParenthesizesLooserExpression(t *testing.T) {
	t.Parallel()

	// Force "ab" into a tilde concatenation, then embed it where literal
	// binding is required: the renderer must add parentheses.
	oracle := StaticOracle([]string{"'ab'", `"ab"`})
	r := NewResolver(options.Default(), nil, oracle)

	lit := grammar.DefaultPrecedence().Of("literal")
	expr, ok := r.renderFragments([]grammar.Fragment{
		grammar.Sub(grammar.String("ab"), lit),
	})
	if !ok {
		t.Fatal("render failed")
	}
	if !strings.HasPrefix(expr, "(") || !strings.HasSuffix(expr, ")") {
		t.Fatalf("expr = %q, want parenthesized concatenation", expr)
	}
}

func TestEmbedLeavesTightExpressionBare(t *testing.T) {
	t.Parallel()

	r := NewResolver(options.Default(), nil, nil)
	lit := grammar.DefaultPrecedence().Of("literal")
	expr, ok := r.renderFragments([]grammar.Fragment{
		grammar.Sub(grammar.String("ab"), lit),
	})
	if !ok {
		t.Fatal("render failed")
	}
	if expr != "'ab'" {
		t.Fatalf("expr = %q, want bare literal", expr)
	}
}

func TestWhitespaceSplitsBlockedSubstring(t *testing.T) {
	t.Parallel()

	// Quoting, both concat operators, dict-join and %c-format are all
	// blocked for "ab", and the adjacency spelling with empty whitespace
	// renders "''" which is blocked too. Only adjacent literals separated
	// by a visible space survive.
	blocked := []string{"ab", "~", "+", "''", "dict", "%"}
	opts := options.Default()
	opts.Keywords = blocked
	r := NewResolver(opts, nil, StaticOracle(blocked))

	res, ok := r.Resolve(grammar.String("ab"))
	if !ok {
		t.Fatal("string did not resolve under adjacency blocklist")
	}
	if res.Expr != "'a' 'b'" {
		t.Fatalf("expr = %q, want space-separated adjacent literals", res.Expr)
	}
}

func TestWhitespaceChosenOnce(t *testing.T) {
	t.Parallel()

	blocked := []string{"ab", "~", "+", "''", "dict", "%"}
	opts := options.Default()
	opts.Keywords = blocked
	r := NewResolver(opts, nil, StaticOracle(blocked))

	if _, ok := r.Resolve(grammar.String("ab")); !ok {
		t.Fatal("string did not resolve")
	}
	first := r.whitespace()
	if first != " " {
		t.Fatalf("locked spelling = %q, want the accepted space", first)
	}
	for i := 0; i < 3; i++ {
		if got := r.whitespace(); got != first {
			t.Fatalf("whitespace changed mid-session: %q then %q", first, got)
		}
	}
}

func TestFastModeResolvesSimpleGoals(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.DetectMode = options.DetectFast
	r := NewResolver(opts, nil, nil)
	if _, ok := r.Resolve(grammar.OSPopenRead("id")); !ok {
		t.Fatal("fast mode failed an unconstrained goal")
	}
}

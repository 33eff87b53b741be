package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fuucckk/Fenjing/pkg/grammar"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quotable reports whether value can sit inside quote characters without
// escaping. Escapes are avoided entirely: a backslash in a payload is a
// larger WAF surface than falling through to a concatenation rule.
func quotable(value, quote string) bool {
	return !strings.ContainsAny(value, quote+"\\\n\r")
}

func genStringSingleQuote(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !quotable(req.Name, "'") {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("literal"), grammar.Lit("'"+req.Name+"'")),
	}
}

func genStringDoubleQuote(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !quotable(req.Name, `"`) {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("literal"), grammar.Lit(`"`+req.Name+`"`)),
	}
}

// splitPoints ranks split positions for concatenation rules: middle first,
// then sweeping outward. Splitting in the middle halves the recursion depth
// and tends to break blocklisted substrings fastest.
func splitPoints(n int) []int {
	points := make([]int, 0, n-1)
	mid := n / 2
	for delta := 0; ; delta++ {
		lo, hi := mid-delta, mid+delta
		if lo < 1 && hi > n-1 {
			break
		}
		if lo >= 1 {
			points = append(points, lo)
		}
		if hi != lo && hi <= n-1 {
			points = append(points, hi)
		}
	}
	return points
}

// concatCandidates renders value as two embedded string sub-requirements
// joined by op, one candidate per split point.
func concatCandidates(ctx *Context, value, op string, prec grammar.Precedence) []grammar.Candidate {
	if len(value) < 2 {
		return nil
	}
	var out []grammar.Candidate
	for _, i := range splitPoints(len(value)) {
		out = append(out, grammar.Expr(prec,
			grammar.Sub(grammar.String(value[:i]), prec),
			grammar.Lit(op),
			// The right operand needs strictly tighter binding: the
			// operator is left-associative.
			grammar.Sub(grammar.String(value[i:]), prec+1),
		))
	}
	return out
}

func genStringTildeConcat(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return concatCandidates(ctx, req.Name, "~", ctx.p("tilde"))
}

func genStringPlusConcat(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return concatCandidates(ctx, req.Name, "+", ctx.p("plus"))
}

// genStringAdjacentConcat splits the value into two adjacent quoted
// literals, the implicit string concatenation of the target grammar. Both
// halves must be directly quotable since adjacency only concatenates
// literal tokens.
func genStringAdjacentConcat(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	value := req.Name
	if len(value) < 2 || !quotable(value, "'") {
		return nil
	}
	var out []grammar.Candidate
	for _, i := range splitPoints(len(value)) {
		out = append(out, grammar.Expr(ctx.p("literal"),
			grammar.Lit("'"+value[:i]+"'"),
			grammar.WS(),
			grammar.Lit("'"+value[i:]+"'"),
		))
	}
	return out
}

// genStringDictJoin spells an identifier-shaped value without any quote
// character: dict(NAME=x)|join renders the single key.
func genStringDictJoin(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !identifierRe.MatchString(req.Name) {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter"),
			grammar.Lit("dict("),
			grammar.Lit(req.Name),
			grammar.Lit("=x)|join"),
		),
	}
}

// genStringFormatPercent reassembles the value from character codes:
// ('%c'*n)%(c1,c2,...). No character of the value ever appears verbatim, so
// this survives blocklists on the value itself at the cost of length.
func genStringFormatPercent(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	value := req.Name
	if value == "" || value == "%c" {
		return nil
	}
	runes := []rune(value)
	frags := []grammar.Fragment{
		grammar.Lit("("),
		grammar.Sub(grammar.String("%c"), ctx.p("multiply")),
		grammar.Lit("*"),
		grammar.Sub(grammar.Integer(len(runes)), ctx.p("multiply")+1),
		grammar.Lit(")%("),
	}
	for i, r := range runes {
		if i > 0 {
			frags = append(frags, grammar.Lit(","))
		}
		frags = append(frags, grammar.Sub(grammar.Integer(int(r)), 0))
	}
	if len(runes) == 1 {
		frags = append(frags, grammar.Lit(","))
	}
	frags = append(frags, grammar.Lit(")"))
	return []grammar.Candidate{grammar.Expr(ctx.p("mod"), frags...)}
}

func genIntegerDecimal(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if req.Num < 0 {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("literal"), grammar.Lit(strconv.Itoa(req.Num))),
	}
}

func genIntegerNegative(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if req.Num >= 0 {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("minus"),
			grammar.Sub(grammar.Integer(0), ctx.p("minus")),
			grammar.Lit("-"),
			grammar.Sub(grammar.Integer(-req.Num), ctx.p("minus")+1),
		),
	}
}

func genIntegerSum(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	n := req.Num
	if n < 2 {
		return nil
	}
	parts := [][2]int{{n - 1, 1}, {n / 2, n - n/2}}
	var out []grammar.Candidate
	for _, p := range parts {
		if p[0] <= 0 || p[1] <= 0 {
			continue
		}
		out = append(out, grammar.Expr(ctx.p("plus"),
			grammar.Sub(grammar.Integer(p[0]), ctx.p("plus")),
			grammar.Lit("+"),
			grammar.Sub(grammar.Integer(p[1]), ctx.p("plus")+1),
		))
	}
	return out
}

func genIntegerProduct(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	n := req.Num
	if n < 4 {
		return nil
	}
	for f := 2; f*f <= n; f++ {
		if n%f == 0 {
			return []grammar.Candidate{
				grammar.Expr(ctx.p("multiply"),
					grammar.Sub(grammar.Integer(f), ctx.p("multiply")),
					grammar.Lit("*"),
					grammar.Sub(grammar.Integer(n/f), ctx.p("multiply")+1),
				),
			}
		}
	}
	return nil
}

func genIntegerFromString(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if req.Num < 0 {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter"),
			grammar.Sub(grammar.String(strconv.Itoa(req.Num)), ctx.p("filter")),
			grammar.Lit("|int"),
		),
	}
}

func genVariablePlain(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !identifierRe.MatchString(req.Name) {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("literal"), grammar.Lit(req.Name)),
	}
}

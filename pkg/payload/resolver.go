package payload

import (
	"strings"

	"github.com/fuucckk/Fenjing/pkg/grammar"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/rules"
)

// fastCandidateBudget bounds how many fully-rendered candidates a single
// requirement may burn through in fast detection mode before it is declared
// unsatisfiable. Accurate mode has no bound.
const fastCandidateBudget = 16

// whitespaceSpellings are the renderings a Whitespace fragment may take,
// tried in order. The choice is made once per resolver so that a payload
// does not mix spellings.
var whitespaceSpellings = []string{"", " ", "\t", "\n"}

// Result is a successfully resolved expression together with the precedence
// level it parses at, which embedding contexts use to decide enclosure.
type Result struct {
	Expr string
	Prec grammar.Precedence
}

type memoEntry struct {
	key string
	res Result
	ok  bool
}

// Resolver expands requirements into accepted expressions. It owns a memo
// table and a resolution stack that live exactly as long as one top-level
// synthesis session; never share a resolver across goals or targets.
type Resolver struct {
	ctx    *rules.Context
	reg    *rules.Registry
	oracle Oracle

	memo  map[uint64]memoEntry
	stack map[string]struct{}

	ws       string
	wsChosen bool
	wsTrial  string
	wsUsed   bool

	oracleCalls   int
	indeterminate int
}

// NewResolver builds a resolver for one synthesis session.
func NewResolver(opts options.Options, reg *rules.Registry, oracle Oracle) *Resolver {
	if reg == nil {
		reg = rules.Default()
	}
	if oracle == nil {
		oracle = AcceptAll
	}
	return &Resolver{
		ctx:    rules.NewContext(opts),
		reg:    reg,
		oracle: oracle,
		memo:   make(map[uint64]memoEntry),
		stack:  make(map[string]struct{}),
	}
}

// OracleCalls returns how many times the oracle has been consulted.
func (r *Resolver) OracleCalls() int { return r.oracleCalls }

// Indeterminate returns how many oracle checks failed with a transport
// error. Those candidates were treated as rejected; a caller seeing a high
// count may want to re-run the session.
func (r *Resolver) Indeterminate() int { return r.indeterminate }

// Resolve renders req into an oracle-accepted expression. The second return
// is false when no rule produced an acceptable rendering; that outcome is
// routine, not exceptional, and parents react by trying a different
// composition.
func (r *Resolver) Resolve(req *grammar.Requirement) (Result, bool) {
	if req == nil || req.Kind == grammar.KindUnsatisfiable {
		return Result{}, false
	}

	key := req.Key()
	hash := req.Hash()
	if e, hit := r.memo[hash]; hit && e.key == key {
		return e.res, e.ok
	}

	// A requirement currently being resolved higher up the stack cannot be
	// resolved in terms of itself. Fail fast; cycle failures are contextual
	// and deliberately not memoized.
	if _, cycling := r.stack[key]; cycling {
		return Result{}, false
	}
	r.stack[key] = struct{}{}
	defer delete(r.stack, key)

	tried := 0
	budget := -1
	if r.ctx.Opts.DetectMode == options.DetectFast {
		budget = fastCandidateBudget
	}

	for _, rule := range r.reg.ForKind(req.Kind, r.ctx) {
		for _, cand := range rule.Generate(r.ctx, req) {
			if budget >= 0 && tried >= budget {
				break
			}
			tried++

			expr, ok := r.resolveCandidate(cand.Frags)
			if !ok {
				continue
			}

			res := Result{Expr: expr, Prec: cand.Prec}
			if cand.Prec == grammar.PrecInherit {
				res.Prec = r.inheritPrec(cand, expr)
			}
			r.memo[hash] = memoEntry{key: key, res: res, ok: true}
			return res, true
		}
	}

	r.memo[hash] = memoEntry{key: key, ok: false}
	return Result{}, false
}

// inheritPrec recovers the precedence of a pure-delegation candidate from
// its single embedded requirement, which is memoized by the time the
// candidate has rendered.
func (r *Resolver) inheritPrec(cand grammar.Candidate, expr string) grammar.Precedence {
	if len(cand.Frags) == 1 {
		if emb, ok := cand.Frags[0].(grammar.Embed); ok {
			if res, ok := r.Resolve(emb.Req); ok {
				return res.Prec
			}
		}
	}
	// Fall back to the loosest level, which can only cause redundant
	// enclosure, never a mis-parse.
	return 0
}

// resolveCandidate renders a candidate and vets it against the oracle.
// Until the session's whitespace spelling is settled, a rejected rendering
// that contains whitespace fragments is retried with the next spelling: a
// visible spelling splits a substring the filter would otherwise match
// across two literals. The spelling of the first accepted whitespace-bearing
// rendering is locked for the rest of the session so a payload never mixes
// spellings.
func (r *Resolver) resolveCandidate(frags []grammar.Fragment) (string, bool) {
	if r.wsChosen {
		expr, ok := r.renderFragments(frags)
		if !ok || !r.accepted(expr) {
			return "", false
		}
		return expr, true
	}

	prev := ""
	for i, w := range whitespaceSpellings {
		r.wsTrial = w
		r.wsUsed = false
		expr, ok := r.renderFragments(frags)
		if !ok {
			return "", false
		}
		if i > 0 && expr == prev {
			// The spelling does not surface in this rendering; nothing
			// left to vary.
			return "", false
		}
		prev = expr
		used := r.wsUsed
		if r.accepted(expr) {
			if used && !r.wsChosen {
				r.ws = w
				r.wsChosen = true
			}
			return expr, true
		}
		if !used {
			return "", false
		}
	}
	return "", false
}

func (r *Resolver) accepted(expr string) bool {
	r.oracleCalls++
	ok, err := r.oracle(expr)
	if err != nil {
		// Indeterminate: the probe never completed. Treat as rejection so
		// an unvetted payload is never returned.
		r.indeterminate++
		return false
	}
	return ok
}

// renderFragments renders a fragment list to template text, resolving
// embedded requirements recursively. Failure of any fragment fails the
// whole list, which the caller treats as "try the next candidate".
func (r *Resolver) renderFragments(frags []grammar.Fragment) (string, bool) {
	var b strings.Builder
	for _, frag := range frags {
		switch f := frag.(type) {
		case grammar.Literal:
			text, ok := r.applyEvasion(f.Text)
			if !ok {
				return "", false
			}
			b.WriteString(text)

		case grammar.Embed:
			res, ok := r.Resolve(f.Req)
			if !ok {
				return "", false
			}
			expr := res.Expr
			if f.Min > 0 && res.Prec < f.Min {
				expr = "(" + expr + ")"
			}
			b.WriteString(expr)

		case grammar.Enclose:
			inner, ok := r.renderFragments(f.Inner)
			if !ok {
				return "", false
			}
			if f.Have < f.Need {
				inner = "(" + inner + ")"
			}
			b.WriteString(inner)

		case grammar.Whitespace:
			b.WriteString(r.whitespace())

		case grammar.OneOf:
			rendered := false
			for _, alt := range f.Alts {
				if s, ok := r.renderFragments(alt); ok {
					b.WriteString(s)
					rendered = true
					break
				}
			}
			if !rendered {
				return "", false
			}

		case grammar.Wrap:
			inner, ok := r.renderFragments(f.Inner)
			if !ok {
				return "", false
			}
			b.WriteString("(")
			b.WriteString(r.whitespace())
			b.WriteString(inner)
			b.WriteString(r.whitespace())
			b.WriteString(")")

		default:
			return "", false
		}
	}
	return b.String(), true
}

// whitespace renders one whitespace fragment: the locked session spelling
// once settled, otherwise the spelling currently on trial.
func (r *Resolver) whitespace() string {
	r.wsUsed = true
	if r.wsChosen {
		return r.ws
	}
	return r.wsTrial
}

// applyEvasion enforces the keyword-evasion strategy on one literal
// fragment. Only literals are subject to it; embedded sub-expressions have
// already been vetted by the oracle at their own level.
func (r *Resolver) applyEvasion(text string) (string, bool) {
	var hit []string
	for _, k := range r.ctx.Opts.Keywords {
		if k != "" && strings.Contains(text, k) {
			hit = append(hit, k)
		}
	}
	if len(hit) == 0 {
		return text, true
	}
	switch r.ctx.Opts.EvasionStrategy {
	case options.EvadeIgnore:
		return text, true
	case options.EvadeDoubleTap:
		// Duplicate each occurrence so a single-pass substring filter
		// strips one copy and leaves a valid token behind. Best effort
		// only: a recursive filter removes both.
		for _, k := range hit {
			text = strings.ReplaceAll(text, k, k+k)
		}
		return text, true
	default: // avoid
		return "", false
	}
}

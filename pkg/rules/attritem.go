package rules

import (
	"github.com/fuucckk/Fenjing/pkg/grammar"
)

func genAttributeDotted(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !identifierRe.MatchString(req.Name) {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("attribute"),
			grammar.Sub(req.Obj, ctx.p("attribute")),
			grammar.Lit("."),
			grammar.Lit(req.Name),
		),
	}
}

func genAttributeBracket(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{
		grammar.Expr(ctx.p("attribute"),
			grammar.Sub(req.Obj, ctx.p("attribute")),
			grammar.Lit("["),
			grammar.Sub(grammar.String(req.Name), 0),
			grammar.Lit("]"),
		),
	}
}

func genAttributeAttrFilter(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter"),
			grammar.Sub(req.Obj, ctx.p("filter")),
			grammar.Lit("|attr"),
			grammar.Wrap{Inner: []grammar.Fragment{
				grammar.Sub(grammar.String(req.Name), 0),
			}},
		),
	}
}

func genAttributeAttrFilterTrailing(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter"),
			grammar.Sub(req.Obj, ctx.p("filter")),
			grammar.Lit("|attr("),
			grammar.WS(),
			grammar.Sub(grammar.String(req.Name), 0),
			grammar.WS(),
			grammar.Lit(",)"),
		),
	}
}

// genAttributeMap fetches the attribute through the map filter:
// (OBJ,)|map('attr','NAME')|first. The filter name and the attribute name
// are embedded string requirements, so either can be reassembled from
// pieces when its verbatim spelling is blocklisted.
func genAttributeMap(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter_call"),
			grammar.Lit("("),
			grammar.WS(),
			grammar.Sub(req.Obj, 0),
			grammar.WS(),
			grammar.Lit(",)|map("),
			grammar.WS(),
			grammar.Sub(grammar.String("attr"), 0),
			grammar.Lit(","),
			grammar.WS(),
			grammar.Sub(grammar.String(req.Name), 0),
			grammar.WS(),
			grammar.Lit(")|first"),
		),
	}
}

// anything is the throwaway dictionary key used by the batch reassembly
// spellings. Alternatives ranked cheapest first.
func anything(ctx *Context) grammar.Fragment {
	return grammar.OneOf{Alts: [][]grammar.Fragment{
		{grammar.Lit("x")},
		{grammar.Sub(grammar.Integer(0), 0)},
		{grammar.Sub(grammar.Integer(1), 0)},
	}}
}

// pickEnd renders the filter collapsing a one-element list; either spelling
// works, so both are offered for the oracle to choose from.
func pickEnd() grammar.Fragment {
	return grammar.OneOf{Alts: [][]grammar.Fragment{
		{grammar.Lit("last")},
		{grammar.Lit("first")},
	}}
}

// genAttributeMapBatch reassembles the access from fixed-size chunks:
//
//	{x:OBJ}|items|map('last')|map(*('attr'+NAME|batch(4)|map('join')|list))|list|last
//
// The combined string "attr"+NAME is chunked into ["attr", NAME] by batch,
// then star-unpacked into map's argument list. Because the combined string
// is itself an embedded string requirement, its rendering can be split so
// that neither "attr" nor NAME ever appears as a contiguous substring.
// Limited to names of at most four characters so the two batch chunks line
// up; longer names take the reverse variant below.
func genAttributeMapBatch(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if len(req.Name) > 4 {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter_call"),
			grammar.Lit("{"),
			anything(ctx),
			grammar.Lit(":"),
			grammar.Sub(req.Obj, 0),
			grammar.Lit("}|items|map("),
			grammar.WS(),
			grammar.Sub(grammar.String("last"), 0),
			grammar.WS(),
			grammar.Lit(")|map(*("),
			grammar.Sub(grammar.String("attr"+req.Name), ctx.p("filter")),
			grammar.Lit("|batch("),
			grammar.Sub(grammar.Integer(4), 0),
			grammar.Lit(")|map("),
			grammar.Sub(grammar.String("join"), 0),
			grammar.Lit(")|list))|list|"),
			pickEnd(),
		),
	}
}

// genAttributeMapBatchReverse is the same trick for names of four or more
// characters: NAME+"attr" chunked by the name's own length and reversed.
func genAttributeMapBatchReverse(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if len(req.Name) < 4 {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter_call"),
			grammar.Lit("{"),
			anything(ctx),
			grammar.Lit(":"),
			grammar.Sub(req.Obj, 0),
			grammar.Lit("}|items|map("),
			grammar.WS(),
			grammar.Sub(grammar.String("last"), 0),
			grammar.WS(),
			grammar.Lit(")|map(*("),
			grammar.Sub(grammar.String(req.Name+"attr"), ctx.p("filter")),
			grammar.Lit("|batch("),
			grammar.Sub(grammar.Integer(len(req.Name)), 0),
			grammar.Lit(")|map("),
			grammar.Sub(grammar.String("join"), 0),
			grammar.Lit(")|list|reverse))|list|"),
			pickEnd(),
		),
	}
}

func genItemDotted(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !identifierRe.MatchString(req.Name) {
		return nil
	}
	return []grammar.Candidate{
		grammar.Expr(ctx.p("item"),
			grammar.Sub(req.Obj, ctx.p("item")),
			grammar.Lit("."),
			grammar.Lit(req.Name),
		),
	}
}

func genItemBracket(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	return []grammar.Candidate{
		grammar.Expr(ctx.p("item"),
			grammar.Sub(req.Obj, ctx.p("item")),
			grammar.Lit("["),
			grammar.Sub(grammar.String(req.Name), 0),
			grammar.Lit("]"),
		),
	}
}

func genItemGet(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	call := grammar.Call(grammar.Attribute(req.Obj, "get"), grammar.String(req.Name))
	return []grammar.Candidate{grammar.Delegate(call)}
}

func genItemGetItem(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	call := grammar.Call(grammar.Attribute(req.Obj, "__getitem__"), grammar.String(req.Name))
	return []grammar.Candidate{grammar.Delegate(call)}
}

func genClassAttributeDotted(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if !identifierRe.MatchString(req.Name) {
		return nil
	}
	class := grammar.Attribute(req.Obj, "__class__")
	return []grammar.Candidate{
		grammar.Expr(ctx.p("attribute"),
			grammar.Sub(class, ctx.p("attribute")),
			grammar.Lit("."+req.Name),
		),
	}
}

func genClassAttributeAttrFilter(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	class := grammar.Attribute(req.Obj, "__class__")
	return []grammar.Candidate{
		grammar.Expr(ctx.p("filter"),
			grammar.Sub(class, ctx.p("filter")),
			grammar.Lit("|attr"),
			grammar.Wrap{Inner: []grammar.Fragment{
				grammar.Sub(grammar.String(req.Name), 0),
			}},
		),
	}
}

// genChainedFold lowers a chained access into nested attribute/item
// requirements, folded left to right. A chain with no steps is the base
// object itself.
func genChainedFold(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	cur := req.Obj
	for _, step := range req.Steps {
		if step.Kind == grammar.AccessAttribute {
			cur = grammar.Attribute(cur, step.Name)
		} else {
			cur = grammar.Item(cur, step.Name)
		}
	}
	return []grammar.Candidate{grammar.Delegate(cur)}
}

func genCallPlain(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	frags := []grammar.Fragment{
		grammar.Sub(req.Obj, ctx.p("function_call")),
		grammar.Lit("("),
		grammar.WS(),
	}
	for i, arg := range req.Args {
		if i > 0 {
			frags = append(frags, grammar.Lit(","), grammar.WS())
		}
		frags = append(frags, grammar.Sub(arg, ctx.p("ifelse")))
	}
	frags = append(frags, grammar.WS(), grammar.Lit(")"))
	return []grammar.Candidate{grammar.Expr(ctx.p("function_call"), frags...)}
}

// genCallTrailingComma spells the call with a trailing comma, a cheap
// variation that slips past filters anchored on the exact ")" sequence of
// the plain spelling.
func genCallTrailingComma(ctx *Context, req *grammar.Requirement) []grammar.Candidate {
	if len(req.Args) == 0 {
		return nil
	}
	frags := []grammar.Fragment{
		grammar.Sub(req.Obj, ctx.p("function_call")),
		grammar.Lit("("),
		grammar.WS(),
	}
	for i, arg := range req.Args {
		if i > 0 {
			frags = append(frags, grammar.Lit(","), grammar.WS())
		}
		frags = append(frags, grammar.Sub(arg, ctx.p("ifelse")))
	}
	frags = append(frags, grammar.WS(), grammar.Lit(",)"))
	return []grammar.Candidate{grammar.Expr(ctx.p("function_call"), frags...)}
}

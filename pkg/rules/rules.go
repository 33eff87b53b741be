// Package rules contains the generator rules of the payload synthesizer.
// Each rule claims one requirement shape and emits zero or more candidate
// renderings, ranked. Several independent rules may claim the same shape:
// direct syntax comes first, increasingly obfuscated filter- and map-based
// spellings later, because direct syntax is shorter and more likely accepted
// while the later rules exist specifically to evade blocklisted literals.
//
// Rules are pure: they never touch the network, and a rule that cannot apply
// declines by returning no candidates (or a candidate embedding the
// unsatisfiable marker) instead of raising. Failure is data.
package rules

import (
	"github.com/fuucckk/Fenjing/pkg/grammar"
	"github.com/fuucckk/Fenjing/pkg/options"
)

// Context carries the read-only configuration a rule may consult when
// deciding applicability and when composing fragments.
type Context struct {
	Opts options.Options
	Prec *grammar.PrecedenceTable
}

// NewContext builds a rule context over the given options.
func NewContext(opts options.Options) *Context {
	return &Context{Opts: opts, Prec: grammar.DefaultPrecedence()}
}

func (c *Context) p(name string) grammar.Precedence { return c.Prec.Of(name) }

// python3 reports whether python3-only primitives may be used. An unknown
// version counts as python3, the overwhelmingly common case; a declared
// python2 target excludes these rules entirely.
func (c *Context) python3() bool { return c.Opts.PythonVersion != options.Python2 }

// python2 reports whether python2-only primitives may be used. These are
// offered only when the version is declared, never speculatively.
func (c *Context) python2() bool { return c.Opts.PythonVersion == options.Python2 }

// flask reports whether framework context objects are in the namespace.
func (c *Context) flask() bool { return c.Opts.Environment == options.EnvFlask }

// GenerateFunc emits ranked candidates for one requirement.
type GenerateFunc func(*Context, *grammar.Requirement) []grammar.Candidate

// Rule is one registry entry.
type Rule struct {
	Name string
	Kind grammar.Kind

	// Applicable gates the rule on configuration (interpreter version,
	// context flavor). Nil means always applicable.
	Applicable func(*Context) bool

	Generate GenerateFunc
}

// Registry is an ordered collection of rules. Order within a kind is the
// priority order the resolver tries them in; it is fixed at construction and
// extended only by appending.
type Registry struct {
	byKind map[grammar.Kind][]Rule
}

// NewRegistry builds a registry from an ordered rule list.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{byKind: make(map[grammar.Kind][]Rule)}
	for _, rule := range rules {
		r.Append(rule)
	}
	return r
}

// Append adds a rule after all existing rules for its kind.
func (r *Registry) Append(rule Rule) {
	r.byKind[rule.Kind] = append(r.byKind[rule.Kind], rule)
}

// ForKind returns the rules claiming a requirement kind, in priority order,
// filtered to those applicable under ctx.
func (r *Registry) ForKind(kind grammar.Kind, ctx *Context) []Rule {
	all := r.byKind[kind]
	out := make([]Rule, 0, len(all))
	for _, rule := range all {
		if rule.Applicable != nil && !rule.Applicable(ctx) {
			continue
		}
		out = append(out, rule)
	}
	return out
}

// Default returns the standard registry. The list below is the single
// source of rule priority; new rules are added by appending here, not by
// runtime discovery.
func Default() *Registry {
	return NewRegistry(
		// Strings: direct quoting, then concatenation splits, then
		// quote-free spellings.
		Rule{Name: "string_single_quote", Kind: grammar.KindString, Generate: genStringSingleQuote},
		Rule{Name: "string_double_quote", Kind: grammar.KindString, Generate: genStringDoubleQuote},
		Rule{Name: "string_tilde_concat", Kind: grammar.KindString, Generate: genStringTildeConcat},
		Rule{Name: "string_plus_concat", Kind: grammar.KindString, Generate: genStringPlusConcat},
		Rule{Name: "string_adjacent_concat", Kind: grammar.KindString, Generate: genStringAdjacentConcat},
		Rule{Name: "string_dict_join", Kind: grammar.KindString, Generate: genStringDictJoin},
		Rule{Name: "string_format_percent", Kind: grammar.KindString, Generate: genStringFormatPercent},

		// Integers.
		Rule{Name: "integer_decimal", Kind: grammar.KindInteger, Generate: genIntegerDecimal},
		Rule{Name: "integer_negative", Kind: grammar.KindInteger, Generate: genIntegerNegative},
		Rule{Name: "integer_sum", Kind: grammar.KindInteger, Generate: genIntegerSum},
		Rule{Name: "integer_product", Kind: grammar.KindInteger, Generate: genIntegerProduct},
		Rule{Name: "integer_from_string", Kind: grammar.KindInteger, Generate: genIntegerFromString},

		// Variables.
		Rule{Name: "variable_plain", Kind: grammar.KindVariable, Generate: genVariablePlain},

		// Attribute access.
		Rule{Name: "attribute_dotted", Kind: grammar.KindAttribute, Generate: genAttributeDotted},
		Rule{Name: "attribute_bracket", Kind: grammar.KindAttribute, Generate: genAttributeBracket},
		Rule{Name: "attribute_attrfilter", Kind: grammar.KindAttribute, Generate: genAttributeAttrFilter},
		Rule{Name: "attribute_attrfilter_trailing", Kind: grammar.KindAttribute, Generate: genAttributeAttrFilterTrailing},
		Rule{Name: "attribute_map", Kind: grammar.KindAttribute, Generate: genAttributeMap},
		Rule{Name: "attribute_map_batch", Kind: grammar.KindAttribute, Generate: genAttributeMapBatch},
		Rule{Name: "attribute_map_batch_reverse", Kind: grammar.KindAttribute, Generate: genAttributeMapBatchReverse},

		// Item access.
		Rule{Name: "item_dotted", Kind: grammar.KindItem, Generate: genItemDotted},
		Rule{Name: "item_bracket", Kind: grammar.KindItem, Generate: genItemBracket},
		Rule{Name: "item_get", Kind: grammar.KindItem, Generate: genItemGet},
		Rule{Name: "item_getitem", Kind: grammar.KindItem, Applicable: (*Context).python3, Generate: genItemGetItem},

		// Class attribute access, for sandboxes hiding instance attributes.
		Rule{Name: "class_attribute_dotted", Kind: grammar.KindClassAttribute, Generate: genClassAttributeDotted},
		Rule{Name: "class_attribute_attrfilter", Kind: grammar.KindClassAttribute, Generate: genClassAttributeAttrFilter},

		// Chained access fold.
		Rule{Name: "chained_fold", Kind: grammar.KindChainedAccess, Generate: genChainedFold},

		// Function calls.
		Rule{Name: "call_plain", Kind: grammar.KindFunctionCall, Generate: genCallPlain},
		Rule{Name: "call_trailing_comma", Kind: grammar.KindFunctionCall, Generate: genCallTrailingComma},

		// Routes to the os module.
		Rule{Name: "os_via_lipsum", Kind: grammar.KindOSModule, Applicable: (*Context).python3, Generate: genOSViaLipsum},
		Rule{Name: "os_via_cycler", Kind: grammar.KindOSModule, Applicable: (*Context).python3, Generate: genOSViaCycler},
		Rule{Name: "os_via_joiner", Kind: grammar.KindOSModule, Applicable: (*Context).python3, Generate: genOSViaJoiner},
		Rule{Name: "os_via_flask_g", Kind: grammar.KindOSModule, Applicable: (*Context).flask, Generate: genOSViaFlaskG},
		Rule{Name: "os_via_func_globals", Kind: grammar.KindOSModule, Applicable: (*Context).python2, Generate: genOSViaFuncGlobals},

		// Shell command execution.
		Rule{Name: "popen_read", Kind: grammar.KindOSPopenRead, Generate: genPopenRead},
		Rule{Name: "popen_read_via_eval", Kind: grammar.KindOSPopenRead, Generate: genPopenReadViaEval},

		// Arbitrary code evaluation.
		Rule{Name: "eval_via_lipsum", Kind: grammar.KindEvalCode, Applicable: (*Context).python3, Generate: genEvalViaLipsum},
		Rule{Name: "eval_via_cycler", Kind: grammar.KindEvalCode, Applicable: (*Context).python3, Generate: genEvalViaCycler},
		Rule{Name: "eval_via_func_globals", Kind: grammar.KindEvalCode, Applicable: (*Context).python2, Generate: genEvalViaFuncGlobals},

		// Configuration dump.
		Rule{Name: "config_flask_var", Kind: grammar.KindConfigDump, Applicable: (*Context).flask, Generate: genConfigFlaskVar},
		Rule{Name: "config_template_self", Kind: grammar.KindConfigDump, Applicable: (*Context).python3, Generate: genConfigTemplateSelf},
	)
}

package grammar

// Precedence is a binding-tightness level in the target template grammar.
// Higher values bind tighter. The zero value means "no requirement": an
// embedded expression with minimum precedence zero is never parenthesized.
type Precedence int

// PrecInherit marks a candidate whose precedence is that of its single
// embedded sub-expression. Used by pure delegation rules (e.g. chained
// access) that lower one requirement into another without adding syntax.
const PrecInherit Precedence = -1

// precedenceGroups lists grammar constructs from loosest to tightest
// binding. Constructs in the same group share a level. The order mirrors the
// target language's expression grammar: a construct may be embedded
// unparenthesized anywhere a construct of equal or looser binding is
// expected.
var precedenceGroups = [][]string{
	{"comma"},
	{"ifelse"},
	{"boolean_or"},
	{"boolean_and"},
	{"boolean_not"},
	{"comparison"},
	{"tilde"},
	{"plus", "minus"},
	{"multiply", "divide", "floor_divide", "mod"},
	{"unary"},
	{"power"},
	{"filter", "filter_call"},
	{"attribute", "item", "function_call", "slice"},
	{"literal", "enclose"},
}

// PrecedenceTable maps grammar-construct names to levels. It is built once
// and never mutated; inject it through the rule context instead of reading
// process-wide state.
type PrecedenceTable struct {
	levels map[string]Precedence
}

// DefaultPrecedence returns the precedence table of the target grammar.
func DefaultPrecedence() *PrecedenceTable {
	levels := make(map[string]Precedence, 24)
	for i, group := range precedenceGroups {
		for _, name := range group {
			levels[name] = Precedence(i + 1)
		}
	}
	return &PrecedenceTable{levels: levels}
}

// Of returns the level of a named construct. Unknown names map to the
// loosest binding, which forces enclosure and is therefore always safe.
func (t *PrecedenceTable) Of(name string) Precedence {
	if p, ok := t.levels[name]; ok {
		return p
	}
	return 0
}

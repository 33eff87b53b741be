package grammar

// Fragment is one unit of a candidate rendering. The set is closed: the
// resolver switches exhaustively over these types and the compiler flags any
// fragment kind it does not handle.
type Fragment interface{ isFragment() }

// Literal is verbatim template text. It is the only fragment the
// keyword-evasion strategy applies to.
type Literal struct {
	Text string
}

// Embed is an embedded sub-requirement. The resolver resolves Req
// recursively and parenthesizes the result if and only if its precedence is
// strictly lower than Min. Min zero means the result is used as-is.
type Embed struct {
	Req *Requirement
	Min Precedence
}

// Enclose renders Inner and wraps it in grouping syntax iff Have < Need.
// Used when a rule composes raw fragments whose precedence it knows
// statically, as opposed to Embed where precedence is discovered during
// resolution.
type Enclose struct {
	Inner []Fragment
	Have  Precedence
	Need  Precedence
}

// Whitespace renders as one of several whitespace-equivalent spellings,
// chosen once per resolution session. It doubles as filler and as a trick
// for splitting blocklisted substrings.
type Whitespace struct{}

// OneOf tries each alternative fragment list in order; the first that fully
// renders is used.
type OneOf struct {
	Alts [][]Fragment
}

// Wrap renders Inner inside the grammar's grouping delimiters with optional
// whitespace padding, the calling convention used for argument lists.
type Wrap struct {
	Inner []Fragment
}

func (Literal) isFragment()    {}
func (Embed) isFragment()      {}
func (Enclose) isFragment()    {}
func (Whitespace) isFragment() {}
func (OneOf) isFragment()      {}
func (Wrap) isFragment()       {}

// Candidate is one concrete rendering attempt for a requirement: an ordered
// fragment list plus the precedence of the expression it produces.
type Candidate struct {
	Prec  Precedence
	Frags []Fragment
}

// Expr builds a candidate.
func Expr(prec Precedence, frags ...Fragment) Candidate {
	return Candidate{Prec: prec, Frags: frags}
}

// Delegate builds a candidate that is a bare embedding of another
// requirement and inherits its precedence.
func Delegate(req *Requirement) Candidate {
	return Candidate{Prec: PrecInherit, Frags: []Fragment{Embed{Req: req}}}
}

// Lit is shorthand for a Literal fragment.
func Lit(text string) Fragment { return Literal{Text: text} }

// Sub is shorthand for an Embed fragment with a minimum precedence.
func Sub(req *Requirement, min Precedence) Fragment { return Embed{Req: req, Min: min} }

// WS is shorthand for a Whitespace fragment.
func WS() Fragment { return Whitespace{} }

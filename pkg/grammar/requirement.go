// Package grammar defines the vocabulary of the payload synthesizer: the
// Requirement tree describing what a generated expression must do, the
// Fragment types describing how a candidate rendering is assembled, and the
// precedence table of the target template language.
//
// Requirements are pure data. They are never mutated after construction and
// two independently built trees with the same shape compare equal, so the
// resolver's memo table can be keyed on a structural hash.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Kind identifies a requirement shape.
type Kind uint8

const (
	// KindUnsatisfiable is the explicit "no rendering exists" marker.
	// Rules return it instead of raising; the resolver fails it immediately.
	KindUnsatisfiable Kind = iota

	// KindString requires an expression evaluating to the literal string Name.
	KindString

	// KindInteger requires an expression evaluating to the integer Num.
	KindInteger

	// KindVariable requires a bare template variable reference (Name).
	KindVariable

	// KindOSModule requires a handle to the interpreter's os module.
	KindOSModule

	// KindAttribute requires attribute Name of Obj.
	KindAttribute

	// KindItem requires item Name of Obj.
	KindItem

	// KindClassAttribute requires attribute Name of Obj's class object.
	KindClassAttribute

	// KindChainedAccess requires Steps applied to Obj left to right.
	KindChainedAccess

	// KindFunctionCall requires Obj called with Args.
	KindFunctionCall

	// KindOSPopenRead requires executing shell command Name and evaluating
	// to its captured standard output.
	KindOSPopenRead

	// KindEvalCode requires evaluating the interpreter expression Name and
	// returning its value.
	KindEvalCode

	// KindConfigDump requires an expression evaluating to the application
	// configuration object.
	KindConfigDump
)

var kindNames = map[Kind]string{
	KindUnsatisfiable:  "unsatisfiable",
	KindString:         "string",
	KindInteger:        "integer",
	KindVariable:       "variable",
	KindOSModule:       "os_module",
	KindAttribute:      "attribute",
	KindItem:           "item",
	KindClassAttribute: "class_attribute",
	KindChainedAccess:  "chained_access",
	KindFunctionCall:   "function_call",
	KindOSPopenRead:    "os_popen_read",
	KindEvalCode:       "eval_code",
	KindConfigDump:     "config_dump",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// AccessKind distinguishes the two step flavors of a chained access.
type AccessKind uint8

const (
	AccessAttribute AccessKind = iota
	AccessItem
)

// AccessStep is one step of a chained access requirement.
type AccessStep struct {
	Kind AccessKind
	Name string
}

// Attr returns an attribute access step.
func Attr(name string) AccessStep { return AccessStep{Kind: AccessAttribute, Name: name} }

// Index returns an item access step.
func Index(name string) AccessStep { return AccessStep{Kind: AccessItem, Name: name} }

// Requirement is an immutable description of a desired semantic operation.
// Which fields are meaningful depends on Kind; use the constructors below
// rather than building literals.
type Requirement struct {
	Kind  Kind
	Name  string
	Num   int
	Obj   *Requirement
	Args  []*Requirement
	Steps []AccessStep
}

// String requires a string literal value.
func String(value string) *Requirement {
	return &Requirement{Kind: KindString, Name: value}
}

// Integer requires an integer literal value.
func Integer(value int) *Requirement {
	return &Requirement{Kind: KindInteger, Num: value}
}

// Variable requires a reference to a named template variable.
func Variable(name string) *Requirement {
	return &Requirement{Kind: KindVariable, Name: name}
}

// OSModule requires a handle to the os module.
func OSModule() *Requirement { return &Requirement{Kind: KindOSModule} }

// Attribute requires attribute name of obj.
func Attribute(obj *Requirement, name string) *Requirement {
	return &Requirement{Kind: KindAttribute, Obj: obj, Name: name}
}

// Item requires item name of obj.
func Item(obj *Requirement, name string) *Requirement {
	return &Requirement{Kind: KindItem, Obj: obj, Name: name}
}

// ClassAttribute requires attribute name of obj's class.
func ClassAttribute(obj *Requirement, name string) *Requirement {
	return &Requirement{Kind: KindClassAttribute, Obj: obj, Name: name}
}

// Chain requires steps applied to obj in order.
func Chain(obj *Requirement, steps ...AccessStep) *Requirement {
	return &Requirement{Kind: KindChainedAccess, Obj: obj, Steps: steps}
}

// Call requires obj invoked with args.
func Call(obj *Requirement, args ...*Requirement) *Requirement {
	return &Requirement{Kind: KindFunctionCall, Obj: obj, Args: args}
}

// OSPopenRead requires executing cmd and capturing its output.
func OSPopenRead(cmd string) *Requirement {
	return &Requirement{Kind: KindOSPopenRead, Name: cmd}
}

// EvalCode requires evaluating the given interpreter expression.
func EvalCode(code string) *Requirement {
	return &Requirement{Kind: KindEvalCode, Name: code}
}

// ConfigDump requires the application configuration object.
func ConfigDump() *Requirement { return &Requirement{Kind: KindConfigDump} }

// Unsatisfiable is the marker requirement that never resolves.
func Unsatisfiable() *Requirement { return &Requirement{Kind: KindUnsatisfiable} }

// Key returns a canonical structural encoding of the requirement tree.
// Two requirements with equal keys are semantically identical.
func (r *Requirement) Key() string {
	var b strings.Builder
	r.writeKey(&b)
	return b.String()
}

func (r *Requirement) writeKey(b *strings.Builder) {
	b.WriteString(r.Kind.String())
	b.WriteByte('(')
	if r.Name != "" {
		b.WriteString(strconv.Quote(r.Name))
	}
	if r.Kind == KindInteger {
		b.WriteString(strconv.Itoa(r.Num))
	}
	if r.Obj != nil {
		b.WriteByte(';')
		r.Obj.writeKey(b)
	}
	for _, a := range r.Args {
		b.WriteByte(',')
		a.writeKey(b)
	}
	for _, s := range r.Steps {
		b.WriteByte('/')
		if s.Kind == AccessAttribute {
			b.WriteByte('a')
		} else {
			b.WriteByte('i')
		}
		b.WriteString(strconv.Quote(s.Name))
	}
	b.WriteByte(')')
}

// Hash returns a 64-bit structural hash of the requirement, suitable as a
// memoization key. Hash collisions are tolerable only in theory; the memo
// table stores the full key alongside to disambiguate.
func (r *Requirement) Hash() uint64 {
	return murmur3.Sum64([]byte(r.Key()))
}

// Equal reports structural equality.
func (r *Requirement) Equal(other *Requirement) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Key() == other.Key()
}

func (r *Requirement) String() string { return r.Key() }

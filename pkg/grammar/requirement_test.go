package grammar

import (
	"testing"
)

func TestKeyStructuralEquality(t *testing.T) {
	t.Parallel()

	a := Call(Attribute(OSModule(), "popen"), String("id"))
	b := Call(Attribute(OSModule(), "popen"), String("id"))
	if a.Key() != b.Key() {
		t.Fatalf("independently built trees disagree: %q vs %q", a.Key(), b.Key())
	}
	if !a.Equal(b) {
		t.Fatal("Equal() = false for structurally identical trees")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("hashes disagree for equal keys")
	}
}

func TestKeyDistinguishesShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b *Requirement
	}{
		{"string vs variable", String("os"), Variable("os")},
		{"attribute vs item", Attribute(Variable("x"), "get"), Item(Variable("x"), "get")},
		{"arg order", Call(Variable("f"), String("a"), String("b")), Call(Variable("f"), String("b"), String("a"))},
		{"integer value", Integer(1), Integer(2)},
		{
			"chain step kind",
			Chain(Variable("x"), Attr("os")),
			Chain(Variable("x"), Index("os")),
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if tc.a.Key() == tc.b.Key() {
				t.Fatalf("distinct requirements share key %q", tc.a.Key())
			}
		})
	}
}

func TestKeyEscapesDelimiters(t *testing.T) {
	t.Parallel()

	// Name values containing the key encoding's own delimiters must not
	// produce ambiguous keys.
	a := String(`a";b`)
	b := String(`a`)
	c := String(`";b`)
	if a.Key() == b.Key() || a.Key() == c.Key() {
		t.Fatalf("delimiter injection collapsed keys: %q %q %q", a.Key(), b.Key(), c.Key())
	}
}

func TestEqualNil(t *testing.T) {
	t.Parallel()

	var nilReq *Requirement
	if nilReq.Equal(String("x")) {
		t.Fatal("nil.Equal(non-nil) = true")
	}
	if !nilReq.Equal(nil) {
		t.Fatal("nil.Equal(nil) = false")
	}
}

// Package order holds the operator binding strengths used when emitting
// expressions. Lower values bind tighter. Values are not required to be
// integers so that new operators can be slotted between existing ones.
package order

import "math"

type Order float64

const (
	Atomic         Order = 0   // 0 "" ...
	New            Order = 1.1 // new
	Member         Order = 1.2 // . []
	FunctionCall   Order = 2   // ()
	Increment      Order = 3   // ++
	Decrement      Order = 3   // --
	BitwiseNot     Order = 4.1 // ~
	UnaryPlus      Order = 4.2 // +
	UnaryNegation  Order = 4.3 // -
	LogicalNot     Order = 4.4 // !
	Typeof         Order = 4.5 // typeof
	Void           Order = 4.6 // void
	Delete         Order = 4.7 // delete
	Division       Order = 5.1 // /
	Multiplication Order = 5.2 // *
	Modulus        Order = 5.3 // %
	Subtraction    Order = 6.1 // -
	Addition       Order = 6.2 // +
	BitwiseShift   Order = 7   // << >>
	Relational     Order = 8   // < <= > >=
	In             Order = 8   // in
	Instanceof     Order = 8   // instanceof
	Equality       Order = 9   // == !=
	BitwiseAnd     Order = 10  // &
	BitwiseXor     Order = 11  // ^
	BitwiseOr      Order = 12  // |
	LogicalAnd     Order = 13  // &&
	LogicalOr      Order = 14  // ||
	Conditional    Order = 15  // ?:
	Assignment     Order = 16  // = += -= ...
	Comma          Order = 17  // ,
	None           Order = 99  // (...)
)

// Pair is an (outer, inner) combination that never needs parentheses.
type Pair struct{ Outer, Inner Order }

// Overrides lists the pairs exempt from parenthesization.
var Overrides = []Pair{
	// (foo()).bar -> foo().bar, (foo())[0] -> foo()[0]
	{FunctionCall, Member},
	// (foo())() -> foo()()
	{FunctionCall, FunctionCall},
	// (foo.bar).baz -> foo.bar.baz, (foo[0])[1] -> foo[0][1]
	{Member, Member},
	// (foo.bar)() -> foo.bar()
	{Member, FunctionCall},
	// !(!foo) -> !!foo
	{LogicalNot, LogicalNot},
	// a * (b * c) -> a * b * c
	{Multiplication, Multiplication},
	// a + (b + c) -> a + b + c
	{Addition, Addition},
	// a && (b && c) -> a && b && c
	{LogicalAnd, LogicalAnd},
	// a || (b || c) -> a || b || c
	{LogicalOr, LogicalOr},
}

// Class drops the fractional part, which only orders operators inside the
// same class.
func (o Order) Class() int { return int(math.Floor(float64(o))) }

// Exempt reports whether (outer, inner) is listed in Overrides.
func Exempt(outer, inner Order) bool {
	for _, p := range Overrides {
		if p.Outer == outer && p.Inner == inner {
			return true
		}
	}
	return false
}

// NeedsParens reports whether code of strength inner must be wrapped in
// parentheses when it sits in a position demanding at most outer.
func NeedsParens(outer, inner Order) bool {
	oc, ic := outer.Class(), inner.Class()
	if oc > ic {
		return false
	}
	if oc == ic && (oc == Atomic.Class() || oc == None.Class()) {
		return false
	}
	return !Exempt(outer, inner)
}

// Wrap parenthesizes code when NeedsParens says so.
func Wrap(code string, outer, inner Order) string {
	if NeedsParens(outer, inner) {
		return "(" + code + ")"
	}
	return code
}

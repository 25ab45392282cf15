// Package ast defines the language-neutral mini-AST produced by package
// lambda from a user-supplied lambda's source text. It is deliberately
// small: only the node kinds the translator (package translate) knows
// how to interpret are modeled; anything else surfaces as an Opaque
// node carrying the raw source text for a last-resort verbatim emit.
package ast

import (
	"fmt"
	"strings"
)

// Node is the marker interface implemented by every mini-AST node.
type Node interface {
	node()
	String() string
}

// Lambda is the parsed form of a user function: its parameter names (one
// or two) and its body expression.
type Lambda struct {
	Params []string
	Body   Node
}

// Identifier is a bare name reference, e.g. the "u" in "u.age".
type Identifier struct {
	Name string
}

func (Identifier) node()          {}
func (i Identifier) String() string { return i.Name }

// PropertyAccess is a dotted property chain rooted at Base, e.g.
// "joined.order.amount" parses as PropertyAccess{Base: Identifier{joined},
// Path: ["order", "amount"]}.
type PropertyAccess struct {
	Base Node
	Path []string
}

func (PropertyAccess) node() {}
func (p PropertyAccess) String() string {
	return fmt.Sprintf("%s.%s", p.Base, strings.Join(p.Path, "."))
}

// ObjectProperty is one key/value pair of an ObjectLiteral, or a spread
// entry when Spread is true (Value holds the spread target, Key unused).
type ObjectProperty struct {
	Key    string
	Value  Node
	Spread bool
}

// ObjectLiteral is an ordered set of properties, e.g.
// "{ userName: j.u.name, orderAmount: j.o.amount }".
type ObjectLiteral struct {
	Properties []ObjectProperty
}

func (ObjectLiteral) node() {}
func (o ObjectLiteral) String() string {
	parts := make([]string, len(o.Properties))
	for i, p := range o.Properties {
		if p.Spread {
			parts[i] = "..." + p.Value.String()
		} else {
			parts[i] = fmt.Sprintf("%s: %s", p.Key, p.Value)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// LiteralKind discriminates the payload of a Literal node.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
	LitNull
)

// Literal is a constant appearing directly in source text.
type Literal struct {
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
}

func (Literal) node() {}
func (l Literal) String() string {
	switch l.Kind {
	case LitString:
		return fmt.Sprintf("%q", l.Str)
	case LitNumber:
		return fmt.Sprintf("%v", l.Num)
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	default:
		return "null"
	}
}

// BinaryOp is the textual operator of a Binary node, as read from
// source (e.g. "===", "&&"); package translate maps these onto
// expr.BinaryOp.
type BinaryOp string

// Binary is a two-operand operator expression.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (Binary) node() {}
func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryOp is the textual operator of a Unary node (e.g. "!", "-").
type UnaryOp string

// Unary is a one-operand operator expression.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (Unary) node() {}
func (u Unary) String() string { return fmt.Sprintf("%s%s", u.Op, u.Operand) }

// Call is a function or method call. Callee is either an Identifier
// (free function call, e.g. "COUNT(u.id)") or a PropertyAccess (method
// call, e.g. "s.trim()" or "x.includes(y)").
type Call struct {
	Callee Node
	Args   []Node
}

func (Call) node() {}
func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}

// Opaque preserves source text the parser did not recognize, for the
// last-resort verbatim-string-constant emit path.
type Opaque struct {
	Text string
}

func (Opaque) node()            {}
func (o Opaque) String() string { return o.Text }

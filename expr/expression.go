// Package expr implements the immutable expression IR: the algebraic
// representation of a query plan's columns, literals, operators, and
// clauses. Nodes carry no parent pointer and support structural cloning
// and equality, so a Plan can be freely shared and cloned by operators
// without aliasing hazards.
package expr

import "fmt"

// BinaryOp enumerates the binary operators the IR understands.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Equal
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	AndAlso
	OrElse
	In
)

var binaryOpSymbols = map[BinaryOp]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%",
	Equal: "=", NotEqual: "<>",
	LessThan: "<", LessOrEqual: "<=",
	GreaterThan: ">", GreaterOrEqual: ">=",
	AndAlso: "AND", OrElse: "OR", In: "IN",
}

func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// UnaryOp enumerates the unary operators the IR understands.
type UnaryOp int

const (
	Not UnaryOp = iota
	Negate
)

func (op UnaryOp) String() string {
	if op == Not {
		return "NOT"
	}
	return "-"
}

// AggregateKind enumerates the supported aggregate functions.
type AggregateKind int

const (
	CountAgg AggregateKind = iota
	SumAgg
	AvgAgg
	MinAgg
	MaxAgg
)

func (k AggregateKind) String() string {
	switch k {
	case CountAgg:
		return "COUNT"
	case SumAgg:
		return "SUM"
	case AvgAgg:
		return "AVG"
	case MinAgg:
		return "MIN"
	case MaxAgg:
		return "MAX"
	default:
		return "?"
	}
}

// JoinKind enumerates the supported join kinds.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
	RightOuterJoin
	FullOuterJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "INNER JOIN"
	case LeftOuterJoin:
		return "LEFT OUTER JOIN"
	case RightOuterJoin:
		return "RIGHT OUTER JOIN"
	case FullOuterJoin:
		return "FULL OUTER JOIN"
	default:
		return "?"
	}
}

// SubPlan is the narrow surface a query plan must expose to be embedded
// as a subquery expression. It exists so this package need not import
// the plan package (which itself imports expr), avoiding a cycle; the
// concrete implementation lives in package plan.
type SubPlan interface {
	// Marker method only — the emitter type-asserts back to *plan.Plan.
	IsSubPlan()
}

// Expression is the closed sum type at the heart of the IR. Each
// implementation is a marker method only; callers switch on the
// concrete type (teacher idiom: query.Pattern/query.Clause use the same
// marker-method discrimination rather than a visitor interface).
type Expression interface {
	expression()
	String() string
}

// Column is a qualified column reference. ColumnName "*" denotes the
// wildcard.
type Column struct {
	TableAlias string
	ColumnName string
}

func (Column) expression() {}
func (c Column) String() string {
	if c.ColumnName == "*" {
		return fmt.Sprintf("%s.*", c.TableAlias)
	}
	return fmt.Sprintf("%s.%s", c.TableAlias, c.ColumnName)
}

// Const is an inline literal value.
type Const struct {
	Value Scalar
}

func (Const) expression() {}
func (c Const) String() string { return c.Value.String() }

// Binary is a two-operand operator expression.
type Binary struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (Binary) expression() {}
func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Unary is a one-operand operator expression.
type Unary struct {
	Op      UnaryOp
	Operand Expression
}

func (Unary) expression() {}
func (u Unary) String() string { return fmt.Sprintf("%s %s", u.Op, u.Operand) }

// Func is a generic function call. Name is always uppercase.
// LIKE gets infix rendering from the emitter; every other name,
// CONCAT and the TRIM family included, renders as a plain call.
type Func struct {
	Name string
	Args []Expression
}

func (Func) expression() {}
func (f Func) String() string {
	return fmt.Sprintf("%s(%v)", f.Name, f.Args)
}

// Aggregate is an aggregation over an optional argument expression.
// Argument is nil only for COUNT(*).
type Aggregate struct {
	Kind     AggregateKind
	Argument Expression
}

func (Aggregate) expression() {}
func (a Aggregate) String() string {
	if a.Argument == nil {
		return fmt.Sprintf("%s(*)", a.Kind)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.Argument)
}

// Projection is a single SELECT-list item. Alias is empty when the item
// has no explicit output name.
type Projection struct {
	Expr  Expression
	Alias string
}

func (Projection) expression() {}
func (p Projection) String() string {
	if p.Alias == "" {
		return p.Expr.String()
	}
	return fmt.Sprintf("%s AS %s", p.Expr, p.Alias)
}

// Join describes a join clause against a target table.
type Join struct {
	Table     string
	Alias     string
	Condition Expression
	Kind      JoinKind
}

func (Join) expression() {}
func (j Join) String() string {
	return fmt.Sprintf("%s %s AS %s ON (%s)", j.Kind, j.Table, j.Alias, j.Condition)
}

// Ordering is one ORDER BY term.
type Ordering struct {
	Expr      Expression
	Ascending bool
}

func (Ordering) expression() {}
func (o Ordering) String() string {
	dir := "ASC"
	if !o.Ascending {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", o.Expr, dir)
}

// ScalarSubquery embeds a Plan in a position expecting a single value.
type ScalarSubquery struct {
	Plan SubPlan
}

func (ScalarSubquery) expression() {}
func (s ScalarSubquery) String() string { return "(subquery)" }

// ExistsSubquery tests for row existence in an embedded Plan.
type ExistsSubquery struct {
	Plan    SubPlan
	Negated bool
}

func (ExistsSubquery) expression() {}
func (e ExistsSubquery) String() string {
	if e.Negated {
		return "NOT EXISTS (subquery)"
	}
	return "EXISTS (subquery)"
}

// InSubquery tests lhs against the result set of an embedded Plan.
type InSubquery struct {
	Lhs     Expression
	Plan    SubPlan
	Negated bool
}

func (InSubquery) expression() {}
func (i InSubquery) String() string {
	if i.Negated {
		return fmt.Sprintf("%s NOT IN (subquery)", i.Lhs)
	}
	return fmt.Sprintf("%s IN (subquery)", i.Lhs)
}

package provider

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
)

// wireVersion is the single integer that versions the serialized plan
// form (§6). Bump it, and teach Deserialize to branch on it, before
// changing any field below.
const wireVersion = 1

// wireDoc is the envelope crossing the provider boundary.
type wireDoc struct {
	Version int       `json:"version"`
	Plan    *wirePlan `json:"plan"`
}

// wirePlan mirrors plan.Plan's emit-relevant fields only — the Property
// Tracker and known-aliases list exist to support further compilation,
// not execution, and are left unset (nil) on the receiving side.
type wirePlan struct {
	TableName   string      `json:"tableName"`
	Alias       string      `json:"alias"`
	Projections []*wireNode `json:"projections,omitempty"`
	Joins       []*wireNode `json:"joins,omitempty"`
	Where       *wireNode   `json:"where,omitempty"`
	GroupKeys   []*wireNode `json:"groupKeys,omitempty"`
	Having      *wireNode   `json:"having,omitempty"`
	Orderings   []*wireNode `json:"orderings,omitempty"`
	Limit       *int        `json:"limit,omitempty"`
	Offset      *int        `json:"offset,omitempty"`
}

// wireNode is a recursive tagged structure: every expr.Expression
// variant serializes through the same struct, discriminated by Kind,
// carrying only the fields its kind uses. Aliases and table names are
// included verbatim, undecorated — the receiving side owns dialect
// rendering (§6).
type wireNode struct {
	Kind string `json:"kind"`

	// column
	Table string `json:"table,omitempty"`
	Name  string `json:"name,omitempty"`

	// const
	ScalarKind string      `json:"scalarKind,omitempty"`
	Int        int64       `json:"int,omitempty"`
	Decimal    float64     `json:"decimal,omitempty"`
	Str        string      `json:"str,omitempty"`
	Bool       bool        `json:"bool,omitempty"`
	Time       string      `json:"time,omitempty"`
	List       []*wireNode `json:"list,omitempty"`

	// binary / unary
	Op      string    `json:"op,omitempty"`
	Left    *wireNode `json:"left,omitempty"`
	Right   *wireNode `json:"right,omitempty"`
	Operand *wireNode `json:"operand,omitempty"`

	// func
	FuncName string      `json:"funcName,omitempty"`
	Args     []*wireNode `json:"args,omitempty"`

	// aggregate
	AggKind  string    `json:"aggKind,omitempty"`
	Argument *wireNode `json:"argument,omitempty"`

	// projection
	Expr  *wireNode `json:"expr,omitempty"`
	Alias string    `json:"alias,omitempty"`

	// join
	Condition *wireNode `json:"condition,omitempty"`
	JoinKind  string    `json:"joinKind,omitempty"`

	// ordering
	Ascending bool `json:"ascending,omitempty"`

	// subqueries
	Lhs     *wireNode `json:"lhs,omitempty"`
	Negated bool      `json:"negated,omitempty"`
	Sub     *wirePlan `json:"plan,omitempty"`
}

// Serialize renders p's plan metadata into its versioned wire form.
func Serialize(p *plan.Plan) ([]byte, error) {
	return json.Marshal(wireDoc{Version: wireVersion, Plan: planToWire(p)})
}

// Deserialize reconstructs a *plan.Plan from its wire form, populated
// with exactly the fields package emit consumes. The Property Tracker
// and join-alias bookkeeping are not reconstructed — they exist to
// support further compilation against the plan, which a deserialized
// plan crossing the provider boundary has no further use for.
func Deserialize(data []byte) (*plan.Plan, error) {
	var doc wireDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("provider: malformed plan metadata: %w", err)
	}
	if doc.Version != wireVersion {
		return nil, fmt.Errorf("provider: unsupported plan metadata version %d", doc.Version)
	}
	if doc.Plan == nil {
		return nil, fmt.Errorf("provider: plan metadata missing plan field")
	}
	return wireToPlan(doc.Plan), nil
}

func planToWire(p *plan.Plan) *wirePlan {
	if p == nil {
		return nil
	}
	w := &wirePlan{
		TableName: p.TableName,
		Alias:     p.Alias,
		Where:     exprToWire(p.WhereExpr),
		Having:    exprToWire(p.HavingExpr),
		Limit:     p.Limit,
		Offset:    p.Offset,
	}
	for _, proj := range p.Projections {
		w.Projections = append(w.Projections, exprToWire(proj))
	}
	for _, j := range p.Joins {
		w.Joins = append(w.Joins, exprToWire(j))
	}
	for _, k := range p.GroupKeys {
		w.GroupKeys = append(w.GroupKeys, exprToWire(k))
	}
	for _, o := range p.Orderings {
		w.Orderings = append(w.Orderings, exprToWire(o))
	}
	return w
}

func wireToPlan(w *wirePlan) *plan.Plan {
	if w == nil {
		return nil
	}
	p := &plan.Plan{
		TableName: w.TableName,
		Alias:     w.Alias,
		WhereExpr:  wireToExpr(w.Where),
		HavingExpr: wireToExpr(w.Having),
		Limit:     w.Limit,
		Offset:    w.Offset,
	}
	for _, n := range w.Projections {
		p.Projections = append(p.Projections, wireToExpr(n).(expr.Projection))
	}
	for _, n := range w.Joins {
		p.Joins = append(p.Joins, wireToExpr(n).(expr.Join))
	}
	for _, n := range w.GroupKeys {
		p.GroupKeys = append(p.GroupKeys, wireToExpr(n))
	}
	for _, n := range w.Orderings {
		p.Orderings = append(p.Orderings, wireToExpr(n).(expr.Ordering))
	}
	return p
}

func exprToWire(e expr.Expression) *wireNode {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case expr.Column:
		return &wireNode{Kind: "column", Table: n.TableAlias, Name: n.ColumnName}

	case expr.Const:
		return scalarToWire(n.Value)

	case expr.Binary:
		return &wireNode{Kind: "binary", Op: n.Op.String(), Left: exprToWire(n.Left), Right: exprToWire(n.Right)}

	case expr.Unary:
		return &wireNode{Kind: "unary", Op: n.Op.String(), Operand: exprToWire(n.Operand)}

	case expr.Func:
		args := make([]*wireNode, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprToWire(a)
		}
		return &wireNode{Kind: "func", FuncName: n.Name, Args: args}

	case expr.Aggregate:
		return &wireNode{Kind: "aggregate", AggKind: n.Kind.String(), Argument: exprToWire(n.Argument)}

	case expr.Projection:
		return &wireNode{Kind: "projection", Expr: exprToWire(n.Expr), Alias: n.Alias}

	case expr.Join:
		return &wireNode{
			Kind: "join", Table: n.Table, Alias: n.Alias,
			Condition: exprToWire(n.Condition), JoinKind: n.Kind.String(),
		}

	case expr.Ordering:
		return &wireNode{Kind: "ordering", Expr: exprToWire(n.Expr), Ascending: n.Ascending}

	case expr.ScalarSubquery:
		return &wireNode{Kind: "scalarSubquery", Sub: planToWire(subPlanOf(n.Plan))}

	case expr.ExistsSubquery:
		return &wireNode{Kind: "existsSubquery", Sub: planToWire(subPlanOf(n.Plan)), Negated: n.Negated}

	case expr.InSubquery:
		return &wireNode{
			Kind: "inSubquery", Lhs: exprToWire(n.Lhs),
			Sub: planToWire(subPlanOf(n.Plan)), Negated: n.Negated,
		}

	default:
		return &wireNode{Kind: "unknown"}
	}
}

func subPlanOf(s expr.SubPlan) *plan.Plan {
	p, _ := s.(*plan.Plan)
	return p
}

func scalarToWire(s expr.Scalar) *wireNode {
	n := &wireNode{Kind: "const", ScalarKind: s.Kind.String()}
	switch s.Kind {
	case expr.KindInt:
		n.Int = s.Int
	case expr.KindDecimal:
		n.Decimal = s.Decimal
	case expr.KindString:
		n.Str = s.Str
	case expr.KindBool:
		n.Bool = s.Bool
	case expr.KindDateTime:
		n.Time = s.Time.Format(time.RFC3339Nano)
	case expr.KindList:
		n.List = make([]*wireNode, len(s.List))
		for i, item := range s.List {
			n.List[i] = scalarToWire(item)
		}
	}
	return n
}

func wireToScalar(n *wireNode) expr.Scalar {
	switch n.ScalarKind {
	case "int":
		return expr.IntScalar(n.Int)
	case "decimal":
		return expr.DecimalScalar(n.Decimal)
	case "string":
		return expr.StringScalar(n.Str)
	case "bool":
		return expr.BoolScalar(n.Bool)
	case "datetime":
		t, _ := time.Parse(time.RFC3339Nano, n.Time)
		return expr.DateTimeScalar(t)
	case "list":
		items := make([]expr.Scalar, len(n.List))
		for i, item := range n.List {
			items[i] = wireToScalar(item)
		}
		return expr.ListScalar(items)
	default:
		return expr.NullScalar()
	}
}

var binaryOpsByWire = map[string]expr.BinaryOp{
	"+": expr.Add, "-": expr.Sub, "*": expr.Mul, "/": expr.Div, "%": expr.Mod,
	"=": expr.Equal, "<>": expr.NotEqual,
	"<": expr.LessThan, "<=": expr.LessOrEqual,
	">": expr.GreaterThan, ">=": expr.GreaterOrEqual,
	"AND": expr.AndAlso, "OR": expr.OrElse, "IN": expr.In,
}

var aggKindsByWire = map[string]expr.AggregateKind{
	"COUNT": expr.CountAgg, "SUM": expr.SumAgg, "AVG": expr.AvgAgg,
	"MIN": expr.MinAgg, "MAX": expr.MaxAgg,
}

var joinKindsByWire = map[string]expr.JoinKind{
	"INNER JOIN": expr.InnerJoin, "LEFT OUTER JOIN": expr.LeftOuterJoin,
	"RIGHT OUTER JOIN": expr.RightOuterJoin, "FULL OUTER JOIN": expr.FullOuterJoin,
}

func wireToExpr(n *wireNode) expr.Expression {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "column":
		return expr.Column{TableAlias: n.Table, ColumnName: n.Name}

	case "const":
		return expr.Const{Value: wireToScalar(n)}

	case "binary":
		return expr.Binary{Op: binaryOpsByWire[n.Op], Left: wireToExpr(n.Left), Right: wireToExpr(n.Right)}

	case "unary":
		op := expr.Not
		if n.Op == "-" {
			op = expr.Negate
		}
		return expr.Unary{Op: op, Operand: wireToExpr(n.Operand)}

	case "func":
		args := make([]expr.Expression, len(n.Args))
		for i, a := range n.Args {
			args[i] = wireToExpr(a)
		}
		return expr.Func{Name: n.FuncName, Args: args}

	case "aggregate":
		return expr.Aggregate{Kind: aggKindsByWire[n.AggKind], Argument: wireToExpr(n.Argument)}

	case "projection":
		return expr.Projection{Expr: wireToExpr(n.Expr), Alias: n.Alias}

	case "join":
		return expr.Join{Table: n.Table, Alias: n.Alias, Condition: wireToExpr(n.Condition), Kind: joinKindsByWire[n.JoinKind]}

	case "ordering":
		return expr.Ordering{Expr: wireToExpr(n.Expr), Ascending: n.Ascending}

	case "scalarSubquery":
		return expr.ScalarSubquery{Plan: wireToPlan(n.Sub)}

	case "existsSubquery":
		return expr.ExistsSubquery{Plan: wireToPlan(n.Sub), Negated: n.Negated}

	case "inSubquery":
		return expr.InSubquery{Lhs: wireToExpr(n.Lhs), Plan: wireToPlan(n.Sub), Negated: n.Negated}

	default:
		return nil
	}
}

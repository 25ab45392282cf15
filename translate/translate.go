// Package translate walks the mini-AST produced by package lambda and
// emits expression IR (package expr), consulting the property tracker
// and bound-variable bindings to resolve identifiers and property
// chains to qualified columns.
package translate

import (
	"fmt"
	"strings"

	"github.com/kestrelquery/queryable/ast"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/qerr"
)

var aggregateNames = map[string]expr.AggregateKind{
	"COUNT": expr.CountAgg,
	"SUM":   expr.SumAgg,
	"AVG":   expr.AvgAgg,
	"MIN":   expr.MinAgg,
	"MAX":   expr.MaxAgg,
}

var binaryOps = map[ast.BinaryOp]expr.BinaryOp{
	"===": expr.Equal, "==": expr.Equal,
	"!==": expr.NotEqual, "!=": expr.NotEqual,
	">": expr.GreaterThan, ">=": expr.GreaterOrEqual,
	"<": expr.LessThan, "<=": expr.LessOrEqual,
	"&&": expr.AndAlso, "||": expr.OrElse,
	"+": expr.Add, "-": expr.Sub, "*": expr.Mul, "/": expr.Div, "%": expr.Mod,
}

// Expression translates a mini-AST node — typically the body of a
// single-expression lambda — into IR.
func Expression(node ast.Node, ctx *Context, source string) (expr.Expression, error) {
	switch n := node.(type) {
	case ast.Literal:
		return translateLiteral(n)
	case ast.Identifier:
		return translateIdentifier(n, ctx, source)
	case ast.PropertyAccess:
		return translatePropertyAccess(n, ctx, source)
	case ast.Binary:
		return translateBinary(n, ctx, source)
	case ast.Unary:
		return translateUnary(n, ctx, source)
	case ast.Call:
		return translateCall(n, ctx, source)
	case ast.Opaque:
		return expr.Const{Value: expr.StringScalar(n.Text)}, nil
	default:
		return nil, qerr.Wrap(fmt.Errorf("%w: unrecognized node %T", qerr.ErrUnparseableLambda, node), source)
	}
}

func translateLiteral(n ast.Literal) (expr.Expression, error) {
	switch n.Kind {
	case ast.LitString:
		return expr.Const{Value: expr.StringScalar(n.Str)}, nil
	case ast.LitNumber:
		if n.Num == float64(int64(n.Num)) {
			return expr.Const{Value: expr.IntScalar(int64(n.Num))}, nil
		}
		return expr.Const{Value: expr.DecimalScalar(n.Num)}, nil
	case ast.LitBool:
		return expr.Const{Value: expr.BoolScalar(n.Bool)}, nil
	default:
		return expr.Const{Value: expr.NullScalar()}, nil
	}
}

// translateIdentifier handles a bare name with no further property
// access — §4.4 rule 1/2/3 collapsed to the zero-length-chain case.
func translateIdentifier(n ast.Identifier, ctx *Context, source string) (expr.Expression, error) {
	if n.Name == ctx.firstParam() {
		return expr.Column{TableAlias: ctx.DefaultAlias, ColumnName: "*"}, nil
	}
	if prov, ok := ctx.Tracker.Lookup(n.Name); ok {
		return expr.Column{TableAlias: prov.Alias, ColumnName: prov.Column}, nil
	}
	if prov, ok := ctx.Tracker.LookupWildcard(n.Name); ok {
		return expr.Column{TableAlias: prov.Alias, ColumnName: "*"}, nil
	}
	return nil, qerr.Wrap(fmt.Errorf("%w: identifier %q", qerr.ErrUnresolvedProperty, n.Name), source)
}

// translatePropertyAccess implements §4.4's identifier-resolution and
// nested-property-resolution rules.
func translatePropertyAccess(n ast.PropertyAccess, ctx *Context, source string) (expr.Expression, error) {
	baseIdent, isIdent := n.Base.(ast.Identifier)

	// Rule 2: second parameter roots a bound-variable lookup.
	if isIdent && baseIdent.Name == ctx.secondParam() {
		return translateBoundVariable(n.Path, ctx, source)
	}

	// Rule 1: first parameter roots a column reference against the
	// default alias, possibly through nested-join resolution.
	if isIdent && baseIdent.Name == ctx.firstParam() {
		if len(n.Path) == 1 {
			return expr.Column{TableAlias: ctx.DefaultAlias, ColumnName: n.Path[0]}, nil
		}
		return resolveNested(n.Path, ctx, source)
	}

	// Rule 3: the head is itself a key in the property tracker.
	if isIdent {
		if prov, ok := ctx.Tracker.Lookup(baseIdent.Name); ok {
			col := prov.Column
			if len(n.Path) > 0 {
				col = n.Path[len(n.Path)-1]
			}
			return expr.Column{TableAlias: prov.Alias, ColumnName: col}, nil
		}
		if prov, ok := ctx.Tracker.LookupWildcard(baseIdent.Name); ok {
			col := "*"
			if len(n.Path) > 0 {
				col = n.Path[len(n.Path)-1]
			}
			return expr.Column{TableAlias: prov.Alias, ColumnName: col}, nil
		}
	}

	return nil, qerr.Wrap(fmt.Errorf("%w: chain %s", qerr.ErrUnresolvedProperty, n.String()), source)
}

// resolveNested implements §4.4's four fallback strategies for a chain
// of length >= 3 rooted at the first parameter, e.g. "joined.order.amount".
func resolveNested(path []string, ctx *Context, source string) (expr.Expression, error) {
	intermediate := path[0]
	column := path[len(path)-1]

	// (a) Direct registration: tracker has the intermediate name.
	if prov, ok := ctx.Tracker.Lookup(intermediate); ok {
		return expr.Column{TableAlias: prov.Alias, ColumnName: column}, nil
	}

	// (b) Wildcard registration: tracker has "intermediate.*".
	if prov, ok := ctx.Tracker.LookupWildcard(intermediate); ok {
		return expr.Column{TableAlias: prov.Alias, ColumnName: column}, nil
	}

	// (c) Scan all tracker entries: any entry whose path includes the
	// intermediate name.
	if prov, ok := ctx.Tracker.ScanByPathSegment(intermediate); ok {
		return expr.Column{TableAlias: prov.Alias, ColumnName: column}, nil
	}

	// (d) Scan known table aliases: alias equal to, or sharing its
	// first letter with, the intermediate name.
	for _, ka := range ctx.Aliases {
		if ka.Alias == intermediate {
			return expr.Column{TableAlias: ka.Alias, ColumnName: column}, nil
		}
	}
	for _, ka := range ctx.Aliases {
		if len(ka.Alias) > 0 && len(intermediate) > 0 && ka.Alias[0] == intermediate[0] {
			return expr.Column{TableAlias: ka.Alias, ColumnName: column}, nil
		}
	}

	// All strategies failed: fall back to the default alias per §4.4's
	// closing sentence ("leave correctness to tests").
	return expr.Column{TableAlias: ctx.DefaultAlias, ColumnName: column}, nil
}

// translateBoundVariable resolves a second-parameter property chain
// against ctx.Variables (§4.4 rule 2). A missing key yields a null
// constant and, when ctx.Logger is set, a warning.
func translateBoundVariable(path []string, ctx *Context, source string) (expr.Expression, error) {
	if len(path) == 0 {
		return expr.Const{Value: expr.NullScalar()}, nil
	}
	key := path[0]
	v, ok := ctx.Variables[key]
	if !ok {
		ctx.Logger.Warn("bound variable %q not found, substituting null: in %q", key, source)
		return expr.Const{Value: expr.NullScalar()}, nil
	}
	return expr.Const{Value: v}, nil
}

func translateBinary(n ast.Binary, ctx *Context, source string) (expr.Expression, error) {
	left, err := Expression(n.Left, ctx, source)
	if err != nil {
		return nil, err
	}
	right, err := Expression(n.Right, ctx, source)
	if err != nil {
		return nil, err
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return nil, qerr.Wrap(fmt.Errorf("%w: %q", qerr.ErrUnsupportedOperator, n.Op), source)
	}
	return expr.Binary{Op: op, Left: left, Right: right}, nil
}

func translateUnary(n ast.Unary, ctx *Context, source string) (expr.Expression, error) {
	operand, err := Expression(n.Operand, ctx, source)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "!":
		// Special form: "!x.includes(y)" — the call translation already
		// produces Binary(In, ...); negate it with Unary(Not, ...).
		return expr.Unary{Op: expr.Not, Operand: operand}, nil
	case "-":
		return expr.Unary{Op: expr.Negate, Operand: operand}, nil
	default:
		return nil, qerr.Wrap(fmt.Errorf("%w: unary %q", qerr.ErrUnsupportedOperator, n.Op), source)
	}
}

func translateCall(n ast.Call, ctx *Context, source string) (expr.Expression, error) {
	// Array literal helper synthesized by the parser.
	if ident, ok := n.Callee.(ast.Identifier); ok && ident.Name == "__array" {
		items := make([]expr.Scalar, 0, len(n.Args))
		for _, a := range n.Args {
			e, err := Expression(a, ctx, source)
			if err != nil {
				return nil, err
			}
			c, ok := e.(expr.Const)
			if !ok {
				return nil, qerr.Wrap(fmt.Errorf("%w: array literal element is not constant", qerr.ErrUnparseableLambda), source)
			}
			items = append(items, c.Value)
		}
		return expr.Const{Value: expr.ListScalar(items)}, nil
	}

	// Free function call: uppercase aggregate name.
	if ident, ok := n.Callee.(ast.Identifier); ok {
		if kind, ok := aggregateNames[strings.ToUpper(ident.Name)]; ok {
			return translateAggregateCall(kind, n.Args, ctx, source)
		}
		// Any other free call: generic function.
		args, err := translateArgs(n.Args, ctx, source)
		if err != nil {
			return nil, err
		}
		return expr.Func{Name: strings.ToUpper(ident.Name), Args: args}, nil
	}

	// Method call: Callee is a property chain whose last segment names
	// the method and whose prefix is the receiver.
	pa, ok := n.Callee.(ast.PropertyAccess)
	if !ok {
		return nil, qerr.Wrap(fmt.Errorf("%w: unsupported call target", qerr.ErrUnparseableLambda), source)
	}
	method := pa.Path[len(pa.Path)-1]
	var receiver ast.Node
	if len(pa.Path) == 1 {
		receiver = pa.Base
	} else {
		receiver = ast.PropertyAccess{Base: pa.Base, Path: pa.Path[:len(pa.Path)-1]}
	}

	return translateMethodCall(method, receiver, n.Args, ctx, source)
}

func translateArgs(nodes []ast.Node, ctx *Context, source string) ([]expr.Expression, error) {
	out := make([]expr.Expression, 0, len(nodes))
	for _, a := range nodes {
		e, err := Expression(a, ctx, source)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func translateAggregateCall(kind expr.AggregateKind, args []ast.Node, ctx *Context, source string) (expr.Expression, error) {
	if len(args) == 0 {
		return expr.Aggregate{Kind: kind}, nil
	}
	arg, err := Expression(args[0], ctx, source)
	if err != nil {
		return nil, err
	}
	return expr.Aggregate{Kind: kind, Argument: arg}, nil
}

// translateMethodCall implements §4.4's special forms: includes (array
// membership or substring search), trim family, and the generic
// fallback to an uppercase Function call.
func translateMethodCall(method string, receiverNode ast.Node, argNodes []ast.Node, ctx *Context, source string) (expr.Expression, error) {
	receiver, err := Expression(receiverNode, ctx, source)
	if err != nil {
		return nil, err
	}

	switch method {
	case "includes":
		if len(argNodes) != 1 {
			return nil, qerr.Wrap(fmt.Errorf("%w: includes() takes exactly one argument", qerr.ErrUnparseableLambda), source)
		}
		// Bound-variable list membership: receiver is a second-param
		// property chain resolving to a list Constant.
		if isSecondParamChain(receiverNode, ctx) {
			arg, err := Expression(argNodes[0], ctx, source)
			if err != nil {
				return nil, err
			}
			return expr.Binary{Op: expr.In, Left: arg, Right: receiver}, nil
		}
		// String substring search.
		needle, err := Expression(argNodes[0], ctx, source)
		if err != nil {
			return nil, err
		}
		pattern := expr.Func{Name: "CONCAT", Args: []expr.Expression{
			expr.Const{Value: expr.StringScalar("%")},
			needle,
			expr.Const{Value: expr.StringScalar("%")},
		}}
		return expr.Func{Name: "LIKE", Args: []expr.Expression{receiver, pattern}}, nil

	case "trim":
		return expr.Func{Name: "LTRIM", Args: []expr.Expression{
			expr.Func{Name: "RTRIM", Args: []expr.Expression{receiver}},
		}}, nil
	case "trimStart", "trimLeft":
		return expr.Func{Name: "LTRIM", Args: []expr.Expression{receiver}}, nil
	case "trimEnd", "trimRight":
		return expr.Func{Name: "RTRIM", Args: []expr.Expression{receiver}}, nil

	default:
		args, err := translateArgs(argNodes, ctx, source)
		if err != nil {
			return nil, err
		}
		all := append([]expr.Expression{receiver}, args...)
		return expr.Func{Name: strings.ToUpper(method), Args: all}, nil
	}
}

// isSecondParamChain reports whether node is a property access rooted
// at the lambda's second parameter (the bound-variables parameter).
func isSecondParamChain(node ast.Node, ctx *Context) bool {
	pa, ok := node.(ast.PropertyAccess)
	if !ok {
		return false
	}
	ident, ok := pa.Base.(ast.Identifier)
	return ok && ident.Name == ctx.secondParam() && ctx.secondParam() != ""
}

// Projections translates a selector's body into an ordered list of
// SELECT-list items: an ObjectLiteral body yields one Projection per
// key (with spread expansion), a bare expression yields a single
// Projection whose alias defaults to the underlying column name.
func Projections(body ast.Node, ctx *Context, source string) ([]expr.Projection, error) {
	if obj, ok := body.(ast.ObjectLiteral); ok {
		return translateObjectProjections(obj, ctx, source)
	}

	e, err := Expression(body, ctx, source)
	if err != nil {
		return nil, err
	}
	alias := ""
	if col, ok := e.(expr.Column); ok && col.ColumnName != "*" {
		alias = col.ColumnName
	}
	return []expr.Projection{{Expr: e, Alias: alias}}, nil
}

func translateObjectProjections(obj ast.ObjectLiteral, ctx *Context, source string) ([]expr.Projection, error) {
	var out []expr.Projection
	for _, prop := range obj.Properties {
		if prop.Spread {
			ident, ok := prop.Value.(ast.Identifier)
			if !ok {
				return nil, qerr.Wrap(fmt.Errorf("%w: spread target must be an identifier", qerr.ErrUnparseableLambda), source)
			}
			out = append(out, spreadProjections(ident.Name, ctx)...)
			continue
		}
		e, err := Expression(prop.Value, ctx, source)
		if err != nil {
			return nil, err
		}
		out = append(out, expr.Projection{Expr: e, Alias: prop.Key})
	}
	return out, nil
}

// spreadProjections expands "...x" into one Projection per column known
// for x's provenance: every column of the source table when x was
// registered as a wildcard, otherwise every registered column whose
// provenance path starts with x (§4.4).
func spreadProjections(name string, ctx *Context) []expr.Projection {
	var out []expr.Projection
	if prov, ok := ctx.Tracker.LookupWildcard(name); ok {
		for _, entry := range ctx.Tracker.Entries() {
			if entry.Provenance.Alias == prov.Alias && entry.Provenance.Column != "*" {
				out = append(out, expr.Projection{
					Expr:  expr.Column{TableAlias: entry.Provenance.Alias, ColumnName: entry.Provenance.Column},
					Alias: lastSegment(entry.Name),
				})
			}
		}
		return out
	}
	for _, entry := range ctx.Tracker.Entries() {
		if len(entry.Provenance.Path) > 0 && entry.Provenance.Path[0] == name {
			out = append(out, expr.Projection{
				Expr:  expr.Column{TableAlias: entry.Provenance.Alias, ColumnName: entry.Provenance.Column},
				Alias: lastSegment(entry.Name),
			})
		}
	}
	return out
}

func lastSegment(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// GroupKeys translates a groupBy selector's array-literal body into an
// ordered list of Column expressions.
func GroupKeys(body ast.Node, ctx *Context, source string) ([]expr.Expression, error) {
	call, ok := body.(ast.Call)
	if !ok {
		return nil, qerr.Wrap(fmt.Errorf("%w: groupBy selector must return an array literal", qerr.ErrUnparseableLambda), source)
	}
	ident, ok := call.Callee.(ast.Identifier)
	if !ok || ident.Name != "__array" {
		return nil, qerr.Wrap(fmt.Errorf("%w: groupBy selector must return an array literal", qerr.ErrUnparseableLambda), source)
	}
	keys := make([]expr.Expression, 0, len(call.Args))
	for _, a := range call.Args {
		e, err := Expression(a, ctx, source)
		if err != nil {
			return nil, err
		}
		keys = append(keys, e)
	}
	return keys, nil
}

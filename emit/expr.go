package emit

import (
	"fmt"
	"strings"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
)

// emitExpr renders e as T-SQL. bodyIndent is the indentation prefix in
// effect for the innermost enclosing plan's own clause lines — a nested
// subquery's opening paren sits one level deeper than it, and the
// subquery's own clauses one level deeper still (§4.6).
func emitExpr(e expr.Expression, bodyIndent string) string {
	switch n := e.(type) {
	case expr.Column:
		if n.ColumnName == "*" {
			return quote(n.TableAlias) + ".*"
		}
		return quoteColumn(n.TableAlias, n.ColumnName)

	case expr.Const:
		return literal(n.Value)

	case expr.Binary:
		return emitBinary(n, bodyIndent)

	case expr.Unary:
		operand := emitExpr(n.Operand, bodyIndent)
		if n.Op == expr.Not {
			return fmt.Sprintf("NOT (%s)", operand)
		}
		return fmt.Sprintf("-%s", operand)

	case expr.Func:
		return emitFunc(n, bodyIndent)

	case expr.Aggregate:
		if n.Argument == nil {
			return fmt.Sprintf("%s(*)", n.Kind)
		}
		return fmt.Sprintf("%s(%s)", n.Kind, emitExpr(n.Argument, bodyIndent))

	case expr.ScalarSubquery:
		return emitSubqueryParen(bodyIndent, n.Plan)

	case expr.ExistsSubquery:
		prefix := "EXISTS"
		if n.Negated {
			prefix = "NOT EXISTS"
		}
		return prefix + emitSubqueryParen(bodyIndent, n.Plan)

	case expr.InSubquery:
		lhs := emitExpr(n.Lhs, bodyIndent)
		op := "IN"
		if n.Negated {
			op = "NOT IN"
		}
		return lhs + " " + op + emitSubqueryParen(bodyIndent, n.Plan)

	default:
		return fmt.Sprintf("%v", e)
	}
}

// emitBinary renders a two-operand expression. IN is exempted from the
// "every Binary is parenthesized" rule because its own bracketed operand
// list already delimits it visually; AndAlso/OrElse chains are flattened
// into one enclosure rather than nesting a pair of parens per operand.
func emitBinary(b expr.Binary, bodyIndent string) string {
	if b.Op == expr.In {
		if isEmptyList(b.Right) {
			// SQL Server rejects "IN ()"; rewrite to an always-false
			// predicate rather than emit invalid syntax (§9 open question).
			return "(1 = 0)"
		}
		return fmt.Sprintf("%s IN %s", emitExpr(b.Left, bodyIndent), emitExpr(b.Right, bodyIndent))
	}
	if b.Op == expr.AndAlso || b.Op == expr.OrElse {
		leaves := flattenChain(b.Op, b)
		parts := make([]string, len(leaves))
		for i, leaf := range leaves {
			// A comparison leaf shares the chain's enclosure; a nested
			// chain of the other logical operator keeps its own parens.
			if lb, ok := leaf.(expr.Binary); ok && lb.Op != expr.AndAlso && lb.Op != expr.OrElse && lb.Op != expr.In {
				parts[i] = fmt.Sprintf("%s %s %s", emitExpr(lb.Left, bodyIndent), lb.Op, emitExpr(lb.Right, bodyIndent))
				continue
			}
			parts[i] = emitExpr(leaf, bodyIndent)
		}
		return "(" + strings.Join(parts, " "+b.Op.String()+" ") + ")"
	}
	return fmt.Sprintf("(%s %s %s)", emitExpr(b.Left, bodyIndent), b.Op, emitExpr(b.Right, bodyIndent))
}

// flattenChain gathers every leaf of a same-operator AndAlso/OrElse tree,
// left-to-right, so e.g. where(a).where(b).where(c) renders under one
// enclosure instead of three nested ones.
func flattenChain(op expr.BinaryOp, e expr.Expression) []expr.Expression {
	b, ok := e.(expr.Binary)
	if !ok || b.Op != op {
		return []expr.Expression{e}
	}
	return append(flattenChain(op, b.Left), flattenChain(op, b.Right)...)
}

func isEmptyList(e expr.Expression) bool {
	c, ok := e.(expr.Const)
	return ok && c.Value.Kind == expr.KindList && len(c.Value.List) == 0
}

func emitFunc(f expr.Func, bodyIndent string) string {
	switch f.Name {
	case "LIKE":
		return fmt.Sprintf("%s LIKE %s", emitExpr(f.Args[0], bodyIndent), emitExpr(f.Args[1], bodyIndent))
	default:
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			args[i] = emitExpr(a, bodyIndent)
		}
		return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
	}
}

// emitSubqueryParen renders a nested plan wrapped in parentheses on its
// own indented line, one level deeper than bodyIndent; the subquery's
// own clause lines sit one level deeper still (§4.6).
func emitSubqueryParen(bodyIndent string, sub expr.SubPlan) string {
	p, ok := sub.(*plan.Plan)
	if !ok || p == nil {
		return " (subquery)"
	}
	parenIndent := bodyIndent + "  "
	innerIndent := parenIndent + "  "
	return "\n" + parenIndent + "(" + emitPlan(p, innerIndent) + ")"
}

package plan

import (
	"fmt"

	"github.com/kestrelquery/queryable/ast"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/qerr"
	"github.com/kestrelquery/queryable/translate"
)

// GroupBy translates a selector returning an array literal of keys into
// the plan's group-keys, each a Column expression.
func (p *Plan) GroupBy(selector string) (*Plan, error) {
	clone := p.Clone()
	lam, err := parseLambda(selector)
	if err != nil {
		return nil, err
	}
	ctx := clone.translateContext(lam.Params)
	keys, err := translate.GroupKeys(lam.Body, ctx, selector)
	if err != nil {
		return nil, err
	}
	clone.GroupKeys = keys
	return clone, nil
}

// Having ANDs a translated predicate into the plan's HAVING clause.
func (p *Plan) Having(predicate string) (*Plan, error) {
	clone := p.Clone()
	e, err := clone.compileExpr(predicate)
	if err != nil {
		return nil, err
	}
	clone.HavingExpr = andClause(clone.HavingExpr, e)
	return clone, nil
}

// HavingCount builds its predicate directly from a single-parameter
// lambda whose parameter stands for COUNT(*)'s result, e.g. "c=>c>5".
func (p *Plan) HavingCount(predicate string) (*Plan, error) {
	return p.havingAggregate(expr.CountAgg, "", predicate)
}

// HavingSum/Avg/Min/Max take a column selector plus a predicate over
// the aggregate's result, e.g. havingAvg("u=>u.age", "a=>a>30").
func (p *Plan) HavingSum(selector, predicate string) (*Plan, error) {
	return p.havingAggregate(expr.SumAgg, selector, predicate)
}

func (p *Plan) HavingAvg(selector, predicate string) (*Plan, error) {
	return p.havingAggregate(expr.AvgAgg, selector, predicate)
}

func (p *Plan) HavingMin(selector, predicate string) (*Plan, error) {
	return p.havingAggregate(expr.MinAgg, selector, predicate)
}

func (p *Plan) HavingMax(selector, predicate string) (*Plan, error) {
	return p.havingAggregate(expr.MaxAgg, selector, predicate)
}

func (p *Plan) havingAggregate(kind expr.AggregateKind, selector, predicate string) (*Plan, error) {
	clone := p.Clone()

	var arg expr.Expression
	if selector != "" {
		e, err := clone.compileExpr(selector)
		if err != nil {
			return nil, err
		}
		arg = e
	}
	aggExpr := expr.Aggregate{Kind: kind, Argument: arg}

	lam, err := parseLambda(predicate)
	if err != nil {
		return nil, err
	}
	if len(lam.Params) != 1 {
		return nil, qerr.Wrap(fmt.Errorf("%w: having predicate must take exactly one parameter", qerr.ErrUnparseableLambda), predicate)
	}
	bin, ok := lam.Body.(ast.Binary)
	if !ok {
		return nil, qerr.Wrap(fmt.Errorf("%w: having predicate must be a comparison", qerr.ErrUnparseableLambda), predicate)
	}
	op, ok := comparisonOp(bin.Op)
	if !ok {
		return nil, qerr.Wrap(fmt.Errorf("%w: %q", qerr.ErrUnsupportedOperator, bin.Op), predicate)
	}

	// bin.Left is the virtual parameter naming the aggregate's result;
	// bin.Right supplies the comparison constant.
	ctx := clone.translateContext(nil)
	rhs, err := translate.Expression(bin.Right, ctx, predicate)
	if err != nil {
		return nil, err
	}

	clone.HavingExpr = andClause(clone.HavingExpr, expr.Binary{Op: op, Left: aggExpr, Right: rhs})
	return clone, nil
}

func comparisonOp(op ast.BinaryOp) (expr.BinaryOp, bool) {
	switch op {
	case "===", "==":
		return expr.Equal, true
	case "!==", "!=":
		return expr.NotEqual, true
	case ">":
		return expr.GreaterThan, true
	case ">=":
		return expr.GreaterOrEqual, true
	case "<":
		return expr.LessThan, true
	case "<=":
		return expr.LessOrEqual, true
	default:
		return 0, false
	}
}

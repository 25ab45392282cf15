package plan

import "github.com/kestrelquery/queryable/expr"

// OrderBy appends an ascending ORDER BY term. Multiple calls accumulate
// in call order; no deduplication is performed (spec round-trip law).
func (p *Plan) OrderBy(selector string) (*Plan, error) {
	return p.appendOrdering(selector, true)
}

// OrderByDesc appends a descending ORDER BY term.
func (p *Plan) OrderByDesc(selector string) (*Plan, error) {
	return p.appendOrdering(selector, false)
}

func (p *Plan) appendOrdering(selector string, ascending bool) (*Plan, error) {
	clone := p.Clone()
	e, err := clone.compileExpr(selector)
	if err != nil {
		return nil, err
	}
	clone.Orderings = append(clone.Orderings, expr.Ordering{Expr: e, Ascending: ascending})
	return clone, nil
}

// OrderByCount/Sum/Avg/Min/Max append an Ordering whose expression is
// the corresponding aggregate. selector is empty for OrderByCount's
// COUNT(*) form.
func (p *Plan) OrderByCount(selector string, ascending bool) (*Plan, error) {
	return p.appendAggregateOrdering(expr.CountAgg, selector, ascending)
}

func (p *Plan) OrderBySum(selector string, ascending bool) (*Plan, error) {
	return p.appendAggregateOrdering(expr.SumAgg, selector, ascending)
}

func (p *Plan) OrderByAvg(selector string, ascending bool) (*Plan, error) {
	return p.appendAggregateOrdering(expr.AvgAgg, selector, ascending)
}

func (p *Plan) OrderByMin(selector string, ascending bool) (*Plan, error) {
	return p.appendAggregateOrdering(expr.MinAgg, selector, ascending)
}

func (p *Plan) OrderByMax(selector string, ascending bool) (*Plan, error) {
	return p.appendAggregateOrdering(expr.MaxAgg, selector, ascending)
}

func (p *Plan) appendAggregateOrdering(kind expr.AggregateKind, selector string, ascending bool) (*Plan, error) {
	clone := p.Clone()
	var arg expr.Expression
	if selector != "" {
		e, err := clone.compileExpr(selector)
		if err != nil {
			return nil, err
		}
		arg = e
	}
	clone.Orderings = append(clone.Orderings, expr.Ordering{
		Expr:      expr.Aggregate{Kind: kind, Argument: arg},
		Ascending: ascending,
	})
	return clone, nil
}

package plan

import "github.com/kestrelquery/queryable/expr"

// Count appends a COUNT aggregate projection. An empty selector
// produces COUNT(*); an empty alias defaults to "count".
func (p *Plan) Count(selector, alias string) (*Plan, error) {
	return p.appendAggregateProjection(expr.CountAgg, selector, alias, "count")
}

// Sum appends a SUM aggregate projection; selector is required.
func (p *Plan) Sum(selector, alias string) (*Plan, error) {
	return p.appendAggregateProjection(expr.SumAgg, selector, alias, "sum")
}

// Avg appends an AVG aggregate projection; selector is required.
func (p *Plan) Avg(selector, alias string) (*Plan, error) {
	return p.appendAggregateProjection(expr.AvgAgg, selector, alias, "avg")
}

// Min appends a MIN aggregate projection; selector is required.
func (p *Plan) Min(selector, alias string) (*Plan, error) {
	return p.appendAggregateProjection(expr.MinAgg, selector, alias, "min")
}

// Max appends a MAX aggregate projection; selector is required.
func (p *Plan) Max(selector, alias string) (*Plan, error) {
	return p.appendAggregateProjection(expr.MaxAgg, selector, alias, "max")
}

func (p *Plan) appendAggregateProjection(kind expr.AggregateKind, selector, alias, defaultAlias string) (*Plan, error) {
	clone := p.Clone()

	var arg expr.Expression
	if selector != "" {
		e, err := clone.compileExpr(selector)
		if err != nil {
			return nil, err
		}
		arg = e
	}
	if alias == "" {
		alias = defaultAlias
	}

	clone.Projections = append(clone.Projections, expr.Projection{
		Expr:  expr.Aggregate{Kind: kind, Argument: arg},
		Alias: alias,
	})
	return clone, nil
}

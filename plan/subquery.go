package plan

import "github.com/kestrelquery/queryable/expr"

// WhereIn ANDs "lhs IN (subquery)" into the filter; WhereNotIn ANDs the
// negated form.
func (p *Plan) WhereIn(selector string, subquery *Plan) (*Plan, error) {
	return p.whereInSubquery(selector, subquery, false)
}

func (p *Plan) WhereNotIn(selector string, subquery *Plan) (*Plan, error) {
	return p.whereInSubquery(selector, subquery, true)
}

func (p *Plan) whereInSubquery(selector string, subquery *Plan, negated bool) (*Plan, error) {
	clone := p.Clone()
	col, err := clone.compileColumn(selector)
	if err != nil {
		return nil, err
	}
	clone.WhereExpr = andClause(clone.WhereExpr, expr.InSubquery{Lhs: col, Plan: subquery, Negated: negated})
	return clone, nil
}

// WhereExists/WhereNotExists AND an EXISTS/NOT EXISTS test into the
// filter.
func (p *Plan) WhereExists(subquery *Plan) (*Plan, error) {
	return p.whereExistsSubquery(subquery, false)
}

func (p *Plan) WhereNotExists(subquery *Plan) (*Plan, error) {
	return p.whereExistsSubquery(subquery, true)
}

func (p *Plan) whereExistsSubquery(subquery *Plan, negated bool) (*Plan, error) {
	clone := p.Clone()
	clone.WhereExpr = andClause(clone.WhereExpr, expr.ExistsSubquery{Plan: subquery, Negated: negated})
	return clone, nil
}

// WhereEqual/NotEqual/GreaterThan/GreaterOrEqual/LessThan/LessOrEqual
// AND "column <op> (scalar subquery)" into the filter.
func (p *Plan) WhereEqual(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.Equal, selector, subquery)
}

func (p *Plan) WhereNotEqual(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.NotEqual, selector, subquery)
}

func (p *Plan) WhereGreaterThan(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.GreaterThan, selector, subquery)
}

func (p *Plan) WhereGreaterOrEqual(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.GreaterOrEqual, selector, subquery)
}

func (p *Plan) WhereLessThan(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.LessThan, selector, subquery)
}

func (p *Plan) WhereLessOrEqual(selector string, subquery *Plan) (*Plan, error) {
	return p.whereCompareSubquery(expr.LessOrEqual, selector, subquery)
}

func (p *Plan) whereCompareSubquery(op expr.BinaryOp, selector string, subquery *Plan) (*Plan, error) {
	clone := p.Clone()
	col, err := clone.compileColumn(selector)
	if err != nil {
		return nil, err
	}
	clone.WhereExpr = andClause(clone.WhereExpr, expr.Binary{
		Op:    op,
		Left:  col,
		Right: expr.ScalarSubquery{Plan: subquery},
	})
	return clone, nil
}

// correlate returns a clone of subquery with subKey = parentKey ANDed
// into its where-clause, resolving subKey against subquery's own alias
// and parentKey against parent's alias — the shared step behind every
// "...Correlated" operator variant (§4.5).
func correlate(parent, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	sub := subquery.Clone()
	subCol, err := sub.compileColumn(subKey)
	if err != nil {
		return nil, err
	}
	parentCol, err := parent.compileColumn(parentKey)
	if err != nil {
		return nil, err
	}
	sub.WhereExpr = andClause(sub.WhereExpr, expr.Binary{Op: expr.Equal, Left: subCol, Right: parentCol})
	return sub, nil
}

func (p *Plan) WhereInCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, subquery, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	return clone.whereInSubquery(selector, sub, false)
}

func (p *Plan) WhereNotInCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, subquery, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	return clone.whereInSubquery(selector, sub, true)
}

func (p *Plan) WhereExistsCorrelated(subquery *Plan, subKey, parentKey string) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, subquery, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	return clone.whereExistsSubquery(sub, false)
}

func (p *Plan) WhereNotExistsCorrelated(subquery *Plan, subKey, parentKey string) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, subquery, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	return clone.whereExistsSubquery(sub, true)
}

func (p *Plan) WhereEqualCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	return p.whereCompareCorrelated(expr.Equal, selector, subquery, subKey, parentKey)
}

func (p *Plan) WhereNotEqualCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	return p.whereCompareCorrelated(expr.NotEqual, selector, subquery, subKey, parentKey)
}

func (p *Plan) WhereGreaterThanCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	return p.whereCompareCorrelated(expr.GreaterThan, selector, subquery, subKey, parentKey)
}

func (p *Plan) WhereLessThanCorrelated(selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	return p.whereCompareCorrelated(expr.LessThan, selector, subquery, subKey, parentKey)
}

func (p *Plan) whereCompareCorrelated(op expr.BinaryOp, selector string, subquery *Plan, subKey, parentKey string) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, subquery, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	return clone.whereCompareSubquery(op, selector, sub)
}

// WithSubquery adds a Projection whose expression is a ScalarSubquery:
// target is cloned, subKey = parentKey is ANDed into its where-clause,
// and build is applied to further transform it before it is embedded.
func (p *Plan) WithSubquery(name string, target *Plan, parentKey, subKey string, build func(*Plan) (*Plan, error)) (*Plan, error) {
	clone := p.Clone()
	sub, err := correlate(clone, target, subKey, parentKey)
	if err != nil {
		return nil, err
	}
	if build != nil {
		sub, err = build(sub)
		if err != nil {
			return nil, err
		}
	}
	clone.Projections = append(clone.Projections, expr.Projection{
		Expr:  expr.ScalarSubquery{Plan: sub},
		Alias: name,
	})
	return clone, nil
}

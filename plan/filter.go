package plan

import "github.com/kestrelquery/queryable/expr"

// Where ANDs a translated predicate into the plan's filter. If no
// filter exists yet, the new clause becomes the filter outright.
func (p *Plan) Where(predicate string) (*Plan, error) {
	clone := p.Clone()
	e, err := clone.compileExpr(predicate)
	if err != nil {
		return nil, err
	}
	clone.WhereExpr = andClause(clone.WhereExpr, e)
	return clone, nil
}

// andClause combines existing and next with AND, or returns next
// unchanged when there is no existing clause yet.
func andClause(existing, next expr.Expression) expr.Expression {
	if existing == nil {
		return next
	}
	return expr.Binary{Op: expr.AndAlso, Left: existing, Right: next}
}

package plan

import (
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/track"
	"github.com/kestrelquery/queryable/translate"
)

// Select replaces the plan's projections. After a select, the property
// tracker is rebuilt from the new projections, so a subsequent selector
// can refer to projected column aliases by name (§4.5).
func (p *Plan) Select(selector string) (*Plan, error) {
	clone := p.Clone()
	lam, err := parseLambda(selector)
	if err != nil {
		return nil, err
	}
	ctx := clone.translateContext(lam.Params)
	projections, err := translate.Projections(lam.Body, ctx, selector)
	if err != nil {
		return nil, err
	}

	clone.Projections = projections
	clone.Tracker = rebuildTracker(clone.Alias, projections)
	return clone, nil
}

// rebuildTracker derives a fresh Property Tracker from a projection
// list: each projection that names a Column registers its alias (or,
// absent one, the underlying column name) against that column's table
// alias, so later operators can resolve plain identifiers against the
// shape select() just produced.
func rebuildTracker(defaultAlias string, projections []expr.Projection) *track.Tracker {
	t := track.New()
	for _, proj := range projections {
		col, ok := proj.Expr.(expr.Column)
		if !ok {
			continue
		}
		name := proj.Alias
		if name == "" {
			name = col.ColumnName
		}
		t.Register(name, col.TableAlias, col.ColumnName)
	}
	return t
}

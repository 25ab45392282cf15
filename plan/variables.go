package plan

import "github.com/kestrelquery/queryable/expr"

// WithVariables replaces the plan's bound-variable bindings, consulted
// by subsequent lambda translations in this plan only — joins and
// subqueries build their own Plans with their own bindings.
func (p *Plan) WithVariables(vars map[string]interface{}) (*Plan, error) {
	clone := p.Clone()
	bound := make(map[string]expr.Scalar, len(vars))
	for k, v := range vars {
		s, err := expr.FromAny(v)
		if err != nil {
			return nil, err
		}
		bound[k] = s
	}
	clone.Variables = bound
	return clone, nil
}

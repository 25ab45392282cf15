package plan

// Limit replaces the plan's row limit.
func (p *Plan) Limit(n int) *Plan {
	clone := p.Clone()
	v := n
	clone.Limit = &v
	return clone
}

// Offset replaces the plan's row offset.
func (p *Plan) Offset(n int) *Plan {
	clone := p.Clone()
	v := n
	clone.Offset = &v
	return clone
}

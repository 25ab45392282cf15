// Package plan implements the immutable query plan: the accumulated
// state of a fluent pipeline (source table, joins, filter, grouping,
// projections, ordering, paging) together with every operator that
// clones-and-replaces a piece of that state. Plans are produced by the
// table-entry point in the root queryable package and consumed by
// package emit or the execution adapter in package provider.
package plan

import (
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/trace"
	"github.com/kestrelquery/queryable/track"
	"github.com/kestrelquery/queryable/translate"
)

// Plan is the complete, immutable state of a query under construction.
// Every operator method returns a new Plan; the receiver is left
// unchanged (spec invariant: immutability).
type Plan struct {
	TableName string
	Alias     string

	Variables map[string]expr.Scalar

	Projections []expr.Projection
	Joins       []expr.Join
	WhereExpr   expr.Expression
	GroupKeys   []expr.Expression
	HavingExpr  expr.Expression
	Orderings   []expr.Ordering
	Limit       *int
	Offset      *int

	Tracker *track.Tracker

	// Logger receives spec-mandated compile-time and emit-time warnings
	// (an unresolved bound variable, an invalid pagination state). Nil
	// is valid and silently drops every warning.
	Logger *trace.Logger

	// aliases records every table alias visible to this plan (its own
	// plus every joined table's), consulted by the translator's nested
	// property resolution strategy (d).
	aliases []translate.KnownAlias
}

// IsSubPlan implements expr.SubPlan, allowing a *Plan to be embedded as
// a ScalarSubquery/ExistsSubquery/InSubquery payload without package
// expr importing package plan.
func (p *Plan) IsSubPlan() {}

// New creates a fresh Plan rooted at tableName with the given alias.
func New(tableName, alias string) *Plan {
	return &Plan{
		TableName: tableName,
		Alias:     alias,
		Variables: map[string]expr.Scalar{},
		Tracker:   track.New(),
		aliases:   []translate.KnownAlias{{TableName: tableName, Alias: alias}},
	}
}

// WithLogger returns a clone of p with l wired in as the diagnostic
// logger consulted by translate and emit. A nil l is valid and
// silently drops every warning.
func (p *Plan) WithLogger(l *trace.Logger) *Plan {
	clone := p.Clone()
	clone.Logger = l
	return clone
}

// Clone returns a deep copy of p. Every operator starts from Clone and
// mutates the copy, never p itself.
func (p *Plan) Clone() *Plan {
	clone := &Plan{
		TableName: p.TableName,
		Alias:     p.Alias,
		Variables:  make(map[string]expr.Scalar, len(p.Variables)),
		WhereExpr:  expr.Clone(p.WhereExpr),
		HavingExpr: expr.Clone(p.HavingExpr),
		Tracker:   p.Tracker.Clone(),
		Logger:    p.Logger,
		Limit:     cloneIntPtr(p.Limit),
		Offset:    cloneIntPtr(p.Offset),
	}
	for k, v := range p.Variables {
		clone.Variables[k] = v
	}
	clone.Projections = make([]expr.Projection, len(p.Projections))
	for i, proj := range p.Projections {
		clone.Projections[i] = expr.Clone(proj).(expr.Projection)
	}
	clone.Joins = make([]expr.Join, len(p.Joins))
	for i, j := range p.Joins {
		clone.Joins[i] = expr.Clone(j).(expr.Join)
	}
	clone.GroupKeys = make([]expr.Expression, len(p.GroupKeys))
	for i, k := range p.GroupKeys {
		clone.GroupKeys[i] = expr.Clone(k)
	}
	clone.Orderings = make([]expr.Ordering, len(p.Orderings))
	for i, o := range p.Orderings {
		clone.Orderings[i] = expr.Clone(o).(expr.Ordering)
	}
	clone.aliases = append([]translate.KnownAlias{}, p.aliases...)
	return clone
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// Equal reports whether two plans are structurally identical — used by
// the clone-equivalence property test (spec §8).
func Equal(a, b *Plan) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.TableName != b.TableName || a.Alias != b.Alias {
		return false
	}
	if len(a.Projections) != len(b.Projections) || len(a.Joins) != len(b.Joins) ||
		len(a.GroupKeys) != len(b.GroupKeys) || len(a.Orderings) != len(b.Orderings) {
		return false
	}
	for i := range a.Projections {
		if !expr.Equal(a.Projections[i], b.Projections[i]) {
			return false
		}
	}
	for i := range a.Joins {
		if !expr.Equal(a.Joins[i], b.Joins[i]) {
			return false
		}
	}
	for i := range a.GroupKeys {
		if !expr.Equal(a.GroupKeys[i], b.GroupKeys[i]) {
			return false
		}
	}
	for i := range a.Orderings {
		if !expr.Equal(a.Orderings[i], b.Orderings[i]) {
			return false
		}
	}
	if !expr.Equal(a.WhereExpr, b.WhereExpr) || !expr.Equal(a.HavingExpr, b.HavingExpr) {
		return false
	}
	return intPtrEqual(a.Limit, b.Limit) && intPtrEqual(a.Offset, b.Offset)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// translateContext builds a translation context for a lambda with the
// given parameter names, rooted at this plan's own alias and tracker.
func (p *Plan) translateContext(params []string) *translate.Context {
	ctx := &translate.Context{
		Params:       params,
		DefaultAlias: p.Alias,
		Tracker:      p.Tracker,
		Variables:    p.Variables,
		Aliases:      p.aliases,
		Logger:       p.Logger,
	}
	return ctx
}

// knownAliasesWith returns p's alias list extended with extra. Join uses
// it to add the newly joined table's alias to the joined plan, so later
// lambdas on that plan can resolve against it.
func (p *Plan) knownAliasesWith(extra translate.KnownAlias) []translate.KnownAlias {
	return append(append([]translate.KnownAlias{}, p.aliases...), extra)
}

package translate

import (
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/track"
	"github.com/kestrelquery/queryable/trace"
)

// KnownAlias records a table alias visible to the translator for §4.4
// nested-resolution strategy (d): "scan known table aliases".
type KnownAlias struct {
	TableName string
	Alias     string
}

// Context carries everything the translator needs to resolve a lambda's
// mini-AST against the enclosing Plan: the parameter bindings, the
// property tracker, the bound variables, and the set of aliases visible
// for fallback resolution.
type Context struct {
	// Params holds the lambda's declared parameter names: at most two
	// (filter/selector/key-extractor have one; a filter whose second
	// parameter names the bound variables has two). It is empty when
	// only a having predicate's comparison value is translated.
	Params []string

	// DefaultAlias is the table alias the first parameter's direct
	// property accesses resolve against.
	DefaultAlias string

	Tracker   *track.Tracker
	Variables map[string]expr.Scalar
	Aliases   []KnownAlias

	// Logger receives spec-mandated compile-time warnings (e.g. a
	// missing bound-variable key, §4.4 rule 2). Nil is valid — its
	// methods are no-ops — so a caller that never wires a Logger sees
	// no behavior change beyond the absence of diagnostics.
	Logger *trace.Logger
}

// NewContext builds a translation context for a single-parameter lambda
// against the plan's own table.
func NewContext(param, defaultAlias string, tracker *track.Tracker) *Context {
	return &Context{
		Params:       []string{param},
		DefaultAlias: defaultAlias,
		Tracker:      tracker,
		Variables:    map[string]expr.Scalar{},
	}
}

// WithSecondParam returns a copy of ctx with a second lambda parameter
// bound to the given bound-variable map, as for withVariables-backed
// filters such as "(u, p) => p.allowed.includes(u.status)".
func (c *Context) WithSecondParam(name string, vars map[string]expr.Scalar) *Context {
	clone := *c
	clone.Params = append([]string{}, c.Params...)
	clone.Params = append(clone.Params, name)
	clone.Variables = vars
	return &clone
}

func (c *Context) firstParam() string {
	if len(c.Params) > 0 {
		return c.Params[0]
	}
	return ""
}

func (c *Context) secondParam() string {
	if len(c.Params) > 1 {
		return c.Params[1]
	}
	return ""
}

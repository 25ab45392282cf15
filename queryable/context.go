// Package queryable is the user-facing façade: a Context that tracks
// table aliases and hands out Table handles, each mirroring the full
// plan.Plan operator surface over a fresh, immutable Plan (§6).
package queryable

import (
	"fmt"

	"github.com/kestrelquery/queryable/provider"
	"github.com/kestrelquery/queryable/qerr"
	"github.com/kestrelquery/queryable/trace"
)

// Context is the entry point into the query builder. It owns alias
// generation and, optionally, a Provider for executing compiled plans.
type Context struct {
	provider provider.Provider
	logger   *trace.Logger
	aliases  map[string]bool
	counters map[string]int
}

// NewContext creates a Context with an optional provider and an
// optional Logger. A nil provider is valid for pure plan-building and
// emission; executing a plan against it will fail. With no logger
// argument, every Table this Context hands out compiles and emits
// silently — passing one wires it into every Plan so translate- and
// emit-time warnings (§4.4, §7) reach it.
func NewContext(p provider.Provider, logger ...*trace.Logger) *Context {
	var l *trace.Logger
	if len(logger) > 0 {
		l = logger[0]
	}
	return &Context{
		provider: p,
		logger:   l,
		aliases:  map[string]bool{},
		counters: map[string]int{},
	}
}

// Set registers tableName and returns a Table handle over a fresh Plan.
// With no customAlias, a unique alias is generated deterministically
// from tableName (t, t2, t3, ... on repeated registration — teacher's
// counter-suffix convention, generalized to any table name). A supplied
// customAlias that collides with a previously registered alias fails
// with ErrAliasInUse.
func (c *Context) Set(tableName string, customAlias ...string) (*Table, error) {
	var alias string
	if len(customAlias) > 0 && customAlias[0] != "" {
		alias = customAlias[0]
		if c.aliases[alias] {
			return nil, qerr.Wrap(fmt.Errorf("%w: %q", qerr.ErrAliasInUse, alias), "")
		}
	} else {
		alias = c.nextAlias(tableName)
	}
	c.aliases[alias] = true
	return newTable(tableName, alias, c.provider, c.logger), nil
}

// nextAlias derives a short, unique alias from tableName: its first
// letter on first use, then first-letter+counter on each collision.
func (c *Context) nextAlias(tableName string) string {
	base := "t"
	if len(tableName) > 0 {
		base = string(tableName[0])
	}
	for {
		c.counters[base]++
		n := c.counters[base]
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s%d", base, n)
		}
		if !c.aliases[candidate] {
			return candidate
		}
	}
}

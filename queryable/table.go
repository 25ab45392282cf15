package queryable

import (
	"context"
	"fmt"

	"github.com/kestrelquery/queryable/emit"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
	"github.com/kestrelquery/queryable/provider"
	"github.com/kestrelquery/queryable/qerr"
	"github.com/kestrelquery/queryable/trace"
)

// Table is the user-facing handle over an immutable Plan. Every method
// mirrors a plan.Plan operator, delegating to a fresh Plan and
// returning a new Table that wraps it (§6's "mirrors every Plan
// operator, each delegating to a fresh Plan").
type Table struct {
	plan     *plan.Plan
	provider provider.Provider
}

func newTable(tableName, alias string, p provider.Provider, logger *trace.Logger) *Table {
	return &Table{plan: plan.New(tableName, alias).WithLogger(logger), provider: p}
}

func (t *Table) wrap(p *plan.Plan, err error) (*Table, error) {
	if err != nil {
		return nil, err
	}
	return &Table{plan: p, provider: t.provider}, nil
}

// Plan exposes the underlying immutable plan, for package emit or
// package provider.
func (t *Table) Plan() *plan.Plan { return t.plan }

func (t *Table) Where(predicate string) (*Table, error) { return t.wrap(t.plan.Where(predicate)) }

func (t *Table) Select(selector string) (*Table, error) { return t.wrap(t.plan.Select(selector)) }

func (t *Table) Join(target *Table, sourceKey, targetKey, resultSelector string, kind expr.JoinKind) (*Table, error) {
	return t.wrap(t.plan.Join(target.plan, sourceKey, targetKey, resultSelector, kind))
}

func (t *Table) InnerJoin(target *Table, sourceKey, targetKey, resultSelector string) (*Table, error) {
	return t.wrap(t.plan.InnerJoin(target.plan, sourceKey, targetKey, resultSelector))
}

func (t *Table) LeftJoin(target *Table, sourceKey, targetKey, resultSelector string) (*Table, error) {
	return t.wrap(t.plan.LeftJoin(target.plan, sourceKey, targetKey, resultSelector))
}

func (t *Table) RightJoin(target *Table, sourceKey, targetKey, resultSelector string) (*Table, error) {
	return t.wrap(t.plan.RightJoin(target.plan, sourceKey, targetKey, resultSelector))
}

func (t *Table) FullJoin(target *Table, sourceKey, targetKey, resultSelector string) (*Table, error) {
	return t.wrap(t.plan.FullJoin(target.plan, sourceKey, targetKey, resultSelector))
}

func (t *Table) OrderBy(selector string) (*Table, error)     { return t.wrap(t.plan.OrderBy(selector)) }
func (t *Table) OrderByDesc(selector string) (*Table, error) { return t.wrap(t.plan.OrderByDesc(selector)) }

func (t *Table) OrderByCount(selector string, ascending bool) (*Table, error) {
	return t.wrap(t.plan.OrderByCount(selector, ascending))
}
func (t *Table) OrderBySum(selector string, ascending bool) (*Table, error) {
	return t.wrap(t.plan.OrderBySum(selector, ascending))
}
func (t *Table) OrderByAvg(selector string, ascending bool) (*Table, error) {
	return t.wrap(t.plan.OrderByAvg(selector, ascending))
}
func (t *Table) OrderByMin(selector string, ascending bool) (*Table, error) {
	return t.wrap(t.plan.OrderByMin(selector, ascending))
}
func (t *Table) OrderByMax(selector string, ascending bool) (*Table, error) {
	return t.wrap(t.plan.OrderByMax(selector, ascending))
}

func (t *Table) GroupBy(selector string) (*Table, error) { return t.wrap(t.plan.GroupBy(selector)) }

func (t *Table) Having(predicate string) (*Table, error) { return t.wrap(t.plan.Having(predicate)) }
func (t *Table) HavingCount(predicate string) (*Table, error) {
	return t.wrap(t.plan.HavingCount(predicate))
}
func (t *Table) HavingSum(selector, predicate string) (*Table, error) {
	return t.wrap(t.plan.HavingSum(selector, predicate))
}
func (t *Table) HavingAvg(selector, predicate string) (*Table, error) {
	return t.wrap(t.plan.HavingAvg(selector, predicate))
}
func (t *Table) HavingMin(selector, predicate string) (*Table, error) {
	return t.wrap(t.plan.HavingMin(selector, predicate))
}
func (t *Table) HavingMax(selector, predicate string) (*Table, error) {
	return t.wrap(t.plan.HavingMax(selector, predicate))
}

func (t *Table) Count(selector, alias string) (*Table, error) { return t.wrap(t.plan.Count(selector, alias)) }
func (t *Table) Sum(selector, alias string) (*Table, error)   { return t.wrap(t.plan.Sum(selector, alias)) }
func (t *Table) Avg(selector, alias string) (*Table, error)   { return t.wrap(t.plan.Avg(selector, alias)) }
func (t *Table) Min(selector, alias string) (*Table, error)   { return t.wrap(t.plan.Min(selector, alias)) }
func (t *Table) Max(selector, alias string) (*Table, error)   { return t.wrap(t.plan.Max(selector, alias)) }

func (t *Table) Limit(n int) *Table  { return &Table{plan: t.plan.Limit(n), provider: t.provider} }
func (t *Table) Offset(n int) *Table { return &Table{plan: t.plan.Offset(n), provider: t.provider} }

func (t *Table) WithVariables(vars map[string]interface{}) (*Table, error) {
	return t.wrap(t.plan.WithVariables(vars))
}

func (t *Table) WhereIn(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereIn(selector, subquery.plan))
}
func (t *Table) WhereNotIn(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereNotIn(selector, subquery.plan))
}
func (t *Table) WhereExists(subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereExists(subquery.plan))
}
func (t *Table) WhereNotExists(subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereNotExists(subquery.plan))
}
func (t *Table) WhereEqual(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereEqual(selector, subquery.plan))
}
func (t *Table) WhereNotEqual(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereNotEqual(selector, subquery.plan))
}
func (t *Table) WhereGreaterThan(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereGreaterThan(selector, subquery.plan))
}
func (t *Table) WhereGreaterOrEqual(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereGreaterOrEqual(selector, subquery.plan))
}
func (t *Table) WhereLessThan(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereLessThan(selector, subquery.plan))
}
func (t *Table) WhereLessOrEqual(selector string, subquery *Table) (*Table, error) {
	return t.wrap(t.plan.WhereLessOrEqual(selector, subquery.plan))
}

func (t *Table) WhereInCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereInCorrelated(selector, subquery.plan, subKey, parentKey))
}
func (t *Table) WhereNotInCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereNotInCorrelated(selector, subquery.plan, subKey, parentKey))
}
func (t *Table) WhereExistsCorrelated(subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereExistsCorrelated(subquery.plan, subKey, parentKey))
}
func (t *Table) WhereNotExistsCorrelated(subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereNotExistsCorrelated(subquery.plan, subKey, parentKey))
}
func (t *Table) WhereEqualCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereEqualCorrelated(selector, subquery.plan, subKey, parentKey))
}
func (t *Table) WhereNotEqualCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereNotEqualCorrelated(selector, subquery.plan, subKey, parentKey))
}
func (t *Table) WhereGreaterThanCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereGreaterThanCorrelated(selector, subquery.plan, subKey, parentKey))
}
func (t *Table) WhereLessThanCorrelated(selector string, subquery *Table, subKey, parentKey string) (*Table, error) {
	return t.wrap(t.plan.WhereLessThanCorrelated(selector, subquery.plan, subKey, parentKey))
}

// WithSubquery adds a scalar-subquery projection built from target,
// correlated by parentKey = subKey, and optionally further shaped by
// build before it is embedded.
func (t *Table) WithSubquery(name string, target *Table, parentKey, subKey string, build func(*Table) (*Table, error)) (*Table, error) {
	var buildPlan func(*plan.Plan) (*plan.Plan, error)
	if build != nil {
		buildPlan = func(p *plan.Plan) (*plan.Plan, error) {
			out, err := build(&Table{plan: p, provider: t.provider})
			if err != nil {
				return nil, err
			}
			return out.plan, nil
		}
	}
	return t.wrap(t.plan.WithSubquery(name, target.plan, parentKey, subKey, buildPlan))
}

// SQL renders the table's current plan as T-SQL.
func (t *Table) SQL() string {
	return emit.New().Emit(t.plan)
}

// Query executes the table's plan against the context's provider and
// returns the matching records.
func (t *Table) Query(ctx context.Context) ([]provider.Record, error) {
	if t.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured on this context", qerr.ErrProviderFailure)
	}
	meta, err := provider.Serialize(t.plan)
	if err != nil {
		return nil, err
	}
	result := <-t.provider.QueryAsync(ctx, meta)
	return result.Records, result.Err
}

// First executes the table's plan and returns its first record, or nil
// if none matched.
func (t *Table) First(ctx context.Context) (*provider.Record, error) {
	if t.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured on this context", qerr.ErrProviderFailure)
	}
	meta, err := provider.Serialize(t.plan)
	if err != nil {
		return nil, err
	}
	result := <-t.provider.FirstAsync(ctx, meta)
	return result.Record, result.Err
}

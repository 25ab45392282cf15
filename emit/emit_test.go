package emit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
	"github.com/kestrelquery/queryable/trace"
)

func mustWhere(t *testing.T, p *plan.Plan, predicate string) *plan.Plan {
	t.Helper()
	out, err := p.Where(predicate)
	require.NoError(t, err)
	return out
}

func TestEmitAggregationWithFilter(t *testing.T) {
	p := plan.New("users", "u")
	p = mustWhere(t, p, "u => u.age > 18")
	p, err := p.Avg("u => u.age", "avg")
	require.NoError(t, err)

	want := "SELECT AVG([u].[age]) AS [avg]\n" +
		"FROM [users] AS [u]\n" +
		"WHERE ([u].[age] > 18)"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitArrayMembershipViaBoundVariable(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.WithVariables(map[string]interface{}{"allowed": []string{"active", "pending"}})
	require.NoError(t, err)
	p, err = p.Where("(u,p) => p.allowed.includes(u.status)")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE [u].[status] IN (N'active', N'pending')"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitJoinWithNestedPropertySelection(t *testing.T) {
	u := plan.New("users", "u")
	o := plan.New("orders", "o")
	joined, err := u.InnerJoin(o, "u=>u.id", "o=>o.userId", "(u,o)=>({u,o})")
	require.NoError(t, err)
	selected, err := joined.Select("j=>({userName:j.u.name, orderAmount:j.o.amount})")
	require.NoError(t, err)

	want := "SELECT [u].[name] AS [userName], [o].[amount] AS [orderAmount]\n" +
		"FROM [users] AS [u]\n" +
		"  INNER JOIN [orders] AS [o] ON ([u].[id] = [o].[userId])"
	assert.Equal(t, want, New().Emit(selected))
}

func TestEmitPaging(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.OrderBy("u=>u.age")
	require.NoError(t, err)
	p = p.Limit(15)
	p = p.Offset(30)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"ORDER BY [u].[age] ASC\n" +
		"OFFSET 30 ROWS\n" +
		"FETCH NEXT 15 ROWS ONLY"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitTopViaLimitOnly(t *testing.T) {
	p := plan.New("users", "u")
	p = p.Limit(10)

	want := "SELECT TOP 10 *\n" +
		"FROM [users] AS [u]"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitGroupingWithHavingViaAggregatePredicate(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.GroupBy("u=>[u.age]")
	require.NoError(t, err)
	p, err = p.HavingCount("c=>c>5")
	require.NoError(t, err)
	p, err = p.Select("g=>({age:g.age})")
	require.NoError(t, err)
	p, err = p.Count("", "")
	require.NoError(t, err)

	want := "SELECT [u].[age] AS [age], COUNT(*) AS [count]\n" +
		"FROM [users] AS [u]\n" +
		"GROUP BY [u].[age]\n" +
		"HAVING (COUNT(*) > 5)"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitScalarSubqueryOnComparison(t *testing.T) {
	sub := plan.New("users", "u")
	sub, err := sub.Select("u=>({s:u.salary})")
	require.NoError(t, err)
	sub, err = sub.Avg("u=>u.s", "avg")
	require.NoError(t, err)
	sub = sub.Limit(1)

	p := plan.New("users", "u")
	p, err = p.WhereGreaterThan("u=>u.salary", sub)
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE ([u].[salary] > \n" +
		"  (SELECT TOP 1\n" +
		"    [u].[salary] AS [s], AVG([u].[s]) AS [avg]\n" +
		"    FROM [users] AS [u]))"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitOrderByChainIsNotDeduplicated(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.OrderBy("u=>u.age")
	require.NoError(t, err)
	p, err = p.OrderByDesc("u=>u.age")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"ORDER BY [u].[age] ASC, [u].[age] DESC"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitWhereChainFlattensIntoOneEnclosure(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.Where("u=>u.age>18")
	require.NoError(t, err)
	p, err = p.Where("u=>u.status==\"active\"")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE ([u].[age] > 18 AND [u].[status] = N'active')"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitEmptyInListRewritesToFalse(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.WithVariables(map[string]interface{}{"allowed": []string{}})
	require.NoError(t, err)
	p, err = p.Where("(u,v) => v.allowed.includes(u.status)")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE (1 = 0)"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitBooleanEqualityRendersAsOneOrZero(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.Where("u=>u.isActive===true")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE ([u].[isActive] = 1)"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitLikeFunctionHasNoSelfWrap(t *testing.T) {
	p := plan.New("users", "u")
	p, err := p.Where("u=>u.name.includes(\"art\")")
	require.NoError(t, err)

	want := "SELECT *\n" +
		"FROM [users] AS [u]\n" +
		"WHERE [u].[name] LIKE CONCAT(N'%', N'art', N'%')"
	assert.Equal(t, want, New().Emit(p))
}

func TestEmitIsIdempotentUnderCloneEquivalence(t *testing.T) {
	p := plan.New("users", "u")
	p = mustWhere(t, p, "u => u.age > 18")
	clone := p.Clone()
	assert.Equal(t, New().Emit(p), New().Emit(clone))
	assert.True(t, plan.Equal(p, clone))
}

func TestEmitWarnsOnOffsetWithoutOrderByOrLimit(t *testing.T) {
	var buf bytes.Buffer
	p := plan.New("users", "u").WithLogger(trace.New(&buf)).Offset(5)

	New().Emit(p)

	out := buf.String()
	assert.True(t, strings.Contains(out, "warn:"))
	assert.True(t, strings.Contains(out, "offset 5"))
	assert.True(t, strings.Contains(out, "users"))
}

func TestEmitDoesNotWarnWhenOffsetHasOrderBy(t *testing.T) {
	var buf bytes.Buffer
	p := plan.New("users", "u").WithLogger(trace.New(&buf))
	p, err := p.OrderBy("u=>u.id")
	require.NoError(t, err)
	p = p.Offset(5)

	New().Emit(p)
	assert.Equal(t, "", buf.String())
}

func TestEmitDoesNotWarnWhenOffsetHasLimit(t *testing.T) {
	var buf bytes.Buffer
	p := plan.New("users", "u").WithLogger(trace.New(&buf)).Offset(5).Limit(10)

	New().Emit(p)
	assert.Equal(t, "", buf.String())
}

func TestEmitSilentWithoutLoggerOnInvalidPagination(t *testing.T) {
	p := plan.New("users", "u").Offset(5)
	assert.NotPanics(t, func() { New().Emit(p) })
}

func TestIsEmptyList(t *testing.T) {
	assert.True(t, isEmptyList(expr.Const{Value: expr.ListScalar(nil)}))
	assert.False(t, isEmptyList(expr.Const{Value: expr.ListScalar([]expr.Scalar{expr.IntScalar(1)})}))
	assert.False(t, isEmptyList(expr.Column{TableAlias: "u", ColumnName: "x"}))
}

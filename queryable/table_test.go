package queryable

import (
	"context"
	"strings"
	"testing"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/provider/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRendersCurrentPlan(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	u, err = u.Where("u=>u.age>18")
	require.NoError(t, err)

	sql := u.SQL()
	assert.True(t, strings.Contains(sql, "SELECT *"))
	assert.True(t, strings.Contains(sql, "FROM [users] AS [u]"))
	assert.True(t, strings.Contains(sql, "WHERE ([u].[age] > 18)"))
}

func TestWhereDoesNotMutateOriginalTable(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)

	filtered, err := u.Where("u=>u.age>18")
	require.NoError(t, err)

	assert.NotEqual(t, u.SQL(), filtered.SQL())
	assert.True(t, strings.Contains(u.SQL(), "SELECT *"))
	assert.False(t, strings.Contains(u.SQL(), "WHERE"))
}

func TestJoinProducesExpectedSQL(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	o, err := c.Set("orders")
	require.NoError(t, err)

	joined, err := u.InnerJoin(o, "u=>u.id", "o=>o.userId", "(u,o)=>({u,o})")
	require.NoError(t, err)

	sql := joined.SQL()
	assert.True(t, strings.Contains(sql, "INNER JOIN [orders] AS [o] ON ([u].[id] = [o].[userId])"))
}

func TestFirstFailsWithoutProvider(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)

	_, err = u.First(context.Background())
	assert.Error(t, err)
}

func TestFirstReturnsMatchingRecord(t *testing.T) {
	fx, err := fixture.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fx.Close() })
	require.NoError(t, fx.Seed("users", []map[string]interface{}{
		{"id": 1, "name": "alice"},
	}))

	c := NewContext(fx)
	u, err := c.Set("users")
	require.NoError(t, err)

	rec, err := u.First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestWithSubqueryEmbedsCorrelatedScalarSubquery(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	o, err := c.Set("orders")
	require.NoError(t, err)

	withTotal, err := u.WithSubquery("orderTotal", o, "u=>u.id", "o=>o.userId", func(sub *Table) (*Table, error) {
		return sub.Sum("o=>o.amount", "total")
	})
	require.NoError(t, err)

	sql := withTotal.SQL()
	assert.True(t, strings.Contains(sql, "(SELECT SUM("))
	assert.True(t, strings.Contains(sql, "AS [orderTotal]"))
}

func TestWhereInReferencesSubqueryPlan(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	o, err := c.Set("orders")
	require.NoError(t, err)

	filtered, err := u.WhereIn("u=>u.id", o)
	require.NoError(t, err)

	in, ok := filtered.plan.WhereExpr.(expr.InSubquery)
	require.True(t, ok)
	assert.False(t, in.Negated)
}

package fixture

import (
	"context"
	"testing"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
	"github.com/kestrelquery/queryable/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	err = p.Seed("users", []map[string]interface{}{
		{"id": 1, "name": "alice", "age": 30, "status": "active"},
		{"id": 2, "name": "bob", "age": 17, "status": "active"},
		{"id": 3, "name": "carol", "age": 45, "status": "inactive"},
	})
	require.NoError(t, err)
	return p
}

func runQuery(t *testing.T, p *Provider, pl *plan.Plan) []provider.Record {
	t.Helper()
	data, err := provider.Serialize(pl)
	require.NoError(t, err)

	ch := p.QueryAsync(context.Background(), data)
	result := <-ch
	require.NoError(t, result.Err)
	return result.Records
}

func TestQueryAsyncFiltersAndProjects(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	pl, err := pl.Where("u=>u.age>18")
	require.NoError(t, err)
	pl, err = pl.Select("u=>({name:u.name})")
	require.NoError(t, err)
	pl, err = pl.OrderBy("u=>u.name")
	require.NoError(t, err)

	records := runQuery(t, p, pl)
	require.Len(t, records, 2)
	assert.Equal(t, expr.StringScalar("alice"), records[0]["name"])
	assert.Equal(t, expr.StringScalar("carol"), records[1]["name"])
}

func TestQueryAsyncGroupByAndHaving(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	pl, err := pl.GroupBy("u=>[u.status]")
	require.NoError(t, err)
	pl, err = pl.Count("", "total")
	require.NoError(t, err)
	pl, err = pl.HavingCount("c=>c>1")
	require.NoError(t, err)

	records := runQuery(t, p, pl)
	require.Len(t, records, 1)
	assert.Equal(t, expr.IntScalar(2), records[0]["total"])
}

func TestQueryAsyncPaging(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	pl, err := pl.OrderBy("u=>u.name")
	require.NoError(t, err)
	pl = pl.Offset(1).Limit(1)

	records := runQuery(t, p, pl)
	require.Len(t, records, 1)
	assert.Equal(t, expr.StringScalar("bob"), records[0]["name"])
}

func TestQueryAsyncRejectsJoins(t *testing.T) {
	p := newSeededProvider(t)

	users := plan.New("users", "u")
	orders := plan.New("orders", "o")
	joined, err := users.InnerJoin(orders, "u=>u.id", "o=>o.userId", "(u,o)=>({u,o})")
	require.NoError(t, err)

	data, err := provider.Serialize(joined)
	require.NoError(t, err)

	ch := p.QueryAsync(context.Background(), data)
	result := <-ch
	assert.Error(t, result.Err)
}

func TestFirstAsyncReturnsNilRecordWhenNoMatch(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	pl, err := pl.Where("u=>u.age>100")
	require.NoError(t, err)

	data, err := provider.Serialize(pl)
	require.NoError(t, err)

	ch := p.FirstAsync(context.Background(), data)
	result := <-ch
	require.NoError(t, result.Err)
	assert.Nil(t, result.Record)
}

func TestFirstAsyncReturnsFirstMatch(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	pl, err := pl.Where("u=>u.status==\"active\"")
	require.NoError(t, err)
	pl, err = pl.OrderBy("u=>u.name")
	require.NoError(t, err)

	data, err := provider.Serialize(pl)
	require.NoError(t, err)

	ch := p.FirstAsync(context.Background(), data)
	result := <-ch
	require.NoError(t, result.Err)
	require.NotNil(t, result.Record)
	assert.Equal(t, expr.StringScalar("alice"), (*result.Record)["name"])
}

func TestQueryAsyncContextCancellation(t *testing.T) {
	p := newSeededProvider(t)

	pl := plan.New("users", "u")
	data, err := provider.Serialize(pl)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := p.QueryAsync(ctx, data)
	result := <-ch
	assert.Error(t, result.Err)
}

func TestSeedOverwritesRowsAtTheSameIndex(t *testing.T) {
	p := newSeededProvider(t)

	err := p.Seed("users", []map[string]interface{}{
		{"id": 1, "name": "zara", "age": 22, "status": "active"},
		{"id": 2, "name": "bob", "age": 17, "status": "active"},
		{"id": 3, "name": "carol", "age": 45, "status": "inactive"},
	})
	require.NoError(t, err)

	pl := plan.New("users", "u")
	pl, err = pl.Where("u=>u.name==\"zara\"")
	require.NoError(t, err)

	records := runQuery(t, p, pl)
	require.Len(t, records, 1)
}

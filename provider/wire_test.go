package provider

import (
	"testing"

	"github.com/kestrelquery/queryable/emit"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSamplePlan(t *testing.T) *plan.Plan {
	t.Helper()
	orders := plan.New("orders", "o")
	orders, err := orders.Where("o=>o.amount>100")
	require.NoError(t, err)

	users := plan.New("users", "u")
	users, err = users.InnerJoin(orders, "u=>u.id", "o=>o.userId", "(u,o)=>({u,o})")
	require.NoError(t, err)
	users, err = users.Select("j=>({name:j.u.name, amount:j.o.amount})")
	require.NoError(t, err)
	users, err = users.Where("u=>u.status==\"active\"")
	require.NoError(t, err)
	users, err = users.GroupBy("u=>[u.name]")
	require.NoError(t, err)
	users, err = users.HavingCount("c=>c>1")
	require.NoError(t, err)
	users, err = users.OrderByDesc("u=>u.name")
	require.NoError(t, err)
	users = users.Limit(5).Offset(10)
	return users
}

func TestSerializeDeserializeRoundTripsEmittedSQL(t *testing.T) {
	p := buildSamplePlan(t)
	e := emit.New()
	want := e.Emit(p)

	data, err := Serialize(p)
	require.NoError(t, err)

	restored, err := Deserialize(data)
	require.NoError(t, err)

	got := e.Emit(restored)
	assert.Equal(t, want, got)
}

func TestDeserializeRejectsWrongVersion(t *testing.T) {
	_, err := Deserialize([]byte(`{"version": 99, "plan": {}}`))
	assert.Error(t, err)
}

func TestDeserializeRejectsMalformedJSON(t *testing.T) {
	_, err := Deserialize([]byte(`not json`))
	assert.Error(t, err)
}

func TestDeserializeRejectsMissingPlan(t *testing.T) {
	_, err := Deserialize([]byte(`{"version": 1}`))
	assert.Error(t, err)
}

func TestScalarWireRoundTripsEveryKind(t *testing.T) {
	cases := []expr.Scalar{
		expr.IntScalar(42),
		expr.DecimalScalar(3.5),
		expr.StringScalar("hello"),
		expr.BoolScalar(true),
		expr.NullScalar(),
		expr.ListScalar([]expr.Scalar{expr.IntScalar(1), expr.StringScalar("a")}),
	}
	for _, s := range cases {
		n := scalarToWire(s)
		got := wireToScalar(n)
		assert.True(t, s.Equal(got), "round trip mismatch for %v", s)
	}
}

func TestExprToWireRoundTripsSubqueryPlan(t *testing.T) {
	orders := plan.New("orders", "o")
	orders, err := orders.Where("o=>o.amount>100")
	require.NoError(t, err)

	users := plan.New("users", "u")
	users, err = users.WhereIn("u=>u.id", orders)
	require.NoError(t, err)

	n := exprToWire(users.WhereExpr)
	restored := wireToExpr(n)

	in, ok := restored.(expr.InSubquery)
	require.True(t, ok)
	sub, ok := in.Plan.(*plan.Plan)
	require.True(t, ok)
	assert.Equal(t, "orders", sub.TableName)
	assert.NotNil(t, sub.WhereExpr)
}

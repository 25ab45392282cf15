package fixture

import (
	"testing"

	"github.com/kestrelquery/queryable/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalScalarResolvesColumnFromBindings(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{"age": 30}}
	v, err := evalScalar(expr.Column{TableAlias: "u", ColumnName: "age"}, b)
	require.NoError(t, err)
	assert.Equal(t, expr.IntScalar(30), v)
}

func TestEvalScalarMissingColumnIsNull(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{}}
	v, err := evalScalar(expr.Column{TableAlias: "u", ColumnName: "missing"}, b)
	require.NoError(t, err)
	assert.Equal(t, expr.NullScalar(), v)
}

func TestEvalBoolShortCircuitsAnd(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{}}
	e := expr.Binary{
		Op:   expr.AndAlso,
		Left: expr.Const{Value: expr.BoolScalar(false)},
		Right: expr.Aggregate{Kind: expr.CountAgg},
	}
	ok, err := evalBool(e, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalBinaryInOperator(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{"status": "active"}}
	e := expr.Binary{
		Op:   expr.In,
		Left: expr.Column{TableAlias: "u", ColumnName: "status"},
		Right: expr.Const{Value: expr.ListScalar([]expr.Scalar{
			expr.StringScalar("active"), expr.StringScalar("pending"),
		})},
	}
	v, err := evalScalar(e, b)
	require.NoError(t, err)
	assert.Equal(t, expr.BoolScalar(true), v)
}

func TestEvalFuncLikeMatchesSubstring(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{"name": "margaret"}}
	f := expr.Func{Name: "LIKE", Args: []expr.Expression{
		expr.Column{TableAlias: "u", ColumnName: "name"},
		expr.Const{Value: expr.StringScalar("%art%")},
	}}
	v, err := evalScalar(f, b)
	require.NoError(t, err)
	assert.Equal(t, expr.BoolScalar(true), v)
}

func TestEvalFuncConcatJoinsArguments(t *testing.T) {
	f := expr.Func{Name: "CONCAT", Args: []expr.Expression{
		expr.Const{Value: expr.StringScalar("a")},
		expr.Const{Value: expr.StringScalar("b")},
	}}
	v, err := evalScalar(f, bindings{})
	require.NoError(t, err)
	assert.Equal(t, expr.StringScalar("ab"), v)
}

func TestEvalFuncUnknownNameErrors(t *testing.T) {
	f := expr.Func{Name: "UNKNOWN_FN", Args: nil}
	_, err := evalScalar(f, bindings{})
	assert.Error(t, err)
}

func TestAggBindingsAggregateSumAvgMinMax(t *testing.T) {
	rows := []map[string]interface{}{
		{"amount": 10}, {"amount": 20}, {"amount": 30},
	}
	a := aggBindings{alias: "o", rows: rows}
	col := expr.Column{TableAlias: "o", ColumnName: "amount"}

	sum, err := a.aggregate(expr.SumAgg, col)
	require.NoError(t, err)
	assert.Equal(t, expr.DecimalScalar(60), sum)

	avg, err := a.aggregate(expr.AvgAgg, col)
	require.NoError(t, err)
	assert.Equal(t, expr.DecimalScalar(20), avg)

	min, err := a.aggregate(expr.MinAgg, col)
	require.NoError(t, err)
	assert.Equal(t, expr.IntScalar(10), min)

	max, err := a.aggregate(expr.MaxAgg, col)
	require.NoError(t, err)
	assert.Equal(t, expr.IntScalar(30), max)
}

func TestAggBindingsCountStar(t *testing.T) {
	rows := []map[string]interface{}{{"x": 1}, {"x": 2}}
	a := aggBindings{alias: "o", rows: rows}
	v, err := a.aggregate(expr.CountAgg, nil)
	require.NoError(t, err)
	assert.Equal(t, expr.IntScalar(2), v)
}

func TestBindingsAggregateOutsideGroupErrors(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{}}
	_, err := b.aggregate(expr.CountAgg, nil)
	assert.Error(t, err)
}

func TestGroupRowsPartitionsByKeySignature(t *testing.T) {
	rows := []map[string]interface{}{
		{"status": "active"}, {"status": "inactive"}, {"status": "active"},
	}
	mk := func(row map[string]interface{}) bindings { return bindings{alias: "u", row: row} }
	groups, keys := groupRows([]expr.Expression{expr.Column{TableAlias: "u", ColumnName: "status"}}, rows, mk)

	require.Len(t, groups, 2)
	require.Len(t, keys, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
}

func TestGroupRowsWithNoKeysReturnsSingleGroup(t *testing.T) {
	rows := []map[string]interface{}{{"x": 1}, {"x": 2}}
	mk := func(row map[string]interface{}) bindings { return bindings{alias: "u", row: row} }
	groups, keys := groupRows(nil, rows, mk)

	require.Len(t, groups, 1)
	require.Len(t, keys, 1)
	assert.Len(t, groups[0], 2)
}

func TestCompareScalarOrdersByKind(t *testing.T) {
	assert.True(t, compareScalar(expr.IntScalar(1), expr.IntScalar(2)) < 0)
	assert.True(t, compareScalar(expr.StringScalar("a"), expr.StringScalar("b")) < 0)
	assert.Equal(t, 0, compareScalar(expr.BoolScalar(true), expr.BoolScalar(true)))
	assert.True(t, compareScalar(expr.BoolScalar(false), expr.BoolScalar(true)) < 0)
}

func TestProjectRowDefaultsAliasWhenMissing(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{"age": 9}}
	rec, err := projectRow([]expr.Projection{
		{Expr: expr.Column{TableAlias: "u", ColumnName: "age"}},
	}, b, "u")
	require.NoError(t, err)
	assert.Equal(t, expr.IntScalar(9), rec["col0"])
}

func TestProjectRowWithNoProjectionsReturnsEmptyRecord(t *testing.T) {
	b := bindings{alias: "u", row: map[string]interface{}{}}
	rec, err := projectRow(nil, b, "u")
	require.NoError(t, err)
	assert.Empty(t, rec)
}

package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelquery/queryable/ast"
)

func TestParseSingleParamComparison(t *testing.T) {
	lam, err := Parse("u => u.age > 18")
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, lam.Params)

	bin, ok := lam.Body.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.BinaryOp(">"), bin.Op)

	pa, ok := bin.Left.(ast.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, []string{"age"}, pa.Path)

	lit, ok := bin.Right.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(18), lit.Num)
}

func TestParseTwoParamsWithParens(t *testing.T) {
	lam, err := Parse("(u,p) => p.allowed.includes(u.status)")
	require.NoError(t, err)
	assert.Equal(t, []string{"u", "p"}, lam.Params)

	call, ok := lam.Body.(ast.Call)
	require.True(t, ok)
	callee, ok := call.Callee.(ast.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, []string{"allowed", "includes"}, callee.Path)
	require.Len(t, call.Args, 1)
}

func TestParseObjectLiteralResultSelector(t *testing.T) {
	lam, err := Parse("(u,o)=>({u,o})")
	require.NoError(t, err)
	obj, ok := lam.Body.(ast.ObjectLiteral)
	require.True(t, ok)
	require.Len(t, obj.Properties, 2)
	assert.Equal(t, "u", obj.Properties[0].Key)
	assert.Equal(t, "o", obj.Properties[1].Key)
}

func TestParseNestedPropertyProjection(t *testing.T) {
	lam, err := Parse("j=>({userName:j.u.name, orderAmount:j.o.amount})")
	require.NoError(t, err)
	obj, ok := lam.Body.(ast.ObjectLiteral)
	require.True(t, ok)
	require.Len(t, obj.Properties, 2)

	pa, ok := obj.Properties[0].Value.(ast.PropertyAccess)
	require.True(t, ok)
	assert.Equal(t, []string{"u", "name"}, pa.Path)
}

func TestParseArrayLiteralGroupKeys(t *testing.T) {
	lam, err := Parse("u=>[u.age]")
	require.NoError(t, err)
	call, ok := lam.Body.(ast.Call)
	require.True(t, ok)
	ident, ok := call.Callee.(ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "__array", ident.Name)
	require.Len(t, call.Args, 1)
}

func TestParseBlockBodyWithReturn(t *testing.T) {
	lam, err := Parse("u => { return u.age > 18 }")
	require.NoError(t, err)
	_, ok := lam.Body.(ast.Binary)
	assert.True(t, ok)
}

func TestParseUnrecognizableSourceFallsBackToOpaque(t *testing.T) {
	lam, err := Parse("u => u.age & 1")
	require.NoError(t, err)
	_, ok := lam.Body.(ast.Opaque)
	assert.True(t, ok)
}

func TestParseRequiresArrow(t *testing.T) {
	_, err := Parse("u.age > 18")
	assert.Error(t, err)
}

func TestParseStrictEqualityLiteral(t *testing.T) {
	lam, err := Parse("u=>u.isActive===true")
	require.NoError(t, err)
	bin, ok := lam.Body.(ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.BinaryOp("==="), bin.Op)
	lit, ok := bin.Right.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.LitBool, lit.Kind)
	assert.True(t, lit.Bool)
}

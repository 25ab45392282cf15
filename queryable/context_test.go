package queryable

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kestrelquery/queryable/provider/fixture"
	"github.com/kestrelquery/queryable/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGeneratesFirstLetterAlias(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	assert.Equal(t, "u", u.plan.Alias)
}

func TestSetGeneratesSuffixedAliasOnCollision(t *testing.T) {
	c := NewContext(nil)
	u1, err := c.Set("users")
	require.NoError(t, err)
	u2, err := c.Set("users")
	require.NoError(t, err)

	assert.Equal(t, "u", u1.plan.Alias)
	assert.Equal(t, "u2", u2.plan.Alias)
}

func TestSetAcceptsCustomAlias(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users", "usr")
	require.NoError(t, err)
	assert.Equal(t, "usr", u.plan.Alias)
}

func TestSetRejectsDuplicateCustomAlias(t *testing.T) {
	c := NewContext(nil)
	_, err := c.Set("users", "u")
	require.NoError(t, err)

	_, err = c.Set("orders", "u")
	assert.Error(t, err)
}

func TestQueryFailsWithoutConfiguredProvider(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)

	_, err = u.Query(context.Background())
	assert.Error(t, err)
}

func TestSetWiresLoggerIntoTablePlan(t *testing.T) {
	var buf bytes.Buffer
	c := NewContext(nil, trace.New(&buf))
	u, err := c.Set("users")
	require.NoError(t, err)
	u = u.Offset(5)

	u.SQL()
	assert.True(t, strings.Contains(buf.String(), "warn:"))
}

func TestSetWithoutLoggerStaysSilent(t *testing.T) {
	c := NewContext(nil)
	u, err := c.Set("users")
	require.NoError(t, err)
	u = u.Offset(5)

	assert.NotPanics(t, func() { u.SQL() })
}

func TestQueryExecutesAgainstFixtureProvider(t *testing.T) {
	fx, err := fixture.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fx.Close() })

	require.NoError(t, fx.Seed("users", []map[string]interface{}{
		{"id": 1, "name": "alice", "age": 30},
		{"id": 2, "name": "bob", "age": 17},
	}))

	c := NewContext(fx)
	u, err := c.Set("users")
	require.NoError(t, err)
	u, err = u.Where("u=>u.age>18")
	require.NoError(t, err)

	records, err := u.Query(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
}

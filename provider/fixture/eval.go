package fixture

import (
	"fmt"
	"strings"

	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/provider"
)

// env is anything evalScalar/evalBool can resolve a Column or Aggregate
// against: a single raw row (bindings) or a group of rows for aggregate
// evaluation (aggBindings).
type env interface {
	column(alias, name string) (expr.Scalar, error)
	aggregate(kind expr.AggregateKind, arg expr.Expression) (expr.Scalar, error)
}

// bindings resolves a Column against one fixture row, keyed by bare
// column name (the seeded JSON field), ignoring alias since a fixture
// table has exactly one alias in scope.
type bindings struct {
	alias string
	row   map[string]interface{}
}

func (b bindings) column(alias, name string) (expr.Scalar, error) {
	if name == "*" {
		return expr.NullScalar(), nil
	}
	v, ok := b.row[name]
	if !ok {
		return expr.NullScalar(), nil
	}
	return expr.FromAny(v)
}

func (b bindings) aggregate(kind expr.AggregateKind, arg expr.Expression) (expr.Scalar, error) {
	return expr.Scalar{}, fmt.Errorf("aggregate %s used outside a grouped context", kind)
}

// aggBindings resolves a Column against the group's first row (group
// keys are constant within a group) and an Aggregate against the whole
// group.
type aggBindings struct {
	alias string
	rows  []map[string]interface{}
}

func (a aggBindings) column(alias, name string) (expr.Scalar, error) {
	if len(a.rows) == 0 {
		return expr.NullScalar(), nil
	}
	return bindings{alias: a.alias, row: a.rows[0]}.column(alias, name)
}

func (a aggBindings) aggregate(kind expr.AggregateKind, arg expr.Expression) (expr.Scalar, error) {
	if kind == expr.CountAgg && arg == nil {
		return expr.IntScalar(int64(len(a.rows))), nil
	}
	values := make([]expr.Scalar, 0, len(a.rows))
	for _, row := range a.rows {
		v, err := evalScalar(arg, bindings{alias: a.alias, row: row})
		if err != nil {
			return expr.Scalar{}, err
		}
		values = append(values, v)
	}
	switch kind {
	case expr.CountAgg:
		return expr.IntScalar(int64(len(values))), nil
	case expr.SumAgg:
		var sum float64
		for _, v := range values {
			sum += asFloat(v)
		}
		return expr.DecimalScalar(sum), nil
	case expr.AvgAgg:
		if len(values) == 0 {
			return expr.NullScalar(), nil
		}
		var sum float64
		for _, v := range values {
			sum += asFloat(v)
		}
		return expr.DecimalScalar(sum / float64(len(values))), nil
	case expr.MinAgg, expr.MaxAgg:
		if len(values) == 0 {
			return expr.NullScalar(), nil
		}
		best := values[0]
		for _, v := range values[1:] {
			cmp := compareScalar(best, v)
			if (kind == expr.MinAgg && cmp > 0) || (kind == expr.MaxAgg && cmp < 0) {
				best = v
			}
		}
		return best, nil
	}
	return expr.Scalar{}, fmt.Errorf("unsupported aggregate %s", kind)
}

func asFloat(s expr.Scalar) float64 {
	switch s.Kind {
	case expr.KindInt:
		return float64(s.Int)
	case expr.KindDecimal:
		return s.Decimal
	default:
		return 0
	}
}

func evalScalar(e expr.Expression, en env) (expr.Scalar, error) {
	if e == nil {
		return expr.NullScalar(), nil
	}
	switch n := e.(type) {
	case expr.Column:
		return en.column(n.TableAlias, n.ColumnName)

	case expr.Const:
		return n.Value, nil

	case expr.Aggregate:
		return en.aggregate(n.Kind, n.Argument)

	case expr.Binary:
		return evalBinary(n, en)

	case expr.Unary:
		v, err := evalScalar(n.Operand, en)
		if err != nil {
			return expr.Scalar{}, err
		}
		if n.Op == expr.Negate {
			return expr.DecimalScalar(-asFloat(v)), nil
		}
		return expr.BoolScalar(!isTruthy(v)), nil

	case expr.Func:
		return evalFunc(n, en)

	default:
		return expr.Scalar{}, fmt.Errorf("fixture provider cannot evaluate %T", e)
	}
}

func evalBool(e expr.Expression, en env) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := evalScalar(e, en)
	if err != nil {
		return false, err
	}
	return isTruthy(v), nil
}

func isTruthy(s expr.Scalar) bool {
	switch s.Kind {
	case expr.KindBool:
		return s.Bool
	case expr.KindNull:
		return false
	case expr.KindInt:
		return s.Int != 0
	case expr.KindDecimal:
		return s.Decimal != 0
	default:
		return true
	}
}

func evalBinary(b expr.Binary, en env) (expr.Scalar, error) {
	if b.Op == expr.AndAlso {
		l, err := evalBool(b.Left, en)
		if err != nil || !l {
			return expr.BoolScalar(false), err
		}
		r, err := evalBool(b.Right, en)
		return expr.BoolScalar(r), err
	}
	if b.Op == expr.OrElse {
		l, err := evalBool(b.Left, en)
		if err != nil {
			return expr.Scalar{}, err
		}
		if l {
			return expr.BoolScalar(true), nil
		}
		r, err := evalBool(b.Right, en)
		return expr.BoolScalar(r), err
	}

	left, err := evalScalar(b.Left, en)
	if err != nil {
		return expr.Scalar{}, err
	}
	right, err := evalScalar(b.Right, en)
	if err != nil {
		return expr.Scalar{}, err
	}

	switch b.Op {
	case expr.Equal:
		return expr.BoolScalar(compareScalar(left, right) == 0), nil
	case expr.NotEqual:
		return expr.BoolScalar(compareScalar(left, right) != 0), nil
	case expr.LessThan:
		return expr.BoolScalar(compareScalar(left, right) < 0), nil
	case expr.LessOrEqual:
		return expr.BoolScalar(compareScalar(left, right) <= 0), nil
	case expr.GreaterThan:
		return expr.BoolScalar(compareScalar(left, right) > 0), nil
	case expr.GreaterOrEqual:
		return expr.BoolScalar(compareScalar(left, right) >= 0), nil
	case expr.Add:
		return expr.DecimalScalar(asFloat(left) + asFloat(right)), nil
	case expr.Sub:
		return expr.DecimalScalar(asFloat(left) - asFloat(right)), nil
	case expr.Mul:
		return expr.DecimalScalar(asFloat(left) * asFloat(right)), nil
	case expr.Div:
		return expr.DecimalScalar(asFloat(left) / asFloat(right)), nil
	case expr.In:
		for _, item := range right.List {
			if compareScalar(left, item) == 0 {
				return expr.BoolScalar(true), nil
			}
		}
		return expr.BoolScalar(false), nil
	default:
		return expr.Scalar{}, fmt.Errorf("fixture provider cannot evaluate operator %s", b.Op)
	}
}

func evalFunc(f expr.Func, en env) (expr.Scalar, error) {
	args := make([]expr.Scalar, len(f.Args))
	for i, a := range f.Args {
		v, err := evalScalar(a, en)
		if err != nil {
			return expr.Scalar{}, err
		}
		args[i] = v
	}
	switch f.Name {
	case "LIKE":
		pattern := strings.Trim(args[1].Str, "%")
		return expr.BoolScalar(strings.Contains(args[0].Str, pattern)), nil
	case "CONCAT":
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(a.String())
		}
		return expr.StringScalar(sb.String()), nil
	case "LTRIM":
		return expr.StringScalar(strings.TrimLeft(args[0].Str, " ")), nil
	case "RTRIM":
		return expr.StringScalar(strings.TrimRight(args[0].Str, " ")), nil
	default:
		return expr.Scalar{}, fmt.Errorf("fixture provider has no implementation for %s()", f.Name)
	}
}

// compareScalar orders two scalars: two ints, two strings or two bools
// (false before true) compare within their kind; any other pair compares
// numerically, with a non-numeric value counting as 0. That is good
// enough for a fixture provider's ORDER BY and MIN/MAX.
func compareScalar(a, b expr.Scalar) int {
	switch {
	case a.Kind == expr.KindInt && b.Kind == expr.KindInt:
		return int(a.Int - b.Int)
	case a.Kind == expr.KindString && b.Kind == expr.KindString:
		return strings.Compare(a.Str, b.Str)
	case a.Kind == expr.KindBool && b.Kind == expr.KindBool:
		if a.Bool == b.Bool {
			return 0
		}
		if b.Bool {
			return -1
		}
		return 1
	default:
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
}

// groupRows partitions filtered rows by their GroupKeys, returning one
// group per distinct key tuple in first-seen order, alongside the
// resolved key scalars for each group.
func groupRows(keys []expr.Expression, rows []map[string]interface{}, mk func(map[string]interface{}) bindings) ([][]map[string]interface{}, [][]expr.Scalar) {
	if len(keys) == 0 {
		return [][]map[string]interface{}{rows}, [][]expr.Scalar{nil}
	}
	var order []string
	groups := map[string][]map[string]interface{}{}
	keyValues := map[string][]expr.Scalar{}
	for _, row := range rows {
		vals := make([]expr.Scalar, len(keys))
		for i, k := range keys {
			v, _ := evalScalar(k, mk(row))
			vals[i] = v
		}
		sig := groupSignature(vals)
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
			keyValues[sig] = vals
		}
		groups[sig] = append(groups[sig], row)
	}
	out := make([][]map[string]interface{}, len(order))
	outKeys := make([][]expr.Scalar, len(order))
	for i, sig := range order {
		out[i] = groups[sig]
		outKeys[i] = keyValues[sig]
	}
	return out, outKeys
}

func groupSignature(vals []expr.Scalar) string {
	var sb strings.Builder
	for _, v := range vals {
		sb.WriteString(v.String())
		sb.WriteByte('\x00')
	}
	return sb.String()
}

func projectRow(projections []expr.Projection, en env, defaultAlias string) (provider.Record, error) {
	rec := provider.Record{}
	if len(projections) == 0 {
		return rec, nil
	}
	for _, proj := range projections {
		v, err := evalScalar(proj.Expr, en)
		if err != nil {
			return nil, err
		}
		alias := proj.Alias
		if alias == "" {
			alias = fmt.Sprintf("col%d", len(rec))
		}
		rec[alias] = v
	}
	return rec, nil
}

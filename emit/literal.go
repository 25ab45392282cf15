package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelquery/queryable/expr"
)

// quote brackets a table or column identifier. The bare wildcard "*"
// is never bracketed.
func quote(name string) string {
	if name == "*" {
		return "*"
	}
	return "[" + name + "]"
}

// quoteColumn renders a qualified column reference.
func quoteColumn(alias, name string) string {
	return quote(alias) + "." + quote(name)
}

// quoteString renders a T-SQL Unicode string literal, doubling embedded
// single quotes.
func quoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// literal renders a Scalar per the dialect's literal rules: booleans as
// 1/0, strings as N'...', null as NULL, datetimes as N'YYYY-MM-DD
// HH:MM:SS.sss', lists as "(e1, e2, ...)".
func literal(s expr.Scalar) string {
	switch s.Kind {
	case expr.KindInt:
		return strconv.FormatInt(s.Int, 10)
	case expr.KindDecimal:
		return strconv.FormatFloat(s.Decimal, 'g', -1, 64)
	case expr.KindString:
		return quoteString(s.Str)
	case expr.KindBool:
		if s.Bool {
			return "1"
		}
		return "0"
	case expr.KindNull:
		return "NULL"
	case expr.KindDateTime:
		return quoteString(s.Time.Format("2006-01-02 15:04:05.000"))
	case expr.KindList:
		if len(s.List) == 0 {
			return "()"
		}
		parts := make([]string, len(s.List))
		for i, item := range s.List {
			parts[i] = literal(item)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", s)
	}
}

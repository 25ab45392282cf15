package expr

import (
	"fmt"
	"time"
)

// ScalarKind discriminates the payload carried by a Scalar.
type ScalarKind int

const (
	KindInt ScalarKind = iota
	KindDecimal
	KindString
	KindBool
	KindNull
	KindDateTime
	KindList // list-of-scalar; legal only as the right operand of In
)

func (k ScalarKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Scalar is a tagged union over the literal types the compiler understands.
// It replaces the "any"-typed constants, bound variables, and group keys
// that a dynamically typed host language would carry.
type Scalar struct {
	Kind    ScalarKind
	Int     int64
	Decimal float64
	Str     string
	Bool    bool
	Time    time.Time
	List    []Scalar
}

func IntScalar(v int64) Scalar      { return Scalar{Kind: KindInt, Int: v} }
func DecimalScalar(v float64) Scalar { return Scalar{Kind: KindDecimal, Decimal: v} }
func StringScalar(v string) Scalar  { return Scalar{Kind: KindString, Str: v} }
func BoolScalar(v bool) Scalar       { return Scalar{Kind: KindBool, Bool: v} }
func NullScalar() Scalar             { return Scalar{Kind: KindNull} }
func DateTimeScalar(v time.Time) Scalar {
	return Scalar{Kind: KindDateTime, Time: v}
}
func ListScalar(items []Scalar) Scalar { return Scalar{Kind: KindList, List: items} }

// FromAny adapts a loosely typed value — as produced by reflecting over a
// parsed literal token or a bound-variable map — into a Scalar.
func FromAny(v interface{}) (Scalar, error) {
	switch t := v.(type) {
	case nil:
		return NullScalar(), nil
	case Scalar:
		return t, nil
	case int:
		return IntScalar(int64(t)), nil
	case int64:
		return IntScalar(t), nil
	case float64:
		return DecimalScalar(t), nil
	case float32:
		return DecimalScalar(float64(t)), nil
	case string:
		return StringScalar(t), nil
	case bool:
		return BoolScalar(t), nil
	case time.Time:
		return DateTimeScalar(t), nil
	case []interface{}:
		items := make([]Scalar, 0, len(t))
		for _, e := range t {
			s, err := FromAny(e)
			if err != nil {
				return Scalar{}, err
			}
			items = append(items, s)
		}
		return ListScalar(items), nil
	case []string:
		items := make([]Scalar, 0, len(t))
		for _, e := range t {
			items = append(items, StringScalar(e))
		}
		return ListScalar(items), nil
	default:
		return Scalar{}, fmt.Errorf("unsupported scalar type %T", v)
	}
}

func (s Scalar) String() string {
	switch s.Kind {
	case KindNull:
		return "NULL"
	case KindList:
		return fmt.Sprintf("%v", s.List)
	case KindDateTime:
		return s.Time.Format("2006-01-02 15:04:05.000")
	case KindBool:
		return fmt.Sprintf("%t", s.Bool)
	case KindInt:
		return fmt.Sprintf("%d", s.Int)
	case KindDecimal:
		return fmt.Sprintf("%v", s.Decimal)
	default:
		return s.Str
	}
}

// Equal reports structural equality between two scalars.
func (s Scalar) Equal(o Scalar) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindInt:
		return s.Int == o.Int
	case KindDecimal:
		return s.Decimal == o.Decimal
	case KindString:
		return s.Str == o.Str
	case KindBool:
		return s.Bool == o.Bool
	case KindNull:
		return true
	case KindDateTime:
		return s.Time.Equal(o.Time)
	case KindList:
		if len(s.List) != len(o.List) {
			return false
		}
		for i := range s.List {
			if !s.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	}
	return false
}

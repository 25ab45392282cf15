package expr

// Clone returns a deep, parent-free copy of an expression tree; the
// plans inside subquery nodes are shared, not copied. Plans
// clone their IR fragments on every operator call, so this is on the
// hot path for plan construction (teacher precedent:
// datalog/query.Pattern values are copied by value for the same reason).
func Clone(e Expression) Expression {
	switch v := e.(type) {
	case nil:
		return nil
	case Column:
		return v
	case Const:
		return Const{Value: v.Value}
	case Binary:
		return Binary{Op: v.Op, Left: Clone(v.Left), Right: Clone(v.Right)}
	case Unary:
		return Unary{Op: v.Op, Operand: Clone(v.Operand)}
	case Func:
		args := make([]Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = Clone(a)
		}
		return Func{Name: v.Name, Args: args}
	case Aggregate:
		var arg Expression
		if v.Argument != nil {
			arg = Clone(v.Argument)
		}
		return Aggregate{Kind: v.Kind, Argument: arg}
	case Projection:
		return Projection{Expr: Clone(v.Expr), Alias: v.Alias}
	case Join:
		return Join{Table: v.Table, Alias: v.Alias, Condition: Clone(v.Condition), Kind: v.Kind}
	case Ordering:
		return Ordering{Expr: Clone(v.Expr), Ascending: v.Ascending}
	case ScalarSubquery:
		return ScalarSubquery{Plan: v.Plan}
	case ExistsSubquery:
		return ExistsSubquery{Plan: v.Plan, Negated: v.Negated}
	case InSubquery:
		return InSubquery{Lhs: Clone(v.Lhs), Plan: v.Plan, Negated: v.Negated}
	default:
		return e
	}
}

// Equal reports deep structural equality between two expression trees.
// Subquery plans compare by identity (a Plan is a tree, not a value with
// a cheap deep-equality check — callers that need plan-level equality
// use plan.Equal, which recurses into expr.Equal for non-subquery
// fragments).
func Equal(a, b Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Column:
		bv, ok := b.(Column)
		return ok && av == bv
	case Const:
		bv, ok := b.(Const)
		return ok && av.Value.Equal(bv.Value)
	case Binary:
		bv, ok := b.(Binary)
		return ok && av.Op == bv.Op && Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	case Unary:
		bv, ok := b.(Unary)
		return ok && av.Op == bv.Op && Equal(av.Operand, bv.Operand)
	case Func:
		bv, ok := b.(Func)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case Aggregate:
		bv, ok := b.(Aggregate)
		return ok && av.Kind == bv.Kind && Equal(av.Argument, bv.Argument)
	case Projection:
		bv, ok := b.(Projection)
		return ok && av.Alias == bv.Alias && Equal(av.Expr, bv.Expr)
	case Join:
		bv, ok := b.(Join)
		return ok && av.Table == bv.Table && av.Alias == bv.Alias && av.Kind == bv.Kind && Equal(av.Condition, bv.Condition)
	case Ordering:
		bv, ok := b.(Ordering)
		return ok && av.Ascending == bv.Ascending && Equal(av.Expr, bv.Expr)
	case ScalarSubquery:
		bv, ok := b.(ScalarSubquery)
		return ok && av.Plan == bv.Plan
	case ExistsSubquery:
		bv, ok := b.(ExistsSubquery)
		return ok && av.Negated == bv.Negated && av.Plan == bv.Plan
	case InSubquery:
		bv, ok := b.(InSubquery)
		return ok && av.Negated == bv.Negated && av.Plan == bv.Plan && Equal(av.Lhs, bv.Lhs)
	default:
		return false
	}
}

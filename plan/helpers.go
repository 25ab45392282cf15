package plan

import (
	"fmt"

	"github.com/kestrelquery/queryable/ast"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/lambda"
	"github.com/kestrelquery/queryable/qerr"
	"github.com/kestrelquery/queryable/translate"
)

// parseLambda parses source text into a mini-AST, wrapping any failure
// as an UnparseableLambda compile error carrying the offending source.
func parseLambda(source string) (*ast.Lambda, error) {
	lam, err := lambda.Parse(source)
	if err != nil {
		return nil, qerr.Wrap(fmt.Errorf("%w: %v", qerr.ErrUnparseableLambda, err), source)
	}
	return lam, nil
}

// compileExpr parses and translates a lambda's body against p's own
// context — its own alias, tracker, and bound variables. Every key
// selector, predicate, and projection source text is compiled this way,
// rooted at whichever Plan it logically belongs to (the join partner's
// key selector compiles against the partner, a subquery's correlation
// key compiles against the subquery).
func (p *Plan) compileExpr(source string) (expr.Expression, error) {
	lam, err := parseLambda(source)
	if err != nil {
		return nil, err
	}
	ctx := p.translateContext(lam.Params)
	return translate.Expression(lam.Body, ctx, source)
}

// compileColumn compiles source and requires the result to be a plain
// Column reference — the contract for key selectors used in joins,
// whereIn/whereExists family operators, and orderBy.
func (p *Plan) compileColumn(source string) (expr.Column, error) {
	e, err := p.compileExpr(source)
	if err != nil {
		return expr.Column{}, err
	}
	col, ok := e.(expr.Column)
	if !ok {
		return expr.Column{}, qerr.Wrap(fmt.Errorf("%w: expected a column reference", qerr.ErrUnresolvedProperty), source)
	}
	return col, nil
}

package plan

import (
	"fmt"

	"github.com/kestrelquery/queryable/ast"
	"github.com/kestrelquery/queryable/expr"
	"github.com/kestrelquery/queryable/qerr"
	"github.com/kestrelquery/queryable/translate"
)

// Join appends a join clause against target, whose sourceKey/targetKey
// single-parameter lambdas supply the ON condition's two sides, and
// whose two-parameter resultSelector augments the Property Tracker so
// later operators can resolve nested chains like "j.o.amount" (§4.4
// nested-property resolution, §4.5).
func (p *Plan) Join(target *Plan, sourceKey, targetKey, resultSelector string, kind expr.JoinKind) (*Plan, error) {
	clone := p.Clone()

	srcCol, err := clone.compileColumn(sourceKey)
	if err != nil {
		return nil, err
	}
	tgtCol, err := target.compileColumn(targetKey)
	if err != nil {
		return nil, err
	}

	clone.Joins = append(clone.Joins, expr.Join{
		Table:     target.TableName,
		Alias:     target.Alias,
		Condition: expr.Binary{Op: expr.Equal, Left: srcCol, Right: tgtCol},
		Kind:      kind,
	})
	clone.aliases = clone.knownAliasesWith(translate.KnownAlias{TableName: target.TableName, Alias: target.Alias})

	if err := clone.applyJoinResultSelector(resultSelector, target.Alias); err != nil {
		return nil, err
	}
	return clone, nil
}

// InnerJoin, LeftJoin, RightJoin, and FullJoin are the fixed-kind
// conveniences over Join.
func (p *Plan) InnerJoin(target *Plan, sourceKey, targetKey, resultSelector string) (*Plan, error) {
	return p.Join(target, sourceKey, targetKey, resultSelector, expr.InnerJoin)
}

func (p *Plan) LeftJoin(target *Plan, sourceKey, targetKey, resultSelector string) (*Plan, error) {
	return p.Join(target, sourceKey, targetKey, resultSelector, expr.LeftOuterJoin)
}

func (p *Plan) RightJoin(target *Plan, sourceKey, targetKey, resultSelector string) (*Plan, error) {
	return p.Join(target, sourceKey, targetKey, resultSelector, expr.RightOuterJoin)
}

func (p *Plan) FullJoin(target *Plan, sourceKey, targetKey, resultSelector string) (*Plan, error) {
	return p.Join(target, sourceKey, targetKey, resultSelector, expr.FullOuterJoin)
}

// applyJoinResultSelector implements §4.5's join result-selector rule:
// object-literal keys whose values are bare identifiers register
// "key.*" against that identifier's resolved alias; keys whose values
// are property chains register the specific column.
func (p *Plan) applyJoinResultSelector(source, joinedAlias string) error {
	lam, err := parseLambda(source)
	if err != nil {
		return err
	}
	if len(lam.Params) != 2 {
		return qerr.Wrap(fmt.Errorf("%w: join result selector must take two parameters", qerr.ErrUnparseableLambda), source)
	}
	obj, ok := lam.Body.(ast.ObjectLiteral)
	if !ok {
		return qerr.Wrap(fmt.Errorf("%w: join result selector must return an object literal", qerr.ErrUnparseableLambda), source)
	}

	paramAlias := map[string]string{
		lam.Params[0]: p.Alias,
		lam.Params[1]: joinedAlias,
	}

	for _, prop := range obj.Properties {
		value := prop.Value
		if prop.Spread {
			value = prop.Value // spread targets are handled like a direct value below
		}

		if ident, ok := value.(ast.Identifier); ok {
			if alias, ok := paramAlias[ident.Name]; ok {
				key := prop.Key
				if key == "" {
					key = ident.Name
				}
				p.Tracker.RegisterWildcard(key, alias)
				continue
			}
		}
		if pa, ok := value.(ast.PropertyAccess); ok {
			if base, ok := pa.Base.(ast.Identifier); ok {
				if alias, ok := paramAlias[base.Name]; ok {
					column := pa.Path[len(pa.Path)-1]
					p.Tracker.RegisterPath(prop.Key, alias, column, pa.Path)
					continue
				}
			}
		}
	}
	return nil
}

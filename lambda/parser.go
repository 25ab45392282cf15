// Package lambda parses the textual source of a user-supplied lambda
// function into the language-neutral mini-AST defined by package ast.
// It recognizes a small ECMAScript-like expression surface: identifiers,
// property chains, binary/unary operators, calls, and object-literal
// projections. Anything else is preserved verbatim as an ast.Opaque
// node for the translator's last-resort string-constant path.
package lambda

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelquery/queryable/ast"
	"github.com/kestrelquery/queryable/lexer"
)

// Parser recursive-descent parses a token stream into the mini-AST.
type Parser struct {
	lex *lexer.Lexer
	src string
}

// Parse extracts the parameter list and body from a lambda's source
// text and parses the body into an ast.Lambda.
func Parse(src string) (*ast.Lambda, error) {
	trimmed := strings.TrimSpace(src)
	params, bodyText, err := splitArrow(trimmed)
	if err != nil {
		return nil, err
	}

	bodyText = strings.TrimSpace(bodyText)
	bodyText = stripBraceBody(bodyText)

	l := lexer.New(bodyText)
	if err := l.Lex(); err != nil {
		return &ast.Lambda{Params: params, Body: ast.Opaque{Text: trimmed}}, nil
	}

	p := &Parser{lex: l, src: trimmed}
	body, perr := p.parseExpression()
	if perr != nil {
		// Last-resort path: the spec allows preserving unrecognized
		// source verbatim rather than failing the whole lambda.
		return &ast.Lambda{Params: params, Body: ast.Opaque{Text: trimmed}}, nil
	}
	if p.lex.PeekToken().Type != lexer.TokenEOF {
		return &ast.Lambda{Params: params, Body: ast.Opaque{Text: trimmed}}, nil
	}

	return &ast.Lambda{Params: params, Body: body}, nil
}

// splitArrow extracts the parameter list and raw body text from
// "(p1) => body", "p1 => body", or "(p1, p2) => body".
func splitArrow(src string) ([]string, string, error) {
	idx := strings.Index(src, "=>")
	if idx < 0 {
		return nil, "", fmt.Errorf("lambda source has no '=>': %q", src)
	}
	head := strings.TrimSpace(src[:idx])
	body := src[idx+2:]

	head = strings.TrimPrefix(head, "(")
	head = strings.TrimSuffix(head, ")")
	head = strings.TrimSpace(head)

	var params []string
	if head != "" {
		for _, p := range strings.Split(head, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				params = append(params, p)
			}
		}
	}
	return params, body, nil
}

// stripBraceBody strips a wrapping "{ ... }" block body down to the
// expression following its "return" statement; a bare object-literal
// block body ("{ x: 1 }") is left untouched so it parses as an
// ObjectLiteral rather than a statement block.
func stripBraceBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return body
	}

	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if strings.HasPrefix(inner, "return") {
		inner = strings.TrimSpace(strings.TrimPrefix(inner, "return"))
		inner = strings.TrimSuffix(inner, ";")
		return inner
	}

	// Heuristic: "{ key: value, ... }" is an object literal body; a
	// genuine statement block contains no top-level ":" before any
	// "{"/"(" nesting resolves, which the object-literal grammar below
	// enforces by construction. Treat as-is and let the expression
	// parser attempt an ObjectLiteral parse.
	return trimmed
}

func (p *Parser) peek() lexer.Token { return p.lex.PeekToken() }
func (p *Parser) next() lexer.Token { return p.lex.NextToken() }

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	t := p.next()
	if t.Type != tt {
		return t, fmt.Errorf("expected token %v, got %v at %d:%d", tt, t.Type, t.Line, t.Col)
	}
	return t, nil
}

// parseExpression is the precedence-climbing entry point:
// || < && < equality < relational < additive < multiplicative < unary
// < postfix (call/member) < primary.
func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (ast.Node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && p.peek().Value == "||" {
		p.next()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && p.peek().Value == "&&" {
		p.next()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

var equalityOps = map[string]bool{"===": true, "==": true, "!==": true, "!=": true}

func (p *Parser) parseEquality() (ast.Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && equalityOps[p.peek().Value] {
		op := p.next().Value
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.BinaryOp(op), Left: left, Right: right}
	}
	return left, nil
}

var relationalOps = map[string]bool{">": true, ">=": true, "<": true, "<=": true}

func (p *Parser) parseRelational() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && relationalOps[p.peek().Value] {
		op := p.next().Value
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.BinaryOp(op), Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && (p.peek().Value == "+" || p.peek().Value == "-") {
		op := p.next().Value
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.BinaryOp(op), Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenOp && (p.peek().Value == "*" || p.peek().Value == "/" || p.peek().Value == "%") {
		op := p.next().Value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.BinaryOp(op), Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.peek().Type == lexer.TokenOp && (p.peek().Value == "!" || p.peek().Value == "-") {
		op := p.next().Value
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.UnaryOp(op), Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles property access chains and call expressions,
// e.g. "j.o.amount", "u.name.trim()", "COUNT(u.id)".
func (p *Parser) parsePostfix() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Type {
		case lexer.TokenDot:
			p.next()
			name, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			node = appendProperty(node, name.Value)
		case lexer.TokenLParen:
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			node = ast.Call{Callee: node, Args: args}
		default:
			return node, nil
		}
	}
}

// appendProperty folds a single ".name" step into an existing
// PropertyAccess, or starts a new one rooted at base.
func appendProperty(base ast.Node, name string) ast.Node {
	if pa, ok := base.(ast.PropertyAccess); ok {
		return ast.PropertyAccess{Base: pa.Base, Path: append(append([]string{}, pa.Path...), name)}
	}
	return ast.PropertyAccess{Base: base, Path: []string{name}}
}

func (p *Parser) parseArgList() ([]ast.Node, error) {
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var args []ast.Node
	for p.peek().Type != lexer.TokenRParen {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Type == lexer.TokenComma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	t := p.peek()
	switch t.Type {
	case lexer.TokenIdent:
		p.next()
		return ast.Identifier{Name: t.Value}, nil
	case lexer.TokenString:
		p.next()
		return ast.Literal{Kind: ast.LitString, Str: t.Value}, nil
	case lexer.TokenNumber:
		p.next()
		n, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at %d:%d", t.Value, t.Line, t.Col)
		}
		return ast.Literal{Kind: ast.LitNumber, Num: n}, nil
	case lexer.TokenTrue:
		p.next()
		return ast.Literal{Kind: ast.LitBool, Bool: true}, nil
	case lexer.TokenFalse:
		p.next()
		return ast.Literal{Kind: ast.LitBool, Bool: false}, nil
	case lexer.TokenNull:
		p.next()
		return ast.Literal{Kind: ast.LitNull}, nil
	case lexer.TokenLParen:
		p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.TokenLBracket:
		return p.parseArrayLiteral()
	case lexer.TokenLBrace:
		return p.parseObjectLiteral()
	default:
		return nil, fmt.Errorf("unexpected token %v at %d:%d", t.Type, t.Line, t.Col)
	}
}

// parseArrayLiteral parses "['a', 'b']" into a synthetic call node the
// translator recognizes as a literal list (used for bound-variable
// array literals embedded directly in a predicate).
func (p *Parser) parseArrayLiteral() (ast.Node, error) {
	if _, err := p.expect(lexer.TokenLBracket); err != nil {
		return nil, err
	}
	var items []ast.Node
	for p.peek().Type != lexer.TokenRBracket {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.peek().Type == lexer.TokenComma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return ast.Call{Callee: ast.Identifier{Name: "__array"}, Args: items}, nil
}

func (p *Parser) parseObjectLiteral() (ast.Node, error) {
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	var props []ast.ObjectProperty
	for p.peek().Type != lexer.TokenRBrace {
		if p.peek().Type == lexer.TokenSpread {
			p.next()
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			props = append(props, ast.ObjectProperty{Spread: true, Value: val})
		} else {
			keyTok, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			var value ast.Node
			if p.peek().Type == lexer.TokenColon {
				p.next()
				value, err = p.parseExpression()
				if err != nil {
					return nil, err
				}
			} else {
				// Shorthand property: "{ name }" means "{ name: name }".
				value = ast.Identifier{Name: keyTok.Value}
			}
			props = append(props, ast.ObjectProperty{Key: keyTok.Value, Value: value})
		}

		if p.peek().Type == lexer.TokenComma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return ast.ObjectLiteral{Properties: props}, nil
}

// Package expr evaluates small arithmetic expressions over a fixed variable
// namespace.
//
// The language is deliberately tiny: numeric literals, named variables,
// + - * /, unary minus, parentheses, and the min, max and ceil functions.
// There is no general evaluation of any kind, so configuration files can
// carry formulas without carrying code.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Node is a parsed expression evaluated against a variable namespace.
type Node interface {
	Eval(vars map[string]float64) (float64, error)
	String() string
}

// ParseError reports where in the source parsing failed.
type ParseError struct {
	Pos     int // byte offset in the source
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
}

// Parse parses source into an expression tree.
func Parse(source string) (Node, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.typ != tokenEOF {
		return nil, &ParseError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %q after expression", tok.val)}
	}
	return node, nil
}

// Eval parses source and evaluates it against vars in one call.
func Eval(source string, vars map[string]float64) (float64, error) {
	node, err := Parse(source)
	if err != nil {
		return 0, err
	}
	return node.Eval(vars)
}

// Number is a numeric literal.
type Number float64

func (n Number) Eval(map[string]float64) (float64, error) { return float64(n), nil }

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

// Ident is a variable reference resolved at evaluation time.
type Ident string

func (id Ident) Eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(id)]
	if !ok {
		return 0, fmt.Errorf("unknown variable %q", string(id))
	}
	return v, nil
}

func (id Ident) String() string { return string(id) }

// Unary negates its operand.
type Unary struct{ X Node }

func (u Unary) Eval(vars map[string]float64) (float64, error) {
	v, err := u.X.Eval(vars)
	return -v, err
}

func (u Unary) String() string { return "-" + u.X.String() }

// Binary applies one of the four arithmetic operators.
type Binary struct {
	Op   byte // '+', '-', '*' or '/'
	L, R Node
}

func (b Binary) Eval(vars map[string]float64) (float64, error) {
	l, err := b.L.Eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("division by zero in %s", b)
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown operator %q", string(b.Op))
}

func (b Binary) String() string { return fmt.Sprintf("(%s %c %s)", b.L, b.Op, b.R) }

// Call applies one of the whitelisted functions.
type Call struct {
	Name string
	Args []Node
}

var functions = map[string]struct {
	arity int
	apply func(args []float64) float64
}{
	"min":  {2, func(a []float64) float64 { return math.Min(a[0], a[1]) }},
	"max":  {2, func(a []float64) float64 { return math.Max(a[0], a[1]) }},
	"ceil": {1, func(a []float64) float64 { return math.Ceil(a[0]) }},
}

func (c Call) Eval(vars map[string]float64) (float64, error) {
	fn, ok := functions[c.Name]
	if !ok {
		return 0, fmt.Errorf("unknown function %q", c.Name)
	}
	if len(c.Args) != fn.arity {
		return 0, fmt.Errorf("%s takes %d argument(s), got %d", c.Name, fn.arity, len(c.Args))
	}
	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(vars)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return fn.apply(args), nil
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	typ tokenType
	val string
	pos int
}

func lex(source string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(source) {
		c := rune(source[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(source) && (source[i] >= '0' && source[i] <= '9' || source[i] == '.' || source[i] == 'e' || source[i] == 'E' ||
				(i > start && (source[i] == '+' || source[i] == '-') && (source[i-1] == 'e' || source[i-1] == 'E'))) {
				i++
			}
			val := source[start:i]
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				return nil, &ParseError{Pos: start, Message: fmt.Sprintf("invalid number %q", val)}
			}
			tokens = append(tokens, token{tokenNumber, val, start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(source) && (isIdentRune(rune(source[i]))) {
				i++
			}
			tokens = append(tokens, token{tokenIdent, source[start:i], start})
		default:
			var typ tokenType
			switch c {
			case '+':
				typ = tokenPlus
			case '-':
				typ = tokenMinus
			case '*':
				typ = tokenStar
			case '/':
				typ = tokenSlash
			case '(':
				typ = tokenLParen
			case ')':
				typ = tokenRParen
			case ',':
				typ = tokenComma
			default:
				return nil, &ParseError{Pos: i, Message: fmt.Sprintf("unexpected character %q", string(c))}
			}
			tokens = append(tokens, token{typ, string(c), i})
			i++
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(source)})
	return tokens, nil
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

// parser is a plain recursive descent over the token stream:
//
//	expr   = term  (("+"|"-") term)*
//	term   = factor (("*"|"/") factor)*
//	factor = NUMBER | IDENT | IDENT "(" args ")" | "(" expr ")" | "-" factor
type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokenPlus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '+', L: left, R: right}
		case tokenMinus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '-', L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokenStar:
			p.advance()
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '*', L: left, R: right}
		case tokenSlash:
			p.advance()
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: '/', L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseFactor() (Node, error) {
	tok := p.advance()
	switch tok.typ {
	case tokenNumber:
		v, _ := strconv.ParseFloat(tok.val, 64) // validated by the lexer
		return Number(v), nil
	case tokenIdent:
		if p.peek().typ != tokenLParen {
			return Ident(tok.val), nil
		}
		p.advance() // consume "("
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return Call{Name: tok.val, Args: args}, nil
	case tokenLParen:
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.advance(); closing.typ != tokenRParen {
			return nil, &ParseError{Pos: closing.pos, Message: "missing closing parenthesis"}
		}
		return node, nil
	case tokenMinus:
		node, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return Unary{X: node}, nil
	}
	return nil, &ParseError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %q", tok.val)}
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.peek().typ == tokenRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch tok := p.advance(); tok.typ {
		case tokenComma:
		case tokenRParen:
			return args, nil
		default:
			return nil, &ParseError{Pos: tok.pos, Message: fmt.Sprintf("expected , or ) got %q", tok.val)}
		}
	}
}

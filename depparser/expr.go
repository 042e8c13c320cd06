// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package depparser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is an expression used in assignment and conditional directives.
//
// The expression language has literals (integers, floats, quoted strings,
// true and false), dotted variable names, parentheses, and the operators
//
//	or ||            lowest
//	and &&
//	not
//	== != < <= > >=
//	+ -
//	* / %
//	unary - !        highest
//
// Evaluation has no side effects.
type Expr interface {
	Eval(scope *Scope) (Value, error)
	String() string
}

// ParseExpr parses s as an expression.
func ParseExpr(s string) (Expr, error) {
	p := &exprParser{lex: exprLexer{src: s}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, errors.New("empty expression")
	}
	x, err := p.parse(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at %d", p.tok.text, p.tok.pos)
	}
	return x, nil
}

// Eval parses and evaluates s in scope.
func Eval(s string, scope *Scope) (Value, error) {
	x, err := ParseExpr(s)
	if err != nil {
		return Value{}, err
	}
	return x.Eval(scope)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type exprLexer struct {
	src string
	pos int
}

// twoCharOps are checked before single char operators.
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *exprLexer) next() (token, error) {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	ch := l.src[l.pos]
	switch {
	case isIdentStart(ch):
		l.pos++
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if isIdentStart(c) || isDigit(c) {
				l.pos++
				continue
			}
			// dotted name, e.g. hls.cflags
			if c == '.' && l.pos+1 < len(l.src) && isIdentStart(l.src[l.pos+1]) {
				l.pos++
				continue
			}
			break
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.number()
	case ch == '"' || ch == '\'':
		return l.quoted(ch)
	case ch == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ch == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	}
	for _, op := range twoCharOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			return token{kind: tokOp, text: op, pos: start}, nil
		}
	}
	switch ch {
	case '+', '-', '*', '/', '%', '<', '>', '!':
		l.pos++
		return token{kind: tokOp, text: string(ch), pos: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at %d", ch, start)
}

func (l *exprLexer) number() (token, error) {
	start := l.pos
	kind := tokInt
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		kind = tokFloat
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		kind = tokFloat
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos >= len(l.src) || !isDigit(l.src[l.pos]) {
			return token{}, fmt.Errorf("malformed number %q at %d", l.src[start:l.pos], start)
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && isIdentStart(l.src[l.pos]) {
		return token{}, fmt.Errorf("malformed number %q at %d", l.src[start:l.pos+1], start)
	}
	return token{kind: kind, text: l.src[start:l.pos], pos: start}, nil
}

func (l *exprLexer) quoted(q byte) (token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch ch {
		case q:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return token{}, fmt.Errorf("unterminated string at %d", start)
			}
			switch e := l.src[l.pos]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(e)
			}
			l.pos++
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string at %d", start)
}

// binding powers.
const (
	bpOr      = 1
	bpAnd     = 2
	bpNot     = 3
	bpCompare = 4
	bpSum     = 5
	bpProduct = 6
)

// infixOps maps an infix operator to its binding power and canonical name.
var infixOps = map[string]struct {
	bp int
	op string
}{
	"or":  {bpOr, "or"},
	"||":  {bpOr, "or"},
	"and": {bpAnd, "and"},
	"&&":  {bpAnd, "and"},
	"==":  {bpCompare, "=="},
	"!=":  {bpCompare, "!="},
	"<":   {bpCompare, "<"},
	"<=":  {bpCompare, "<="},
	">":   {bpCompare, ">"},
	">=":  {bpCompare, ">="},
	"+":   {bpSum, "+"},
	"-":   {bpSum, "-"},
	"*":   {bpProduct, "*"},
	"/":   {bpProduct, "/"},
	"%":   {bpProduct, "%"},
}

type exprParser struct {
	lex exprLexer
	tok token
}

func (p *exprParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *exprParser) infix() (int, string) {
	switch p.tok.kind {
	case tokOp, tokIdent:
		if op, ok := infixOps[p.tok.text]; ok {
			return op.bp, op.op
		}
	}
	return 0, ""
}

// parse parses an expression whose operators bind tighter than minBP.
func (p *exprParser) parse(minBP int) (Expr, error) {
	lhs, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		bp, op := p.infix()
		if bp == 0 || bp <= minBP {
			return lhs, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parse(bp)
		if err != nil {
			return nil, err
		}
		lhs = &binaryExpr{op: op, x: lhs, y: rhs}
	}
}

func (p *exprParser) prefix() (Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokEOF:
		return nil, errors.New("unexpected end of expression")
	case tokInt:
		if err := p.advance(); err != nil {
			return nil, err
		}
		i, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q: %w", tok.text, err)
		}
		return &literalExpr{v: Int(i)}, nil
	case tokFloat:
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float %q: %w", tok.text, err)
		}
		return &literalExpr{v: Float(f)}, nil
	case tokString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &literalExpr{v: String(tok.text)}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parse(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("missing ) for ( at %d", tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return x, nil
	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch tok.text {
		case "true", "True":
			return &literalExpr{v: Bool(true)}, nil
		case "false", "False":
			return &literalExpr{v: Bool(false)}, nil
		case "not":
			x, err := p.parse(bpNot)
			if err != nil {
				return nil, err
			}
			return &unaryExpr{op: "not", x: x}, nil
		case "and", "or":
			return nil, fmt.Errorf("unexpected %q at %d", tok.text, tok.pos)
		}
		return &varExpr{name: tok.text}, nil
	case tokOp:
		switch tok.text {
		case "-", "!", "+":
			if err := p.advance(); err != nil {
				return nil, err
			}
			x, err := p.parse(bpProduct)
			if err != nil {
				return nil, err
			}
			op := tok.text
			if op == "!" {
				op = "not"
			}
			return &unaryExpr{op: op, x: x}, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q at %d", tok.text, tok.pos)
}

type literalExpr struct {
	v Value
}

func (x *literalExpr) Eval(*Scope) (Value, error) { return x.v, nil }
func (x *literalExpr) String() string             { return x.v.GoString() }

type varExpr struct {
	name string
}

func (x *varExpr) Eval(scope *Scope) (Value, error) {
	if scope != nil {
		if v, ok := scope.Lookup(x.name); ok {
			return v, nil
		}
	}
	return Value{}, fmt.Errorf("name %q is not defined", x.name)
}

func (x *varExpr) String() string { return x.name }

type unaryExpr struct {
	op string
	x  Expr
}

func (x *unaryExpr) String() string {
	if x.op == "not" {
		return "(not " + x.x.String() + ")"
	}
	return "(" + x.op + x.x.String() + ")"
}

func (x *unaryExpr) Eval(scope *Scope) (Value, error) {
	v, err := x.x.Eval(scope)
	if err != nil {
		return Value{}, err
	}
	switch x.op {
	case "not":
		b, ok := v.AsBool()
		if !ok {
			return Value{}, fmt.Errorf("not: operand is %s, want bool", v.Type())
		}
		return Bool(!b), nil
	case "-":
		switch v.Type() {
		case IntType:
			if v.i == math.MinInt64 {
				return Value{}, fmt.Errorf("-: integer overflow -(%d)", v.i)
			}
			return Int(-v.i), nil
		case FloatType:
			return Float(-v.f), nil
		}
	case "+":
		switch v.Type() {
		case IntType, FloatType:
			return v, nil
		}
	}
	return Value{}, fmt.Errorf("%s: operand is %s, want number", x.op, v.Type())
}

type binaryExpr struct {
	op   string
	x, y Expr
}

func (x *binaryExpr) String() string {
	return "(" + x.x.String() + " " + x.op + " " + x.y.String() + ")"
}

func (x *binaryExpr) Eval(scope *Scope) (Value, error) {
	lhs, err := x.x.Eval(scope)
	if err != nil {
		return Value{}, err
	}
	switch x.op {
	case "and", "or":
		lb, ok := lhs.AsBool()
		if !ok {
			return Value{}, fmt.Errorf("%s: left operand is %s, want bool", x.op, lhs.Type())
		}
		if (x.op == "and" && !lb) || (x.op == "or" && lb) {
			return Bool(lb), nil
		}
		rhs, err := x.y.Eval(scope)
		if err != nil {
			return Value{}, err
		}
		rb, ok := rhs.AsBool()
		if !ok {
			return Value{}, fmt.Errorf("%s: right operand is %s, want bool", x.op, rhs.Type())
		}
		return Bool(rb), nil
	}
	rhs, err := x.y.Eval(scope)
	if err != nil {
		return Value{}, err
	}
	switch x.op {
	case "==", "!=", "<", "<=", ">", ">=":
		return compare(x.op, lhs, rhs)
	}
	return arith(x.op, lhs, rhs)
}

func isNumber(v Value) bool {
	return v.typ == IntType || v.typ == FloatType
}

func toFloat(v Value) float64 {
	if v.typ == IntType {
		return float64(v.i)
	}
	return v.f
}

func compare(op string, lhs, rhs Value) (Value, error) {
	var c int
	switch {
	case lhs.typ == IntType && rhs.typ == IntType:
		c = cmpOrdered(lhs.i, rhs.i)
	case isNumber(lhs) && isNumber(rhs):
		c = cmpOrdered(toFloat(lhs), toFloat(rhs))
	case lhs.typ == StringType && rhs.typ == StringType:
		c = strings.Compare(lhs.s, rhs.s)
	case lhs.typ == BoolType && rhs.typ == BoolType:
		switch op {
		case "==":
			return Bool(lhs.b == rhs.b), nil
		case "!=":
			return Bool(lhs.b != rhs.b), nil
		}
		return Value{}, fmt.Errorf("%s: bools are not ordered", op)
	default:
		switch op {
		case "==":
			return Bool(false), nil
		case "!=":
			return Bool(true), nil
		}
		return Value{}, fmt.Errorf("%s: cannot compare %s and %s", op, lhs.Type(), rhs.Type())
	}
	switch op {
	case "==":
		return Bool(c == 0), nil
	case "!=":
		return Bool(c != 0), nil
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	}
	return Bool(c >= 0), nil
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func arith(op string, lhs, rhs Value) (Value, error) {
	if op == "+" && lhs.typ == StringType && rhs.typ == StringType {
		return String(lhs.s + rhs.s), nil
	}
	if !isNumber(lhs) || !isNumber(rhs) {
		return Value{}, fmt.Errorf("%s: unsupported operands %s and %s", op, lhs.Type(), rhs.Type())
	}
	if op == "/" {
		// "/" is true division.
		if toFloat(rhs) == 0 {
			return Value{}, errors.New("/: division by zero")
		}
		return Float(toFloat(lhs) / toFloat(rhs)), nil
	}
	if lhs.typ == IntType && rhs.typ == IntType {
		a, b := lhs.i, rhs.i
		switch op {
		case "+":
			c := a + b
			if (a^c)&(b^c) < 0 {
				return Value{}, fmt.Errorf("+: integer overflow %d + %d", a, b)
			}
			return Int(c), nil
		case "-":
			c := a - b
			if (a^b)&(a^c) < 0 {
				return Value{}, fmt.Errorf("-: integer overflow %d - %d", a, b)
			}
			return Int(c), nil
		case "*":
			c := a * b
			if a != 0 && (c/a != b || (a == -1 && b == math.MinInt64)) {
				return Value{}, fmt.Errorf("*: integer overflow %d * %d", a, b)
			}
			return Int(c), nil
		case "%":
			if b == 0 {
				return Value{}, errors.New("%: division by zero")
			}
			return Int(a % b), nil
		}
	}
	a, b := toFloat(lhs), toFloat(rhs)
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "%":
		if b == 0 {
			return Value{}, errors.New("%: division by zero")
		}
		return Float(math.Mod(a, b)), nil
	}
	return Value{}, fmt.Errorf("unknown operator %q", op)
}

package compiler

import (
	"strconv"
	"strings"

	"github.com/mna/glox/lang/machine"
	"github.com/mna/glox/lang/token"
)

// precedence levels, low to high.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . () []
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LPAREN:     {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.LBRACK:     {prefix: (*Compiler).list, infix: (*Compiler).subscript, precedence: precCall},
		token.DOT:        {infix: (*Compiler).dot, precedence: precCall},
		token.MINUS:      {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.PLUS:       {infix: (*Compiler).binary, precedence: precTerm},
		token.SLASH:      {infix: (*Compiler).binary, precedence: precFactor},
		token.STAR:       {infix: (*Compiler).binary, precedence: precFactor},
		token.BANG:       {prefix: (*Compiler).unary},
		token.BANGEQ:     {infix: (*Compiler).binary, precedence: precEquality},
		token.EQEQ:       {infix: (*Compiler).binary, precedence: precEquality},
		token.GT:         {infix: (*Compiler).binary, precedence: precComparison},
		token.GEQ:        {infix: (*Compiler).binary, precedence: precComparison},
		token.LT:         {infix: (*Compiler).binary, precedence: precComparison},
		token.LEQ:        {infix: (*Compiler).binary, precedence: precComparison},
		token.IDENT:      {prefix: (*Compiler).variable},
		token.STRING:     {prefix: (*Compiler).stringLiteral},
		token.NUMBER:     {prefix: (*Compiler).number},
		token.AND:        {infix: (*Compiler).and, precedence: precAnd},
		token.OR:         {infix: (*Compiler).or, precedence: precOr},
		token.FALSE:      {prefix: (*Compiler).literal},
		token.TRUE:       {prefix: (*Compiler).literal},
		token.NIL:        {prefix: (*Compiler).literal},
		token.THIS:       {prefix: (*Compiler).this},
		token.SUPER:      {prefix: (*Compiler).super},
	}
}

func getRule(k token.Kind) rule { return rules[k] }

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.prv.Kind).prefix
	if prefix == nil {
		c.error("expected expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.cur.Kind).precedence {
		c.advance()
		infix := getRule(c.prv.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) number(canAssign bool) {
	f, err := strconv.ParseFloat(c.prv.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(machine.Number(f))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	raw := c.prv.Lexeme
	unquoted := raw[1 : len(raw)-1] // strip surrounding quotes
	s, ok := unescape(unquoted)
	if !ok {
		c.error("invalid escape sequence in string literal")
		return
	}
	c.emitConstant(c.vm.InternString(s))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.prv.Kind {
	case token.FALSE:
		c.emitOp(machine.OpFalse)
	case token.TRUE:
		c.emitOp(machine.OpTrue)
	case token.NIL:
		c.emitOp(machine.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "expected ')' after expression")
}

func (c *Compiler) unary(canAssign bool) {
	opKind := c.prv.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		c.emitOp(machine.OpNegate)
	case token.BANG:
		c.emitOp(machine.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opKind := c.prv.Kind
	r := getRule(opKind)
	c.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.PLUS:
		c.emitOp(machine.OpAdd)
	case token.MINUS:
		c.emitOp(machine.OpSubtract)
	case token.STAR:
		c.emitOp(machine.OpMultiply)
	case token.SLASH:
		c.emitOp(machine.OpDivide)
	case token.EQEQ:
		c.emitOp(machine.OpEqual)
	case token.BANGEQ:
		c.emitOp(machine.OpEqual)
		c.emitOp(machine.OpNot)
	case token.GT:
		c.emitOp(machine.OpGreater)
	case token.GEQ:
		c.emitOp(machine.OpLess)
		c.emitOp(machine.OpNot)
	case token.LT:
		c.emitOp(machine.OpLess)
	case token.LEQ:
		c.emitOp(machine.OpGreater)
		c.emitOp(machine.OpNot)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(machine.OpJumpIfFalse)
	c.emitOp(machine.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(machine.OpJumpIfFalse)
	endJump := c.emitJump(machine.OpJump)
	c.patchJump(elseJump)
	c.emitOp(machine.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOps(machine.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	count := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == maxArgs {
				c.error("can't have more than 255 arguments")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after arguments")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "expected property name after '.'")
	name := c.identifierConstant(c.prv.Lexeme)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOps(machine.OpSetProperty, name)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOps(machine.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOps(machine.OpGetProperty, name)
	}
}

// subscript compiles `[index]` following a primary expression: `a[i]`,
// `a[i] = v` and `a[] = v` (the shift/append form).
func (c *Compiler) subscript(canAssign bool) {
	if c.match(token.RBRACK) {
		c.consume(token.EQ, "expected '=' after '[]'")
		c.expression()
		c.emitOp(machine.OpShiftIndex)
		return
	}

	c.expression()
	c.consume(token.RBRACK, "expected ']' after index")

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(machine.OpSetIndex)
		return
	}
	c.emitOp(machine.OpGetIndex)
}

func (c *Compiler) list(canAssign bool) {
	count := 0
	if !c.check(token.RBRACK) {
		for {
			c.expression()
			if count == maxListElem {
				c.error("can't have more than 255 elements in a list literal")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "expected ']' after list literal")
	c.emitOps(machine.OpList, byte(count))
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'this' outside of a class")
		return
	}
	c.variable(false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'super' outside of a class")
	} else if !c.class.hasSuper {
		c.error("can't use 'super' in a class with no superclass")
	}

	c.consume(token.DOT, "expected '.' after 'super'")
	c.consume(token.IDENT, "expected superclass method name")
	name := c.identifierConstant(c.prv.Lexeme)

	c.namedVariableGet("this")
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariableGet("super")
		c.emitOps(machine.OpSuperInvoke, name)
		c.emitByte(argCount)
		return
	}
	c.namedVariableGet("super")
	c.emitOps(machine.OpGetSuper, name)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.prv.Lexeme, canAssign)
}

// namedVariable compiles a read, write, or increment/decrement of name,
// resolving it as local, upvalue, or global in that order.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp machine.Opcode
	var arg int

	arg = resolveLocal(c.fs, name)
	switch {
	case arg == -2:
		c.error("can't read local variable in its own initializer")
		arg = 0
		getOp, setOp = machine.OpGetLocal, machine.OpSetLocal
	case arg != -1:
		getOp, setOp = machine.OpGetLocal, machine.OpSetLocal
	default:
		if arg = c.resolveUpvalue(c.fs, name); arg == -2 {
			c.error("can't read local variable in its own initializer")
			arg = 0
			getOp, setOp = machine.OpGetUpvalue, machine.OpSetUpvalue
		} else if arg != -1 {
			getOp, setOp = machine.OpGetUpvalue, machine.OpSetUpvalue
		} else {
			arg = int(c.identifierConstant(name))
			getOp, setOp = machine.OpGetGlobal, machine.OpSetGlobal
		}
	}

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOps(setOp, byte(arg))
	case canAssign && c.match(token.PLUSPLUS):
		c.emitOps(getOp, byte(arg))
		c.emitOp(machine.OpInc)
		c.emitOps(setOp, byte(arg))
		c.emitOp(machine.OpDec)
	case canAssign && c.match(token.MINUSMINUS):
		c.emitOps(getOp, byte(arg))
		c.emitOp(machine.OpDec)
		c.emitOps(setOp, byte(arg))
		c.emitOp(machine.OpInc)
	default:
		c.emitOps(getOp, byte(arg))
	}
}

// namedVariableGet compiles a bare read of name, used internally for the
// synthetic `this`/`super` locals which are never themselves assignable.
func (c *Compiler) namedVariableGet(name string) {
	c.namedVariable(name, false)
}

// unescape processes the escape sequences permitted inside a string
// literal's body: `\\ \" \' \a \b \e \n \r \t \?`,
// `\xHH`, and `\uHHHH` (encoded as UTF-8).
func unescape(s string) (string, bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case '\'':
			sb.WriteByte('\'')
		case 'a':
			sb.WriteByte(7)
		case 'b':
			sb.WriteByte(8)
		case 'e':
			sb.WriteByte(27)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '?':
			sb.WriteByte('?')
		case 'x':
			if i+2 >= len(s) {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			sb.WriteByte(byte(v))
			i += 2
		case 'u':
			if i+4 >= len(s) {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", false
			}
			sb.WriteRune(rune(v))
			i += 4
		default:
			return "", false
		}
	}
	return sb.String(), true
}

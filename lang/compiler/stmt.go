package compiler

import (
	"github.com/mna/glox/lang/machine"
	"github.com/mna/glox/lang/token"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.SWITCH):
		c.switchStatement()
	case c.match(token.BREAK):
		c.breakStatement()
	case c.match(token.CONTINUE):
		c.continueStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expected '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "expected ';' after value")
	c.emitOp(machine.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "expected ';' after expression")
	c.emitOp(machine.OpPop)
}

func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENT, message)
	name := c.prv.Lexeme
	c.declareVariable(name)
	if c.fs.scope > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.fs.scope > 0 {
		c.markInitialized()
		return
	}
	c.emitOps(machine.OpDefineGlobal, global)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expected variable name")

	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(machine.OpNil)
	}
	c.consume(token.SEMI, "expected ';' after variable declaration")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expected function name")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// function compiles a nested function body (or method) into its own
// Function object, pushing a fresh funcState for the duration.
func (c *Compiler) function(ft funcType) {
	fn := c.vm.NewFunction()
	fn.Name = c.vm.InternString(c.prv.Lexeme)

	c.fs = &funcState{enclosing: c.fs, fn: fn, fnType: ft}
	if ft != typeFunction {
		c.fs.locals = append(c.fs.locals, local{name: "this", depth: 0})
	} else {
		c.fs.locals = append(c.fs.locals, local{name: "", depth: 0})
	}

	c.vm.PushCompilerRoot(fn)
	defer c.vm.PopCompilerRoot()

	c.beginScope()
	c.consume(token.LPAREN, "expected '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			fn.Arity++
			if fn.Arity > maxArgs {
				c.error("can't have more than 255 parameters")
			}
			paramConst := c.parseVariable("expected parameter name")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after parameters")
	c.consume(token.LBRACE, "expected '{' before function body")
	c.block()

	compiled := c.endCompilerKeepParent()
	c.emitClosure(compiled)
}

// endCompilerKeepParent finishes the innermost funcState (emitting the
// implicit return) and restores the enclosing one, returning the
// now-complete nested funcState so its upvalue table can still be read
// by emitClosure.
func (c *Compiler) endCompilerKeepParent() *funcState {
	c.emitReturn()
	finished := c.fs
	c.fs = c.fs.enclosing
	return finished
}

func (c *Compiler) emitClosure(nested *funcState) {
	idx := c.makeConstant(nested.fn)
	c.emitOps(machine.OpClosure, idx)
	for _, uv := range nested.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "expected class name")
	className := c.prv.Lexeme
	nameConst := c.identifierConstant(className)
	c.declareVariable(className)

	c.emitOps(machine.OpClass, nameConst)
	c.defineVariable(nameConst)

	c.class = &classState{enclosing: c.class, name: className}

	if c.match(token.LT) {
		c.consume(token.IDENT, "expected superclass name")
		if c.prv.Lexeme == className {
			c.error("a class can't inherit from itself")
		}
		c.variable(false)

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariableGet(className)
		c.emitOp(machine.OpInherit)
		c.class.hasSuper = true
	}

	c.namedVariableGet(className)
	c.consume(token.LBRACE, "expected '{' before class body")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "expected '}' after class body")
	c.emitOp(machine.OpPop) // the class value pushed for namedVariableGet above

	if c.class.hasSuper {
		c.endScope()
	}
	c.class = c.class.enclosing
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "expected method name")
	name := c.prv.Lexeme
	nameConst := c.identifierConstant(name)

	ft := typeMethod
	if name == "init" {
		ft = typeInitializer
	}
	c.function(ft)
	c.emitOps(machine.OpMethod, nameConst)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "expected '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "expected ')' after condition")

	thenJump := c.emitJump(machine.OpJumpIfFalse)
	c.emitOp(machine.OpPop)
	c.statement()

	elseJump := c.emitJump(machine.OpJump)
	c.patchJump(thenJump)
	c.emitOp(machine.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.loop = &loopState{enclosing: c.loop, scope: c.fs.scope, continueAt: loopStart}
	c.brk = &breakState{enclosing: c.brk, scope: c.fs.scope}

	c.consume(token.LPAREN, "expected '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "expected ')' after condition")

	exitJump := c.emitJump(machine.OpJumpIfFalse)
	c.emitOp(machine.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(machine.OpPop)

	c.patchBreaks()
	c.loop = c.loop.enclosing
	c.brk = c.brk.enclosing
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "expected '(' after 'for'")

	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.check(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "expected ';' after loop condition")
		exitJump = c.emitJump(machine.OpJumpIfFalse)
		c.emitOp(machine.OpPop)
	} else {
		c.advance() // consume ';'
	}

	if !c.check(token.RPAREN) {
		bodyJump := c.emitJump(machine.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(machine.OpPop)
		c.consume(token.RPAREN, "expected ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.advance() // consume ')'
	}

	c.loop = &loopState{enclosing: c.loop, scope: c.fs.scope, continueAt: loopStart}
	c.brk = &breakState{enclosing: c.brk, scope: c.fs.scope}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(machine.OpPop)
	}

	c.patchBreaks()
	c.loop = c.loop.enclosing
	c.brk = c.brk.enclosing
	c.endScope()
}

// patchBreaks patches every forward jump recorded by a break statement
// that targeted the current innermost break-accepting construct.
func (c *Compiler) patchBreaks() {
	for _, off := range c.brk.jumps {
		c.patchJump(off)
	}
}

func (c *Compiler) breakStatement() {
	if c.brk == nil {
		c.error("can't use 'break' outside of a loop or switch")
		c.consume(token.SEMI, "expected ';' after 'break'")
		return
	}
	c.popLocalsAbove(c.brk.scope)
	c.brk.jumps = append(c.brk.jumps, c.emitJump(machine.OpJump))
	c.consume(token.SEMI, "expected ';' after 'break'")
}

func (c *Compiler) continueStatement() {
	if c.loop == nil {
		c.error("can't use 'continue' outside of a loop")
		c.consume(token.SEMI, "expected ';' after 'continue'")
		return
	}
	c.popLocalsAbove(c.loop.scope)
	c.emitLoop(c.loop.continueAt)
	c.consume(token.SEMI, "expected ';' after 'continue'")
}

// popLocalsAbove emits the OP_POP/OP_CLOSE_UPVALUE sequence for every
// local deeper than scope, without actually truncating c.fs.locals:
// break/continue jump out of the scope but the compiler's own
// bookkeeping for it is unwound normally when endScope later runs.
func (c *Compiler) popLocalsAbove(scope int) {
	for i := len(c.fs.locals) - 1; i >= 0 && c.fs.locals[i].depth > scope; i-- {
		if c.fs.locals[i].captured {
			c.emitOp(machine.OpCloseUpvalue)
		} else {
			c.emitOp(machine.OpPop)
		}
	}
}

// switchStatement compiles `switch (expr) { case E: stmts… default: … }`.
// Each case re-tests the discriminant left on the stack; bodies fall
// through into a trailing jump to the switch's end, collected like any
// other break target.
func (c *Compiler) switchStatement() {
	c.consume(token.LPAREN, "expected '(' after 'switch'")
	c.expression()
	c.consume(token.RPAREN, "expected ')' after switch expression")
	c.consume(token.LBRACE, "expected '{' before switch body")

	c.brk = &breakState{enclosing: c.brk, scope: c.fs.scope}

	sawDefault := false
	prevCaseJump := -1 // OP_JUMP_IF_FALSE of the previous case, to patch to this case
	var endJumps []int // fall-through-avoiding jumps at the end of each case body

	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		switch {
		case c.match(token.CASE):
			if sawDefault {
				c.error("'case' can't appear after 'default'")
			}
			if prevCaseJump != -1 {
				c.patchJump(prevCaseJump)
				c.emitOp(machine.OpPop)
			}
			c.emitOp(machine.OpDup)
			c.expression()
			c.consume(token.COLON, "expected ':' after case value")
			c.emitOp(machine.OpEqual)
			prevCaseJump = c.emitJump(machine.OpJumpIfFalse)
			c.emitOp(machine.OpPop)
			for !c.check(token.CASE) && !c.check(token.DEFAULT) && !c.check(token.RBRACE) {
				c.statement()
			}
			endJumps = append(endJumps, c.emitJump(machine.OpJump))

		case c.match(token.DEFAULT):
			if sawDefault {
				c.error("only one 'default' allowed in a switch")
			}
			sawDefault = true
			c.consume(token.COLON, "expected ':' after 'default'")
			if prevCaseJump != -1 {
				c.patchJump(prevCaseJump)
				c.emitOp(machine.OpPop)
				prevCaseJump = -1
			}
			for !c.check(token.CASE) && !c.check(token.DEFAULT) && !c.check(token.RBRACE) {
				c.statement()
			}

		default:
			c.error("expected 'case' or 'default' in switch body")
			c.advance()
		}
	}
	if prevCaseJump != -1 {
		c.patchJump(prevCaseJump)
		c.emitOp(machine.OpPop)
	}
	c.consume(token.RBRACE, "expected '}' after switch body")

	for _, j := range endJumps {
		c.patchJump(j)
	}
	c.patchBreaks()
	c.brk = c.brk.enclosing

	c.emitOp(machine.OpPop) // discard the discriminant
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == typeScript {
		c.error("can't return from top-level code")
	}

	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}

	if c.fs.fnType == typeInitializer {
		c.error("can't return a value from an initializer")
	}

	c.expression()
	c.consume(token.SEMI, "expected ';' after return value")
	c.emitOp(machine.OpReturn)
}

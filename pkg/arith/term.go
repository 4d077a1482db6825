package arith

import "github.com/elves/shellsyntax/pkg/ast"

// exp := negated ( '**' negated )*
func (p *Parser) exp() ast.Token { return p.binaryLevel(p.negated, "**")() }

// negated := ('!'|'~') signed | signed
func (p *Parser) negated() ast.Token {
	p.skipSpace()
	if op := p.peekOp("!", "~"); op != "" {
		p.consumeOp(op)
		id := p.fresh()
		return ast.NewTAUnary(id, op, p.signed())
	}
	return p.signed()
}

// signed := ('+'|'-') incremented | incremented
// The leading sign must not be followed by the same character, or it is
// really the prefix of '++'/'--' and belongs to incremented instead.
func (p *Parser) signed() ast.Token {
	p.skipSpace()
	rest := p.rest()
	if len(rest) >= 1 && (rest[0] == '+' || rest[0] == '-') {
		if !(len(rest) >= 2 && rest[1] == rest[0]) {
			op := string(rest[0])
			p.pos++
			id := p.fresh()
			return ast.NewTAUnary(id, op, p.incremented())
		}
	}
	return p.incremented()
}

// incremented := term incpost? | '++' term | '--' term
func (p *Parser) incremented() ast.Token {
	p.skipSpace()
	if p.consumeOp("++") {
		id := p.fresh()
		return ast.NewTAUnary(id, "++|", p.term())
	}
	if p.consumeOp("--") {
		id := p.fresh()
		return ast.NewTAUnary(id, "--|", p.term())
	}
	t := p.term()
	p.skipSpace()
	if p.consumeOp("++") {
		id := p.fresh()
		return ast.NewTAUnary(id, "|++", t)
	}
	if p.consumeOp("--") {
		id := p.fresh()
		return ast.NewTAUnary(id, "|--", t)
	}
	return t
}

// term := '(' sequence ')' | dollar | number | variable
func (p *Parser) term() ast.Token {
	p.skipSpace()
	if p.consumeOp("(") {
		inner := p.sequence()
		p.consumeOp(")")
		return inner
	}
	if p.consumeOp("$") {
		return p.dollar()
	}
	if n := p.number(); n != nil {
		return n
	}
	return p.variable()
}

// number is one-or-more of [0-9.]; numeric validity (hex/octal well-
// formedness, multiple decimal points) is a downstream concern.
func (p *Parser) number() ast.Token {
	start := p.pos
	for !p.eof() && (isDigit(p.text[p.pos]) || p.text[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return nil
	}
	id := p.fresh()
	return ast.NewTALiteral(id, p.text[start:p.pos])
}

func (p *Parser) variable() ast.Token {
	start := p.pos
	for !p.eof() && isVarChar(p.text[p.pos]) {
		p.pos++
	}
	id := p.fresh()
	if p.pos == start {
		return ast.NewTAVariable(id, "")
	}
	return ast.NewTAVariable(id, p.text[start:p.pos])
}

// dollar handles a bare "$name" or "${name}" reference met inside an
// arithmetic expression. This is intentionally a conservative, literal
// capture rather than a delegation into the full parameter-expansion
// grammar (see DESIGN.md for why arith stays free of a dependency on the
// word grammar).
func (p *Parser) dollar() ast.Token {
	id := p.fresh()
	if p.consumeOp("{") {
		start := p.pos
		for !p.eof() && p.text[p.pos] != '}' {
			p.pos++
		}
		name := p.text[start:p.pos]
		p.consumeOp("}")
		word := ast.NewLiteral(p.fresh(), name)
		return ast.NewTAExpansion(id, word)
	}
	start := p.pos
	for !p.eof() && isVarChar(p.text[p.pos]) {
		p.pos++
	}
	word := ast.NewLiteral(p.fresh(), p.text[start:p.pos])
	return ast.NewTAExpansion(id, word)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isVarChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

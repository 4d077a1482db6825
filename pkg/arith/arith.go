// Package arith parses the arithmetic-expression sublanguage used inside
// $((...)) and ((...)), building the TA_* nodes of pkg/ast instead of
// evaluating them (numeric validity is a downstream concern per the shell
// grammar this is lifted from).
package arith

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// Resolver turns a byte offset within the arithmetic substring into an
// absolute source Position. Parser threads everything through it instead of
// tracking lines itself, so a single Position scheme is shared with the
// rest of the parser package without creating an import cycle back to it.
type Resolver func(offsetInExpr int) ast.Position

// Parser parses one arithmetic expression. It is not safe for concurrent
// use; create one per expression.
type Parser struct {
	text    string
	pos     int
	resolve Resolver
	store   *ast.Store
}

// New returns a Parser over text, which starts right after the opening $((
// or (( and may run on past the closing delimiter: parsing stops at the
// first input that cannot continue the expression, and Rest reports what is
// left. resolve maps offsets within text back to source positions for Id
// allocation.
func New(text string, resolve Resolver, store *ast.Store) *Parser {
	return &Parser{text: text, resolve: resolve, store: store}
}

// Rest reports the unconsumed suffix of the expression, for callers that
// want to diagnose trailing content after Parse returns.
func (p *Parser) Rest() string { return p.text[p.pos:] }

func (p *Parser) pos0() ast.Position { return p.resolve(p.pos) }

func (p *Parser) fresh() ast.Id { return p.store.Fresh(p.pos0()) }

func (p *Parser) eof() bool { return p.pos >= len(p.text) }

func (p *Parser) rest() string { return p.text[p.pos:] }

func (p *Parser) skipSpace() {
	for !p.eof() {
		r := p.text[p.pos]
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\v' {
			p.pos++
		} else {
			break
		}
	}
}

// consumeOpExcept consumes op if present and not immediately followed by a
// rune in except (to avoid swallowing the first character of a longer
// operator, e.g. matching "<" of "<<" or "=" of "==").
func (p *Parser) consumeOpExcept(op, except string) bool {
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), op) {
		return false
	}
	follow := p.rest()[len(op):]
	if len(follow) > 0 && strings.ContainsRune(except, rune(follow[0])) {
		return false
	}
	p.pos += len(op)
	return true
}

func (p *Parser) consumeOp(op string) bool { return p.consumeOpExcept(op, "") }

func (p *Parser) peekOp(ops ...string) string {
	save := p.pos
	p.skipSpace()
	rest := p.rest()
	p.pos = save
	for _, op := range ops {
		if strings.HasPrefix(rest, op) {
			return op
		}
	}
	return ""
}

// Parse parses a full comma sequence, the entry production for both
// $((...)) and ((...)).
func (p *Parser) Parse() ast.Token { return p.sequence() }

// sequence := assignment ( ',' assignment )*
//
// The Id for the TASequence wrapper is only allocated once a comma has
// actually been seen: allocating it up front and then discarding it on the
// single-item path would leave an orphaned key in the metadata map with no
// corresponding tree node.
func (p *Parser) sequence() ast.Token {
	items := []ast.Token{p.assignment()}
	for p.consumeOp(",") {
		items = append(items, p.assignment())
	}
	if len(items) == 1 {
		return items[0]
	}
	return ast.NewTASequence(p.fresh(), items)
}

var assignOps = []string{"<<=", ">>=", "+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=", "="}

// assignment := trinary ( assignop trinary )*
func (p *Parser) assignment() ast.Token {
	left := p.trinary()
	for {
		op := p.matchAssignOp()
		if op == "" {
			return left
		}
		id := p.fresh()
		right := p.trinary()
		left = ast.NewTABinary(id, op, left, right)
	}
}

func (p *Parser) matchAssignOp() string {
	p.skipSpace()
	for _, op := range assignOps {
		if op == "=" {
			// Must not match "==".
			if p.consumeOpExcept("=", "=") {
				return "="
			}
			continue
		}
		if strings.HasPrefix(p.rest(), op) {
			p.pos += len(op)
			return op
		}
	}
	return ""
}

// trinary := logical_or ( '?' assignment ':' assignment )?
func (p *Parser) trinary() ast.Token {
	cond := p.logicalOr()
	if !p.consumeOp("?") {
		return cond
	}
	id := p.fresh()
	then := p.assignment()
	p.consumeOp(":")
	els := p.assignment()
	return ast.NewTATrinary(id, cond, then, els)
}

func (p *Parser) binaryLevel(next func() ast.Token, ops ...string) func() ast.Token {
	return func() ast.Token {
		left := next()
		for {
			op := ""
			for _, candidate := range ops {
				if p.tryOp(candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return left
			}
			id := p.fresh()
			right := next()
			left = ast.NewTABinary(id, op, left, right)
		}
	}
}

// tryOp consumes op if it matches, rejecting it when immediately followed
// by '&', '|', '<', '>', or '=' so that e.g. the "<<" of "<<=" or the "<" of
// "<=" is never mistaken for a complete operator of this level.
func (p *Parser) tryOp(op string) bool {
	return p.consumeOpExcept(op, "&|<>=")
}

func (p *Parser) logicalOr() ast.Token  { return p.binaryLevel(p.logicalAnd, "||")() }
func (p *Parser) logicalAnd() ast.Token { return p.binaryLevel(p.bitOr, "&&")() }
func (p *Parser) bitOr() ast.Token      { return p.binaryLevel(p.bitXor, "|")() }
func (p *Parser) bitXor() ast.Token     { return p.binaryLevel(p.bitAnd, "^")() }
func (p *Parser) bitAnd() ast.Token     { return p.binaryLevel(p.equated, "&")() }
func (p *Parser) equated() ast.Token    { return p.binaryLevel(p.compared, "==", "!=")() }
func (p *Parser) compared() ast.Token   { return p.binaryLevel(p.shift, "<=", ">=", "<", ">")() }
func (p *Parser) shift() ast.Token      { return p.binaryLevel(p.add, "<<", ">>")() }
func (p *Parser) add() ast.Token        { return p.binaryLevel(p.mul, "+", "-")() }
func (p *Parser) mul() ast.Token        { return p.binaryLevel(p.exp, "*", "/", "%")() }

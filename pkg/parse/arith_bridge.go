package parse

import (
	"github.com/elves/shellsyntax/pkg/arith"
	"github.com/elves/shellsyntax/pkg/ast"
)

// parseArithmetic delegates to pkg/arith for the duration of one arithmetic
// expression, sharing this parser's Store so Ids and notes
// interleave with the surrounding word/command grammar's numbering, then
// advances the cursor past whatever arith consumed. Callers are responsible
// for recognizing and consuming the construct's own delimiters ("))", ")",
// etc.) before and after this call; arith stops the moment no further
// operator matches, leaving the delimiter in p.rest().
func (p *parser) parseArithmetic() ast.Token {
	base := p.pos
	text := p.text[base:]
	ap := arith.New(text, func(off int) ast.Position { return p.position(base + off) }, p.store)
	tok := ap.Parse()
	consumed := len(text) - len(ap.Rest())
	p.pos = base + consumed
	return tok
}

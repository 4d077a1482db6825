package parse

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// Character classes for the word/quoting grammar.
const (
	variableStartSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_"
	variableCharSet   = variableStartSet + "0123456789"
	specialVariableSet = "@*#?$!-"
	quotableSet        = "#|&;<>()$`\\ \t\n'\""
	doubleQuotableSet  = "\"$`\\"
	extglobStartSet    = "?*@!+"
)

func isVariableStart(b byte) bool { return strings.IndexByte(variableStartSet, b) >= 0 }
func isVariableChar(b byte) bool  { return strings.IndexByte(variableCharSet, b) >= 0 }

// spacing consumes a run of horizontal whitespace and "\<newline>" line
// continuations (already folded out of p.text, so this just consumes tabs
// and spaces), then optionally a comment up to but excluding the following
// newline. Returns the consumed whitespace text (not including the
// comment).
func (p *parser) spacing() string {
	ws := p.consumeWhileIn(" \t")
	if p.consumePrefix("#") {
		p.consumeWhileNotIn("\n")
	}
	return ws
}

// allSpacing is spacing extended to also cross newlines (and therefore to
// resolve any heredocs pending at each newline crossed), recursively: after
// crossing one newline there may be more horizontal space, more comments,
// and more newlines.
func (p *parser) allSpacing() {
	for {
		before := p.pos
		p.spacing()
		if p.checkCarriageReturn() {
			continue
		}
		if p.consumePrefix("\n") {
			p.resolvePendingHeredocs()
			continue
		}
		if p.pos == before {
			return
		}
	}
}

// checkCarriageReturn consumes a literal \r if present, emitting the
// Error-level note for a bare carriage return, and reports whether it did.
func (p *parser) checkCarriageReturn() bool {
	if !p.hasPrefix("\r") {
		return false
	}
	p.noteHere(ast.Error, "Literal carriage return")
	p.consume(1)
	return true
}

func (p *parser) resolvePendingHeredocs() {
	pending := p.pendingHeredocs
	p.pendingHeredocs = nil
	for _, hd := range pending {
		p.readHeredocBody(hd)
	}
}

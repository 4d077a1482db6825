// Package parse implements the grammar of spec.md: lexical primitives, the
// word grammar, the conditional and arithmetic expression sublanguages, and
// the command grammar, all threaded through a single parser that issues
// Ids, records per-node notes, and accumulates position-anchored
// ParseNotes.
package parse

import (
	"sort"
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// parser is the cursor plus the threaded Store. Backtracking
// rewinds pos (and the heredoc queue, which is cursor-local bookkeeping);
// it never rewinds the Store.
type parser struct {
	filename string
	// orig is the raw input. text has backslash-newline line continuations
	// removed, matching the teacher's lexer: "\<newline>" disappears from
	// every grammar rule's point of view, single-quoted strings included.
	// lineCont records where each one was removed, so recoverPos can map
	// offsets in text back to offsets in orig.
	orig     string
	text     string
	lineCont []int

	pos int

	store *ast.Store

	pendingHeredocs []*pendingHeredoc
}

type pendingHeredoc struct {
	dashed   bool
	quoted   bool
	endToken string
	id       ast.Id
	target   *ast.HereDoc
}

func newParser(filename, orig string) *parser {
	var lineCont []int
	var b strings.Builder
	lastBackslash := false
	for _, r := range orig {
		switch {
		case lastBackslash && r == '\n':
			lineCont = append(lineCont, b.Len())
			lastBackslash = false
		case lastBackslash:
			b.WriteByte('\\')
			b.WriteRune(r)
			lastBackslash = false
		case r == '\\':
			lastBackslash = true
		default:
			b.WriteRune(r)
		}
	}
	if lastBackslash {
		lineCont = append(lineCont, b.Len())
	}
	return &parser{filename: filename, orig: orig, text: b.String(), lineCont: lineCont, store: ast.NewStore()}
}

// recoverPos maps an offset into text back to an offset into orig, which is
// what line/column computation below is based on (line continuations were
// removed from text but still occupy two bytes in orig).
func (p *parser) recoverPos(pos int) int {
	return pos + 2*sort.SearchInts(p.lineCont, pos+1)
}

// position computes the {file, line, column} of an offset into text.
func (p *parser) position(textPos int) ast.Position {
	origPos := p.recoverPos(textPos)
	if origPos > len(p.orig) {
		origPos = len(p.orig)
	}
	line, col := 1, 1
	for _, r := range p.orig[:origPos] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Position{File: p.filename, Line: line, Column: col}
}

func (p *parser) curPos() ast.Position { return p.position(p.pos) }

// fresh allocates a new Id anchored at the cursor's current position.
func (p *parser) fresh() ast.Id { return p.store.Fresh(p.curPos()) }

func (p *parser) freshAt(textPos int) ast.Id { return p.store.Fresh(p.position(textPos)) }

func (p *parser) attach(id ast.Id, sev ast.Severity, msg string) {
	p.store.AttachNote(id, sev, msg)
}

func (p *parser) noteHere(sev ast.Severity, msg string) {
	p.store.NoteAt(p.curPos(), sev, msg)
}

func (p *parser) noteAt(textPos int, sev ast.Severity, msg string) {
	p.store.NoteAt(p.position(textPos), sev, msg)
}

// --- cursor primitives, in the teacher's idiom ---

func (p *parser) rest() string { return p.text[p.pos:] }

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) consume(n int) string {
	s := p.text[p.pos : p.pos+n]
	p.pos += n
	return s
}

func (p *parser) consumeWhile(f func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.text) && f(p.text[p.pos]) {
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *parser) consumeWhileIn(set string) string {
	return p.consumeWhile(func(b byte) bool { return strings.IndexByte(set, b) >= 0 })
}

func (p *parser) consumeWhileNotIn(set string) string {
	return p.consumeWhile(func(b byte) bool { return strings.IndexByte(set, b) < 0 })
}

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.rest(), s) }

func (p *parser) hasPrefixIn(prefixes ...string) string {
	for _, s := range prefixes {
		if p.hasPrefix(s) {
			return s
		}
	}
	return ""
}

func (p *parser) consumePrefix(s string) bool {
	if p.hasPrefix(s) {
		p.consume(len(s))
		return true
	}
	return false
}

func (p *parser) consumePrefixIn(prefixes ...string) string {
	s := p.hasPrefixIn(prefixes...)
	p.consume(len(s))
	return s
}

func (p *parser) peekByte() (byte, bool) {
	if p.eof() {
		return 0, false
	}
	return p.text[p.pos], true
}

// try snapshots the cursor, runs f, and rewinds the cursor (never the
// Store) if f reports failure. This is the combinator core's "try"
// operator: allocated Ids and notes on a discarded path are
// retained on purpose.
func (p *parser) try(f func() bool) bool {
	save := p.pos
	saveHeredocs := len(p.pendingHeredocs)
	if f() {
		return true
	}
	p.pos = save
	p.pendingHeredocs = p.pendingHeredocs[:saveHeredocs]
	return false
}

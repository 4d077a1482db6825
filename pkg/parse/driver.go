package parse

import "github.com/elves/shellsyntax/pkg/ast"

// Package-level entry point, grounded on
// elves-posixsh/pkg/parse/parse.go's Parse function and main.go's
// error-to-diagnostic rendering, generalized to the ParseResult{tree, notes}
// shape.

// ParseShell parses contents (attributed to filename in reported
// positions) and returns the resulting tree together with every diagnostic
// note collected along the way, sorted and deduplicated. tree is absent only
// when the top level left unparsed input after running out of commands to
// read -- this grammar otherwise always recovers locally and keeps going,
// so a wholesale fatal failure is rare by construction.
func ParseShell(filename, contents string) ast.ParseResult {
	p := newParser(filename, contents)
	p.allSpacingAndSeparators()
	body := many(func() (ast.Token, bool) {
		if !p.mayParseCommand(cmdOpt{}) {
			return nil, false
		}
		t := p.parseTerm(cmdOpt{})
		p.allSpacingAndSeparators()
		return t, true
	})

	if !p.eof() {
		p.noteHere(ast.Error, "Aborting due to unexpected `"+unexpectedToken(p)+"`. Is this even valid?")
		notes := append(ast.NotesFromMap(p.store.Metadata()), p.store.Notes()...)
		return ast.ParseResult{Tree: nil, Notes: ast.SortNotes(notes)}
	}

	script := ast.NewScript(p.freshAt(0), body)
	tree := &ast.Tree{Root: script, Metadata: p.store.Metadata()}
	notes := append(ast.NotesFromMap(p.store.Metadata()), p.store.Notes()...)
	return ast.ParseResult{Tree: tree, Notes: ast.SortNotes(notes)}
}

// unexpectedToken reports the single rune sitting at the cursor, or the
// literal "eof" when nothing is left, matching the convention that empty
// unexpected tokens become that string.
func unexpectedToken(p *parser) string {
	if p.eof() {
		return "eof"
	}
	b, _ := p.peekByte()
	return string(b)
}

package parse

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

var ioFileOps = []string{">>", "<>", ">|", "<&", ">&", "<", ">"}

func (p *parser) mayParseRedir() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.consumeWhileIn("0123456789")
	return p.hasPrefix("<<<") || p.hasPrefix("<<") || p.hasPrefixIn(ioFileOps...) != ""
}

// parseRedir = `[0-9]*` (here-string | here-doc | file-op spacing filename)
func (p *parser) parseRedir() *ast.FdRedirect {
	id := p.fresh()
	fd := p.consumeWhileIn("0123456789")
	switch {
	case p.consumePrefix("<<<"):
		p.spacing()
		word := p.requireWord()
		return ast.NewFdRedirect(id, fd, ast.NewHereString(p.fresh(), word))
	case p.hasPrefix("<<"):
		return ast.NewFdRedirect(id, fd, p.parseHeredocHeader())
	default:
		op := p.consumePrefixIn(ioFileOps...)
		if op == "" {
			p.noteHere(ast.Error, "missing redirection operator, assuming <")
			op = "<"
		}
		p.spacing()
		file := p.requireWord()
		return ast.NewFdRedirect(id, fd, ast.NewIoFile(p.fresh(), op, file))
	}
}

func (p *parser) requireWord() ast.Token {
	if p.mayParseWord(wordOpt{}) {
		return p.parseNormalWord(wordOpt{})
	}
	p.noteHere(ast.Error, "missing word where a filename was expected")
	return p.buildNormalWord(p.fresh(), nil)
}

// --- here-documents ---

func (p *parser) parseHeredocHeader() *ast.HereDoc {
	id := p.fresh()
	dashed := false
	p.consume(2) // "<<"
	if p.consumePrefix("-") {
		dashed = true
	}
	p.spacing()
	endWord := p.requireWord()
	endToken, quoted := wordLiteralText(endWord)
	hd := ast.NewHereDoc(id, dashed, quoted, endToken, "")
	p.pendingHeredocs = append(p.pendingHeredocs, &pendingHeredoc{
		dashed: dashed, quoted: quoted, endToken: endToken, id: id, target: hd,
	})
	return hd
}

// wordLiteralText extracts the delimiter text a here-document's end token
// designates, along with whether any quoting was present (which disables
// parameter expansion in the body).
func wordLiteralText(tok ast.Token) (text string, quoted bool) {
	nw, ok := tok.(*ast.NormalWord)
	if !ok {
		return "", false
	}
	var b strings.Builder
	for _, part := range nw.Parts {
		switch v := part.(type) {
		case *ast.Literal:
			b.WriteString(v.Value)
		case *ast.SingleQuoted:
			b.WriteString(v.Value)
			quoted = true
		case *ast.DoubleQuoted:
			quoted = true
			for _, dp := range v.Parts {
				if lit, ok := dp.(*ast.Literal); ok {
					b.WriteString(lit.Value)
				}
			}
		}
	}
	return b.String(), quoted
}

// readHeredocBody is invoked once allSpacing crosses the newline that
// follows a pending heredoc's header line. It captures raw source lines up
// to one that, with its leading spaces and tabs trimmed, equals the end
// token, and runs the indent diagnostics on that line or the EOF diagnostics
// for an unterminated heredoc.
func (p *parser) readHeredocBody(hd *pendingHeredoc) {
	target := hd.target
	lineStart := p.pos
	for {
		lineEnd := indexByteFrom(p.text, p.pos, '\n')
		atEOF := lineEnd < 0
		if atEOF {
			lineEnd = len(p.text)
		}
		line := p.text[p.pos:lineEnd]
		trimmed, indent := splitIndent(line, hd.dashed)
		if trimmed == hd.endToken {
			target.Body = p.text[lineStart:p.pos]
			p.checkHeredocIndent(hd, indent)
			p.pos = lineEnd
			if !atEOF {
				p.pos++ // consume the newline
			}
			return
		}
		if atEOF {
			p.diagnoseMissingHeredocEnd(hd, p.text[lineStart:p.pos])
			target.Body = p.text[lineStart:p.pos]
			p.pos = len(p.text)
			return
		}
		p.pos = lineEnd + 1
	}
}

func indexByteFrom(s string, from int, b byte) int {
	i := strings.IndexByte(s[from:], b)
	if i < 0 {
		return -1
	}
	return from + i
}

// splitIndent strips the leading run of spaces and tabs from line for the
// end-token comparison, in both the dashed and the non-dashed form, and
// reports that run back so checkHeredocIndent can diagnose it (a dashed
// heredoc may indent only with tabs; a non-dashed one may not indent its
// end token at all).
func splitIndent(line string, dashed bool) (trimmed, indent string) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:], line[:i]
}

func (p *parser) checkHeredocIndent(hd *pendingHeredoc, indent string) {
	if !hd.dashed {
		if indent != "" {
			p.attach(hd.id, ast.Error, "Use <<- instead of << if you want to indent the end token")
		}
		return
	}
	for i := 0; i < len(indent); i++ {
		if indent[i] != '\t' {
			p.attach(hd.id, ast.Error, "When using <<-, you can only indent with tabs")
			return
		}
	}
}

func (p *parser) diagnoseMissingHeredocEnd(hd *pendingHeredoc, body string) {
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == hd.endToken {
			p.attach(hd.id, ast.Error, "Found "+hd.endToken+" further down, but not by itself at the start of the line")
			return
		}
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.EqualFold(trimmed, hd.endToken) {
			p.attach(hd.id, ast.Error, "Found "+hd.endToken+" further down, but with wrong casing")
			return
		}
	}
	p.attach(hd.id, ast.Error, "Couldn't find end token `"+hd.endToken+"' in the here document")
}

package parse

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// wordOpt carries the context a word-part parse needs: whether we are
// inside a back-quoted command substitution (so a bare "`" must stop us
// rather than be consumed), and any extra characters that terminate a word
// in the current grammar position (case patterns stopping at '|'/')', a
// conditional expression stopping at ']').
type wordOpt struct {
	inBackquotes bool
	extraStop    string
}

const exprStopperSet = " \t\n;&|()<>"

func (p *parser) mayParseWord(opt wordOpt) bool {
	b, ok := p.peekByte()
	if !ok {
		return false
	}
	if opt.inBackquotes && b == '`' {
		return false
	}
	if strings.IndexByte(opt.extraStop, b) >= 0 {
		return false
	}
	return strings.IndexByte(exprStopperSet, b) < 0
}

// parseNormalWord parses one-or-more word parts into a NormalWord. Callers
// must have already checked mayParseWord.
func (p *parser) parseNormalWord(opt wordOpt) *ast.NormalWord {
	id := p.fresh()
	parts := many(func() (ast.Token, bool) {
		if !p.mayParseWord(opt) {
			return nil, false
		}
		return p.parseWordPart(opt), true
	})
	return p.buildNormalWord(id, parts)
}

var possibleTerminationWords = map[string]bool{
	"do": true, "done": true, "then": true, "fi": true, "esac": true, "}": true,
}

// buildNormalWord assembles a NormalWord from already-parsed parts,
// guaranteeing the non-empty-parts invariant (a synthetic empty Literal
// stands in when nothing was collected), and runs
// checkPossibleTermination: only words of the exact shape [Literal X] are
// checked, by design -- richer shapes like a
// quoted "done" are intentionally not flagged.
func (p *parser) buildNormalWord(id ast.Id, parts []ast.Token) *ast.NormalWord {
	if len(parts) == 0 {
		parts = []ast.Token{ast.NewLiteral(p.fresh(), "")}
	}
	if len(parts) == 1 {
		if lit, ok := parts[0].(*ast.Literal); ok && possibleTerminationWords[lit.Value] {
			p.attach(id, ast.Warning,
				"Use semicolon or linefeed before '"+lit.Value+"' (or quote to make it literal)")
		}
	}
	return ast.NewNormalWord(id, parts)
}

// parseWordPart tries, in order: single-quoted, double-quoted, extglob,
// dollar-form, brace-expansion, back-ticked, normal literal.
func (p *parser) parseWordPart(opt wordOpt) ast.Token {
	switch {
	case p.hasPrefix("'"):
		return p.parseSingleQuoted()
	case p.hasPrefix(`"`):
		return p.parseDoubleQuoted(opt)
	case p.mayParseExtglob():
		if t, ok := p.tryExtglob(opt); ok {
			return t
		}
		return p.parseExtglobStartAsLiteral()
	case p.hasPrefix("$"):
		return p.parseDollarForm(opt)
	case p.hasPrefix("{"):
		return p.parseBraceExpansion()
	case p.hasPrefix("`"):
		return p.parseBacktick()
	default:
		return p.parseNormalLiteral(opt)
	}
}

// --- single-quoted ---

func (p *parser) parseSingleQuoted() ast.Token {
	id := p.fresh()
	p.consume(1)
	start := p.pos
	p.consumeWhileNotIn("'")
	value := p.text[start:p.pos]
	lastWasAlpha := len(value) > 0 && isAlpha(value[len(value)-1])
	endsInBackslash := strings.HasSuffix(value, `\`)
	if !p.consumePrefix("'") {
		p.noteHere(ast.Error, "unterminated single-quoted string")
	} else if b, ok := p.peekByte(); ok && isAlpha(b) && lastWasAlpha {
		p.attach(id, ast.Warning, "This apostrophe terminated the single quoted string!")
	} else if endsInBackslash {
		// Single quotes have no escapes: a trailing backslash right
		// before the closing quote is just literal text, and the quote
		// really does end here. Flag it, since it reads like an attempt to
		// escape the closing quote.
		p.attach(id, ast.Info, "Didn't expect to find a backslash escaping a single quote here; single quotes don't support escapes")
	}
	return ast.NewSingleQuoted(id, value)
}

func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

// --- double-quoted ---

const doubleQuotedEscapable = `"$` + "`" + `\`

func (p *parser) parseDoubleQuoted(opt wordOpt) *ast.DoubleQuoted {
	id := p.fresh()
	p.consume(1)
	innerOpt := wordOpt{inBackquotes: opt.inBackquotes}
	parts := many(func() (ast.Token, bool) {
		if p.eof() || p.hasPrefix(`"`) {
			return nil, false
		}
		return p.parseDoubleQuotedSegment(innerOpt), true
	})
	if !p.consumePrefix(`"`) {
		p.noteHere(ast.Error, "unterminated double-quoted string")
	}
	return ast.NewDoubleQuoted(id, parts)
}

func (p *parser) parseDoubleQuotedSegment(opt wordOpt) ast.Token {
	if p.hasPrefixIn("$", "`") != "" {
		if p.hasPrefix("`") {
			return p.parseBacktick()
		}
		return p.parseDollarForm(opt)
	}
	id := p.fresh()
	var b strings.Builder
	for !p.eof() && p.hasPrefixIn(`"`, "$", "`") == "" {
		if p.hasPrefix(`\`) {
			next := p.text[p.pos+1:]
			if len(next) > 0 && strings.IndexByte(doubleQuotedEscapable, next[0]) >= 0 {
				p.consume(1)
				b.WriteByte(next[0])
				p.consume(1)
				continue
			}
			b.WriteByte('\\')
			p.consume(1)
			continue
		}
		b.WriteByte(p.text[p.pos])
		p.consume(1)
	}
	return ast.NewLiteral(id, b.String())
}

// --- back-ticked ---

// parseBacktick parses a back-quoted command substitution. Its body is
// always parsed with inBackquotes=true -- entering a backtick establishes a
// new back-quote context regardless of whatever context the backtick itself
// was found in -- so there is no outer wordOpt for this rule to consult.
func (p *parser) parseBacktick() *ast.DollarExpansion {
	id := p.fresh()
	p.attach(id, ast.Info, "Ignoring deprecated backtick expansion. Use $(..) instead.")
	p.consume(1)
	body := p.parseScript(true)
	if !p.consumePrefix("`") {
		p.noteHere(ast.Error, "missing closing backtick for command substitution")
	}
	return ast.NewDollarExpansion(id, body)
}

// --- dollar forms ---

func (p *parser) parseDollarForm(opt wordOpt) ast.Token {
	switch {
	case p.hasPrefix("$(("):
		return p.parseDollarArithmetic()
	case p.hasPrefix("${"):
		return p.parseDollarBraced()
	case p.hasPrefix("$("):
		return p.parseDollarExpansionParen()
	default:
		return p.readDollarLonely()
	}
}

func (p *parser) parseDollarArithmetic() *ast.DollarArithmetic {
	id := p.fresh()
	p.consume(3) // "$(("
	expr := p.parseArithmetic()
	if !p.consumePrefix("))") {
		p.noteHere(ast.Error, "missing closing )) for arithmetic expansion")
	}
	return ast.NewDollarArithmetic(id, expr)
}

func (p *parser) parseDollarExpansionParen() *ast.DollarExpansion {
	id := p.fresh()
	p.consume(2) // "$("
	body := p.parseScript(true)
	if !p.consumePrefix(")") {
		p.noteHere(ast.Error, "missing closing ) for command substitution")
	}
	return ast.NewDollarExpansion(id, body)
}

var modifierOps = []string{
	":-", "-", ":=", "=", ":?", "?", ":+", "+", "%%", "%", "##", "#",
}

func (p *parser) parseDollarBraced() *ast.DollarBraced {
	id := p.fresh()
	p.consume(2) // "${"
	lengthOp := false
	if p.consumePrefix("#") {
		if p.hasPrefix("}") || p.hasPrefixIn(modifierOps...) != "" {
			// "${#" followed directly by a modifier/"}" means the name IS "#".
			return p.finishDollarBraced(id, false, "#")
		}
		lengthOp = true
	}
	name := p.parseVariableName(true)
	return p.finishDollarBraced(id, lengthOp, name)
}

func (p *parser) finishDollarBraced(id ast.Id, lengthOp bool, name string) *ast.DollarBraced {
	modOp := ""
	var modArg ast.Token
	if !p.hasPrefix("}") && !p.eof() {
		modOp = p.consumePrefixIn(modifierOps...)
		if modOp == "" {
			p.noteHere(ast.Error, "missing or invalid variable modifier, assuming ':-'")
			modOp = ":-"
		}
		if p.mayParseWord(wordOpt{}) {
			modArg = p.parseNormalWord(wordOpt{})
		}
	}
	if !p.consumePrefix("}") {
		p.noteHere(ast.Error, "missing } to match {")
	}
	return ast.NewDollarBraced(id, name, lengthOp, modOp, modArg)
}

func (p *parser) parseVariableName(brace bool) string {
	if name := p.consumeRuneIn(specialVariableSet); name != "" {
		return name
	}
	if brace {
		if name := p.consumeWhileIn(variableCharSet); name != "" {
			return name
		}
		p.noteHere(ast.Error, "missing or invalid variable name, assuming '_'")
		return "_"
	}
	// Unbraced $N takes exactly one digit ($12 is "$1" followed by the
	// literal "2"); ${12} (brace=true, handled above) takes the whole run.
	if name := p.consumeRuneIn("0123456789"); name != "" {
		return name
	}
	if name := p.consumeWhileIn(variableCharSet); name != "" {
		return name
	}
	p.noteHere(ast.Error, "missing or invalid variable name, assuming '_'")
	return "_"
}

func (p *parser) consumeRuneIn(set string) string {
	if b, ok := p.peekByte(); ok && strings.IndexByte(set, b) >= 0 {
		return p.consume(1)
	}
	return ""
}

// readDollarLonely handles the remaining dollar forms: $NAME / $N / the
// single-char specials, and a lone "$". The lookahead after a
// lone "$" is NOT consumed.
func (p *parser) readDollarLonely() ast.Token {
	id := p.fresh()
	p.consume(1) // "$"
	if b, ok := p.peekByte(); ok && (isVariableStart(b) || strings.IndexByte(specialVariableSet, b) >= 0 || isDigitByte(b)) {
		name := p.parseVariableName(false)
		tok := ast.NewDollarBraced(id, name, false, "", nil)
		if len(name) == 1 && isDigitByte(name[0]) {
			if next, ok := p.peekByte(); ok && isDigitByte(next) {
				p.attach(id, ast.Error, "$"+name+"... is equivalent to ${"+name+"}...")
			}
		}
		return tok
	}
	// Lone "$": the following character (if any) is inspected but not
	// consumed.
	if b, ok := p.peekByte(); !ok || b != '\'' {
		p.attach(id, ast.Style, "Use ${FOO} if you want to reference a variable named FOO, or $ if you mean a literal dollar sign")
	}
	return ast.NewLiteral(id, "$")
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// --- brace expansion ---

func (p *parser) parseBraceExpansion() ast.Token {
	id := p.fresh()
	p.consume(1) // "{"
	var b strings.Builder
	for !p.eof() && !p.hasPrefix("}") {
		if p.hasPrefix(`"`) {
			start := p.pos
			p.consume(1)
			p.consumeWhileNotIn(`"`)
			p.consumePrefix(`"`)
			b.WriteString(p.text[start:p.pos])
			continue
		}
		b.WriteByte(p.text[p.pos])
		p.consume(1)
	}
	p.consumePrefix("}")
	return ast.NewBraceExpansion(id, b.String())
}

// --- extglob ---

func (p *parser) mayParseExtglob() bool {
	b, ok := p.peekByte()
	return ok && strings.IndexByte(extglobStartSet, b) >= 0
}

func (p *parser) tryExtglob(opt wordOpt) (ast.Token, bool) {
	var result ast.Token
	ok := p.try(func() bool {
		kind := p.text[p.pos]
		p.consume(1)
		if !p.consumePrefix("(") {
			return false
		}
		id := p.fresh()
		altOpt := wordOpt{inBackquotes: opt.inBackquotes, extraStop: "|)"}
		var alts []ast.Token
		for {
			partID := p.fresh()
			parts := many(func() (ast.Token, bool) {
				if !p.mayParseWord(altOpt) {
					return nil, false
				}
				return p.parseWordPart(altOpt), true
			})
			alts = append(alts, p.buildNormalWord(partID, parts))
			if p.consumePrefix("|") {
				continue
			}
			break
		}
		if !p.consumePrefix(")") {
			p.noteHere(ast.Error, "missing ) to close extglob pattern")
		}
		result = ast.NewExtglob(id, kind, alts)
		return true
	})
	return result, ok
}

// parseExtglobStartAsLiteral handles a leading extglob-start byte (`?`,
// `*`, `@`, `!`, `+`) whose following `(` never materialized: per spec.md
// §4.3, the byte is then "treated as a normal literal", i.e. consumed as a
// one-character Literal. parseNormalLiteral itself must not be used for
// this fallback -- its own character-class test (below) rejects every
// extglobStartSet byte as a stop character, so calling it here would
// consume nothing and, via many's no-progress-checked loop, spin forever
// at the same cursor position.
func (p *parser) parseExtglobStartAsLiteral() *ast.Literal {
	id := p.fresh()
	return ast.NewLiteral(id, p.consume(1))
}

// --- normal literal ---

const normalEscapable = quotableSet + "?*@!+[]"

func (p *parser) parseNormalLiteral(opt wordOpt) *ast.Literal {
	id := p.fresh()
	var b strings.Builder
	for {
		if p.eof() {
			break
		}
		c := p.text[p.pos]
		if c == '\\' {
			next := p.text[p.pos+1:]
			if len(next) == 0 {
				p.consume(1)
				continue
			}
			if strings.IndexByte(normalEscapable, next[0]) >= 0 {
				p.consume(1)
				b.WriteByte(next[0])
				p.consume(1)
				continue
			}
			p.attach(id, ast.Warning, "Did you mean printf-escape? The shell just ignores the \\ here.")
			p.consume(1)
			b.WriteByte(next[0])
			p.consume(1)
			continue
		}
		if strings.IndexByte(quotableSet, c) >= 0 || strings.IndexByte(extglobStartSet, c) >= 0 {
			break
		}
		if opt.inBackquotes && c == '`' {
			break
		}
		if strings.IndexByte(opt.extraStop, c) >= 0 {
			break
		}
		b.WriteByte(c)
		p.consume(1)
	}
	return ast.NewLiteral(id, b.String())
}

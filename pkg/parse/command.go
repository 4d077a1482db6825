package parse

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// The command grammar, grounded on
// elves-posixsh/pkg/parse/parse.go's Chunk/AndOr/Pipeline/Form/Assign/
// CompoundCommand shape, extended with if/while/until/for/case, function
// definitions, and Banged/Backgrounded, which the teacher's POSIX-subset
// grammar has no need for.

// cmdOpt threads the one piece of context the command grammar needs: are we
// inside a back-quoted command substitution, where a bare "`" must stop a
// command list rather than be consumed as ordinary input.
type cmdOpt struct {
	inBackquotes bool
}

func (p *parser) mayParseCommand(opt cmdOpt) bool {
	b, ok := p.peekByte()
	if !ok {
		return false
	}
	if opt.inBackquotes && b == '`' {
		return false
	}
	return strings.IndexByte(" \t\n;)}&|", b) < 0
}

// atKeyword reports whether a reserved word sits at the cursor right now,
// without consuming it. Reserved words are only significant in this
// "command-starting" position; parseSimpleCommand's own word-collection
// loop never consults atKeyword, so the same spelling appearing as a later
// argument (`echo done`) is just a literal word, matching real shells.
func (p *parser) atKeyword(words ...string) bool {
	for _, w := range words {
		if p.hasPrefix(w) && p.keywordFollowedBySeparator(w) {
			return true
		}
	}
	return false
}

func (p *parser) consumeKeyword(w string) bool {
	if p.atKeyword(w) {
		p.consume(len(w))
		return true
	}
	return false
}

// allSpacingAndSeparators extends allSpacing with ';', so a command list can
// cross any mixture of whitespace, comments, newlines, and semicolons
// between its elements.
func (p *parser) allSpacingAndSeparators() {
	for {
		before := p.pos
		p.allSpacing()
		if p.consumePrefix(";") {
			continue
		}
		if p.pos == before {
			return
		}
	}
}

// consumeSeparatorTrackingHard is allSpacingAndSeparators, but reports
// whether a ';' or newline (a "hard" separator) was actually crossed, as
// opposed to only horizontal whitespace -- the distinction the `for` clause
// needs to tell "for x do" (missing separator) from "for x; do" or
// "for x\ndo" (fine).
func (p *parser) consumeSeparatorTrackingHard() bool {
	sawHard := false
	for {
		before := p.pos
		p.spacing()
		if p.checkCarriageReturn() {
			continue
		}
		if p.consumePrefix("\n") {
			sawHard = true
			p.resolvePendingHeredocs()
			continue
		}
		if p.consumePrefix(";") {
			sawHard = true
			continue
		}
		if p.pos == before {
			return sawHard
		}
	}
}

// parseCommandList reads terms until one of stopWords is seen in command
// position, or no further command may start (EOF, a closing bracket, etc).
func (p *parser) parseCommandList(opt cmdOpt, stopWords ...string) []ast.Token {
	p.allSpacingAndSeparators()
	return many(func() (ast.Token, bool) {
		if p.atKeyword(stopWords...) {
			return nil, false
		}
		if !p.mayParseCommand(opt) {
			return nil, false
		}
		t := p.parseTerm(opt)
		p.allSpacingAndSeparators()
		return t, true
	})
}

// parseScript is the Script-building entry point shared by the top-level
// driver and command substitution (`` `...` `` and $(...)).
func (p *parser) parseScript(inBackquotes bool) *ast.Script {
	id := p.fresh()
	body := p.parseCommandList(cmdOpt{inBackquotes: inBackquotes})
	return ast.NewScript(id, body)
}

// term = and_or [ separator ]. '&' backgrounds its left operand; a spurious
// '&;' is diagnosed but the tree is still produced (boundary scenario 7).
func (p *parser) parseTerm(opt cmdOpt) ast.Token {
	cmd := p.parseAndOr(opt)
	p.spacing()
	if p.consumePrefix("&") {
		id := p.fresh()
		bg := ast.NewBackgrounded(id, cmd)
		p.spacing()
		if p.consumePrefix(";") {
			p.attach(id, ast.Error, "It's not `foo &; bar`, just `foo & bar`")
		}
		return bg
	}
	p.consumePrefix(";")
	return cmd
}

// and_or = pipeline [ ('&&'|'||') line-break and_or ], right-chained.
func (p *parser) parseAndOr(opt cmdOpt) ast.Token {
	left := p.parsePipeline(opt)
	p.spacing()
	switch {
	case p.consumePrefix("&&"):
		id := p.fresh()
		p.allSpacing()
		return ast.NewAndIf(id, left, p.parseAndOr(opt))
	case p.hasPrefix("||"):
		p.consume(2)
		id := p.fresh()
		p.allSpacing()
		return ast.NewOrIf(id, left, p.parseAndOr(opt))
	default:
		return left
	}
}

// pipeline = ['!'] form { '|' line-break form }.
func (p *parser) parsePipeline(opt cmdOpt) ast.Token {
	p.spacing()
	banged := p.atKeyword("!")
	if banged {
		p.consume(1)
		p.spacing()
	}
	id := p.fresh()
	forms := []ast.Token{p.parseForm(opt)}
	for {
		p.spacing()
		if p.hasPrefix("|") && !p.hasPrefix("||") {
			p.consume(1)
			p.allSpacing()
			forms = append(forms, p.parseForm(opt))
			continue
		}
		break
	}
	pipeline := ast.Token(ast.NewPipeline(id, forms))
	if banged {
		return ast.NewBanged(p.freshAt(p.pos), pipeline)
	}
	return pipeline
}

// form = compound_command | simple_command, each optionally followed by
// redirections that wrap the whole as Redirecting.
func (p *parser) parseForm(opt cmdOpt) ast.Token {
	p.spacing()
	if compound, ok := p.tryCompoundCommand(opt); ok {
		return p.wrapTrailingRedirs(compound)
	}
	return p.parseSimpleCommand(opt)
}

func (p *parser) wrapTrailingRedirs(inner ast.Token) ast.Token {
	var redirs []ast.Token
	p.spacing()
	for p.mayParseRedir() {
		redirs = append(redirs, p.parseRedir())
		p.spacing()
	}
	if len(redirs) == 0 {
		return inner
	}
	return ast.NewRedirecting(p.freshAt(p.pos), redirs, inner)
}

// tryCompoundCommand is the ordered choice among the compound command
// shapes: brace group, arithmetic command, subshell, condition,
// while/until/if/for/case, and function definitions (both spellings).
func (p *parser) tryCompoundCommand(opt cmdOpt) (ast.Token, bool) {
	switch {
	case p.hasPrefix("{"):
		return p.parseBraceGroup(opt), true
	case p.hasPrefix("(("):
		return p.parseArithmeticCommand(), true
	case p.hasPrefix("("):
		return p.parseSubshell(opt), true
	case p.hasPrefix("[["):
		return p.parseConditionCommand(ast.DoubleBracket), true
	case p.hasPrefix("["):
		return p.parseConditionCommand(ast.SingleBracket), true
	case p.atKeyword("while"):
		return p.parseWhileUntil(opt, "while", false), true
	case p.atKeyword("until"):
		return p.parseWhileUntil(opt, "until", true), true
	case p.atKeyword("if"):
		return p.parseIf(opt), true
	case p.atKeyword("for"):
		return p.parseFor(opt), true
	case p.atKeyword("case"):
		return p.parseCase(opt), true
	case p.atKeyword("function"):
		return p.parseFunctionKeyword(opt), true
	}
	if name, ok := p.matchFunctionHeader(); ok {
		p.spacing()
		return p.finishFunctionBody(p.freshAt(p.pos), opt, name), true
	}
	return nil, false
}

func (p *parser) parseBraceGroup(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(1) // "{"
	body := p.parseCommandList(opt, "}")
	if !p.consumePrefix("}") {
		p.attach(id, ast.Error, "missing } to close brace group")
	}
	return ast.NewBraceGroup(id, body)
}

func (p *parser) parseSubshell(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(1) // "("
	body := p.parseCommandList(opt)
	if !p.consumePrefix(")") {
		p.attach(id, ast.Error, "missing ) to close subshell")
	}
	return ast.NewSubshell(id, body)
}

func (p *parser) parseArithmeticCommand() ast.Token {
	id := p.fresh()
	p.consume(2) // "(("
	expr := p.parseArithmetic()
	if !p.consumePrefix("))") {
		p.attach(id, ast.Error, "missing )) to close arithmetic command")
	}
	return ast.NewArithmetic(id, expr)
}

func (p *parser) parseConditionCommand(kind ast.ConditionKind) ast.Token {
	id := p.fresh()
	opener, closer := "[", "]"
	if kind == ast.DoubleBracket {
		opener, closer = "[[", "]]"
	}
	p.consume(len(opener))
	p.checkBracketSpacing(id, opener)
	expr := p.parseConditionBody(kind)
	p.condSpacing()
	if !p.consumePrefix(closer) {
		p.attach(id, ast.Error, "missing "+closer+" to close conditional expression")
	}
	return ast.NewCondition(id, kind, expr)
}

func (p *parser) checkBracketSpacing(id ast.Id, opener string) {
	if b, ok := p.peekByte(); ok && b != ' ' && b != '\t' && b != '\n' {
		p.attach(id, ast.Error, "missing space after "+opener)
	}
}

func (p *parser) parseWhileUntil(opt cmdOpt, kw string, until bool) ast.Token {
	id := p.fresh()
	p.consume(len(kw))
	cond := p.parseCommandList(opt, "do")
	if !p.consumeKeyword("do") {
		p.attach(id, ast.Error, "missing 'do'")
	}
	body := p.parseCommandList(opt, "done")
	p.requireDoneWithRecovery(id, body)
	if until {
		return ast.NewUntilExpression(id, cond, body)
	}
	return ast.NewWhileExpression(id, cond, body)
}

func (p *parser) requireDoneWithRecovery(id ast.Id, body []ast.Token) {
	if p.consumeKeyword("done") {
		return
	}
	p.attach(id, ast.Error, "missing 'done'")
	p.checkMissingDoneRecovery(body)
}

// checkMissingDoneRecovery looks at the last command of a loop body whose
// "done" never matched, for the shape a forgotten separator before the real
// terminator produces: since reserved words are only recognized in
// command-starting position, a merged "done" ends up parsed as an ordinary
// trailing word of the preceding simple command. parsePipeline always wraps
// its result in a Pipeline (even a lone command), so that wrapping is undone
// first to reach the underlying SimpleCommand.
func (p *parser) checkMissingDoneRecovery(body []ast.Token) {
	if len(body) == 0 {
		return
	}
	last := unwrapSolePipeline(body[len(body)-1])
	red, ok := last.(*ast.Redirecting)
	if !ok {
		return
	}
	sc, ok := red.Cmd.(*ast.SimpleCommand)
	if !ok || len(sc.Words) == 0 {
		return
	}
	lastWord, ok := sc.Words[len(sc.Words)-1].(*ast.NormalWord)
	if !ok || len(lastWord.Parts) != 1 {
		return
	}
	if lit, ok := lastWord.Parts[0].(*ast.Literal); ok && lit.Value == "done" {
		p.attach(lastWord.TokenID(), ast.Error, "Put a ; or \\n before the done.")
	}
}

// unwrapSolePipeline undoes parsePipeline's unconditional Pipeline wrapping
// when it held exactly one form, so callers recovering from a malformed
// construct can inspect the form directly.
func unwrapSolePipeline(t ast.Token) ast.Token {
	if pipe, ok := t.(*ast.Pipeline); ok && len(pipe.List) == 1 {
		return pipe.List[0]
	}
	return t
}

func (p *parser) parseFor(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(3) // "for"
	p.spacing()
	name := p.consumeWhileIn(variableCharSet)
	if name == "" {
		p.attach(id, ast.Error, "missing loop variable name in for")
		name = "_"
	}
	p.spacing()
	hasIn := false
	var words []ast.Token
	if p.consumeKeyword("in") {
		hasIn = true
		p.spacing()
		words = many(func() (ast.Token, bool) {
			if p.atKeyword("do") {
				return nil, false
			}
			if !p.mayParseWord(wordOpt{}) {
				return nil, false
			}
			w := p.parseNormalWord(wordOpt{})
			p.spacing()
			return w, true
		})
	}
	if !p.consumeSeparatorTrackingHard() {
		p.attach(id, ast.Warning, "you need a line feed or semicolon before 'do'")
	}
	if !p.consumeKeyword("do") {
		p.attach(id, ast.Error, "missing 'do'")
	}
	body := p.parseCommandList(opt, "done")
	p.requireDoneWithRecovery(id, body)
	return ast.NewForIn(id, name, hasIn, words, body)
}

func (p *parser) parseIf(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(2) // "if"
	cond := p.parseCommandList(opt, "then")
	if !p.consumeKeyword("then") {
		p.attach(id, ast.Error, "missing 'then'")
	} else {
		p.checkNoSemicolonAfterKeyword("then")
	}
	body := p.parseCommandList(opt, "elif", "else", "fi")
	branches := []ast.IfBranch{{Cond: cond, Body: body}}
	for p.consumeKeyword("elif") {
		elifCond := p.parseCommandList(opt, "then")
		if !p.consumeKeyword("then") {
			p.attach(id, ast.Error, "missing 'then'")
		} else {
			p.checkNoSemicolonAfterKeyword("then")
		}
		elifBody := p.parseCommandList(opt, "elif", "else", "fi")
		branches = append(branches, ast.IfBranch{Cond: elifCond, Body: elifBody})
	}
	var elseBody []ast.Token
	if p.consumeKeyword("else") {
		p.checkNoSemicolonAfterKeyword("else")
		elseBody = p.parseCommandList(opt, "fi")
	}
	if !p.consumeKeyword("fi") {
		p.attach(id, ast.Error, "missing 'fi'")
	}
	return ast.NewIfExpression(id, branches, elseBody)
}

// checkNoSemicolonAfterKeyword flags e.g. "then; echo" (boundary scenario
// 10): a semicolon directly after `then`/`else` is always redundant and
// usually a typo for the separator that should precede the next command.
func (p *parser) checkNoSemicolonAfterKeyword(kw string) {
	save := p.pos
	p.consumeWhileIn(" \t")
	if p.hasPrefix(";") {
		p.noteHere(ast.Error, "No semicolons directly after `"+kw+"`.")
	}
	p.pos = save
}

func (p *parser) parseCase(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(4) // "case"
	p.spacing()
	word := p.requireWord()
	p.spacing()
	if !p.consumeKeyword("in") {
		p.attach(id, ast.Error, "missing 'in'")
	}
	p.allSpacingAndSeparators()
	var arms []ast.CaseArm
	for !p.atKeyword("esac") && !p.eof() {
		p.consumePrefix("(")
		patOpt := wordOpt{extraStop: "|)"}
		var patterns []ast.Token
		for {
			p.spacing()
			if !p.mayParseWord(patOpt) {
				p.noteHere(ast.Error, "missing case pattern")
				break
			}
			patterns = append(patterns, p.parseNormalWord(patOpt))
			p.spacing()
			if p.consumePrefix("|") {
				continue
			}
			break
		}
		if !p.consumePrefix(")") {
			p.noteHere(ast.Error, "missing ) after case pattern")
		}
		body := p.parseCommandList(opt, "esac")
		p.spacing()
		if !p.consumePrefix(";;") && !p.atKeyword("esac") && !p.eof() {
			p.noteHere(ast.Error, "missing ';;' to terminate case arm")
		}
		p.allSpacingAndSeparators()
		arms = append(arms, ast.CaseArm{Patterns: patterns, Body: body})
	}
	if !p.consumeKeyword("esac") {
		p.attach(id, ast.Error, "missing 'esac'")
	}
	return ast.NewCaseExpression(id, word, arms)
}

func (p *parser) parseFunctionKeyword(opt cmdOpt) ast.Token {
	id := p.fresh()
	p.consume(len("function"))
	p.attach(id, ast.Info, "Drop the keyword 'function'")
	p.spacing()
	name := p.consumeWhileIn(variableCharSet)
	if name == "" {
		p.attach(id, ast.Error, "missing function name")
		name = "_"
	}
	p.spacing()
	if p.consumePrefix("(") {
		p.spacing()
		p.consumePrefix(")")
		p.spacing()
	}
	return p.finishFunctionBody(id, opt, name)
}

func (p *parser) finishFunctionBody(id ast.Id, opt cmdOpt, name string) ast.Token {
	if !p.hasPrefix("{") {
		p.attach(id, ast.Error, "expected a brace group as the function body")
		return ast.NewFunction(id, name, ast.NewBraceGroup(p.freshAt(p.pos), nil))
	}
	return ast.NewFunction(id, name, p.parseBraceGroup(opt))
}

// matchFunctionHeader recognizes the bare `name()` function-definition
// spelling (no leading `function` keyword). It restores the cursor on
// failure, so callers can freely probe with it.
func (p *parser) matchFunctionHeader() (string, bool) {
	save := p.pos
	if b, ok := p.peekByte(); !ok || !isVariableStart(b) {
		return "", false
	}
	name := p.consumeWhileIn(variableCharSet)
	p.consumeWhileIn(" \t")
	if !p.consumePrefix("(") {
		p.pos = save
		return "", false
	}
	p.consumeWhileIn(" \t")
	if !p.consumePrefix(")") {
		p.pos = save
		return "", false
	}
	return name, true
}

// --- simple commands and assignment words ---

func (p *parser) mayParseAssignment() bool {
	save := p.pos
	defer func() { p.pos = save }()
	if b, ok := p.peekByte(); !ok || !isVariableStart(b) {
		return false
	}
	p.consumeWhileIn(variableCharSet)
	p.consumeWhileIn(" \t")
	return p.hasPrefix("+=") || p.hasPrefix("=")
}

func (p *parser) parseAssignment() ast.Token {
	id := p.fresh()
	if p.hasPrefix("$") {
		p.noteHere(ast.Error, "Don't use `$` on the left side of assignments.")
	}
	name := p.consumeWhileIn(variableCharSet)
	spaceBefore := p.consumeWhileIn(" \t") != ""
	op := "="
	if p.consumePrefix("+=") {
		op = "+="
	} else {
		p.consumePrefix("=")
	}
	spaceAfter := false
	if b, ok := p.peekByte(); ok && (b == ' ' || b == '\t') {
		spaceAfter = true
	}
	if spaceBefore || spaceAfter {
		p.attach(id, ast.Error, "Don't put spaces around the `=` in assignments.")
	}
	return ast.NewAssignment(id, name, op, p.parseAssignmentValue())
}

func (p *parser) parseAssignmentValue() ast.Token {
	p.consumeWhileIn(" \t")
	if p.consumePrefix("(") {
		id := p.fresh()
		p.spacing()
		words := many(func() (ast.Token, bool) {
			if p.eof() || p.hasPrefix(")") {
				return nil, false
			}
			if !p.mayParseWord(wordOpt{}) {
				return nil, false
			}
			w := p.parseNormalWord(wordOpt{})
			p.spacing()
			return w, true
		})
		if !p.consumePrefix(")") {
			p.attach(id, ast.Error, "missing ) to close array literal")
		}
		return ast.NewArray(id, words)
	}
	if p.mayParseWord(wordOpt{}) {
		return p.parseNormalWord(wordOpt{})
	}
	return p.buildNormalWord(p.fresh(), nil)
}

func (p *parser) parseSimpleCommand(opt cmdOpt) ast.Token {
	id := p.fresh()
	var assigns, words, redirs []ast.Token
	p.spacing()
	for p.mayParseAssignment() {
		assigns = append(assigns, p.parseAssignment())
		p.spacing()
	}
items:
	for {
		switch {
		case p.mayParseRedir():
			redirs = append(redirs, p.parseRedir())
		case p.mayParseWord(wordOpt{inBackquotes: opt.inBackquotes}):
			words = append(words, p.parseNormalWord(wordOpt{inBackquotes: opt.inBackquotes}))
		default:
			break items
		}
		p.spacing()
	}
	return ast.NewRedirecting(id, redirs, ast.NewSimpleCommand(p.freshAt(p.pos), assigns, words))
}

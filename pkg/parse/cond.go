package parse

import (
	"strings"

	"github.com/elves/shellsyntax/pkg/ast"
)

// The conditional-expression sublanguage, invoked on reading `[`
// or `[[`. Shaped after the precedence cascade in pkg/arith/arith.go --
// or/and/term taking the place of expr/term/factor -- but bracket-kind
// sensitive throughout, since `[` and `[[` disagree on how grouping,
// negation, and combination are spelled.

var unaryTestOps = []string{
	"-a", "-b", "-c", "-d", "-e", "-f", "-g", "-h", "-L", "-k", "-p", "-r",
	"-s", "-S", "-t", "-u", "-w", "-x", "-O", "-G", "-N", "-z", "-n", "-o",
}

// binaryTestOps lists every operator ahead of any shorter operator that is
// a prefix of it ("==" and "=~" before "=", "<=" before "<", ">=" before
// ">"), so a longer spelling is never cut short.
var binaryTestOps = []string{
	"-nt", "-ot", "-ef", "==", "!=", "<=", ">=", "-eq", "-ne", "-lt", "-le",
	"-gt", "-ge", "=~", ">", "<", "=",
}

// commonUtilities is the curated list of external command names
// warns about when found as the bare word of a condition: a near-universal
// shellscripting mistake is `if [ grep foo bar ]` where the author meant to
// run grep and test its exit status, not test the truthiness of its name.
var commonUtilities = map[string]bool{}

func init() {
	for _, name := range strings.Fields(`
		grep egrep fgrep sed awk cat ls cp mv rm mkdir rmdir touch chmod
		chown chgrp find xargs sort uniq wc head tail cut tr tee diff
		patch tar gzip gunzip zip unzip curl wget ssh scp rsync git
		make cc gcc clang go python python3 perl ruby node npm java
		javac ping traceroute dig nslookup ps kill killall top df du
		mount umount ln readlink basename dirname realpath date cal
		echo printf read sleep yes seq expr bc dc nc netcat ftp telnet
		tar7z 7z unrar less more vi vim emacs nano env which whereis
		man apropos tree file stat lsof strace ltrace gdb valgrind
		openssl gpg md5sum sha1sum sha256sum base64 jq yq sqlite3
		mysql psql redis-cli docker kubectl helm terraform ansible
	`) {
		commonUtilities[name] = true
	}
}

type condOpt struct {
	kind ast.ConditionKind
}

func (k condOpt) isDouble() bool { return k.kind == ast.DoubleBracket }

// parseConditionBody parses the interior of a `[ ... ]` or `[[ ... ]]`,
// starting right after the opening bracket's own spacing has been handled by
// the caller (command.go), and stopping right before the closing bracket.
func (p *parser) parseConditionBody(kind ast.ConditionKind) ast.Token {
	opt := condOpt{kind: kind}
	return p.condOr(opt)
}

// or := and ( ('||' | '-o') and )*
func (p *parser) condOr(opt condOpt) ast.Token {
	left := p.condAnd(opt)
	for {
		op, ok := p.condCombineOp(opt, "||", "-o")
		if !ok {
			break
		}
		p.condOperatorSpacing(op, false)
		id := p.fresh()
		right := p.condAnd(opt)
		left = ast.NewTCOr(id, left, right)
	}
	return left
}

// and := term ( ('&&' | '-a') term )*
func (p *parser) condAnd(opt condOpt) ast.Token {
	left := p.condTerm(opt)
	for {
		op, ok := p.condCombineOp(opt, "&&", "-a")
		if !ok {
			break
		}
		p.condOperatorSpacing(op, false)
		id := p.fresh()
		right := p.condTerm(opt)
		left = ast.NewTCAnd(id, left, right)
	}
	return left
}

// condCombineOp recognizes the and/or operator appropriate to the bracket
// kind, emitting the "use the other bracket form's spelling" diagnostic when
// the wrong one is used.
func (p *parser) condCombineOp(opt condOpt, symbolic, wordy string) (string, bool) {
	p.condSpacing()
	if opt.isDouble() {
		if p.consumePrefix(symbolic) {
			return symbolic, true
		}
		if p.hasPrefix(wordy) && p.keywordFollowedBySeparator(wordy) {
			p.consume(len(wordy))
			p.noteHere(ast.Error, "In `[[..]]`, use `"+symbolic+"` instead of `"+wordy+"`.")
			return wordy, true
		}
		return "", false
	}
	// Single bracket.
	if p.hasPrefix(wordy) && p.keywordFollowedBySeparator(wordy) {
		p.consume(len(wordy))
		return wordy, true
	}
	if p.consumePrefix(symbolic) {
		p.noteHere(ast.Error, "In `[..]`, use `"+wordy+"` instead of `"+symbolic+"`; or use `[[..]]`.")
		return symbolic, true
	}
	return "", false
}

// term := '!' term | group | unary | noary-or-binary
func (p *parser) condTerm(opt condOpt) ast.Token {
	p.condSpacing()
	if p.hasPrefix("!") && p.keywordFollowedBySeparator("!") {
		p.consume(1)
		id := p.fresh()
		p.condOperatorSpacing("!", false)
		return ast.NewTCNot(id, p.condTerm(opt))
	}
	if g, ok := p.condGroup(opt); ok {
		return g
	}
	return p.condUnaryOrWord(opt)
}

// group := ( '\(' expr '\)' ) | ( '(' expr ')' )
//
// In single-bracket grammar the parens must be escaped, since bare `(` is a
// subshell-starting metacharacter everywhere else; in double-bracket grammar
// they must not be, since `[[` is its own lexical context. Mismatched
// escaping (escaped open, bare close, or vice versa) is an error but does
// not abort the group.
func (p *parser) condGroup(opt condOpt) (ast.Token, bool) {
	escapedOpen := p.hasPrefix(`\(`)
	bareOpen := !escapedOpen && p.hasPrefix("(")
	if !escapedOpen && !bareOpen {
		return nil, false
	}
	id := p.fresh()
	if escapedOpen {
		p.consume(2)
		if opt.isDouble() {
			p.noteHere(ast.Error, "`\\(` is not needed in `[[..]]`; use a bare `(`.")
		}
	} else {
		p.consume(1)
		if !opt.isDouble() {
			p.noteHere(ast.Error, "Don't use `[]` for grouping; escape the parenthesis as `\\(` or use `[[..]]`.")
		}
	}
	p.condSpacing()
	inner := p.condOr(opt)
	p.condSpacing()
	escapedClose := p.hasPrefix(`\)`)
	bareClose := !escapedClose && p.hasPrefix(")")
	switch {
	case escapedClose:
		p.consume(2)
		if !escapedOpen && !opt.isDouble() {
			p.noteHere(ast.Error, "Mismatched escaping: `(` was not escaped but `\\)` is.")
		}
	case bareClose:
		p.consume(1)
		if escapedOpen && !opt.isDouble() {
			p.noteHere(ast.Error, "Mismatched escaping: `\\(` was escaped but `)` is not.")
		}
	default:
		p.noteHere(ast.Error, "missing closing parenthesis in conditional group")
	}
	return ast.NewTCGroup(id, inner), true
}

// condUnaryOrWord covers `unary := unary_op word` and
// `binary := word binary_op word`, plus the bare-word noary case, by first
// reading one word-like token and then looking ahead for a binary operator.
// A leading unary operator is distinguished from an ordinary word by
// matching against unaryTestOps before falling into the word path.
func (p *parser) condUnaryOrWord(opt condOpt) ast.Token {
	if p.hasPrefix("[") {
		p.noteHere(ast.Error, "Don't use `[]` for grouping.")
	}
	if op := p.condMatchOp(unaryTestOps); op != "" {
		id := p.fresh()
		p.condOperatorSpacing(op, true)
		arg := p.condWord(opt)
		return ast.NewTCUnary(id, opt.kind, op, arg)
	}
	id := p.fresh()
	left := p.condWord(opt)
	p.checkWordAdjacentToCloser(left, opt)
	p.condSpacing()
	if op := p.condMatchOp(binaryTestOps); op != "" {
		if (op == "<" || op == ">") && !opt.isDouble() {
			p.attach(id, ast.Error, "`"+op+"` needs to be escaped as `\\"+op+"` in `[..]`, or use `[[..]]`.")
		}
		p.condOperatorSpacing(op, true)
		right := p.condWord(opt)
		return ast.NewTCBinary(id, opt.kind, op, left, right)
	}
	p.checkCommonUtility(id, left)
	return ast.NewTCNoary(id, left)
}

func (p *parser) condMatchOp(ops []string) string {
	for _, op := range ops {
		if p.hasPrefix(op) {
			next := p.text[p.pos+len(op):]
			if len(next) > 0 && !strings.ContainsAny(next[:1], " \t\n)") {
				continue
			}
			p.consume(len(op))
			return op
		}
	}
	return ""
}

func (p *parser) condWord(opt condOpt) ast.Token {
	extraStop := "])"
	if !p.mayParseWord(wordOpt{extraStop: extraStop}) {
		p.noteHere(ast.Error, "missing word in conditional expression")
		return p.buildNormalWord(p.fresh(), nil)
	}
	return p.parseNormalWord(wordOpt{extraStop: extraStop})
}

// checkWordAdjacentToCloser flags a word whose last literal character is
// ']', which almost always means the user forgot a space before the closing
// bracket.
func (p *parser) checkWordAdjacentToCloser(word ast.Token, opt condOpt) {
	nw, ok := word.(*ast.NormalWord)
	if !ok || len(nw.Parts) == 0 {
		return
	}
	last, ok := nw.Parts[len(nw.Parts)-1].(*ast.Literal)
	if !ok || !strings.HasSuffix(last.Value, "]") {
		return
	}
	p.attach(nw.TokenID(), ast.Error, "You need a space before the ]")
}

func (p *parser) checkCommonUtility(id ast.Id, word ast.Token) {
	nw, ok := word.(*ast.NormalWord)
	if !ok || len(nw.Parts) != 1 {
		return
	}
	lit, ok := nw.Parts[0].(*ast.Literal)
	if !ok || !commonUtilities[lit.Value] {
		return
	}
	p.attach(id, ast.Warning, "To check a command, skip `[]` and just do 'if foo | grep bar; then'.")
}

// condSpacing is the soft-spacing rule: crossing whitespace is allowed but
// not mandatory here, unlike condOperatorSpacing's hard form.
func (p *parser) condSpacing() { p.spacing() }

// condOperatorSpacing enforces the spacing rule: after a binary or
// unary operator, hard-spacing is required (an Error if absent); after `!`
// and logical combinators, only soft-spacing is expected (an Info note if
// absent). Spacing after group parens is not checked.
func (p *parser) condOperatorSpacing(op string, hard bool) {
	before := p.pos
	p.spacing()
	if p.pos != before {
		return
	}
	if p.eof() || p.hasPrefixIn("]", "]]") != "" {
		return
	}
	if hard {
		p.noteHere(ast.Error, "missing space after `"+op+"`")
	} else {
		p.noteHere(ast.Info, "missing space after `"+op+"`")
	}
}

// keywordFollowedBySeparator requires EOF, whitespace, or one of `;()` right
// after a multi-character keyword/operator spelling, so e.g. "-another" is
// never mistaken for the "-a" unary operator.
func (p *parser) keywordFollowedBySeparator(kw string) bool {
	next := p.text[p.pos+len(kw):]
	if next == "" {
		return true
	}
	return strings.ContainsAny(next[:1], " \t\n;()")
}

package parse

import (
	"testing"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/stretchr/testify/require"
)

// soleCondition extracts the single top-level Condition node from a script
// that is exactly one `[ ... ]` or `[[ ... ]]` command, following the shape
// parsePipeline/parseForm produce: Script.Body[0] is a Pipeline wrapping the
// Condition directly (compound commands with no trailing redirections are
// not wrapped in Redirecting).
func soleCondition(t *testing.T, script *ast.Script) *ast.Condition {
	t.Helper()
	require.Len(t, script.Body, 1)
	pipeline, ok := script.Body[0].(*ast.Pipeline)
	require.True(t, ok, "expected a Pipeline, got %T", script.Body[0])
	require.Len(t, pipeline.List, 1)
	cond, ok := pipeline.List[0].(*ast.Condition)
	require.True(t, ok, "expected a Condition, got %T", pipeline.List[0])
	return cond
}

func literalWord(t *testing.T, tok ast.Token, want string) {
	t.Helper()
	nw, ok := tok.(*ast.NormalWord)
	require.True(t, ok, "expected a NormalWord, got %T", tok)
	require.Len(t, nw.Parts, 1)
	lit, ok := nw.Parts[0].(*ast.Literal)
	require.True(t, ok, "expected a Literal, got %T", nw.Parts[0])
	require.Equal(t, want, lit.Value)
}

func TestBoundaryScenario1SingleBracketEscapedGroupAnd(t *testing.T) {
	result := ParseShell("f", `[ \( a = b \) -a \( c = d \) ]`)
	require.NotNil(t, result.Tree)
	require.Empty(t, result.Notes)

	cond := soleCondition(t, result.Tree.Root)
	require.Equal(t, ast.SingleBracket, cond.Kind)

	and, ok := cond.Expr.(*ast.TCAnd)
	require.True(t, ok, "expected TCAnd, got %T", cond.Expr)

	leftGroup, ok := and.Left.(*ast.TCGroup)
	require.True(t, ok)
	leftBin, ok := leftGroup.Expr.(*ast.TCBinary)
	require.True(t, ok)
	require.Equal(t, "=", leftBin.Op)
	literalWord(t, leftBin.Left, "a")
	literalWord(t, leftBin.Right, "b")

	rightGroup, ok := and.Right.(*ast.TCGroup)
	require.True(t, ok)
	rightBin, ok := rightGroup.Expr.(*ast.TCBinary)
	require.True(t, ok)
	require.Equal(t, "=", rightBin.Op)
	literalWord(t, rightBin.Left, "c")
	literalWord(t, rightBin.Right, "d")
}

func TestBoundaryScenario2DoubleBracketBareGroupOr(t *testing.T) {
	result := ParseShell("f", `[[ (a = b) || (c = d) ]]`)
	require.NotNil(t, result.Tree)
	require.Empty(t, result.Notes)

	cond := soleCondition(t, result.Tree.Root)
	require.Equal(t, ast.DoubleBracket, cond.Kind)

	or, ok := cond.Expr.(*ast.TCOr)
	require.True(t, ok, "expected TCOr, got %T", cond.Expr)

	leftGroup := or.Left.(*ast.TCGroup)
	leftBin := leftGroup.Expr.(*ast.TCBinary)
	require.Equal(t, "=", leftBin.Op)

	rightGroup := or.Right.(*ast.TCGroup)
	rightBin := rightGroup.Expr.(*ast.TCBinary)
	require.Equal(t, "=", rightBin.Op)
}

func TestBoundaryScenario3DoubleBracketDashAIsError(t *testing.T) {
	result := ParseShell("f", `[[ a -a b ]]`)
	require.NotNil(t, result.Tree)
	require.Len(t, result.Notes, 1)
	require.Equal(t, ast.Error, result.Notes[0].Severity)
	require.Contains(t, result.Notes[0].Message, "use `&&` instead of `-a`")

	cond := soleCondition(t, result.Tree.Root)
	and, ok := cond.Expr.(*ast.TCAnd)
	require.True(t, ok, "expected TCAnd, got %T", cond.Expr)
	_, ok = and.Left.(*ast.TCNoary)
	require.True(t, ok)
	_, ok = and.Right.(*ast.TCNoary)
	require.True(t, ok)
}

func TestSingleBracketSymbolicAndOrIsError(t *testing.T) {
	result := ParseShell("f", `[ a && b ]`)
	require.NotEmpty(t, result.Notes)
	found := false
	for _, n := range result.Notes {
		if n.Severity == ast.Error {
			found = true
		}
	}
	require.True(t, found)
}

func TestMissingSpaceBeforeClosingBracketIsError(t *testing.T) {
	// "]" is an ordinary stop character while scanning a condition word, so
	// an unescaped `foo]` never actually produces a word ending in "]" --
	// the word just stops at "foo" and "]" closes the bracket normally. The
	// diagnostic is for the case where the user escaped the bracket into the
	// word (`foo\]`), producing a literal that ends in "]" right before the
	// real closing bracket.
	p := newParser("f", "")
	lit := ast.NewLiteral(p.fresh(), "foo]")
	word := ast.NewNormalWord(p.fresh(), []ast.Token{lit})
	p.checkWordAdjacentToCloser(word, condOpt{kind: ast.SingleBracket})

	notes := p.store.Metadata()[word.TokenID()].Notes
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Equal(t, "You need a space before the ]", notes[0].Message)
}

func TestCommonUtilityBareWordWarns(t *testing.T) {
	result := ParseShell("f", `[ grep foo ]`)
	found := false
	for _, n := range result.Notes {
		if n.Severity == ast.Warning && n.Message == "To check a command, skip `[]` and just do 'if foo | grep bar; then'." {
			found = true
		}
	}
	require.True(t, found)
}

func TestConditionBangNegatesTerm(t *testing.T) {
	result := ParseShell("f", `[[ ! -f foo ]]`)
	require.Empty(t, result.Notes)
	cond := soleCondition(t, result.Tree.Root)
	not, ok := cond.Expr.(*ast.TCNot)
	require.True(t, ok, "expected TCNot, got %T", cond.Expr)
	unary, ok := not.X.(*ast.TCUnary)
	require.True(t, ok)
	require.Equal(t, "-f", unary.Op)
}

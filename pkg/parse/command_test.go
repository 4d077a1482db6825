package parse

import (
	"testing"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/stretchr/testify/require"
)

func TestBoundaryScenario7BackgroundThenSemicolonIsError(t *testing.T) {
	result := ParseShell("f", "a &; b")
	require.NotNil(t, result.Tree)
	require.Len(t, result.Notes, 1)
	require.Equal(t, ast.Error, result.Notes[0].Severity)
	require.Contains(t, result.Notes[0].Message, "It's not `foo &; bar`")

	body := result.Tree.Root.Body
	require.Len(t, body, 2)
	_, ok := body[0].(*ast.Backgrounded)
	require.True(t, ok, "expected a Backgrounded, got %T", body[0])
	_, ok = body[1].(*ast.Pipeline)
	require.True(t, ok, "expected a Pipeline, got %T", body[1])
}

func TestBoundaryScenario9SpacesAroundPlusEqualsIsError(t *testing.T) {
	p := newParser("f", "b += (1 2 3)")
	require.True(t, p.mayParseAssignment())
	assign := p.parseAssignment().(*ast.Assignment)
	require.Equal(t, "b", assign.Name)
	require.Equal(t, "+=", assign.Op)

	notes := p.store.Metadata()[assign.TokenID()].Notes
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Contains(t, notes[0].Message, "Don't put spaces around the `=`")

	arr, ok := assign.Value.(*ast.Array)
	require.True(t, ok, "expected an Array, got %T", assign.Value)
	require.Len(t, arr.Words, 3)
}

func TestBoundaryScenario10SemicolonAfterThenIsError(t *testing.T) {
	result := ParseShell("f", "if false; then; echo oo; fi")
	require.NotNil(t, result.Tree)
	found := false
	for _, n := range result.Notes {
		if n.Severity == ast.Error && n.Message == "No semicolons directly after `then`." {
			found = true
		}
	}
	require.True(t, found)

	body := result.Tree.Root.Body
	require.Len(t, body, 1)
	pipeline := body[0].(*ast.Pipeline)
	ifExpr, ok := pipeline.List[0].(*ast.IfExpression)
	require.True(t, ok, "expected an IfExpression, got %T", pipeline.List[0])
	require.Len(t, ifExpr.Branches, 1)
	require.Len(t, ifExpr.Branches[0].Body, 1)
}

func TestNoSemicolonAfterElseIsError(t *testing.T) {
	result := ParseShell("f", "if false; then echo a; else; echo b; fi")
	found := false
	for _, n := range result.Notes {
		if n.Severity == ast.Error && n.Message == "No semicolons directly after `else`." {
			found = true
		}
	}
	require.True(t, found)
}

func TestAssignmentWithoutSpacesHasNoNote(t *testing.T) {
	p := newParser("f", "b=1")
	assign := p.parseAssignment().(*ast.Assignment)
	require.Equal(t, "b", assign.Name)
	require.Equal(t, "=", assign.Op)
	require.Empty(t, p.store.Metadata()[assign.TokenID()].Notes)
}

func TestMissingDoneIsRecoveredFromMergedWord(t *testing.T) {
	result := ParseShell("f", "while true; do echo hi done")
	foundMissing, foundMerged := false, false
	for _, n := range result.Notes {
		if n.Message == "missing 'done'" {
			foundMissing = true
		}
		if n.Message == "Put a ; or \\n before the done." {
			foundMerged = true
		}
	}
	require.True(t, foundMissing)
	require.True(t, foundMerged)
}

func TestFunctionKeywordIsFlaggedInfo(t *testing.T) {
	result := ParseShell("f", "function foo { echo hi; }")
	require.NotNil(t, result.Tree)
	found := false
	for _, n := range result.Notes {
		if n.Severity == ast.Info && n.Message == "Drop the keyword 'function'" {
			found = true
		}
	}
	require.True(t, found)

	body := result.Tree.Root.Body
	pipeline := body[0].(*ast.Pipeline)
	fn, ok := pipeline.List[0].(*ast.Function)
	require.True(t, ok, "expected a Function, got %T", pipeline.List[0])
	require.Equal(t, "foo", fn.Name)
}

func TestBareFunctionHeaderParsesWithoutNote(t *testing.T) {
	result := ParseShell("f", "foo() { echo hi; }")
	require.Empty(t, result.Notes)
	body := result.Tree.Root.Body
	pipeline := body[0].(*ast.Pipeline)
	fn, ok := pipeline.List[0].(*ast.Function)
	require.True(t, ok, "expected a Function, got %T", pipeline.List[0])
	require.Equal(t, "foo", fn.Name)
}

package parse

import (
	"testing"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/stretchr/testify/require"
)

func TestSpacingConsumesHorizontalWhitespaceAndComment(t *testing.T) {
	p := newParser("f", "  \t# a comment\nrest")
	p.spacing()
	require.Equal(t, "\nrest", p.rest())
}

func TestSpacingStopsAtNewline(t *testing.T) {
	p := newParser("f", "  \nrest")
	p.spacing()
	require.Equal(t, "\nrest", p.rest())
}

func TestAllSpacingCrossesNewlinesAndComments(t *testing.T) {
	p := newParser("f", " \n  # c\n\n rest")
	p.allSpacing()
	require.Equal(t, "rest", p.rest())
}

func TestCarriageReturnEmitsErrorNote(t *testing.T) {
	p := newParser("f", "\rrest")
	p.allSpacing()
	require.Equal(t, "rest", p.rest())
	notes := p.store.Notes()
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Equal(t, "Literal carriage return", notes[0].Message)
}

func TestLineContinuationIsFoldedOutOfText(t *testing.T) {
	p := newParser("f", "foo\\\nbar")
	require.Equal(t, "foobar", p.text)
}

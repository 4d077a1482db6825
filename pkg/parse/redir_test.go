package parse

import (
	"testing"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/stretchr/testify/require"
)

func TestBoundaryScenario5PlainHeredocBody(t *testing.T) {
	p := newParser("f", "<< foo\nlol\ncow\nfoo\n")
	hd := p.parseHeredocHeader()
	require.False(t, hd.Dashed)
	require.False(t, hd.Quoted)
	require.Equal(t, "foo", hd.EndToken)

	p.allSpacing() // crosses the newline that ends the header line

	require.Equal(t, "lol\ncow\n", hd.Body)
	require.Empty(t, p.store.Metadata()[hd.TokenID()].Notes)
}

func TestBoundaryScenario6DashedHeredocSpaceIndentIsError(t *testing.T) {
	p := newParser("f", "<<- EOF\n  cow\n  EOF\n")
	hd := p.parseHeredocHeader()
	require.True(t, hd.Dashed)
	require.Equal(t, "EOF", hd.EndToken)

	p.allSpacing()

	require.Equal(t, "  cow\n", hd.Body)
	notes := p.store.Metadata()[hd.TokenID()].Notes
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Contains(t, notes[0].Message, "only indent with tabs")
}

func TestDashedHeredocTabIndentHasNoNote(t *testing.T) {
	p := newParser("f", "<<- EOF\n\tcow\n\tEOF\n")
	hd := p.parseHeredocHeader()
	p.allSpacing()
	require.Equal(t, "\tcow\n", hd.Body)
	require.Empty(t, p.store.Metadata()[hd.TokenID()].Notes)
}

func TestNonDashedHeredocIndentedEndIsError(t *testing.T) {
	p := newParser("f", "<< EOF\n  cow\n  EOF\n")
	hd := p.parseHeredocHeader()
	p.allSpacing()
	notes := p.store.Metadata()[hd.TokenID()].Notes
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Contains(t, notes[0].Message, "<<- instead of <<")
}

func TestHeredocMissingEndTokenReportsUnterminated(t *testing.T) {
	p := newParser("f", "<< EOF\nabc\ndef\n")
	hd := p.parseHeredocHeader()
	p.allSpacing()
	notes := p.store.Metadata()[hd.TokenID()].Notes
	require.Len(t, notes, 1)
	require.Equal(t, ast.Error, notes[0].Severity)
	require.Contains(t, notes[0].Message, "Couldn't find end token")
}

func TestHereStringParsesWord(t *testing.T) {
	p := newParser("f", "<<< word")
	redir := p.parseRedir()
	hs, ok := redir.Target.(*ast.HereString)
	require.True(t, ok, "expected a HereString, got %T", redir.Target)
	nw := hs.Word.(*ast.NormalWord)
	lit := nw.Parts[0].(*ast.Literal)
	require.Equal(t, "word", lit.Value)
}

func TestIoFileRedirectOperatorAndFilename(t *testing.T) {
	p := newParser("f", "2>> out.log")
	redir := p.parseRedir()
	require.Equal(t, "2", redir.Fd)
	iof, ok := redir.Target.(*ast.IoFile)
	require.True(t, ok, "expected an IoFile, got %T", redir.Target)
	require.Equal(t, ">>", iof.Op)
}

func TestMissingRedirectionOperatorDefaultsToInput(t *testing.T) {
	p := newParser("f", "")
	redir := p.parseRedir()
	iof, ok := redir.Target.(*ast.IoFile)
	require.True(t, ok, "expected an IoFile, got %T", redir.Target)
	require.Equal(t, "<", iof.Op)

	notes := p.store.Notes()
	require.Len(t, notes, 2) // missing operator, then missing filename
	require.Equal(t, ast.Error, notes[0].Severity)
}

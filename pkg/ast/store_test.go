package ast_test

import (
	"testing"

	"github.com/elves/shellsyntax/pkg/ast"
	"github.com/stretchr/testify/require"
)

func TestStoreFreshAssignsContiguousIds(t *testing.T) {
	s := ast.NewStore()
	pos := ast.Position{File: "f", Line: 1, Column: 1}
	var ids []ast.Id
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Fresh(pos))
	}
	for i, id := range ids {
		require.Equal(t, ast.Id(i), id)
	}
	require.Len(t, s.Metadata(), 5)
}

func TestStoreAttachNoteReverseInsertionOrder(t *testing.T) {
	s := ast.NewStore()
	id := s.Fresh(ast.Position{File: "f", Line: 1, Column: 1})
	s.AttachNote(id, ast.Info, "first")
	s.AttachNote(id, ast.Warning, "second")
	s.AttachNote(id, ast.Error, "third")

	notes := s.Metadata()[id].Notes
	require.Equal(t, []ast.Note{
		{Severity: ast.Error, Message: "third"},
		{Severity: ast.Warning, Message: "second"},
		{Severity: ast.Info, Message: "first"},
	}, notes)
}

func TestStoreNoteAtIsOutsideMetadata(t *testing.T) {
	s := ast.NewStore()
	pos := ast.Position{File: "f", Line: 3, Column: 4}
	s.NoteAt(pos, ast.Error, "stray")

	require.Empty(t, s.Metadata())
	require.Equal(t, []ast.ParseNote{{Position: pos, Severity: ast.Error, Message: "stray"}}, s.Notes())
}

func TestNotesFromMapUsesNodePosition(t *testing.T) {
	s := ast.NewStore()
	pos := ast.Position{File: "f", Line: 2, Column: 1}
	id := s.Fresh(pos)
	s.AttachNote(id, ast.Style, "hint")

	got := ast.NotesFromMap(s.Metadata())
	require.Equal(t, []ast.ParseNote{{Position: pos, Severity: ast.Style, Message: "hint"}}, got)
}

func TestSortNotesOrdersByPositionThenSeverityAndDedupes(t *testing.T) {
	p1 := ast.Position{File: "f", Line: 1, Column: 1}
	p2 := ast.Position{File: "f", Line: 2, Column: 1}
	notes := []ast.ParseNote{
		{Position: p2, Severity: ast.Error, Message: "e2"},
		{Position: p1, Severity: ast.Error, Message: "e1"},
		{Position: p1, Severity: ast.Style, Message: "s1"},
		{Position: p1, Severity: ast.Error, Message: "e1"}, // duplicate
	}

	got := ast.SortNotes(notes)
	require.Equal(t, []ast.ParseNote{
		{Position: p1, Severity: ast.Style, Message: "s1"},
		{Position: p1, Severity: ast.Error, Message: "e1"},
		{Position: p2, Severity: ast.Error, Message: "e2"},
	}, got)
}

func TestSeverityOrdering(t *testing.T) {
	require.True(t, ast.Style < ast.Info)
	require.True(t, ast.Info < ast.Warning)
	require.True(t, ast.Warning < ast.Error)
}

func TestPositionLess(t *testing.T) {
	a := ast.Position{File: "a", Line: 5, Column: 1}
	b := ast.Position{File: "b", Line: 1, Column: 1}
	require.True(t, a.Less(b)) // file compared first

	c := ast.Position{File: "f", Line: 1, Column: 1}
	d := ast.Position{File: "f", Line: 2, Column: 1}
	require.True(t, c.Less(d)) // then line

	e := ast.Position{File: "f", Line: 1, Column: 2}
	g := ast.Position{File: "f", Line: 1, Column: 3}
	require.True(t, e.Less(g)) // then column
}

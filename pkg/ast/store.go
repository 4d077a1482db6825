package ast

import "sort"

// Metadata is the per-node record keyed by Id: the node's source position
// and its notes. Notes are kept in reverse insertion order internally (most
// recently attached first); callers that need position or severity order
// should flatten them with NotesFromMap and order the result with SortNotes.
type Metadata struct {
	Position Position
	Notes    []Note
}

// Store is the mutable {next-id, id->metadata, position-anchored notes}
// triple threaded through every parsing rule. It is the only
// piece of shared state in a single parse; ownership is exclusive to the
// parser that created it.
//
// Backtracking contract: when a speculative parse is discarded, the caller
// rewinds its cursor but must NOT roll back a Store. Ids allocated and notes
// recorded along a failed path are retained, since diagnostics produced
// there remain meaningful once re-anchored by position.
type Store struct {
	nextID   Id
	metadata map[Id]Metadata
	notes    []ParseNote
}

// NewStore returns an empty Store ready to back a single parse.
func NewStore() *Store {
	return &Store{metadata: map[Id]Metadata{}}
}

// Fresh allocates the next Id, records its creation position, and returns
// it. Every node-creating rule must call this before attempting its body, so
// that diagnostics raised mid-rule can attach to the node under
// construction.
func (s *Store) Fresh(pos Position) Id {
	id := s.nextID
	s.nextID++
	s.metadata[id] = Metadata{Position: pos}
	return id
}

// AttachNote prepends a note to id's metadata entry (reverse insertion
// order, per the Metadata doc comment).
func (s *Store) AttachNote(id Id, severity Severity, message string) {
	m := s.metadata[id]
	m.Notes = append([]Note{{Severity: severity, Message: message}}, m.Notes...)
	s.metadata[id] = m
}

// NoteAt appends a position-anchored ParseNote to the outside-map note list.
// This is the channel used when no node exists yet, or the note concerns the
// surrounding source rather than one node.
func (s *Store) NoteAt(pos Position, severity Severity, message string) {
	s.notes = append(s.notes, ParseNote{Position: pos, Severity: severity, Message: message})
}

// Metadata returns the id->Metadata map built up over the parse. The
// returned map must not be mutated by the caller.
func (s *Store) Metadata() map[Id]Metadata { return s.metadata }

// Notes returns the outside-map ParseNotes recorded via NoteAt, in
// insertion order. It does not include per-node notes; use NotesFromMap to
// flatten those in.
func (s *Store) Notes() []ParseNote { return s.notes }

// NotesFromMap flattens the per-node notes in a metadata map into
// standalone ParseNotes, using each node's recorded position.
func NotesFromMap(metadata map[Id]Metadata) []ParseNote {
	var out []ParseNote
	for _, m := range metadata {
		for _, n := range m.Notes {
			out = append(out, ParseNote{Position: m.Position, Severity: n.Severity, Message: n.Message})
		}
	}
	return out
}

// SortNotes sorts notes by (position, severity), breaking remaining ties by
// message so that exact duplicates (same position, severity, and message)
// end up adjacent, and removes those duplicates.
func SortNotes(notes []ParseNote) []ParseNote {
	sorted := make([]ParseNote, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Position != b.Position {
			return a.Position.Less(b.Position)
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Message < b.Message
	})
	out := sorted[:0:0]
	for i, n := range sorted {
		if i > 0 && n == sorted[i-1] {
			continue
		}
		out = append(out, n)
	}
	return out
}

package model

import "github.com/google/uuid"

// Kind identifies the kind of a declared entity, and the declared target kind
// of a Ref.
type Kind uint8

const (
	KindAny Kind = iota // Ref only: any declared entity is an acceptable target
	KindUser
	KindCode
	KindSource
	KindSelection
	KindNote
	KindVariable
	KindCase
	KindSet
	KindLink
	KindGraph
	KindVertex
	KindEdge
	KindCoding
	KindTranscript
	KindSyncPoint
)

var kindNames = [...]string{
	KindAny:        "any",
	KindUser:       "user",
	KindCode:       "code",
	KindSource:     "source",
	KindSelection:  "selection",
	KindNote:       "note",
	KindVariable:   "variable",
	KindCase:       "case",
	KindSet:        "set",
	KindLink:       "link",
	KindGraph:      "graph",
	KindVertex:     "vertex",
	KindEdge:       "edge",
	KindCoding:     "coding",
	KindTranscript: "transcript",
	KindSyncPoint:  "sync point",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Accepts reports whether an entity of kind target satisfies a reference
// declared with kind k.
func (k Kind) Accepts(target Kind) bool {
	return k == KindAny || k == target
}

// Ref is a non-owning reference to another entity by identifier.
type Ref struct {
	Target uuid.UUID
	Kind   Kind
}

// CodeRef, NoteRef, SourceRef, SelectionRef and VariableRef build a Ref of
// the matching kind.
func CodeRef(id uuid.UUID) Ref      { return Ref{Target: id, Kind: KindCode} }
func NoteRef(id uuid.UUID) Ref      { return Ref{Target: id, Kind: KindNote} }
func SourceRef(id uuid.UUID) Ref    { return Ref{Target: id, Kind: KindSource} }
func SelectionRef(id uuid.UUID) Ref { return Ref{Target: id, Kind: KindSelection} }
func VariableRef(id uuid.UUID) Ref  { return Ref{Target: id, Kind: KindVariable} }

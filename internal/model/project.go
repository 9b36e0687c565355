// Package model holds the typed document tree decoded from a project.qde file.
//
// The tree is built once by the decoder and is read-only afterwards. Parents
// own their children; relations between entities are expressed as Ref values
// and resolved by identifier on demand.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Namespace is the schema namespace of the root Project element.
const Namespace = "urn:QDA-XML:project:1.0"

// Project is the document root.
type Project struct {
	// Name is required and never empty after a successful decode
	Name string

	Origin        *string
	CreatingUser  *uuid.UUID
	CreationTime  *time.Time
	ModifyingUser *uuid.UUID
	ModifiedTime  *time.Time
	BasePath      *string

	Users     *Users
	Codebook  *Codebook
	Variables *Variables
	Cases     *Cases
	Sources   *Sources
	Notes     *Notes
	Links     *Links
	Sets      *Sets
	Graphs    *Graphs

	Description *string
	NoteRefs    []Ref
}

// Users is the flat list of project users.
type Users struct {
	Items []User
}

// User is a person who created or modified project content.
type User struct {
	ID         uuid.UUID
	Name       *string
	ExternalID *string
}

// Codebook holds the code hierarchy and optional code sets.
type Codebook struct {
	Codes []Code
	Sets  *Sets
}

// Code is a node of the code hierarchy. Children are owned, so the tree is
// acyclic by construction.
type Code struct {
	ID          uuid.UUID
	Name        string
	IsCodable   bool
	Color       *Color
	Description *string
	NoteRefs    []Ref
	Children    []Code
}

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// String renders the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Coding applies one code to the selection or source that owns it.
type Coding struct {
	ID           uuid.UUID
	CreatingUser *uuid.UUID
	CreationTime *time.Time
	CodeRef      Ref
	NoteRefs     []Ref
}

// Notes holds project-level notes. A note has the shape of a text source.
type Notes struct {
	Items []TextSource
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// VariableType is the declared type of a variable.
type VariableType uint8

const (
	VariableText VariableType = iota
	VariableBoolean
	VariableInteger
	VariableFloat
	VariableDate
	VariableDateTime
)

// VariableTypeNames lists the schema literals in VariableType order.
var VariableTypeNames = []string{"Text", "Boolean", "Integer", "Float", "Date", "DateTime"}

func (t VariableType) String() string {
	if int(t) < len(VariableTypeNames) {
		return VariableTypeNames[t]
	}
	return "Unknown"
}

// Variables holds variable declarations.
type Variables struct {
	Items []Variable
}

// Variable is a typed attribute that cases and sources can carry values for.
type Variable struct {
	ID          uuid.UUID
	Name        string
	Type        VariableType
	Description *string
}

// VariableValue is a value for the variable named by VariableRef.
type VariableValue struct {
	VariableRef Ref
	Value       Value
}

// Value is a tagged union. Only the field matching Type is meaningful.
type Value struct {
	Type  VariableType
	Text  string
	Bool  bool
	Int   int64
	Float float64
	Time  time.Time
}

// Cases holds the project cases.
type Cases struct {
	Items []Case
}

// Case groups codes, sources and selections that belong to one unit of analysis.
type Case struct {
	ID             uuid.UUID
	Name           *string
	Description    *string
	CodeRefs       []Ref
	VariableValues []VariableValue
	SourceRefs     []Ref
	SelectionRefs  []Ref
}

// Sets holds named sets of codes, sources and notes.
type Sets struct {
	Items []Set
}

// Set is a named group of members.
type Set struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	MemberCodes   []Ref
	MemberSources []Ref
	MemberNotes   []Ref
}

// Direction of a link or graph edge.
type Direction string

const (
	DirectionAssociative   Direction = "Associative"
	DirectionOneWay        Direction = "OneWay"
	DirectionBidirectional Direction = "Bidirectional"
)

// Links holds relations between arbitrary entities.
type Links struct {
	Items []Link
}

// Link relates an origin entity to a target entity.
type Link struct {
	ID        uuid.UUID
	Name      *string
	Direction *Direction
	Color     *Color
	Origin    *Ref
	Target    *Ref
	NoteRefs  []Ref
}

// Graphs holds the project's diagrams.
type Graphs struct {
	Items []Graph
}

// Graph is a diagram of vertices joined by edges.
type Graph struct {
	ID       uuid.UUID
	Name     *string
	Vertices []Vertex
	Edges    []Edge
}

// Shape of a vertex.
type Shape string

const (
	ShapeRectangle        Shape = "Rectangle"
	ShapeRoundedRectangle Shape = "RoundedRectangle"
	ShapeEllipse          Shape = "Ellipse"
	ShapeHexagon          Shape = "Hexagon"
	ShapeTriangle         Shape = "Triangle"
)

// LineStyle of an edge.
type LineStyle string

const (
	LineDotted LineStyle = "dotted"
	LineDashed LineStyle = "dashed"
	LineSolid  LineStyle = "solid"
)

// Vertex is a graph node, optionally representing another entity.
type Vertex struct {
	ID          uuid.UUID
	Represented *Ref
	Name        *string
	FirstX      uint64
	FirstY      uint64
	SecondX     *uint64
	SecondY     *uint64
	Shape       *Shape
	Color       *Color
}

// Edge joins two vertices of the same graph.
type Edge struct {
	ID           uuid.UUID
	Represented  *Ref
	Name         *string
	SourceVertex Ref
	TargetVertex Ref
	Color        *Color
	Direction    *Direction
	LineStyle    *LineStyle
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// SelectionHeader carries the attributes and children common to all selections.
type SelectionHeader struct {
	ID            uuid.UUID
	Name          *string
	Description   *string
	CreatingUser  *uuid.UUID
	CreationTime  *time.Time
	ModifyingUser *uuid.UUID
	ModifiedTime  *time.Time

	Codings  []Coding
	NoteRefs []Ref
}

// PlainTextSelection covers the character range [Start, End) of a text.
type PlainTextSelection struct {
	SelectionHeader
	Start uint64
	End   uint64
}

// Box is a pixel rectangle given by two corners. First ≤ Second on both axes.
type Box struct {
	FirstX, FirstY   uint64
	SecondX, SecondY uint64
}

// PictureSelection is a region of a picture.
type PictureSelection struct {
	SelectionHeader
	Box
}

// PDFSelection is a region of one PDF page.
type PDFSelection struct {
	SelectionHeader
	Box
	Page           uint32
	Representation *TextSource
}

// TimeRange is a media interval in milliseconds. Begin ≤ End.
type TimeRange struct {
	Begin uint64
	End   uint64
}

// AudioSelection is an interval of an audio source.
type AudioSelection struct {
	SelectionHeader
	TimeRange
}

// VideoSelection is an interval of a video source.
type VideoSelection struct {
	SelectionHeader
	TimeRange
}

// TranscriptSelection spans the text between two sync points.
type TranscriptSelection struct {
	SelectionHeader
	FromSyncPoint *Ref
	ToSyncPoint   *Ref
}

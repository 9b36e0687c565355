package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoSources is returned by Sources.Validate for an empty Sources element.
var ErrNoSources = errors.New("sources must contain at least 1 source")

// SourceKind is the closed set of source variants.
type SourceKind uint8

const (
	SourceText SourceKind = iota
	SourcePicture
	SourcePDF
	SourceAudio
	SourceVideo
)

// String returns the element name of the variant.
func (k SourceKind) String() string {
	switch k {
	case SourceText:
		return "TextSource"
	case SourcePicture:
		return "PictureSource"
	case SourcePDF:
		return "PDFSource"
	case SourceAudio:
		return "AudioSource"
	case SourceVideo:
		return "VideoSource"
	}
	return "UnknownSource"
}

// Sources holds every source of the project in document order.
type Sources struct {
	Items []Source
}

// Validate reports ErrNoSources when the collection is empty.
func (s *Sources) Validate() error {
	if s == nil || len(s.Items) == 0 {
		return ErrNoSources
	}
	return nil
}

// Source is a tagged variant: exactly the field matching Kind is non-nil.
type Source struct {
	Kind    SourceKind
	Text    *TextSource
	Picture *PictureSource
	PDF     *PDFSource
	Audio   *AudioSource
	Video   *VideoSource
}

// Header returns the attributes shared by every variant.
func (s *Source) Header() *SourceHeader {
	switch s.Kind {
	case SourceText:
		return &s.Text.SourceHeader
	case SourcePicture:
		return &s.Picture.SourceHeader
	case SourcePDF:
		return &s.PDF.SourceHeader
	case SourceAudio:
		return &s.Audio.SourceHeader
	case SourceVideo:
		return &s.Video.SourceHeader
	}
	return nil
}

// MediaPath returns the archive path of the source's payload, or "" if the
// source does not name one.
func (s *Source) MediaPath() string {
	var p *string
	switch s.Kind {
	case SourceText:
		p = s.Text.PlainTextPath
		if p == nil {
			p = s.Text.RichTextPath
		}
	case SourcePicture:
		p = s.Picture.Path
	case SourcePDF:
		p = s.PDF.Path
	case SourceAudio:
		p = s.Audio.Path
	case SourceVideo:
		p = s.Video.Path
	}
	if p == nil {
		return ""
	}
	return *p
}

// SourceHeader carries the attributes and children common to all sources.
type SourceHeader struct {
	ID            uuid.UUID
	Name          *string
	Description   *string
	CreatingUser  *uuid.UUID
	CreationTime  *time.Time
	ModifyingUser *uuid.UUID
	ModifiedTime  *time.Time

	Codings        []Coding
	NoteRefs       []Ref
	VariableValues []VariableValue
}

// TextSource is a plain or rich text document. Notes and PDF representations
// share this shape.
type TextSource struct {
	SourceHeader
	RichTextPath     *string
	PlainTextPath    *string
	PlainTextContent *string
	Selections       []PlainTextSelection
}

// PictureSource is an image.
type PictureSource struct {
	SourceHeader
	Path               *string
	CurrentPath        *string
	TextRepresentation *TextSource
	Selections         []PictureSelection
}

// PDFSource is a PDF document with an optional text representation.
type PDFSource struct {
	SourceHeader
	Path           *string
	CurrentPath    *string
	Representation *TextSource
	Selections     []PDFSelection
}

// AudioSource is an audio recording.
type AudioSource struct {
	SourceHeader
	Path        *string
	CurrentPath *string
	Transcripts []Transcript
	Selections  []AudioSelection
}

// VideoSource is a video recording.
type VideoSource struct {
	SourceHeader
	Path        *string
	CurrentPath *string
	Transcripts []Transcript
	Selections  []VideoSelection
}

// Transcript is a time-synchronised text for an audio or video source.
type Transcript struct {
	ID               uuid.UUID
	Name             *string
	Description      *string
	RichTextPath     *string
	PlainTextPath    *string
	CreatingUser     *uuid.UUID
	CreationTime     *time.Time
	ModifyingUser    *uuid.UUID
	ModifiedTime     *time.Time
	PlainTextContent *string
	SyncPoints       []SyncPoint
	Selections       []TranscriptSelection
	NoteRefs         []Ref
}

// SyncPoint ties a media timestamp (milliseconds) to a text position.
type SyncPoint struct {
	ID        uuid.UUID
	TimeStamp *uint64
	Position  *uint64
}

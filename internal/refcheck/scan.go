package refcheck

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/walk"
)

// scanner enumerates every declared entity and every reference of a project
// in document order. Either callback may be nil.
type scanner struct {
	declare func(kind model.Kind, id uuid.UUID, owner string)
	ref     func(r model.Ref, owner string)
	value   func(vv model.VariableValue, owner string)
}

func owner(element string, id uuid.UUID) string {
	return fmt.Sprintf("%s %s", element, id)
}

func (s *scanner) decl(kind model.Kind, element string, id uuid.UUID) string {
	o := owner(element, id)
	if s.declare != nil {
		s.declare(kind, id, o)
	}
	return o
}

func (s *scanner) refs(rs []model.Ref, owner string) {
	if s.ref == nil {
		return
	}
	for _, r := range rs {
		s.ref(r, owner)
	}
}

func (s *scanner) optRef(r *model.Ref, owner string) {
	if r != nil && s.ref != nil {
		s.ref(*r, owner)
	}
}

func (s *scanner) values(vvs []model.VariableValue, owner string) {
	for _, vv := range vvs {
		if s.ref != nil {
			s.ref(vv.VariableRef, owner)
		}
		if s.value != nil {
			s.value(vv, owner)
		}
	}
}

func (s *scanner) project(p *model.Project) {
	s.refs(p.NoteRefs, "Project")

	if p.Users != nil {
		for _, u := range p.Users.Items {
			s.decl(model.KindUser, "User", u.ID)
		}
	}
	if p.Codebook != nil {
		walk.Codes(p.Codebook, func(c *model.Code) walk.Signal {
			s.refs(c.NoteRefs, s.decl(model.KindCode, "Code", c.ID))
			return walk.Continue
		})
		s.sets(p.Codebook.Sets)
	}
	if p.Variables != nil {
		for _, v := range p.Variables.Items {
			s.decl(model.KindVariable, "Variable", v.ID)
		}
	}
	if p.Cases != nil {
		for i := range p.Cases.Items {
			c := &p.Cases.Items[i]
			o := s.decl(model.KindCase, "Case", c.ID)
			s.refs(c.CodeRefs, o)
			s.values(c.VariableValues, o)
			s.refs(c.SourceRefs, o)
			s.refs(c.SelectionRefs, o)
		}
	}
	if p.Sources != nil {
		for i := range p.Sources.Items {
			s.source(&p.Sources.Items[i])
		}
	}
	if p.Notes != nil {
		for i := range p.Notes.Items {
			s.text(model.KindNote, "Note", &p.Notes.Items[i])
		}
	}
	if p.Links != nil {
		for i := range p.Links.Items {
			l := &p.Links.Items[i]
			o := s.decl(model.KindLink, "Link", l.ID)
			s.optRef(l.Origin, o)
			s.optRef(l.Target, o)
			s.refs(l.NoteRefs, o)
		}
	}
	s.sets(p.Sets)
	if p.Graphs != nil {
		for i := range p.Graphs.Items {
			s.graph(&p.Graphs.Items[i])
		}
	}
}

func (s *scanner) sets(sets *model.Sets) {
	if sets == nil {
		return
	}
	for i := range sets.Items {
		set := &sets.Items[i]
		o := s.decl(model.KindSet, "Set", set.ID)
		s.refs(set.MemberCodes, o)
		s.refs(set.MemberSources, o)
		s.refs(set.MemberNotes, o)
	}
}

func (s *scanner) graph(g *model.Graph) {
	s.decl(model.KindGraph, "Graph", g.ID)
	for i := range g.Vertices {
		v := &g.Vertices[i]
		s.optRef(v.Represented, s.decl(model.KindVertex, "Vertex", v.ID))
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		o := s.decl(model.KindEdge, "Edge", e.ID)
		s.optRef(e.Represented, o)
		if s.ref != nil {
			s.ref(e.SourceVertex, o)
			s.ref(e.TargetVertex, o)
		}
	}
}

func (s *scanner) header(kind model.Kind, element string, h *model.SourceHeader) {
	o := s.decl(kind, element, h.ID)
	s.codings(h.Codings)
	s.refs(h.NoteRefs, o)
	s.values(h.VariableValues, o)
}

func (s *scanner) selection(element string, h *model.SelectionHeader) string {
	o := s.decl(model.KindSelection, element, h.ID)
	s.codings(h.Codings)
	s.refs(h.NoteRefs, o)
	return o
}

func (s *scanner) codings(cs []model.Coding) {
	for i := range cs {
		c := &cs[i]
		o := s.decl(model.KindCoding, "Coding", c.ID)
		if s.ref != nil {
			s.ref(c.CodeRef, o)
		}
		s.refs(c.NoteRefs, o)
	}
}

func (s *scanner) text(kind model.Kind, element string, t *model.TextSource) {
	s.header(kind, element, &t.SourceHeader)
	for i := range t.Selections {
		s.selection("PlainTextSelection", &t.Selections[i].SelectionHeader)
	}
}

func (s *scanner) source(src *model.Source) {
	switch src.Kind {
	case model.SourceText:
		s.text(model.KindSource, "TextSource", src.Text)
	case model.SourcePicture:
		pic := src.Picture
		s.header(model.KindSource, "PictureSource", &pic.SourceHeader)
		if pic.TextRepresentation != nil {
			s.text(model.KindSource, "TextSource", pic.TextRepresentation)
		}
		for i := range pic.Selections {
			s.selection("PictureSelection", &pic.Selections[i].SelectionHeader)
		}
	case model.SourcePDF:
		pdf := src.PDF
		s.header(model.KindSource, "PDFSource", &pdf.SourceHeader)
		if pdf.Representation != nil {
			s.text(model.KindSource, "Representation", pdf.Representation)
		}
		for i := range pdf.Selections {
			sel := &pdf.Selections[i]
			s.selection("PDFSelection", &sel.SelectionHeader)
			if sel.Representation != nil {
				s.text(model.KindSource, "Representation", sel.Representation)
			}
		}
	case model.SourceAudio:
		a := src.Audio
		s.header(model.KindSource, "AudioSource", &a.SourceHeader)
		s.transcripts(a.Transcripts)
		for i := range a.Selections {
			s.selection("AudioSelection", &a.Selections[i].SelectionHeader)
		}
	case model.SourceVideo:
		v := src.Video
		s.header(model.KindSource, "VideoSource", &v.SourceHeader)
		s.transcripts(v.Transcripts)
		for i := range v.Selections {
			s.selection("VideoSelection", &v.Selections[i].SelectionHeader)
		}
	}
}

func (s *scanner) transcripts(ts []model.Transcript) {
	for i := range ts {
		t := &ts[i]
		o := s.decl(model.KindTranscript, "Transcript", t.ID)
		s.refs(t.NoteRefs, o)
		for _, sp := range t.SyncPoints {
			s.decl(model.KindSyncPoint, "SyncPoint", sp.ID)
		}
		for j := range t.Selections {
			sel := &t.Selections[j]
			so := s.selection("TranscriptSelection", &sel.SelectionHeader)
			s.optRef(sel.FromSyncPoint, so)
			s.optRef(sel.ToSyncPoint, so)
		}
	}
}

package report

import (
	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/walk"
)

// Summary holds entity counts for a project.
type Summary struct {
	Name          string         `json:"name"`
	Origin        string         `json:"origin,omitempty"`
	Users         int            `json:"users"`
	Codes         int            `json:"codes"`
	CodableCodes  int            `json:"codable_codes"`
	MaxCodeDepth  int            `json:"max_code_depth"`
	Sources       int            `json:"sources"`
	SourcesByKind map[string]int `json:"sources_by_kind,omitempty"`
	Selections    int            `json:"selections"`
	Codings       int            `json:"codings"`
	Variables     int            `json:"variables"`
	Cases         int            `json:"cases"`
	Sets          int            `json:"sets"`
	Links         int            `json:"links"`
	Graphs        int            `json:"graphs"`
	Notes         int            `json:"notes"`
}

// Summarize counts the entities of p.
func Summarize(p *model.Project) Summary {
	s := Summary{Name: p.Name}
	if p.Origin != nil {
		s.Origin = *p.Origin
	}
	if p.Users != nil {
		s.Users = len(p.Users.Items)
	}

	walk.CodePaths(p.Codebook, func(cp walk.CodePath) walk.Signal {
		s.Codes++
		if cp.Code.IsCodable {
			s.CodableCodes++
		}
		s.MaxCodeDepth = max(s.MaxCodeDepth, len(cp.Names))
		return walk.Continue
	})

	if p.Sources != nil {
		s.Sources = len(p.Sources.Items)
		for i := range p.Sources.Items {
			src := &p.Sources.Items[i]
			if s.SourcesByKind == nil {
				s.SourcesByKind = make(map[string]int)
			}
			s.SourcesByKind[src.Kind.String()]++
			sels := Selections(src)
			s.Selections += len(sels)
			s.Codings += len(src.Header().Codings)
			for _, sel := range sels {
				s.Codings += len(sel.Codings)
			}
		}
	}

	if p.Variables != nil {
		s.Variables = len(p.Variables.Items)
	}
	if p.Cases != nil {
		s.Cases = len(p.Cases.Items)
	}
	if p.Sets != nil {
		s.Sets += len(p.Sets.Items)
	}
	if p.Codebook != nil && p.Codebook.Sets != nil {
		s.Sets += len(p.Codebook.Sets.Items)
	}
	if p.Links != nil {
		s.Links = len(p.Links.Items)
	}
	if p.Graphs != nil {
		s.Graphs = len(p.Graphs.Items)
	}
	if p.Notes != nil {
		s.Notes = len(p.Notes.Items)
	}
	return s
}

// Selections returns the headers of every selection owned by src, including
// selections inside transcripts, in document order.
func Selections(src *model.Source) []*model.SelectionHeader {
	var out []*model.SelectionHeader
	switch src.Kind {
	case model.SourceText:
		for i := range src.Text.Selections {
			out = append(out, &src.Text.Selections[i].SelectionHeader)
		}
	case model.SourcePicture:
		for i := range src.Picture.Selections {
			out = append(out, &src.Picture.Selections[i].SelectionHeader)
		}
	case model.SourcePDF:
		for i := range src.PDF.Selections {
			out = append(out, &src.PDF.Selections[i].SelectionHeader)
		}
	case model.SourceAudio:
		for i := range src.Audio.Selections {
			out = append(out, &src.Audio.Selections[i].SelectionHeader)
		}
		out = appendTranscripts(out, src.Audio.Transcripts)
	case model.SourceVideo:
		for i := range src.Video.Selections {
			out = append(out, &src.Video.Selections[i].SelectionHeader)
		}
		out = appendTranscripts(out, src.Video.Transcripts)
	}
	return out
}

func appendTranscripts(out []*model.SelectionHeader, ts []model.Transcript) []*model.SelectionHeader {
	for i := range ts {
		for j := range ts[i].Selections {
			out = append(out, &ts[i].Selections[j].SelectionHeader)
		}
	}
	return out
}

// CodeUsage counts the codings that apply each code, across sources and
// selections. Codes never applied are absent from the map.
func CodeUsage(p *model.Project) map[uuid.UUID]int {
	usage := make(map[uuid.UUID]int)
	if p.Sources == nil {
		return usage
	}
	for i := range p.Sources.Items {
		src := &p.Sources.Items[i]
		for _, c := range src.Header().Codings {
			usage[c.CodeRef.Target]++
		}
		for _, sel := range Selections(src) {
			for _, c := range sel.Codings {
				usage[c.CodeRef.Target]++
			}
		}
	}
	return usage
}

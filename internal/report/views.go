package report

import (
	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/model"
)

// CodeNode is the JSON form of one code and its subtree.
type CodeNode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Codable     bool       `json:"codable"`
	Color       string     `json:"color,omitempty"`
	Description string     `json:"description,omitempty"`
	Usage       int        `json:"usage"`
	Children    []CodeNode `json:"children,omitempty"`
}

// CodeTree returns the code hierarchy of p with per-code usage counts.
func CodeTree(p *model.Project) []CodeNode {
	if p.Codebook == nil {
		return []CodeNode{}
	}
	return codeNodes(p.Codebook.Codes, CodeUsage(p))
}

func codeNodes(codes []model.Code, usage map[uuid.UUID]int) []CodeNode {
	out := make([]CodeNode, 0, len(codes))
	for i := range codes {
		c := &codes[i]
		n := CodeNode{
			ID:      c.ID.String(),
			Name:    c.Name,
			Codable: c.IsCodable,
			Usage:   usage[c.ID],
		}
		if c.Color != nil {
			n.Color = c.Color.String()
		}
		if c.Description != nil {
			n.Description = *c.Description
		}
		if len(c.Children) > 0 {
			n.Children = codeNodes(c.Children, usage)
		}
		out = append(out, n)
	}
	return out
}

// SourceView is the JSON form of one source.
type SourceView struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	MediaPath   string          `json:"media_path,omitempty"`
	Codes       []string        `json:"codes"`
	Selections  []SelectionView `json:"selections"`
}

// SelectionView is the JSON form of one selection.
type SelectionView struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Codes []string `json:"codes"`
}

// FindSource returns the view of the source with the given identifier.
func FindSource(p *model.Project, id uuid.UUID) (*SourceView, bool) {
	if p.Sources == nil {
		return nil, false
	}
	for i := range p.Sources.Items {
		src := &p.Sources.Items[i]
		if h := src.Header(); h.ID == id {
			return sourceView(src), true
		}
	}
	return nil, false
}

func sourceView(src *model.Source) *SourceView {
	h := src.Header()
	v := &SourceView{
		ID:         h.ID.String(),
		Kind:       src.Kind.String(),
		MediaPath:  src.MediaPath(),
		Codes:      codingTargets(h.Codings),
		Selections: []SelectionView{},
	}
	if h.Name != nil {
		v.Name = *h.Name
	}
	if h.Description != nil {
		v.Description = *h.Description
	}
	for _, sel := range Selections(src) {
		sv := SelectionView{ID: sel.ID.String(), Codes: codingTargets(sel.Codings)}
		if sel.Name != nil {
			sv.Name = *sel.Name
		}
		v.Selections = append(v.Selections, sv)
	}
	return v
}

func codingTargets(codings []model.Coding) []string {
	out := make([]string, 0, len(codings))
	for _, c := range codings {
		out = append(out, c.CodeRef.Target.String())
	}
	return out
}

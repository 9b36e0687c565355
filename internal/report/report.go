// Package report renders a decoded project as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/refcheck"
	"github.com/hpungsan/qdpx/internal/walk"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Build renders p as a Markdown document. If rep is non-nil a validation
// section is appended.
func Build(p *model.Project, rep *refcheck.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", inline(p.Name))
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		b.WriteString(strings.TrimSpace(*p.Description))
		b.WriteString("\n\n")
	}

	writeOverview(&b, p)
	writeCodes(&b, p)
	writeSources(&b, p)
	if rep != nil {
		writeValidation(&b, rep)
	}
	return b.String()
}

// RenderHTML converts Markdown to an HTML fragment. Raw HTML in the input is
// not passed through.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", errors.NewInternal(fmt.Errorf("render markdown: %w", err))
	}
	return buf.String(), nil
}

func writeOverview(b *strings.Builder, p *model.Project) {
	s := Summarize(p)

	b.WriteString("## Overview\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	if s.Origin != "" {
		row(b, "Origin", s.Origin)
	}
	if p.CreationTime != nil {
		row(b, "Created", formatTime(*p.CreationTime))
	}
	if p.ModifiedTime != nil {
		row(b, "Modified", formatTime(*p.ModifiedTime))
	}
	if p.BasePath != nil {
		row(b, "Base path", *p.BasePath)
	}
	row(b, "Users", fmt.Sprint(s.Users))
	row(b, "Codes", fmt.Sprintf("%d (%d codable, depth %d)", s.Codes, s.CodableCodes, s.MaxCodeDepth))
	row(b, "Sources", fmt.Sprintf("%d%s", s.Sources, kindBreakdown(s.SourcesByKind)))
	row(b, "Selections", fmt.Sprint(s.Selections))
	row(b, "Codings", fmt.Sprint(s.Codings))
	row(b, "Variables", fmt.Sprint(s.Variables))
	row(b, "Cases", fmt.Sprint(s.Cases))
	row(b, "Sets", fmt.Sprint(s.Sets))
	row(b, "Links", fmt.Sprint(s.Links))
	row(b, "Graphs", fmt.Sprint(s.Graphs))
	row(b, "Notes", fmt.Sprint(s.Notes))
	b.WriteString("\n")
}

func writeCodes(b *strings.Builder, p *model.Project) {
	b.WriteString("## Codes\n\n")
	if walk.CountCodes(p.Codebook) == 0 {
		b.WriteString("_No codes._\n\n")
		return
	}

	usage := CodeUsage(p)
	walk.CodePaths(p.Codebook, func(cp walk.CodePath) walk.Signal {
		c := cp.Code
		b.WriteString(strings.Repeat("  ", len(cp.Names)-1))
		fmt.Fprintf(b, "- **%s**", inline(c.Name))
		if c.Color != nil {
			fmt.Fprintf(b, " `%s`", c.Color)
		}
		if !c.IsCodable {
			b.WriteString(" _(not codable)_")
		}
		if n := usage[c.ID]; n > 0 {
			fmt.Fprintf(b, " (%d %s)", n, plural(n, "coding", "codings"))
		}
		b.WriteString("\n")
		return walk.Continue
	})
	b.WriteString("\n")
}

func writeSources(b *strings.Builder, p *model.Project) {
	b.WriteString("## Sources\n\n")
	if p.Sources == nil || len(p.Sources.Items) == 0 {
		b.WriteString("_No sources._\n\n")
		return
	}

	b.WriteString("| Name | Kind | Path | Selections | Codings |\n|---|---|---|---|---|\n")
	for i := range p.Sources.Items {
		src := &p.Sources.Items[i]
		h := src.Header()
		name := h.ID.String()
		if h.Name != nil && *h.Name != "" {
			name = *h.Name
		}
		sels := Selections(src)
		codings := len(h.Codings)
		for _, sel := range sels {
			codings += len(sel.Codings)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %d | %d |\n",
			cell(name), src.Kind, cell(src.MediaPath()), len(sels), codings)
	}
	b.WriteString("\n")
}

func writeValidation(b *strings.Builder, rep *refcheck.Report) {
	b.WriteString("## Validation\n\n")
	fmt.Fprintf(b, "Mode %s: %d identifiers declared, %d references checked.\n\n",
		rep.Mode, rep.Declared, rep.Checked)
	if rep.OK() {
		b.WriteString("No problems found.\n")
		return
	}

	b.WriteString("| Kind | Identifier | Owner | Message |\n|---|---|---|---|\n")
	for _, f := range rep.Findings {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", f.Kind, cell(f.ID), cell(f.Owner), cell(f.Message))
	}
}

func row(b *strings.Builder, field, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", field, cell(value))
}

func kindBreakdown(m map[string]int) string {
	if len(m) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s %d", k, m[k])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// cell escapes text for a single table cell.
func cell(s string) string {
	s = inline(s)
	return strings.ReplaceAll(s, "|", `\|`)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"&", `\&`,
)

// inline collapses s onto one line and escapes Markdown punctuation.
func inline(s string) string {
	return markdownEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/db"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/report"
	"github.com/hpungsan/qdpx/internal/walk"
)

// CodePathSeparator joins code names in the indexed path column.
const CodePathSeparator = " / "

// IndexInput contains parameters for the Index operation.
type IndexInput struct {
	Path string // required
	Sink diag.Sink
}

// IndexOutput contains the result of the Index operation.
type IndexOutput struct {
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	Replaced bool           `json:"replaced"`
	Summary  report.Summary `json:"summary"`
}

// Index decodes a project file and stores its snapshot, codes and sources.
// Indexing a path that is already indexed replaces the stored record.
func Index(ctx context.Context, database *sql.DB, cfg *config.Config, input IndexInput) (*IndexOutput, error) {
	loaded, err := LoadProject(input.Path, cfg, input.Sink)
	if err != nil {
		return nil, err
	}
	p := loaded.Project

	snapshot, err := db.EncodeSnapshot(p)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	summary := report.Summarize(p)
	rec := &db.ProjectRecord{
		ID:         id,
		Path:       loaded.Path,
		Name:       p.Name,
		NameNorm:   db.Normalize(p.Name),
		Origin:     p.Origin,
		FileSize:   loaded.Size,
		Checksum:   loaded.Checksum,
		Codes:      summary.Codes,
		Sources:    summary.Sources,
		Selections: summary.Selections,
		Codings:    summary.Codings,
		IndexedAt:  time.Now().Unix(),
		Snapshot:   snapshot,
	}

	replaced, err := db.Upsert(ctx, database, rec, codeRows(p), sourceRows(p))
	if err != nil {
		return nil, err
	}

	return &IndexOutput{
		ID:       rec.ID,
		Path:     rec.Path,
		Replaced: replaced,
		Summary:  summary,
	}, nil
}

func codeRows(p *model.Project) []db.CodeRow {
	usage := report.CodeUsage(p)
	var rows []db.CodeRow
	walk.CodePaths(p.Codebook, func(cp walk.CodePath) walk.Signal {
		c := cp.Code
		row := db.CodeRow{
			Ord:      len(rows),
			GUID:     c.ID.String(),
			Name:     c.Name,
			NameNorm: db.Normalize(c.Name),
			Path:     strings.Join(cp.Names, CodePathSeparator),
			Depth:    len(cp.Names),
			Codable:  c.IsCodable,
			Usage:    usage[c.ID],
		}
		if c.Color != nil {
			color := c.Color.String()
			row.Color = &color
		}
		rows = append(rows, row)
		return walk.Continue
	})
	return rows
}

func sourceRows(p *model.Project) []db.SourceRow {
	if p.Sources == nil {
		return nil
	}
	rows := make([]db.SourceRow, 0, len(p.Sources.Items))
	for i := range p.Sources.Items {
		src := &p.Sources.Items[i]
		h := src.Header()
		sels := report.Selections(src)
		codings := len(h.Codings)
		for _, sel := range sels {
			codings += len(sel.Codings)
		}
		row := db.SourceRow{
			Ord:        i,
			GUID:       h.ID.String(),
			Kind:       src.Kind.String(),
			Name:       h.Name,
			Selections: len(sels),
			Codings:    codings,
		}
		if mp := src.MediaPath(); mp != "" {
			row.MediaPath = &mp
		}
		rows = append(rows, row)
	}
	return rows
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

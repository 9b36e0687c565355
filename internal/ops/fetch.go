package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/qdpx/internal/db"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string // required
	IncludeDeleted bool
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	Record  db.ProjectRecord `json:"record"`
	Sources []db.SourceRow   `json:"sources"`
	Project *model.Project   `json:"-"`
}

// Fetch loads an indexed project and decodes its stored snapshot.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	rec, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	p, err := db.DecodeSnapshot(rec.Snapshot)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	sources, err := db.ListSources(ctx, database, rec.ID)
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = []db.SourceRow{}
	}

	rec.Snapshot = nil
	return &FetchOutput{Record: *rec, Sources: sources, Project: p}, nil
}

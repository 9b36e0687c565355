package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/qdpx/internal/db"
	"github.com/hpungsan/qdpx/internal/errors"
)

// MaxQueryLength bounds the search query.
const MaxQueryLength = db.MaxSearchQueryChars

// SearchCodesInput contains parameters for the SearchCodes operation.
type SearchCodesInput struct {
	Query     string  // required unless ProjectID is set
	ProjectID *string // optional filter
	Limit     int     // default: 50, max: 200
	Offset    int     // default: 0
}

// SearchCodesOutput contains the result of the SearchCodes operation.
type SearchCodesOutput struct {
	Items      []db.CodeMatch `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// SearchCodes finds codes by name across indexed projects. Matching is a
// case-insensitive substring match on the whitespace-normalized name.
func SearchCodes(ctx context.Context, database *sql.DB, input SearchCodesInput) (*SearchCodesOutput, error) {
	query := db.Normalize(input.Query)
	projectID := cleanOptionalString(input.ProjectID)

	if query == "" && projectID == nil {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	limit, offset := paginate(input.Limit, input.Offset, DefaultSearchLimit, MaxSearchLimit)

	items, total, err := db.SearchCodes(ctx, database, db.CodeFilter{Query: query, ProjectID: projectID}, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []db.CodeMatch{}
	}

	return &SearchCodesOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// cleanOptionalString trims s and maps empty values to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

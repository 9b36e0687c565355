package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/ops"
	"github.com/hpungsan/qdpx/internal/refcheck"
	"github.com/hpungsan/qdpx/internal/report"
)

// Handlers holds dependencies for tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// ProjectRequest names a project file.
type ProjectRequest struct {
	Path string `json:"path"`
}

// ValidateRequest represents the arguments for project_validate.
type ValidateRequest struct {
	Path         string `json:"path"`
	Strict       *bool  `json:"strict,omitempty"`
	CheckSources *bool  `json:"check_sources,omitempty"`
}

// ReportRequest represents the arguments for project_report.
type ReportRequest struct {
	Path     string `json:"path"`
	Format   string `json:"format,omitempty"`
	Validate bool   `json:"validate,omitempty"`
}

// IndexListRequest represents the arguments for index_list.
type IndexListRequest struct {
	Limit          int  `json:"limit,omitempty"`
	Offset         int  `json:"offset,omitempty"`
	IncludeDeleted bool `json:"include_deleted,omitempty"`
}

// IndexSearchCodesRequest represents the arguments for index_search_codes.
type IndexSearchCodesRequest struct {
	Query     string  `json:"query,omitempty"`
	ProjectID *string `json:"project_id,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Offset    int     `json:"offset,omitempty"`
}

// Response types

// SummaryResponse is the result of project_summary.
type SummaryResponse struct {
	Path        string         `json:"path"`
	Size        int64          `json:"size"`
	Checksum    string         `json:"checksum"`
	Summary     report.Summary `json:"summary"`
	Diagnostics []diag.Record  `json:"diagnostics"`
}

// CodesResponse is the result of project_codes.
type CodesResponse struct {
	Path  string            `json:"path"`
	Codes []report.CodeNode `json:"codes"`
}

// ReportResponse is the result of project_report.
type ReportResponse struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// Handler implementations

// load decodes the file at path, collecting non-fatal findings.
func (h *Handlers) load(path string) (*ops.Loaded, []diag.Record, error) {
	var sink diag.Collector
	loaded, err := ops.LoadProject(path, h.cfg, &sink)
	if err != nil {
		return nil, nil, err
	}
	return loaded, sink.Records(), nil
}

// HandleSummary handles the project_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	loaded, records, err := h.load(input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(SummaryResponse{
		Path:        loaded.Path,
		Size:        loaded.Size,
		Checksum:    loaded.Checksum,
		Summary:     report.Summarize(loaded.Project),
		Diagnostics: records,
	})
}

// HandleCodes handles the project_codes tool call.
func (h *Handlers) HandleCodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	loaded, _, err := h.load(input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(CodesResponse{
		Path:  loaded.Path,
		Codes: report.CodeTree(loaded.Project),
	})
}

// HandleValidate handles the project_validate tool call.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ValidateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Validate(h.cfg, ops.ValidateInput{
		Path:         input.Path,
		Strict:       input.Strict,
		CheckSources: input.CheckSources,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReport handles the project_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	format := input.Format
	switch format {
	case "":
		format = "markdown"
	case "markdown", "html":
	default:
		return errorResult(errors.NewInvalidRequest("format must be markdown or html")), nil
	}

	loaded, _, err := h.load(input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	var rep *refcheck.Report
	if input.Validate {
		strict := false
		checked, err := ops.CheckProject(loaded.Project, ops.ValidateOptions(h.cfg, &strict, nil, nil))
		if err != nil {
			return errorResult(err), nil
		}
		rep = checked.Report
	}

	content := report.Build(loaded.Project, rep)
	if format == "html" {
		if content, err = report.RenderHTML(content); err != nil {
			return errorResult(err), nil
		}
	}

	return successResult(ReportResponse{Path: loaded.Path, Format: format, Content: content})
}

// HandleIndexAdd handles the index_add tool call.
func (h *Handlers) HandleIndexAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProjectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Index(ctx, h.db, h.cfg, ops.IndexInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleIndexList handles the index_list tool call.
func (h *Handlers) HandleIndexList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IndexListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleIndexSearchCodes handles the index_search_codes tool call.
func (h *Handlers) HandleIndexSearchCodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IndexSearchCodesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SearchCodes(ctx, h.db, ops.SearchCodesInput{
		Query:     input.Query,
		ProjectID: input.ProjectID,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates a tool error result from any error.
// Uses IsError: true so clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var qErr *errors.QdpxError
	if stderrors.As(err, &qErr) {
		errorObj := map[string]any{
			"code":    qErr.Code,
			"message": qErr.Message,
		}
		if qErr != err {
			// keep wrapper context
			errorObj["message"] = err.Error()
		}
		if qErr.Code != errors.ErrInternal {
			if loc := qErr.Location; loc != (errors.Location{}) {
				errorObj["location"] = loc
			}
			if qErr.Details != nil {
				errorObj["details"] = qErr.Details
			}
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates a tool success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

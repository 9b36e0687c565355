package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/hpungsan/qdpx/internal/codec"
	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/ops"
	"github.com/hpungsan/qdpx/internal/report"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	doc      *Document
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:       title,
		Version:     h.renderer.version,
		Nav:         nav,
		HasDocument: h.doc != nil,
		HasIndex:    h.db != nil,
	}
}

// HandleOverview handles GET / with the rendered report of the served project.
func (h *Handlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	p := h.doc.Project
	h.renderer.renderPage(w, "overview", OverviewPageData{
		PageData: h.page(p.Name, "overview"),
		Path:     h.doc.Path,
		Summary:  report.Summarize(p),
		Report:   renderMarkdown(report.Build(p, nil)),
	})
}

// HandleCodes handles GET /codes with the code tree as JSON.
func (h *Handlers) HandleCodes(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"codes": report.CodeTree(h.doc.Project),
	})
}

// HandleSource handles GET /sources/{id} with one source as JSON.
func (h *Handlers) HandleSource(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := codec.ParseID(raw)
	if err != nil {
		renderJSONError(w, errors.NewInvalidRequest("invalid source identifier: "+raw))
		return
	}

	src, ok := report.FindSource(h.doc.Project, id)
	if !ok {
		renderJSONError(w, errors.NewNotFound(raw))
		return
	}
	renderJSON(w, http.StatusOK, src)
}

// HandleValidate handles GET /validate with a reference check as JSON.
// Query parameters strict and sources override the configuration.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	opts := ops.ValidateOptions(h.cfg, optionalBoolParam(r, "strict"), optionalBoolParam(r, "sources"), nil)
	out, err := ops.CheckProject(h.doc.Project, opts)
	if err != nil {
		renderJSONError(w, err)
		return
	}
	out.Path = h.doc.Path
	renderJSON(w, http.StatusOK, out)
}

// HandleIndexList handles GET /index with indexed projects, newest first.
func (h *Handlers) HandleIndexList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, h.page("", "index"), err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData:   h.page("Index", "index"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Deleted:    input.IncludeDeleted,
	})
}

// HandleIndexDetail handles GET /index/{id} with the report of an indexed project.
func (h *Handlers) HandleIndexDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, h.page("", "index"), err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: h.page(result.Record.Name, "index"),
		Record:   result.Record,
		Sources:  result.Sources,
		Report:   renderMarkdown(report.Build(result.Project, nil)),
	})
}

// HandleIndexSearch handles GET /index/search with a code name search.
func (h *Handlers) HandleIndexSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	data := SearchPageData{
		PageData: h.page("Search codes", "search"),
		Query:    query,
		HasQuery: query != "",
	}

	if query == "" {
		h.renderer.renderPage(w, "search", data)
		return
	}

	result, err := ops.SearchCodes(r.Context(), h.db, ops.SearchCodesInput{
		Query:  query,
		Limit:  parseIntParam(r, "limit", ops.DefaultSearchLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, data.PageData, err)
		return
	}

	data.Items = result.Items
	data.Pagination = result.Pagination
	h.renderer.renderPage(w, "search", data)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// optionalBoolParam returns nil when the parameter is absent.
func optionalBoolParam(r *http.Request, name string) *bool {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := parseBoolParam(r, name)
	return &v
}

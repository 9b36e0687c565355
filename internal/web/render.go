package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/hpungsan/qdpx/internal/db"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/ops"
	"github.com/hpungsan/qdpx/internal/report"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title       string
	Version     string
	Nav         string // active nav item: "overview", "index", "search"
	HasDocument bool
	HasIndex    bool
}

// OverviewPageData is the template data for the project overview page.
type OverviewPageData struct {
	PageData
	Path    string
	Summary report.Summary
	Report  template.HTML
}

// ListPageData is the template data for the index list page.
type ListPageData struct {
	PageData
	Items      []db.ProjectRecord
	Pagination ops.Pagination
	Deleted    bool
}

// DetailPageData is the template data for an indexed project.
type DetailPageData struct {
	PageData
	Record  db.ProjectRecord
	Sources []db.SourceRow
	Report  template.HTML
}

// SearchPageData is the template data for the code search page.
type SearchPageData struct {
	PageData
	Query      string
	Items      []db.CodeMatch
	Pagination ops.Pagination
	HasQuery   bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatTime":  formatTime,
		"formatCount": formatCount,
		"deref":       deref,
		"hasValue":    hasValue,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"overview": "overview.html",
		"list":     "list.html",
		"detail":   "detail.html",
		"search":   "search.html",
		"error":    "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrIO, errors.ErrContainer, errors.ErrMalformedXML, errors.ErrSchemaViolation, errors.ErrReference:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// asQdpxError unwraps err, wrapping anything unstructured as an internal error.
func asQdpxError(err error) *errors.QdpxError {
	var qErr *errors.QdpxError
	if !stderrors.As(err, &qErr) {
		qErr = errors.NewInternal(err)
	}
	return qErr
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, page PageData, err error) {
	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderJSONError(w, err)
		return
	}

	qErr := asQdpxError(err)
	status := statusFor(qErr.Code)
	message := qErr.Message
	if qErr.Code == errors.ErrInternal {
		slog.Error("request failed", "path", req.URL.Path, "error", err)
		message = "an internal error occurred"
	}

	page.Title = fmt.Sprintf("Error %d", status)
	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData:   page,
		StatusCode: status,
		Message:    message,
	})
}

// renderJSONError writes the error envelope used by the JSON routes.
func renderJSONError(w http.ResponseWriter, err error) {
	qErr := asQdpxError(err)
	status := statusFor(qErr.Code)
	message := qErr.Message
	if qErr.Code == errors.ErrInternal {
		message = "an internal error occurred"
	}
	renderJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    string(qErr.Code),
			"message": message,
			"status":  status,
		},
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts report markdown to HTML. Raw HTML in the input is
// not passed through.
func renderMarkdown(md string) template.HTML {
	html, err := report.RenderHTML(md)
	if err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(html)
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatCount formats an integer with comma thousands separators.
func formatCount(n int64) string {
	if n < 0 {
		return "-" + formatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// deref dereferences a pointer, returning the zero value if nil.
func deref(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()).Interface()
		}
		return rv.Elem().Interface()
	}
	return v
}

// hasValue checks if a pointer value is non-nil.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return !rv.IsNil()
	}
	return true
}

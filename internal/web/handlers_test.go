package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/container"
	"github.com/hpungsan/qdpx/internal/db"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/ops"
	"github.com/hpungsan/qdpx/internal/qde"
)

const (
	codeTrust = "b0000000-0000-4000-8000-000000000002"
	codeGone  = "c0000000-0000-4000-8000-000000000009"
	sourceID  = "d0000000-0000-4000-8000-000000000004"
)

const studyDoc = `<Project xmlns="urn:QDA-XML:project:1.0" name="Study &lt;one&gt;">
  <CodeBook><Codes>
    <Code guid="a0000000-0000-4000-8000-000000000001" name="Themes" isCodable="false" color="#336699">
      <Code guid="` + codeTrust + `" name="Trust" isCodable="true"/>
    </Code>
  </Codes></CodeBook>
  <Sources>
    <TextSource guid="` + sourceID + `" name="interview.txt" plainTextPath="internal://interview.txt">
      <PlainTextSelection guid="e0000000-0000-4000-8000-000000000005" startPosition="0" endPosition="5">
        <Coding guid="f0000000-0000-4000-8000-000000000006"><CodeRef targetGUID="` + codeTrust + `"/></Coding>
        <Coding guid="f0000000-0000-4000-8000-000000000007"><CodeRef targetGUID="` + codeGone + `"/></Coding>
      </PlainTextSelection>
    </TextSource>
  </Sources>
</Project>`

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	p, err := qde.DecodeBytes([]byte(studyDoc), qde.Options{})
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &Document{Path: "/data/study.qdpx", Project: p}
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestHandler(t *testing.T, doc *Document, database *sql.DB) http.Handler {
	t.Helper()
	h, err := NewHandler(doc, database, config.DefaultConfig(), "test")
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

// seedProject indexes the fixture and returns the record ID.
func seedProject(t *testing.T, database *sql.DB) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(container.DocumentEntry)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(studyDoc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "study.qdpx")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	out, err := ops.Index(context.Background(), database, cfg, ops.IndexInput{Path: path})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return out.ID
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, rec.Body.String())
	}
	return out
}

// --- project routes ---

func TestHandleOverview(t *testing.T) {
	h := newTestHandler(t, newTestDocument(t), nil)

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<h1>Study &lt;one&gt;</h1>",
		"/data/study.qdpx",
		"<strong>Trust</strong>",
		"interview.txt",
		`href="/codes"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("overview missing %q", want)
		}
	}
	if strings.Contains(body, "<one>") {
		t.Error("project name must be escaped")
	}
	if strings.Contains(body, `href="/index"`) {
		t.Error("index nav must be hidden without a database")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := get(t, newTestHandler(t, newTestDocument(t), nil), "/")
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("Content-Security-Policy = %q", got)
	}
}

func TestStaticAssets(t *testing.T) {
	rec := get(t, newTestHandler(t, newTestDocument(t), nil), "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/css") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestHandleCodes(t *testing.T) {
	rec := get(t, newTestHandler(t, newTestDocument(t), nil), "/codes")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	codes := decodeJSON(t, rec)["codes"].([]any)
	if len(codes) != 1 {
		t.Fatalf("codes = %v", codes)
	}
	root := codes[0].(map[string]any)
	child := root["children"].([]any)[0].(map[string]any)
	if root["name"] != "Themes" || child["name"] != "Trust" || child["usage"] != float64(1) {
		t.Errorf("unexpected tree: %v", root)
	}
}

func TestHandleSource(t *testing.T) {
	h := newTestHandler(t, newTestDocument(t), nil)

	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"found", sourceID, http.StatusOK, ""},
		{"uppercase id", strings.ToUpper(sourceID), http.StatusOK, ""},
		{"unknown", codeGone, http.StatusNotFound, string(errors.ErrNotFound)},
		{"malformed", "not-a-guid", http.StatusBadRequest, string(errors.ErrInvalidRequest)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/sources/"+tt.id)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			out := decodeJSON(t, rec)
			if tt.code == "" {
				if out["kind"] != "TextSource" || out["name"] != "interview.txt" {
					t.Errorf("unexpected source: %v", out)
				}
				sels := out["selections"].([]any)
				if len(sels) != 1 || len(sels[0].(map[string]any)["codes"].([]any)) != 2 {
					t.Errorf("unexpected selections: %v", sels)
				}
				return
			}
			errObj := out["error"].(map[string]any)
			if errObj["code"] != tt.code {
				t.Errorf("code = %v, want %s", errObj["code"], tt.code)
			}
		})
	}
}

func TestHandleValidate(t *testing.T) {
	h := newTestHandler(t, newTestDocument(t), nil)

	out := decodeJSON(t, get(t, h, "/validate"))
	if out["valid"] != false || out["path"] != "/data/study.qdpx" {
		t.Errorf("unexpected result: %v", out)
	}
	rep := out["report"].(map[string]any)
	if rep["mode"] != "lenient" || len(rep["findings"].([]any)) != 1 {
		t.Errorf("unexpected report: %v", rep)
	}
	if _, ok := out["error"]; ok {
		t.Error("lenient mode must not set error")
	}

	out = decodeJSON(t, get(t, h, "/validate?strict=true"))
	if !strings.Contains(out["error"].(string), "REFERENCE_ERROR") {
		t.Errorf("strict error = %v", out["error"])
	}
	if out["report"].(map[string]any)["mode"] != "strict" {
		t.Errorf("mode = %v", out["report"])
	}
}

func TestNewHandler_NothingToServe(t *testing.T) {
	if _, err := NewHandler(nil, nil, nil, "test"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNewServer_Addr(t *testing.T) {
	srv, err := NewServer(newTestDocument(t), nil, nil, "test", "127.0.0.1", 8420)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if srv.Addr != "127.0.0.1:8420" {
		t.Errorf("Addr = %q", srv.Addr)
	}
}

// --- index routes ---

func TestIndexOnly_RootRedirects(t *testing.T) {
	rec := get(t, newTestHandler(t, nil, newTestDB(t)), "/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/index" {
		t.Errorf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHandleIndexList(t *testing.T) {
	database := newTestDB(t)
	h := newTestHandler(t, newTestDocument(t), database)

	rec := get(t, h, "/index")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No projects indexed yet") {
		t.Error("expected empty state")
	}

	id := seedProject(t, database)
	body := get(t, h, "/index?limit=notanumber").Body.String()
	if !strings.Contains(body, `href="/index/`+id+`"`) {
		t.Errorf("list missing link to %s", id)
	}
	if !strings.Contains(body, "Study &lt;one&gt;") {
		t.Error("list missing escaped project name")
	}
}

func TestHandleIndexDetail(t *testing.T) {
	database := newTestDB(t)
	h := newTestHandler(t, nil, database)
	id := seedProject(t, database)

	rec := get(t, h, "/index/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, id) || !strings.Contains(body, "<strong>Trust</strong>") {
		t.Error("detail missing record or report")
	}

	rec = get(t, h, "/index/01HZZZZZZZZZZZZZZZZZZZZZZZ")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error 404") {
		t.Error("expected error page")
	}

	rec = get(t, h, "/index/01HZZZZZZZZZZZZZZZZZZZZZZZ", "Accept", "application/json")
	if errObj := decodeJSON(t, rec)["error"].(map[string]any); errObj["status"] != float64(404) {
		t.Errorf("unexpected error payload: %v", errObj)
	}
}

func TestHandleIndexSearch(t *testing.T) {
	database := newTestDB(t)
	h := newTestHandler(t, nil, database)
	id := seedProject(t, database)

	body := get(t, h, "/index/search").Body.String()
	if !strings.Contains(body, `name="q"`) {
		t.Error("expected search form")
	}

	body = get(t, h, "/index/search?q=TRU").Body.String()
	if !strings.Contains(body, "Themes / Trust") || !strings.Contains(body, `href="/index/`+id+`"`) {
		t.Error("expected a hit linking to the project")
	}

	body = get(t, h, "/index/search?q=zzzz").Body.String()
	if !strings.Contains(body, "No codes match") {
		t.Error("expected empty result message")
	}

	rec := get(t, h, "/index/search?q="+strings.Repeat("x", ops.MaxQueryLength+1))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProjectRoutesAbsentWithoutDocument(t *testing.T) {
	rec := get(t, newTestHandler(t, nil, newTestDB(t)), "/codes")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- helpers ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrInvalidRequest, http.StatusBadRequest},
		{errors.ErrNotFound, http.StatusNotFound},
		{errors.ErrMalformedXML, http.StatusUnprocessableEntity},
		{errors.ErrReference, http.StatusUnprocessableEntity},
		{errors.ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for n, want := range tests {
		if got := formatCount(n); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestDerefAndHasValue(t *testing.T) {
	s := "x"
	var nilStr *string
	if deref(&s) != "x" || deref(nilStr) != "" || deref(nil) != "" {
		t.Error("deref mismatch")
	}
	if !hasValue(&s) || hasValue(nilStr) || hasValue(nil) {
		t.Error("hasValue mismatch")
	}
}

package container

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/qde"
)

const doc = `<?xml version="1.0" encoding="utf-8"?>
<Project xmlns="urn:QDA-XML:project:1.0" name="Archive test">
  <Sources>
    <TextSource guid="a0000000-0000-4000-8000-000000000001" plainTextPath="internal://notes.txt"/>
  </Sources>
  <Extra/>
</Project>`

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// writeOrderedZip writes entries in order, allowing repeated names.
func writeOrderedZip(t *testing.T, entries ...[2]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = io.WriteString(w, e[1])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "project.qdpx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.qdpx")
	require.NoError(t, os.WriteFile(path, buildZip(t, entries), 0600))
	return path
}

func TestLoad_Strategies(t *testing.T) {
	path := writeZip(t, map[string]string{
		DocumentEntry:       doc,
		"Sources/notes.txt": "hello",
	})

	for _, s := range []Strategy{Seek, Memory} {
		t.Run(s.String(), func(t *testing.T) {
			var sink diag.Collector
			p, err := Load(path, Options{Strategy: s, Decode: qde.Options{Sink: &sink}})
			require.NoError(t, err)
			require.Equal(t, "Archive test", p.Name)
			require.Len(t, p.Sources.Items, 1)
			require.Equal(t, 1, sink.Count(diag.UnknownElement))
		})
	}
}

func TestLoadBytes(t *testing.T) {
	p, err := LoadBytes(buildZip(t, map[string]string{DocumentEntry: doc}), Options{})
	require.NoError(t, err)
	require.Equal(t, "Archive test", p.Name)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		opts Options
		code errors.ErrorCode
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.qdpx") },
			code: errors.ErrIO,
		},
		{
			name: "not a zip",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "plain.qdpx")
				require.NoError(t, os.WriteFile(p, []byte("<Project name='x'/>"), 0600))
				return p
			},
			code: errors.ErrContainer,
		},
		{
			name: "no document entry",
			path: func(t *testing.T) string { return writeZip(t, map[string]string{"other.xml": doc}) },
			code: errors.ErrContainer,
		},
		{
			name: "entry name is case-sensitive",
			path: func(t *testing.T) string { return writeZip(t, map[string]string{"Project.QDE": doc}) },
			code: errors.ErrContainer,
		},
		{
			name: "repeated document entry",
			path: func(t *testing.T) string {
				return writeOrderedZip(t,
					[2]string{DocumentEntry, `<Project name="first"/>`},
					[2]string{DocumentEntry, `<Project name="second"/>`})
			},
			code: errors.ErrContainer,
		},
		{
			name: "memory limit",
			path: func(t *testing.T) string { return writeZip(t, map[string]string{DocumentEntry: doc}) },
			opts: Options{Strategy: Memory, MaxArchiveBytes: 16},
			code: errors.ErrContainer,
		},
		{
			name: "malformed document",
			path: func(t *testing.T) string { return writeZip(t, map[string]string{DocumentEntry: "<Project name='x'>"}) },
			code: errors.ErrMalformedXML,
		},
		{
			name: "schema violation",
			path: func(t *testing.T) string { return writeZip(t, map[string]string{DocumentEntry: "<Project/>"}) },
			code: errors.ErrSchemaViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(tt.path(t), tt.opts)
			require.Nil(t, p)
			require.Equal(t, tt.code, errors.CodeOf(err), "got %v", err)
		})
	}
}

func TestLoad_ReleasesFileOnFailure(t *testing.T) {
	path := writeZip(t, map[string]string{DocumentEntry: "<Project/>"})
	_, err := Load(path, Options{})
	require.Error(t, err)

	// The file handle is closed, so the file can be removed and recreated.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, buildZip(t, map[string]string{DocumentEntry: doc}), 0600))
	_, err = Load(path, Options{})
	require.NoError(t, err)
}

func TestOpenEntry(t *testing.T) {
	a, err := OpenBytes(buildZip(t, map[string]string{
		DocumentEntry:       doc,
		"Sources/notes.txt": "hello",
	}))
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, []string{"Sources/notes.txt", DocumentEntry}, a.Entries())

	rc, err := a.OpenEntry("internal://notes.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(body))

	_, err = a.OpenEntry("internal://missing.png")
	require.True(t, errors.Is(err, errors.ErrContainer), "got %v", err)

	_, err = a.OpenEntry(`C:\media\clip.mp4`)
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestResolveEntry(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		internal bool
	}{
		{"internal://a.txt", "Sources/a.txt", true},
		{"internal://dir/b.png", "Sources/dir/b.png", true},
		{"relative/c.pdf", "relative/c.pdf", false},
		{"file:///abs/d.mp3", "file:///abs/d.mp3", false},
	}
	for _, tt := range tests {
		got, internal := ResolveEntry(tt.in)
		if got != tt.want || internal != tt.internal {
			t.Errorf("ResolveEntry(%q) = %q, %v; want %q, %v", tt.in, got, internal, tt.want, tt.internal)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("memory")
	require.NoError(t, err)
	require.Equal(t, Memory, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	require.Equal(t, Seek, s)

	_, err = ParseStrategy("mmap")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestOpenFile_TakesOwnership(t *testing.T) {
	path := writeZip(t, map[string]string{DocumentEntry: doc})

	for _, s := range []Strategy{Seek, Memory} {
		t.Run(s.String(), func(t *testing.T) {
			f, err := os.Open(path)
			require.NoError(t, err)

			a, err := OpenFile(f, Options{Strategy: s})
			require.NoError(t, err)
			p, err := a.Project(qde.Options{})
			require.NoError(t, err)
			require.Equal(t, "Archive test", p.Name)
			require.NoError(t, a.Close())

			require.ErrorIs(t, f.Close(), os.ErrClosed)
		})
	}
}

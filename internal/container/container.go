// Package container opens a .qdpx archive and hands its project.qde entry to
// the decoder.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/qde"
)

// DocumentEntry is the archive entry holding the project document.
const DocumentEntry = "project.qde"

// DefaultMaxArchiveBytes caps the memory strategy.
const DefaultMaxArchiveBytes int64 = 1 << 30

const internalScheme = "internal://"

// Strategy selects how the archive bytes are accessed.
type Strategy uint8

const (
	// Seek reads the directory and entries from the open file.
	Seek Strategy = iota
	// Memory reads the whole file into memory first.
	Memory
)

func (s Strategy) String() string {
	if s == Memory {
		return "memory"
	}
	return "seek"
}

// ParseStrategy parses "seek" or "memory". The empty string means Seek.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "seek":
		return Seek, nil
	case "memory":
		return Memory, nil
	}
	return Seek, errors.NewInvalidRequest(fmt.Sprintf("unknown load strategy %q (want seek or memory)", s))
}

// Options configures Open and Load.
type Options struct {
	Strategy Strategy

	// MaxArchiveBytes bounds the file size under the Memory strategy. Zero
	// means DefaultMaxArchiveBytes.
	MaxArchiveBytes int64

	Decode qde.Options
}

// Archive is an open container. Close releases the backing file.
type Archive struct {
	zr     *zip.Reader
	closer io.Closer
}

// Open opens the archive at path.
func Open(path string, opts Options) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO(path, err)
	}
	return OpenFile(f, opts)
}

// OpenFile opens the archive stored in f and takes ownership of f: it is
// closed by Archive.Close, or before returning if opening fails. Under the
// Memory strategy f is read fully from its current offset and closed
// immediately.
func OpenFile(f *os.File, opts Options) (*Archive, error) {
	path := f.Name()
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewIO(path, err)
	}

	if opts.Strategy == Memory {
		defer f.Close()
		limit := opts.MaxArchiveBytes
		if limit <= 0 {
			limit = DefaultMaxArchiveBytes
		}
		if info.Size() > limit {
			return nil, errors.NewContainer(fmt.Sprintf("archive is %d bytes, larger than the %d byte limit", info.Size(), limit), nil)
		}
		data, err := io.ReadAll(io.LimitReader(f, limit))
		if err != nil {
			return nil, errors.NewIO(path, err)
		}
		return OpenBytes(data)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, errors.NewContainer(fmt.Sprintf("%s is not a zip archive", path), err)
	}
	return &Archive{zr: zr, closer: f}, nil
}

// OpenBytes opens an in-memory archive.
func OpenBytes(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewContainer("input is not a zip archive", err)
	}
	return &Archive{zr: zr}, nil
}

// Close releases the backing file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Entries lists the archive entry names in sorted order.
func (a *Archive) Entries() []string {
	names := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// lookup finds the single entry called name. A missing or repeated name is
// a Container error.
func (a *Archive) lookup(name string) (*zip.File, error) {
	var found *zip.File
	for _, f := range a.zr.File {
		if f.Name != name {
			continue
		}
		if found != nil {
			return nil, errors.NewContainer(fmt.Sprintf("archive holds more than one %s entry", name), nil)
		}
		found = f
	}
	if found == nil {
		return nil, errors.NewMissingEntry(name)
	}
	return found, nil
}

// Document opens the project.qde entry. The match is exact and case-sensitive.
func (a *Archive) Document() (io.ReadCloser, error) {
	f, err := a.lookup(DocumentEntry)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewContainer("cannot open "+DocumentEntry, err)
	}
	return rc, nil
}

// Project decodes the document entry.
func (a *Archive) Project(opts qde.Options) (*model.Project, error) {
	rc, err := a.Document()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tr := &trackingReader{r: rc}
	p, err := qde.DecodeReader(tr, opts)
	if err != nil && tr.err != nil {
		// The tokenizer saw a failed read, not bad XML.
		return nil, errors.NewContainer("cannot read "+DocumentEntry, tr.err)
	}
	return p, err
}

// ResolveEntry maps a media path from the document to an archive entry name.
// internal://name resolves to Sources/name. Any other path refers to a file
// outside the archive and is returned unchanged with internal set to false.
func ResolveEntry(path string) (name string, internal bool) {
	if rest, ok := strings.CutPrefix(path, internalScheme); ok {
		return "Sources/" + rest, true
	}
	return path, false
}

// OpenEntry opens the archive entry for a media path. Payload bytes are
// returned as stored; they are not validated.
func (a *Archive) OpenEntry(path string) (io.ReadCloser, error) {
	name, internal := ResolveEntry(path)
	if !internal {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("path %q is not stored in the archive", path))
	}
	f, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewContainer("cannot open "+name, err)
	}
	return rc, nil
}

// Load opens the archive at path, decodes its document and closes it.
func Load(path string, opts Options) (*model.Project, error) {
	a, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Project(opts.Decode)
}

// LoadBytes decodes the document of an in-memory archive.
func LoadBytes(data []byte, opts Options) (*model.Project, error) {
	a, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Project(opts.Decode)
}

type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}

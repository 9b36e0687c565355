// Package ops implements the operations behind the CLI, tool server and web
// UI: loading caller-supplied project files and maintaining the index.
package ops

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/container"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/qde"
)

// Pagination limits
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

func paginate(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	return min(limit, maxLimit), max(offset, 0)
}

// ContainerOptions maps configuration onto container and decoder options.
func ContainerOptions(cfg *config.Config, sink diag.Sink) (container.Options, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	strategy, err := container.ParseStrategy(cfg.LoadStrategy)
	if err != nil {
		return container.Options{}, err
	}
	return container.Options{
		Strategy:        strategy,
		MaxArchiveBytes: cfg.MaxArchiveBytes,
		Decode: qde.Options{
			MaxCodeDepth: cfg.MaxCodeDepth,
			Sink:         sink,
		},
	}, nil
}

// Loaded is a decoded project file.
type Loaded struct {
	Path     string // absolute
	Size     int64
	Checksum string // hex sha256 of the file
	Project  *model.Project
}

// LoadProject validates path with ValidatePath and decodes the file. A .qde
// file is decoded directly; a .qdpx file is opened as an archive.
func LoadProject(path string, cfg *config.Config, sink diag.Sink) (*Loaded, error) {
	absPath, err := ValidatePath(path, cfg)
	if err != nil {
		return nil, err
	}
	opts, err := ContainerOptions(cfg, sink)
	if err != nil {
		return nil, err
	}

	f, err := openFileNoFollowRead(absPath)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		return nil, errors.NewIO(path, err)
	}
	out := &Loaded{Path: absPath, Size: size, Checksum: hex.EncodeToString(h.Sum(nil))}

	if strings.EqualFold(filepath.Ext(absPath), ".qde") {
		defer f.Close()
		out.Project, err = qde.DecodeReader(f, opts.Decode)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	a, err := container.OpenFile(f, opts)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	out.Project, err = a.Project(opts.Decode)
	if err != nil {
		return nil, err
	}
	return out, nil
}

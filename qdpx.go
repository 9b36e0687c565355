// Package qdpx reads REFI-QDA project exchange files: .qdpx archives and the
// bare project.qde documents inside them.
//
// Decoding produces a typed Project. Unknown elements and attributes are
// skipped and reported to an optional Sink; schema violations and malformed
// input are returned as errors carrying an error code and a document
// location. References between entities are checked separately with
// ValidateReferences.
package qdpx

import (
	"io"

	"github.com/hpungsan/qdpx/internal/container"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
	"github.com/hpungsan/qdpx/internal/qde"
	"github.com/hpungsan/qdpx/internal/refcheck"
	"github.com/hpungsan/qdpx/internal/walk"
)

type (
	Project  = model.Project
	Codebook = model.Codebook
	Code     = model.Code
	Source   = model.Source
	Ref      = model.Ref
	Color    = model.Color

	// Error is the error type returned by every decoding and validation
	// function. Use IsCode to test its class.
	Error     = errors.QdpxError
	ErrorCode = errors.ErrorCode
	Location  = errors.Location

	// Record is a non-fatal finding delivered to a Sink.
	Record     = diag.Record
	RecordKind = diag.Kind
	Sink       = diag.Sink
	SinkFunc   = diag.SinkFunc
	Collector  = diag.Collector

	Report  = refcheck.Report
	Finding = refcheck.Finding
	Mode    = refcheck.Mode

	Signal = walk.Signal
)

// Error classes.
const (
	ErrIO              = errors.ErrIO
	ErrContainer       = errors.ErrContainer
	ErrMalformedXML    = errors.ErrMalformedXML
	ErrSchemaViolation = errors.ErrSchemaViolation
	ErrReference       = errors.ErrReference
)

// Validation modes.
const (
	Lenient = refcheck.Lenient
	Strict  = refcheck.Strict
)

// Traversal signals.
const (
	Continue = walk.Continue
	Stop     = walk.Stop
)

// Strategy selects how Open reads an archive.
type Strategy = container.Strategy

const (
	// Seek reads entries straight from the open file.
	Seek = container.Seek
	// Memory reads the whole file first.
	Memory = container.Memory
)

// Options configures decoding. The zero value is usable.
type Options struct {
	Strategy Strategy

	// MaxArchiveBytes bounds the file size under the Memory strategy.
	MaxArchiveBytes int64

	// MaxCodeDepth bounds Code nesting. Zero means 256.
	MaxCodeDepth int

	// Sink receives unknown element and attribute findings.
	Sink Sink
}

func (o Options) container() container.Options {
	return container.Options{
		Strategy:        o.Strategy,
		MaxArchiveBytes: o.MaxArchiveBytes,
		Decode:          o.decode(),
	}
}

func (o Options) decode() qde.Options {
	return qde.Options{MaxCodeDepth: o.MaxCodeDepth, Sink: o.Sink}
}

// Open decodes the project archive at path. The file is closed before Open
// returns, on success and on failure.
func Open(path string, opts Options) (*Project, error) {
	return container.Load(path, opts.container())
}

// DecodeBytes decodes a project archive held in memory.
func DecodeBytes(b []byte, opts Options) (*Project, error) {
	return container.LoadBytes(b, opts.container())
}

// DecodeDocument decodes a bare project document (the XML inside an archive).
func DecodeDocument(r io.Reader, opts Options) (*Project, error) {
	return qde.DecodeReader(r, opts.decode())
}

// VisitCodes calls visit for every code of p in pre-order until it returns
// Stop. It returns Stop if the walk was cut short.
func VisitCodes(p *Project, visit func(*Code) Signal) Signal {
	return walk.ProjectCodes(p, visit)
}

// ValidateOptions configures ValidateReferences.
type ValidateOptions struct {
	Mode Mode

	// CheckSources rejects a Sources element with no sources.
	CheckSources bool

	// Sink receives every finding as it is made.
	Sink Sink
}

// ValidateReferences checks identifier uniqueness and that every reference
// in p resolves. In Strict mode the first dangling reference is returned as an
// ErrReference error; the report is returned either way.
func ValidateReferences(p *Project, opts ValidateOptions) (*Report, error) {
	return refcheck.Validate(p, refcheck.Options{
		Mode:         opts.Mode,
		CheckSources: opts.CheckSources,
		Sink:         opts.Sink,
	})
}

// IsCode reports whether err is an *Error of class code.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, code)
}

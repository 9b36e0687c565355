// Package qde decodes a project.qde document into the model.
//
// Decoding is a single forward pass over an EventSource. Each element kind is
// described by a table (attribute name to setter, child name to handler) and
// one generic routine walks the event stream using those tables. Unknown
// elements and attributes are reported to the diagnostics sink and skipped.
// Every other problem aborts the decode; no partial project is returned.
package qde

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
)

// DefaultMaxCodeDepth bounds the nesting of Code elements.
const DefaultMaxCodeDepth = 256

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// Options configures a decode.
type Options struct {
	// MaxCodeDepth is the deepest Code nesting accepted. Zero means
	// DefaultMaxCodeDepth.
	MaxCodeDepth int

	// Sink receives unknown element and attribute findings. Nil discards them.
	Sink diag.Sink
}

// Decode builds a Project from src.
func Decode(src EventSource, opts Options) (*model.Project, error) {
	d := &decoder{
		src:          src,
		sink:         diag.OrDiscard(opts.Sink),
		maxCodeDepth: opts.MaxCodeDepth,
	}
	if d.maxCodeDepth <= 0 {
		d.maxCodeDepth = DefaultMaxCodeDepth
	}
	return d.document()
}

// DecodeReader tokenizes r with encoding/xml and decodes the result.
func DecodeReader(r io.Reader, opts Options) (*model.Project, error) {
	return Decode(NewXMLSource(r), opts)
}

// DecodeBytes decodes an in-memory document.
func DecodeBytes(b []byte, opts Options) (*model.Project, error) {
	return DecodeReader(bytes.NewReader(b), opts)
}

type decoder struct {
	src          EventSource
	sink         diag.Sink
	maxCodeDepth int
	codeDepth    int

	path      []string
	line, col int
}

func (d *decoder) next() (Event, error) {
	ev, err := d.src.Next()
	if err != nil {
		return Event{}, errors.NewMalformedXML(errors.Location{
			Path:   d.pathString(),
			Line:   ev.Line,
			Column: ev.Column,
		}, err)
	}
	d.line, d.col = ev.Line, ev.Column
	return ev, nil
}

func (d *decoder) pathString() string {
	if len(d.path) == 0 {
		return ""
	}
	return "/" + strings.Join(d.path, "/")
}

// loc is the position of the most recent event.
func (d *decoder) loc() errors.Location {
	return errors.Location{Path: d.pathString(), Line: d.line, Column: d.col}
}

// childLoc is the position of start, a child of the current element.
func (d *decoder) childLoc(start Event) errors.Location {
	return errors.Location{
		Path:   d.pathString() + "/" + start.Name,
		Line:   start.Line,
		Column: start.Column,
	}
}

func (d *decoder) report(loc errors.Location, kind diag.Kind, format string, args ...any) {
	d.sink.Report(diag.Record{Location: loc, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) violation(start Event, format string, args ...any) error {
	return errors.NewSchemaViolation(d.childLoc(start), fmt.Sprintf(format, args...))
}

func (d *decoder) document() (*model.Project, error) {
	var root Event
	for root.Kind != StartElement {
		ev, err := d.next()
		if err != nil {
			return nil, err
		}
		if ev.Kind == EOF {
			return nil, errors.NewSchemaViolation(d.loc(), "document has no root element")
		}
		if ev.Kind == StartElement {
			root = ev
		}
	}

	if root.Name != "Project" {
		return nil, d.violation(root, "root element is <%s>, want <Project>", root.Name)
	}
	if root.Namespace != "" && root.Namespace != model.Namespace {
		d.report(d.childLoc(root), diag.UnexpectedNamespace,
			"root namespace %q, want %q", root.Namespace, model.Namespace)
	}

	var p model.Project
	if err := decodeElement(d, projectSpec, root, &p); err != nil {
		return nil, err
	}

	for {
		ev, err := d.next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EOF:
			return &p, nil
		case StartElement:
			return nil, errors.NewMalformedXML(d.loc(), fmt.Errorf("element <%s> after the root element", ev.Name))
		}
	}
}

// decodeElement consumes the element opened by start into v, up to and
// including its end tag.
func decodeElement[T any](d *decoder, spec *elementSpec[T], start Event, v *T) error {
	at := d.childLoc(start)
	d.path = append(d.path, start.Name)
	defer func() { d.path = d.path[:len(d.path)-1] }()

	var seen map[string]bool
	for _, a := range start.Attrs {
		as, ok := spec.attrs[a.Name]
		if !ok || foreignAttr(a) {
			if !ignoredAttr(a) {
				d.report(at, diag.UnknownAttribute, "ignored unknown attribute %q on <%s>", qualifiedName(a), start.Name)
			}
			continue
		}
		if err := as.set(v, a.Value); err != nil {
			return errors.NewInvalidAttribute(at, start.Name, a.Name, err)
		}
		if as.required {
			if seen == nil {
				seen = make(map[string]bool, len(spec.required))
			}
			seen[a.Name] = true
		}
	}

	var text strings.Builder
	for {
		ev, err := d.next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case StartElement:
			if h, ok := spec.children[ev.Name]; ok {
				if err := h(d, ev, v); err != nil {
					return err
				}
				continue
			}
			if err := d.skip(ev); err != nil {
				return err
			}
		case Text:
			if spec.text != nil {
				text.WriteString(ev.Text)
			}
		case EndElement:
			for _, name := range spec.required {
				if !seen[name] {
					return errors.NewMissingAttribute(at, start.Name, name)
				}
			}
			if spec.text != nil {
				if err := spec.text(v, text.String()); err != nil {
					e := errors.NewSchemaViolation(at, fmt.Sprintf("element <%s> content: %v", start.Name, err))
					e.Err = err
					return e
				}
			}
			if spec.check != nil {
				if err := spec.check(v); err != nil {
					e := errors.NewSchemaViolation(at, err.Error())
					e.Err = err
					return e
				}
			}
			return nil
		case EOF:
			return errors.NewMalformedXML(d.loc(), io.ErrUnexpectedEOF)
		}
	}
}

// skip reports an unknown element and discards its subtree.
func (d *decoder) skip(start Event) error {
	d.report(d.childLoc(start), diag.UnknownElement, "skipped unknown element <%s>", start.Name)
	depth := 1
	for depth > 0 {
		ev, err := d.next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case StartElement:
			depth++
		case EndElement:
			depth--
		case EOF:
			return errors.NewMalformedXML(d.loc(), io.ErrUnexpectedEOF)
		}
	}
	return nil
}

// code decodes one Code and its descendants, enforcing the depth bound.
func (d *decoder) code(start Event, list *[]model.Code) error {
	if d.codeDepth >= d.maxCodeDepth {
		return d.violation(start, "code hierarchy exceeds maximum depth %d", d.maxCodeDepth)
	}
	d.codeDepth++
	defer func() { d.codeDepth-- }()

	var c model.Code
	if err := decodeElement(d, codeSpec, start, &c); err != nil {
		return err
	}
	*list = append(*list, c)
	return nil
}

// foreignAttr reports whether a belongs to another vocabulary. Schema
// attributes are unqualified.
func foreignAttr(a Attr) bool {
	return a.Namespace != "" && a.Namespace != model.Namespace
}

func qualifiedName(a Attr) string {
	if a.Namespace == "" || strings.HasPrefix(a.Name, "xmlns") {
		return a.Name
	}
	return "{" + a.Namespace + "}" + a.Name
}

func ignoredAttr(a Attr) bool {
	return a.Name == "xmlns" || strings.HasPrefix(a.Name, "xmlns:") || a.Namespace == xsiNamespace
}

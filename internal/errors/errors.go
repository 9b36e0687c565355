package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a qdpx error class.
type ErrorCode string

const (
	ErrIO              ErrorCode = "IO_ERROR"         // byte source unreadable
	ErrContainer       ErrorCode = "CONTAINER_ERROR"  // not an archive, or document entry missing
	ErrMalformedXML    ErrorCode = "MALFORMED_XML"    // tokenizer failure
	ErrSchemaViolation ErrorCode = "SCHEMA_VIOLATION" // document does not satisfy the schema invariants
	ErrReference       ErrorCode = "REFERENCE_ERROR"  // dangling reference or duplicate identifier
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // bad caller input (CLI, tools, web)
	ErrNotFound        ErrorCode = "NOT_FOUND"        // index record or entity not found
	ErrInternal        ErrorCode = "INTERNAL"
)

// Location points at the place in the document where an error was found.
type Location struct {
	Path   string `json:"path,omitempty"` // element path, e.g. /Project/CodeBook/Codes/Code
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String renders the location as "path (line:col)".
func (l Location) String() string {
	switch {
	case l.Path == "" && l.Line == 0:
		return ""
	case l.Line == 0:
		return l.Path
	case l.Path == "":
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	default:
		return fmt.Sprintf("%s (%d:%d)", l.Path, l.Line, l.Column)
	}
}

// QdpxError represents a structured error with code, location, and details.
type QdpxError struct {
	Code     ErrorCode
	Message  string
	Location Location
	Details  map[string]any
	Err      error
}

// Error implements the error interface.
func (e *QdpxError) Error() string {
	if loc := e.Location.String(); loc != "" {
		return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, loc)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *QdpxError) Unwrap() error {
	return e.Err
}

// NewIO creates an error for an unreadable byte source.
func NewIO(path string, err error) *QdpxError {
	msg := "cannot read input"
	if path != "" {
		msg = fmt.Sprintf("cannot read %q", path)
	}
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &QdpxError{
		Code:    ErrIO,
		Message: msg,
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

// NewContainer creates an error for an invalid archive.
func NewContainer(msg string, err error) *QdpxError {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &QdpxError{
		Code:    ErrContainer,
		Message: msg,
		Err:     err,
	}
}

// NewMissingEntry creates a container error for an absent archive entry.
func NewMissingEntry(name string) *QdpxError {
	return &QdpxError{
		Code:    ErrContainer,
		Message: fmt.Sprintf("archive has no entry %q", name),
		Details: map[string]any{"entry": name},
	}
}

// NewMalformedXML wraps a tokenizer failure.
func NewMalformedXML(loc Location, err error) *QdpxError {
	msg := "malformed xml"
	if err != nil {
		msg = fmt.Sprintf("malformed xml: %v", err)
	}
	return &QdpxError{
		Code:     ErrMalformedXML,
		Message:  msg,
		Location: loc,
		Err:      err,
	}
}

// NewSchemaViolation creates an error for a document that breaks a schema rule.
func NewSchemaViolation(loc Location, msg string) *QdpxError {
	return &QdpxError{
		Code:     ErrSchemaViolation,
		Message:  msg,
		Location: loc,
	}
}

// NewMissingAttribute creates a schema violation for a required attribute.
func NewMissingAttribute(loc Location, element, attr string) *QdpxError {
	return &QdpxError{
		Code:     ErrSchemaViolation,
		Message:  fmt.Sprintf("element <%s> is missing required attribute %q", element, attr),
		Location: loc,
		Details:  map[string]any{"element": element, "attribute": attr},
	}
}

// NewInvalidAttribute creates a schema violation for an attribute whose value
// failed to decode.
func NewInvalidAttribute(loc Location, element, attr string, err error) *QdpxError {
	return &QdpxError{
		Code:     ErrSchemaViolation,
		Message:  fmt.Sprintf("element <%s> attribute %q: %v", element, attr, err),
		Location: loc,
		Details:  map[string]any{"element": element, "attribute": attr},
		Err:      err,
	}
}

// NewDanglingReference creates a reference error for an unresolved target.
func NewDanglingReference(kind, target, owner string) *QdpxError {
	return &QdpxError{
		Code:    ErrReference,
		Message: fmt.Sprintf("%s in %s points at unknown target %s", kind, owner, target),
		Details: map[string]any{"ref_kind": kind, "target": target, "owner": owner},
	}
}

// NewDuplicateIdentifier creates a reference error for an identifier declared twice.
func NewDuplicateIdentifier(id, first, second string) *QdpxError {
	return &QdpxError{
		Code:    ErrReference,
		Message: fmt.Sprintf("identifier %s declared by both %s and %s", id, first, second),
		Details: map[string]any{"identifier": id, "first": first, "second": second},
	}
}

// NewInvalidRequest creates an error for invalid caller input.
func NewInvalidRequest(msg string) *QdpxError {
	return &QdpxError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing index record or entity.
func NewNotFound(identifier string) *QdpxError {
	return &QdpxError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates an error for a missing input file.
func NewFileNotFound(path string) *QdpxError {
	return &QdpxError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *QdpxError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &QdpxError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a QdpxError with the given code.
func Is(err error, code ErrorCode) bool {
	var qErr *QdpxError
	if stderrors.As(err, &qErr) {
		return qErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost QdpxError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var qErr *QdpxError
	if stderrors.As(err, &qErr) {
		return qErr.Code
	}
	return ErrInternal
}

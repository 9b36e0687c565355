// Package refcheck validates identifier uniqueness and cross-references of a
// decoded project. It never modifies the project.
package refcheck

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
)

// Mode selects how reference findings are handled.
type Mode uint8

const (
	// Lenient collects every finding into the report.
	Lenient Mode = iota
	// Strict stops at the first dangling reference and returns it as an
	// error. Duplicate identifiers also fail, after all of them are reported.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode parses "strict" or "lenient".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "lenient", "":
		return Lenient, nil
	}
	return Lenient, errors.NewInvalidRequest(fmt.Sprintf("unknown validation mode %q (want strict or lenient)", s))
}

// Options configures Validate.
type Options struct {
	Mode Mode

	// CheckSources also requires a present Sources element to hold at least
	// one source.
	CheckSources bool

	// Sink receives every finding as it is made. Nil discards.
	Sink diag.Sink
}

// Finding is one problem found by the validator.
type Finding struct {
	Kind    diag.Kind `json:"kind"`
	ID      string    `json:"id"`
	Owner   string    `json:"owner"`
	Message string    `json:"message"`
}

// Report summarises a validation pass.
type Report struct {
	Mode     Mode      `json:"mode"`
	Declared int       `json:"declared"`
	Checked  int       `json:"checked"`
	Findings []Finding `json:"findings"`
}

// Count returns the number of findings of kind k.
func (r *Report) Count(k diag.Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// OK reports whether the pass found nothing.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

type entity struct {
	kind  model.Kind
	owner string
}

type validator struct {
	opts   Options
	sink   diag.Sink
	ids    map[uuid.UUID]entity
	vars   map[uuid.UUID]model.VariableType
	report *Report
	err    error
}

// Validate checks p and returns a report of what it found. The error is
// non-nil when strict mode hit a reference problem, or when CheckSources is
// set and the Sources element is empty. The report is returned in both cases.
func Validate(p *model.Project, opts Options) (*Report, error) {
	v := &validator{
		opts:   opts,
		sink:   diag.OrDiscard(opts.Sink),
		ids:    make(map[uuid.UUID]entity),
		vars:   make(map[uuid.UUID]model.VariableType),
		report: &Report{Mode: opts.Mode, Findings: []Finding{}},
	}

	if p.Variables != nil {
		for _, vr := range p.Variables.Items {
			v.vars[vr.ID] = vr.Type
		}
	}

	(&scanner{declare: v.declare}).project(p)
	if v.err != nil {
		return v.report, v.err
	}

	(&scanner{ref: v.check, value: v.checkValue}).project(p)
	if v.err != nil {
		return v.report, v.err
	}

	if opts.CheckSources && p.Sources != nil {
		if err := p.Sources.Validate(); err != nil {
			v.add(Finding{Kind: diag.EmptySources, Owner: "Sources", Message: err.Error()})
			e := errors.NewSchemaViolation(errors.Location{Path: "/Project/Sources"}, err.Error())
			e.Err = err
			return v.report, e
		}
	}
	return v.report, nil
}

func (v *validator) add(f Finding) {
	v.report.Findings = append(v.report.Findings, f)
	v.sink.Report(diag.Record{
		Location: errors.Location{Path: f.Owner},
		Kind:     f.Kind,
		Message:  f.Message,
	})
}

func (v *validator) declare(kind model.Kind, id uuid.UUID, owner string) {
	v.report.Declared++
	first, dup := v.ids[id]
	if !dup {
		v.ids[id] = entity{kind: kind, owner: owner}
		return
	}
	v.add(Finding{
		Kind:    diag.DuplicateIdentifier,
		ID:      id.String(),
		Owner:   owner,
		Message: fmt.Sprintf("identifier %s declared by both %s and %s", id, first.owner, owner),
	})
	if v.opts.Mode == Strict && v.err == nil {
		v.err = errors.NewDuplicateIdentifier(id.String(), first.owner, owner)
	}
}

func (v *validator) check(r model.Ref, owner string) {
	if v.err != nil {
		return
	}
	v.report.Checked++

	target, ok := v.ids[r.Target]
	var msg string
	switch {
	case !ok:
		msg = fmt.Sprintf("%s reference in %s points at unknown target %s", r.Kind, owner, r.Target)
	case !r.Kind.Accepts(target.kind):
		msg = fmt.Sprintf("%s reference in %s points at %s, which is a %s", r.Kind, owner, target.owner, target.kind)
	default:
		return
	}

	v.add(Finding{Kind: diag.DanglingReference, ID: r.Target.String(), Owner: owner, Message: msg})
	if v.opts.Mode == Strict {
		e := errors.NewDanglingReference(r.Kind.String(), r.Target.String(), owner)
		e.Message = msg
		v.err = e
	}
}

func (v *validator) checkValue(vv model.VariableValue, owner string) {
	if v.err != nil {
		return
	}
	want, ok := v.vars[vv.VariableRef.Target]
	if !ok || want == vv.Value.Type {
		return
	}
	v.add(Finding{
		Kind:  diag.TypeMismatch,
		ID:    vv.VariableRef.Target.String(),
		Owner: owner,
		Message: fmt.Sprintf("value in %s is %s but variable %s is declared %s",
			owner, vv.Value.Type, vv.VariableRef.Target, want),
	})
}

package qde

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/qdpx/internal/codec"
	"github.com/hpungsan/qdpx/internal/model"
)

type attrSpec[T any] struct {
	required bool
	set      func(v *T, raw string) error
}

type childFunc[T any] func(d *decoder, start Event, v *T) error

type attrs[T any] map[string]attrSpec[T]

type children[T any] map[string]childFunc[T]

// elementSpec describes how one element kind maps onto T.
type elementSpec[T any] struct {
	attrs    attrs[T]
	children children[T]
	required []string

	// text receives the concatenated character data; nil ignores it.
	text func(v *T, s string) error
	// check runs after the end tag and the required-attribute check.
	check func(v *T) error
}

func element[T any](a attrs[T], c children[T]) *elementSpec[T] {
	spec := &elementSpec[T]{attrs: a, children: c}
	for name, as := range a {
		if as.required {
			spec.required = append(spec.required, name)
		}
	}
	sort.Strings(spec.required)
	return spec
}

func (s *elementSpec[T]) withCheck(fn func(v *T) error) *elementSpec[T] {
	s.check = fn
	return s
}

func merge[M ~map[string]V, V any](ms ...M) M {
	out := make(M)
	for _, m := range ms {
		maps.Copy(out, m)
	}
	return out
}

// Attribute setters.

func required[T any](a attrSpec[T]) attrSpec[T] {
	a.required = true
	return a
}

func idAttr[T any](field func(*T) *uuid.UUID) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		id, err := codec.ParseID(raw)
		if err != nil {
			return err
		}
		*field(v) = id
		return nil
	}}
}

func optID[T any](field func(*T) **uuid.UUID) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		id, err := codec.ParseID(raw)
		if err != nil {
			return err
		}
		*field(v) = &id
		return nil
	}}
}

func str[T any](field func(*T) *string) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		*field(v) = raw
		return nil
	}}
}

func optStr[T any](field func(*T) **string) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		*field(v) = &raw
		return nil
	}}
}

func optTime[T any](field func(*T) **time.Time) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		t, err := codec.ParseTimestamp(raw)
		if err != nil {
			return err
		}
		*field(v) = &t
		return nil
	}}
}

func optColor[T any](field func(*T) **model.Color) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		rgb, err := codec.ParseColor(raw)
		if err != nil {
			return err
		}
		*field(v) = &model.Color{R: rgb.R, G: rgb.G, B: rgb.B}
		return nil
	}}
}

func boolean[T any](field func(*T) *bool) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		b, err := codec.ParseBool(raw)
		if err != nil {
			return err
		}
		*field(v) = b
		return nil
	}}
}

func unsigned[T any, N ~uint32 | ~uint64](field func(*T) *N) attrSpec[T] {
	bits := 64
	if uint64(^N(0)) == math.MaxUint32 {
		bits = 32
	}
	return attrSpec[T]{set: func(v *T, raw string) error {
		n, err := codec.ParseUint(raw, bits)
		if err != nil {
			return err
		}
		*field(v) = N(n)
		return nil
	}}
}

func optUnsigned[T any](field func(*T) **uint64) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		n, err := codec.ParseUint(raw, 64)
		if err != nil {
			return err
		}
		*field(v) = &n
		return nil
	}}
}

func refAttr[T any](kind model.Kind, field func(*T) *model.Ref) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		id, err := codec.ParseID(raw)
		if err != nil {
			return err
		}
		*field(v) = model.Ref{Target: id, Kind: kind}
		return nil
	}}
}

func optRef[T any](kind model.Kind, field func(*T) **model.Ref) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		id, err := codec.ParseID(raw)
		if err != nil {
			return err
		}
		*field(v) = &model.Ref{Target: id, Kind: kind}
		return nil
	}}
}

func optEnum[T any, E ~string](field func(*T) **E, allowed ...E) attrSpec[T] {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return attrSpec[T]{set: func(v *T, raw string) error {
		s, err := codec.ParseEnum(raw, names...)
		if err != nil {
			return err
		}
		e := E(s)
		*field(v) = &e
		return nil
	}}
}

func variableType[T any](field func(*T) *model.VariableType) attrSpec[T] {
	return attrSpec[T]{set: func(v *T, raw string) error {
		s, err := codec.ParseEnum(raw, model.VariableTypeNames...)
		if err != nil {
			return err
		}
		*field(v) = model.VariableType(slices.Index(model.VariableTypeNames, s))
		return nil
	}}
}

// Child handlers.

// one decodes a child that may occur at most once.
func one[T, C any](spec **elementSpec[C], field func(*T) **C) childFunc[T] {
	return func(d *decoder, start Event, v *T) error {
		f := field(v)
		if *f != nil {
			return d.violation(start, "duplicate <%s>", start.Name)
		}
		c := new(C)
		if err := decodeElement(d, *spec, start, c); err != nil {
			return err
		}
		*f = c
		return nil
	}
}

// many appends every occurrence of a child to a list.
func many[T, C any](spec **elementSpec[C], list func(*T) *[]C) childFunc[T] {
	return func(d *decoder, start Event, v *T) error {
		var c C
		if err := decodeElement(d, *spec, start, &c); err != nil {
			return err
		}
		l := list(v)
		*l = append(*l, c)
		return nil
	}
}

// text decodes a text-only child such as Description.
func text[T any](field func(*T) **string) childFunc[T] {
	return one(&textSpec, field)
}

// refs appends each occurrence of a targetGUID element as a Ref of kind.
func refs[T any](kind model.Kind, list func(*T) *[]model.Ref) childFunc[T] {
	return func(d *decoder, start Event, v *T) error {
		r := model.Ref{Kind: kind}
		if err := decodeElement(d, refSpec, start, &r); err != nil {
			return err
		}
		l := list(v)
		*l = append(*l, r)
		return nil
	}
}

// exactRef decodes a targetGUID element that must occur exactly once. A zero
// Kind on the field marks it as not yet seen.
func exactRef[T any](kind model.Kind, field func(*T) *model.Ref) childFunc[T] {
	return func(d *decoder, start Event, v *T) error {
		f := field(v)
		if f.Kind != model.KindAny {
			return d.violation(start, "duplicate <%s>", start.Name)
		}
		r := model.Ref{Kind: kind}
		if err := decodeElement(d, refSpec, start, &r); err != nil {
			return err
		}
		*f = r
		return nil
	}
}

// variant wraps one arm of the Sources union.
func variant[C any](spec **elementSpec[C], wrap func(*C) model.Source) childFunc[model.Sources] {
	return func(d *decoder, start Event, s *model.Sources) error {
		c := new(C)
		if err := decodeElement(d, *spec, start, c); err != nil {
			return err
		}
		s.Items = append(s.Items, wrap(c))
		return nil
	}
}

// variableValue tracks which arm of the value union has been seen.
type variableValue struct {
	model.VariableValue
	hasValue bool
}

func variableValues[T any](list func(*T) *[]model.VariableValue) childFunc[T] {
	return func(d *decoder, start Event, v *T) error {
		var vv variableValue
		if err := decodeElement(d, variableValueSpec, start, &vv); err != nil {
			return err
		}
		l := list(v)
		*l = append(*l, vv.VariableValue)
		return nil
	}
}

func value(typ model.VariableType, parse func(raw string, val *model.Value) error) childFunc[variableValue] {
	return func(d *decoder, start Event, vv *variableValue) error {
		if vv.hasValue {
			return d.violation(start, "<VariableValue> has more than one value")
		}
		var raw string
		if err := decodeElement(d, textSpec, start, &raw); err != nil {
			return err
		}
		val := model.Value{Type: typ}
		if err := parse(raw, &val); err != nil {
			return d.violation(start, "element <%s> content: %v", start.Name, err)
		}
		vv.Value = val
		vv.hasValue = true
		return nil
	}
}

func ordered(what string, lo, hi uint64) error {
	if lo > hi {
		return fmt.Errorf("%s: start %d is after end %d", what, lo, hi)
	}
	return nil
}

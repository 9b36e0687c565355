package refcheck

import (
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/model"
)

var (
	codeA   = uuid.MustParse("a0000000-0000-4000-8000-000000000001")
	codeB   = uuid.MustParse("b0000000-0000-4000-8000-000000000002")
	source1 = uuid.MustParse("c0000000-0000-4000-8000-000000000003")
	sel1    = uuid.MustParse("d0000000-0000-4000-8000-000000000004")
	coding1 = uuid.MustParse("e0000000-0000-4000-8000-000000000005")
	note1   = uuid.MustParse("f0000000-0000-4000-8000-000000000006")
	var1    = uuid.MustParse("10000000-0000-4000-8000-000000000007")
	missing = uuid.MustParse("20000000-0000-4000-8000-000000000008")
	coding2 = uuid.MustParse("30000000-0000-4000-8000-000000000009")
)

// sample returns a consistent project: codes A(B), a text source with one
// coded selection, a note, and an integer variable.
func sample() *model.Project {
	return &model.Project{
		Name: "p",
		Codebook: &model.Codebook{Codes: []model.Code{{
			ID: codeA, Name: "A",
			Children: []model.Code{{ID: codeB, Name: "B", NoteRefs: []model.Ref{model.NoteRef(note1)}}},
		}}},
		Variables: &model.Variables{Items: []model.Variable{{ID: var1, Name: "age", Type: model.VariableInteger}}},
		Sources: &model.Sources{Items: []model.Source{{
			Kind: model.SourceText,
			Text: &model.TextSource{
				SourceHeader: model.SourceHeader{
					ID: source1,
					VariableValues: []model.VariableValue{{
						VariableRef: model.VariableRef(var1),
						Value:       model.Value{Type: model.VariableInteger, Int: 3},
					}},
				},
				Selections: []model.PlainTextSelection{{
					SelectionHeader: model.SelectionHeader{
						ID:      sel1,
						Codings: []model.Coding{{ID: coding1, CodeRef: model.CodeRef(codeB)}},
					},
					End: 4,
				}},
			},
		}}},
		Notes: &model.Notes{Items: []model.TextSource{{SourceHeader: model.SourceHeader{ID: note1}}}},
		Cases: &model.Cases{Items: []model.Case{{
			ID:            uuid.New(),
			SourceRefs:    []model.Ref{model.SourceRef(source1)},
			SelectionRefs: []model.Ref{model.SelectionRef(sel1)},
		}}},
	}
}

func TestValidate_Clean(t *testing.T) {
	for _, mode := range []Mode{Lenient, Strict} {
		t.Run(mode.String(), func(t *testing.T) {
			rep, err := Validate(sample(), Options{Mode: mode, CheckSources: true})
			require.NoError(t, err)
			require.True(t, rep.OK(), "findings: %+v", rep.Findings)
			require.Equal(t, 8, rep.Declared)
			require.Equal(t, 5, rep.Checked)
		})
	}
}

func withDanglingCodeRefs() *model.Project {
	p := sample()
	sel := &p.Sources.Items[0].Text.Selections[0]
	sel.Codings = append(sel.Codings,
		model.Coding{ID: coding2, CodeRef: model.CodeRef(missing)},
	)
	p.Cases.Items[0].CodeRefs = []model.Ref{model.CodeRef(missing)}
	return p
}

func TestValidate_DanglingLenient(t *testing.T) {
	var sink diag.Collector
	rep, err := Validate(withDanglingCodeRefs(), Options{Mode: Lenient, Sink: &sink})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Count(diag.DanglingReference))
	require.Equal(t, 2, sink.Count(diag.DanglingReference))
	require.Equal(t, missing.String(), rep.Findings[0].ID)
}

func TestValidate_DanglingStrict(t *testing.T) {
	rep, err := Validate(withDanglingCodeRefs(), Options{Mode: Strict})
	require.True(t, errors.Is(err, errors.ErrReference), "got %v", err)
	require.Equal(t, 1, rep.Count(diag.DanglingReference), "strict mode stops at the first dangling reference")
}

func TestValidate_KindMismatchIsDangling(t *testing.T) {
	p := sample()
	p.Codebook.Codes[0].Children[0].NoteRefs = []model.Ref{model.NoteRef(codeA)}

	rep, err := Validate(p, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Count(diag.DanglingReference))
	require.Contains(t, rep.Findings[0].Message, "which is a code")
}

func TestValidate_DuplicatesAlwaysReported(t *testing.T) {
	dup := func() *model.Project {
		p := sample()
		p.Notes.Items = append(p.Notes.Items, model.TextSource{SourceHeader: model.SourceHeader{ID: codeA}})
		return p
	}

	rep, err := Validate(dup(), Options{Mode: Lenient})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Count(diag.DuplicateIdentifier))

	rep, err = Validate(dup(), Options{Mode: Strict})
	require.True(t, errors.Is(err, errors.ErrReference), "got %v", err)
	require.Equal(t, 1, rep.Count(diag.DuplicateIdentifier))
}

func TestValidate_TypeMismatch(t *testing.T) {
	p := sample()
	p.Sources.Items[0].Text.VariableValues[0].Value = model.Value{Type: model.VariableText, Text: "three"}

	rep, err := Validate(p, Options{Mode: Strict})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Count(diag.TypeMismatch))
}

func TestValidate_EmptySources(t *testing.T) {
	p := sample()
	p.Sources = &model.Sources{}
	p.Cases = nil

	rep, err := Validate(p, Options{})
	require.NoError(t, err, "sources check is opt-in")

	rep, err = Validate(p, Options{CheckSources: true})
	require.True(t, errors.Is(err, errors.ErrSchemaViolation), "got %v", err)
	require.True(t, stderrors.Is(err, model.ErrNoSources))
	require.Equal(t, 1, rep.Count(diag.EmptySources))

	p.Sources = nil
	_, err = Validate(p, Options{CheckSources: true})
	require.NoError(t, err, "an absent Sources element is not checked")
}

func TestValidate_DoesNotMutate(t *testing.T) {
	p := withDanglingCodeRefs()
	before := withDanglingCodeRefs()
	before.Cases.Items[0].ID = p.Cases.Items[0].ID

	_, _ = Validate(p, Options{})
	require.Equal(t, before, p)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("strict")
	require.NoError(t, err)
	require.Equal(t, Strict, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	require.Equal(t, Lenient, m)

	_, err = ParseMode("paranoid")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

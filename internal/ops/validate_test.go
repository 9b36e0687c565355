package ops

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/refcheck"
)

const danglingDoc = `<Project name="Dangling">
  <CodeBook><Codes><Code guid="` + codeA + `" name="A" isCodable="true"/></Codes></CodeBook>
  <Sources>
    <TextSource guid="d0000000-0000-4000-8000-000000000004">
      <Coding guid="f0000000-0000-4000-8000-000000000006"><CodeRef targetGUID="` + codeB + `"/></Coding>
      <Coding guid="f0000000-0000-4000-8000-000000000007"><CodeRef targetGUID="` + codeC + `"/></Coding>
    </TextSource>
  </Sources>
</Project>`

func boolPtr(b bool) *bool {
	return &b
}

func TestValidateOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := ValidateOptions(cfg, nil, nil, nil)
	require.Equal(t, refcheck.Lenient, opts.Mode)
	require.False(t, opts.CheckSources)

	cfg.StrictReferences = true
	cfg.CheckSources = true
	opts = ValidateOptions(cfg, nil, nil, nil)
	require.Equal(t, refcheck.Strict, opts.Mode)
	require.True(t, opts.CheckSources)

	opts = ValidateOptions(cfg, boolPtr(false), boolPtr(false), nil)
	require.Equal(t, refcheck.Lenient, opts.Mode)
	require.False(t, opts.CheckSources)

	require.Equal(t, refcheck.Lenient, ValidateOptions(nil, nil, nil, nil).Mode)
}

func TestValidate(t *testing.T) {
	_, cfg, dir := testEnv(t)

	clean, err := Validate(cfg, ValidateInput{Path: writeArchive(t, dir, "study.qdpx", studyDoc)})
	require.NoError(t, err)
	require.True(t, clean.Valid)
	require.Empty(t, clean.Error)
	require.True(t, strings.HasSuffix(clean.Path, "study.qdpx"))

	path := writeArchive(t, dir, "dangling.qdpx", danglingDoc)

	var sink diag.Collector
	lenient, err := Validate(cfg, ValidateInput{Path: path, Sink: &sink})
	require.NoError(t, err)
	require.False(t, lenient.Valid)
	require.Empty(t, lenient.Error)
	require.Equal(t, 2, lenient.Report.Count(diag.DanglingReference))
	require.Equal(t, 2, sink.Count(diag.DanglingReference))

	strict, err := Validate(cfg, ValidateInput{Path: path, Strict: boolPtr(true)})
	require.NoError(t, err)
	require.False(t, strict.Valid)
	require.Contains(t, strict.Error, "REFERENCE_ERROR")
	require.Len(t, strict.Report.Findings, 1)
}

func TestValidate_EmptySources(t *testing.T) {
	_, cfg, dir := testEnv(t)
	path := writeArchive(t, dir, "empty.qdpx", `<Project name="E"><Sources/></Project>`)

	out, err := Validate(cfg, ValidateInput{Path: path})
	require.NoError(t, err)
	require.True(t, out.Valid)

	out, err = Validate(cfg, ValidateInput{Path: path, CheckSources: boolPtr(true)})
	require.NoError(t, err)
	require.False(t, out.Valid)
	require.Contains(t, out.Error, "SCHEMA_VIOLATION")
	require.Equal(t, 1, out.Report.Count(diag.EmptySources))
}
